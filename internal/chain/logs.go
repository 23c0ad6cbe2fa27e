package chain

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// NewQuestionEvent is one parsed LogNewQuestion entry. When the data segment
// of a log cannot be decoded, only the indexed fields (ID, Asker,
// ContentHash, BlockNumber) are populated and Partial is set; the V2 read
// path degrades to a stub in that case instead of failing the page.
type NewQuestionEvent struct {
	ID          common.Hash
	Asker       common.Address
	ContentHash common.Hash

	TemplateID uint32
	Question   string
	Arbitrator common.Address
	Timeout    int64
	OpeningTs  int64
	CreatedTs  int64

	BlockNumber uint64
	TxHash      common.Hash
	Partial     bool
}

// NewAnswerEvent is one parsed LogNewAnswer entry.
type NewAnswerEvent struct {
	QuestionID   common.Hash
	Answerer     common.Address
	Answer       common.Hash
	Bond         *big.Int
	Ts           int64
	IsCommitment bool
	BlockNumber  uint64
}

// ScanNewQuestions filters LogNewQuestion events over the most recent window
// of blocks and returns them sorted by block number descending (newest
// first). window == 0 scans from genesis.
func (c *Caller) ScanNewQuestions(ctx context.Context, window uint64) ([]NewQuestionEvent, error) {
	logs, err := c.filterWindow(ctx, window, "LogNewQuestion")
	if err != nil {
		return nil, err
	}

	events := make([]NewQuestionEvent, 0, len(logs))
	for _, lg := range logs {
		events = append(events, c.parseNewQuestion(lg))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].BlockNumber > events[j].BlockNumber
	})
	return events, nil
}

// ScanNewAnswers filters LogNewAnswer events over the most recent window of
// blocks, oldest first (replay order for the indexer).
func (c *Caller) ScanNewAnswers(ctx context.Context, window uint64) ([]NewAnswerEvent, error) {
	logs, err := c.filterWindow(ctx, window, "LogNewAnswer")
	if err != nil {
		return nil, err
	}

	events := make([]NewAnswerEvent, 0, len(logs))
	for _, lg := range logs {
		ev, err := c.parseNewAnswer(lg)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (c *Caller) filterWindow(ctx context.Context, window uint64, event string) ([]types.Log, error) {
	head, err := c.BlockNumber(ctx)
	if err != nil {
		return nil, err
	}

	from := new(big.Int)
	if window > 0 && head > window {
		from.SetUint64(head - window)
	}

	query := ethereum.FilterQuery{
		FromBlock: from,
		ToBlock:   new(big.Int).SetUint64(head),
		Addresses: []common.Address{c.oracle},
		Topics:    [][]common.Hash{{c.abis.oracle.Events[event].ID}},
	}

	logs, err := c.client.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("chain: filter %s: %w", event, err)
	}
	return logs, nil
}

func (c *Caller) parseNewQuestion(lg types.Log) NewQuestionEvent {
	ev := NewQuestionEvent{
		BlockNumber: lg.BlockNumber,
		TxHash:      lg.TxHash,
		Partial:     true,
	}

	// Indexed topics: [0]=sig, [1]=questionId, [2]=asker, [3]=contentHash.
	if len(lg.Topics) > 1 {
		ev.ID = lg.Topics[1]
	}
	if len(lg.Topics) > 2 {
		ev.Asker = common.BytesToAddress(lg.Topics[2].Bytes())
	}
	if len(lg.Topics) > 3 {
		ev.ContentHash = lg.Topics[3]
	}

	vals, err := c.abis.oracle.Events["LogNewQuestion"].Inputs.NonIndexed().UnpackValues(lg.Data)
	if err != nil || len(vals) < 7 {
		return ev
	}

	if tid, ok := vals[0].(*big.Int); ok {
		ev.TemplateID = uint32(tid.Uint64())
	}
	if q, ok := vals[1].(string); ok {
		ev.Question = q
	}
	if arb, ok := vals[2].(common.Address); ok {
		ev.Arbitrator = arb
	}
	if timeout, ok := vals[3].(uint32); ok {
		ev.Timeout = int64(timeout)
	}
	if opening, ok := vals[4].(uint32); ok {
		ev.OpeningTs = int64(opening)
	}
	if created, ok := vals[6].(*big.Int); ok {
		ev.CreatedTs = created.Int64()
	}
	ev.Partial = false
	return ev
}

func (c *Caller) parseNewAnswer(lg types.Log) (NewAnswerEvent, error) {
	ev := NewAnswerEvent{BlockNumber: lg.BlockNumber}

	if len(lg.Topics) > 1 {
		ev.QuestionID = lg.Topics[1]
	}
	if len(lg.Topics) > 2 {
		ev.Answerer = common.BytesToAddress(lg.Topics[2].Bytes())
	}

	vals, err := c.abis.oracle.Events["LogNewAnswer"].Inputs.NonIndexed().UnpackValues(lg.Data)
	if err != nil || len(vals) < 5 {
		return ev, fmt.Errorf("chain: parse LogNewAnswer: %w", err)
	}

	if answer, ok := vals[0].([32]byte); ok {
		ev.Answer = common.Hash(answer)
	}
	if bond, ok := vals[2].(*big.Int); ok {
		ev.Bond = bond
	}
	if ts, ok := vals[3].(*big.Int); ok {
		ev.Ts = ts.Int64()
	}
	if isCommit, ok := vals[4].(bool); ok {
		ev.IsCommitment = isCommit
	}
	return ev, nil
}
