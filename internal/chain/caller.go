package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/orakore/orakore/internal/domain"
	"github.com/orakore/orakore/internal/oracle"
)

// Caller is the typed read/write surface over the oracle deployment on one
// chain. It is safe for concurrent use.
type Caller struct {
	client  *ethclient.Client
	abis    parsedABIs
	chainID int64
	oracle  common.Address
}

// Dial connects to the given JSON-RPC endpoint and binds the oracle contract
// address from the deployment bundle.
func Dial(ctx context.Context, rpcURL string, dep *domain.Deployment) (*Caller, error) {
	if !dep.Ready() {
		return nil, domain.ErrNoDeployment
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}

	abis, err := parseABIs()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &Caller{
		client:  client,
		abis:    abis,
		chainID: dep.ChainID,
		oracle:  dep.RealitioERC20,
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Caller) Close() {
	c.client.Close()
}

// ChainID returns the chain this caller is bound to.
func (c *Caller) ChainID() int64 { return c.chainID }

// OracleAddress returns the bound oracle contract address.
func (c *Caller) OracleAddress() common.Address { return c.oracle }

// call executes an eth_call against the given contract and unpacks the
// result into out.
func (c *Caller) call(ctx context.Context, contractABI abi.ABI, to common.Address, out any, method string, args ...any) error {
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("chain: pack %s: %w", method, err)
	}

	data, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return fmt.Errorf("chain: call %s: %w", method, err)
	}

	if err := contractABI.UnpackIntoInterface(out, method, data); err != nil {
		return fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return nil
}

// TotalQuestions reads the total question count from the V3 surface.
func (c *Caller) TotalQuestions(ctx context.Context) (uint64, error) {
	var total *big.Int
	if err := c.call(ctx, c.abis.oracle, c.oracle, &total, "totalQuestions"); err != nil {
		return 0, err
	}
	return total.Uint64(), nil
}

// QuestionIDsDesc reads one page of question IDs, newest first. The read is
// offset-based with no snapshot isolation: questions created mid-scroll may
// shift page contents between calls.
func (c *Caller) QuestionIDsDesc(ctx context.Context, offset, limit uint64) ([]common.Hash, error) {
	var raw [][32]byte
	err := c.call(ctx, c.abis.oracle, c.oracle, &raw, "getQuestionsDesc",
		new(big.Int).SetUint64(offset), new(big.Int).SetUint64(limit))
	if err != nil {
		return nil, err
	}

	ids := make([]common.Hash, len(raw))
	for i, b := range raw {
		ids[i] = common.Hash(b)
	}
	return ids, nil
}

// questionRecord mirrors the V3 full-record tuple layout.
type questionRecord struct {
	QuestionId           [32]byte
	Asker                common.Address
	Arbitrator           common.Address
	BondToken            common.Address
	TemplateId           uint32
	ContentHash          [32]byte
	OpeningTs            uint32
	Timeout              uint32
	CreatedTs            uint64
	BestAnswer           [32]byte
	Bond                 *big.Int
	BestAnswerer         common.Address
	LastAnswerTs         uint32
	IsFinalized          bool
	IsPendingArbitration bool
}

func (r questionRecord) raw() oracle.RawQuestion {
	return oracle.RawQuestion{
		ID:                 common.Hash(r.QuestionId),
		Asker:              r.Asker,
		Arbitrator:         r.Arbitrator,
		BondToken:          r.BondToken,
		TemplateID:         r.TemplateId,
		ContentHash:        common.Hash(r.ContentHash),
		OpeningTs:          int64(r.OpeningTs),
		TimeoutSec:         int64(r.Timeout),
		CreatedTs:          int64(r.CreatedTs),
		BestAnswer:         common.Hash(r.BestAnswer),
		BestBond:           r.Bond,
		BestAnswerer:       r.BestAnswerer,
		LastAnswerTs:       int64(r.LastAnswerTs),
		Finalized:          r.IsFinalized,
		PendingArbitration: r.IsPendingArbitration,
	}
}

// QuestionFullBatch reads full records for a batch of question IDs via the
// V3 batch accessor.
func (c *Caller) QuestionFullBatch(ctx context.Context, ids []common.Hash) ([]oracle.RawQuestion, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	raw := make([][32]byte, len(ids))
	for i, id := range ids {
		raw[i] = id
	}

	var records []questionRecord
	if err := c.call(ctx, c.abis.oracle, c.oracle, &records, "getQuestionFullBatch", raw); err != nil {
		return nil, err
	}

	out := make([]oracle.RawQuestion, len(records))
	for i, rec := range records {
		out[i] = rec.raw()
	}
	return out, nil
}

// QuestionFullV3 reads one full record via the V3 single accessor.
func (c *Caller) QuestionFullV3(ctx context.Context, id common.Hash) (oracle.RawQuestion, error) {
	var rec questionRecord
	if err := c.call(ctx, c.abis.oracle, c.oracle, &rec, "getQuestionFullV3", [32]byte(id)); err != nil {
		return oracle.RawQuestion{}, err
	}
	return rec.raw(), nil
}

// legacyRecord mirrors the multi-value output of the legacy getQuestionFull
// accessor. It lacks the asker and creation timestamp; V2-path callers merge
// those in from the creation event.
type legacyRecord struct {
	ContentHash          [32]byte
	Arbitrator           common.Address
	OpeningTs            uint32
	Timeout              uint32
	FinalizeTs           uint32
	IsPendingArbitration bool
	Bounty               *big.Int
	BestAnswer           [32]byte
	HistoryHash          [32]byte
	Bond                 *big.Int
	BondToken            common.Address
}

// QuestionFull reads one record via the legacy V2 accessor. Finalization is
// inferred from finalizeTs the way the legacy surface exposes it: a nonzero
// finalize timestamp at or before now means finalized.
func (c *Caller) QuestionFull(ctx context.Context, id common.Hash, nowSeconds int64) (oracle.RawQuestion, error) {
	var rec legacyRecord
	if err := c.call(ctx, c.abis.oracle, c.oracle, &rec, "getQuestionFull", [32]byte(id)); err != nil {
		return oracle.RawQuestion{}, err
	}

	finalized := rec.FinalizeTs > 0 && int64(rec.FinalizeTs) <= nowSeconds

	return oracle.RawQuestion{
		ID:                 id,
		Arbitrator:         rec.Arbitrator,
		BondToken:          rec.BondToken,
		ContentHash:        common.Hash(rec.ContentHash),
		OpeningTs:          int64(rec.OpeningTs),
		Timeout:            int64(rec.Timeout),
		BestAnswer:         common.Hash(rec.BestAnswer),
		BestBond:           rec.Bond,
		Finalized:          finalized,
		PendingArbitration: rec.IsPendingArbitration,
	}, nil
}

// IsFinalized reads the contract's authoritative finalization flag.
func (c *Caller) IsFinalized(ctx context.Context, id common.Hash) (bool, error) {
	var finalized bool
	if err := c.call(ctx, c.abis.oracle, c.oracle, &finalized, "isFinalized", [32]byte(id)); err != nil {
		return false, err
	}
	return finalized, nil
}

// FeeOn reads the protocol fee for the given bond from the contract's fee
// view. Callers fall back to a local bps computation on any error.
func (c *Caller) FeeOn(ctx context.Context, bond *big.Int) (*big.Int, error) {
	var fee *big.Int
	if err := c.call(ctx, c.abis.oracle, c.oracle, &fee, "feeOn", bond); err != nil {
		return nil, err
	}
	return fee, nil
}

// BlockNumber returns the current head block number.
func (c *Caller) BlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.client.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain: block number: %w", err)
	}
	return n, nil
}
