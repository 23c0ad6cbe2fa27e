package domain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ListOpts holds pagination parameters for store queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// QuestionStore persists normalized question records (the indexer's sink and
// the API's warm read path).
type QuestionStore interface {
	Upsert(ctx context.Context, q Question) error
	UpsertBatch(ctx context.Context, qs []Question) error
	Get(ctx context.Context, chainID int64, id common.Hash) (Question, error)
	List(ctx context.Context, chainID int64, opts ListOpts) ([]Question, error)
	Count(ctx context.Context, chainID int64) (int64, error)
}

// PageCache stores the last successfully fetched question page per
// (chain, page, pageSize), used as the final read tier when both contract
// paths fail.
type PageCache interface {
	SetPage(ctx context.Context, page QuestionPage) error
	GetPage(ctx context.Context, chainID int64, pageNo, pageSize int) (QuestionPage, error)
}

// StubStore persists optimistic question stubs so a fresh process can
// rehydrate unconfirmed questions. Implementations keep at most MaxStubs
// entries, newest first, per chain.
type StubStore interface {
	Push(ctx context.Context, stub Stub) error
	ListByChain(ctx context.Context, chainID int64) ([]Stub, error)
	Remove(ctx context.Context, chainID int64, id common.Hash) error
}

// FlashStore holds one-shot banner messages: a read consumes the message.
type FlashStore interface {
	Set(ctx context.Context, key, message string) error
	Take(ctx context.Context, key string) (string, error)
}

// DisclaimerStore records per-address disclaimer acknowledgements.
type DisclaimerStore interface {
	Acknowledge(ctx context.Context, addr common.Address) error
	Acknowledged(ctx context.Context, addr common.Address) (bool, error)
}

// LockManager provides distributed locking; the indexer holds a lock so
// only one instance indexes a chain at a time.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}
