// Package domain defines the core types shared across the orakore backend:
// oracle questions, lifecycle statuses, optimistic stubs, deployment bundles,
// and the store/cache interfaces implemented by the infrastructure packages.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Status is the derived lifecycle state of a question. It is computed from
// on-chain fields and the current time, never stored on chain.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusOpen      Status = "open"
	StatusAnswered  Status = "answered"
	StatusFinalized Status = "finalized"
	StatusDisputed  Status = "disputed"
)

// Template selects the answer-encoding semantics of a question.
type Template uint32

const (
	TemplateBinary Template = iota
	TemplateMultipleChoice
	TemplateInteger
	TemplateDatetime
	TemplateFreeTextHash
)

// Question is the normalized record for a single oracle question. Records are
// read from the contract, the event log, or the subgraph and normalized once
// at the ingestion boundary; consumers never re-resolve field aliases.
type Question struct {
	ChainID    int64
	ID         common.Hash
	Asker      common.Address
	Arbitrator common.Address
	BondToken  common.Address
	TemplateID Template

	// Content is the question text when known (subgraph/indexer path);
	// empty for records built from bare contract reads.
	Content     string
	ContentHash common.Hash

	// OpeningTs is the unix time after which answers are accepted.
	// Zero is the contract sentinel for "immediately".
	OpeningTs  int64
	TimeoutSec int64
	CreatedTs  int64

	BestAnswer   common.Hash
	BestBond     *big.Int
	BestAnswerer common.Address
	LastAnswerTs int64

	Finalized          bool
	PendingArbitration bool

	// Token metadata resolved from the deployment bundle, used for
	// display formatting and the token filter.
	TokenSymbol   string
	TokenDecimals uint8

	// Optimistic marks a record synthesized from a local stub that has
	// not yet been confirmed by an authoritative read.
	Optimistic bool

	CreatedBlock uint64
}

// HasBestAnswer reports whether an accepted answer is present. The zero hash
// is the contract's "no answer yet" value.
func (q Question) HasBestAnswer() bool {
	return q.BestAnswer != (common.Hash{})
}

// BestBondRaw returns the best bond as a big.Int, treating nil as zero.
func (q Question) BestBondRaw() *big.Int {
	if q.BestBond == nil {
		return new(big.Int)
	}
	return q.BestBond
}

// QuestionPage is one page of the reconciled question list together with the
// metadata needed to serve and cache it.
type QuestionPage struct {
	ChainID   int64      `json:"chain_id"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
	Total     uint64     `json:"total"`
	Rows      []Question `json:"rows"`
	FetchedAt time.Time  `json:"fetched_at"`

	// Source names the tier that produced the page: "v3", "v2-logs",
	// "cache", or "store".
	Source string `json:"source"`
}

// Stub is a partial question created client-side immediately after an ask
// transaction is submitted, shown in lists before the transaction is mined.
// Everything except the ID, title, and submission metadata is zeroed; the
// stub is superseded by the real record on the next authoritative read.
type Stub struct {
	ID        common.Hash `json:"id"`
	ChainID   int64       `json:"chain_id"`
	Title     string      `json:"title"`
	TxHash    common.Hash `json:"tx_hash"`
	CreatedTs int64       `json:"created_ts"`
}

// Question converts the stub to a placeholder Question row.
func (s Stub) Question() Question {
	return Question{
		ID:         s.ID,
		Content:    s.Title,
		CreatedTs:  s.CreatedTs,
		Optimistic: true,
	}
}

// MaxStubs caps how many optimistic stubs are retained, newest first.
const MaxStubs = 50
