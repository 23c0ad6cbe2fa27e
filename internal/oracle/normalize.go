package oracle

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/domain"
)

// RawQuestion is the union of the field shapes the three read paths produce:
// the V3 batch read, the V2 log scan, and the subgraph. Older sources carry
// timestamps under aliased names (createdAt vs createdTs, timeout vs
// timeoutSec); Normalize resolves the aliases exactly once so downstream
// code never sees them.
type RawQuestion struct {
	ID         common.Hash
	Asker      common.Address
	Arbitrator common.Address
	BondToken  common.Address
	TemplateID uint32

	Content     string
	ContentHash common.Hash

	OpeningTs  int64
	CreatedAt  int64 // legacy alias
	CreatedTs  int64
	TimeoutSec int64
	Timeout    int64 // legacy alias

	BestAnswer   common.Hash
	BestBond     *big.Int
	BestAnswerer common.Address
	LastAnswerTs int64

	Finalized          bool
	PendingArbitration bool

	CreatedBlock uint64
}

// Normalize converts a raw record to the canonical Question. Token metadata
// is filled in separately by the caller from the deployment bundle.
func Normalize(raw RawQuestion) domain.Question {
	createdTs := raw.CreatedTs
	if createdTs == 0 {
		createdTs = raw.CreatedAt
	}
	timeout := raw.TimeoutSec
	if timeout == 0 {
		timeout = raw.Timeout
	}

	return domain.Question{
		ID:                 raw.ID,
		Asker:              raw.Asker,
		Arbitrator:         raw.Arbitrator,
		BondToken:          raw.BondToken,
		TemplateID:         domain.Template(raw.TemplateID),
		Content:            raw.Content,
		ContentHash:        raw.ContentHash,
		OpeningTs:          raw.OpeningTs,
		TimeoutSec:         timeout,
		CreatedTs:          createdTs,
		BestAnswer:         raw.BestAnswer,
		BestBond:           raw.BestBond,
		BestAnswerer:       raw.BestAnswerer,
		LastAnswerTs:       raw.LastAnswerTs,
		Finalized:          raw.Finalized,
		PendingArbitration: raw.PendingArbitration,
		CreatedBlock:       raw.CreatedBlock,
	}
}

// AnnotateToken fills in display token metadata from the deployment bundle.
// Unknown bond tokens are left unlabeled rather than guessed.
func AnnotateToken(q domain.Question, dep *domain.Deployment) domain.Question {
	if dep == nil {
		return q
	}
	switch q.BondToken {
	case dep.USDT:
		q.TokenSymbol = "USDT"
		q.TokenDecimals = 6
	case dep.WKAIA:
		q.TokenSymbol = "WKAIA"
		q.TokenDecimals = 18
	}
	return q
}
