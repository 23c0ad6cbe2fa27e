// Package oracle holds the pure question-lifecycle logic: status derivation,
// deadline calculation, record normalization, and reconciliation of the
// optimistic overlay with authoritative rows. Everything here is side-effect
// free and total over its inputs.
package oracle

import (
	"github.com/orakore/orakore/internal/domain"
)

// DeriveStatus maps a question's on-chain fields and the current time to its
// lifecycle state. The contract's own finalized/pendingArbitration flags are
// trusted as ground truth whenever set; the remaining states are derived.
//
// Precedence: finalized > disputed > scheduled > answered > open.
func DeriveStatus(q domain.Question, nowSeconds int64) domain.Status {
	switch {
	case q.Finalized:
		return domain.StatusFinalized
	case q.PendingArbitration:
		return domain.StatusDisputed
	case q.OpeningTs > 0 && nowSeconds < q.OpeningTs:
		return domain.StatusScheduled
	case q.HasBestAnswer():
		return domain.StatusAnswered
	default:
		return domain.StatusOpen
	}
}

// ComputeDeadline returns the display deadline for a question in unix
// seconds, or 0 when it cannot be resolved. The opening side falls back
// openingTs -> createdTs -> lastAnswerTs; the timeout side is the normalized
// TimeoutSec. Callers must treat 0 as "no deadline", never as epoch zero;
// the deadline is display-only and the contract stays authoritative for
// finalizability.
func ComputeDeadline(q domain.Question) int64 {
	opening := q.OpeningTs
	if opening == 0 {
		opening = q.CreatedTs
	}
	if opening == 0 {
		opening = q.LastAnswerTs
	}
	if opening == 0 || q.TimeoutSec == 0 {
		return 0
	}
	return opening + q.TimeoutSec
}
