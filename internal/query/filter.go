// Package query is the client-facing filter/sort engine over the reconciled
// question list: conjunctive predicates and stable comparators applied as a
// pure transformation.
package query

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/domain"
	"github.com/orakore/orakore/internal/oracle"
)

// TokenAll is the token-filter value meaning "no token restriction". Bond
// sorting is refused in this state because comparing raw magnitudes across
// tokens with different decimal bases is meaningless.
const TokenAll = "ALL"

// SortKey selects the comparator.
type SortKey string

const (
	SortDeadline SortKey = "deadline"
	SortCreated  SortKey = "created"
	SortBond     SortKey = "bond"
)

// SortDir selects the direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// Filter is the conjunctive predicate set. The zero value of each field is
// "inactive" and excludes nothing.
type Filter struct {
	// Asker restricts to questions asked by this address (hex, any case).
	Asker string

	// Mine restricts to questions asked by the viewer's address.
	Mine common.Address

	// Statuses restricts to the given lifecycle states. Empty means all.
	Statuses []domain.Status

	// TokenSymbol restricts to one bond token symbol. Empty or TokenAll
	// means all tokens.
	TokenSymbol string
}

// active reports whether the token filter narrows to a single token.
func (f Filter) singleToken() bool {
	return f.TokenSymbol != "" && !strings.EqualFold(f.TokenSymbol, TokenAll)
}

// BondSortAllowed reports whether a bond sort is meaningful under this
// filter. The guard is a usability decision, not an engine limitation.
func (f Filter) BondSortAllowed() bool {
	return f.singleToken()
}

// FilterAndSort applies the filter conjunction and the requested stable sort
// to rows, returning a new slice; the input is never mutated. Ties keep
// their original relative order. Sorting by bond with the token filter at
// ALL returns ErrBondSortAllTokens and the filtered-but-unsorted rows so the
// caller can still render.
func FilterAndSort(rows []domain.Question, f Filter, key SortKey, dir SortDir, nowSeconds int64) ([]domain.Question, error) {
	out := apply(rows, f, nowSeconds)

	if key == SortBond && !f.BondSortAllowed() {
		return out, domain.ErrBondSortAllTokens
	}

	sortRows(out, key, dir)
	return out, nil
}

func apply(rows []domain.Question, f Filter, nowSeconds int64) []domain.Question {
	statusSet := make(map[domain.Status]struct{}, len(f.Statuses))
	for _, s := range f.Statuses {
		statusSet[s] = struct{}{}
	}

	askerActive := f.Asker != "" && common.IsHexAddress(f.Asker)
	asker := common.HexToAddress(f.Asker)
	mineActive := f.Mine != (common.Address{})

	out := make([]domain.Question, 0, len(rows))
	for _, q := range rows {
		if askerActive && q.Asker != asker {
			continue
		}
		if mineActive && q.Asker != f.Mine {
			continue
		}
		if len(statusSet) > 0 {
			if _, ok := statusSet[oracle.DeriveStatus(q, nowSeconds)]; !ok {
				continue
			}
		}
		if f.singleToken() && !strings.EqualFold(q.TokenSymbol, f.TokenSymbol) {
			continue
		}
		out = append(out, q)
	}
	return out
}

func sortRows(rows []domain.Question, key SortKey, dir SortDir) {
	less := comparator(key)
	if less == nil {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if dir == SortDesc {
			i, j = j, i
		}
		return less(rows[i], rows[j])
	})
}

func comparator(key SortKey) func(a, b domain.Question) bool {
	switch key {
	case SortDeadline:
		return func(a, b domain.Question) bool {
			return oracle.ComputeDeadline(a) < oracle.ComputeDeadline(b)
		}
	case SortCreated:
		return func(a, b domain.Question) bool {
			return createdAt(a) < createdAt(b)
		}
	case SortBond:
		return func(a, b domain.Question) bool {
			return a.BestBondRaw().Cmp(b.BestBondRaw()) < 0
		}
	default:
		return nil
	}
}

// createdAt is the creation-timestamp fallback chain used by the CREATED
// sort: explicit creation time, then opening time, then last answer time.
func createdAt(q domain.Question) int64 {
	if q.CreatedTs > 0 {
		return q.CreatedTs
	}
	if q.OpeningTs > 0 {
		return q.OpeningTs
	}
	return q.LastAnswerTs
}
