package oracle

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/domain"
)

// Reconcile merges the optimistic stub overlay with an authoritative row set.
// Stubs whose ID already appears in rows are dropped (the real record
// supersedes them); surviving stubs are prepended newest-first so a freshly
// asked question shows up before any network confirmation. The input slices
// are not mutated.
func Reconcile(rows []domain.Question, stubs []domain.Stub) []domain.Question {
	if len(stubs) == 0 {
		return rows
	}

	seen := make(map[common.Hash]struct{}, len(rows))
	for _, r := range rows {
		seen[r.ID] = struct{}{}
	}

	merged := make([]domain.Question, 0, len(rows)+len(stubs))
	for _, s := range stubs {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		merged = append(merged, s.Question())
	}
	return append(merged, rows...)
}

// Superseded returns the stubs from the overlay whose real records are now
// present in rows; callers remove these from the stub store.
func Superseded(rows []domain.Question, stubs []domain.Stub) []domain.Stub {
	if len(stubs) == 0 {
		return nil
	}
	confirmed := make(map[common.Hash]struct{}, len(rows))
	for _, r := range rows {
		if !r.Optimistic {
			confirmed[r.ID] = struct{}{}
		}
	}
	var out []domain.Stub
	for _, s := range stubs {
		if _, ok := confirmed[s.ID]; ok {
			out = append(out, s)
		}
	}
	return out
}
