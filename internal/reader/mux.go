package reader

import (
	"context"
	"fmt"

	"github.com/orakore/orakore/internal/domain"
)

// Mux dispatches page requests to the per-chain Reader. Each Reader's tiers
// are bound to one chain's RPC connection and deployment, so cross-chain
// serving needs one Reader per configured chain.
type Mux struct {
	readers map[int64]*Reader
}

// NewMux creates a Mux over the given per-chain readers.
func NewMux(readers map[int64]*Reader) *Mux {
	return &Mux{readers: readers}
}

// Fetch routes the request to the chain's reader. An unconfigured chain is a
// deployment miss, not a tier failure.
func (m *Mux) Fetch(ctx context.Context, req PageRequest) (domain.QuestionPage, error) {
	r, ok := m.readers[req.ChainID]
	if !ok {
		return domain.QuestionPage{}, fmt.Errorf("reader: chain %d: %w", req.ChainID, domain.ErrNoDeployment)
	}
	return r.Fetch(ctx, req)
}
