// Package service holds the application services between the HTTP handlers
// and the reader/store/chain layers.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/chain"
	"github.com/orakore/orakore/internal/domain"
	"github.com/orakore/orakore/internal/oracle"
	"github.com/orakore/orakore/internal/query"
	"github.com/orakore/orakore/internal/reader"
)

// PageFetcher is the read-tier entry point; *reader.Reader and *reader.Mux
// both satisfy it.
type PageFetcher interface {
	Fetch(ctx context.Context, req reader.PageRequest) (domain.QuestionPage, error)
}

// QuestionService combines the tiered reader with the optimistic stub
// overlay and the filter/sort engine into the reconciled question view the
// API serves.
type QuestionService struct {
	reader PageFetcher
	store  domain.QuestionStore // may be nil in serve-only deployments
	stubs  domain.StubStore
	bus    domain.QuestionBus
	logger *slog.Logger
	now    func() time.Time
}

// NewQuestionService creates a QuestionService. store may be nil when the
// process runs without postgres.
func NewQuestionService(
	r PageFetcher,
	store domain.QuestionStore,
	stubs domain.StubStore,
	bus domain.QuestionBus,
	logger *slog.Logger,
) *QuestionService {
	return &QuestionService{
		reader: r,
		store:  store,
		stubs:  stubs,
		bus:    bus,
		logger: logger.With(slog.String("component", "question_service")),
		now:    time.Now,
	}
}

// ListResult is one reconciled, filtered page.
type ListResult struct {
	Page domain.QuestionPage

	// BondSortRejected is set when a bond sort was requested with the
	// token filter at ALL; the rows are filtered but unsorted and the
	// UI flags the sort control instead of showing wrong order.
	BondSortRejected bool
}

// ListPage fetches a page through the read tiers, overlays unconfirmed
// stubs, prunes stubs that authoritative rows have superseded, and applies
// the filter/sort pipeline.
func (s *QuestionService) ListPage(ctx context.Context, req reader.PageRequest, f query.Filter, key query.SortKey, dir query.SortDir) (ListResult, error) {
	page, err := s.reader.Fetch(ctx, req)
	if err != nil {
		return ListResult{}, err
	}

	stubs, stubErr := s.stubs.ListByChain(ctx, req.ChainID)
	if stubErr != nil {
		// The overlay is best-effort; an unreadable stub store must not
		// take down the authoritative page.
		s.logger.WarnContext(ctx, "stub overlay unavailable",
			slog.Int64("chain_id", req.ChainID),
			slog.String("error", stubErr.Error()),
		)
		stubs = nil
	}

	// Drop stubs the authoritative read has confirmed.
	for _, confirmed := range oracle.Superseded(page.Rows, stubs) {
		if err := s.stubs.Remove(ctx, req.ChainID, confirmed.ID); err != nil {
			s.logger.WarnContext(ctx, "remove superseded stub failed",
				slog.String("question_id", confirmed.ID.Hex()),
				slog.String("error", err.Error()),
			)
			continue
		}
		s.bus.Emit(ctx, domain.Event{
			Type:    domain.EventQuestionConfirmed,
			ChainID: req.ChainID,
			Stub:    confirmed,
		})
	}

	// Stubs only decorate the first page; deeper pages stay authoritative.
	if req.Page == 0 {
		page.Rows = oracle.Reconcile(page.Rows, stubs)
	}

	nowSec := s.now().Unix()
	rows, sortErr := query.FilterAndSort(page.Rows, f, key, dir, nowSec)
	if sortErr != nil && !errors.Is(sortErr, domain.ErrBondSortAllTokens) {
		return ListResult{}, sortErr
	}
	page.Rows = rows

	return ListResult{
		Page:             page,
		BondSortRejected: errors.Is(sortErr, domain.ErrBondSortAllTokens),
	}, nil
}

// Get returns one question, preferring the indexed store and falling back
// to a direct V3 contract read.
func (s *QuestionService) Get(ctx context.Context, caller *chain.Caller, dep *domain.Deployment, chainID int64, id common.Hash) (domain.Question, error) {
	if s.store != nil {
		q, err := s.store.Get(ctx, chainID, id)
		if err == nil {
			return q, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "store get failed, reading chain",
				slog.String("question_id", id.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}

	if caller == nil {
		return domain.Question{}, domain.ErrNotFound
	}

	raw, err := caller.QuestionFullV3(ctx, id)
	if err != nil {
		return domain.Question{}, fmt.Errorf("question_service: chain read %s: %w", id.Hex(), err)
	}

	q := oracle.AnnotateToken(oracle.Normalize(raw), dep)
	q.ChainID = chainID
	return q, nil
}

// Announce publishes an optimistic stub for a just-submitted ask
// transaction. The bus persists the stub so it survives a reload, and every
// open list view sees it immediately.
func (s *QuestionService) Announce(ctx context.Context, stub domain.Stub) {
	s.bus.Emit(ctx, domain.Event{
		Type:    domain.EventQuestionCreated,
		ChainID: stub.ChainID,
		Stub:    stub,
	})
}
