// Package indexer keeps the warm stores in sync with the chain. Each chain
// gets a QuestionScraper that prefers the subgraph and falls back to direct
// log scans, writing normalized rows to Postgres and refreshing the Redis
// page cache.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/chain"
	"github.com/orakore/orakore/internal/domain"
	"github.com/orakore/orakore/internal/oracle"
	"github.com/orakore/orakore/internal/subgraph"
)

const (
	// subgraphPageSize is the batch size for subgraph pagination.
	subgraphPageSize = 100

	// cachePageSize matches the default page size served by the API, so the
	// refreshed page-0 entry is immediately usable.
	cachePageSize = 25
)

// QuestionScraper syncs one chain's question set into the store and cache.
type QuestionScraper struct {
	chainID int64
	graph   *subgraph.Client
	caller  *chain.Caller
	dep     *domain.Deployment
	store   domain.QuestionStore
	cache   domain.PageCache
	bus     domain.QuestionBus
	window  uint64
	logger  *slog.Logger

	// highWater is the newest createdTs already announced on the bus;
	// rows at or below it are updates, not new questions.
	highWater int64

	now func() time.Time
}

// NewQuestionScraper creates a scraper for one chain. graph may be nil when
// no subgraph is deployed for the chain; every run then goes straight to the
// log-scan path.
func NewQuestionScraper(
	chainID int64,
	graph *subgraph.Client,
	caller *chain.Caller,
	dep *domain.Deployment,
	store domain.QuestionStore,
	cache domain.PageCache,
	bus domain.QuestionBus,
	blockWindow uint64,
	logger *slog.Logger,
) *QuestionScraper {
	return &QuestionScraper{
		chainID: chainID,
		graph:   graph,
		caller:  caller,
		dep:     dep,
		store:   store,
		cache:   cache,
		bus:     bus,
		window:  blockWindow,
		logger:  logger.With(slog.Int64("chain_id", chainID)),
		now:     time.Now,
	}
}

// Run executes a single sync pass: fetch raw records, normalize, persist,
// refresh the cached first page, and announce rows newer than the high-water
// mark. Returns the number of rows upserted.
func (s *QuestionScraper) Run(ctx context.Context) (int, error) {
	raws, source, err := s.fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("indexer: fetch chain %d: %w", s.chainID, err)
	}
	if len(raws) == 0 {
		return 0, nil
	}

	rows := make([]domain.Question, 0, len(raws))
	for _, raw := range raws {
		q := oracle.Normalize(raw)
		q = oracle.AnnotateToken(q, s.dep)
		q.ChainID = s.chainID
		rows = append(rows, q)
	}

	if err := s.store.UpsertBatch(ctx, rows); err != nil {
		return 0, fmt.Errorf("indexer: upsert chain %d: %w", s.chainID, err)
	}

	s.refreshPageCache(ctx, rows, source)
	s.announceNew(ctx, rows)

	s.logger.InfoContext(ctx, "sync pass complete",
		slog.String("source", source),
		slog.Int("rows", len(rows)),
	)
	return len(rows), nil
}

// fetch pulls raw records from the subgraph when available, falling back to
// a direct log scan plus batched full reads. The subgraph path walks pages
// until a short page.
func (s *QuestionScraper) fetch(ctx context.Context) ([]oracle.RawQuestion, string, error) {
	if s.graph != nil {
		raws, err := s.fetchSubgraph(ctx)
		if err == nil {
			return raws, "subgraph", nil
		}
		s.logger.WarnContext(ctx, "subgraph fetch failed, falling back to logs",
			slog.String("error", err.Error()),
		)
	}

	raws, err := s.fetchLogs(ctx)
	if err != nil {
		return nil, "", err
	}
	return raws, "logs", nil
}

func (s *QuestionScraper) fetchSubgraph(ctx context.Context) ([]oracle.RawQuestion, error) {
	var all []oracle.RawQuestion
	for skip := 0; ; skip += subgraphPageSize {
		page, err := s.graph.Questions(ctx, subgraphPageSize, skip)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < subgraphPageSize {
			return all, nil
		}
	}
}

func (s *QuestionScraper) fetchLogs(ctx context.Context) ([]oracle.RawQuestion, error) {
	events, err := s.caller.ScanNewQuestions(ctx, s.window)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}

	ids := make([]common.Hash, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}

	raws, err := s.caller.QuestionFullBatch(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range raws {
		if i < len(events) {
			raws[i].CreatedBlock = events[i].BlockNumber
		}
	}
	return raws, nil
}

// refreshPageCache rewrites the first cached page from the freshly synced
// rows. Cache failures are logged, never fatal.
func (s *QuestionScraper) refreshPageCache(ctx context.Context, rows []domain.Question, source string) {
	head := rows
	if len(head) > cachePageSize {
		head = head[:cachePageSize]
	}
	page := domain.QuestionPage{
		ChainID:   s.chainID,
		Page:      0,
		PageSize:  cachePageSize,
		Total:     uint64(len(rows)),
		Rows:      head,
		FetchedAt: s.now(),
		Source:    source,
	}
	if err := s.cache.SetPage(ctx, page); err != nil {
		s.logger.WarnContext(ctx, "page cache refresh failed", slog.String("error", err.Error()))
	}
}

// announceNew emits a confirmation event for every row created after the
// high-water mark and advances the mark.
func (s *QuestionScraper) announceNew(ctx context.Context, rows []domain.Question) {
	if s.bus == nil {
		return
	}
	max := s.highWater
	for i := range rows {
		row := rows[i]
		if row.CreatedTs <= s.highWater {
			continue
		}
		if row.CreatedTs > max {
			max = row.CreatedTs
		}
		// First pass just seeds the mark; announcing the full history
		// on startup would flood subscribers.
		if s.highWater == 0 {
			continue
		}
		s.bus.Emit(ctx, domain.Event{
			Type:    domain.EventQuestionConfirmed,
			ChainID: s.chainID,
			Row:     &row,
		})
	}
	s.highWater = max
}

// ScanAnswers emits answer events from a recent log window. Answer events
// carry only the refetched question row.
func (s *QuestionScraper) ScanAnswers(ctx context.Context) error {
	events, err := s.caller.ScanNewAnswers(ctx, s.window)
	if err != nil {
		return fmt.Errorf("indexer: scan answers chain %d: %w", s.chainID, err)
	}
	for _, ev := range events {
		raw, err := s.caller.QuestionFullV3(ctx, ev.QuestionID)
		if err != nil {
			s.logger.WarnContext(ctx, "refetch after answer failed",
				slog.String("question", ev.QuestionID.Hex()),
				slog.String("error", err.Error()),
			)
			continue
		}
		q := oracle.AnnotateToken(oracle.Normalize(raw), s.dep)
		q.ChainID = s.chainID
		if err := s.store.Upsert(ctx, q); err != nil {
			s.logger.WarnContext(ctx, "upsert after answer failed",
				slog.String("question", ev.QuestionID.Hex()),
				slog.String("error", err.Error()),
			)
			continue
		}
		if s.bus != nil {
			s.bus.Emit(ctx, domain.Event{
				Type:    domain.EventAnswerSubmitted,
				ChainID: s.chainID,
				Row:     &q,
			})
		}
	}
	return nil
}
