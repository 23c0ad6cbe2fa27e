// Package reader implements the tiered paginated question reader: an ordered
// list of strategies (V3 contract pagination, V2 event-log scan, local page
// cache) tried in sequence. A non-final tier's failure is logged and
// swallowed; only the final tier's error reaches the caller, who renders it
// as a recoverable banner.
package reader

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orakore/orakore/internal/chain"
	"github.com/orakore/orakore/internal/domain"
	"github.com/orakore/orakore/internal/oracle"
)

// PageRequest identifies one page of the question list.
type PageRequest struct {
	ChainID  int64
	Page     int
	PageSize int
}

// Strategy is one read tier. Attempt either produces a full page or fails;
// partial degradation (stub rows) happens inside a tier, never across tiers.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, req PageRequest) (domain.QuestionPage, error)
}

// Reader tries its strategies top-down on every page load. There is no
// snapshot isolation across tiers or between loads: questions created
// mid-scroll may shift page contents, which is accepted behavior.
type Reader struct {
	strategies []Strategy
	logger     *slog.Logger
}

// New creates a Reader over the given tier order.
func New(logger *slog.Logger, strategies ...Strategy) *Reader {
	return &Reader{
		strategies: strategies,
		logger:     logger.With(slog.String("component", "reader")),
	}
}

// Fetch returns the first page any tier produces. The returned page's Source
// names the winning tier.
func (r *Reader) Fetch(ctx context.Context, req PageRequest) (domain.QuestionPage, error) {
	var lastErr error
	for i, s := range r.strategies {
		page, err := s.Attempt(ctx, req)
		if err == nil {
			page.Source = s.Name()
			return page, nil
		}
		lastErr = err

		if i < len(r.strategies)-1 {
			r.logger.WarnContext(ctx, "read tier failed, falling back",
				slog.String("tier", s.Name()),
				slog.Int64("chain_id", req.ChainID),
				slog.Int("page", req.Page),
				slog.String("error", err.Error()),
			)
		}
	}
	if lastErr == nil {
		lastErr = domain.ErrNoCache
	}
	return domain.QuestionPage{}, fmt.Errorf("reader: all tiers failed: %w", lastErr)
}

// ---------------------------------------------------------------------------
// V3 tier
// ---------------------------------------------------------------------------

// V3Strategy reads through the paginated V3 accessors and persists
// successful pages to the cache tier.
type V3Strategy struct {
	caller *chain.Caller
	dep    *domain.Deployment
	cache  domain.PageCache
	logger *slog.Logger
}

// NewV3Strategy creates the preferred read tier. cache may be nil to disable
// persistence.
func NewV3Strategy(caller *chain.Caller, dep *domain.Deployment, cache domain.PageCache, logger *slog.Logger) *V3Strategy {
	return &V3Strategy{caller: caller, dep: dep, cache: cache, logger: logger}
}

func (s *V3Strategy) Name() string { return "v3" }

func (s *V3Strategy) Attempt(ctx context.Context, req PageRequest) (domain.QuestionPage, error) {
	total, err := s.caller.TotalQuestions(ctx)
	if err != nil {
		return domain.QuestionPage{}, err
	}

	offset := uint64(req.Page) * uint64(req.PageSize)
	ids, err := s.caller.QuestionIDsDesc(ctx, offset, uint64(req.PageSize))
	if err != nil {
		return domain.QuestionPage{}, err
	}

	raws, err := s.caller.QuestionFullBatch(ctx, ids)
	if err != nil {
		return domain.QuestionPage{}, err
	}

	rows := make([]domain.Question, 0, len(raws))
	for _, raw := range raws {
		q := oracle.AnnotateToken(oracle.Normalize(raw), s.dep)
		q.ChainID = req.ChainID
		rows = append(rows, q)
	}

	page := domain.QuestionPage{
		ChainID:   req.ChainID,
		Page:      req.Page,
		PageSize:  req.PageSize,
		Total:     total,
		Rows:      rows,
		FetchedAt: time.Now().UTC(),
	}

	if s.cache != nil {
		if err := s.cache.SetPage(ctx, page); err != nil {
			// Cache failures must not fail a successful read.
			s.logger.WarnContext(ctx, "persist page cache failed",
				slog.Int("page", req.Page),
				slog.String("error", err.Error()),
			)
		}
	}
	return page, nil
}

// ---------------------------------------------------------------------------
// V2 tier
// ---------------------------------------------------------------------------

// V2Strategy scans creation-event logs over a bounded recent block window
// and paginates by slicing. A per-question detail read failure degrades that
// record to a stub built from the event's indexed topics; the page still
// renders with partial data.
type V2Strategy struct {
	caller      *chain.Caller
	dep         *domain.Deployment
	blockWindow uint64
	logger      *slog.Logger
	now         func() time.Time
}

// NewV2Strategy creates the legacy fallback tier.
func NewV2Strategy(caller *chain.Caller, dep *domain.Deployment, blockWindow uint64, logger *slog.Logger) *V2Strategy {
	return &V2Strategy{
		caller:      caller,
		dep:         dep,
		blockWindow: blockWindow,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *V2Strategy) Name() string { return "v2-logs" }

func (s *V2Strategy) Attempt(ctx context.Context, req PageRequest) (domain.QuestionPage, error) {
	events, err := s.caller.ScanNewQuestions(ctx, s.blockWindow)
	if err != nil {
		return domain.QuestionPage{}, err
	}

	start := req.Page * req.PageSize
	if start > len(events) {
		start = len(events)
	}
	end := start + req.PageSize
	if end > len(events) {
		end = len(events)
	}

	nowSec := s.now().Unix()
	rows := make([]domain.Question, 0, end-start)
	for _, ev := range events[start:end] {
		q := s.materialize(ctx, ev, nowSec)
		q.ChainID = req.ChainID
		rows = append(rows, q)
	}

	return domain.QuestionPage{
		ChainID:   req.ChainID,
		Page:      req.Page,
		PageSize:  req.PageSize,
		Total:     uint64(len(events)),
		Rows:      rows,
		FetchedAt: s.now().UTC(),
	}, nil
}

// materialize turns one creation event into a row, attempting the legacy
// detail read and degrading to event-only data when it fails.
func (s *V2Strategy) materialize(ctx context.Context, ev chain.NewQuestionEvent, nowSec int64) domain.Question {
	raw, err := s.caller.QuestionFull(ctx, ev.ID, nowSec)
	if err != nil {
		s.logger.DebugContext(ctx, "detail read failed, using event stub",
			slog.String("question_id", ev.ID.Hex()),
			slog.String("error", err.Error()),
		)
		raw = oracle.RawQuestion{ID: ev.ID}
	}

	// Fields the legacy accessor does not expose come from the event.
	raw.Asker = ev.Asker
	raw.Content = ev.Question
	raw.CreatedTs = ev.CreatedTs
	raw.CreatedBlock = ev.BlockNumber
	if raw.TemplateID == 0 {
		raw.TemplateID = ev.TemplateID
	}
	if raw.OpeningTs == 0 {
		raw.OpeningTs = ev.OpeningTs
	}
	if raw.Timeout == 0 && raw.TimeoutSec == 0 {
		raw.Timeout = ev.Timeout
	}

	return oracle.AnnotateToken(oracle.Normalize(raw), s.dep)
}

// ---------------------------------------------------------------------------
// Cache tier
// ---------------------------------------------------------------------------

// CacheStrategy serves the last successfully cached page for the requested
// index. As the final tier its error is the one surfaced to the caller.
type CacheStrategy struct {
	cache domain.PageCache
}

// NewCacheStrategy creates the offline tier.
func NewCacheStrategy(cache domain.PageCache) *CacheStrategy {
	return &CacheStrategy{cache: cache}
}

func (s *CacheStrategy) Name() string { return "cache" }

func (s *CacheStrategy) Attempt(ctx context.Context, req PageRequest) (domain.QuestionPage, error) {
	return s.cache.GetPage(ctx, req.ChainID, req.Page, req.PageSize)
}
