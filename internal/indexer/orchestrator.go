package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orakore/orakore/internal/domain"
)

// snapshotInterval is how often each chain's question set is exported to
// object storage.
const snapshotInterval = 24 * time.Hour

// Orchestrator runs all per-chain scrapers plus the snapshot archiver as
// concurrent goroutines. A distributed lock keeps at most one indexer
// instance active per chain.
type Orchestrator struct {
	scrapers []*QuestionScraper
	archiver domain.Archiver
	locks    domain.LockManager
	interval time.Duration
	logger   *slog.Logger
}

// NewOrchestrator creates an Orchestrator. archiver and locks may be nil;
// snapshots and cross-instance exclusion are then disabled.
func NewOrchestrator(
	scrapers []*QuestionScraper,
	archiver domain.Archiver,
	locks domain.LockManager,
	interval time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		scrapers: scrapers,
		archiver: archiver,
		locks:    locks,
		interval: interval,
		logger:   logger.With(slog.String("component", "indexer")),
	}
}

// Run starts one loop per chain and the snapshot loop, blocking until the
// context is cancelled or a loop fails with a non-context error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("indexer starting",
		slog.Int("chains", len(o.scrapers)),
		slog.Duration("interval", o.interval),
	)

	g, ctx := errgroup.WithContext(ctx)

	for _, sc := range o.scrapers {
		sc := sc
		g.Go(func() error {
			err := o.runChainLoop(ctx, sc)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("chain %d loop: %w", sc.chainID, err)
		})
	}

	if o.archiver != nil {
		g.Go(func() error {
			err := o.runSnapshotLoop(ctx)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("snapshot loop: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("indexer stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("indexer stopped cleanly")
	return nil
}

// runChainLoop runs one scraper on a ticker. Each tick takes the chain lock
// first; a held lock means another instance owns the chain and the tick is
// skipped.
func (o *Orchestrator) runChainLoop(ctx context.Context, sc *QuestionScraper) error {
	// Run immediately on start.
	o.tick(ctx, sc)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.tick(ctx, sc)
		}
	}
}

func (o *Orchestrator) tick(ctx context.Context, sc *QuestionScraper) {
	if o.locks != nil {
		unlock, err := o.locks.Acquire(ctx, lockKey(sc.chainID), o.interval*2)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				sc.logger.DebugContext(ctx, "chain lock held elsewhere, skipping tick")
				return
			}
			sc.logger.WarnContext(ctx, "lock acquire failed", slog.String("error", err.Error()))
			return
		}
		defer unlock()
	}

	if _, err := sc.Run(ctx); err != nil {
		sc.logger.ErrorContext(ctx, "sync pass failed", slog.String("error", err.Error()))
		return
	}
	if err := sc.ScanAnswers(ctx); err != nil {
		sc.logger.WarnContext(ctx, "answer scan failed", slog.String("error", err.Error()))
	}
}

// runSnapshotLoop exports each chain's rows to object storage once per
// snapshotInterval.
func (o *Orchestrator) runSnapshotLoop(ctx context.Context) error {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, sc := range o.scrapers {
				count, err := o.archiver.ArchiveQuestions(ctx, sc.chainID, time.Now().UTC())
				if err != nil {
					o.logger.Error("snapshot failed",
						slog.Int64("chain_id", sc.chainID),
						slog.String("error", err.Error()),
					)
					continue
				}
				o.logger.Info("snapshot written",
					slog.Int64("chain_id", sc.chainID),
					slog.Int64("rows", count),
				)
			}
		}
	}
}

func lockKey(chainID int64) string {
	return fmt.Sprintf("indexer:chain:%d", chainID)
}
