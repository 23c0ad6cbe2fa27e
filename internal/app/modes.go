package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orakore/orakore/internal/chain"
	"github.com/orakore/orakore/internal/fees"
	"github.com/orakore/orakore/internal/indexer"
	"github.com/orakore/orakore/internal/payment"
	"github.com/orakore/orakore/internal/server"
	"github.com/orakore/orakore/internal/server/handler"
	"github.com/orakore/orakore/internal/server/ws"
)

// ServeMode runs the HTTP/WebSocket API without the background indexer.
// Reads go straight through the tiered reader; the warm store (if any) is
// whatever another instance keeps fresh.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps)
	return g.Wait()
}

// IndexMode runs only the sync loops: subgraph/log scraping into postgres,
// page cache refresh, and periodic S3 snapshots. No HTTP surface beyond what
// the orchestrator logs.
func (a *App) IndexMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting index mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startIndexer(ctx, g, deps)
	return g.Wait()
}

// FullMode runs the API server and the indexer in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Indexer.Enabled {
		a.startIndexer(ctx, g, deps)
	}
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}

	return g.Wait()
}

// startIndexer adds the indexer orchestrator to the errgroup.
func (a *App) startIndexer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	interval := a.cfg.Indexer.SyncInterval.Duration
	if interval <= 0 {
		interval = time.Minute
	}

	orch := indexer.NewOrchestrator(
		deps.Scrapers,
		deps.Archiver,
		deps.LockManager,
		interval,
		a.logger,
	)
	g.Go(func() error {
		err := orch.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("indexer: %w", err)
	})
}

// startHTTPServer builds the handler set, the WebSocket hub, and the server,
// then adds serve and shutdown goroutines to the errgroup.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	hub := ws.NewHub(deps.Bus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		if err := hub.Run(ctx); ctx.Err() == nil {
			return fmt.Errorf("ws hub: %w", err)
		}
		return nil
	})

	callers := make(map[int64]*chain.Caller, len(deps.Chains))
	quoters := make(map[int64]*fees.Quoter, len(deps.Chains))
	selectors := make(map[int64]*payment.Selector, len(deps.Chains))
	for id, set := range deps.Chains {
		callers[id] = set.Caller
		quoters[id] = set.Quoter
		selectors[id] = set.Selector
	}

	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(a.logger),
		Questions:   handler.NewQuestionHandler(deps.Questions, deps.Resolver, callers, a.logger),
		Quotes:      handler.NewQuoteHandler(quoters, selectors, deps.Resolver, a.logger),
		Deployments: handler.NewDeploymentHandler(deps.Resolver, a.logger),
		Flash:       handler.NewFlashHandler(deps.FlashStore, deps.Disclaimers, a.logger),
	}
	if deps.Ask != nil {
		handlers.Ask = handler.NewAskHandler(deps.Ask, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		if err := srv.Start(); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
