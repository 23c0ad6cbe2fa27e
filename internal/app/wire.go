package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/orakore/orakore/internal/blob/s3"
	"github.com/orakore/orakore/internal/bus"
	"github.com/orakore/orakore/internal/cache/redis"
	"github.com/orakore/orakore/internal/chain"
	"github.com/orakore/orakore/internal/config"
	"github.com/orakore/orakore/internal/deploy"
	"github.com/orakore/orakore/internal/domain"
	"github.com/orakore/orakore/internal/fees"
	"github.com/orakore/orakore/internal/indexer"
	"github.com/orakore/orakore/internal/payment"
	"github.com/orakore/orakore/internal/reader"
	"github.com/orakore/orakore/internal/service"
	"github.com/orakore/orakore/internal/store/postgres"
	"github.com/orakore/orakore/internal/subgraph"
)

// ChainSet holds the per-chain wiring: the RPC connection, resolved
// deployment, fee quoter, and payment selector.
type ChainSet struct {
	Caller   *chain.Caller
	Dep      *domain.Deployment
	Quoter   *fees.Quoter
	Selector *payment.Selector
	Graph    *subgraph.Client
	Window   uint64
}

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Per-chain connections, keyed by chain id.
	Chains map[int64]*ChainSet

	// Stores and caches.
	QuestionStore domain.QuestionStore // nil when postgres is not wired
	PageCache     domain.PageCache
	StubStore     domain.StubStore
	FlashStore    domain.FlashStore
	Disclaimers   domain.DisclaimerStore
	RateLimiter   domain.RateLimiter
	LockManager   domain.LockManager

	// Blob storage; nil when S3 is not configured.
	Archiver domain.Archiver

	// Resolver serves deployment bundles (embedded + remote).
	Resolver *deploy.Resolver

	// Bus is the in-process question event bus.
	Bus domain.QuestionBus

	// Services.
	Questions *service.QuestionService
	Ask       *service.AskService

	// Scrapers, one per chain, for the index and full modes.
	Scrapers []*indexer.QuestionScraper
}

// needsPostgres returns true for modes that persist question rows.
func needsPostgres(mode string) bool {
	switch mode {
	case "index", "full":
		return true
	default:
		return false
	}
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()
	mode := strings.ToLower(cfg.Mode)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Chains: map[int64]*ChainSet{}}

	// --- PostgreSQL (only for modes that persist rows) ---
	if needsPostgres(mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.QuestionStore = postgres.NewQuestionStore(pgClient.Pool())
	}

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.PageCache = redis.NewPageCache(redisClient)
	deps.StubStore = redis.NewStubStore(redisClient)
	deps.FlashStore = redis.NewFlashStore(redisClient)
	deps.Disclaimers = redis.NewDisclaimerStore(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)

	// --- Event bus ---
	deps.Bus = bus.New(deps.StubStore, logger)

	// --- Deployment resolver ---
	deps.Resolver = deploy.NewResolver(cfg.Deployments.BaseURL, logger)

	// --- Wallet (optional; nil wallet disables writes) ---
	var wallet *chain.Wallet
	if cfg.Wallet.PrivateKey != "" || cfg.Wallet.EncryptedKeyPath != "" {
		wallet, err = chain.LoadWallet(chain.WalletConfig{
			PrivateKey:      cfg.Wallet.PrivateKey,
			KeyfilePath:     cfg.Wallet.EncryptedKeyPath,
			KeyfilePassword: cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet: %w", err)
		}
	}

	// --- Chains ---
	readers := map[int64]*reader.Reader{}
	var askSender *chain.Sender
	for _, cc := range cfg.Chains {
		dep, err := deps.Resolver.Resolve(ctx, cc.ChainID)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: resolve deployment %d: %w", cc.ChainID, err)
		}
		if dep == nil {
			logger.Warn("no deployment bundle for chain, skipping", slog.Int64("chain_id", cc.ChainID))
			continue
		}

		caller, err := chain.Dial(ctx, cc.RPCURL, dep)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: dial chain %d: %w", cc.ChainID, err)
		}
		closers = append(closers, caller.Close)

		var graph *subgraph.Client
		if cc.SubgraphURL != "" {
			graph = subgraph.NewClient(cc.SubgraphURL)
		}

		set := &ChainSet{
			Caller:   caller,
			Dep:      dep,
			Quoter:   fees.NewQuoter(caller, dep.FeeBps, logger),
			Selector: payment.NewSelector(caller),
			Graph:    graph,
			Window:   cc.BlockWindow,
		}
		deps.Chains[cc.ChainID] = set

		readers[cc.ChainID] = reader.New(logger,
			reader.NewV3Strategy(caller, dep, deps.PageCache, logger),
			reader.NewV2Strategy(caller, dep, cc.BlockWindow, logger),
			reader.NewCacheStrategy(deps.PageCache),
		)

		deps.Scrapers = append(deps.Scrapers, indexer.NewQuestionScraper(
			cc.ChainID, graph, caller, dep,
			deps.QuestionStore, deps.PageCache, deps.Bus,
			cc.BlockWindow, logger,
		))

		// The operator wallet signs against the first wired chain.
		if wallet != nil && askSender == nil {
			askSender = chain.NewSender(caller, wallet, dep)
		}
	}

	// --- S3 blob storage (optional) ---
	if cfg.S3.Bucket != "" && deps.QuestionStore != nil {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		blobReader := s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), blobReader, blobReader, deps.QuestionStore)
	}

	// --- Services ---
	deps.Questions = service.NewQuestionService(
		reader.NewMux(readers), deps.QuestionStore, deps.StubStore, deps.Bus, logger,
	)
	if askSender != nil {
		deps.Ask = service.NewAskService(askSender, deps.Questions, deps.FlashStore, logger)
	}

	return deps, cleanup, nil
}
