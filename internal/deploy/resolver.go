// Package deploy resolves per-chain contract address bundles. A static
// embedded map is consulted first; missing or incomplete entries fall back to
// a network fetch of deployments/{chainId}.json. Resolution degrades
// gracefully: a missing bundle yields (nil, nil) so callers can surface a
// "missing deployment" state instead of failing hard.
package deploy

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/orakore/orakore/internal/domain"
)

//go:embed deployments/*.json
var staticFS embed.FS

// maxBundleBytes bounds the fallback fetch body.
const maxBundleBytes = 1 << 16

// Resolver resolves and memoizes deployment bundles per chain. Concurrent
// lookups for the same chain are deduplicated through singleflight.
type Resolver struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	byID   map[int64]*domain.Deployment
	missed map[int64]time.Time
}

// missRetryAfter is how long a negative result (404 or malformed bundle) is
// remembered before the network is retried.
const missRetryAfter = time.Minute

// NewResolver creates a Resolver. baseURL is the root that serves
// deployments/{chainId}.json; empty disables the network fallback.
func NewResolver(baseURL string, logger *slog.Logger) *Resolver {
	return &Resolver{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger.With(slog.String("component", "deploy")),
		byID:   make(map[int64]*domain.Deployment),
		missed: make(map[int64]time.Time),
	}
}

// Resolve returns the deployment bundle for the chain, or (nil, nil) when no
// usable bundle exists. The error return is reserved for transport failures
// the caller may want to retry; a clean 404 or malformed body is a miss, not
// an error.
func (r *Resolver) Resolve(ctx context.Context, chainID int64) (*domain.Deployment, error) {
	r.mu.RLock()
	if dep, ok := r.byID[chainID]; ok {
		r.mu.RUnlock()
		return dep, nil
	}
	if until, ok := r.missed[chainID]; ok && time.Now().Before(until) {
		r.mu.RUnlock()
		return nil, nil
	}
	r.mu.RUnlock()

	v, err, _ := r.group.Do(fmt.Sprintf("chain-%d", chainID), func() (any, error) {
		return r.resolve(ctx, chainID)
	})
	if err != nil {
		return nil, err
	}
	dep, _ := v.(*domain.Deployment)
	return dep, nil
}

// Ready reports whether a usable bundle exists for the chain.
func (r *Resolver) Ready(ctx context.Context, chainID int64) bool {
	dep, err := r.Resolve(ctx, chainID)
	return err == nil && dep.Ready()
}

func (r *Resolver) resolve(ctx context.Context, chainID int64) (*domain.Deployment, error) {
	if dep := r.loadStatic(chainID); dep.Ready() {
		r.remember(chainID, dep)
		return dep, nil
	}

	if r.baseURL == "" {
		r.miss(chainID)
		return nil, nil
	}

	dep, err := r.fetch(ctx, chainID)
	if err != nil {
		return nil, err
	}
	if !dep.Ready() {
		// A 200 with a malformed or incomplete body still counts as
		// not-ready; only the essential oracle address makes a bundle
		// usable.
		r.miss(chainID)
		return nil, nil
	}

	r.remember(chainID, dep)
	return dep, nil
}

func (r *Resolver) loadStatic(chainID int64) *domain.Deployment {
	data, err := staticFS.ReadFile(fmt.Sprintf("deployments/%d.json", chainID))
	if err != nil {
		return nil
	}
	return decodeBundle(data, chainID)
}

func (r *Resolver) fetch(ctx context.Context, chainID int64) (*domain.Deployment, error) {
	url := fmt.Sprintf("%s/deployments/%d.json", r.baseURL, chainID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("deploy: build request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deploy: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		r.logger.Warn("deployment bundle not found",
			slog.Int64("chain_id", chainID),
			slog.String("url", url),
		)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deploy: fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBundleBytes))
	if err != nil {
		return nil, fmt.Errorf("deploy: read bundle body: %w", err)
	}
	return decodeBundle(body, chainID), nil
}

func (r *Resolver) remember(chainID int64, dep *domain.Deployment) {
	r.mu.Lock()
	r.byID[chainID] = dep
	delete(r.missed, chainID)
	r.mu.Unlock()
}

func (r *Resolver) miss(chainID int64) {
	r.mu.Lock()
	r.missed[chainID] = time.Now().Add(missRetryAfter)
	r.mu.Unlock()
}

// decodeBundle parses a bundle, returning nil on malformed JSON rather than
// an error: a bad bundle is a miss.
func decodeBundle(data []byte, chainID int64) *domain.Deployment {
	var dep domain.Deployment
	if err := json.Unmarshal(data, &dep); err != nil {
		return nil
	}
	dep.ChainID = chainID
	return &dep
}
