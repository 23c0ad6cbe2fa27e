package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orakore/orakore/internal/domain"
)

// pageTTL bounds how long a cached page may serve as the offline tier.
// Stale-but-renderable beats empty, so the window is generous.
const pageTTL = 24 * time.Hour

// PageCache implements domain.PageCache using JSON values keyed by
// (chain, page, pageSize).
//
// Key schema:
//
//	qpage:{chainID}:{pageSize}:{page} - JSON-serialized QuestionPage
type PageCache struct {
	rdb *redis.Client
}

// NewPageCache creates a PageCache backed by the given Client.
func NewPageCache(c *Client) *PageCache {
	return &PageCache{rdb: c.Underlying()}
}

func pageKey(chainID int64, pageNo, pageSize int) string {
	return fmt.Sprintf("qpage:%d:%d:%d", chainID, pageSize, pageNo)
}

// SetPage stores a page, overwriting any previous value for its key.
func (pc *PageCache) SetPage(ctx context.Context, page domain.QuestionPage) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("redis: marshal page %d: %w", page.Page, err)
	}

	key := pageKey(page.ChainID, page.Page, page.PageSize)
	if err := pc.rdb.Set(ctx, key, data, pageTTL).Err(); err != nil {
		return fmt.Errorf("redis: set page %s: %w", key, err)
	}
	return nil
}

// GetPage retrieves the last cached page for the key, returning
// domain.ErrNoCache when none exists.
func (pc *PageCache) GetPage(ctx context.Context, chainID int64, pageNo, pageSize int) (domain.QuestionPage, error) {
	key := pageKey(chainID, pageNo, pageSize)

	data, err := pc.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.QuestionPage{}, domain.ErrNoCache
		}
		return domain.QuestionPage{}, fmt.Errorf("redis: get page %s: %w", key, err)
	}

	var page domain.QuestionPage
	if err := json.Unmarshal(data, &page); err != nil {
		return domain.QuestionPage{}, fmt.Errorf("redis: unmarshal page %s: %w", key, err)
	}
	return page, nil
}

// Compile-time interface check.
var _ domain.PageCache = (*PageCache)(nil)
