package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/orakore/orakore/internal/domain"
)

// flashTTL expires unread flash messages.
const flashTTL = 10 * time.Minute

// FlashStore implements domain.FlashStore: one-shot banner messages consumed
// by the first read (GETDEL).
type FlashStore struct {
	rdb *redis.Client
}

// NewFlashStore creates a FlashStore backed by the given Client.
func NewFlashStore(c *Client) *FlashStore {
	return &FlashStore{rdb: c.Underlying()}
}

func flashKey(key string) string { return "flash:" + key }

// Set stores a flash message under the key.
func (fs *FlashStore) Set(ctx context.Context, key, message string) error {
	if err := fs.rdb.Set(ctx, flashKey(key), message, flashTTL).Err(); err != nil {
		return fmt.Errorf("redis: set flash %s: %w", key, err)
	}
	return nil
}

// Take reads and consumes the flash message. A missing message returns
// ("", nil): no banner to show is not an error.
func (fs *FlashStore) Take(ctx context.Context, key string) (string, error) {
	msg, err := fs.rdb.GetDel(ctx, flashKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis: take flash %s: %w", key, err)
	}
	return msg, nil
}

// Compile-time interface check.
var _ domain.FlashStore = (*FlashStore)(nil)

// DisclaimerStore implements domain.DisclaimerStore with one key per
// acknowledging address.
type DisclaimerStore struct {
	rdb *redis.Client
}

// NewDisclaimerStore creates a DisclaimerStore backed by the given Client.
func NewDisclaimerStore(c *Client) *DisclaimerStore {
	return &DisclaimerStore{rdb: c.Underlying()}
}

func disclaimerKey(addr common.Address) string {
	return "disclaimer:" + addr.Hex()
}

// Acknowledge records that the address accepted the disclaimer. The flag is
// persistent.
func (ds *DisclaimerStore) Acknowledge(ctx context.Context, addr common.Address) error {
	if err := ds.rdb.Set(ctx, disclaimerKey(addr), "1", 0).Err(); err != nil {
		return fmt.Errorf("redis: acknowledge disclaimer %s: %w", addr.Hex(), err)
	}
	return nil
}

// Acknowledged reports whether the address has accepted the disclaimer.
func (ds *DisclaimerStore) Acknowledged(ctx context.Context, addr common.Address) (bool, error) {
	n, err := ds.rdb.Exists(ctx, disclaimerKey(addr)).Result()
	if err != nil {
		return false, fmt.Errorf("redis: check disclaimer %s: %w", addr.Hex(), err)
	}
	return n > 0, nil
}

// Compile-time interface check.
var _ domain.DisclaimerStore = (*DisclaimerStore)(nil)
