package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/orakore/orakore/internal/domain"
)

// StubStore implements domain.StubStore using a Redis list per chain,
// newest first, trimmed to domain.MaxStubs entries.
//
// Key schema:
//
//	qstubs:{chainID} - list of JSON-serialized stubs, newest at the head
type StubStore struct {
	rdb *redis.Client
}

// NewStubStore creates a StubStore backed by the given Client.
func NewStubStore(c *Client) *StubStore {
	return &StubStore{rdb: c.Underlying()}
}

func stubsKey(chainID int64) string {
	return fmt.Sprintf("qstubs:%d", chainID)
}

// Push prepends a stub and trims the list to the cap.
func (ss *StubStore) Push(ctx context.Context, stub domain.Stub) error {
	data, err := json.Marshal(stub)
	if err != nil {
		return fmt.Errorf("redis: marshal stub %s: %w", stub.ID.Hex(), err)
	}

	key := stubsKey(stub.ChainID)
	pipe := ss.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, domain.MaxStubs-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: push stub %s: %w", stub.ID.Hex(), err)
	}
	return nil
}

// ListByChain returns all retained stubs for the chain, newest first.
func (ss *StubStore) ListByChain(ctx context.Context, chainID int64) ([]domain.Stub, error) {
	raw, err := ss.rdb.LRange(ctx, stubsKey(chainID), 0, domain.MaxStubs-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list stubs chain %d: %w", chainID, err)
	}

	stubs := make([]domain.Stub, 0, len(raw))
	for _, item := range raw {
		var stub domain.Stub
		if err := json.Unmarshal([]byte(item), &stub); err != nil {
			// A corrupt entry is skipped, not fatal.
			continue
		}
		stubs = append(stubs, stub)
	}
	return stubs, nil
}

// Remove deletes the stub with the given question ID, typically once the
// real record has arrived.
func (ss *StubStore) Remove(ctx context.Context, chainID int64, id common.Hash) error {
	key := stubsKey(chainID)

	stubs, err := ss.ListByChain(ctx, chainID)
	if err != nil {
		return err
	}

	for _, stub := range stubs {
		if stub.ID != id {
			continue
		}
		data, err := json.Marshal(stub)
		if err != nil {
			continue
		}
		if err := ss.rdb.LRem(ctx, key, 1, data).Err(); err != nil {
			return fmt.Errorf("redis: remove stub %s: %w", id.Hex(), err)
		}
	}
	return nil
}

// Compile-time interface check.
var _ domain.StubStore = (*StubStore)(nil)
