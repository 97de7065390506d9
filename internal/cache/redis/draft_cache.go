package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quantfold/orderpad/internal/domain"
)

// defaultDraftTTL keeps abandoned drafts from lingering forever.
const defaultDraftTTL = 24 * time.Hour

// DraftCache implements domain.DraftCache using JSON-serialized drafts under
// simple string keys.
//
// Key schema:
//
//	draft:{key} - JSON-encoded domain.DraftOrder
type DraftCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDraftCache creates a DraftCache backed by the given Client. A ttl of
// zero falls back to defaultDraftTTL.
func NewDraftCache(c *Client, ttl time.Duration) *DraftCache {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	return &DraftCache{rdb: c.Underlying(), ttl: ttl}
}

func draftKey(key string) string { return "draft:" + key }

// Save stores the draft under the given key, refreshing the TTL. The latest
// write wins; drafts are a last-value cache, not a log.
func (dc *DraftCache) Save(ctx context.Context, key string, draft domain.DraftOrder) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("redis: marshal draft %s: %w", key, err)
	}

	if err := dc.rdb.Set(ctx, draftKey(key), data, dc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: save draft %s: %w", key, err)
	}
	return nil
}

// Load retrieves the draft stored under key. It returns domain.ErrNotFound
// when nothing is stored; a stored value that fails to parse is reported as
// an error so callers can fall back to a default draft.
func (dc *DraftCache) Load(ctx context.Context, key string) (domain.DraftOrder, error) {
	data, err := dc.rdb.Get(ctx, draftKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.DraftOrder{}, domain.ErrNotFound
		}
		return domain.DraftOrder{}, fmt.Errorf("redis: load draft %s: %w", key, err)
	}

	var draft domain.DraftOrder
	if err := json.Unmarshal(data, &draft); err != nil {
		return domain.DraftOrder{}, fmt.Errorf("redis: unmarshal draft %s: %w", key, err)
	}
	return draft, nil
}

// Delete removes the draft stored under key. Deleting an absent key is not
// an error.
func (dc *DraftCache) Delete(ctx context.Context, key string) error {
	if err := dc.rdb.Del(ctx, draftKey(key)).Err(); err != nil {
		return fmt.Errorf("redis: delete draft %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.DraftCache = (*DraftCache)(nil)
