package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/coderunner-dash/internal/model"
)

const keyPrefix = "quiz:last_sync:"

// RedisCache is the Redis-backed SnapshotCache. Snapshots are stored as
// JSON under quiz:last_sync:<quiz_id> with a TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache builds a RedisCache. A zero ttl means snapshots never expire.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Put(ctx context.Context, snap *model.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return c.rdb.Set(ctx, keyPrefix+snap.QuizID, payload, c.ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, quizID string) (*model.Snapshot, bool, error) {
	payload, err := c.rdb.Get(ctx, keyPrefix+quizID).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap model.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, quizID string) error {
	return c.rdb.Del(ctx, keyPrefix+quizID).Err()
}
