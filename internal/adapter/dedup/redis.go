// Package dedup implements the consumer-side idempotency barrier on
// Redis. A SET NX claim per candidate keeps concurrently delivered
// duplicates from racing into the pipeline together.
package dedup

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talentgap/recruitment-evaluator/internal/domain"
)

const keyPrefix = "evaluate:claim:"

// RedisDeduper implements domain.Deduper.
type RedisDeduper struct {
	rdb *redis.Client
}

// New builds a RedisDeduper from a redis:// URL.
func New(redisURL string) (*RedisDeduper, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("op=dedup.New: %w", err)
	}
	return &RedisDeduper{rdb: redis.NewClient(opts)}, nil
}

// NewWithClient wraps an existing client; tests use this with miniredis.
func NewWithClient(rdb *redis.Client) *RedisDeduper {
	return &RedisDeduper{rdb: rdb}
}

// Acquire claims the candidate for this worker. It reports false when
// another delivery already holds the claim. The TTL bounds how long a
// crashed worker can block reprocessing.
func (d *RedisDeduper) Acquire(ctx domain.Context, candidateID string, ttl time.Duration) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, keyPrefix+candidateID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("op=dedup.Acquire: %w", err)
	}
	return ok, nil
}

// Release drops the claim once processing finishes.
func (d *RedisDeduper) Release(ctx domain.Context, candidateID string) error {
	if err := d.rdb.Del(ctx, keyPrefix+candidateID).Err(); err != nil {
		return fmt.Errorf("op=dedup.Release: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable; readiness checks use it.
func (d *RedisDeduper) Ping(ctx domain.Context) error {
	return d.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (d *RedisDeduper) Close() error { return d.rdb.Close() }
