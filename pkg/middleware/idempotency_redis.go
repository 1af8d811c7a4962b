package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyPending = "pending"

// idempotencyKV is the subset of *redis.Client the store needs.
type idempotencyKV interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisIdempotencyStore shares keys between every service instance. A key is
// claimed with SET NX holding a pending marker for lockTTL, then overwritten
// with the recorded response for ttl.
type RedisIdempotencyStore struct {
	rdb     idempotencyKV
	ttl     time.Duration
	lockTTL time.Duration
	prefix  string
}

func NewRedisIdempotencyStore(rdb *redis.Client, ttl, lockTTL time.Duration, prefix string) *RedisIdempotencyStore {
	return newRedisIdempotencyStore(rdb, ttl, lockTTL, prefix)
}

func newRedisIdempotencyStore(rdb idempotencyKV, ttl, lockTTL time.Duration, prefix string) *RedisIdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "idem"
	}
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl, lockTTL: lockTTL, prefix: prefix}
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string) (*CachedResponse, bool, error) {
	k := s.prefix + ":" + key

	// A key can expire between SETNX and GET; one more round settles it.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.rdb.SetNX(ctx, k, idempotencyPending, s.lockTTL).Result()
		if err != nil {
			return nil, false, fmt.Errorf("failed to claim idempotency key: %w", err)
		}
		if ok {
			return nil, true, nil
		}

		raw, err := s.rdb.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to read idempotency key: %w", err)
		}
		if raw == idempotencyPending {
			return nil, false, nil
		}

		var cached CachedResponse
		if err := json.Unmarshal([]byte(raw), &cached); err != nil {
			return nil, false, fmt.Errorf("failed to decode idempotent response: %w", err)
		}
		return &cached, false, nil
	}
	return nil, false, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, response *CachedResponse) error {
	response.CreatedAt = time.Now().UTC()
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to encode idempotent response: %w", err)
	}
	if err := s.rdb.Set(ctx, s.prefix+":"+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.prefix+":"+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Stop is a no-op; the Redis client is closed with the rest of the config.
func (s *RedisIdempotencyStore) Stop() {}
