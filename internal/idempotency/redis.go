package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter wraps a *redis.Client as a RedisClient, the lone
// production implementation; internal/idempotency's tests use an
// in-memory fake instead.
type RedisAdapter struct {
	Client *redis.Client
}

// SetNX claims key for ttl, storing an empty marker value — the store
// only needs the key's existence, not a cached value, since
// internal/storage.IdempotencyRepository holds the durable record.
func (a *RedisAdapter) SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return a.Client.SetNX(ctx, key, "", ttl).Result()
}

// Get returns the empty-marker value, or ErrNotFound if key has
// expired or was never set.
func (a *RedisAdapter) Get(ctx context.Context, key string) (string, error) {
	val, err := a.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}

	return val, err
}

// Del releases the fast-path lock.
func (a *RedisAdapter) Del(ctx context.Context, key string) error {
	return a.Client.Del(ctx, key).Err()
}

var _ RedisClient = (*RedisAdapter)(nil)
