package redisx

import (
	"context"
	"errors"
	"github.com/redis/go-redis/v9"
	"time"
)

// KV is the narrow string key/value view the HTTP layer needs for
// idempotency keys and the order status cache.
type KV struct{ RDB redis.Cmdable }

func (k KV) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return k.RDB.SetNX(ctx, key, value, ttl).Result()
}

// Get reports found=false on a cache miss rather than an error.
func (k KV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := k.RDB.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (k KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return k.RDB.Set(ctx, key, value, ttl).Err()
}

func (k KV) Del(ctx context.Context, key string) error {
	return k.RDB.Del(ctx, key).Err()
}
