package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Redis counts requests with INCR+EXPIRE in one pipeline. INCR is
// atomic; the pipeline keeps the expiry refresh on the same round trip.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	if client == nil {
		panic("ratelimit: redis client is required")
	}
	return &Redis{client: client}
}

func (r *Redis) Allow(ctx context.Context, bucket string, limit int, window time.Duration) (bool, error) {
	key := "rl:" + bucket
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis rate limit %s: %w", key, err)
	}
	count, err := incr.Result()
	if err != nil {
		return false, fmt.Errorf("redis rate limit %s: %w", key, err)
	}
	return count <= int64(limit), nil
}
