package ratelimiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store shared by every process using the same Redis.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a store on client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Increment runs INCR and PTTL in one round trip and sets the expiry when
// the counter was just created. A counter left without expiry (the process
// died between INCR and EXPIRE) gets one on the next call.
func (rs *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, time.Time, error) {
	pipe := rs.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, err
	}

	count := incr.Val()
	remaining := pttl.Val()
	if count == 1 || remaining < 0 {
		if err := rs.client.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, time.Time{}, err
		}
		remaining = ttl
	}
	return count, time.Now().Add(remaining), nil
}

func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	return rs.client.Del(ctx, key).Err()
}
