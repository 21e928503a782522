package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value cache.
// A miss is reported with ok=false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
