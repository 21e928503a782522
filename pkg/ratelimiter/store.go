package ratelimiter

import (
	"context"
	"time"
)

// Store is an atomic counter store with expiring keys.
type Store interface {
	// Increment adds one to key and returns the new value. When the value
	// becomes 1 a new window starts and the key expires after window.
	// resetAt is the expiry of the key.
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)

	// Reset deletes the counter of key.
	Reset(ctx context.Context, key string) error
}
