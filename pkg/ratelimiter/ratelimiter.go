package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter counts a request against key and reports whether it is allowed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// FixedWindow allows Limit requests per key in consecutive windows that start
// with the first request after the previous window expired.
type FixedWindow struct {
	store  Store
	config Config
}

// NewFixedWindow creates a limiter over store.
func NewFixedWindow(store Store, config Config) (*FixedWindow, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: store is nil", ErrInvalidConfig)
	}
	return &FixedWindow{store: store, config: config}, nil
}

// Allow counts one request for key. Store failures are returned wrapped in
// ErrStoreUnavailable; callers decide whether to fail open.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	count, resetAt, err := fw.store.Increment(ctx, fw.config.KeyPrefix+key, fw.config.Window)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	return &Result{
		Limit:     fw.config.Limit,
		Count:     int(count),
		Remaining: max(fw.config.Limit-int(count), 0),
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the window of key.
func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	return fw.store.Reset(ctx, fw.config.KeyPrefix+key)
}

// Config returns the limiter configuration.
func (fw *FixedWindow) Config() Config {
	return fw.config
}

func (c Config) validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, c.Limit)
	}
	if c.Window < time.Second {
		return fmt.Errorf("%w: window must be at least 1s, got %v", ErrInvalidConfig, c.Window)
	}
	if c.Window%time.Second != 0 {
		return fmt.Errorf("%w: window must be whole seconds, got %v", ErrInvalidConfig, c.Window)
	}
	return nil
}
