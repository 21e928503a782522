package ratelimiter

import "errors"

var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyKey indicates that no key could be derived for a request.
	ErrEmptyKey = errors.New("empty rate limit key")

	// ErrStoreUnavailable wraps failures of the counter store.
	ErrStoreUnavailable = errors.New("store unavailable")
)
