// Package ratelimiter provides fixed-window request counting over an atomic
// counter store.
//
// Each key gets a counter that starts with the first request and expires one
// window later. Requests past Config.Limit within the window are denied.
//
//	store := ratelimiter.NewRedisStore(client) // INCR + EXPIRE on first hit
//	limiter, err := ratelimiter.NewFixedWindow(store, ratelimiter.Config{
//		Limit:     60,
//		Window:    time.Minute,
//		KeyPrefix: "rate_limit:",
//	})
//	if err != nil {
//		return err
//	}
//
//	result, err := limiter.Allow(ctx, clientIP)
//	if err != nil {
//		// errors.Is(err, ratelimiter.ErrStoreUnavailable)
//	}
//	if !result.Allowed() {
//		// retry after result.RetryAfter()
//	}
//
// MemoryStore serves single-process deployments and tests; RedisStore shares
// counters between processes.
//
// SetHeaders writes X-RateLimit-Limit, X-RateLimit-Remaining,
// X-RateLimit-Reset and, once the window is exhausted, Retry-After.
package ratelimiter
