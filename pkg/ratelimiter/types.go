package ratelimiter

import "time"

// Config defines a fixed-window limit.
type Config struct {
	Limit     int           // Maximum requests per window
	Window    time.Duration // Window length, whole seconds
	KeyPrefix string        // Prepended to every key, e.g. "rate_limit:"
}

// Result describes the state of a key's window after a request was counted.
type Result struct {
	Limit     int       // Maximum requests per window
	Count     int       // Requests counted in the current window, this one included
	Remaining int       // Requests left in the window, never negative
	ResetAt   time.Time // End of the current window
}

// Allowed reports whether the counted request is within the limit.
func (r *Result) Allowed() bool {
	return r.Count <= r.Limit
}

// RetryAfter returns how long to wait for the next window.
// Returns 0 if the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return max(time.Until(r.ResetAt), 0)
}
