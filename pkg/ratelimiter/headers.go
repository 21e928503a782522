package ratelimiter

import (
	"net/http"
	"strconv"
	"time"
)

// Response headers describing the caller's window.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// SetHeaders describes result on w. Retry-After is only set once the window
// is exhausted, rounded to whole seconds.
func SetHeaders(w http.ResponseWriter, result *Result) {
	if result == nil {
		return
	}
	h := w.Header()
	h.Set(HeaderLimit, strconv.Itoa(result.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(result.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(result.ResetAt.Unix(), 10))
	if result.Allowed() {
		return
	}
	if secs := int(result.RetryAfter().Round(time.Second).Seconds()); secs > 0 {
		h.Set(HeaderRetryAfter, strconv.Itoa(secs))
	}
}
