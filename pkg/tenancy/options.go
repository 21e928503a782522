package tenancy

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenancy/pkg/ratelimiter"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for pipeline and batch events.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRateLimitStore counts requests in store, e.g. ratelimiter.NewRedisStore.
// Without it an in-process ratelimiter.MemoryStore is used.
func WithRateLimitStore(store ratelimiter.Store) Option {
	return func(m *Manager) { m.limitStore = store }
}

// WithRateLimiter replaces the fixed-window limiter built from Config.
// It is keyed by client IP.
func WithRateLimiter(l ratelimiter.RateLimiter) Option {
	return func(m *Manager) { m.limiter = l }
}

// WithObserver registers an Observer, e.g. metrics.Collector.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithAccessRecorder enables best-effort access bookkeeping after admission.
func WithAccessRecorder(r AccessRecorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithIDValidator replaces the validator built from Config.TenantIDPattern.
func WithIDValidator(v *IDValidator) Option {
	return func(m *Manager) {
		if v != nil {
			m.validator = v
		}
	}
}

// WithClock replaces time.Now for admission checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
