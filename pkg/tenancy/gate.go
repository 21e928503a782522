package tenancy

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/dmitrymomot/tenancy/pkg/logger"
	"github.com/dmitrymomot/tenancy/pkg/ratelimiter"
)

// RateLimitKeyPrefix prefixes client IPs in the rate limit counter store.
const RateLimitKeyPrefix = "rate_limit:"

// AccessGate applies the per-request policy checks after a tenant is resolved.
type AccessGate struct {
	limiter  ratelimiter.RateLimiter
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

// NewAccessGate creates a gate. A nil limiter disables rate limiting.
func NewAccessGate(limiter ratelimiter.RateLimiter, counterTimeout time.Duration, log *slog.Logger, observer Observer) *AccessGate {
	if log == nil {
		log = logger.Discard()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &AccessGate{limiter: limiter, timeout: counterTimeout, logger: log, observer: observer}
}

// CheckRateLimit counts one request for ip and fails with ErrRateLimitExceeded
// once the window is exhausted. Counter store failures are logged and let the
// request through; the returned result is nil in that case.
func (g *AccessGate) CheckRateLimit(ctx context.Context, ip string) (*ratelimiter.Result, error) {
	if g.limiter == nil {
		return nil, nil
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	res, err := g.limiter.Allow(ctx, ip)
	if err != nil {
		g.logger.WarnContext(ctx, "rate limit check skipped",
			logger.ClientIP(ip), logger.Error(err))
		g.observer.RateLimitUnavailable()
		return nil, nil
	}
	if !res.Allowed() {
		return res, fmt.Errorf("%w: %d requests in window", ErrRateLimitExceeded, res.Count)
	}
	return res, nil
}

// CheckActive fails with ErrTenantInactive unless t is admitted at now.
func CheckActive(t *Tenant, now time.Time) error {
	if t == nil {
		return ErrNoTenantBound
	}
	if !t.IsActive(now) {
		return fmt.Errorf("%w: %s", ErrTenantInactive, t.ID)
	}
	return nil
}

// CheckIP fails with ErrIPNotAllowed when t has an allow-list and ip matches
// none of its entries.
func CheckIP(t *Tenant, ip string) error {
	if t == nil {
		return ErrNoTenantBound
	}
	if len(t.AllowedIPs) == 0 {
		return nil
	}
	for _, rng := range t.AllowedIPs {
		if IPInRange(ip, rng) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrIPNotAllowed, ip)
}

// IPInRange reports whether ip equals rng or lies inside the CIDR block rng.
// A /0 block matches every address of its family. IPv4-mapped IPv6
// addresses compare as IPv4.
func IPInRange(ip, rng string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	rng = strings.TrimSpace(rng)

	if !strings.Contains(rng, "/") {
		other, err := netip.ParseAddr(rng)
		return err == nil && other.Unmap() == addr
	}

	prefix, err := netip.ParsePrefix(rng)
	if err != nil {
		return false
	}
	if prefix.Addr().Is4In6() {
		bits := prefix.Bits() - 96
		if bits < 0 {
			return false
		}
		prefix = netip.PrefixFrom(prefix.Addr().Unmap(), bits)
	}
	return prefix.Masked().Contains(addr)
}
