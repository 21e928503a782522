package tenancy

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// RequestResolver finds the tenant id a request addresses.
type RequestResolver struct {
	header       string
	queryParam   string
	allowedHosts *HostMatcher
	domains      DomainStore
	validator    *IDValidator
	timeout      time.Duration
}

// NewRequestResolver creates a resolver reading cfg.TenantHeader, then
// cfg.TenantQueryParam, then the request host through domains.
// domains may be nil, in which case host resolution always misses.
func NewRequestResolver(cfg Config, domains DomainStore, validator *IDValidator) *RequestResolver {
	if validator == nil {
		validator = DefaultIDValidator()
	}
	return &RequestResolver{
		header:       cfg.TenantHeader,
		queryParam:   cfg.TenantQueryParam,
		allowedHosts: NewHostMatcher(cfg.AllowedDomains),
		domains:      domains,
		validator:    validator,
		timeout:      cfg.LookupTimeout,
	}
}

// Resolve returns the validated tenant id of r.
//
// An explicit header or query value wins and is never looked up by host.
// Without one, the Host header must pass ValidateHost (ErrInvalidHost) and is
// mapped through the domain store (ErrTenantLookupFailed on store errors).
// No id at all fails with ErrMissingTenantID, a malformed one with
// ErrInvalidTenantID.
func (rr *RequestResolver) Resolve(r *http.Request) (string, error) {
	id := rr.explicitID(r)
	if id == "" {
		var err error
		if id, err = rr.idByHost(r.Context(), r.Host); err != nil {
			return "", err
		}
	}
	if id == "" {
		return "", ErrMissingTenantID
	}
	if err := rr.validator.Validate(id); err != nil {
		return "", err
	}
	return id, nil
}

func (rr *RequestResolver) explicitID(r *http.Request) string {
	if rr.header != "" {
		if id := strings.TrimSpace(r.Header.Get(rr.header)); id != "" {
			return id
		}
	}
	if rr.queryParam != "" {
		return strings.TrimSpace(r.URL.Query().Get(rr.queryParam))
	}
	return ""
}

func (rr *RequestResolver) idByHost(ctx context.Context, host string) (string, error) {
	if !rr.allowedHosts.Match(host) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHost, host)
	}
	if rr.domains == nil {
		return "", nil
	}

	if rr.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rr.timeout)
		defer cancel()
	}
	id, err := rr.domains.TenantIDByHost(ctx, strings.ToLower(StripPort(host)))
	if err != nil {
		return "", fmt.Errorf("%w: domain %s: %w", ErrTenantLookupFailed, StripPort(host), err)
	}
	return strings.TrimSpace(id), nil
}
