package tenancy

import "errors"

var (
	// ErrInvalidTenantID is returned when an identifier fails the id policy.
	ErrInvalidTenantID = errors.New("invalid tenant ID format")

	// ErrMissingTenantID is returned when a tenant is required but no identifier was supplied.
	ErrMissingTenantID = errors.New("the tenant ID is missing or invalid")

	// ErrInvalidHost is returned when the Host header fails syntax or allow-list checks.
	ErrInvalidHost = errors.New("invalid host header")

	// ErrTenantNotFound is returned when the directory has no record for the id.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantInactive is returned for suspended, inactive, expired or deleted tenants.
	ErrTenantInactive = errors.New("tenant is inactive or suspended")

	// ErrRateLimitExceeded is returned when the client exhausted its window.
	ErrRateLimitExceeded = errors.New("rate limit exceeded, please try again later")

	// ErrIPNotAllowed is returned when the client IP is outside the tenant allow-list.
	ErrIPNotAllowed = errors.New("access denied: IP not allowed")

	// ErrNoTenantBound is returned when a bound tenant is required but the scope is empty.
	ErrNoTenantBound = errors.New("no tenant bound to the current request")

	// ErrReservedConnectionName is returned when central or extend connections use "default".
	ErrReservedConnectionName = errors.New("connection name is reserved")

	// ErrTenantPrefixCollision is returned when a shared connection name contains the tenant prefix.
	ErrTenantPrefixCollision = errors.New("connection name contains the tenant database prefix")

	// ErrConfiguration is returned for invalid or incomplete configuration.
	ErrConfiguration = errors.New("invalid tenancy configuration")

	// ErrTenantLookupFailed is returned when the tenant or domain store fails.
	ErrTenantLookupFailed = errors.New("tenant lookup failed")

	// ErrNoScope is returned when a request context carries no tenant scope.
	ErrNoScope = errors.New("no tenant scope in context")
)

// knownErrors lists every error kind the pipeline maps to a response on its own.
var knownErrors = []error{
	ErrInvalidTenantID,
	ErrMissingTenantID,
	ErrInvalidHost,
	ErrTenantNotFound,
	ErrTenantInactive,
	ErrRateLimitExceeded,
	ErrIPNotAllowed,
	ErrNoTenantBound,
	ErrReservedConnectionName,
	ErrTenantPrefixCollision,
	ErrConfiguration,
	ErrTenantLookupFailed,
	ErrNoScope,
}

// IsKnown reports whether err wraps one of the package error kinds.
func IsKnown(err error) bool {
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
