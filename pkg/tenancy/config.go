package tenancy

import (
	"fmt"
	"time"
)

const (
	DefaultContextKey              = "tenant_context"
	DefaultTenantHeader            = "X-Tenant-Id"
	DefaultTenantQueryParam        = "tenant"
	ReservedConnectionName         = "default"
	DefaultRateLimitWindow         = 60 * time.Second
	DefaultMaxConnectionsPerTenant = 5
)

// Config holds tenancy settings. Fields are read from the environment
// through pkg/config.Load.
type Config struct {
	ContextKey        string   `env:"TENANCY_CONTEXT_KEY" envDefault:"tenant_context"`
	CentralConnection string   `env:"TENANCY_CENTRAL_CONNECTION" envDefault:"central"`
	ExtendConnections []string `env:"TENANCY_EXTEND_CONNECTIONS" envSeparator:","`
	TenantPrefix      string   `env:"TENANCY_TENANT_PREFIX" envDefault:"tenant_"`
	TenantTablePrefix string   `env:"TENANCY_TENANT_TABLE_PREFIX"`
	CachePrefix       string   `env:"TENANCY_CACHE_PREFIX" envDefault:"tenant_"`

	// IgnorePaths bypass tenant handling. Entries are exact paths, shell
	// wildcards, or regular expressions wrapped in slashes ("/^\/api\/auth\/.*$/").
	// The env list is separated by ';' so expressions may contain commas.
	IgnorePaths     []string `env:"TENANCY_IGNORE_PATHS" envSeparator:";" envDefault:"/health;/metrics;/favicon.ico;/public/*"`
	TenantIDPattern string   `env:"TENANCY_TENANT_ID_PATTERN" envDefault:"^[A-Za-z0-9_]{1,64}$"`
	AllowedDomains  []string `env:"TENANCY_ALLOWED_DOMAINS" envSeparator:","` // empty means unrestricted

	MaxConnectionsPerTenant int `env:"TENANCY_MAX_CONNECTIONS_PER_TENANT" envDefault:"5"`

	RateLimitEnabled     bool          `env:"TENANCY_RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitMaxRequests int           `env:"TENANCY_RATE_LIMIT_MAX_REQUESTS" envDefault:"60"`
	RateLimitWindow      time.Duration `env:"TENANCY_RATE_LIMIT_WINDOW" envDefault:"60s"`

	TenantHeader     string `env:"TENANCY_TENANT_HEADER" envDefault:"X-Tenant-Id"`
	TenantQueryParam string `env:"TENANCY_TENANT_QUERY_PARAM" envDefault:"tenant"`

	LookupTimeout  time.Duration `env:"TENANCY_LOOKUP_TIMEOUT" envDefault:"5s"`   // tenant and domain store calls
	CounterTimeout time.Duration `env:"TENANCY_COUNTER_TIMEOUT" envDefault:"1s"` // rate limit counter calls

	// Debug exposes raw error messages and tenant response headers.
	Debug bool `env:"APP_DEBUG" envDefault:"false"`
}

// DefaultConfig returns the configuration used when nothing is set in the environment.
func DefaultConfig() Config {
	return Config{
		ContextKey:              DefaultContextKey,
		CentralConnection:       "central",
		TenantPrefix:            "tenant_",
		CachePrefix:             "tenant_",
		IgnorePaths:             []string{"/health", "/metrics", "/favicon.ico", "/public/*"},
		TenantIDPattern:         DefaultTenantIDPattern,
		MaxConnectionsPerTenant: DefaultMaxConnectionsPerTenant,
		RateLimitEnabled:        true,
		RateLimitMaxRequests:    60,
		RateLimitWindow:         DefaultRateLimitWindow,
		TenantHeader:            DefaultTenantHeader,
		TenantQueryParam:        DefaultTenantQueryParam,
		LookupTimeout:           5 * time.Second,
		CounterTimeout:          time.Second,
	}
}

// Validate checks the configuration. Every failure wraps ErrConfiguration,
// except reserved connection names which report their own kinds.
func (c Config) Validate() error {
	if c.ContextKey == "" {
		return fmt.Errorf("%w: context key is empty", ErrConfiguration)
	}
	if c.CentralConnection == "" {
		return fmt.Errorf("%w: central connection is empty", ErrConfiguration)
	}
	if c.TenantPrefix == "" {
		return fmt.Errorf("%w: tenant connection prefix is empty", ErrConfiguration)
	}
	if c.MaxConnectionsPerTenant <= 0 {
		return fmt.Errorf("%w: max connections per tenant must be positive, got %d", ErrConfiguration, c.MaxConnectionsPerTenant)
	}
	if c.RateLimitEnabled {
		if c.RateLimitMaxRequests <= 0 {
			return fmt.Errorf("%w: rate limit max requests must be positive, got %d", ErrConfiguration, c.RateLimitMaxRequests)
		}
		if c.RateLimitWindow < time.Second {
			return fmt.Errorf("%w: rate limit window must be at least 1s, got %v", ErrConfiguration, c.RateLimitWindow)
		}
	}
	if c.TenantHeader == "" && c.TenantQueryParam == "" {
		return fmt.Errorf("%w: tenant header and query parameter are both empty", ErrConfiguration)
	}
	if _, err := NewIDValidator(c.TenantIDPattern); err != nil {
		return err
	}
	if _, err := compileIgnorePatterns(c.IgnorePaths); err != nil {
		return err
	}
	return guardReservedNames(c.TenantPrefix, append([]string{c.CentralConnection}, c.ExtendConnections...))
}
