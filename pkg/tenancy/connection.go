package tenancy

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/tenancy/pkg/cache"
)

// PoolConfig describes connection pool limits of a database connection.
type PoolConfig struct {
	MaxConnections  int
	MinConnections  int
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
}

// CacheConfig describes the query cache attached to a database connection.
type CacheConfig struct {
	Prefix string
	TTL    time.Duration
}

// ConnectionConfig is a named database connection definition.
// Pool and Cache are optional; nil means the connection has none.
type ConnectionConfig struct {
	Name        string
	DSN         string
	Database    string
	TablePrefix string
	Pool        *PoolConfig
	Cache       *CacheConfig
	Options     map[string]string
}

// Clone returns a deep copy of c.
func (c ConnectionConfig) Clone() ConnectionConfig {
	out := c
	if c.Pool != nil {
		pool := *c.Pool
		out.Pool = &pool
	}
	if c.Cache != nil {
		cc := *c.Cache
		out.Cache = &cc
	}
	if c.Options != nil {
		out.Options = maps.Clone(c.Options)
	}
	return out
}

// derivedConfigCapacity bounds the number of memoised tenant connection configs.
const derivedConfigCapacity = 1024

// Connections maps tenant ids to connection names and derives tenant
// connection configs from the central one.
type Connections struct {
	central      string
	extend       []string
	prefix       string
	tablePrefix  string
	maxPerTenant int
	validator    *IDValidator
	derived      *cache.LRU[string, ConnectionConfig]
}

// NewConnections builds a resolver from cfg. Central and extend connections
// are checked against reserved names up front.
func NewConnections(cfg Config, validator *IDValidator) (*Connections, error) {
	if validator == nil {
		validator = DefaultIDValidator()
	}
	c := &Connections{
		central:      cfg.CentralConnection,
		prefix:       cfg.TenantPrefix,
		tablePrefix:  cfg.TenantTablePrefix,
		maxPerTenant: cfg.MaxConnectionsPerTenant,
		validator:    validator,
		derived:      cache.NewLRU[string, ConnectionConfig](derivedConfigCapacity),
	}
	if c.maxPerTenant <= 0 {
		c.maxPerTenant = DefaultMaxConnectionsPerTenant
	}
	if _, err := c.ResolveCentralConnection(); err != nil {
		return nil, err
	}

	extend := make([]string, 0, len(cfg.ExtendConnections)+1)
	for _, name := range cfg.ExtendConnections {
		if name = strings.TrimSpace(name); name != "" && !slices.Contains(extend, name) {
			extend = append(extend, name)
		}
	}
	if !slices.Contains(extend, c.central) {
		extend = append(extend, c.central)
	}
	if err := c.GuardReservedNames(extend...); err != nil {
		return nil, err
	}
	c.extend = extend

	return c, nil
}

// Prefix returns the tenant connection prefix.
func (c *Connections) Prefix() string {
	return c.prefix
}

// ResolveTenantConnection returns the connection (and database) name of tenant id.
func (c *Connections) ResolveTenantConnection(id string) (string, error) {
	if err := c.validator.Validate(id); err != nil {
		return "", err
	}
	return c.prefix + id, nil
}

// ResolveCentralConnection returns the central connection name.
func (c *Connections) ResolveCentralConnection() (string, error) {
	if c.central == "" {
		return "", fmt.Errorf("%w: central connection is empty", ErrConfiguration)
	}
	if err := c.GuardReservedNames(c.central); err != nil {
		return "", err
	}
	return c.central, nil
}

// ExtendConnections returns the connections that are never switched to a tenant:
// the configured extend list plus the central connection, without blanks or duplicates.
func (c *Connections) ExtendConnections() []string {
	return slices.Clone(c.extend)
}

// GuardReservedNames rejects "default" and any name containing the tenant prefix.
// A shared connection that aliases into the tenant namespace would break isolation.
func (c *Connections) GuardReservedNames(names ...string) error {
	return guardReservedNames(c.prefix, names)
}

func guardReservedNames(prefix string, names []string) error {
	if prefix == "" {
		return fmt.Errorf("%w: tenant connection prefix is empty", ErrConfiguration)
	}
	for _, name := range names {
		if name == ReservedConnectionName {
			return fmt.Errorf("%w: %q", ErrReservedConnectionName, name)
		}
	}
	for _, name := range names {
		if strings.Contains(name, prefix) {
			return fmt.Errorf("%w: %q contains %q", ErrTenantPrefixCollision, name, prefix)
		}
	}
	return nil
}

// DeriveTenantConnectionConfig clones base for tenant id: the database is the
// tenant connection name, the table prefix is applied, the pool size is capped
// at the per-tenant maximum and the id is appended to the cache prefix.
// The result depends only on base and id.
func (c *Connections) DeriveTenantConnectionConfig(base ConnectionConfig, id string) (ConnectionConfig, error) {
	name, err := c.ResolveTenantConnection(id)
	if err != nil {
		return ConnectionConfig{}, err
	}

	out := base.Clone()
	out.Name = name
	out.Database = name
	out.TablePrefix = c.tablePrefix
	if out.Pool != nil && (out.Pool.MaxConnections <= 0 || out.Pool.MaxConnections > c.maxPerTenant) {
		out.Pool.MaxConnections = c.maxPerTenant
	}
	if out.Cache != nil {
		out.Cache.Prefix = base.Cache.Prefix + id
	}
	return out, nil
}

// TenantConnectionConfig is DeriveTenantConnectionConfig memoised by connection name.
// The returned config is a copy and may be modified by the caller.
func (c *Connections) TenantConnectionConfig(base ConnectionConfig, id string) (ConnectionConfig, error) {
	name, err := c.ResolveTenantConnection(id)
	if err != nil {
		return ConnectionConfig{}, err
	}
	cfg, err := c.derived.GetOrLoad(name, func(string) (ConnectionConfig, error) {
		return c.DeriveTenantConnectionConfig(base, id)
	})
	if err != nil {
		return ConnectionConfig{}, err
	}
	return cfg.Clone(), nil
}

// ForgetTenantConnection drops a memoised tenant config, e.g. after the central config changed.
func (c *Connections) ForgetTenantConnection(id string) {
	if name, err := c.ResolveTenantConnection(id); err == nil {
		c.derived.Remove(name)
	}
}
