package tenancy

import (
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tenancy/pkg/cache"
	"github.com/dmitrymomot/tenancy/pkg/redis"
)

// namespaceSeparator ends every tenant key namespace, so that tenant "a"
// ("tenant_a:") can never address keys of tenant "a1" ("tenant_a1:").
const namespaceSeparator = ":"

// Coordinates are the storage locations of one tenant.
type Coordinates struct {
	TenantID       string `json:"tenant_id"`
	ConnectionName string `json:"connection_name"`
	Database       string `json:"database"`
	CachePrefix    string `json:"cache_prefix"`
	KeyNamespace   string `json:"key_namespace"`
}

func coordinatesFor(conns *Connections, validator *IDValidator, cachePrefix, id string) (Coordinates, error) {
	if err := validator.Validate(id); err != nil {
		return Coordinates{}, err
	}
	name, err := conns.ResolveTenantConnection(id)
	if err != nil {
		return Coordinates{}, err
	}
	return Coordinates{
		TenantID:       id,
		ConnectionName: name,
		Database:       name,
		CachePrefix:    cachePrefix + id,
		KeyNamespace:   cachePrefix + id + namespaceSeparator,
	}, nil
}

// Cache returns c confined to the bound tenant's key namespace.
func (s *Scope) Cache(c cache.Cache) (*cache.Namespaced, error) {
	coords, err := s.Coordinates()
	if err != nil {
		return nil, err
	}
	return cache.WithNamespace(c, coords.KeyNamespace), nil
}

// Redis returns a key/value storage on client confined to the bound tenant's namespace.
func (s *Scope) Redis(client goredis.UniversalClient) (*redis.Storage, error) {
	coords, err := s.Coordinates()
	if err != nil {
		return nil, err
	}
	return redis.NewStorage(client, coords.KeyNamespace)
}

// ConnectionConfig returns the bound tenant's database connection derived from base.
func (s *Scope) ConnectionConfig(base ConnectionConfig) (ConnectionConfig, error) {
	id, err := s.ID(true)
	if err != nil {
		return ConnectionConfig{}, err
	}
	return s.connections.TenantConnectionConfig(base, id)
}
