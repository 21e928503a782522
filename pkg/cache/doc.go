// Package cache provides the caches used around tenant scopes.
//
// Cache is a byte-oriented key/value port with three backends:
//
//   - Ristretto: in-process cache on dgraph-io/ristretto, costed by value size.
//   - Redis: shared cache on go-redis.
//   - Tiered: Ristretto in front of Redis, backfilling L1 on L2 hits.
//
// WithNamespace confines any Cache to one key prefix. A tenant scope hands out
// a namespaced view per tenant, so tenants sharing a backend never read each
// other's entries:
//
//	l1, _ := cache.NewRistretto(64 << 20)
//	shared := cache.NewTiered(l1, cache.NewRedis(client), time.Minute)
//	acme := cache.WithNamespace(shared, "tenant_acme:")
//	_ = acme.Set(ctx, "settings", data, time.Hour) // stored as "tenant_acme:settings"
//
// LRU is a generic fixed-capacity map with least-recently-used eviction and
// an eviction callback, for values that are not bytes (derived connection
// configs, database pools):
//
//	derived := cache.NewLRU[string, tenancy.ConnectionConfig](256)
//	derived.OnEvict(func(name string, _ tenancy.ConnectionConfig) { log.Debug("dropped", "name", name) })
//	cfg, err := derived.GetOrLoad(name, derive)
//
// The eviction callback runs under the LRU lock and must not block.
package cache
