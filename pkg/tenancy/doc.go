// Package tenancy binds every HTTP request to exactly one tenant and
// confines it to that tenant's storage.
//
// A Manager is built once from Config, a tenant Store and an optional
// DomainStore. Its Middleware runs each request through these stages, any of
// which can end the request with a JSON error response:
//
//  1. ignored paths (exact, shell wildcard or /regex/) bypass everything
//  2. fixed-window rate limit keyed by client IP; a failing counter store lets the request through
//  3. tenant resolution from the X-Tenant-Id header, the tenant query parameter or the Host
//  4. active status (active or trial, not expired, not deleted)
//  5. the tenant's IP allow-list
//
// Admitted requests carry a Scope in their context:
//
//	r := chi.NewRouter()
//	r.Use(mgr.Middleware)
//	r.Get("/projects", func(w http.ResponseWriter, r *http.Request) {
//		t := tenancy.MustFromContext(r.Context())
//		scope, _ := tenancy.ScopeFromContext(r.Context())
//		kv, _ := scope.Redis(redisClient) // keys live under "tenant_<id>:"
//		...
//	})
//
// Tenant ids are turned into database names and cache keys, so every such
// derivation goes through one IDValidator: letters, digits and underscores,
// at most 64 characters, and none of the SQL fragments in the denylist.
//
// Status mapping: 429 for rate limiting, 400 for a missing tenant id, 403
// for everything else, unexpected internal failures included. Raw error text
// is returned only with Config.Debug, which also adds the X-Tenant-ID and
// X-Tenant-Database response headers.
//
// Scope.RunForEach (and Manager.RunForEach outside requests) runs work for
// several tenants in turn and restores the previously bound tenant afterwards.
//
// Directory loads the full tenant list once per request and reloads it once
// on a miss. That keeps newly created tenants visible without any cache
// invalidation, at the price of a full load per request; stores holding many
// tenants should answer LoadAll from a cache of their own.
package tenancy
