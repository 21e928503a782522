// Package redis connects to Redis and confines tenant data to key namespaces.
//
// Connect parses Config.ConnectionURL and pings the server, waiting
// RetryInterval between attempts until RetryAttempts is exhausted or ctx is
// done:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Storage is a byte key/value view over one namespace. Every key is stored as
// namespace+key; Keys and Reset use SCAN with the namespace as match pattern
// (glob characters escaped), so they never touch another namespace:
//
//	acme, err := redis.NewStorage(client, "tenant_acme:")
//	if err != nil {
//		return err
//	}
//	_ = acme.Set(ctx, "theme", []byte("dark"), time.Hour)
//	keys, _ := acme.Keys(ctx) // ["theme"]
//
// Tenant scopes hand out a Storage per tenant through tenancy.Scope.Redis.
//
// Healthcheck returns a readiness check for httpserver.HealthHandler.
// Errors are joined with the package sentinels (ErrRedisNotReady,
// ErrHealthcheckFailed, ErrEmptyNamespace) and match with errors.Is.
package redis
