// Package pg connects to PostgreSQL with pgx/v5 and keeps one pool per
// tenant database.
//
// Connect opens the central pool from Config (env PG_*), retrying with a
// growing delay. Migrate applies goose migrations from an fs.FS, usually the
// embedded schema of pkg/tenantstore:
//
//	pool, err := pg.Connect(ctx, cfg)
//	err = pg.Migrate(ctx, pool, tenantstore.Migrations, tenantstore.MigrationsDir, cfg, log)
//
// TenantPools turns derived tenant connection configs into pools. The pool of
// a connection is opened once, even under concurrent requests. Get hands out a
// Lease; a pool that falls out of the LRU closes after its last lease is
// released:
//
//	pools := pg.NewTenantPools(cfg.TenantPoolCapacity, nil)
//	defer pools.Close()
//
//	conn, err := scope.ConnectionConfig(central) // database "tenant_<id>", capped pool
//	lease, err := pools.Get(ctx, conn)
//	defer lease.Release()
//
// Healthcheck adapts a pool to an httpserver readiness check.
package pg
