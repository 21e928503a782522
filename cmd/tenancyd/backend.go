package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenancy/pkg/config"
	"github.com/dmitrymomot/tenancy/pkg/httpserver"
	"github.com/dmitrymomot/tenancy/pkg/logger"
	"github.com/dmitrymomot/tenancy/pkg/mongo"
	"github.com/dmitrymomot/tenancy/pkg/pg"
	"github.com/dmitrymomot/tenancy/pkg/tenancy"
	"github.com/dmitrymomot/tenancy/pkg/tenantstore"
)

// backend is the tenant directory the service runs on, plus the per-tenant
// database pools when the directory lives in PostgreSQL.
type backend struct {
	store    tenancy.Store
	domains  tenancy.DomainStore
	recorder tenancy.AccessRecorder
	checks   map[string]httpserver.Check
	pools    *pg.TenantPools
	baseConn tenancy.ConnectionConfig
	closers  []func()
}

func (b *backend) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

func openBackend(ctx context.Context, app appConfig, tcfg tenancy.Config, log *slog.Logger) (*backend, error) {
	switch app.Store {
	case "postgres":
		return openPostgres(ctx, tcfg, log)
	case "mongo":
		return openMongo(ctx, log)
	case "memory":
		return openMemory(app.SeedTenants)
	default:
		return nil, fmt.Errorf("unknown tenant store %q", app.Store)
	}
}

func openPostgres(ctx context.Context, tcfg tenancy.Config, log *slog.Logger) (*backend, error) {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx, pool, tenantstore.Migrations, tenantstore.MigrationsDir, cfg, log); err != nil {
		pool.Close()
		return nil, err
	}

	store := tenantstore.NewPostgres(pool)
	pools := pg.NewTenantPools(cfg.TenantPoolCapacity, nil)
	return &backend{
		store:    store,
		domains:  store,
		recorder: store,
		checks:   map[string]httpserver.Check{"postgres": pg.Healthcheck(pool)},
		pools:    pools,
		baseConn: baseConnection(tcfg, cfg),
		closers: []func(){pool.Close, pools.Close},
	}, nil
}

// baseConnection describes the central database. Its pool carries the central
// size; tenant derivation caps it at the per-tenant limit.
func baseConnection(tcfg tenancy.Config, cfg pg.Config) tenancy.ConnectionConfig {
	return tenancy.ConnectionConfig{
		Name: tcfg.CentralConnection,
		DSN:  cfg.ConnectionString,
		Pool: &tenancy.PoolConfig{
			MaxConnections:  int(cfg.MaxOpenConns),
			MinConnections:  int(cfg.MinConns),
			MaxConnIdleTime: cfg.MaxConnIdleTime,
			MaxConnLifetime: cfg.MaxConnLifetime,
		},
	}
}

func openMongo(ctx context.Context, log *slog.Logger) (*backend, error) {
	var cfg mongo.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	db, err := mongo.NewWithDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	disconnect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Client().Disconnect(ctx); err != nil {
			log.Error("failed to disconnect mongodb", logger.Error(err))
		}
	}

	store := tenantstore.NewMongo(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		disconnect()
		return nil, err
	}
	return &backend{
		store:    store,
		domains:  store,
		recorder: store,
		checks:   map[string]httpserver.Check{"mongodb": mongo.Healthcheck(db.Client())},
		closers:  []func(){disconnect},
	}, nil
}

// openMemory seeds one active tenant per id, for local runs without a database.
func openMemory(ids []string) (*backend, error) {
	now := time.Now().UTC()
	seed := make([]*tenancy.Tenant, 0, len(ids))
	for _, id := range ids {
		seed = append(seed, &tenancy.Tenant{
			ID:        id,
			Status:    tenancy.StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	store, err := tenantstore.NewMemory(seed...)
	if err != nil {
		return nil, err
	}
	return &backend{store: store, domains: store, recorder: store}, nil
}
