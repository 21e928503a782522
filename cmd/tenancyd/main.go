// Command tenancyd serves tenant-scoped HTTP APIs behind the tenancy pipeline.
//
// Configuration comes from the environment (and an optional .env file); see
// tenancy.Config, redis.Config, pg.Config, mongo.Config and httpserver.Config.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/tenancy/pkg/cache"
	"github.com/dmitrymomot/tenancy/pkg/clientip"
	"github.com/dmitrymomot/tenancy/pkg/config"
	"github.com/dmitrymomot/tenancy/pkg/httpserver"
	"github.com/dmitrymomot/tenancy/pkg/logger"
	"github.com/dmitrymomot/tenancy/pkg/metrics"
	"github.com/dmitrymomot/tenancy/pkg/ratelimiter"
	"github.com/dmitrymomot/tenancy/pkg/redis"
	"github.com/dmitrymomot/tenancy/pkg/requestid"
	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

type appConfig struct {
	Store         string        `env:"TENANT_STORE" envDefault:"postgres"` // postgres, mongo or memory
	SeedTenants   []string      `env:"TENANT_SEED" envSeparator:","`       // memory store only
	HealthTimeout time.Duration `env:"HEALTH_TIMEOUT" envDefault:"3s"`
	L1CacheBytes  int64         `env:"L1_CACHE_BYTES" envDefault:"67108864"`
	L1CacheTTL    time.Duration `env:"L1_CACHE_TTL" envDefault:"1m"`
}

func main() {
	if err := config.LoadEnv(); err != nil {
		slog.Warn("failed to load .env file", logger.Error(err))
	}
	if err := run(context.Background()); err != nil {
		slog.Error("tenancyd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		appCfg     appConfig
		logCfg     logger.Config
		tenancyCfg tenancy.Config
		redisCfg   redis.Config
		serverCfg  httpserver.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&appCfg) },
		func() error { return config.Load(&logCfg) },
		func() error { return config.Load(&tenancyCfg) },
		func() error { return config.Load(&redisCfg) },
		func() error { return config.Load(&serverCfg) },
	} {
		if err := load(); err != nil {
			return err
		}
	}

	log, err := logger.FromConfig(logCfg, logger.WithContextExtractors(
		requestid.LoggerExtractor(),
		clientip.LoggerExtractor(),
		tenancy.LoggerExtractorKey(tenancyCfg.ContextKey),
	))
	if err != nil {
		return err
	}
	logger.SetAsDefault(log)

	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}

	backend, err := openBackend(ctx, appCfg, tenancyCfg, log)
	if err != nil {
		_ = rdb.Close()
		return err
	}

	collector, err := metrics.New(nil)
	if err != nil {
		backend.close()
		_ = rdb.Close()
		return err
	}

	mgr, err := tenancy.New(tenancyCfg, backend.store, backend.domains,
		tenancy.WithLogger(log.With(logger.Component("tenancy"))),
		tenancy.WithRateLimitStore(ratelimiter.NewRedisStore(rdb)),
		tenancy.WithObserver(collector),
		tenancy.WithAccessRecorder(backend.recorder),
	)
	if err != nil {
		backend.close()
		_ = rdb.Close()
		return err
	}

	l1, err := cache.NewRistretto(appCfg.L1CacheBytes)
	if err != nil {
		mgr.Close()
		backend.close()
		_ = rdb.Close()
		return err
	}
	shared := cache.NewTiered(l1, cache.NewRedis(rdb), appCfg.L1CacheTTL)

	checks := map[string]httpserver.Check{"redis": redis.Healthcheck(rdb)}
	for name, check := range backend.checks {
		checks[name] = check
	}

	api := &tenantAPI{
		manager:  mgr,
		cache:    shared,
		redis:    rdb,
		pools:    backend.pools,
		baseConn: backend.baseConn,
		debug:    tenancyCfg.Debug,
	}

	r := newRouter(api, collector,
		httpserver.HealthHandler(log, appCfg.HealthTimeout, nil),
		httpserver.HealthHandler(log, appCfg.HealthTimeout, checks),
	)

	server := httpserver.NewFromConfig(serverCfg,
		httpserver.WithLogger(log.With(logger.Component("http"))),
		httpserver.WithStopHook(func(log *slog.Logger) {
			mgr.Close()
			l1.Close()
			backend.close()
			if err := rdb.Close(); err != nil {
				log.Error("failed to close redis client", logger.Error(err))
			}
		}),
	)

	log.Info("tenancyd starting",
		slog.String("addr", serverCfg.Addr),
		slog.String("store", appCfg.Store),
	)
	return server.Run(ctx, r)
}

func newRouter(api *tenantAPI, collector *metrics.Collector, health, ready http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.Middleware,
		collector.Middleware,
		middleware.Recoverer,
	)
	r.Handle("/health", health)
	r.Handle("/ready", ready)
	r.Handle("/metrics", collector.Handler())
	r.Route("/api/tenant", func(r chi.Router) {
		r.Use(api.manager.Middleware, api.manager.RequireTenant)
		r.Get("/", api.current)
		r.Get("/settings/{key}", api.getSetting)
		r.Put("/settings/{key}", api.putSetting)
		r.Delete("/settings/{key}", api.deleteSetting)
		r.Get("/kv", api.listKeys)
		r.Get("/db", api.pingDatabase)
	})
	return r
}
