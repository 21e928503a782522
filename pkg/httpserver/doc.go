// Package httpserver runs an http.Handler with graceful shutdown.
//
// Run binds the listener, serves until the context is cancelled or the
// process receives SIGINT/SIGTERM, then drains in-flight requests within the
// shutdown timeout and runs stop hooks (closing pools, flushing metrics):
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithStopHook(func(*slog.Logger) { pools.Close() }),
//	)
//	err := srv.Run(ctx, router)
//
// HealthHandler serves liveness (no checks) and readiness results as JSON.
// Readiness runs named checks such as the Redis ping and the tenant store.
//
// Errors are joined with ErrStart or ErrShutdown for errors.Is.
package httpserver
