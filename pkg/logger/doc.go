// Package logger builds slog loggers with per-environment presets and
// attributes pulled from the request context.
//
// New takes functional options; FromConfig reads the same settings from a
// Config loaded from the environment (LOG_LEVEL, LOG_FORMAT, APP_ENV,
// SERVICE_NAME). Context extractors run for every record, so a logger built
// once at startup still tags each line with the request id, client IP and
// bound tenant of the request being served:
//
//	log := logger.New(
//		logger.WithEnvironment("production", "tenancyd"),
//		logger.WithContextExtractors(
//			requestid.LoggerExtractor(),
//			clientip.LoggerExtractor(),
//			tenancy.LoggerExtractor(),
//		),
//	)
//	log.WarnContext(ctx, "tenant rejected", logger.Reason("inactive"), logger.Path(r.URL.Path))
//
// Attribute helpers (TenantID, ClientIP, Path, UserAgent, Error, ...) keep
// key names consistent. Error and TenantID return an empty Attr for empty
// input, which slog drops.
package logger
