package requestid

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/tenancy/pkg/logger"
)

// LoggerExtractor returns a logger context extractor adding request_id.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := FromContext(ctx); id != "" {
			return logger.RequestID(id), true
		}
		return slog.Attr{}, false
	}
}
