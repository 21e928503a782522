package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/tenancy/pkg/logger"
)

// Check tests one dependency.
type Check func(context.Context) error

// HealthHandler reports liveness when checks is empty and readiness otherwise.
// Each check runs with timeout; any failure answers 503 with the failing
// check names in the JSON body.
func HealthHandler(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]any{"status": "alive"}

		if len(checks) > 0 {
			body["status"] = "ready"
			failed := map[string]string{}
			for name, check := range checks {
				ctx, cancel := context.WithTimeout(r.Context(), timeout)
				err := check(ctx)
				cancel()
				if err != nil {
					log.ErrorContext(r.Context(), "readiness check failed", slog.String("check", name), logger.Error(err))
					failed[name] = "unavailable"
				}
			}
			if len(failed) > 0 {
				status = http.StatusServiceUnavailable
				body["status"] = "not_ready"
				body["failed"] = failed
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
