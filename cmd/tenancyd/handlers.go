package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/tenancy/pkg/cache"
	"github.com/dmitrymomot/tenancy/pkg/logger"
	"github.com/dmitrymomot/tenancy/pkg/pg"
	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

const maxSettingSize = 64 << 10

// tenantAPI serves the resources of the tenant bound by the pipeline.
type tenantAPI struct {
	manager  *tenancy.Manager
	cache    cache.Cache
	redis    goredis.UniversalClient
	pools    *pg.TenantPools
	baseConn tenancy.ConnectionConfig
	debug    bool
}

type currentResponse struct {
	Tenant      *tenancy.Tenant     `json:"tenant"`
	Coordinates tenancy.Coordinates `json:"coordinates"`
}

func (a *tenantAPI) scope(w http.ResponseWriter, r *http.Request) (*tenancy.Scope, bool) {
	scope, ok := a.manager.ScopeFromContext(r.Context())
	if !ok {
		tenancy.WriteError(w, tenancy.ErrNoScope, a.debug)
		return nil, false
	}
	return scope, true
}

func (a *tenantAPI) current(w http.ResponseWriter, r *http.Request) {
	scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	coords, err := scope.Coordinates()
	if err != nil {
		tenancy.WriteError(w, err, a.debug)
		return
	}
	writeJSON(w, http.StatusOK, currentResponse{Tenant: scope.Current(), Coordinates: coords})
}

func (a *tenantAPI) getSetting(w http.ResponseWriter, r *http.Request) {
	c, ok := a.settings(w, r)
	if !ok {
		return
	}
	val, found, err := c.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		a.internalError(w, r, "failed to read setting", err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "setting not found"})
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(val)
}

// putSetting stores the request body. An optional ttl query parameter
// ("10m", "24h") sets the expiry.
func (a *tenantAPI) putSetting(w http.ResponseWriter, r *http.Request) {
	c, ok := a.settings(w, r)
	if !ok {
		return
	}

	var ttl time.Duration
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid ttl"})
			return
		}
		ttl = d
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSettingSize))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "setting too large"})
		return
	}
	if err := c.Set(r.Context(), chi.URLParam(r, "key"), body, ttl); err != nil {
		a.internalError(w, r, "failed to store setting", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *tenantAPI) deleteSetting(w http.ResponseWriter, r *http.Request) {
	c, ok := a.settings(w, r)
	if !ok {
		return
	}
	if err := c.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		a.internalError(w, r, "failed to delete setting", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listKeys lists the keys the tenant holds in Redis, settings included.
func (a *tenantAPI) listKeys(w http.ResponseWriter, r *http.Request) {
	scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	storage, err := scope.Redis(a.redis)
	if err != nil {
		tenancy.WriteError(w, err, a.debug)
		return
	}
	keys, err := storage.Keys(r.Context())
	if err != nil {
		a.internalError(w, r, "failed to list keys", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"namespace": storage.Namespace(),
		"keys":      keys,
	})
}

// pingDatabase opens (or reuses) the tenant's own pool and pings it.
func (a *tenantAPI) pingDatabase(w http.ResponseWriter, r *http.Request) {
	if a.pools == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "tenant databases are not configured"})
		return
	}
	scope, ok := a.scope(w, r)
	if !ok {
		return
	}
	conn, err := scope.ConnectionConfig(a.baseConn)
	if err != nil {
		tenancy.WriteError(w, err, a.debug)
		return
	}

	lease, err := a.pools.Get(r.Context(), conn)
	if err == nil {
		err = lease.Ping(r.Context())
		lease.Release()
	}
	if err != nil {
		slog.WarnContext(r.Context(), "tenant database unavailable",
			slog.String("connection", conn.Name), logger.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"connection": conn.Name,
			"status":     "unavailable",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"connection": conn.Name,
		"database":   conn.Database,
		"status":     "ok",
	})
}

func (a *tenantAPI) settings(w http.ResponseWriter, r *http.Request) (cache.Cache, bool) {
	scope, ok := a.scope(w, r)
	if !ok {
		return nil, false
	}
	c, err := scope.Cache(a.cache)
	if err != nil {
		tenancy.WriteError(w, err, a.debug)
		return nil, false
	}
	return c, true
}

func (a *tenantAPI) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, logger.Error(err))
	body := map[string]string{"error": "internal error"}
	if a.debug {
		body["detail"] = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
