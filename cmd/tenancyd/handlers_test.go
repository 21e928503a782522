package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/cache"
	"github.com/dmitrymomot/tenancy/pkg/logger"
	"github.com/dmitrymomot/tenancy/pkg/metrics"
	"github.com/dmitrymomot/tenancy/pkg/tenancy"
	"github.com/dmitrymomot/tenancy/pkg/tenantstore"
)

func newTestRouter(t *testing.T) (http.Handler, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	now := time.Now().UTC()
	store, err := tenantstore.NewMemory(&tenancy.Tenant{
		ID:        "acme",
		Status:    tenancy.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)

	collector, err := metrics.New(nil)
	require.NoError(t, err)

	mgr, err := tenancy.New(tenancy.DefaultConfig(), store, store,
		tenancy.WithLogger(logger.Discard()),
		tenancy.WithObserver(collector),
	)
	require.NoError(t, err)
	t.Cleanup(mgr.Close)

	api := &tenantAPI{
		manager: mgr,
		cache:   cache.NewRedis(rdb),
		redis:   rdb,
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	return newRouter(api, collector, ok, ok), mr
}

func do(t *testing.T, h http.Handler, method, target, tenantID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if tenantID != "" {
		req.Header.Set("X-Tenant-Id", tenantID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTenantAPI(t *testing.T) {
	t.Parallel()

	t.Run("current tenant and coordinates", func(t *testing.T) {
		t.Parallel()
		h, _ := newTestRouter(t)

		rec := do(t, h, http.MethodGet, "/api/tenant/", "acme", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp currentResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "acme", resp.Tenant.ID)
		assert.Equal(t, "tenant_acme", resp.Coordinates.Database)
		assert.Equal(t, "tenant_acme:", resp.Coordinates.KeyNamespace)
	})

	t.Run("settings round trip in tenant namespace", func(t *testing.T) {
		t.Parallel()
		h, mr := newTestRouter(t)

		rec := do(t, h, http.MethodPut, "/api/tenant/settings/theme", "acme", "dark")
		require.Equal(t, http.StatusNoContent, rec.Code)

		stored, err := mr.Get("tenant_acme:theme")
		require.NoError(t, err)
		assert.Equal(t, "dark", stored)

		rec = do(t, h, http.MethodGet, "/api/tenant/settings/theme", "acme", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "dark", rec.Body.String())

		rec = do(t, h, http.MethodGet, "/api/tenant/kv", "acme", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"theme"`)

		rec = do(t, h, http.MethodDelete, "/api/tenant/settings/theme", "acme", "")
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, h, http.MethodGet, "/api/tenant/settings/theme", "acme", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("setting ttl", func(t *testing.T) {
		t.Parallel()
		h, mr := newTestRouter(t)

		rec := do(t, h, http.MethodPut, "/api/tenant/settings/banner?ttl=10m", "acme", "hi")
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, 10*time.Minute, mr.TTL("tenant_acme:banner"))

		rec = do(t, h, http.MethodPut, "/api/tenant/settings/banner?ttl=soon", "acme", "hi")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects requests without tenant", func(t *testing.T) {
		t.Parallel()
		h, _ := newTestRouter(t)

		rec := do(t, h, http.MethodGet, "/api/tenant/", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = do(t, h, http.MethodGet, "/api/tenant/", "unknown", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("tenant databases not configured", func(t *testing.T) {
		t.Parallel()
		h, _ := newTestRouter(t)

		rec := do(t, h, http.MethodGet, "/api/tenant/db", "acme", "")
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})

	t.Run("health and metrics skip the pipeline", func(t *testing.T) {
		t.Parallel()
		h, _ := newTestRouter(t)

		for _, path := range []string{"/health", "/ready"} {
			rec := do(t, h, http.MethodGet, path, "", "")
			assert.Equal(t, http.StatusOK, rec.Code, path)
		}

		do(t, h, http.MethodGet, "/api/tenant/", "acme", "")
		rec := do(t, h, http.MethodGet, "/metrics", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "tenancy_requests_admitted_total 1")
	})
}
