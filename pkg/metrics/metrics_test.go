package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/metrics"
	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

var _ tenancy.Observer = (*metrics.Collector)(nil)

func TestCollector(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	c, err := metrics.New(reg)
	require.NoError(t, err)

	c.TenantAdmitted("acme")
	c.TenantAdmitted("globex")
	c.RequestRejected("tenant_inactive")
	c.RequestRejected("rate_limit_exceeded")
	c.RequestRejected("rate_limit_exceeded")
	c.RateLimitUnavailable()

	expected := `
# HELP tenancy_requests_rejected_total Requests rejected by the tenant pipeline, by reason.
# TYPE tenancy_requests_rejected_total counter
tenancy_requests_rejected_total{reason="rate_limit_exceeded"} 2
tenancy_requests_rejected_total{reason="tenant_inactive"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tenancy_requests_rejected_total"))
	count, err := testutil.GatherAndCount(reg, "tenancy_requests_admitted_total", "tenancy_requests_rejected_total")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = metrics.New(reg)
	assert.Error(t, err, "double registration")
}

func TestCollector_HandlerAndMiddleware(t *testing.T) {
	t.Parallel()
	c, err := metrics.New(nil)
	require.NoError(t, err)

	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	c.TenantAdmitted("acme")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), "tenancy_requests_admitted_total 1")
	assert.Contains(t, string(body), `tenancy_http_request_duration_seconds_count{code="403"} 1`)
}
