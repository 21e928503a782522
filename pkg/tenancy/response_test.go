package tenancy_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

func TestStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
		kind string
	}{
		{tenancy.ErrRateLimitExceeded, http.StatusTooManyRequests, "rate_limit_exceeded"},
		{tenancy.ErrMissingTenantID, http.StatusBadRequest, "missing_tenant_id"},
		{tenancy.ErrInvalidTenantID, http.StatusForbidden, "invalid_tenant_id"},
		{tenancy.ErrInvalidHost, http.StatusForbidden, "invalid_host"},
		{tenancy.ErrTenantNotFound, http.StatusForbidden, "tenant_not_found"},
		{tenancy.ErrTenantInactive, http.StatusForbidden, "tenant_inactive"},
		{tenancy.ErrIPNotAllowed, http.StatusForbidden, "ip_not_allowed"},
		{tenancy.ErrTenantLookupFailed, http.StatusForbidden, "tenant_lookup_failed"},
		{fmt.Errorf("wrapped: %w", tenancy.ErrRateLimitExceeded), http.StatusTooManyRequests, "rate_limit_exceeded"},
		{errors.New("nil pointer"), http.StatusForbidden, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tenancy.StatusCode(tt.err))
			assert.Equal(t, tt.kind, tenancy.ErrorKind(tt.err))
		})
	}
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	write := func(err error, debug bool) (int, tenancy.ErrorResponse) {
		rec := httptest.NewRecorder()
		tenancy.WriteError(rec, err, debug)
		var body tenancy.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		return rec.Code, body
	}

	inactive := fmt.Errorf("%w: acme", tenancy.ErrTenantInactive)

	code, body := write(inactive, false)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, tenancy.ErrorResponse{Code: 403, Message: "Access denied"}, body)

	_, body = write(inactive, true)
	assert.Equal(t, inactive.Error(), body.Message)

	code, body = write(tenancy.ErrRateLimitExceeded, false)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "Too many requests", body.Message)

	code, body = write(tenancy.ErrMissingTenantID, false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Bad request", body.Message)

	_, body = write(errors.New("dial tcp 10.0.0.5:5432: refused"), true)
	assert.Equal(t, "Access denied", body.Message, "unknown errors stay generic in debug mode")
}
