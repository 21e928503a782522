package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/logger"
)

func TestErrors(t *testing.T) {
	t.Parallel()
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestRequestAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		attr slog.Attr
		key  string
		val  string
	}{
		{logger.TenantID("tenant_123"), "tenant_id", "tenant_123"},
		{logger.RequestID("abc"), "request_id", "abc"},
		{logger.ClientIP("10.0.0.1"), "client_ip", "10.0.0.1"},
		{logger.Path("/api"), "path", "/api"},
		{logger.UserAgent("curl/8"), "user_agent", "curl/8"},
		{logger.Reason("inactive"), "reason", "inactive"},
		{logger.Component("pipeline"), "component", "pipeline"},
		{logger.Event("admitted"), "event", "admitted"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.key, tt.attr.Key)
			assert.Equal(t, tt.val, tt.attr.Value.String())
		})
	}

	assert.True(t, logger.TenantID("").Equal(slog.Attr{}))
	assert.Equal(t, time.Second, logger.Duration(time.Second).Value.Duration())
}
