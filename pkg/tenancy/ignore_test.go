package tenancy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

func TestPathMatcher(t *testing.T) {
	t.Parallel()

	m, err := tenancy.NewPathMatcher([]string{
		"/health",
		"/public/*",
		"/api/v?/status",
		`/^\/auth\/(login|logout)$/`,
		`/^\/v[0-9]{1,2}\/docs$/`,
		"/files/[!.]*",
		"  ",
	})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/healthz", false},
		{"/public/css/app.css", true},
		{"/public", false},
		{"/api/v1/status", true},
		{"/api/v10/status", false},
		{"/auth/login", true},
		{"/auth/register", false},
		{"/tenants", false},
		{"/v2/docs", true},
		{"/v123/docs", false},
		{"/files/report.pdf", true},
		{"/files/.env", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, m.Match(tt.path))
		})
	}

	t.Run("nil matcher matches nothing", func(t *testing.T) {
		t.Parallel()
		var m *tenancy.PathMatcher
		assert.False(t, m.Match("/health"))
	})

	t.Run("invalid regex", func(t *testing.T) {
		t.Parallel()
		_, err := tenancy.NewPathMatcher([]string{"/(unclosed/"})
		assert.ErrorIs(t, err, tenancy.ErrConfiguration)
	})
}
