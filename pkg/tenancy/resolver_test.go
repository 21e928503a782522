package tenancy_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

type mockDomainStore struct {
	mock.Mock
}

func (m *mockDomainStore) TenantIDByHost(ctx context.Context, host string) (string, error) {
	args := m.Called(ctx, host)
	return args.String(0), args.Error(1)
}

func TestRequestResolver_Resolve(t *testing.T) {
	t.Parallel()

	newRequest := func(target, host, header string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, target, nil)
		r.Host = host
		if header != "" {
			r.Header.Set(tenancy.DefaultTenantHeader, header)
		}
		return r
	}

	t.Run("header wins over query and host", func(t *testing.T) {
		t.Parallel()
		domains := &mockDomainStore{}
		rr := tenancy.NewRequestResolver(tenancy.DefaultConfig(), domains, nil)

		id, err := rr.Resolve(newRequest("/?tenant=globex", "acme.example.com", "initech"))
		require.NoError(t, err)
		assert.Equal(t, "initech", id)
		domains.AssertNotCalled(t, "TenantIDByHost", mock.Anything, mock.Anything)
	})

	t.Run("query when header absent", func(t *testing.T) {
		t.Parallel()
		rr := tenancy.NewRequestResolver(tenancy.DefaultConfig(), nil, nil)
		id, err := rr.Resolve(newRequest("/?tenant=globex", "acme.example.com", ""))
		require.NoError(t, err)
		assert.Equal(t, "globex", id)
	})

	t.Run("host lookup strips port and lowercases", func(t *testing.T) {
		t.Parallel()
		domains := &mockDomainStore{}
		domains.On("TenantIDByHost", mock.Anything, "acme.example.com").Return("acme", nil).Once()

		cfg := tenancy.DefaultConfig()
		cfg.AllowedDomains = []string{"*.example.com"}
		rr := tenancy.NewRequestResolver(cfg, domains, nil)

		id, err := rr.Resolve(newRequest("/", "ACME.example.com:8080", ""))
		require.NoError(t, err)
		assert.Equal(t, "acme", id)
		domains.AssertExpectations(t)
	})

	t.Run("host outside allow-list", func(t *testing.T) {
		t.Parallel()
		domains := &mockDomainStore{}
		cfg := tenancy.DefaultConfig()
		cfg.AllowedDomains = []string{"*.example.com"}
		rr := tenancy.NewRequestResolver(cfg, domains, nil)

		_, err := rr.Resolve(newRequest("/", "evil.org", ""))
		assert.ErrorIs(t, err, tenancy.ErrInvalidHost)
		domains.AssertNotCalled(t, "TenantIDByHost", mock.Anything, mock.Anything)
	})

	t.Run("malformed host", func(t *testing.T) {
		t.Parallel()
		rr := tenancy.NewRequestResolver(tenancy.DefaultConfig(), nil, nil)
		_, err := rr.Resolve(newRequest("/", "bad host", ""))
		assert.ErrorIs(t, err, tenancy.ErrInvalidHost)
	})

	t.Run("unmapped host", func(t *testing.T) {
		t.Parallel()
		domains := &mockDomainStore{}
		domains.On("TenantIDByHost", mock.Anything, "unknown.example.com").Return("", nil)
		rr := tenancy.NewRequestResolver(tenancy.DefaultConfig(), domains, nil)

		_, err := rr.Resolve(newRequest("/", "unknown.example.com", ""))
		assert.ErrorIs(t, err, tenancy.ErrMissingTenantID)
	})

	t.Run("no domain store", func(t *testing.T) {
		t.Parallel()
		rr := tenancy.NewRequestResolver(tenancy.DefaultConfig(), nil, nil)
		_, err := rr.Resolve(newRequest("/", "acme.example.com", ""))
		assert.ErrorIs(t, err, tenancy.ErrMissingTenantID)
	})

	t.Run("domain store failure", func(t *testing.T) {
		t.Parallel()
		domains := &mockDomainStore{}
		domains.On("TenantIDByHost", mock.Anything, mock.Anything).Return("", errors.New("timeout"))
		rr := tenancy.NewRequestResolver(tenancy.DefaultConfig(), domains, nil)

		_, err := rr.Resolve(newRequest("/", "acme.example.com", ""))
		assert.ErrorIs(t, err, tenancy.ErrTenantLookupFailed)
	})

	t.Run("mapped id is validated", func(t *testing.T) {
		t.Parallel()
		domains := &mockDomainStore{}
		domains.On("TenantIDByHost", mock.Anything, mock.Anything).Return("acme;drop", nil)
		rr := tenancy.NewRequestResolver(tenancy.DefaultConfig(), domains, nil)

		_, err := rr.Resolve(newRequest("/", "acme.example.com", ""))
		assert.ErrorIs(t, err, tenancy.ErrInvalidTenantID)
	})

	t.Run("explicit id is validated", func(t *testing.T) {
		t.Parallel()
		rr := tenancy.NewRequestResolver(tenancy.DefaultConfig(), nil, nil)
		_, err := rr.Resolve(newRequest("/", "acme.example.com", "1'; DROP TABLE tenants;--"))
		assert.ErrorIs(t, err, tenancy.ErrInvalidTenantID)
	})
}
