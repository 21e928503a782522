package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/pg"
	"github.com/dmitrymomot/tenancy/pkg/tenancy"
)

func TestBaseConnection(t *testing.T) {
	t.Parallel()

	tcfg := tenancy.DefaultConfig()
	tcfg.MaxConnectionsPerTenant = 5
	conns, err := tenancy.NewConnections(tcfg, nil)
	require.NoError(t, err)

	tests := []struct {
		name      string
		central   int32
		perTenant int
	}{
		{"central pool larger than tenant cap", 25, 5},
		{"central pool below tenant cap", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			base := baseConnection(tcfg, pg.Config{
				ConnectionString: "postgres://app@127.0.0.1:5432/central",
				MaxOpenConns:     tt.central,
				MinConns:         1,
				MaxConnIdleTime:  time.Minute,
			})
			assert.Equal(t, tcfg.CentralConnection, base.Name)
			assert.Equal(t, int(tt.central), base.Pool.MaxConnections)

			derived, err := conns.DeriveTenantConnectionConfig(base, "acme")
			require.NoError(t, err)
			assert.Equal(t, tt.perTenant, derived.Pool.MaxConnections)
			assert.Equal(t, time.Minute, derived.Pool.MaxConnIdleTime)
			assert.Equal(t, int(tt.central), base.Pool.MaxConnections, "base pool left untouched")
		})
	}
}

func TestOpenMemory(t *testing.T) {
	t.Parallel()

	b, err := openMemory([]string{"acme", "globex"})
	require.NoError(t, err)
	assert.Nil(t, b.pools)
	assert.NotNil(t, b.store)
	assert.NotNil(t, b.domains)
	assert.NotNil(t, b.recorder)
	b.close()
}
