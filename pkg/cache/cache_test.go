package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/cache"
)

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func newRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestNamespaced(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := newMemCache()

	acme := cache.WithNamespace(backend, "tenant_acme:")
	globex := cache.WithNamespace(backend, "tenant_globex:")

	require.NoError(t, acme.Set(ctx, "settings", []byte("a"), 0))
	require.NoError(t, globex.Set(ctx, "settings", []byte("g"), 0))

	assert.Equal(t, []byte("a"), backend.data["tenant_acme:settings"])
	assert.Equal(t, []byte("g"), backend.data["tenant_globex:settings"])

	val, ok, err := acme.Get(ctx, "settings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), val)

	require.NoError(t, acme.Delete(ctx, "settings"))
	_, ok, _ = acme.Get(ctx, "settings")
	assert.False(t, ok)
	_, ok, _ = globex.Get(ctx, "settings")
	assert.True(t, ok)
}

func TestRedis(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, client := newRedisClient(t)
	c := cache.NewRedis(client)

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRistretto(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, err := cache.NewRistretto(1 << 20)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	c.Wait()

	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestTiered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("backfills l1 on l2 hit", func(t *testing.T) {
		t.Parallel()
		l1, l2 := newMemCache(), newMemCache()
		c := cache.NewTiered(l1, l2, time.Minute)
		l2.data["k"] = []byte("v")

		val, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v"), val)
		assert.Equal(t, []byte("v"), l1.data["k"])
	})

	t.Run("writes and deletes both levels", func(t *testing.T) {
		t.Parallel()
		l1, l2 := newMemCache(), newMemCache()
		c := cache.NewTiered(l1, l2, time.Minute)

		require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
		assert.Contains(t, l1.data, "k")
		assert.Contains(t, l2.data, "k")

		require.NoError(t, c.Delete(ctx, "k"))
		assert.NotContains(t, l1.data, "k")
		assert.NotContains(t, l2.data, "k")
	})
}
