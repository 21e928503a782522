package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenancy/pkg/redis"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStorage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("empty namespace", func(t *testing.T) {
		t.Parallel()
		_, client := newClient(t)
		_, err := redis.NewStorage(client, "")
		require.ErrorIs(t, err, redis.ErrEmptyNamespace)
	})

	t.Run("get set delete", func(t *testing.T) {
		t.Parallel()
		mr, client := newClient(t)
		s, err := redis.NewStorage(client, "tenant_acme:")
		require.NoError(t, err)

		val, err := s.Get(ctx, "theme")
		require.NoError(t, err)
		assert.Nil(t, val)

		require.NoError(t, s.Set(ctx, "theme", []byte("dark"), time.Minute))
		assert.True(t, mr.Exists("tenant_acme:theme"))
		assert.Equal(t, time.Minute, mr.TTL("tenant_acme:theme"))

		val, err = s.Get(ctx, "theme")
		require.NoError(t, err)
		assert.Equal(t, []byte("dark"), val)

		ok, err := s.Exists(ctx, "theme")
		require.NoError(t, err)
		assert.True(t, ok)

		require.NoError(t, s.Delete(ctx, "theme", ""))
		ok, err = s.Exists(ctx, "theme")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty keys and values are no-ops", func(t *testing.T) {
		t.Parallel()
		mr, client := newClient(t)
		s, err := redis.NewStorage(client, "ns:")
		require.NoError(t, err)

		require.NoError(t, s.Set(ctx, "", []byte("v"), 0))
		require.NoError(t, s.Set(ctx, "k", nil, 0))
		require.NoError(t, s.Delete(ctx))
		assert.Empty(t, mr.Keys())
	})

	t.Run("keys and reset stay inside the namespace", func(t *testing.T) {
		t.Parallel()
		mr, client := newClient(t)
		a, err := redis.NewStorageWithConfig(client, "tenant_a:", redis.Config{ScanBatchSize: 1})
		require.NoError(t, err)
		a1, err := redis.NewStorage(client, "tenant_a1:")
		require.NoError(t, err)

		require.NoError(t, a.Set(ctx, "x", []byte("1"), 0))
		require.NoError(t, a.Set(ctx, "y", []byte("2"), 0))
		require.NoError(t, a1.Set(ctx, "x", []byte("3"), 0))

		keys, err := a.Keys(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"x", "y"}, keys)

		require.NoError(t, a.Reset(ctx))
		assert.Equal(t, []string{"tenant_a1:x"}, mr.Keys())
	})
}

func TestConnect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("connects and passes healthcheck", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)
		client, err := redis.Connect(ctx, redis.Config{ConnectionURL: "redis://" + mr.Addr() + "/0", RetryAttempts: 1})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		require.NoError(t, redis.Healthcheck(client)(ctx))

		mr.Close()
		require.ErrorIs(t, redis.Healthcheck(client)(ctx), redis.ErrHealthcheckFailed)
	})

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(ctx, redis.Config{})
		require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(ctx, redis.Config{ConnectionURL: "mysql://nope"})
		require.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(ctx, redis.Config{
			ConnectionURL:  "redis://127.0.0.1:1/0",
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		})
		require.ErrorIs(t, err, redis.ErrRedisNotReady)
	})
}
