package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illmade-knight/go-remotedata/pkg/cache"
)

func newRedisClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type redisTestValue struct {
	ID   string
	Data []byte
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client := newRedisClient(t, mr)
	cfg := &cache.RedisConfig{
		CacheTTL:  time.Minute,
		KeyPrefix: "test:",
	}
	c := cache.NewRedisCacheFromClient[string, redisTestValue](client, cfg, zerolog.Nop())

	t.Run("Set and Get", func(t *testing.T) {
		// Arrange
		value := redisTestValue{ID: "test-id", Data: []byte("hello world")}

		// Act
		require.NoError(t, c.Write(ctx, "key-1", value, 0))
		retrieved, err := c.Fetch(ctx, "key-1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, value, retrieved)
		assert.True(t, mr.Exists("test:key-1"))
	})

	t.Run("Get Miss", func(t *testing.T) {
		// Act
		_, err := c.Fetch(ctx, "non-existent-key")

		// Assert
		assert.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("Default and explicit TTL", func(t *testing.T) {
		// Act
		require.NoError(t, c.Write(ctx, "default-ttl", redisTestValue{ID: "a"}, 0))
		require.NoError(t, c.Write(ctx, "short-ttl", redisTestValue{ID: "b"}, 5*time.Second))

		// Assert
		assert.Equal(t, time.Minute, mr.TTL("test:default-ttl"))
		assert.Equal(t, 5*time.Second, mr.TTL("test:short-ttl"))

		mr.FastForward(10 * time.Second)
		_, err := c.Fetch(ctx, "short-ttl")
		assert.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("Invalidate", func(t *testing.T) {
		// Arrange
		require.NoError(t, c.Write(ctx, "to-delete", redisTestValue{ID: "x"}, 0))

		// Act
		require.NoError(t, c.Invalidate(ctx, "to-delete"))

		// Assert
		_, err := c.Fetch(ctx, "to-delete")
		assert.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("Corrupt value", func(t *testing.T) {
		// Arrange
		require.NoError(t, mr.Set("test:corrupt", "{not json"))

		// Act
		_, err := c.Fetch(ctx, "corrupt")

		// Assert
		require.Error(t, err)
		assert.NotErrorIs(t, err, cache.ErrNotFound)
	})
}

func TestRedisCache_SharedClient(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := newRedisClient(t, mr)

	a := cache.NewRedisCacheFromClient[string, string](client, &cache.RedisConfig{KeyPrefix: "a:"}, zerolog.Nop())
	b := cache.NewRedisCacheFromClient[string, string](client, &cache.RedisConfig{KeyPrefix: "b:"}, zerolog.Nop())

	// Act
	require.NoError(t, a.Write(ctx, "key", "from-a", time.Minute))
	require.NoError(t, a.Close())

	// Assert: prefixes keep the caches apart and Close left the client usable.
	_, err := b.Fetch(ctx, "key")
	assert.ErrorIs(t, err, cache.ErrNotFound)
	v, err := a.Fetch(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "from-a", v)
}

func TestRedisCache_NoDefaultTTL(t *testing.T) {
	// Arrange
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := cache.NewRedisCacheFromClient[string, string](newRedisClient(t, mr), &cache.RedisConfig{KeyPrefix: "p:"}, zerolog.Nop())

	// Act
	require.NoError(t, c.Write(ctx, "forever", "v", 0))
	mr.FastForward(24 * time.Hour)
	v, err := c.Fetch(ctx, "forever")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	assert.Zero(t, mr.TTL("p:forever"))
}

func TestRedisCache_Unreachable(t *testing.T) {
	// Arrange
	mr := miniredis.RunT(t)
	client := newRedisClient(t, mr)
	c := cache.NewRedisCacheFromClient[string, string](client, &cache.RedisConfig{}, zerolog.Nop())
	mr.Close()

	// Act
	_, err := c.Fetch(context.Background(), "key")

	// Assert
	require.Error(t, err)
	assert.NotErrorIs(t, err, cache.ErrNotFound)
	assert.Contains(t, err.Error(), "redis get failed")
}
