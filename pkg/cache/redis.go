package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the settings of one Redis-backed cache. Several caches can
// share a client by using different prefixes.
type RedisConfig struct {
	// CacheTTL applies to writes that carry no TTL of their own.
	CacheTTL time.Duration
	// KeyPrefix namespaces the keys of one cache, e.g. "remotedata:response:".
	KeyPrefix string
}

// RedisCache is a generic Store backed by Redis. Values are stored as JSON and
// expire through Redis key TTLs, so several processes can share one cache.
type RedisCache[K comparable, V any] struct {
	redisClient *redis.Client
	logger      zerolog.Logger
	ttl         time.Duration
	prefix      string
}

// NewRedisCacheFromClient wraps an existing, connected client. The client is
// owned by the caller and is not closed by Close.
func NewRedisCacheFromClient[K comparable, V any](
	client *redis.Client,
	cfg *RedisConfig,
	logger zerolog.Logger,
) *RedisCache[K, V] {
	return &RedisCache[K, V]{
		redisClient: client,
		logger:      logger.With().Str("component", "RedisCache").Str("prefix", cfg.KeyPrefix).Logger(),
		ttl:         cfg.CacheTTL,
		prefix:      cfg.KeyPrefix,
	}
}

func (c *RedisCache[K, V]) key(key K) string {
	return c.prefix + fmt.Sprintf("%v", key)
}

// Fetch retrieves an item by key. A redis.Nil reply is reported as ErrNotFound.
func (c *RedisCache[K, V]) Fetch(ctx context.Context, key K) (V, error) {
	var zero V
	stringKey := c.key(key)
	cachedData, err := c.redisClient.Get(ctx, stringKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, fmt.Errorf("key '%s': %w", stringKey, ErrNotFound)
		}
		c.logger.Error().Err(err).Str("key", stringKey).Msg("Unexpected Redis error during fetch.")
		return zero, fmt.Errorf("redis get failed for key %s: %w", stringKey, err)
	}

	var value V
	if err := json.Unmarshal([]byte(cachedData), &value); err != nil {
		c.logger.Error().Err(err).Str("key", stringKey).Msg("Failed to unmarshal cached data.")
		return zero, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	c.logger.Debug().Str("key", stringKey).Msg("Redis cache hit.")
	return value, nil
}

// Write sets a value in Redis. A ttl of 0 falls back to the configured CacheTTL,
// and with no CacheTTL either the key does not expire.
func (c *RedisCache[K, V]) Write(ctx context.Context, key K, value V, ttl time.Duration) error {
	stringKey := c.key(key)
	jsonData, err := json.Marshal(value)
	if err != nil {
		c.logger.Error().Err(err).Str("key", stringKey).Msg("Failed to marshal data for caching.")
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	if err := c.redisClient.Set(ctx, stringKey, jsonData, ttl).Err(); err != nil {
		c.logger.Error().Err(err).Str("key", stringKey).Msg("Failed to set data in Redis cache.")
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	c.logger.Debug().Str("key", stringKey).Msg("Successfully stored data in Redis cache.")
	return nil
}

// Invalidate removes a key from Redis.
func (c *RedisCache[K, V]) Invalidate(ctx context.Context, key K) error {
	stringKey := c.key(key)
	if err := c.redisClient.Del(ctx, stringKey).Err(); err != nil {
		return fmt.Errorf("redis del failed for key %s: %w", stringKey, err)
	}
	return nil
}

// Close is a no-op: the client belongs to the caller.
func (c *RedisCache[K, V]) Close() error {
	return nil
}
