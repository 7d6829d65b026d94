package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-remotedata/pkg/builder"
	"github.com/illmade-knight/go-remotedata/pkg/cache"
	"github.com/illmade-knight/go-remotedata/pkg/config"
	"github.com/illmade-knight/go-remotedata/pkg/data"
	"github.com/illmade-knight/go-remotedata/pkg/request"
	"github.com/illmade-knight/go-remotedata/pkg/rest"
	"github.com/illmade-knight/go-remotedata/pkg/search"
)

const (
	responsePrefix = "remotedata:response:"
	objectPrefix   = "remotedata:object:"
	uuidPrefix     = "remotedata:uuid:"
	// invalidationSuffix names the Pub/Sub channel of a prefix.
	invalidationSuffix = "invalidate"
)

// Stack is the fully wired client: caches, request service, builder and the
// domain services on top.
type Stack struct {
	Responses *cache.ResponseCache
	Objects   *cache.ObjectCache
	Requests  *request.Service
	Builder   *builder.Builder
	Services  *data.Services
	Search    *search.Service
	Janitor   *cache.Janitor
	Metrics   *cache.CounterMetrics

	redisClient   *redis.Client
	stopListening context.CancelFunc
}

// NewStack builds the client for cfg over transport. The redis and tiered
// backends connect to Redis before returning; the tiered backend also listens
// for invalidations from other processes until Close.
func NewStack(ctx context.Context, cfg *config.Config, transport rest.Transport, logger zerolog.Logger) (*Stack, error) {
	s, err := newStack(ctx, cfg, transport, logger)
	if err != nil {
		if closeErr := s.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("Failed to release partially built client.")
		}
		return nil, err
	}
	return s, nil
}

func newStack(ctx context.Context, cfg *config.Config, transport rest.Transport, logger zerolog.Logger) (*Stack, error) {
	s := &Stack{Metrics: &cache.CounterMetrics{}}
	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopListening = cancel

	if cfg.Cache.Backend == config.BackendRedis || cfg.Cache.Backend == config.BackendTiered {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			return s, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info().Str("redis_address", cfg.Redis.Addr).Msg("Successfully connected to Redis.")
	}

	responseStore, err := newStore[cache.ResponseEntry](listenCtx, cfg, s.redisClient, responsePrefix, s.Metrics, logger)
	if err != nil {
		return s, err
	}
	objectStore, err := newStore[cache.ObjectEntry](listenCtx, cfg, s.redisClient, objectPrefix, s.Metrics, logger)
	if err != nil {
		return s, err
	}
	uuidStore, err := newStore[string](listenCtx, cfg, s.redisClient, uuidPrefix, s.Metrics, logger)
	if err != nil {
		return s, err
	}

	opts := []cache.Option{cache.WithMetrics(s.Metrics), cache.WithStaleRetention(cfg.Cache.StaleRetention)}
	s.Responses = cache.NewResponseCache(responseStore, logger, opts...)
	s.Objects = cache.NewObjectCache(objectStore, uuidStore, logger, opts...)
	s.Requests = request.NewService(&request.Config{
		DefaultTTL:     cfg.Cache.TTL,
		EntryRetention: cfg.Cache.EntryRetention,
	}, transport, s.Responses, s.Objects, logger)
	s.Builder = builder.New(s.Requests, s.Responses, s.Objects, logger)
	s.Services = data.NewServices(cfg.REST.RootURL, s.Builder, logger)
	s.Search = search.NewService(s.Builder, s.Services, logger)
	if cfg.Cache.SweepInterval > 0 {
		s.Janitor = cache.NewJanitor(cfg.Cache.SweepInterval, logger, s.Responses, s.Objects, s.Requests)
	}
	return s, nil
}

// Ready reports whether Redis, if used, answers and the API root document
// can be loaded.
func (s *Stack) Ready(ctx context.Context) error {
	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
	}
	if _, err := s.Services.Endpoints.GetEndpointMap(ctx); err != nil {
		return fmt.Errorf("endpoint map unavailable: %w", err)
	}
	return nil
}

// Close stops the invalidation listeners and releases the caches and the Redis
// connection. It is safe on a partially built stack.
func (s *Stack) Close() error {
	if s.stopListening != nil {
		s.stopListening()
	}
	var errs []error
	if s.Responses != nil {
		errs = append(errs, s.Responses.Close())
	}
	if s.Objects != nil {
		errs = append(errs, s.Objects.Close())
	}
	if s.redisClient != nil {
		errs = append(errs, s.redisClient.Close())
	}
	return errors.Join(errs...)
}

func newStore[V any](
	ctx context.Context,
	cfg *config.Config,
	client *redis.Client,
	prefix string,
	metrics cache.Metrics,
	logger zerolog.Logger,
) (cache.Store[string, V], error) {
	redisTTL := cfg.Cache.TTL + cfg.Cache.StaleRetention
	switch cfg.Cache.Backend {
	case config.BackendMemory:
		return cache.NewInMemoryCache[string, V](), nil
	case config.BackendLRU:
		return cache.NewInMemoryLRUCache[string, V](cfg.Cache.LRUSize, metrics)
	case config.BackendRedis:
		return cache.NewRedisCacheFromClient[string, V](client, &cache.RedisConfig{CacheTTL: redisTTL, KeyPrefix: prefix}, logger), nil
	case config.BackendTiered:
		l1, err := cache.NewInMemoryLRUCache[string, V](cfg.Cache.LRUSize, metrics)
		if err != nil {
			return nil, err
		}
		l2 := cache.NewRedisCacheFromClient[string, V](client, &cache.RedisConfig{CacheTTL: redisTTL, KeyPrefix: prefix}, logger)
		bus := cache.NewRedisBroadcaster(client, prefix+invalidationSuffix, logger)
		tiered := cache.NewTiered[string, V](&cache.TieredConfig{L1TTL: time.Minute, Broadcaster: bus}, l1, l2, logger)
		if err := bus.Listen(ctx, tiered.DropLocal); err != nil {
			return nil, err
		}
		return tiered, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}
