// Package config loads the client configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendLRU    = "lru"
	BackendRedis  = "redis"
	// BackendTiered puts an LRU in front of Redis.
	BackendTiered = "tiered"
)

// Config holds all client configuration.
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort string `env:"HTTP_PORT" envDefault:":8080"`

	REST  RESTConfig
	Cache CacheConfig
	Redis RedisConfig
}

// RESTConfig describes the upstream API.
type RESTConfig struct {
	// RootURL is the HAL root document, e.g. https://demo.dspace.org/server/api.
	RootURL           string        `env:"DSPACE_REST_URL,required"`
	Token             string        `env:"DSPACE_TOKEN"`
	Timeout           time.Duration `env:"DSPACE_TIMEOUT" envDefault:"30s"`
	RequestsPerSecond float64       `env:"DSPACE_RATE_LIMIT" envDefault:"0"`
	Burst             int           `env:"DSPACE_RATE_BURST" envDefault:"10"`
}

// CacheConfig controls the response and object caches.
type CacheConfig struct {
	Backend        string        `env:"CACHE_BACKEND" envDefault:"memory"`
	TTL            time.Duration `env:"CACHE_TTL" envDefault:"15m"`
	StaleRetention time.Duration `env:"CACHE_STALE_RETENTION" envDefault:"5m"`
	LRUSize        int           `env:"CACHE_LRU_SIZE" envDefault:"10000"`
	SweepInterval  time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"1m"`
	EntryRetention time.Duration `env:"REQUEST_ENTRY_RETENTION" envDefault:"30m"`
}

// RedisConfig locates a shared Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendMemory, BackendLRU, BackendRedis, BackendTiered:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	if (c.Cache.Backend == BackendLRU || c.Cache.Backend == BackendTiered) && c.Cache.LRUSize <= 0 {
		return fmt.Errorf("CACHE_LRU_SIZE must be greater than 0, got %d", c.Cache.LRUSize)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	return nil
}
