package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// TieredConfig holds configuration for a two-level store.
type TieredConfig struct {
	// L1TTL bounds how long an item back-filled from L2 stays in L1.
	L1TTL time.Duration
	// Broadcaster, if set, announces invalidations to the other processes
	// sharing L2 so they drop their L1 copies.
	Broadcaster Broadcaster
}

// Broadcaster publishes invalidated keys to every process sharing a store.
type Broadcaster interface {
	Publish(ctx context.Context, key string) error
}

// Tiered is a Store that reads L1 first and falls back to L2, back-filling L1
// on an L2 hit. Writes and invalidations go to both levels.
type Tiered[K comparable, V any] struct {
	l1     Store[K, V]
	l2     Store[K, V]
	l1TTL  time.Duration
	bus    Broadcaster
	logger zerolog.Logger
}

// NewTiered creates a tiered store, typically an in-memory LRU in front of Redis.
func NewTiered[K comparable, V any](cfg *TieredConfig, l1, l2 Store[K, V], logger zerolog.Logger) *Tiered[K, V] {
	return &Tiered[K, V]{
		l1:     l1,
		l2:     l2,
		l1TTL:  cfg.L1TTL,
		bus:    cfg.Broadcaster,
		logger: logger.With().Str("component", "TieredStore").Logger(),
	}
}

// Fetch tries L1, then L2.
func (t *Tiered[K, V]) Fetch(ctx context.Context, key K) (V, error) {
	var zero V
	value, err := t.l1.Fetch(ctx, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrNotFound) {
		t.logger.Warn().Err(err).Msg("L1 fetch failed, falling back to L2.")
	}

	value, err = t.l2.Fetch(ctx, key)
	if err != nil {
		return zero, err
	}
	if writeErr := t.l1.Write(ctx, key, value, t.l1TTL); writeErr != nil {
		t.logger.Error().Err(writeErr).Msg("Failed to back-fill L1.")
	}
	return value, nil
}

// Write stores the value in L2 first so that L1 never holds a value L2 rejected.
func (t *Tiered[K, V]) Write(ctx context.Context, key K, value V, ttl time.Duration) error {
	if err := t.l2.Write(ctx, key, value, ttl); err != nil {
		return fmt.Errorf("error writing to L2: %w", err)
	}
	l1TTL := ttl
	if t.l1TTL > 0 && (l1TTL <= 0 || t.l1TTL < l1TTL) {
		l1TTL = t.l1TTL
	}
	return t.l1.Write(ctx, key, value, l1TTL)
}

// Invalidate removes the key from both levels and, with a Broadcaster, from
// the L1 of every other process.
func (t *Tiered[K, V]) Invalidate(ctx context.Context, key K) error {
	err := errors.Join(t.l1.Invalidate(ctx, key), t.l2.Invalidate(ctx, key))
	if t.bus != nil {
		err = errors.Join(err, t.bus.Publish(ctx, fmt.Sprintf("%v", key)))
	}
	return err
}

// DropLocal removes the key from L1 only. It handles invalidations announced
// by other processes.
func (t *Tiered[K, V]) DropLocal(ctx context.Context, key K) error {
	return t.l1.Invalidate(ctx, key)
}

// Sweep forwards to L1 when it expires lazily.
func (t *Tiered[K, V]) Sweep(now time.Time) int {
	if s, ok := t.l1.(Sweeper); ok {
		return s.Sweep(now)
	}
	return 0
}

// Close closes both levels.
func (t *Tiered[K, V]) Close() error {
	var errs []error
	if err := t.l1.Close(); err != nil {
		t.logger.Error().Err(err).Msg("Error closing L1.")
		errs = append(errs, fmt.Errorf("error closing L1: %w", err))
	}
	if err := t.l2.Close(); err != nil {
		t.logger.Error().Err(err).Msg("Error closing L2.")
		errs = append(errs, fmt.Errorf("error closing L2: %w", err))
	}
	return errors.Join(errs...)
}
