package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryItem[V any] struct {
	value    V
	expireAt time.Time // zero => no TTL
}

func (i memoryItem[V]) expired(now time.Time) bool {
	return !i.expireAt.IsZero() && now.After(i.expireAt)
}

// InMemoryCache is a generic, thread-safe, in-memory Store.
// Expired entries are treated as misses and released by Sweep.
type InMemoryCache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]memoryItem[V]
	now  func() time.Time
}

// NewInMemoryCache creates a new in-memory cache.
func NewInMemoryCache[K comparable, V any]() *InMemoryCache[K, V] {
	return &InMemoryCache[K, V]{
		data: make(map[K]memoryItem[V]),
		now:  time.Now,
	}
}

// Fetch retrieves an item from the cache.
func (c *InMemoryCache[K, V]) Fetch(_ context.Context, key K) (V, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.data[key]
	if !ok || item.expired(c.now()) {
		var zero V
		return zero, fmt.Errorf("key '%v': %w", key, ErrNotFound)
	}
	return item.value, nil
}

// Write adds an item to the cache.
func (c *InMemoryCache[K, V]) Write(_ context.Context, key K, value V, ttl time.Duration) error {
	item := memoryItem[V]{value: value}
	if ttl > 0 {
		item.expireAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = item
	return nil
}

// Invalidate removes an item from the cache.
func (c *InMemoryCache[K, V]) Invalidate(_ context.Context, key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Sweep deletes every expired entry and returns how many were removed.
func (c *InMemoryCache[K, V]) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, item := range c.data {
		if item.expired(now) {
			delete(c.data, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *InMemoryCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Close is a no-op for the in-memory cache.
func (c *InMemoryCache[K, V]) Close() error {
	return nil
}
