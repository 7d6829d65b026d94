package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

// lruCacheItem is the internal structure stored in the linked list.
type lruCacheItem[K comparable, V any] struct {
	key      K
	value    V
	expireAt time.Time
}

// InMemoryLRUCache is a generic, thread-safe, in-memory Store with a fixed size
// and a Least Recently Used (LRU) eviction policy.
type InMemoryLRUCache[K comparable, V any] struct {
	maxSize int
	metrics Metrics

	mu    sync.Mutex
	ll    *list.List          // Used to track the order of items (recency).
	cache map[K]*list.Element // Used for fast key lookups.
	now   func() time.Time
}

// NewInMemoryLRUCache creates a new size-limited, in-memory LRU cache.
// - maxSize: The maximum number of items to store in the cache. Must be > 0.
// - metrics: Optional; receives an Eviction call whenever an item is pushed out.
func NewInMemoryLRUCache[K comparable, V any](maxSize int, metrics Metrics) (*InMemoryLRUCache[K, V], error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("maxSize must be greater than 0")
	}
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &InMemoryLRUCache[K, V]{
		maxSize: maxSize,
		metrics: metrics,
		ll:      list.New(),
		cache:   make(map[K]*list.Element),
		now:     time.Now,
	}, nil
}

// Fetch retrieves an item. On a hit it moves the item to the front of the
// recency list; an expired item is removed and reported as a miss.
func (c *InMemoryLRUCache[K, V]) Fetch(_ context.Context, key K) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.cache[key]
	if !ok {
		return zero, fmt.Errorf("key '%v' not in LRU cache: %w", key, ErrNotFound)
	}
	item := elem.Value.(*lruCacheItem[K, V])
	if !item.expireAt.IsZero() && c.now().After(item.expireAt) {
		c.ll.Remove(elem)
		delete(c.cache, key)
		return zero, fmt.Errorf("key '%v' expired in LRU cache: %w", key, ErrNotFound)
	}
	c.ll.MoveToFront(elem)
	return item.value, nil
}

// Write adds or replaces an item and evicts the least recently used item if the
// cache is over capacity.
func (c *InMemoryLRUCache[K, V]) Write(_ context.Context, key K, value V, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expireAt time.Time
	if ttl > 0 {
		expireAt = c.now().Add(ttl)
	}

	if elem, ok := c.cache[key]; ok {
		item := elem.Value.(*lruCacheItem[K, V])
		item.value = value
		item.expireAt = expireAt
		c.ll.MoveToFront(elem)
		return nil
	}

	element := c.ll.PushFront(&lruCacheItem[K, V]{key: key, value: value, expireAt: expireAt})
	c.cache[key] = element

	if c.ll.Len() > c.maxSize {
		c.evict()
	}
	return nil
}

// Invalidate removes an item from the cache.
func (c *InMemoryLRUCache[K, V]) Invalidate(_ context.Context, key K) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[key]; ok {
		c.ll.Remove(elem)
		delete(c.cache, key)
	}
	return nil
}

// Sweep removes expired items.
func (c *InMemoryLRUCache[K, V]) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for e := c.ll.Back(); e != nil; {
		prev := e.Prev()
		item := e.Value.(*lruCacheItem[K, V])
		if !item.expireAt.IsZero() && now.After(item.expireAt) {
			c.ll.Remove(e)
			delete(c.cache, item.key)
			removed++
		}
		e = prev
	}
	return removed
}

// evict removes the least recently used item from the cache.
// This method is unexported and must be called within a locked mutex.
func (c *InMemoryLRUCache[K, V]) evict() {
	elementToRemove := c.ll.Back()
	if elementToRemove != nil {
		itemToRemove := c.ll.Remove(elementToRemove).(*lruCacheItem[K, V])
		delete(c.cache, itemToRemove.key)
		c.metrics.Eviction()
	}
}

// Close is a no-op for the in-memory cache.
func (c *InMemoryLRUCache[K, V]) Close() error {
	return nil
}
