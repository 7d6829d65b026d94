// Package cache provides the storage backends and the response and object caches
// that sit between the request service and the REST API.
package cache

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by a Store when a key is absent or has expired.
var ErrNotFound = errors.New("key not found in cache")

// Store is a generic key-value backend with per-entry expiry.
type Store[K comparable, V any] interface {
	// Fetch retrieves an item. It returns an error wrapping ErrNotFound on a miss.
	Fetch(ctx context.Context, key K) (V, error)
	// Write stores or overwrites an item. A ttl of 0 uses the store's default
	// TTL if it has one, otherwise the item is kept until invalidated.
	Write(ctx context.Context, key K, value V, ttl time.Duration) error
	// Invalidate removes an item. Removing an absent key is not an error.
	Invalidate(ctx context.Context, key K) error
	io.Closer
}

// Sweeper is implemented by stores that expire entries lazily and need a
// periodic pass to release memory.
type Sweeper interface {
	Sweep(now time.Time) int
}
