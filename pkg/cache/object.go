package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-remotedata/pkg/hal"
)

// ObjectEntry is a normalized object with its freshness metadata.
type ObjectEntry struct {
	Resource    hal.Resource  `json:"resource"`
	Timestamp   time.Time     `json:"timestamp"`
	TTL         time.Duration `json:"ttl"`
	RequestHref string        `json:"requestHref"`
}

// IsStale reports whether the entry has outlived its TTL.
func (e ObjectEntry) IsStale(now time.Time) bool {
	return isStale(e.Timestamp, e.TTL, now)
}

// ObjectCache maps an object's self link to its latest normalized form, whichever
// request delivered it. A UUID index lets the same object be found by id.
type ObjectCache struct {
	objects Store[string, ObjectEntry]
	index   Store[string, string]
	logger  zerolog.Logger
	opts    options
}

// NewObjectCache creates an object cache over two stores: one for the objects
// and one for the UUID index.
func NewObjectCache(
	objects Store[string, ObjectEntry],
	index Store[string, string],
	logger zerolog.Logger,
	opts ...Option,
) *ObjectCache {
	return &ObjectCache{
		objects: objects,
		index:   index,
		logger:  logger.With().Str("component", "ObjectCache").Logger(),
		opts:    buildOptions(opts),
	}
}

// Add stores or replaces an object.
func (c *ObjectCache) Add(ctx context.Context, r hal.Resource, ttl time.Duration, requestHref string) error {
	entry := ObjectEntry{
		Resource:    r,
		Timestamp:   c.opts.now(),
		TTL:         ttl,
		RequestHref: requestHref,
	}
	storeTTL := c.opts.storeTTL(ttl)
	if err := c.objects.Write(ctx, r.Self, entry, storeTTL); err != nil {
		c.logger.Error().Err(err).Str("self", r.Self).Msg("Failed to add object to cache.")
		return err
	}
	if r.UUID != "" {
		if err := c.index.Write(ctx, r.UUID, r.Self, storeTTL); err != nil {
			c.logger.Error().Err(err).Str("uuid", r.UUID).Msg("Failed to index object.")
			return err
		}
	}
	return nil
}

// GetByHref returns the object with the given self link, stale or not.
func (c *ObjectCache) GetByHref(ctx context.Context, href string) (ObjectEntry, bool) {
	entry, err := c.objects.Fetch(ctx, href)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Error().Err(err).Str("self", href).Msg("Object cache read failed.")
		}
		c.opts.metrics.Miss()
		return ObjectEntry{}, false
	}
	if entry.IsStale(c.opts.now()) {
		c.opts.metrics.Stale()
	} else {
		c.opts.metrics.Hit()
	}
	return entry, true
}

// GetByUUID returns the object with the given UUID.
func (c *ObjectCache) GetByUUID(ctx context.Context, uuid string) (ObjectEntry, bool) {
	self, err := c.index.Fetch(ctx, uuid)
	if err != nil {
		c.opts.metrics.Miss()
		return ObjectEntry{}, false
	}
	return c.GetByHref(ctx, self)
}

// Has reports whether a fresh copy of the object is cached.
func (c *ObjectCache) Has(ctx context.Context, href string) bool {
	entry, err := c.objects.Fetch(ctx, href)
	return err == nil && !entry.IsStale(c.opts.now())
}

// Remove evicts the object with the given self link and its UUID index entry.
func (c *ObjectCache) Remove(ctx context.Context, href string) error {
	var indexErr error
	if entry, err := c.objects.Fetch(ctx, href); err == nil && entry.Resource.UUID != "" {
		indexErr = c.index.Invalidate(ctx, entry.Resource.UUID)
	}
	return errors.Join(c.objects.Invalidate(ctx, href), indexErr)
}

// RemoveByUUID evicts the object with the given UUID.
func (c *ObjectCache) RemoveByUUID(ctx context.Context, uuid string) error {
	self, err := c.index.Fetch(ctx, uuid)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	return c.Remove(ctx, self)
}

// Sweep releases expired objects if the backing stores expire lazily.
func (c *ObjectCache) Sweep(now time.Time) int {
	removed := 0
	if s, ok := c.objects.(Sweeper); ok {
		removed += s.Sweep(now)
	}
	if s, ok := c.index.(Sweeper); ok {
		s.Sweep(now)
	}
	return removed
}

// Close closes both backing stores.
func (c *ObjectCache) Close() error {
	return errors.Join(c.objects.Close(), c.index.Close())
}
