package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-remotedata/pkg/remotedata"
)

// Response is the parsed outcome of one request as kept in the response cache.
// Objects the response carried live in the object cache and are referenced here
// by their self links.
type Response struct {
	IsSuccessful      bool                 `json:"isSuccessful"`
	StatusCode        int                  `json:"statusCode"`
	StatusText        string               `json:"statusText,omitempty"`
	ErrorMessage      string               `json:"errorMessage,omitempty"`
	ResourceSelfLinks []string             `json:"resourceSelfLinks,omitempty"`
	PageInfo          *remotedata.PageInfo `json:"pageInfo,omitempty"`
	// Payload holds endpoint-specific data that is not a cacheable object,
	// such as facet values or an endpoint map.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ResponseEntry is a cached response with its freshness metadata.
type ResponseEntry struct {
	Href      string        `json:"href"`
	Response  *Response     `json:"response"`
	Timestamp time.Time     `json:"timestamp"`
	TTL       time.Duration `json:"ttl"`
}

// IsStale reports whether the entry has outlived its TTL.
func (e ResponseEntry) IsStale(now time.Time) bool {
	return isStale(e.Timestamp, e.TTL, now)
}

// ResponseCache maps a request href to the last response received for it.
type ResponseCache struct {
	store  Store[string, ResponseEntry]
	logger zerolog.Logger
	opts   options
}

// NewResponseCache creates a response cache over store.
func NewResponseCache(store Store[string, ResponseEntry], logger zerolog.Logger, opts ...Option) *ResponseCache {
	return &ResponseCache{
		store:  store,
		logger: logger.With().Str("component", "ResponseCache").Logger(),
		opts:   buildOptions(opts),
	}
}

// Get returns the entry for href. Stale entries are returned too; callers
// decide with IsStale whether to serve them while revalidating.
func (c *ResponseCache) Get(ctx context.Context, href string) (ResponseEntry, bool) {
	entry, err := c.store.Fetch(ctx, href)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Error().Err(err).Str("href", href).Msg("Response cache read failed.")
		}
		c.opts.metrics.Miss()
		return ResponseEntry{}, false
	}
	if entry.IsStale(c.opts.now()) {
		c.opts.metrics.Stale()
	} else {
		c.opts.metrics.Hit()
	}
	return entry, true
}

// Has reports whether a fresh entry exists for href.
func (c *ResponseCache) Has(ctx context.Context, href string) bool {
	entry, err := c.store.Fetch(ctx, href)
	return err == nil && !entry.IsStale(c.opts.now())
}

// Add stores or overwrites the entry for href and resets its timestamp.
func (c *ResponseCache) Add(ctx context.Context, href string, response *Response, ttl time.Duration) error {
	entry := ResponseEntry{
		Href:      href,
		Response:  response,
		Timestamp: c.opts.now(),
		TTL:       ttl,
	}
	if err := c.store.Write(ctx, href, entry, c.opts.storeTTL(ttl)); err != nil {
		c.logger.Error().Err(err).Str("href", href).Msg("Failed to add response to cache.")
		return err
	}
	c.logger.Debug().Str("href", href).Int("status", response.StatusCode).Msg("Response cached.")
	return nil
}

// Remove evicts the entry for href.
func (c *ResponseCache) Remove(ctx context.Context, href string) error {
	return c.store.Invalidate(ctx, href)
}

// Sweep releases expired entries if the backing store expires lazily.
func (c *ResponseCache) Sweep(now time.Time) int {
	if s, ok := c.store.(Sweeper); ok {
		return s.Sweep(now)
	}
	return 0
}

// Close closes the backing store.
func (c *ResponseCache) Close() error {
	return c.store.Close()
}
