package cache

import "time"

type options struct {
	metrics   Metrics
	retention time.Duration
	now       func() time.Time
}

// Option configures a ResponseCache or ObjectCache.
type Option func(*options)

// WithMetrics reports hits, misses and stale reads to m.
func WithMetrics(m Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithStaleRetention keeps entries in the backing store for d past their TTL so
// they can be served while a fresh copy is fetched.
func WithStaleRetention(d time.Duration) Option {
	return func(o *options) { o.retention = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// DefaultStaleRetention is used when WithStaleRetention is not given.
const DefaultStaleRetention = 5 * time.Minute

func buildOptions(opts []Option) options {
	o := options{
		metrics:   NoopMetrics{},
		retention: DefaultStaleRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// storeTTL is the lifetime an entry gets in the backing store.
func (o options) storeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return ttl + o.retention
}

func isStale(timestamp time.Time, ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(timestamp) > ttl
}
