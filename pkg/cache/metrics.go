package cache

import "sync/atomic"

// Metrics receives cache lifecycle events.
type Metrics interface {
	Hit()
	Miss()
	// Stale is called when an entry past its TTL is served.
	Stale()
	Eviction()
}

// NoopMetrics ignores every event.
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Stale()    {}
func (NoopMetrics) Eviction() {}

// CounterMetrics counts events with atomic counters.
type CounterMetrics struct {
	hits      atomic.Int64
	misses    atomic.Int64
	stale     atomic.Int64
	evictions atomic.Int64
}

func (m *CounterMetrics) Hit()      { m.hits.Add(1) }
func (m *CounterMetrics) Miss()     { m.misses.Add(1) }
func (m *CounterMetrics) Stale()    { m.stale.Add(1) }
func (m *CounterMetrics) Eviction() { m.evictions.Add(1) }

// Stats is a point-in-time copy of the counters.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Stale     int64 `json:"stale"`
	Evictions int64 `json:"evictions"`
}

// Snapshot returns the current counter values.
func (m *CounterMetrics) Snapshot() Stats {
	return Stats{
		Hits:      m.hits.Load(),
		Misses:    m.misses.Load(),
		Stale:     m.stale.Load(),
		Evictions: m.evictions.Load(),
	}
}
