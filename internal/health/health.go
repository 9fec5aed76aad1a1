package health

import (
	"sync"
	"sync/atomic"
	"time"
)

// Counters accumulate process-lifetime telemetry for the quote layer.
// They are monotonic, reset only by process restart, and read-only for
// consumers; nothing reads them to change behavior.
type Counters struct {
	requests        atomic.Int64
	freshHits       atomic.Int64
	liveFetches     atomic.Int64
	staleFallbacks  atomic.Int64
	staticFallbacks atomic.Int64
	errors          atomic.Int64

	mu         sync.Mutex
	latencyN   int64
	avgLatency float64 // milliseconds
}

func New() *Counters { return &Counters{} }

func (c *Counters) Request()        { c.requests.Add(1) }
func (c *Counters) FreshHit()       { c.freshHits.Add(1) }
func (c *Counters) LiveFetch()      { c.liveFetches.Add(1) }
func (c *Counters) StaleFallback()  { c.staleFallbacks.Add(1) }
func (c *Counters) StaticFallback() { c.staticFallbacks.Add(1) }
func (c *Counters) Error()          { c.errors.Add(1) }

// ObserveLatency folds one sample into the running average using the
// incremental update avg += (sample - avg) / n.
func (c *Counters) ObserveLatency(d time.Duration) {
	ms := float64(d) / float64(time.Millisecond)
	c.mu.Lock()
	c.latencyN++
	c.avgLatency += (ms - c.avgLatency) / float64(c.latencyN)
	c.mu.Unlock()
}

// Snapshot is a point-in-time, JSON-serializable view of the counters.
type Snapshot struct {
	Requests        int64   `json:"requests"`
	FreshHits       int64   `json:"cache_hits"`
	LiveFetches     int64   `json:"live_fetches"`
	StaleFallbacks  int64   `json:"stale_fallbacks"`
	StaticFallbacks int64   `json:"static_fallbacks"`
	Errors          int64   `json:"errors"`
	AvgLatencyMS    float64 `json:"avg_latency_ms"`
}

func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	avg := c.avgLatency
	c.mu.Unlock()
	return Snapshot{
		Requests:        c.requests.Load(),
		FreshHits:       c.freshHits.Load(),
		LiveFetches:     c.liveFetches.Load(),
		StaleFallbacks:  c.staleFallbacks.Load(),
		StaticFallbacks: c.staticFallbacks.Load(),
		Errors:          c.errors.Load(),
		AvgLatencyMS:    avg,
	}
}
