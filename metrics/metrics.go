// Package metrics provides the counter, gauge and histogram
// primitives the engine updates, plus a process-level Collector with
// snapshot support and a Prometheus bridge.
package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing counter using relaxed atomic
// semantics.
type Counter struct {
	v atomic.Uint64
}

func (c *Counter) Inc()             { c.v.Add(1) }
func (c *Counter) Add(delta uint64) { c.v.Add(delta) }
func (c *Counter) Value() uint64    { return c.v.Load() }
func (c *Counter) Reset()           { c.v.Store(0) }

// Gauge is a signed value that can move in both directions.
type Gauge struct {
	v atomic.Int64
}

func (g *Gauge) Set(v int64)  { g.v.Store(v) }
func (g *Gauge) Inc()         { g.v.Add(1) }
func (g *Gauge) Dec()         { g.v.Add(-1) }
func (g *Gauge) Add(d int64)  { g.v.Add(d) }
func (g *Gauge) Value() int64 { return g.v.Load() }

// Histogram records observations into static buckets. Observations
// are in seconds; the default buckets span 1ms to 10s. A single mutex
// guards the bucket array, which is fine for the engine's observation
// rates; the hot-path counters elsewhere are atomics.
type Histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

// DefaultBuckets returns the default latency buckets in seconds,
// exponentially spaced from 1ms to 10s.
func DefaultBuckets() []float64 {
	return []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}
}

// NewHistogram creates a histogram with the given upper bounds, which
// must be sorted ascending. Nil means DefaultBuckets.
func NewHistogram(buckets []float64) *Histogram {
	if buckets == nil {
		buckets = DefaultBuckets()
	}
	return &Histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)+1),
	}
}

// Observe records a value into the first bucket whose upper bound is
// >= v, or the overflow bucket. Bucket lookup is a binary search.
func (h *Histogram) Observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += v
	h.count++
	i := sort.SearchFloat64s(h.buckets, v)
	h.counts[i]++
}

func (h *Histogram) Sum() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sum
}

func (h *Histogram) Count() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Mean returns the average observed value, or 0 with no observations.
func (h *Histogram) Mean() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return 0
	}
	return h.sum / float64(h.count)
}

// Buckets returns the bucket bounds and a copy of the per-bucket
// counts (the final count is the overflow bucket).
func (h *Histogram) Buckets() ([]float64, []uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	counts := make([]uint64, len(h.counts))
	copy(counts, h.counts)
	return h.buckets, counts
}

// Snapshot is a point-in-time view of the collector.
type Snapshot struct {
	TotalEventsProcessed uint64
	EventsPerSecond      uint64
	AvgLatencyMs         float64
	TotalQueueSize       int64
	BackpressureEvents   uint64
	EventsDropped        uint64
	Timestamp            time.Time
}

// Collector aggregates the process-wide engine metrics. The runtime
// bumps EventsProcessed on every source emission and keeps
// TotalQueueSize current from its reporter loop; operators and queues
// keep their own stats.
type Collector struct {
	EventsProcessed   Counter
	EventsDropped     Counter
	Backpressure      Counter
	ProcessingLatency *Histogram
	TotalQueueSize    Gauge

	start time.Time

	mu         sync.Mutex
	lastTime   time.Time
	lastEvents uint64
}

// NewCollector creates a collector with default latency buckets.
func NewCollector() *Collector {
	now := time.Now()
	return &Collector{
		ProcessingLatency: NewHistogram(nil),
		start:             now,
		lastTime:          now,
	}
}

// Snapshot captures the current totals plus the event rate since the
// previous snapshot.
func (c *Collector) Snapshot() Snapshot {
	now := time.Now()
	total := c.EventsProcessed.Value()

	c.mu.Lock()
	elapsed := now.Sub(c.lastTime).Seconds()
	var rate uint64
	if elapsed > 0 && total >= c.lastEvents {
		rate = uint64(float64(total-c.lastEvents) / elapsed)
	}
	c.lastTime = now
	c.lastEvents = total
	c.mu.Unlock()

	return Snapshot{
		TotalEventsProcessed: total,
		EventsPerSecond:      rate,
		AvgLatencyMs:         c.ProcessingLatency.Mean() * 1000.0,
		TotalQueueSize:       c.TotalQueueSize.Value(),
		BackpressureEvents:   c.Backpressure.Value(),
		EventsDropped:        c.EventsDropped.Value(),
		Timestamp:            now,
	}
}

// Uptime returns the time since the collector was created.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.start)
}
