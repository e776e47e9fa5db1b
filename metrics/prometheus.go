package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	promNamespace = "strom"
	promSubsystem = "runtime"
)

func newDesc(name, help string) *prometheus.Desc {
	return prometheus.NewDesc(
		prometheus.BuildFQName(promNamespace, promSubsystem, name),
		help, nil, nil,
	)
}

var (
	descEventsProcessed = newDesc("events_processed_total", "Events emitted by all sources.")
	descEventsDropped   = newDesc("events_dropped_total", "Events dropped by failing operators or forced shutdown.")
	descBackpressure    = newDesc("backpressure_events_total", "Emissions that observed a full downstream queue.")
	descQueueSize       = newDesc("queue_size", "Aggregate size of all queues.")
	descLatency         = newDesc("processing_latency_seconds", "Per-event operator processing latency.")
)

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descEventsProcessed
	ch <- descEventsDropped
	ch <- descBackpressure
	ch <- descQueueSize
	ch <- descLatency
}

// Collect implements prometheus.Collector, so a Collector can be
// registered with any prometheus.Registerer and scraped alongside the
// host application's metrics.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(descEventsProcessed, prometheus.CounterValue, float64(c.EventsProcessed.Value()))
	ch <- prometheus.MustNewConstMetric(descEventsDropped, prometheus.CounterValue, float64(c.EventsDropped.Value()))
	ch <- prometheus.MustNewConstMetric(descBackpressure, prometheus.CounterValue, float64(c.Backpressure.Value()))
	ch <- prometheus.MustNewConstMetric(descQueueSize, prometheus.GaugeValue, float64(c.TotalQueueSize.Value()))

	bounds, counts := c.ProcessingLatency.Buckets()
	cumulative := make(map[float64]uint64, len(bounds))
	var running uint64
	for i, b := range bounds {
		running += counts[i]
		cumulative[b] = running
	}
	count := c.ProcessingLatency.Count()
	sum := c.ProcessingLatency.Sum()
	ch <- prometheus.MustNewConstHistogram(descLatency, count, sum, cumulative)
}
