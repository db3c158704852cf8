/*
File: metrics.go
Description: Supplemental in-process metrics (SPEC_FULL.md's ambient
             observability concern), grounded on
             original_source/engine/src/routes.rs::metrics and
             types.rs::MetricsResponse (qps, p95 latency, cache hit
             rate, action counts). Uses prometheus/client_golang the
             way cklxx-elephant.ai does, exposed via Snapshot() rather
             than an HTTP handler since transport is out of scope (§1).
*/

package scorecore

import (
	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the core's Prometheus collectors. A caller registers
// Registry() with whatever exporter the host process uses; the core
// itself never serves HTTP.
type Metrics struct {
	registry *prometheus.Registry

	latency         prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	banditUpdates   prometheus.Counter
	sinkDropped     prometheus.Counter
	analyzerDropped prometheus.Counter
	actionCounts    *prometheus.CounterVec
}

// NewMetrics constructs and registers a fresh metrics set.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scorecore_decision_latency_ms",
		Help:    "Pipeline decision latency in milliseconds.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50, 100},
	})
	m.cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scorecore_cache_hits_total",
		Help: "Decision cache hits.",
	})
	m.cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scorecore_cache_misses_total",
		Help: "Decision cache misses.",
	})
	m.banditUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scorecore_bandit_updates_total",
		Help: "Reward updates applied to the bandit.",
	})
	m.sinkDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scorecore_sink_dropped_total",
		Help: "Analytics records dropped due to backpressure.",
	})
	m.analyzerDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scorecore_analyzer_dropped_total",
		Help: "Analyzer tasks dropped due to backpressure or rate limiting.",
	})
	m.actionCounts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scorecore_action_total",
		Help: "Decisions by final action.",
	}, []string{"action"})

	m.registry.MustRegister(m.latency, m.cacheHits, m.cacheMisses,
		m.banditUpdates, m.sinkDropped, m.analyzerDropped, m.actionCounts)
	return m
}

// Registry returns the Prometheus registry a host process can expose.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveLatency(ms float64)      { m.latency.Observe(ms) }
func (m *Metrics) RecordCacheHit()                { m.cacheHits.Inc() }
func (m *Metrics) RecordCacheMiss()               { m.cacheMisses.Inc() }
func (m *Metrics) RecordBanditUpdate()            { m.banditUpdates.Inc() }
func (m *Metrics) RecordSinkDrop()                { m.sinkDropped.Inc() }
func (m *Metrics) RecordAnalyzerDrop()            { m.analyzerDropped.Inc() }
func (m *Metrics) RecordAction(a Action)          { m.actionCounts.WithLabelValues(string(a)).Inc() }

// Snapshot is the §6/routes.rs-style point-in-time summary, distinct
// from the raw Prometheus collectors, for a caller that just wants a
// plain value rather than scraping the registry.
type Snapshot struct {
	CacheHits       float64
	CacheMisses     float64
	BanditUpdates   float64
	SinkDropped     float64
	AnalyzerDropped float64
	ActionCounts    map[string]float64
}

// Snapshot reads the current counter values. Cheap enough to call per
// metrics-endpoint request in a host process.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		CacheHits:       readCounter(m.cacheHits),
		CacheMisses:     readCounter(m.cacheMisses),
		BanditUpdates:   readCounter(m.banditUpdates),
		SinkDropped:     readCounter(m.sinkDropped),
		AnalyzerDropped: readCounter(m.analyzerDropped),
		ActionCounts: map[string]float64{
			string(ActionAllow): readCounter(m.actionCounts.WithLabelValues(string(ActionAllow))),
			string(ActionWarn):  readCounter(m.actionCounts.WithLabelValues(string(ActionWarn))),
			string(ActionBlock): readCounter(m.actionCounts.WithLabelValues(string(ActionBlock))),
		},
	}
}

// readCounter extracts a Counter's current value via its Write hook,
// the standard way to read a client_golang metric back out-of-band.
func readCounter(c prometheus.Counter) float64 {
	var pb dto.Metric
	if err := c.Write(&pb); err != nil {
		return 0
	}
	return pb.GetCounter().GetValue()
}
