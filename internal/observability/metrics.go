package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// civic-score pipeline.
type Metrics struct {
	Aggregations   *prometheus.CounterVec // labels: result={hit,live}
	CacheWrites    *prometheus.CounterVec // labels: outcome={success,error}
	ScorePublishes *prometheus.CounterVec // labels: outcome={success,error}

	// Source adapter metrics.
	SourceFetches      *prometheus.CounterVec   // labels: source, provenance={live,partial,fallback,mock}
	SourceFetchSeconds *prometheus.HistogramVec // labels: source

	// POI query cache.
	POICacheLookups *prometheus.CounterVec // labels: result={hit,miss}

	OverallScore prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Aggregations,
		m.CacheWrites,
		m.ScorePublishes,
		m.SourceFetches,
		m.SourceFetchSeconds,
		m.POICacheLookups,
		m.OverallScore,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civic_score",
			Name:      "aggregations_total",
			Help:      "Aggregation requests by result (cache hit vs live fetch).",
		}, []string{"result"}),
		CacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civic_score",
			Name:      "cache_writes_total",
			Help:      "Cache upsert attempts by outcome.",
		}, []string{"outcome"}),
		ScorePublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civic_score",
			Name:      "score_publishes_total",
			Help:      "Scored-record publishes to the sink topic by outcome.",
		}, []string{"outcome"}),
		SourceFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civic_score",
			Name:      "source_fetches_total",
			Help:      "Source adapter fetches by source and provenance.",
		}, []string{"source", "provenance"}),
		SourceFetchSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "civic_score",
			Name:      "source_fetch_duration_seconds",
			Help:      "Source adapter fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		POICacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civic_score",
			Name:      "poi_cache_lookups_total",
			Help:      "POI count cache lookups by result.",
		}, []string{"result"}),
		OverallScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "civic_score",
			Name:      "overall_score",
			Help:      "Distribution of computed overall civic scores.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}
}
