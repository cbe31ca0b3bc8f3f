package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments the index records observations
// into. They sit beside the correctness path, never on it: a metrics call
// failing or being skipped never changes a build or search result.
type Metrics struct {
	BuildDuration  prometheus.Histogram
	SearchLatency  prometheus.Histogram
	EmptyClusters  prometheus.Gauge
	ClustersTotal  prometheus.Gauge
	VectorsIndexed prometheus.Gauge
}

// NewMetrics registers a fresh set of instruments against reg. Passing a
// dedicated registry (rather than the global default) keeps repeated
// Index.Build calls in tests from colliding on duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ivfann_build_duration_seconds",
			Help:    "Wall-clock time spent in Index.Build.",
			Buckets: prometheus.DefBuckets,
		}),
		SearchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ivfann_search_latency_seconds",
			Help:    "Wall-clock time spent in Index.Search.",
			Buckets: prometheus.DefBuckets,
		}),
		EmptyClusters: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ivfann_empty_clusters",
			Help: "Number of centroids with an empty posting list after the last build.",
		}),
		ClustersTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ivfann_clusters_total",
			Help: "Number of centroids (k) in the last built index.",
		}),
		VectorsIndexed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ivfann_vectors_indexed",
			Help: "Number of vectors in the last built index.",
		}),
	}
}
