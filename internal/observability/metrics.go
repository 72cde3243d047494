// Package observability defines the Prometheus metrics exported by firewatch.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "firewatch"

// Refresh outcomes.
const (
	OutcomeSuccess        = "success"
	OutcomeSourceNotFound = "source_not_found"
	OutcomeError          = "error"
)

// Region query outcomes.
const (
	OutcomeFound           = "found"
	OutcomeEmpty           = "empty"
	OutcomeUnknownRegion   = "unknown_region"
	OutcomeBoundaryMissing = "boundary_missing"
	OutcomeSchemaError     = "schema_error"
)

// Metrics holds the Prometheus collectors for the refresh and query pipeline.
type Metrics struct {
	Refreshes       *prometheus.CounterVec // labels: outcome={success,source_not_found,error}
	RecordsRead     prometheus.Counter
	RecordsDropped  prometheus.Counter
	RecordsStored   prometheus.Gauge
	RefreshDuration prometheus.Histogram

	RegionQueries *prometheus.CounterVec // labels: outcome
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Refreshes,
		m.RecordsRead,
		m.RecordsDropped,
		m.RecordsStored,
		m.RefreshDuration,
		m.RegionQueries,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests
// can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Snapshot refreshes by outcome.",
		}, []string{"outcome"}),
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_read_total",
			Help:      "Total features read from the detection source file.",
		}),
		RecordsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Total features dropped for unusable coordinates.",
		}),
		RecordsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_stored",
			Help:      "Detections in the current snapshot.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete read-normalize-replace cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RegionQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_queries_total",
			Help:      "Region summary queries by outcome.",
		}, []string{"outcome"}),
	}
}
