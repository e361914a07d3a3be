package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for ingestion
// and daily aggregation.
type Metrics struct {
	ReadingsIngested prometheus.Counter
	IngestErrors     *prometheus.CounterVec // labels: reason={invalid_input,storage}

	// Daily aggregation metrics.
	AggregationRuns     *prometheus.CounterVec // labels: outcome={success,error}
	AggregationDuration prometheus.Histogram
	ReadingsAggregated  prometheus.Histogram
	DailyTotal          prometheus.Gauge
	AlertsPublished     *prometheus.CounterVec // labels: outcome={success,error}
	SchedulerRunning    prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ReadingsIngested,
		m.IngestErrors,
		m.AggregationRuns,
		m.AggregationDuration,
		m.ReadingsAggregated,
		m.DailyTotal,
		m.AlertsPublished,
		m.SchedulerRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rainfall",
			Name:      "readings_ingested_total",
			Help:      "Total rainfall readings appended to the log.",
		}),
		IngestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall",
			Name:      "ingest_errors_total",
			Help:      "Rejected or failed ingest requests by reason.",
		}, []string{"reason"}),
		AggregationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall",
			Name:      "aggregation_runs_total",
			Help:      "Daily aggregation runs by outcome.",
		}, []string{"outcome"}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainfall",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of a complete daily aggregation run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ReadingsAggregated: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainfall",
			Name:      "readings_per_run",
			Help:      "Number of readings summed by one aggregation run.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		DailyTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainfall",
			Name:      "daily_total_mm",
			Help:      "Most recently computed daily rainfall total.",
		}),
		AlertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall",
			Name:      "alerts_published_total",
			Help:      "Heavy-rainfall alert publish attempts by outcome.",
		}, []string{"outcome"}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainfall",
			Name:      "scheduler_running",
			Help:      "1 when the in-process daily scheduler is active, 0 otherwise.",
		}),
	}
}
