package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for an ETL run.
type Metrics struct {
	DatesProcessed  prometheus.Counter
	EventsExtracted *prometheus.CounterVec // labels: type={Warning,Cancellation,NoRecord}
	PipelineRunning prometheus.Gauge
	RunDuration     prometheus.Histogram

	// Retrieval metrics.
	FetchRequests *prometheus.CounterVec   // labels: kind={index,article}, outcome={success,error}
	FetchCache    *prometheus.CounterVec   // labels: result={hit,miss}
	FetchDuration *prometheus.HistogramVec // labels: kind={index,article}

	// Pairing metrics.
	DurationsComputed prometheus.Counter
	PairingsSkipped   prometheus.Counter

	// Publication metrics.
	RowsPublished *prometheus.CounterVec // labels: sink, table
	PublishErrors *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DatesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heat_stress_etl",
			Name:      "dates_processed_total",
			Help:      "Total index dates processed.",
		}),
		EventsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heat_stress_etl",
			Name:      "events_extracted_total",
			Help:      "Events emitted by the daily builder, by type.",
		}, []string{"type"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "heat_stress_etl",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "heat_stress_etl",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-pair-aggregate-publish run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heat_stress_etl",
			Name:      "fetch_requests_total",
			Help:      "Page retrievals by kind and outcome.",
		}, []string{"kind", "outcome"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heat_stress_etl",
			Name:      "fetch_cache_total",
			Help:      "Page cache lookups by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "heat_stress_etl",
			Name:      "fetch_duration_seconds",
			Help:      "Page retrieval duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"kind"}),
		DurationsComputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heat_stress_etl",
			Name:      "durations_computed_total",
			Help:      "Intervals produced by the pairing engine.",
		}),
		PairingsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heat_stress_etl",
			Name:      "pairings_skipped_total",
			Help:      "Candidate pairs left without a duration.",
		}),
		RowsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heat_stress_etl",
			Name:      "rows_published_total",
			Help:      "Rows appended to sinks, by sink and table.",
		}, []string{"sink", "table"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heat_stress_etl",
			Name:      "publish_errors_total",
			Help:      "Failed sink appends, by sink.",
		}, []string{"sink"}),
	}

	prometheus.MustRegister(
		m.DatesProcessed,
		m.EventsExtracted,
		m.PipelineRunning,
		m.RunDuration,
		m.FetchRequests,
		m.FetchCache,
		m.FetchDuration,
		m.DurationsComputed,
		m.PairingsSkipped,
		m.RowsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatesProcessed:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "heat_stress_etl", Name: "dates_processed_total"}),
		EventsExtracted:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heat_stress_etl", Name: "events_extracted_total"}, []string{"type"}),
		PipelineRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "heat_stress_etl", Name: "pipeline_running"}),
		RunDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "heat_stress_etl", Name: "run_duration_seconds"}),
		FetchRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heat_stress_etl", Name: "fetch_requests_total"}, []string{"kind", "outcome"}),
		FetchCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heat_stress_etl", Name: "fetch_cache_total"}, []string{"result"}),
		FetchDuration:     prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "heat_stress_etl", Name: "fetch_duration_seconds"}, []string{"kind"}),
		DurationsComputed: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "heat_stress_etl", Name: "durations_computed_total"}),
		PairingsSkipped:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "heat_stress_etl", Name: "pairings_skipped_total"}),
		RowsPublished:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heat_stress_etl", Name: "rows_published_total"}, []string{"sink", "table"}),
		PublishErrors:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "heat_stress_etl", Name: "publish_errors_total"}, []string{"sink"}),
	}
}
