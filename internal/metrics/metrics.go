package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcome labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics aggregates serving counters, histograms and gauges. Each instance
// owns its own registry so tests can construct a fresh aggregator; all
// updates are safe for concurrent use by request handlers.
type Metrics struct {
	registry  *prometheus.Registry
	startTime time.Time

	// PredictionRequests counts requests by outcome (success|error)
	PredictionRequests *prometheus.CounterVec

	// SuccessfulPredictions counts individual predictions that produced a result
	SuccessfulPredictions prometheus.Counter

	// FailedPredictions counts individual predictions that did not
	FailedPredictions prometheus.Counter

	// PredictionLatency observes per-inference latency in seconds
	PredictionLatency prometheus.Histogram

	// BatchSize observes submitted batch sizes
	BatchSize prometheus.Histogram

	// ModelLoaded reports whether the classifier is loaded (1 or 0)
	ModelLoaded prometheus.Gauge
}

// New creates a metrics aggregator backed by a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry:  prometheus.NewRegistry(),
		startTime: time.Now(),

		PredictionRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mlserve_prediction_requests_total",
				Help: "Total prediction requests",
			},
			[]string{"status"},
		),

		SuccessfulPredictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mlserve_successful_predictions_total",
				Help: "Total successful predictions",
			},
		),

		FailedPredictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "mlserve_failed_predictions_total",
				Help: "Total failed predictions",
			},
		),

		PredictionLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mlserve_prediction_latency_seconds",
				Help:    "Prediction latency in seconds",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),

		BatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mlserve_batch_size",
				Help:    "Batch size for batch predictions",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
			},
		),

		ModelLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mlserve_model_loaded",
				Help: "Whether the model is currently loaded",
			},
		),
	}

	uptime := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "mlserve_api_uptime_seconds",
			Help: "API uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	m.registry.MustRegister(
		m.PredictionRequests,
		m.SuccessfulPredictions,
		m.FailedPredictions,
		m.PredictionLatency,
		m.BatchSize,
		m.ModelLoaded,
		uptime,
	)

	return m
}

// RecordRequest records a request outcome (StatusSuccess or StatusError)
func (m *Metrics) RecordRequest(status string) {
	m.PredictionRequests.WithLabelValues(status).Inc()
}

// RecordPrediction records a single completed inference
func (m *Metrics) RecordPrediction(latency time.Duration) {
	m.PredictionLatency.Observe(latency.Seconds())
	m.SuccessfulPredictions.Inc()
}

// Handler returns the Prometheus exposition handler for this aggregator
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for test assertions
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
