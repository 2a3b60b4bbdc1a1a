package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reservoir_forecast"

// Metrics holds the Prometheus collectors for the forecast service.
type Metrics struct {
	// Model lifecycle.
	ModelReady      prometheus.Gauge
	ModelFitSeconds prometheus.Gauge
	HistoryPoints   prometheus.Gauge

	// Prediction requests.
	Predictions        *prometheus.CounterVec // labels: scenario, outcome={success,error}
	PredictionErrors   *prometheus.CounterVec // labels: kind
	PredictionDuration prometheus.Histogram
	RiskAssessments    *prometheus.CounterVec // labels: category

	// Response cache.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,error}

	// Result publishing.
	Published     prometheus.Counter
	PublishErrors prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		ModelReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_ready",
			Help:      "1 once the forecast model has been fitted, 0 otherwise.",
		}),
		ModelFitSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_fit_duration_seconds",
			Help:      "Duration of the one-time model fit at startup.",
		}),
		HistoryPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_points",
			Help:      "Number of historical observations the model was fitted on.",
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Scenario predictions by scenario and outcome.",
		}, []string{"scenario", "outcome"}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by error kind.",
		}, []string{"kind"}),
		PredictionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Duration of a scenario prediction.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		RiskAssessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_assessments_total",
			Help:      "Final-period risk categories returned to callers.",
		}, []string{"category"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Prediction cache lookups by result.",
		}, []string{"result"}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      "Predictions published to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed prediction publishes.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ModelReady,
		m.ModelFitSeconds,
		m.HistoryPoints,
		m.Predictions,
		m.PredictionErrors,
		m.PredictionDuration,
		m.RiskAssessments,
		m.CacheLookups,
		m.Published,
		m.PublishErrors,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics outside the default registry. Tests
// use it to avoid "already registered" panics, and one-shot commands use it
// because they serve no /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}
