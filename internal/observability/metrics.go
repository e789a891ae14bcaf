package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "flood_risk"

// Metrics holds the Prometheus collectors for the prediction service.
type Metrics struct {
	Predictions      *prometheus.CounterVec // labels: level={High,Moderate,Safe}
	PredictionErrors *prometheus.CounterVec // labels: stage={input,category,tabular,sequence,history}
	HistoryRecords   prometheus.Gauge

	// Model metrics.
	ScoreDuration *prometheus.HistogramVec // labels: model={tabular,sequence}
	ScoreCache    *prometheus.CounterVec   // labels: model, result={hit,miss}

	// Downstream publishing.
	Published *prometheus.CounterVec // labels: sink={kafka,mqtt}, outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Predictions,
		m.PredictionErrors,
		m.HistoryRecords,
		m.ScoreDuration,
		m.ScoreCache,
		m.Published,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Successful predictions by risk level.",
		}, []string{"level"}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by pipeline stage.",
		}, []string{"stage"}),
		HistoryRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_records",
			Help:      "Number of records in the prediction history.",
		}),
		ScoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_score_duration_seconds",
			Help:      "Model scoring latency in seconds.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"model"}),
		ScoreCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_score_cache_total",
			Help:      "Score cache lookups by model and result.",
		}, []string{"model", "result"}),
		Published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      "Prediction records forwarded downstream by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
}
