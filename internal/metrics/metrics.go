// Package metrics provides Prometheus metrics for the risk model trainer and
// model server. It covers training runs, holdout quality of the active
// model, prediction traffic and artifact publishing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the risk model.
type Metrics struct {
	// Training metrics
	TrainingRuns       prometheus.Counter   // Successful training runs
	TrainingFailures   prometheus.Counter   // Failed training runs
	TrainingDuration   prometheus.Histogram // Wall time of a training run
	ObservationsLoaded prometheus.Gauge     // Rows loaded for the last run

	// Model quality of the last successful run
	ModelMAE       prometheus.Gauge
	ModelRMSE      prometheus.Gauge
	ModelR2        prometheus.Gauge
	ModelTrainRows prometheus.Gauge
	ModelTestRows  prometheus.Gauge
	ModelAge       prometheus.Gauge // Seconds since the active model was generated

	// Prediction metrics
	Predictions        prometheus.Counter
	PredictionFailures prometheus.Counter
	PredictionLatency  prometheus.Histogram
	FallbackUse        prometheus.Counter

	// Publishing metrics
	PublishTotal    prometheus.Counter
	PublishFailures prometheus.Counter
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		TrainingRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_model_training_runs_total",
			Help: "Total number of successful training runs",
		}),
		TrainingFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_model_training_failures_total",
			Help: "Total number of failed training runs",
		}),
		TrainingDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_model_training_duration_seconds",
			Help:    "Duration of a training run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		ObservationsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "risk_model_observations_loaded",
			Help: "Number of observations loaded for the last training run",
		}),
		ModelMAE: factory.NewGauge(prometheus.GaugeOpts{
			Name: "risk_model_holdout_mae",
			Help: "Holdout mean absolute error of the last trained model",
		}),
		ModelRMSE: factory.NewGauge(prometheus.GaugeOpts{
			Name: "risk_model_holdout_rmse",
			Help: "Holdout root mean squared error of the last trained model",
		}),
		ModelR2: factory.NewGauge(prometheus.GaugeOpts{
			Name: "risk_model_holdout_r2",
			Help: "Holdout coefficient of determination of the last trained model",
		}),
		ModelTrainRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "risk_model_train_rows",
			Help: "Training rows used by the last trained model",
		}),
		ModelTestRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "risk_model_test_rows",
			Help: "Holdout rows used by the last trained model",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "risk_model_age_seconds",
			Help: "Age of the active model in seconds",
		}),
		Predictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_model_predictions_total",
			Help: "Total number of drawdown predictions served",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_model_prediction_failures_total",
			Help: "Total number of failed drawdown predictions",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "risk_model_prediction_latency_seconds",
			Help:    "Drawdown prediction latency in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		FallbackUse: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_model_fallback_use_total",
			Help: "Total number of predictions answered by the fallback heuristic",
		}),
		PublishTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_model_publish_total",
			Help: "Total number of artifacts published to risk scoring",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "risk_model_publish_failures_total",
			Help: "Total number of failed artifact publishes",
		}),
	}
}
