package metrics

import "risk-model/internal/ml"

// MetricsWrapper adapts Metrics to ml.MetricsInterface and to the small
// counters the publisher needs.
type MetricsWrapper struct {
	m *Metrics
}

var _ ml.MetricsInterface = (*MetricsWrapper)(nil)

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) TrainingRunsInc()                  { w.m.TrainingRuns.Inc() }
func (w *MetricsWrapper) TrainingFailuresInc()              { w.m.TrainingFailures.Inc() }
func (w *MetricsWrapper) TrainingDurationObserve(v float64) { w.m.TrainingDuration.Observe(v) }
func (w *MetricsWrapper) PredictionsInc()                   { w.m.Predictions.Inc() }
func (w *MetricsWrapper) PredictionFailuresInc()            { w.m.PredictionFailures.Inc() }
func (w *MetricsWrapper) PredictionLatencyObserve(v float64) {
	w.m.PredictionLatency.Observe(v)
}
func (w *MetricsWrapper) ModelAgeSet(v float64) { w.m.ModelAge.Set(v) }
func (w *MetricsWrapper) FallbackUseInc()       { w.m.FallbackUse.Inc() }

// ModelQualitySet publishes the holdout metrics of a fresh model.
func (w *MetricsWrapper) ModelQualitySet(q ml.Metrics) {
	w.m.ModelMAE.Set(q.MAE)
	w.m.ModelRMSE.Set(q.RMSE)
	w.m.ModelR2.Set(q.R2)
	w.m.ModelTrainRows.Set(float64(q.TrainRows))
	w.m.ModelTestRows.Set(float64(q.TestRows))
	w.m.ModelAge.Set(0)
}

// ObservationsLoadedSet records the size of the last loaded dataset.
func (w *MetricsWrapper) ObservationsLoadedSet(n int) { w.m.ObservationsLoaded.Set(float64(n)) }

// PublishInc counts one publish attempt and its outcome.
func (w *MetricsWrapper) PublishInc(err error) {
	w.m.PublishTotal.Inc()
	if err != nil {
		w.m.PublishFailures.Inc()
	}
}
