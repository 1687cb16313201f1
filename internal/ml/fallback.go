package ml

import "math"

// FallbackPredictor is used while no trained artifact is available. It
// treats the stated maximum loss as the drawdown, widened by a volatility
// penalty, so risk scoring errs on the conservative side.
type FallbackPredictor struct {
	volPenalty float64
	metrics    MetricsInterface
}

// NewFallbackPredictor creates a new fallback predictor
func NewFallbackPredictor(volPenalty float64, metrics MetricsInterface) *FallbackPredictor {
	return &FallbackPredictor{
		volPenalty: volPenalty,
		metrics:    metrics,
	}
}

// PredictDrawdown implements PredictorInterface.
func (p *FallbackPredictor) PredictDrawdown(volatility, maxLossPct float64) (float64, error) {
	y := math.Abs(maxLossPct) * (1 + p.volPenalty*math.Abs(volatility))
	if p.metrics != nil {
		p.metrics.FallbackUseInc()
		p.metrics.PredictionsInc()
	}
	return y, nil
}
