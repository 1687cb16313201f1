package ml

import (
	"fmt"

	"risk-model/internal/features"
)

// TrainerConfig holds the optimizer hyperparameters.
type TrainerConfig struct {
	Epochs       int     `json:"epochs"`
	LearningRate float64 `json:"learningRate"`

	// ReportEvery, when > 0, calls Observer every ReportEvery epochs and
	// after the last one with the training MSE before that epoch's update.
	ReportEvery int                          `json:"-"`
	Observer    func(epoch int, mse float64) `json:"-"`
}

// DefaultReportEvery is the progress logging interval of NewPipeline.
const DefaultReportEvery = 1000

// DefaultTrainerConfig returns the production hyperparameters.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{Epochs: 12000, LearningRate: 0.015}
}

// Validate reports whether the config can drive Train.
func (c TrainerConfig) Validate() error {
	if c.Epochs < 1 {
		return fmt.Errorf("epochs %d: %w", c.Epochs, ErrInvalidTrainerConfig)
	}
	if !(c.LearningRate > 0) {
		return fmt.Errorf("learning rate %v: %w", c.LearningRate, ErrInvalidTrainerConfig)
	}
	return nil
}

// Train fits normalized-space weights with full-batch gradient descent on
// mean squared error. Weights start at zero and every epoch uses all rows:
//
//	g[j] = (2/n) Σ_i (w·x_i - y_i) x_i[j]
//	w[j] -= lr * g[j]
//
// The loop always runs cfg.Epochs epochs; there is no convergence check, so
// identical inputs give identical weights. x must be non-empty and the same
// length as y; an empty x yields NaN weights.
func Train(x []features.Vector, y []float64, cfg TrainerConfig) NormalizedWeights {
	var w NormalizedWeights
	n := float64(len(x))
	scale := 2.0 / n

	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		var grad [features.Width]float64
		var sse float64

		for i, row := range x {
			residual := features.Dot(w, row) - y[i]
			sse += residual * residual
			for j := range grad {
				grad[j] += scale * residual * row[j]
			}
		}

		for j := range w {
			w[j] -= cfg.LearningRate * grad[j]
		}

		if cfg.Observer != nil && cfg.ReportEvery > 0 && (epoch%cfg.ReportEvery == 0 || epoch == cfg.Epochs) {
			cfg.Observer(epoch, sse/n)
		}
	}
	return w
}
