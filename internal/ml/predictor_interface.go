// Package ml fits and serves the drawdown risk model: a linear regression of
// realized drawdown on [1, volatility, volatility², maxLossPct] trained with
// batch gradient descent on z-scored features.
//
// The package covers the numeric core (Split, FitNormalizer, Train,
// Denormalize, Evaluate, BuildArtifact), the Pipeline that chains them, and
// the pieces that consume the result: ModelManager for persistence,
// Predictor/FallbackPredictor for scoring and ModelServer for HTTP access.
package ml

// PredictorInterface is implemented by anything that can score a position's
// expected drawdown.
type PredictorInterface interface {
	// PredictDrawdown returns the predicted realized drawdown in percent for
	// the given volatility and stated maximum loss.
	PredictDrawdown(volatility, maxLossPct float64) (float64, error)
}
