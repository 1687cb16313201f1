package ml

import (
	"fmt"
	"math"

	"risk-model/internal/features"
)

// DefaultSplitRatio is the share of rows used for training.
const DefaultSplitRatio = 0.8

// Split partitions time-ordered observations into a training prefix and a
// holdout suffix. The prefix length is round(n*ratio) clamped to [1, n-1], so
// both halves are always non-empty. No shuffling: later rows never leak into
// training. The returned slices share the input's backing array.
func Split(obs []features.Observation, ratio float64) (train, test []features.Observation, err error) {
	if math.IsNaN(ratio) || ratio <= 0 || ratio > 1 {
		return nil, nil, fmt.Errorf("split %v: %w", ratio, ErrInvalidSplitRatio)
	}

	n := len(obs)
	switch {
	case n == 0:
		return nil, nil, ErrEmptyDataset
	case n < 2:
		return nil, nil, fmt.Errorf("split %d rows: %w", n, ErrInsufficientData)
	}

	cut := SplitPoint(n, ratio)
	return obs[:cut:cut], obs[cut:], nil
}

// SplitPoint returns the training prefix length for n rows. n must be >= 2.
func SplitPoint(n int, ratio float64) int {
	cut := int(math.Round(float64(n) * ratio))
	if cut < 1 {
		cut = 1
	}
	if cut > n-1 {
		cut = n - 1
	}
	return cut
}

// SplitDescription renders the ratio the way it is recorded in the model
// artifact, e.g. "time-order holdout (80/20)".
func SplitDescription(ratio float64) string {
	train := int(math.Round(ratio * 100))
	return fmt.Sprintf("time-order holdout (%d/%d)", train, 100-train)
}
