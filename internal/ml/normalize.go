package ml

import (
	"risk-model/internal/features"

	"gonum.org/v1/gonum/stat"
)

// ColumnStats holds the centering and scaling of one feature column.
type ColumnStats struct {
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
}

// NormalizationStats holds z-score statistics for every basis column. Column
// 0 is the bias and always stays (0, 1). Scale is always > 0.
type NormalizationStats [features.Width]ColumnStats

// FitNormalizer computes population mean and standard deviation of every
// non-bias column over the training rows. A column whose standard deviation
// is exactly zero keeps scale 1.0, so it ends up centered but unscaled.
// trainX must not be empty.
func FitNormalizer(trainX []features.Vector) NormalizationStats {
	var stats NormalizationStats
	stats[0] = ColumnStats{Mean: 0, Scale: 1}

	col := make([]float64, len(trainX))
	for c := 1; c < features.Width; c++ {
		for i, row := range trainX {
			col[i] = row[c]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		// Cancellation can leave a constant column with a NaN or
		// slightly negative variance instead of exactly zero.
		if !(std > 0) {
			std = 1.0
		}
		stats[c] = ColumnStats{Mean: mean, Scale: std}
	}
	return stats
}

// Apply returns a normalized copy of x. Test rows must be transformed with
// the statistics fitted on the training rows, never re-fitted.
func (s NormalizationStats) Apply(x []features.Vector) []features.Vector {
	out := make([]features.Vector, len(x))
	for i, row := range x {
		out[i][0] = row[0]
		for c := 1; c < features.Width; c++ {
			out[i][c] = (row[c] - s[c].Mean) / s[c].Scale
		}
	}
	return out
}
