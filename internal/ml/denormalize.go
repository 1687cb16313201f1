package ml

import (
	"math"

	"risk-model/internal/features"
)

// NormalizedWeights are fitted against z-scored features. They are only
// meaningful together with the NormalizationStats they were trained under.
type NormalizedWeights [features.Width]float64

// Predict evaluates the weights on an already normalized row.
func (w NormalizedWeights) Predict(z features.Vector) float64 {
	return features.Dot(w, z)
}

// Coefficients are original-space weights, valid on raw feature vectors
// without any normalization statistics. Index 0 is the intercept.
type Coefficients [features.Width]float64

// Predict evaluates the coefficients on a raw feature row.
func (b Coefficients) Predict(x features.Vector) float64 {
	return features.Dot(b, x)
}

// PredictAll evaluates the coefficients on every raw row.
func (b Coefficients) PredictAll(x []features.Vector) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = b.Predict(row)
	}
	return out
}

// Intercept returns the bias coefficient.
func (b Coefficients) Intercept() float64 { return b[0] }

// Finite reports whether every coefficient is a finite number.
func (b Coefficients) Finite() bool {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Denormalize maps normalized-space weights back to original feature units.
// With z_j = (x_j - mean_j)/scale_j the model
//
//	y = w0 + Σ w_j z_j
//
// is rewritten exactly as y = b0 + Σ b_j x_j where
//
//	b_j = w_j / scale_j
//	b0  = w0 - Σ w_j mean_j / scale_j
func Denormalize(w NormalizedWeights, s NormalizationStats) Coefficients {
	var b Coefficients
	for j := 1; j < features.Width; j++ {
		b[j] = w[j] / s[j].Scale
	}

	b[0] = w[0]
	for j := 1; j < features.Width; j++ {
		b[0] -= w[j] * (s[j].Mean / s[j].Scale)
	}
	return b
}
