package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics summarizes holdout accuracy. Values are full precision; use
// Rounded for the persisted form.
type Metrics struct {
	MAE       float64 `json:"mae"`
	RMSE      float64 `json:"rmse"`
	R2        float64 `json:"r2"`
	TrainRows int     `json:"trainRows"`
	TestRows  int     `json:"testRows"`
}

// Rounded returns a copy with the float fields rounded to 4 decimal places.
func (m Metrics) Rounded() Metrics {
	m.MAE = Round4(m.MAE)
	m.RMSE = Round4(m.RMSE)
	m.R2 = Round4(m.R2)
	return m
}

// Round4 rounds half away from zero to 4 decimal places.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func checkEvaluationSet(yTrue, yPred []float64) error {
	if len(yTrue) == 0 || len(yPred) == 0 {
		return ErrEmptyEvaluationSet
	}
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("%d truths vs %d predictions: %w", len(yTrue), len(yPred), ErrEmptyEvaluationSet)
	}
	return nil
}

// MAE returns the mean absolute error.
func MAE(yTrue, yPred []float64) (float64, error) {
	if err := checkEvaluationSet(yTrue, yPred); err != nil {
		return 0, err
	}
	var sum float64
	for i := range yTrue {
		sum += math.Abs(yTrue[i] - yPred[i])
	}
	return sum / float64(len(yTrue)), nil
}

// RMSE returns the root mean squared error.
func RMSE(yTrue, yPred []float64) (float64, error) {
	if err := checkEvaluationSet(yTrue, yPred); err != nil {
		return 0, err
	}
	return math.Sqrt(sumSquaredResiduals(yTrue, yPred) / float64(len(yTrue))), nil
}

// R2 returns the coefficient of determination 1 - SS_res/SS_tot. A constant
// truth sequence (SS_tot == 0) yields exactly 1.0 by convention, whatever the
// predictions are.
func R2(yTrue, yPred []float64) (float64, error) {
	if err := checkEvaluationSet(yTrue, yPred); err != nil {
		return 0, err
	}

	mean := stat.Mean(yTrue, nil)

	var ssTot float64
	for _, v := range yTrue {
		d := v - mean
		ssTot += d * d
	}
	if ssTot == 0 {
		return 1.0, nil
	}
	return 1 - sumSquaredResiduals(yTrue, yPred)/ssTot, nil
}

func sumSquaredResiduals(yTrue, yPred []float64) float64 {
	var ss float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ss += d * d
	}
	return ss
}

// Evaluate computes MAE, RMSE and R² in one call. Row counts are left for
// the caller to fill in.
func Evaluate(yTrue, yPred []float64) (Metrics, error) {
	mae, err := MAE(yTrue, yPred)
	if err != nil {
		return Metrics{}, err
	}
	rmse, err := RMSE(yTrue, yPred)
	if err != nil {
		return Metrics{}, err
	}
	r2, err := R2(yTrue, yPred)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{MAE: mae, RMSE: rmse, R2: r2}, nil
}
