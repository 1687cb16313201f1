package ml

import "errors"

// Sentinel errors returned by the training pipeline. Callers match them with
// errors.Is; the pipeline wraps them with context but never swallows them.
var (
	// ErrEmptyDataset is returned when no observations were supplied.
	ErrEmptyDataset = errors.New("ml: empty dataset")

	// ErrInsufficientData is returned when fewer than two observations are
	// available, so a non-empty train/test split cannot be formed.
	ErrInsufficientData = errors.New("ml: insufficient data for train/test split")

	// ErrEmptyEvaluationSet is returned when metrics are requested over
	// zero-length or mismatched truth/prediction sequences.
	ErrEmptyEvaluationSet = errors.New("ml: empty evaluation set")

	// ErrInvalidSplitRatio is returned for a split ratio outside (0, 1].
	ErrInvalidSplitRatio = errors.New("ml: split ratio must be in (0, 1]")

	// ErrInvalidTrainerConfig is returned for non-positive epochs or learning rate.
	ErrInvalidTrainerConfig = errors.New("ml: invalid trainer config")
)
