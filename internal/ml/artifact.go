package ml

import (
	"time"

	"risk-model/internal/common"
	"risk-model/internal/features"
)

// CoefficientSet is the persisted, named form of Coefficients.
type CoefficientSet struct {
	Intercept         float64 `json:"intercept"`
	Volatility        float64 `json:"volatility"`
	VolatilitySquared float64 `json:"volatilitySquared"`
	MaxLossPct        float64 `json:"maxLossPct"`
}

// Coefficients converts the named form back into an array in basis order.
func (c CoefficientSet) Coefficients() Coefficients {
	return Coefficients{c.Intercept, c.Volatility, c.VolatilitySquared, c.MaxLossPct}
}

// Provenance records how a model was trained.
type Provenance struct {
	Source         string  `json:"source"`
	Split          string  `json:"split"`
	Algorithm      string  `json:"algorithm"`
	Epochs         int     `json:"epochs"`
	LearningRate   float64 `json:"learningRate"`
	FeatureScaling string  `json:"featureScaling"`
}

// NewProvenance fills the static fields of a Provenance for one run.
func NewProvenance(source string, ratio float64, cfg TrainerConfig) Provenance {
	return Provenance{
		Source:         source,
		Split:          SplitDescription(ratio),
		Algorithm:      common.AlgorithmName,
		Epochs:         cfg.Epochs,
		LearningRate:   cfg.LearningRate,
		FeatureScaling: common.FeatureScaling,
	}
}

// ModelArtifact is the record handed to the persistence layer and read
// back by risk scoring. It is built once per run and not modified after.
type ModelArtifact struct {
	RunID        string         `json:"runId,omitempty"`
	ModelType    string         `json:"modelType"`
	Target       string         `json:"target"`
	Features     []string       `json:"features"`
	Coefficients CoefficientSet `json:"coefficients"`
	Metrics      Metrics        `json:"metrics"`
	Training     Provenance     `json:"training"`
	GeneratedBy  string         `json:"generatedBy,omitempty"`
	GeneratedAt  time.Time      `json:"generatedAt"`
}

// BuildArtifact assembles the persisted model record. Coefficients and
// metrics are rounded to 4 decimal places.
func BuildArtifact(coef Coefficients, m Metrics, prov Provenance, generatedBy string, generatedAt time.Time) ModelArtifact {
	return ModelArtifact{
		ModelType: common.ModelType,
		Target:    common.TargetName,
		Features:  features.Names(),
		Coefficients: CoefficientSet{
			Intercept:         Round4(coef[0]),
			Volatility:        Round4(coef[1]),
			VolatilitySquared: Round4(coef[2]),
			MaxLossPct:        Round4(coef[3]),
		},
		Metrics:     m.Rounded(),
		Training:    prov,
		GeneratedBy: generatedBy,
		GeneratedAt: generatedAt.UTC(),
	}
}

// MetricsSnapshot is the small record written next to the model for
// dashboards that only care about accuracy.
type MetricsSnapshot struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Dataset     string    `json:"dataset"`
	Metrics     Metrics   `json:"metrics"`
}

// BuildSnapshot derives the metrics snapshot from an artifact.
func BuildSnapshot(a ModelArtifact) MetricsSnapshot {
	return MetricsSnapshot{
		GeneratedAt: a.GeneratedAt,
		Dataset:     a.Training.Source,
		Metrics:     a.Metrics,
	}
}
