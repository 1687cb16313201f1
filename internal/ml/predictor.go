package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"risk-model/internal/common"
	"risk-model/internal/features"

	"github.com/rs/zerolog/log"
)

// ErrPredictorUnavailable is returned by a nil or empty predictor.
var ErrPredictorUnavailable = errors.New("ml: predictor not available")

// Predictor scores drawdown with the original-space coefficients of a
// trained artifact. It is safe for concurrent use; Swap replaces the model
// in place after a retrain.
type Predictor struct {
	mu       sync.RWMutex
	artifact ModelArtifact
	coef     Coefficients
	loadedAt time.Time
	metrics  MetricsInterface
}

// NewPredictor wraps an in-memory artifact.
func NewPredictor(a ModelArtifact, metrics MetricsInterface) (*Predictor, error) {
	if err := validateArtifact(a); err != nil {
		return nil, err
	}
	return &Predictor{
		artifact: a,
		coef:     a.Coefficients.Coefficients(),
		loadedAt: time.Now(),
		metrics:  metrics,
	}, nil
}

// LoadPredictor reads an artifact JSON file written by ModelManager.
func LoadPredictor(path string, metrics MetricsInterface) (*Predictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}

	a, err := ParseArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}

	p, err := NewPredictor(a, metrics)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}

	log.Info().
		Str("model_path", path).
		Str("run_id", a.RunID).
		Time("generated_at", a.GeneratedAt).
		Msg("Risk model loaded")
	return p, nil
}

// ParseArtifact decodes and validates a serialized artifact, whether it was
// read from a model file or from the run history.
func ParseArtifact(data []byte) (ModelArtifact, error) {
	var a ModelArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return ModelArtifact{}, fmt.Errorf("parse artifact: %w", err)
	}
	if err := validateArtifact(a); err != nil {
		return ModelArtifact{}, err
	}
	return a, nil
}

func validateArtifact(a ModelArtifact) error {
	if a.ModelType != common.ModelType {
		return fmt.Errorf("unsupported model type %q", a.ModelType)
	}
	if a.Target != common.TargetName {
		return fmt.Errorf("unsupported target %q", a.Target)
	}
	names := features.Names()
	if len(a.Features) != len(names) {
		return fmt.Errorf("expected %d features, got %d", len(names), len(a.Features))
	}
	for i, n := range names {
		if a.Features[i] != n {
			return fmt.Errorf("feature %d: expected %q, got %q", i, n, a.Features[i])
		}
	}
	if !a.Coefficients.Coefficients().Finite() {
		return fmt.Errorf("non-finite coefficients %+v", a.Coefficients)
	}
	return nil
}

// PredictDrawdown implements PredictorInterface.
func (p *Predictor) PredictDrawdown(volatility, maxLossPct float64) (float64, error) {
	if p == nil {
		return 0, ErrPredictorUnavailable
	}
	start := time.Now()

	p.mu.RLock()
	coef := p.coef
	p.mu.RUnlock()

	y := coef.Predict(features.Build(features.Observation{Volatility: volatility, MaxLossPct: maxLossPct}))

	if p.metrics != nil {
		p.metrics.PredictionsInc()
		p.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
	}
	return y, nil
}

// Swap installs a newly trained artifact.
func (p *Predictor) Swap(a ModelArtifact) error {
	if p == nil {
		return ErrPredictorUnavailable
	}
	if err := validateArtifact(a); err != nil {
		return err
	}

	p.mu.Lock()
	p.artifact = a
	p.coef = a.Coefficients.Coefficients()
	p.loadedAt = time.Now()
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.ModelAgeSet(0)
	}
	return nil
}

// Artifact returns the artifact currently in use.
func (p *Predictor) Artifact() ModelArtifact {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.artifact
}

// ModelAge returns how long ago the current artifact was generated.
func (p *Predictor) ModelAge() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.artifact.GeneratedAt)
}

// UpdateModelAge publishes the current model age to metrics.
func (p *Predictor) UpdateModelAge() {
	if p == nil || p.metrics == nil {
		return
	}
	p.metrics.ModelAgeSet(p.ModelAge().Seconds())
}
