package ml

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifact(coef Coefficients, at time.Time) ModelArtifact {
	a := BuildArtifact(coef, Metrics{TrainRows: 8, TestRows: 2}, NewProvenance("data.csv", 0.8, DefaultTrainerConfig()), "test", at)
	a.RunID = at.Format(time.RFC3339Nano)
	return a
}

func TestPredictor_PredictDrawdown(t *testing.T) {
	metrics := &MockMetrics{}
	p, err := NewPredictor(testArtifact(Coefficients{1, 2, 0.5, 0.1}, time.Now()), metrics)
	require.NoError(t, err)

	got, err := p.PredictDrawdown(2, 10)
	require.NoError(t, err)
	// 1 + 2*2 + 0.5*4 + 0.1*10
	assert.InDelta(t, 8.0, got, 1e-12)
	assert.Equal(t, 1, metrics.predictions)
}

func TestPredictor_NilSafety(t *testing.T) {
	var p *Predictor

	_, err := p.PredictDrawdown(0.1, 5)
	assert.True(t, errors.Is(err, ErrPredictorUnavailable))
	assert.True(t, errors.Is(p.Swap(ModelArtifact{}), ErrPredictorUnavailable))
	p.UpdateModelAge()
}

func TestNewPredictor_RejectsForeignArtifacts(t *testing.T) {
	good := testArtifact(Coefficients{}, time.Now())

	tests := []struct {
		name   string
		mutate func(a *ModelArtifact)
	}{
		{"model type", func(a *ModelArtifact) { a.ModelType = "xgboost" }},
		{"target", func(a *ModelArtifact) { a.Target = "pnl" }},
		{"feature count", func(a *ModelArtifact) { a.Features = a.Features[:2] }},
		{"feature order", func(a *ModelArtifact) { a.Features = []string{"maxLossPct", "volatility", "volatilitySquared"} }},
		{"non-finite coefficient", func(a *ModelArtifact) { a.Coefficients.Volatility = math.Inf(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := good
			a.Features = append([]string(nil), good.Features...)
			tt.mutate(&a)
			_, err := NewPredictor(a, nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadPredictor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model", "risk-model.json")
	a := testArtifact(Coefficients{0.5, 1, 0, 0}, time.Now().Add(-time.Hour))
	require.NoError(t, WriteJSON(path, a))

	p, err := LoadPredictor(path, nil)
	require.NoError(t, err)
	assert.Equal(t, a.RunID, p.Artifact().RunID)
	assert.InDelta(t, time.Hour.Seconds(), p.ModelAge().Seconds(), 60)

	got, err := p.PredictDrawdown(3, 0)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got, 1e-12)
}

func TestLoadPredictor_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPredictor(filepath.Join(dir, "missing.json"), nil)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadPredictor(bad, nil)
	assert.Error(t, err)
}

func TestParseArtifact(t *testing.T) {
	a := testArtifact(Coefficients{0.25, 1, 2, 0.1}, time.Now().UTC().Truncate(time.Second))
	data, err := json.Marshal(a)
	require.NoError(t, err)

	got, err := ParseArtifact(data)
	require.NoError(t, err)
	assert.Equal(t, a.RunID, got.RunID)
	assert.Equal(t, a.Coefficients, got.Coefficients)

	_, err = ParseArtifact([]byte("[]"))
	assert.Error(t, err)

	a.ModelType = "xgboost"
	data, err = json.Marshal(a)
	require.NoError(t, err)
	_, err = ParseArtifact(data)
	assert.Error(t, err)
}

func TestPredictor_Swap(t *testing.T) {
	metrics := &MockMetrics{}
	p, err := NewPredictor(testArtifact(Coefficients{1, 0, 0, 0}, time.Now()), metrics)
	require.NoError(t, err)

	next := testArtifact(Coefficients{2, 0, 0, 0}, time.Now().Add(time.Second))
	require.NoError(t, p.Swap(next))

	got, _ := p.PredictDrawdown(0.3, 4)
	assert.Equal(t, 2.0, got)
	assert.Equal(t, next.RunID, p.Artifact().RunID)
}

func TestPredictor_Concurrency(t *testing.T) {
	p, err := NewPredictor(testArtifact(Coefficients{1, 0, 0, 0}, time.Now()), &MockMetrics{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if g == 0 && i%10 == 0 {
					_ = p.Swap(testArtifact(Coefficients{1, 0, 0, 0}, time.Now()))
					continue
				}
				got, err := p.PredictDrawdown(0.2, 3)
				assert.NoError(t, err)
				assert.Equal(t, 1.0, got)
			}
		}(g)
	}
	wg.Wait()
}

func TestFallbackPredictor(t *testing.T) {
	metrics := &MockMetrics{}
	f := NewFallbackPredictor(0.5, metrics)

	got, err := f.PredictDrawdown(0.4, -10)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, got, 1e-12)
	assert.Equal(t, 1, metrics.fallbackUse)
	assert.Equal(t, 1, metrics.predictions)

	var _ PredictorInterface = f
	var _ PredictorInterface = (*Predictor)(nil)
}
