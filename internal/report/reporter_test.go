package report

import (
	"bytes"
	"testing"
	"time"

	"risk-model/internal/features"
	"risk-model/internal/ml"
	"risk-model/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArtifact() ml.ModelArtifact {
	return ml.ModelArtifact{
		RunID:     "run-1",
		ModelType: "linear_regression",
		Target:    "realizedDrawdownPct",
		Features:  features.Names(),
		Coefficients: ml.CoefficientSet{
			Intercept:         1,
			Volatility:        2.5,
			VolatilitySquared: -0.125,
			MaxLossPct:        0.3,
		},
		Metrics: ml.Metrics{MAE: 0.0123, RMSE: 0.02, R2: 0.9871, TrainRows: 8, TestRows: 2},
		Training: ml.Provenance{
			Source:         "ml/data/training_data.csv",
			Split:          "time-order holdout (80/20)",
			Algorithm:      "batch gradient descent",
			Epochs:         12000,
			LearningRate:   0.015,
			FeatureScaling: "z-score",
		},
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, testArtifact()))

	out := buf.String()
	assert.Contains(t, out, "Model run-1 (linear_regression -> realizedDrawdownPct)")
	assert.Contains(t, out, "volatilitySquared")
	assert.Contains(t, out, "-0.1250")
	assert.Contains(t, out, "2.5000")
	assert.Contains(t, out, "0.9871")
	assert.Contains(t, out, "Train rows")
	assert.Contains(t, out, "time-order holdout (80/20)")
	assert.Contains(t, out, "2026-01-02T03:04:05Z")
}

func TestWriteVersions(t *testing.T) {
	var buf bytes.Buffer
	WriteVersions(&buf, []ml.ModelVersion{
		{Version: "v2", RunID: "run-2", CreatedAt: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), IsActive: true},
		{Version: "v1", RunID: "run-1", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
	})

	out := buf.String()
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "*")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("run-2")), bytes.Index(buf.Bytes(), []byte("run-1")))
}

func TestWriteHistory(t *testing.T) {
	a := testArtifact()
	rec, err := storage.NewArtifactRecord(a.RunID, a.GeneratedAt, a)
	require.NoError(t, err)
	broken := storage.ArtifactRecord{
		RunID:       "run-0",
		GeneratedAt: a.GeneratedAt.Add(-time.Hour),
		Payload:     []byte(`{"modelType":"xgboost"}`),
	}

	var buf bytes.Buffer
	WriteHistory(&buf, []storage.ArtifactRecord{broken, rec})

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "ml/data/training_data.csv")
	assert.Contains(t, out, "0.0123")
	assert.Contains(t, out, "0.9871")
	assert.Contains(t, out, "run-0")
	assert.Contains(t, out, "invalid")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("run-0")), bytes.Index(buf.Bytes(), []byte("run-1")))
}
