package main

import (
	"testing"
	"time"

	"risk-model/internal/features"
	"risk-model/internal/metrics"
	"risk-model/internal/ml"
	"risk-model/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func archivedArtifact(runID string, at time.Time, intercept float64) ml.ModelArtifact {
	return ml.ModelArtifact{
		RunID:        runID,
		ModelType:    "linear_regression",
		Target:       "realizedDrawdownPct",
		Features:     features.Names(),
		Coefficients: ml.CoefficientSet{Intercept: intercept, Volatility: 1},
		GeneratedAt:  at,
	}
}

func TestRestoreLatest(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	mw := metrics.NewWrapper(metrics.NewWithRegistry(prometheus.NewRegistry()))

	_, err = restoreLatest(store, mw)
	assert.Error(t, err, "empty history")

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Archive("run-old", base, archivedArtifact("run-old", base, 1)))
	require.NoError(t, store.Archive("run-new", base.Add(time.Hour), archivedArtifact("run-new", base.Add(time.Hour), 2)))

	p, err := restoreLatest(store, mw)
	require.NoError(t, err)
	assert.Equal(t, "run-new", p.Artifact().RunID)

	got, err := p.PredictDrawdown(0.5, 3)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, got, 1e-12)
}

func TestRestoreLatest_RejectsForeignArtifact(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	a := archivedArtifact("run-x", time.Now(), 0)
	a.ModelType = "xgboost"
	require.NoError(t, store.Archive(a.RunID, a.GeneratedAt, a))

	_, err = restoreLatest(store, metrics.NewWrapper(metrics.NewWithRegistry(prometheus.NewRegistry())))
	assert.Error(t, err)
}
