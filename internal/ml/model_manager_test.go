package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelManager_Publish(t *testing.T) {
	dir := t.TempDir()
	mm, err := NewModelManager(filepath.Join(dir, "versions"))
	require.NoError(t, err)

	modelPath := filepath.Join(dir, "model", "risk-model.json")
	snapshotPath := filepath.Join(dir, "ml", "metrics_snapshot.json")
	a := testArtifact(Coefficients{1, 2, 3, 4}, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

	v, err := mm.Publish(a, modelPath, snapshotPath)
	require.NoError(t, err)
	assert.True(t, v.IsActive)
	assert.Equal(t, a.RunID, v.RunID)

	data, err := os.ReadFile(modelPath)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])

	var back ModelArtifact
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, a.Coefficients, back.Coefficients)
	assert.True(t, a.GeneratedAt.Equal(back.GeneratedAt))

	var snap MetricsSnapshot
	data, err = os.ReadFile(snapshotPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "data.csv", snap.Dataset)
	assert.Equal(t, a.Metrics, snap.Metrics)
}

func TestModelManager_HistoryAndRollback(t *testing.T) {
	dir := t.TempDir()
	versionsDir := filepath.Join(dir, "versions")
	modelPath := filepath.Join(dir, "risk-model.json")

	mm, err := NewModelManager(versionsDir)
	require.NoError(t, err)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	first := testArtifact(Coefficients{1, 0, 0, 0}, base)
	second := testArtifact(Coefficients{2, 0, 0, 0}, base.Add(time.Hour))

	_, err = mm.Publish(first, modelPath, "")
	require.NoError(t, err)
	_, err = mm.Publish(second, modelPath, "")
	require.NoError(t, err)

	versions := mm.ListVersions()
	require.Len(t, versions, 2)
	assert.Equal(t, second.RunID, versions[0].RunID, "newest first")
	assert.Equal(t, second.RunID, mm.GetCurrentVersion().RunID)

	v, err := mm.Rollback(modelPath)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, v.RunID)

	p, err := LoadPredictor(modelPath, nil)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, p.Artifact().RunID)

	_, err = mm.Rollback(modelPath)
	assert.Error(t, err, "nothing older than the first model")

	// History survives a restart.
	reloaded, err := NewModelManager(versionsDir)
	require.NoError(t, err)
	assert.Len(t, reloaded.ListVersions(), 2)
	assert.Equal(t, first.RunID, reloaded.GetCurrentVersion().RunID)
}

func TestModelManager_ActivateUnknownVersion(t *testing.T) {
	mm, err := NewModelManager(t.TempDir())
	require.NoError(t, err)
	assert.Error(t, mm.ActivateVersion("nope"))

	_, err = mm.Rollback(filepath.Join(t.TempDir(), "m.json"))
	assert.Error(t, err)
}
