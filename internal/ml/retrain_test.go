package ml

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"risk-model/internal/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrainer_RunOnce(t *testing.T) {
	dir := t.TempDir()
	mm, err := NewModelManager(filepath.Join(dir, "versions"))
	require.NoError(t, err)

	pipeline := testPipeline(nil)
	pipeline.Trainer.Epochs = 200

	var hooked []string
	rt := &Retrainer{
		Pipeline: pipeline,
		Manager:  mm,
		Load: func(ctx context.Context) ([]features.Observation, error) {
			return linearObservations(10), nil
		},
		ModelPath:    filepath.Join(dir, "risk-model.json"),
		SnapshotPath: filepath.Join(dir, "metrics_snapshot.json"),
		OnModel: []func(context.Context, ModelArtifact) error{
			func(_ context.Context, a ModelArtifact) error {
				hooked = append(hooked, a.RunID)
				return nil
			},
			func(context.Context, ModelArtifact) error {
				return errors.New("publisher down")
			},
		},
	}

	res, err := rt.RunOnce(context.Background())
	require.NoError(t, err, "hook failures do not fail the run")
	assert.Equal(t, []string{res.Artifact.RunID}, hooked)
	assert.Len(t, mm.ListVersions(), 1)

	p, err := LoadPredictor(rt.ModelPath, nil)
	require.NoError(t, err)
	assert.Equal(t, res.Artifact.RunID, p.Artifact().RunID)
}

type recordingArchiver struct {
	runIDs []string
	err    error
}

func (r *recordingArchiver) Archive(runID string, _ time.Time, artifact interface{}) error {
	if _, ok := artifact.(ModelArtifact); ok {
		r.runIDs = append(r.runIDs, runID)
	}
	return r.err
}

func TestRetrainer_Archive(t *testing.T) {
	dir := t.TempDir()
	pipeline := testPipeline(nil)
	pipeline.Trainer.Epochs = 50

	archive := &recordingArchiver{}
	rt := &Retrainer{
		Pipeline: pipeline,
		Load: func(ctx context.Context) ([]features.Observation, error) {
			return linearObservations(10), nil
		},
		ModelPath:    filepath.Join(dir, "risk-model.json"),
		SnapshotPath: filepath.Join(dir, "metrics_snapshot.json"),
		Archive:      archive,
	}

	res, err := rt.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{res.Artifact.RunID}, archive.runIDs)

	archive.err = errors.New("bucket full")
	_, err = rt.RunOnce(context.Background())
	require.NoError(t, err, "archive failures do not fail the run")
	assert.Len(t, archive.runIDs, 2)
}

func TestRetrainer_RunOnceErrors(t *testing.T) {
	loadErr := errors.New("disk gone")
	rt := &Retrainer{
		Pipeline: testPipeline(nil),
		Load: func(ctx context.Context) ([]features.Observation, error) {
			return nil, loadErr
		},
	}
	_, err := rt.RunOnce(context.Background())
	assert.True(t, errors.Is(err, loadErr))

	rt.Load = func(ctx context.Context) ([]features.Observation, error) { return nil, nil }
	_, err = rt.RunOnce(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyDataset))
}

func TestRetrainer_StartStopsOnCancel(t *testing.T) {
	pipeline := testPipeline(nil)
	pipeline.Trainer.Epochs = 5

	runs := make(chan struct{}, 10)
	rt := &Retrainer{
		Pipeline: pipeline,
		Load: func(ctx context.Context) ([]features.Observation, error) {
			select {
			case runs <- struct{}{}:
			default:
			}
			return linearObservations(4), nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rt.Start(ctx, 10*time.Millisecond)
		close(done)
	}()

	select {
	case <-runs:
	case <-time.After(2 * time.Second):
		t.Fatal("retrainer never ran")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retrainer did not stop")
	}
}
