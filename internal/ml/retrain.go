package ml

import (
	"context"
	"fmt"
	"time"

	"risk-model/internal/features"

	"github.com/rs/zerolog/log"
)

// ArtifactArchiver keeps a history of every trained artifact.
type ArtifactArchiver interface {
	Archive(runID string, generatedAt time.Time, artifact interface{}) error
}

// Retrainer loads the current observations, runs the pipeline, persists the
// artifact, archives it and hands it to OnModel hooks (server swap, publisher).
type Retrainer struct {
	Pipeline     *Pipeline
	Manager      *ModelManager
	Load         func(ctx context.Context) ([]features.Observation, error)
	ModelPath    string
	SnapshotPath string
	Archive      ArtifactArchiver
	OnModel      []func(ctx context.Context, a ModelArtifact) error
}

// RunOnce performs one full training run. Hook errors are logged and do not
// fail the run once the artifact is persisted.
func (rt *Retrainer) RunOnce(ctx context.Context) (*Result, error) {
	obs, err := rt.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}

	res, err := rt.Pipeline.Run(ctx, obs)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	if rt.Manager != nil {
		if _, err := rt.Manager.Publish(res.Artifact, rt.ModelPath, rt.SnapshotPath); err != nil {
			return nil, fmt.Errorf("persist artifact: %w", err)
		}
	}

	if rt.Archive != nil {
		if err := rt.Archive.Archive(res.Artifact.RunID, res.Artifact.GeneratedAt, res.Artifact); err != nil {
			log.Error().Err(err).Str("run_id", res.Artifact.RunID).Msg("Failed to archive artifact")
		}
	}

	for _, hook := range rt.OnModel {
		if err := hook(ctx, res.Artifact); err != nil {
			log.Error().Err(err).Str("run_id", res.Artifact.RunID).Msg("Model hook failed")
		}
	}
	return res, nil
}

// Start retrains every interval until ctx is cancelled.
func (rt *Retrainer) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := rt.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("Scheduled retrain failed")
			}
		}
	}
}
