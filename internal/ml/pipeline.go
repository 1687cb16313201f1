package ml

import (
	"context"
	"fmt"
	"time"

	"risk-model/internal/common"
	"risk-model/internal/features"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MetricsInterface defines the metrics the pipeline and predictors report.
type MetricsInterface interface {
	TrainingRunsInc()
	TrainingFailuresInc()
	TrainingDurationObserve(float64)
	ModelQualitySet(Metrics)
	PredictionsInc()
	PredictionFailuresInc()
	PredictionLatencyObserve(float64)
	ModelAgeSet(float64)
	FallbackUseInc()
}

// Pipeline trains the drawdown model end to end:
// features -> split -> normalize -> train -> denormalize -> evaluate -> artifact.
type Pipeline struct {
	Trainer     TrainerConfig
	SplitRatio  float64
	Source      string
	GeneratedBy string
	Metrics     MetricsInterface

	// ReportEvery logs training MSE at debug level every ReportEvery epochs.
	// Zero disables it; an Observer already set on Trainer takes precedence.
	ReportEvery int

	// Clock and NewRunID are overridable for tests.
	Clock    func() time.Time
	NewRunID func() string
}

// Result holds every intermediate of a successful run.
type Result struct {
	Stats        NormalizationStats
	Weights      NormalizedWeights
	Coefficients Coefficients
	Metrics      Metrics
	Artifact     ModelArtifact
	Snapshot     MetricsSnapshot
	Duration     time.Duration
}

// NewPipeline returns a pipeline with production defaults.
func NewPipeline(cfg TrainerConfig, ratio float64, source string) *Pipeline {
	return &Pipeline{
		Trainer:     cfg,
		SplitRatio:  ratio,
		Source:      source,
		GeneratedBy: common.GeneratedBy,
		ReportEvery: DefaultReportEvery,
	}
}

// Run trains on obs and returns the complete result. A run either succeeds
// with a full artifact or returns an error and nothing else.
func (p *Pipeline) Run(ctx context.Context, obs []features.Observation) (*Result, error) {
	start := time.Now()
	res, err := p.run(ctx, obs)
	if err != nil {
		if p.Metrics != nil {
			p.Metrics.TrainingFailuresInc()
		}
		return nil, err
	}
	res.Duration = time.Since(start)

	if p.Metrics != nil {
		p.Metrics.TrainingRunsInc()
		p.Metrics.TrainingDurationObserve(res.Duration.Seconds())
		p.Metrics.ModelQualitySet(res.Metrics)
	}

	log.Info().
		Str("run_id", res.Artifact.RunID).
		Int("train_rows", res.Metrics.TrainRows).
		Int("test_rows", res.Metrics.TestRows).
		Float64("mae", res.Artifact.Metrics.MAE).
		Float64("rmse", res.Artifact.Metrics.RMSE).
		Float64("r2", res.Artifact.Metrics.R2).
		Dur("duration", res.Duration).
		Msg("Model trained")

	return res, nil
}

// trainerConfig attaches the progress logger to the trainer hyperparameters.
func (p *Pipeline) trainerConfig() TrainerConfig {
	cfg := p.Trainer
	if cfg.Observer != nil || p.ReportEvery <= 0 {
		return cfg
	}
	cfg.ReportEvery = p.ReportEvery
	cfg.Observer = func(epoch int, mse float64) {
		log.Debug().
			Int("epoch", epoch).
			Int("epochs", cfg.Epochs).
			Float64("mse", mse).
			Msg("Training progress")
	}
	return cfg
}

func (p *Pipeline) run(ctx context.Context, obs []features.Observation) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		return nil, ErrEmptyDataset
	}
	if err := p.Trainer.Validate(); err != nil {
		return nil, err
	}

	ratio := p.SplitRatio
	if ratio == 0 {
		ratio = DefaultSplitRatio
	}
	trainRows, testRows, err := Split(obs, ratio)
	if err != nil {
		return nil, err
	}

	trainRaw := features.BuildMatrix(trainRows)
	testRaw := features.BuildMatrix(testRows)
	trainY := features.Targets(trainRows)
	testY := features.Targets(testRows)

	stats := FitNormalizer(trainRaw)
	log.Debug().Interface("stats", stats).Msg("Normalization fitted")

	weights := Train(stats.Apply(trainRaw), trainY, p.trainerConfig())
	coef := Denormalize(weights, stats)
	if !coef.Finite() {
		log.Warn().Floats64("coefficients", coef[:]).Msg("Training produced non-finite coefficients")
	}

	m, err := Evaluate(testY, coef.PredictAll(testRaw))
	if err != nil {
		return nil, fmt.Errorf("evaluate holdout: %w", err)
	}
	m.TrainRows = len(trainRows)
	m.TestRows = len(testRows)

	now := time.Now
	if p.Clock != nil {
		now = p.Clock
	}
	newID := uuid.NewString
	if p.NewRunID != nil {
		newID = p.NewRunID
	}

	artifact := BuildArtifact(coef, m, NewProvenance(p.Source, ratio, p.Trainer), p.GeneratedBy, now())
	artifact.RunID = newID()

	return &Result{
		Stats:        stats,
		Weights:      weights,
		Coefficients: coef,
		Metrics:      m,
		Artifact:     artifact,
		Snapshot:     BuildSnapshot(artifact),
	}, nil
}
