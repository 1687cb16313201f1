package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"risk-model/internal/cfg"
	"risk-model/internal/dataset"
	"risk-model/internal/features"
	"risk-model/internal/metrics"
	"risk-model/internal/ml"
	"risk-model/internal/publish"
	"risk-model/internal/report"
	"risk-model/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		dataPath     = flag.String("data", "", "Path to the training CSV")
		modelPath    = flag.String("model", "", "Output path of the model artifact")
		metricsPath  = flag.String("metrics", "", "Output path of the metrics snapshot")
		storePath    = flag.String("store", "", "BoltDB directory to read training data from")
		datasetName  = flag.String("dataset", "", "Dataset name inside the store")
		importCSV    = flag.Bool("import", false, "Import the CSV into the store before training")
		logLevel     = flag.String("log-level", "", "Log level: debug, info, warn, error")
		epochs       = flag.Int("epochs", 0, "Gradient descent epochs")
		learningRate = flag.Float64("lr", 0, "Gradient descent learning rate")
		splitRatio   = flag.Float64("split", 0, "Fraction of rows used for training")
		publishURL   = flag.String("publish", "", "Risk scoring service base URL")
		versions     = flag.Bool("versions", false, "Print the model version history and exit")
		rollback     = flag.Bool("rollback", false, "Restore the previous model version and exit")
		history      = flag.Bool("history", false, "Print the archived training runs from the store and exit")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	c, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	// Command line flags override config
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data":
			c.DataPath = *dataPath
		case "model":
			c.ModelPath = *modelPath
		case "metrics":
			c.MetricsSnapshotPath = *metricsPath
		case "store":
			c.StorePath = *storePath
		case "dataset":
			c.Dataset = *datasetName
		case "log-level":
			c.LogLevel = *logLevel
		case "epochs":
			c.Epochs = *epochs
		case "lr":
			c.LearningRate = *learningRate
		case "split":
			c.SplitRatio = *splitRatio
		case "publish":
			c.PublishURL = *publishURL
		}
	})
	if err := c.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid settings: %v\n", err)
		os.Exit(1)
	}

	setupLogging(c)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	manager, err := ml.NewModelManager(c.ModelsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize model manager")
	}

	if *versions {
		report.WriteVersions(os.Stdout, manager.ListVersions())
		return
	}
	if *rollback {
		v, err := manager.Rollback(c.ModelPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Rollback failed")
		}
		log.Info().Str("version", v.Version).Str("run_id", v.RunID).Str("path", c.ModelPath).Msg("Rolled back model")
		return
	}

	mw := metrics.NewWrapper(metrics.New())

	var store *storage.Store
	var source dataset.Store
	if c.UsesStore() {
		if err := os.MkdirAll(c.StorePath, 0o755); err != nil {
			log.Fatal().Err(err).Msg("Failed to create store directory")
		}
		store, err = storage.New(c.StorePath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open store")
		}
		defer store.Close()
		source = store
	}

	if *history {
		if store == nil {
			log.Fatal().Msg("-history requires -store or STORE_PATH")
		}
		records, err := store.GetArtifacts(time.Unix(0, 0), time.Now())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read run history")
		}
		report.WriteHistory(os.Stdout, records)
		return
	}

	if *importCSV {
		if source == nil {
			log.Fatal().Msg("-import requires -store or STORE_PATH")
		}
		n, err := dataset.ImportCSV(source, c.Dataset, c.DataPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Import failed")
		}
		log.Info().Int("rows", n).Str("dataset", c.Dataset).Msg("Imported training data")
	}

	load := dataset.Source(c.DataPath, source, c.Dataset)
	pipeline := ml.NewPipeline(c.Trainer(), c.SplitRatio, dataset.Describe(c.DataPath, source, c.Dataset))
	pipeline.Metrics = mw

	retrainer := &ml.Retrainer{
		Pipeline: pipeline,
		Manager:  manager,
		Load: func(ctx context.Context) ([]features.Observation, error) {
			obs, err := load(ctx)
			if err == nil {
				mw.ObservationsLoadedSet(len(obs))
			}
			return obs, err
		},
		ModelPath:    c.ModelPath,
		SnapshotPath: c.MetricsSnapshotPath,
	}
	if store != nil {
		retrainer.Archive = store
	}
	if c.PublishURL != "" {
		client := publish.NewClient(c.PublishURL, c.PublishTimeout)
		retrainer.OnModel = append(retrainer.OnModel, func(ctx context.Context, a ml.ModelArtifact) error {
			err := client.PublishArtifact(ctx, a)
			mw.PublishInc(err)
			return err
		})
	}

	res, err := retrainer.RunOnce(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Training failed")
	}

	event := log.Info().
		Str("model", c.ModelPath).
		Str("metrics", c.MetricsSnapshotPath)
	if v := manager.GetCurrentVersion(); v != nil {
		event = event.Str("version", v.Version)
	}
	event.Msg("Model written")

	if err := report.WriteSummary(os.Stdout, res.Artifact); err != nil {
		log.Error().Err(err).Msg("Failed to print summary")
	}
}

// setupLogging configures the global logger from settings.
func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
