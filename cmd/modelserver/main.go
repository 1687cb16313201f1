package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"risk-model/internal/cfg"
	"risk-model/internal/dataset"
	"risk-model/internal/features"
	"risk-model/internal/metrics"
	"risk-model/internal/ml"
	"risk-model/internal/publish"
	"risk-model/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mw := metrics.NewWrapper(metrics.New())

	var store *storage.Store
	if c.UsesStore() {
		store, err = storage.New(c.StorePath)
		if err != nil {
			log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
			store = nil
		} else {
			defer store.Close()
		}
	}

	predictor, err := ml.LoadPredictor(c.ModelPath, mw)
	if err != nil && store != nil {
		log.Warn().Err(err).Str("path", c.ModelPath).Msg("Model file unusable, restoring latest archived run")
		predictor, err = restoreLatest(store, mw)
	}
	if err != nil {
		log.Warn().Err(err).Str("path", c.ModelPath).Msg("No model loaded, serving fallback predictions")
		predictor = nil
	}
	fallback := ml.NewFallbackPredictor(c.FallbackVolPenalty, mw)
	server := ml.NewModelServer(predictor, fallback, mw, c.ServerPort)

	var wg sync.WaitGroup
	startMetricsServer(ctx, &wg, c.MetricsPort)

	if c.RetrainInterval > 0 {
		retrainer, err := newRetrainer(c, store, server, mw)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up retraining")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			retrainer.Start(ctx, c.RetrainInterval)
		}()
		log.Info().Dur("interval", c.RetrainInterval).Msg("Periodic retraining enabled")
	}

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("model server failed")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown model server")
	}
	wg.Wait()
}

// newRetrainer wires the retraining loop: every new model is persisted,
// swapped into the server, archived and published.
func newRetrainer(c cfg.Settings, store *storage.Store, server *ml.ModelServer, mw *metrics.MetricsWrapper) (*ml.Retrainer, error) {
	manager, err := ml.NewModelManager(c.ModelsDir)
	if err != nil {
		return nil, err
	}

	var source dataset.Store
	if store != nil {
		source = store
	}
	load := dataset.Source(c.DataPath, source, c.Dataset)

	pipeline := ml.NewPipeline(c.Trainer(), c.SplitRatio, dataset.Describe(c.DataPath, source, c.Dataset))
	pipeline.Metrics = mw

	rt := &ml.Retrainer{
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
		rt.Archive = store
	}

	rt.OnModel = append(rt.OnModel, func(_ context.Context, a ml.ModelArtifact) error {
		return server.SetModel(a)
	})
	if c.PublishURL != "" {
		client := publish.NewClient(c.PublishURL, c.PublishTimeout)
		rt.OnModel = append(rt.OnModel, func(ctx context.Context, a ml.ModelArtifact) error {
			err := client.PublishArtifact(ctx, a)
			mw.PublishInc(err)
			return err
		})
	}
	return rt, nil
}

// restoreLatest builds a predictor from the most recent run in the store.
func restoreLatest(store *storage.Store, mw *metrics.MetricsWrapper) (*ml.Predictor, error) {
	rec, err := store.LatestArtifact()
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("no archived runs")
	}
	a, err := ml.ParseArtifact(rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("archived run %s: %w", rec.RunID, err)
	}
	p, err := ml.NewPredictor(a, mw)
	if err != nil {
		return nil, err
	}
	log.Info().Str("run_id", a.RunID).Time("generated_at", a.GeneratedAt).Msg("Risk model restored from run history")
	return p, nil
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, wg *sync.WaitGroup, port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		if err := server.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to shutdown metrics server")
		}
	}()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

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
