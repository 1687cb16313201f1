package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"risk-model/internal/cfg"
	"risk-model/internal/common"
	"risk-model/internal/features"
	"risk-model/internal/storage"
)

func main() {
	var (
		outPath   = flag.String("out", cfg.Defaults().DataPath, "Output CSV path")
		storePath = flag.String("store", "", "Also write rows to this BoltDB directory")
		dataset   = flag.String("dataset", "training", "Dataset name inside the store")
		rows      = flag.Int("rows", 500, "Number of rows to generate")
		noise     = flag.Float64("noise", 0.15, "Std of the drawdown noise, in percent")
		seed      = flag.Int64("seed", 42, "Random seed")
	)
	flag.Parse()

	fmt.Printf("Generating %d training rows...\n", *rows)
	fmt.Printf("  Output: %s\n", *outPath)
	fmt.Printf("  Noise: %.3f\n", *noise)

	obs := generateObservations(rand.New(rand.NewSource(*seed)), *rows, *noise)

	if err := writeCSV(*outPath, obs); err != nil {
		log.Fatalf("Failed to write CSV: %v", err)
	}

	if *storePath != "" {
		if err := os.MkdirAll(*storePath, 0o755); err != nil {
			log.Fatalf("Failed to create store directory: %v", err)
		}
		store, err := storage.New(*storePath)
		if err != nil {
			log.Fatalf("Failed to create storage: %v", err)
		}
		defer store.Close()

		if err := store.DeleteDataset(*dataset); err != nil {
			log.Fatalf("Failed to clear dataset: %v", err)
		}
		if err := store.StoreObservations(*dataset, obs); err != nil {
			log.Fatalf("Failed to store rows: %v", err)
		}
		fmt.Printf("  Stored %d rows in dataset %s\n", len(obs), *dataset)
	}

	fmt.Printf("✓ Generated %d rows\n", len(obs))
}

// generateObservations simulates trades whose volatility drifts through calm
// and stressed regimes. Realized drawdown grows with volatility (convexly)
// and with the stop distance.
func generateObservations(rng *rand.Rand, n int, noise float64) []features.Observation {
	obs := make([]features.Observation, 0, n)

	vol := 0.8
	for i := 0; i < n; i++ {
		// Mean-reverting volatility with occasional shocks
		vol += 0.1*(1.0-vol) + 0.08*rng.NormFloat64()
		if rng.Float64() < 0.03 {
			vol += 1.5 * rng.Float64()
		}
		vol = math.Max(vol, 0.05)

		maxLoss := 1 + rng.Float64()*9 // stop distance 1%-10%
		drawdown := 0.8 + 3.2*vol + 1.5*vol*vol + 0.35*maxLoss + noise*rng.NormFloat64()

		obs = append(obs, features.Observation{
			Volatility:          round(vol, 4),
			MaxLossPct:          round(maxLoss, 2),
			RealizedDrawdownPct: round(math.Max(drawdown, 0), 4),
		})
	}
	return obs
}

func writeCSV(path string, obs []features.Observation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{common.ColumnVolatility, common.ColumnMaxLossPct, common.ColumnRealizedDrawdownPct}); err != nil {
		return err
	}
	for _, o := range obs {
		record := []string{
			strconv.FormatFloat(o.Volatility, 'f', -1, 64),
			strconv.FormatFloat(o.MaxLossPct, 'f', -1, 64),
			strconv.FormatFloat(o.RealizedDrawdownPct, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
