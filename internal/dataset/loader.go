// Package dataset loads training observations from CSV files and from the
// BoltDB store.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"risk-model/internal/common"
	"risk-model/internal/features"
	"risk-model/internal/ml"

	"github.com/rs/zerolog/log"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("dataset: missing column")

// Store is the subset of storage.Store used for dataset persistence.
type Store interface {
	StoreObservations(dataset string, obs []features.Observation) error
	GetObservations(dataset string) ([]features.Observation, error)
	DeleteDataset(dataset string) error
}

var requiredColumns = []string{
	common.ColumnVolatility,
	common.ColumnMaxLossPct,
	common.ColumnRealizedDrawdownPct,
}

// LoadCSV reads observations from a CSV file with a header row. Columns are
// matched by name so their order does not matter; extra columns are ignored.
func LoadCSV(path string) ([]features.Observation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	obs, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("rows", len(obs)).
		Msg("Loaded training data from CSV")

	return obs, nil
}

// ReadCSV parses observations from r. Row order is kept as read.
func ReadCSV(r io.Reader) ([]features.Observation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("no header row: %w", ml.ErrEmptyDataset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	cols := make([]int, len(requiredColumns))
	for i, name := range requiredColumns {
		idx, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
		cols[i] = idx
	}

	var obs []features.Observation
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var values [3]float64
		for i, idx := range cols {
			if idx >= len(record) {
				return nil, fmt.Errorf("line %d: %w %q", line, ErrMissingColumn, requiredColumns[i])
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s: %w", line, requiredColumns[i], err)
			}
			values[i] = v
		}

		obs = append(obs, features.Observation{
			Volatility:          values[0],
			MaxLossPct:          values[1],
			RealizedDrawdownPct: values[2],
		})
	}

	if len(obs) == 0 {
		return nil, fmt.Errorf("no data rows: %w", ml.ErrEmptyDataset)
	}
	return obs, nil
}

// LoadFromStore returns the stored rows of a dataset in insertion order.
func LoadFromStore(store Store, name string) ([]features.Observation, error) {
	obs, err := store.GetObservations(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", name, err)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("dataset %s: %w", name, ml.ErrEmptyDataset)
	}

	log.Info().
		Str("dataset", name).
		Int("rows", len(obs)).
		Msg("Loaded training data from store")

	return obs, nil
}

// ImportCSV replaces the named dataset with the rows of a CSV file and
// returns how many rows were written.
func ImportCSV(store Store, name, path string) (int, error) {
	obs, err := LoadCSV(path)
	if err != nil {
		return 0, err
	}
	if err := store.DeleteDataset(name); err != nil {
		return 0, fmt.Errorf("failed to clear dataset %s: %w", name, err)
	}
	if err := store.StoreObservations(name, obs); err != nil {
		return 0, fmt.Errorf("failed to store dataset %s: %w", name, err)
	}
	return len(obs), nil
}

// Source returns a loader for the retraining loop. It reads the named
// dataset from store, or the CSV at path when store is nil.
func Source(path string, store Store, name string) func(context.Context) ([]features.Observation, error) {
	if store == nil {
		return func(context.Context) ([]features.Observation, error) {
			return LoadCSV(path)
		}
	}
	return func(context.Context) ([]features.Observation, error) {
		return LoadFromStore(store, name)
	}
}

// Describe names the training source as recorded in the model artifact.
func Describe(path string, store Store, name string) string {
	if store == nil {
		return path
	}
	return "boltdb:" + name
}
