package storage

import (
	"encoding/json"
	"fmt"

	"risk-model/internal/features"

	"go.etcd.io/bbolt"
)

// observationKey orders rows of one dataset by insertion sequence.
func observationKey(dataset string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s_%020d", dataset, seq))
}

func datasetPrefix(dataset string) []byte {
	return []byte(dataset + "_")
}

// inDataset reports whether k belongs to dataset exactly, so "btc" does not
// pick up rows of "btc_perp".
func inDataset(k, prefix []byte) bool {
	return len(k) == len(prefix)+20
}

// StoreObservations appends rows to a dataset in one transaction. Order is
// preserved: rows read back come out in the order they were stored.
func (s *Store) StoreObservations(dataset string, obs []features.Observation) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(observationsBucket))

		for _, o := range obs {
			data, err := json.Marshal(o)
			if err != nil {
				return fmt.Errorf("marshal observation: %w", err)
			}

			seq, err := b.NextSequence()
			if err != nil {
				return fmt.Errorf("next sequence: %w", err)
			}
			if err := b.Put(observationKey(dataset, seq), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetObservations returns every row of a dataset in insertion order.
func (s *Store) GetObservations(dataset string) ([]features.Observation, error) {
	var obs []features.Observation

	prefix := datasetPrefix(dataset)
	err := s.scanPrefix(observationsBucket, prefix, func(k, v []byte) error {
		if !inDataset(k, prefix) {
			return nil
		}
		var o features.Observation
		if err := json.Unmarshal(v, &o); err != nil {
			return fmt.Errorf("unmarshal observation %s: %w", k, err)
		}
		obs = append(obs, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return obs, nil
}

// DeleteDataset removes every row of a dataset.
func (s *Store) DeleteDataset(dataset string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(observationsBucket))
		prefix := datasetPrefix(dataset)

		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
			if !inDataset(k, prefix) {
				continue
			}
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
