package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// ArtifactRecord is one stored training run. Payload is the artifact JSON as
// written for risk scoring.
type ArtifactRecord struct {
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Payload     json.RawMessage `json:"payload"`
}

// NewArtifactRecord marshals artifact into a record for StoreArtifact.
func NewArtifactRecord(runID string, generatedAt time.Time, artifact interface{}) (ArtifactRecord, error) {
	payload, err := json.Marshal(artifact)
	if err != nil {
		return ArtifactRecord{}, fmt.Errorf("marshal artifact: %w", err)
	}
	return ArtifactRecord{RunID: runID, GeneratedAt: generatedAt, Payload: payload}, nil
}

// artifactKey sorts records by generation time; the run id breaks ties.
func artifactKey(ts time.Time, runID string) []byte {
	return []byte(fmt.Sprintf("%020d_%s", ts.UnixNano(), runID))
}

// StoreArtifact saves a training run.
func (s *Store) StoreArtifact(rec ArtifactRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(artifactsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal artifact: %w", err)
		}
		return b.Put(artifactKey(rec.GeneratedAt, rec.RunID), data)
	})
}

// Archive records a trained artifact in the run history.
func (s *Store) Archive(runID string, generatedAt time.Time, artifact interface{}) error {
	rec, err := NewArtifactRecord(runID, generatedAt, artifact)
	if err != nil {
		return err
	}
	return s.StoreArtifact(rec)
}

// GetArtifacts returns runs generated within [start, end], oldest first.
func (s *Store) GetArtifacts(start, end time.Time) ([]ArtifactRecord, error) {
	var records []ArtifactRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(artifactsBucket)).Cursor()

		startKey := []byte(fmt.Sprintf("%020d", start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%020d~", end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && compareKeys(k, endKey) <= 0; k, v = c.Next() {
			var rec ArtifactRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}

// LatestArtifact returns the most recently generated run, or nil when none
// has been stored.
func (s *Store) LatestArtifact() (*ArtifactRecord, error) {
	var rec *ArtifactRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		_, v := tx.Bucket([]byte(artifactsBucket)).Cursor().Last()
		if v == nil {
			return nil
		}
		rec = &ArtifactRecord{}
		if err := json.Unmarshal(v, rec); err != nil {
			return fmt.Errorf("unmarshal artifact: %w", err)
		}
		return nil
	})

	return rec, err
}
