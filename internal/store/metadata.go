package store

import (
	"database/sql"
	"time"
)

// Metadata keys.
const (
	KeyLastRunID = "last_run_id"
)

// SetMetadata upserts a key-value pair in the run_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO run_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM run_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// RecordUpload remembers which run analysed the file with the given content hash.
func (s *Store) RecordUpload(hash, filename, runID string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO uploads (hash, filename, run_id, uploaded_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET filename = ?, run_id = ?, uploaded_at = ?`,
		hash, filename, runID, now, filename, runID, now,
	)
	return err
}

// RunForUpload returns the run id recorded for a content hash.
// Returns empty string and nil error if the file was never analysed.
func (s *Store) RunForUpload(hash string) (string, error) {
	var runID string
	err := s.db.QueryRow(`SELECT run_id FROM uploads WHERE hash = ?`, hash).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return runID, err
}
