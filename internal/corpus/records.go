package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveRecords writes records as a JSON array, replacing path atomically.
func SaveRecords[T Embeddable](path string, records []EmbeddingRecord[T]) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".records-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if err := json.NewEncoder(tmp).Encode(records); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move records into place: %w", err)
	}
	return nil
}

// LoadRecords reads a JSON array of records written by SaveRecords.
func LoadRecords[T Embeddable](path string) ([]EmbeddingRecord[T], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	var records []EmbeddingRecord[T]
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode records file %s: %w", path, err)
	}
	return records, nil
}
