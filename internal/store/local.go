package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// LocalStore persists one JSON document per file id under
// <dataDir>/metadata/. It is the default backend and needs no external
// services.
type LocalStore struct {
	metadataDir string

	mu sync.RWMutex
}

// NewLocal creates a local store rooted at dataDir, creating the layout if
// needed.
func NewLocal(dataDir string) (*LocalStore, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	metadataDir := filepath.Join(dataDir, "metadata")
	if err := os.MkdirAll(metadataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create metadata dir %s: %w", metadataDir, err)
	}
	return &LocalStore{metadataDir: metadataDir}, nil
}

func (s *LocalStore) recordPath(id string) string {
	return filepath.Join(s.metadataDir, id+".json")
}

// SaveFile writes the record atomically: temp file then rename.
func (s *LocalStore) SaveFile(ctx context.Context, rec FileRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	if strings.ContainsAny(rec.ID, "/\\") {
		return fmt.Errorf("invalid record id %q", rec.ID)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.metadataDir, rec.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write record %s: %w", rec.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close record %s: %w", rec.ID, err)
	}
	if err := os.Rename(tmp.Name(), s.recordPath(rec.ID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("install record %s: %w", rec.ID, err)
	}
	return nil
}

// GetFile reads one record.
func (s *LocalStore) GetFile(ctx context.Context, id string) (FileRecord, error) {
	if strings.ContainsAny(id, "/\\") {
		return FileRecord{}, fmt.Errorf("invalid record id %q", id)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return FileRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return FileRecord{}, fmt.Errorf("read record %s: %w", id, err)
	}

	var rec FileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return FileRecord{}, fmt.Errorf("parse record %s: %w", id, err)
	}
	return rec, nil
}

// ListFiles reads every record, ordered by upload time then id. A record
// that fails to parse is skipped rather than failing the listing.
func (s *LocalStore) ListFiles(ctx context.Context) ([]FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.metadataDir)
	if err != nil {
		return nil, fmt.Errorf("read metadata dir: %w", err)
	}

	var records []FileRecord
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.metadataDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read record %s: %w", e.Name(), err)
		}
		var rec FileRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].UploadedAt.Equal(records[j].UploadedAt) {
			return records[i].UploadedAt.Before(records[j].UploadedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// Count returns the number of stored records.
func (s *LocalStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.metadataDir)
	if err != nil {
		return 0, fmt.Errorf("read metadata dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			n++
		}
	}
	return n, nil
}

// Close is a no-op for the local backend.
func (s *LocalStore) Close() error {
	return nil
}
