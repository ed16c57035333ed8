// Package store defines the metadata store for uploaded file records.
// Implementations persist one record per file id; content bytes live on
// disk next to the record and are not part of the interface.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for a file id.
var ErrNotFound = errors.New("file not found")

// FileRecord is one uploaded file's metadata.
type FileRecord struct {
	ID         string         `json:"id"`
	Filename   string         `json:"filename"`
	FileType   string         `json:"file_type"`
	SizeBytes  int64          `json:"size_bytes"`
	Category   string         `json:"category"`
	UploadedAt time.Time      `json:"uploaded_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Store is the metadata store interface.
type Store interface {
	// SaveFile inserts or replaces the record for its id.
	SaveFile(ctx context.Context, rec FileRecord) error

	// GetFile returns the record for id, or ErrNotFound.
	GetFile(ctx context.Context, id string) (FileRecord, error)

	// ListFiles returns all records, ordered by upload time.
	ListFiles(ctx context.Context) ([]FileRecord, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
