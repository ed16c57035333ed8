// Package postgres provides a PostgreSQL-backed metadata store.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/quantumstore/quantumstore/internal/store"
)

// Store is a PostgreSQL metadata store.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS files (
	id          TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	file_type   TEXT NOT NULL DEFAULT 'unknown',
	size_bytes  BIGINT NOT NULL DEFAULT 0,
	category    TEXT NOT NULL DEFAULT 'uncategorized',
	uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	metadata    JSONB
);
CREATE INDEX IF NOT EXISTS files_uploaded_at_idx ON files (uploaded_at);
`

// New creates a new PostgreSQL metadata store and ensures the schema.
func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveFile upserts the record for its id.
func (s *Store) SaveFile(ctx context.Context, rec store.FileRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}

	var metadata []byte
	if rec.Metadata != nil {
		var err error
		metadata, err = json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", rec.ID, err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, filename, file_type, size_bytes, category, uploaded_at, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			file_type = EXCLUDED.file_type,
			size_bytes = EXCLUDED.size_bytes,
			category = EXCLUDED.category,
			uploaded_at = EXCLUDED.uploaded_at,
			metadata = EXCLUDED.metadata`,
		rec.ID, rec.Filename, rec.FileType, rec.SizeBytes, rec.Category,
		rec.UploadedAt, metadata)
	if err != nil {
		return fmt.Errorf("upsert file %s: %w", rec.ID, err)
	}
	return nil
}

// GetFile returns the record for id, or store.ErrNotFound.
func (s *Store) GetFile(ctx context.Context, id string) (store.FileRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, filename, file_type, size_bytes, category, uploaded_at, metadata
		 FROM files WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return store.FileRecord{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return store.FileRecord{}, fmt.Errorf("query file %s: %w", id, err)
	}
	return rec, nil
}

// ListFiles returns all records ordered by upload time.
func (s *Store) ListFiles(ctx context.Context) ([]store.FileRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, file_type, size_bytes, category, uploaded_at, metadata
		 FROM files ORDER BY uploaded_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var records []store.FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file rows: %w", err)
	}
	return records, nil
}

// Count returns the number of records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM files`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (store.FileRecord, error) {
	var rec store.FileRecord
	var metadata []byte
	if err := row.Scan(&rec.ID, &rec.Filename, &rec.FileType, &rec.SizeBytes,
		&rec.Category, &rec.UploadedAt, &metadata); err != nil {
		return store.FileRecord{}, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return store.FileRecord{}, fmt.Errorf("parse metadata: %w", err)
		}
	}
	return rec, nil
}
