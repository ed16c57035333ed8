package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testRecord(id, filename string, uploadedAt time.Time) FileRecord {
	return FileRecord{
		ID:         id,
		Filename:   filename,
		FileType:   "text",
		SizeBytes:  42,
		Category:   "text_docs",
		UploadedAt: uploadedAt,
		Metadata:   map[string]any{"source": "test"},
	}
}

func TestLocalStoreSaveGet(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rec := testRecord("f1", "notes.txt", time.Now().UTC().Truncate(time.Second))
	if err := s.SaveFile(ctx, rec); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	got, err := s.GetFile(ctx, "f1")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if got.Filename != rec.Filename || got.Category != rec.Category {
		t.Errorf("got %+v, want %+v", got, rec)
	}
	if !got.UploadedAt.Equal(rec.UploadedAt) {
		t.Errorf("UploadedAt = %v, want %v", got.UploadedAt, rec.UploadedAt)
	}
	if got.Metadata["source"] != "test" {
		t.Errorf("metadata lost: %v", got.Metadata)
	}
}

func TestLocalStoreNotFound(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer s.Close()

	if _, err := s.GetFile(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLocalStoreOverwrite(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	now := time.Now().UTC()
	if err := s.SaveFile(ctx, testRecord("f1", "old.txt", now)); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if err := s.SaveFile(ctx, testRecord("f1", "new.txt", now)); err != nil {
		t.Fatalf("SaveFile overwrite: %v", err)
	}

	got, err := s.GetFile(ctx, "f1")
	if err != nil {
		t.Fatalf("GetFile: %v", err)
	}
	if got.Filename != "new.txt" {
		t.Errorf("Filename = %q, want new.txt", got.Filename)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestLocalStoreListOrder(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		rec := testRecord(id, id+".txt", base.Add(time.Duration(2-i)*time.Hour))
		if err := s.SaveFile(ctx, rec); err != nil {
			t.Fatalf("SaveFile %s: %v", id, err)
		}
	}

	records, err := s.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("ListFiles returned %d records", len(records))
	}
	// Oldest upload first: b (base), a (+1h), c (+2h).
	want := []string{"b", "a", "c"}
	for i, id := range want {
		if records[i].ID != id {
			t.Errorf("records[%d] = %s, want %s", i, records[i].ID, id)
		}
	}
}

func TestLocalStoreRejectsPathyIDs(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.SaveFile(ctx, testRecord("../escape", "x", time.Now())); err == nil {
		t.Error("expected error for path traversal id")
	}
	if _, err := s.GetFile(ctx, "a/b"); err == nil {
		t.Error("expected error for slash in id")
	}
}
