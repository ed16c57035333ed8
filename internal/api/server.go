// Package api provides the QuantumStore HTTP server and handlers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quantumstore/quantumstore/internal/classify"
	"github.com/quantumstore/quantumstore/internal/logging"
	"github.com/quantumstore/quantumstore/internal/metrics"
	"github.com/quantumstore/quantumstore/internal/store"
)

// Server is the HTTP server.
type Server struct {
	store         store.Store
	engine        *classify.RuleEngine
	uploadsDir    string
	maxUploadSize int64

	mu        sync.Mutex
	groups    []*classify.GroupPayload
	reasoning []string
	grouped   bool
}

// Options configures the server.
type Options struct {
	// UploadsDir is where uploaded content bytes land; empty discards
	// content after sizing and keeps metadata only.
	UploadsDir    string
	MaxUploadSize int64
}

// NewServer creates a new server over the given metadata store.
func NewServer(st store.Store, opts Options) *Server {
	if opts.MaxUploadSize == 0 {
		opts.MaxUploadSize = 100 * 1024 * 1024
	}
	return &Server{
		store:         st,
		engine:        classify.NewRuleEngine(),
		uploadsDir:    opts.UploadsDir,
		maxUploadSize: opts.MaxUploadSize,
	}
}

// Routes returns the HTTP handler with logging and metrics middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /files", s.handleFiles)
	mux.HandleFunc("GET /file/{id}", s.handleFile)
	mux.HandleFunc("GET /groups", s.handleGroups)
	mux.HandleFunc("POST /groups/rebuild", s.handleRebuild)

	return metrics.Middleware(logging.Middleware(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "QuantumStore",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	id := uuid.NewString()
	size, err := s.storeContent(id, file)
	if err != nil {
		logging.Error("store upload content", zap.String("id", id), zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "store upload")
		return
	}

	rec := store.FileRecord{
		ID:         id,
		Filename:   header.Filename,
		FileType:   classify.FileType(header.Filename),
		SizeBytes:  size,
		Category:   classify.ByExtension(header.Filename),
		UploadedAt: time.Now().UTC(),
	}
	if err := s.store.SaveFile(r.Context(), rec); err != nil {
		logging.Error("save file record", zap.String("id", id), zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "save metadata")
		return
	}

	// New uploads invalidate the cached grouping.
	s.mu.Lock()
	s.grouped = false
	s.mu.Unlock()

	if n, err := s.store.Count(r.Context()); err == nil {
		metrics.SetStoreFiles(n)
	}

	s.sendJSON(w, http.StatusOK, map[string]any{
		"file_id":   id,
		"filename":  rec.Filename,
		"file_type": rec.FileType,
		"category":  rec.Category,
		"message":   "File uploaded successfully",
	})
}

// storeContent writes the upload body to the uploads dir, or just sizes it
// when no dir is configured.
func (s *Server) storeContent(id string, body io.Reader) (int64, error) {
	if s.uploadsDir == "" {
		return io.Copy(io.Discard, body)
	}
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return 0, err
	}
	dst, err := os.Create(filepath.Join(s.uploadsDir, id))
	if err != nil {
		return 0, err
	}
	defer dst.Close()
	return io.Copy(dst, body)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.store.ListFiles(r.Context())
	if err != nil {
		logging.Error("list files", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "list files")
		return
	}
	if files == nil {
		files = []store.FileRecord{}
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"files": files,
		"count": len(files),
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.store.GetFile(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		logging.Error("get file", zap.String("id", id), zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "get file")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"metadata": rec})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, reasoning, err := s.currentGroups(r)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "group files")
		return
	}
	if groups == nil {
		groups = []*classify.GroupPayload{}
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"groups":    groups,
			"reasoning": reasoning,
		},
	})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.grouped = false
	s.mu.Unlock()

	groups, _, err := s.currentGroups(r)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "group files")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{
		"message": "groups rebuilt",
		"groups":  len(groups),
	})
}

// currentGroups returns the cached grouping, recomputing it from the store
// when stale.
func (s *Server) currentGroups(r *http.Request) ([]*classify.GroupPayload, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grouped {
		return s.groups, s.reasoning, nil
	}

	records, err := s.store.ListFiles(r.Context())
	if err != nil {
		logging.Error("list files for grouping", zap.Error(err))
		return nil, nil, err
	}

	start := time.Now()
	s.groups = s.engine.GroupFiles(records)
	s.reasoning = s.engine.Reasoning()
	s.grouped = true
	metrics.RecordGrouping(time.Since(start))
	return s.groups, s.reasoning, nil
}

func (s *Server) sendJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("encode response", zap.Error(err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": message,
		"code":  code,
	})
}
