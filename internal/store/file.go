package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calebross/stagebook/internal/domain"
	"github.com/calebross/stagebook/internal/metrics"
)

// =============================================================================
// FileStore Implementation
// =============================================================================

// FileStore persists booking records as a single JSON array on disk.
//
// Every Put is a read-modify-write of the whole document, serialized by an
// in-process mutex. That makes it safe for one server process only:
// concurrent writers in separate processes can lose records. Use the Mongo
// backend when that matters.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileStore creates a FileStore writing to the given path. The parent
// directory is created if it doesn't exist.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	logger.Info("initialized file store", "path", absPath)

	return &FileStore{
		path:   absPath,
		logger: logger,
	}, nil
}

// =============================================================================
// Interface Implementation
// =============================================================================

// Put assigns an identifier and timestamp to the record and appends it to
// the JSON document.
func (s *FileStore) Put(ctx context.Context, rec *domain.BookingRecord) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		metrics.StoreOperations.WithLabelValues(BackendFile, "put", "error").Inc()
		return "", &StoreError{Op: "Put", Backend: BackendFile, Err: err}
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()
	records = append(records, *rec)

	if err := s.save(records); err != nil {
		metrics.StoreOperations.WithLabelValues(BackendFile, "put", "error").Inc()
		return "", &StoreError{Op: "Put", Backend: BackendFile, Err: err}
	}

	metrics.StoreOperations.WithLabelValues(BackendFile, "put", "ok").Inc()
	s.logger.Debug("stored booking", "id", rec.ID, "count", len(records))

	return rec.ID, nil
}

// ListAll returns every stored record in file order.
func (s *FileStore) ListAll(ctx context.Context) ([]domain.BookingRecord, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		metrics.StoreOperations.WithLabelValues(BackendFile, "list", "error").Inc()
		return nil, &StoreError{Op: "ListAll", Backend: BackendFile, Err: err}
	}

	metrics.StoreOperations.WithLabelValues(BackendFile, "list", "ok").Inc()
	return records, nil
}

// Ping verifies the store directory is accessible.
func (s *FileStore) Ping(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, err := os.Stat(filepath.Dir(s.path)); err != nil {
		return &StoreError{Op: "Ping", Backend: BackendFile, Err: err}
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close(ctx context.Context) error {
	return nil
}

// Ready always reports true: the file backend has no connection lifecycle.
func (s *FileStore) Ready() bool {
	return true
}

// =============================================================================
// Internal Helpers
// =============================================================================

// load reads the JSON document from disk. A missing file is an empty store.
func (s *FileStore) load() ([]domain.BookingRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.BookingRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	if len(data) == 0 {
		return []domain.BookingRecord{}, nil
	}

	var records []domain.BookingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	return records, nil
}

// save writes the full document to a temp file and renames it into place so
// a crashed write never truncates existing records.
func (s *FileStore) save(records []domain.BookingRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ Store = (*FileStore)(nil)
