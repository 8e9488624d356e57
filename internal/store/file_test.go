package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebross/stagebook/internal/domain"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	s, err := NewFileStore(filepath.Join(t.TempDir(), "bookings.json"), logger)
	require.NoError(t, err)
	return s
}

func TestFileStore_PutAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)

	rec := &domain.BookingRecord{
		// Caller-supplied values must be replaced by the store
		ID:        "caller-id",
		CreatedAt: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Fields:    domain.Submission{"contact_name": {"Jane"}},
	}

	before := time.Now().UTC()
	id, err := s.Put(context.Background(), rec)
	require.NoError(t, err)

	assert.NotEmpty(t, id)
	assert.NotEqual(t, "caller-id", id)
	assert.Equal(t, id, rec.ID)
	assert.False(t, rec.CreatedAt.Before(before), "timestamp should be assigned at storage time")
}

func TestFileStore_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	rec := &domain.BookingRecord{
		Fields: domain.Submission{
			"contact_name":      {"Jane"},
			"general_equipment": {"Camera", "Lighting"},
		},
		File: &domain.FileMetadata{
			Filename:    "brief.pdf",
			ContentType: "application/pdf",
			Size:        2048,
		},
	}

	id, err := s.Put(context.Background(), rec)
	require.NoError(t, err)

	records, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, id, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, "Jane", got.Fields.Get("contact_name"))
	assert.Equal(t, "Camera, Lighting", got.Fields.Get("general_equipment"))
	require.NotNil(t, got.File)
	assert.Equal(t, "brief.pdf", got.File.Filename)
	assert.Equal(t, int64(2048), got.File.Size)
}

func TestFileStore_ListAllEmpty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFileStore_AppendsAcrossInstances(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	path := filepath.Join(t.TempDir(), "bookings.json")

	first, err := NewFileStore(path, logger)
	require.NoError(t, err)
	_, err = first.Put(context.Background(), &domain.BookingRecord{
		Fields: domain.Submission{"contact_name": {"Jane"}},
	})
	require.NoError(t, err)

	// A fresh store instance over the same file sees and extends the data.
	second, err := NewFileStore(path, logger)
	require.NoError(t, err)
	_, err = second.Put(context.Background(), &domain.BookingRecord{
		Fields: domain.Submission{"contact_name": {"Sam"}},
	})
	require.NoError(t, err)

	records, err := second.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.NotEqual(t, records[0].ID, records[1].ID)
}

func TestFileStore_CorruptFileSurfacesStoreError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	path := filepath.Join(t.TempDir(), "bookings.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	s, err := NewFileStore(path, logger)
	require.NoError(t, err)

	_, err = s.ListAll(context.Background())
	require.Error(t, err)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "ListAll", se.Op)
	assert.Equal(t, BackendFile, se.Backend)
}

func TestFileStore_Lifecycle(t *testing.T) {
	s := newTestStore(t)

	assert.True(t, s.Ready())
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close(context.Background()))
}
