package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/calebross/stagebook/internal/domain"
	"github.com/calebross/stagebook/internal/metrics"
)

// =============================================================================
// Configuration
// =============================================================================

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	// URI is the connection string, e.g. "mongodb://localhost:27017".
	URI string

	// Database is the database name.
	Database string

	// Collection is the collection bookings are written to.
	Collection string
}

// =============================================================================
// MongoStore Implementation
// =============================================================================

// MongoStore persists booking records in a MongoDB collection.
//
// The store is constructed disconnected; Connect must succeed before Put or
// ListAll will accept work. Requests arriving earlier fail with ErrNotReady
// rather than panicking on a nil client.
type MongoStore struct {
	config MongoConfig
	logger *slog.Logger

	client *mongo.Client
	coll   *mongo.Collection
	ready  atomic.Bool
}

// NewMongoStore creates a disconnected MongoStore.
func NewMongoStore(cfg MongoConfig, logger *slog.Logger) *MongoStore {
	return &MongoStore{
		config: cfg,
		logger: logger,
	}
}

// Connect establishes the client connection and verifies it with a ping.
func (s *MongoStore) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.config.URI))
	if err != nil {
		return fmt.Errorf("mongo connect failed: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("mongo ping failed: %w", err)
	}

	s.client = client
	s.coll = client.Database(s.config.Database).Collection(s.config.Collection)
	s.ready.Store(true)

	s.logger.Info("connected to mongo",
		"database", s.config.Database,
		"collection", s.config.Collection,
	)

	return nil
}

// =============================================================================
// Interface Implementation
// =============================================================================

// Put assigns an identifier and timestamp to the record and inserts it.
func (s *MongoStore) Put(ctx context.Context, rec *domain.BookingRecord) (string, error) {
	if !s.Ready() {
		return "", &StoreError{Op: "Put", Backend: BackendMongo, Err: ErrNotReady}
	}

	rec.ID = uuid.NewString()
	rec.CreatedAt = time.Now().UTC()

	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		metrics.StoreOperations.WithLabelValues(BackendMongo, "put", "error").Inc()
		return "", &StoreError{Op: "Put", Backend: BackendMongo, Err: err}
	}

	metrics.StoreOperations.WithLabelValues(BackendMongo, "put", "ok").Inc()
	s.logger.Debug("stored booking", "id", rec.ID)

	return rec.ID, nil
}

// ListAll returns every record in the collection.
func (s *MongoStore) ListAll(ctx context.Context) ([]domain.BookingRecord, error) {
	if !s.Ready() {
		return nil, &StoreError{Op: "ListAll", Backend: BackendMongo, Err: ErrNotReady}
	}

	cursor, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		metrics.StoreOperations.WithLabelValues(BackendMongo, "list", "error").Inc()
		return nil, &StoreError{Op: "ListAll", Backend: BackendMongo, Err: err}
	}
	defer cursor.Close(ctx)

	var records []domain.BookingRecord
	if err := cursor.All(ctx, &records); err != nil {
		metrics.StoreOperations.WithLabelValues(BackendMongo, "list", "error").Inc()
		return nil, &StoreError{Op: "ListAll", Backend: BackendMongo, Err: err}
	}

	metrics.StoreOperations.WithLabelValues(BackendMongo, "list", "ok").Inc()
	return records, nil
}

// Ping verifies the connection is alive.
func (s *MongoStore) Ping(ctx context.Context) error {
	if !s.Ready() {
		return &StoreError{Op: "Ping", Backend: BackendMongo, Err: ErrNotReady}
	}
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return &StoreError{Op: "Ping", Backend: BackendMongo, Err: err}
	}
	return nil
}

// Close disconnects the client. Subsequent operations report ErrNotReady.
func (s *MongoStore) Close(ctx context.Context) error {
	if !s.ready.Swap(false) {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return &StoreError{Op: "Close", Backend: BackendMongo, Err: err}
	}
	return nil
}

// Ready reports whether Connect has succeeded and Close has not been called.
func (s *MongoStore) Ready() bool {
	return s.ready.Load()
}

// =============================================================================
// Compile-time interface check
// =============================================================================

var _ Store = (*MongoStore)(nil)
