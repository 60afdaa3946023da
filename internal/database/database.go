package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/giftlink/backend/internal/metrics"
)

// DefaultDatabaseName is the logical database every collection lives in
const DefaultDatabaseName = "giftdb"

var (
	// ErrConnect wraps every failure to establish a MongoDB session
	ErrConnect = errors.New("failed to connect to MongoDB")
	// ErrNotConnected is returned by operations that never trigger a connection
	ErrNotConnected = errors.New("MongoDB connection not established")
	// ErrNotFound is returned when a document does not exist or its id is malformed
	ErrNotFound = errors.New("not found")
)

// Options configures a Manager
type Options struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	// Connector defaults to MongoConnector with a command monitor attached
	Connector Connector
	Metrics   *metrics.Metrics
}

// Manager owns the process-wide MongoDB handle. The handle is created on
// first use and then shared by every caller for the life of the process.
type Manager struct {
	uri            string
	name           string
	connectTimeout time.Duration
	connect        Connector
	metrics        *metrics.Metrics

	mu sync.Mutex // serializes connection attempts
	db atomic.Pointer[mongo.Database]
}

// NewManager creates a manager. No connection is made until Database is called.
func NewManager(opts Options) *Manager {
	name := opts.Database
	if name == "" {
		name = DefaultDatabaseName
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connect := opts.Connector
	if connect == nil {
		connect = MongoConnector(NewCommandMonitor(opts.Metrics))
	}

	return &Manager{
		uri:            opts.URI,
		name:           name,
		connectTimeout: timeout,
		connect:        connect,
		metrics:        opts.Metrics,
	}
}

// Name returns the logical database name
func (m *Manager) Name() string {
	return m.name
}

// Database returns the shared handle, connecting on first use. A cached
// handle is returned as-is without checking that it is still usable. A failed
// attempt leaves nothing cached so the next call starts over.
func (m *Manager) Database(ctx context.Context) (*mongo.Database, error) {
	if db := m.db.Load(); db != nil {
		return db, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// another caller may have connected while we waited
	if db := m.db.Load(); db != nil {
		return db, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, m.connectTimeout)
	defer cancel()

	start := time.Now()
	client, err := m.connect(connectCtx, m.uri)
	if err != nil {
		m.countConnect("failure")
		log.Error().
			Err(err).
			Str("uri", redactURI(m.uri)).
			Dur("elapsed", time.Since(start)).
			Msg("Error connecting to MongoDB")
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	db := client.Database(m.name)
	m.db.Store(db)
	m.countConnect("success")

	log.Info().
		Str("uri", redactURI(m.uri)).
		Str("database", m.name).
		Dur("elapsed", time.Since(start)).
		Msg("Successfully connected to MongoDB")

	return db, nil
}

// Established returns the cached handle without ever connecting
func (m *Manager) Established() (*mongo.Database, bool) {
	db := m.db.Load()
	return db, db != nil
}

// Ping checks the cached connection against the primary. It returns
// ErrNotConnected instead of connecting when nothing is cached.
func (m *Manager) Ping(ctx context.Context) error {
	db, ok := m.Established()
	if !ok {
		return ErrNotConnected
	}
	return db.Client().Ping(ctx, readpref.Primary())
}

// Disconnect closes the underlying client at process exit. The cached handle
// is kept; the manager is not meant to be reused afterwards.
func (m *Manager) Disconnect(ctx context.Context) error {
	db, ok := m.Established()
	if !ok {
		return nil
	}
	if err := db.Client().Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	log.Debug().Msg("MongoDB client disconnected")
	return nil
}

func (m *Manager) countConnect(result string) {
	if m.metrics != nil {
		m.metrics.MongoConnects.WithLabelValues(result).Inc()
	}
}
