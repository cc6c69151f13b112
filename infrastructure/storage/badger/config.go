// Package badger provides an embedded, on-disk key-value store on BadgerDB.
package badger

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/kvtrack/domain/kv"
)

// ErrNoDir is returned when an on-disk store is opened without a directory.
var ErrNoDir = errors.New("badger: data directory is required")

// Config configures the embedded store.
type Config struct {
	// Dir holds the database files. Ignored when InMemory is set.
	Dir string

	// InMemory keeps everything in memory; nothing survives Close.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// KeyPrefix scopes keys and Flush.
	KeyPrefix string

	// GCInterval is how often the value log is compacted; 0 disables it.
	GCInterval time.Duration
}

// Option configures the embedded store.
type Option func(*Config)

// WithInMemory keeps the database in memory.
func WithInMemory() Option {
	return func(c *Config) {
		c.InMemory = true
	}
}

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *Config) {
		c.KeyPrefix = prefix
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		GCInterval: 5 * time.Minute,
	}
}

// gcDiscardRatio is the fraction of a value log file that must be garbage
// before it is rewritten.
const gcDiscardRatio = 0.5

func openDB(cfg Config) (*badger.DB, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, errors.Join(kv.ErrStoreUnavailable, ErrNoDir)
	}

	opts := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Join(kv.ErrStoreUnavailable, err)
	}
	return db, nil
}
