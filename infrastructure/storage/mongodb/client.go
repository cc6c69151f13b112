// Package mongodb provides the document queries over the schools, students
// and nginx log collections.
package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Config contains MongoDB connection configuration.
type Config struct {
	// URI is the MongoDB connection string.
	URI string

	// Database holds the schools and students collections.
	Database string

	// LogsDatabase holds the nginx collection.
	LogsDatabase string

	// ConnectTimeout is the timeout for initial connection.
	ConnectTimeout time.Duration

	// QueryTimeout is the default timeout for queries.
	QueryTimeout time.Duration

	// MaxPoolSize is the maximum connection pool size.
	MaxPoolSize uint64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		URI:            "mongodb://localhost:27017",
		Database:       "my_db",
		LogsDatabase:   "logs",
		ConnectTimeout: 10 * time.Second,
		QueryTimeout:   30 * time.Second,
		MaxPoolSize:    10,
	}
}

// ConfigOption configures the MongoDB connection.
type ConfigOption func(*Config)

// WithURI sets the MongoDB connection URI.
func WithURI(uri string) ConfigOption {
	return func(c *Config) {
		c.URI = uri
	}
}

// WithDatabase sets the database name.
func WithDatabase(db string) ConfigOption {
	return func(c *Config) {
		c.Database = db
	}
}

// WithLogsDatabase sets the database holding the nginx collection.
func WithLogsDatabase(db string) ConfigOption {
	return func(c *Config) {
		c.LogsDatabase = db
	}
}

// WithConnectTimeout sets the connection timeout.
func WithConnectTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.ConnectTimeout = d
	}
}

// WithQueryTimeout sets the default query timeout.
func WithQueryTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.QueryTimeout = d
	}
}

// WithMaxPoolSize sets the maximum pool size.
func WithMaxPoolSize(size uint64) ConfigOption {
	return func(c *Config) {
		c.MaxPoolSize = size
	}
}

// Client wraps a MongoDB client with configuration.
type Client struct {
	client *mongo.Client
	config Config
}

// NewClient connects and pings the server.
func NewClient(ctx context.Context, opts ...ConfigOption) (*Client, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return &Client{
		client: client,
		config: cfg,
	}, nil
}

// Schools returns the schools repository.
func (c *Client) Schools() *Schools {
	return NewSchools(c.client.Database(c.config.Database).Collection("schools"), c.config.QueryTimeout)
}

// Students returns the students repository.
func (c *Client) Students() *Students {
	return NewStudents(c.client.Database(c.config.Database).Collection("students"), c.config.QueryTimeout)
}

// Logs returns the nginx log repository.
func (c *Client) Logs() *Logs {
	return NewLogs(c.client.Database(c.config.LogsDatabase).Collection("nginx"), c.config.QueryTimeout)
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// wrapError wraps MongoDB errors with domain errors.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		return errors.Join(ErrOperationTimeout, err)
	}

	return errors.Join(ErrConnectionFailed, err)
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
