package config

import (
	"context"

	domainconfig "github.com/felixgeelhaar/kvtrack/domain/config"
	"github.com/felixgeelhaar/kvtrack/domain/kv"
	"github.com/felixgeelhaar/kvtrack/infrastructure/fetch"
	"github.com/felixgeelhaar/kvtrack/infrastructure/logging"
	"github.com/felixgeelhaar/kvtrack/infrastructure/observability"
	"github.com/felixgeelhaar/kvtrack/infrastructure/storage/badger"
	"github.com/felixgeelhaar/kvtrack/infrastructure/storage/memory"
	"github.com/felixgeelhaar/kvtrack/infrastructure/storage/mongodb"
	"github.com/felixgeelhaar/kvtrack/infrastructure/storage/redis"
)

// Builder maps a loaded configuration onto adapter configurations.
type Builder struct {
	config *domainconfig.Config
}

// NewBuilder creates a new configuration builder.
func NewBuilder(config *domainconfig.Config) *Builder {
	return &Builder{config: config}
}

// Logging returns the logger configuration.
func (b *Builder) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if b.config.Logging.Level != "" {
		cfg.Level = b.config.Logging.Level
	}
	if b.config.Logging.Format != "" {
		cfg.Format = b.config.Logging.Format
	}
	return cfg
}

// Redis returns the Redis store configuration.
func (b *Builder) Redis() redis.Config {
	rc := b.config.Redis
	cfg := redis.DefaultConfig()
	cfg.Address = rc.Address
	cfg.Password = rc.Password
	cfg.DB = rc.DB
	cfg.KeyPrefix = rc.KeyPrefix
	if rc.DialTimeout > 0 {
		cfg.DialTimeout = rc.DialTimeout.Duration()
	}
	if rc.ReadTimeout > 0 {
		cfg.ReadTimeout = rc.ReadTimeout.Duration()
	}
	if rc.WriteTimeout > 0 {
		cfg.WriteTimeout = rc.WriteTimeout.Duration()
	}
	if rc.PoolSize > 0 {
		cfg.PoolSize = rc.PoolSize
	}
	return cfg
}

// Badger returns the embedded store configuration.
func (b *Builder) Badger() badger.Config {
	bc := b.config.Badger
	cfg := badger.DefaultConfig()
	cfg.Dir = bc.Dir
	cfg.KeyPrefix = bc.KeyPrefix
	cfg.SyncWrites = bc.SyncWrites
	if bc.GCInterval > 0 {
		cfg.GCInterval = bc.GCInterval.Duration()
	}
	return cfg
}

// Mongo returns the MongoDB connection options.
func (b *Builder) Mongo() []mongodb.ConfigOption {
	mc := b.config.Mongo
	opts := []mongodb.ConfigOption{
		mongodb.WithURI(mc.URI),
	}
	if mc.Database != "" {
		opts = append(opts, mongodb.WithDatabase(mc.Database))
	}
	if mc.LogsDatabase != "" {
		opts = append(opts, mongodb.WithLogsDatabase(mc.LogsDatabase))
	}
	if mc.ConnectTimeout > 0 {
		opts = append(opts, mongodb.WithConnectTimeout(mc.ConnectTimeout.Duration()))
	}
	if mc.QueryTimeout > 0 {
		opts = append(opts, mongodb.WithQueryTimeout(mc.QueryTimeout.Duration()))
	}
	return opts
}

// Fetch returns the HTTP fetcher configuration.
func (b *Builder) Fetch() fetch.Config {
	fc := b.config.Fetch
	return fetch.Config{
		Timeout:          fc.Timeout.Duration(),
		MaxBodyBytes:     fc.MaxBodyBytes,
		UserAgent:        fc.UserAgent,
		MaxConcurrent:    fc.MaxConcurrent,
		BreakerThreshold: fc.BreakerThreshold,
		BreakerTimeout:   fc.BreakerTimeout.Duration(),
	}
}

// Observability returns the tracing provider options.
func (b *Builder) Observability(version string) []observability.Option {
	tc := b.config.Tracing
	opts := []observability.Option{
		observability.WithServiceVersion(version),
		observability.WithSampleRate(tc.SampleRate),
	}
	if !tc.Enabled {
		return opts
	}
	opts = append(opts, observability.WithTracing(observability.ExporterType(tc.Exporter), tc.Endpoint))
	if tc.Insecure {
		opts = append(opts, observability.WithTracingInsecure())
	}
	return opts
}

// OpenStore connects the configured key-value backend.
func (b *Builder) OpenStore(ctx context.Context) (kv.Store, error) {
	switch b.config.Backend {
	case domainconfig.BackendMemory:
		return memory.NewStore(), nil
	case domainconfig.BackendBadger:
		store, err := badger.NewStore(b.Badger())
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := redis.NewStore(ctx, b.Redis())
	if err != nil {
		return nil, err
	}
	return store, nil
}
