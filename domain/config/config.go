// Package config defines the kvtrack configuration model.
package config

import (
	"strings"
	"time"
)

// Backends accepted by Config.Backend.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Config is the root configuration.
type Config struct {
	// Backend selects the key-value store (redis, badger or memory).
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Redis configures the Redis store.
	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`

	// Badger configures the embedded on-disk store.
	Badger BadgerConfig `json:"badger,omitempty" yaml:"badger,omitempty"`

	// Mongo configures the document store.
	Mongo MongoConfig `json:"mongo,omitempty" yaml:"mongo,omitempty"`

	// Fetch configures outbound page fetches.
	Fetch FetchConfig `json:"fetch,omitempty" yaml:"fetch,omitempty"`

	// WebCache configures page caching.
	WebCache WebCacheConfig `json:"web_cache,omitempty" yaml:"web_cache,omitempty"`

	// Logging configures the logger.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`

	// Tracing configures span export.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
}

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Address      string   `json:"address,omitempty" yaml:"address,omitempty"`
	Password     string   `json:"password,omitempty" yaml:"password,omitempty"`
	DB           int      `json:"db,omitempty" yaml:"db,omitempty"`
	KeyPrefix    string   `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	DialTimeout  Duration `json:"dial_timeout,omitempty" yaml:"dial_timeout,omitempty"`
	ReadTimeout  Duration `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"`
	WriteTimeout Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty"`
	PoolSize     int      `json:"pool_size,omitempty" yaml:"pool_size,omitempty"`
}

// BadgerConfig configures the embedded BadgerDB store.
type BadgerConfig struct {
	Dir        string   `json:"dir,omitempty" yaml:"dir,omitempty"`
	KeyPrefix  string   `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	SyncWrites bool     `json:"sync_writes,omitempty" yaml:"sync_writes,omitempty"`
	GCInterval Duration `json:"gc_interval,omitempty" yaml:"gc_interval,omitempty"`
}

// MongoConfig configures the MongoDB connection.
type MongoConfig struct {
	URI            string   `json:"uri,omitempty" yaml:"uri,omitempty"`
	Database       string   `json:"database,omitempty" yaml:"database,omitempty"`
	LogsDatabase   string   `json:"logs_database,omitempty" yaml:"logs_database,omitempty"`
	ConnectTimeout Duration `json:"connect_timeout,omitempty" yaml:"connect_timeout,omitempty"`
	QueryTimeout   Duration `json:"query_timeout,omitempty" yaml:"query_timeout,omitempty"`
}

// FetchConfig configures the HTTP fetcher.
type FetchConfig struct {
	Timeout          Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxBodyBytes     int64    `json:"max_body_bytes,omitempty" yaml:"max_body_bytes,omitempty"`
	UserAgent        string   `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	MaxConcurrent    int      `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
	BreakerThreshold int      `json:"breaker_threshold,omitempty" yaml:"breaker_threshold,omitempty"`
	BreakerTimeout   Duration `json:"breaker_timeout,omitempty" yaml:"breaker_timeout,omitempty"`
}

// WebCacheConfig configures the page cache.
type WebCacheConfig struct {
	// TTL is how long fetched pages stay cached.
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// TracingConfig configures tracing.
type TracingConfig struct {
	Enabled    bool    `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Exporter   string  `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	Endpoint   string  `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Insecure   bool    `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Backend: BackendRedis,
		Redis: RedisConfig{
			Address:      "localhost:6379",
			DialTimeout:  Duration(5 * time.Second),
			ReadTimeout:  Duration(3 * time.Second),
			WriteTimeout: Duration(3 * time.Second),
			PoolSize:     10,
		},
		Mongo: MongoConfig{
			URI:            "mongodb://localhost:27017",
			Database:       "my_db",
			LogsDatabase:   "logs",
			ConnectTimeout: Duration(10 * time.Second),
			QueryTimeout:   Duration(30 * time.Second),
		},
		Fetch: FetchConfig{
			Timeout:          Duration(10 * time.Second),
			MaxBodyBytes:     10 << 20,
			MaxConcurrent:    10,
			BreakerThreshold: 5,
			BreakerTimeout:   Duration(30 * time.Second),
		},
		WebCache: WebCacheConfig{
			TTL: Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Tracing: TracingConfig{
			Exporter:   "noop",
			SampleRate: 1.0,
		},
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
