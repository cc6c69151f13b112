package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the JSON path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *Config) ValidationErrors {
	v.errors = nil

	v.validateBackend(config)
	v.validateRedis(config)
	v.validateBadger(config)
	v.validateMongo(config)
	v.validateFetch(config)
	v.validateWebCache(config)
	v.validateLogging(config)
	v.validateTracing(config)

	return v.errors
}

// Validate is shorthand for NewValidator().Validate(c).
func (c *Config) Validate() ValidationErrors {
	return NewValidator().Validate(c)
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateBackend(config *Config) {
	switch config.Backend {
	case BackendRedis, BackendBadger, BackendMemory:
	default:
		v.addError("backend", fmt.Sprintf("invalid backend: %q (want redis, badger or memory)", config.Backend))
	}
}

func (v *Validator) validateRedis(config *Config) {
	if config.Backend == BackendRedis && config.Redis.Address == "" {
		v.addError("redis.address", "address is required for the redis backend")
	}
	if config.Redis.DB < 0 {
		v.addError("redis.db", "db must be non-negative")
	}
	if config.Redis.PoolSize < 0 {
		v.addError("redis.pool_size", "pool_size must be non-negative")
	}
}

func (v *Validator) validateBadger(config *Config) {
	if config.Backend == BackendBadger && config.Badger.Dir == "" {
		v.addError("badger.dir", "dir is required for the badger backend")
	}
	if config.Badger.GCInterval < 0 {
		v.addError("badger.gc_interval", "gc_interval must be non-negative")
	}
}

func (v *Validator) validateMongo(config *Config) {
	if config.Mongo.QueryTimeout < 0 {
		v.addError("mongo.query_timeout", "query_timeout must be non-negative")
	}
	if config.Mongo.ConnectTimeout < 0 {
		v.addError("mongo.connect_timeout", "connect_timeout must be non-negative")
	}
}

func (v *Validator) validateFetch(config *Config) {
	if config.Fetch.Timeout <= 0 {
		v.addError("fetch.timeout", "timeout must be positive")
	}
	if config.Fetch.MaxBodyBytes < 0 {
		v.addError("fetch.max_body_bytes", "max_body_bytes must be non-negative")
	}
	if config.Fetch.MaxConcurrent < 0 {
		v.addError("fetch.max_concurrent", "max_concurrent must be non-negative")
	}
	if config.Fetch.BreakerThreshold < 0 {
		v.addError("fetch.breaker_threshold", "breaker_threshold must be non-negative")
	}
}

func (v *Validator) validateWebCache(config *Config) {
	if config.WebCache.TTL <= 0 {
		v.addError("web_cache.ttl", "ttl must be positive")
	}
}

func (v *Validator) validateLogging(config *Config) {
	switch strings.ToLower(config.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
	}
	switch config.Logging.Format {
	case "", "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
	}
}

func (v *Validator) validateTracing(config *Config) {
	if !config.Tracing.Enabled {
		return
	}
	switch config.Tracing.Exporter {
	case "otlp":
		if config.Tracing.Endpoint == "" {
			v.addError("tracing.endpoint", "endpoint is required for the otlp exporter")
		}
	case "stdout", "noop":
	default:
		v.addError("tracing.exporter", fmt.Sprintf("invalid exporter: %s", config.Tracing.Exporter))
	}
	if config.Tracing.SampleRate < 0 || config.Tracing.SampleRate > 1 {
		v.addError("tracing.sample_rate", "sample_rate must be between 0 and 1")
	}
}
