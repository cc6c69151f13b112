package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/kvtrack/domain/middleware"
	"github.com/felixgeelhaar/kvtrack/infrastructure/telemetry"
)

// CacheConfig holds Cache construction settings.
type CacheConfig struct {
	// FlushOnStart clears the store when the cache is constructed.
	FlushOnStart bool
	// KeyGenerator produces fresh keys for stored values.
	KeyGenerator func() string
	// Middleware is applied inside the default count/history chain.
	Middleware []middleware.Middleware
}

// DefaultCacheConfig returns the default cache settings.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		FlushOnStart: true,
		KeyGenerator: uuid.NewString,
	}
}

// CacheOption configures a Cache.
type CacheOption func(*CacheConfig)

// WithFlushOnStart controls whether NewCache flushes the store.
func WithFlushOnStart(flush bool) CacheOption {
	return func(c *CacheConfig) {
		c.FlushOnStart = flush
	}
}

// WithKeyGenerator overrides the key generator.
func WithKeyGenerator(fn func() string) CacheOption {
	return func(c *CacheConfig) {
		c.KeyGenerator = fn
	}
}

// WithMiddleware appends middleware around the Store call.
func WithMiddleware(mw ...middleware.Middleware) CacheOption {
	return func(c *CacheConfig) {
		c.Middleware = append(c.Middleware, mw...)
	}
}

// WebCacheConfig holds WebCache settings.
type WebCacheConfig struct {
	// TTL is how long a fetched page stays cached.
	TTL time.Duration
	// Metrics records hits, misses and fetches.
	Metrics telemetry.Metrics
}

// DefaultWebCacheConfig returns the default web cache settings.
func DefaultWebCacheConfig() WebCacheConfig {
	return WebCacheConfig{
		TTL:     10 * time.Second,
		Metrics: &telemetry.NoopMetricsProvider{},
	}
}

// WebCacheOption configures a WebCache.
type WebCacheOption func(*WebCacheConfig)

// WithTTL sets the page cache TTL.
func WithTTL(ttl time.Duration) WebCacheOption {
	return func(c *WebCacheConfig) {
		c.TTL = ttl
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) WebCacheOption {
	return func(c *WebCacheConfig) {
		c.Metrics = m
	}
}
