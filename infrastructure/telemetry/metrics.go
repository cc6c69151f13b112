// Package telemetry provides OpenTelemetry metrics for cache calls and page fetches.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	calls       metric.Int64Counter
	pageHits    metric.Int64Counter
	pageMisses  metric.Int64Counter
	pageFetches metric.Int64Counter
	errors      metric.Int64Counter

	// Histograms
	callDuration  metric.Float64Histogram
	fetchDuration metric.Float64Histogram

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/kvtrack").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Provider overrides the global meter provider.
	Provider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/kvtrack",
		MeterVersion: "0.1.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}

	provider := config.Provider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.calls, err = mp.meter.Int64Counter(
		"kvtrack.calls",
		metric.WithDescription("Number of instrumented method calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return err
	}

	mp.pageHits, err = mp.meter.Int64Counter(
		"kvtrack.page.cache.hits",
		metric.WithDescription("Number of page cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	mp.pageMisses, err = mp.meter.Int64Counter(
		"kvtrack.page.cache.misses",
		metric.WithDescription("Number of page cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	mp.pageFetches, err = mp.meter.Int64Counter(
		"kvtrack.page.fetches",
		metric.WithDescription("Number of remote page fetches"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	mp.errors, err = mp.meter.Int64Counter(
		"kvtrack.errors",
		metric.WithDescription("Number of errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	mp.callDuration, err = mp.meter.Float64Histogram(
		"kvtrack.call.duration",
		metric.WithDescription("Duration of instrumented method calls"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.fetchDuration, err = mp.meter.Float64Histogram(
		"kvtrack.page.fetch.duration",
		metric.WithDescription("Duration of remote page fetches"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordCall records one instrumented method call.
func (mp *MetricsProvider) RecordCall(ctx context.Context, method string, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("method", method),
		attribute.Bool("success", success),
	}

	mp.calls.Add(ctx, 1, metric.WithAttributes(attrs...))
	mp.callDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if !success {
		mp.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error.type", "call"),
			attribute.String("method", method),
		))
	}
}

// RecordPageHit records a page served from the cache.
func (mp *MetricsProvider) RecordPageHit(ctx context.Context, host string) {
	mp.pageHits.Add(ctx, 1, metric.WithAttributes(attribute.String("url.host", host)))
}

// RecordPageMiss records a page absent from the cache.
func (mp *MetricsProvider) RecordPageMiss(ctx context.Context, host string) {
	mp.pageMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("url.host", host)))
}

// RecordFetch records a remote fetch and its outcome.
func (mp *MetricsProvider) RecordFetch(ctx context.Context, host string, status int, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("url.host", host),
		attribute.Int("http.status_code", status),
		attribute.Bool("success", success),
	}

	mp.pageFetches.Add(ctx, 1, metric.WithAttributes(attrs...))
	mp.fetchDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if !success {
		mp.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error.type", "fetch"),
			attribute.String("url.host", host),
		))
	}
}

// RecordError records an error.
func (mp *MetricsProvider) RecordError(ctx context.Context, errorType string, details map[string]string) {
	attrs := []attribute.KeyValue{
		attribute.String("error.type", errorType),
	}
	for k, v := range details {
		attrs = append(attrs, attribute.String(k, v))
	}

	mp.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordCall is a no-op.
func (n *NoopMetricsProvider) RecordCall(ctx context.Context, method string, success bool, duration time.Duration) {}

// RecordPageHit is a no-op.
func (n *NoopMetricsProvider) RecordPageHit(ctx context.Context, host string) {}

// RecordPageMiss is a no-op.
func (n *NoopMetricsProvider) RecordPageMiss(ctx context.Context, host string) {}

// RecordFetch is a no-op.
func (n *NoopMetricsProvider) RecordFetch(ctx context.Context, host string, status int, success bool, duration time.Duration) {}

// RecordError is a no-op.
func (n *NoopMetricsProvider) RecordError(ctx context.Context, errorType string, details map[string]string) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordCall(ctx context.Context, method string, success bool, duration time.Duration)
	RecordPageHit(ctx context.Context, host string)
	RecordPageMiss(ctx context.Context, host string)
	RecordFetch(ctx context.Context, host string, status int, success bool, duration time.Duration)
	RecordError(ctx context.Context, errorType string, details map[string]string)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
