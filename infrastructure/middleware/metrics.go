package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/kvtrack/domain/middleware"
	"github.com/felixgeelhaar/kvtrack/infrastructure/telemetry"
)

// MetricsConfig configures the metrics middleware.
type MetricsConfig struct {
	// Provider is the metrics provider to use.
	Provider telemetry.Metrics
}

// Metrics creates a middleware that records call count and duration.
//
// Example:
//
//	provider := telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())
//	c, _ := application.NewCache(ctx, store,
//	    application.WithMiddleware(middleware.Metrics(middleware.MetricsConfig{Provider: provider})),
//	)
func Metrics(config MetricsConfig) middleware.Middleware {
	if config.Provider == nil {
		config.Provider = &telemetry.NoopMetricsProvider{}
	}

	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, inv *middleware.Invocation) (any, error) {
			start := time.Now()
			result, err := next(ctx, inv)
			config.Provider.RecordCall(ctx, inv.Method, err == nil, time.Since(start))
			return result, err
		}
	}
}
