package middleware

import (
	"context"

	"github.com/felixgeelhaar/kvtrack/domain/kv"
	"github.com/felixgeelhaar/kvtrack/domain/middleware"
)

// CountConfig configures the call counter.
type CountConfig struct {
	// Key derives the counter key. Defaults to MethodKey.
	Key KeyFunc
}

// CountOption configures the call counter.
type CountOption func(*CountConfig)

// WithCountKey overrides how the counter key is derived.
func WithCountKey(fn KeyFunc) CountOption {
	return func(c *CountConfig) {
		c.Key = fn
	}
}

// CountCalls returns middleware that increments a store-backed counter
// before delegating. The increment is not rolled back if the call fails,
// so counts are at-least-once. A failed increment aborts the call.
func CountCalls(store kv.Store, opts ...CountOption) middleware.Middleware {
	cfg := CountConfig{Key: MethodKey}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, inv *middleware.Invocation) (any, error) {
			if _, err := store.Increment(ctx, cfg.Key(inv)); err != nil {
				return nil, err
			}
			return next(ctx, inv)
		}
	}
}
