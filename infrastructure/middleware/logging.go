package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/kvtrack/domain/middleware"
	"github.com/felixgeelhaar/kvtrack/infrastructure/logging"
)

// LoggingConfig configures the logging middleware.
type LoggingConfig struct {
	// LogInput logs the rendered arguments (may contain sensitive data).
	LogInput bool
	// LogOutput logs the rendered result (may be large).
	LogOutput bool
}

// Logging returns middleware that logs each call at debug level and failures at error level.
func Logging(cfg LoggingConfig) middleware.Middleware {
	return func(next middleware.Handler) middleware.Handler {
		return func(ctx context.Context, inv *middleware.Invocation) (any, error) {
			start := time.Now()

			entry := logging.Debug().Add(logging.Method(inv.Method))
			if cfg.LogInput {
				entry = entry.Add(logging.Str("input", middleware.RenderArgs(inv.Args)))
			}
			entry.Msg("calling")

			result, err := next(ctx, inv)
			duration := time.Since(start)

			if err != nil {
				logging.Error().
					Add(logging.Method(inv.Method)).
					Add(logging.ErrorField(err)).
					Add(logging.Duration(duration)).
					Msg("call failed")
				return result, err
			}

			logEntry := logging.Debug().
				Add(logging.Method(inv.Method)).
				Add(logging.Duration(duration))

			if cfg.LogOutput {
				// Truncate large outputs
				output := middleware.RenderResult(result)
				if len(output) > 500 {
					output = output[:500] + "..."
				}
				logEntry = logEntry.Add(logging.Str("output", output))
			}

			logEntry.Msg("call completed")
			return result, nil
		}
	}
}
