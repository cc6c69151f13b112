// Package resilience guards outbound calls with a bulkhead, a per-call
// timeout and a circuit breaker. Calls are never retried.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
)

// Executor runs functions returning T under resilience patterns.
type Executor[T any] struct {
	bulkhead bulkhead.Bulkhead[T]
	breaker  circuitbreaker.CircuitBreaker[T]
	timeout  time.Duration
}

// ExecutorConfig configures the resilient executor.
type ExecutorConfig struct {
	// MaxConcurrent limits concurrent executions.
	MaxConcurrent int

	// CircuitBreakerThreshold is the number of consecutive failures before opening.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration

	// DefaultTimeout bounds each execution. Zero disables the timeout.
	DefaultTimeout time.Duration
}

// DefaultExecutorConfig returns a configuration with sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		MaxConcurrent:           10,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		DefaultTimeout:          10 * time.Second,
	}
}

// NewExecutor creates a new resilient executor.
func NewExecutor[T any](config ExecutorConfig) *Executor[T] {
	// Ensure non-negative values for uint32 conversion (G115 fix)
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	threshold := config.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	breakerTimeout := config.CircuitBreakerTimeout
	if breakerTimeout <= 0 {
		breakerTimeout = 30 * time.Second
	}

	return &Executor[T]{
		bulkhead: bulkhead.New[T](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[T](circuitbreaker.Config{
			MaxRequests: uint32(maxConcurrent), // #nosec G115 -- bounds checked above
			Interval:    breakerTimeout,
			Timeout:     breakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		timeout: config.DefaultTimeout,
	}
}

// Execute runs fn with resilience patterns applied.
// Composition order: Bulkhead → Timeout → Circuit Breaker
func (e *Executor[T]) Execute(ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	return e.bulkhead.Execute(ctx, func(ctx context.Context) (T, error) {
		if e.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.timeout)
			defer cancel()
		}
		return e.breaker.Execute(ctx, fn)
	})
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (e *Executor[T]) CircuitBreakerState() circuitbreaker.State {
	return e.breaker.State()
}
