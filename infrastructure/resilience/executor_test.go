package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultExecutorConfig(t *testing.T) {
	t.Parallel()

	config := DefaultExecutorConfig()

	if config.MaxConcurrent != 10 {
		t.Errorf("MaxConcurrent = %d, want 10", config.MaxConcurrent)
	}
	if config.CircuitBreakerThreshold != 5 {
		t.Errorf("CircuitBreakerThreshold = %d, want 5", config.CircuitBreakerThreshold)
	}
	if config.CircuitBreakerTimeout != 30*time.Second {
		t.Errorf("CircuitBreakerTimeout = %v, want 30s", config.CircuitBreakerTimeout)
	}
	if config.DefaultTimeout != 10*time.Second {
		t.Errorf("DefaultTimeout = %v, want 10s", config.DefaultTimeout)
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()

	config := DefaultExecutorConfig()
	for _, opt := range []Option{
		WithMaxConcurrent(3),
		WithCircuitBreakerThreshold(2),
		WithCircuitBreakerTimeout(time.Second),
		WithTimeout(50 * time.Millisecond),
	} {
		opt(&config)
	}

	if config.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d, want 3", config.MaxConcurrent)
	}
	if config.CircuitBreakerThreshold != 2 {
		t.Errorf("CircuitBreakerThreshold = %d, want 2", config.CircuitBreakerThreshold)
	}
	if config.CircuitBreakerTimeout != time.Second {
		t.Errorf("CircuitBreakerTimeout = %v, want 1s", config.CircuitBreakerTimeout)
	}
	if config.DefaultTimeout != 50*time.Millisecond {
		t.Errorf("DefaultTimeout = %v, want 50ms", config.DefaultTimeout)
	}
}

func TestExecutor_Execute(t *testing.T) {
	t.Parallel()

	executor := NewExecutorWithOptions[string]()

	got, err := executor.Execute(context.Background(), func(context.Context) (string, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("Execute() = %q, want ok", got)
	}
}

func TestExecutor_NoRetry(t *testing.T) {
	t.Parallel()

	executor := NewExecutorWithOptions[string]()
	errBoom := errors.New("boom")

	var calls atomic.Int32
	_, err := executor.Execute(context.Background(), func(context.Context) (string, error) {
		calls.Add(1)
		return "", errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("Execute() error = %v, want boom", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	t.Parallel()

	executor := NewExecutorWithOptions[string](WithTimeout(20 * time.Millisecond))

	_, err := executor.Execute(context.Background(), func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Execute() error = %v, want deadline exceeded", err)
	}
}

func TestExecutor_CircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	executor := NewExecutorWithOptions[string](
		WithCircuitBreakerThreshold(2),
		WithCircuitBreakerTimeout(time.Minute),
	)

	if state := executor.CircuitBreakerState().String(); state != "closed" {
		t.Fatalf("initial state = %s, want closed", state)
	}

	fail := func(context.Context) (string, error) { return "", errors.New("down") }
	for i := 0; i < 2; i++ {
		_, _ = executor.Execute(context.Background(), fail)
	}

	if state := executor.CircuitBreakerState().String(); state != "open" {
		t.Errorf("state after failures = %s, want open", state)
	}

	var called bool
	_, err := executor.Execute(context.Background(), func(context.Context) (string, error) {
		called = true
		return "ok", nil
	})
	if err == nil {
		t.Error("Execute() on open breaker should fail")
	}
	if called {
		t.Error("open breaker should not invoke the function")
	}
}
