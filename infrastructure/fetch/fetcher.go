// Package fetch implements page.Fetcher over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/kvtrack"
	"github.com/felixgeelhaar/kvtrack/domain/page"
	"github.com/felixgeelhaar/kvtrack/infrastructure/logging"
	"github.com/felixgeelhaar/kvtrack/infrastructure/resilience"
	"github.com/felixgeelhaar/kvtrack/infrastructure/telemetry"
)

// ErrBodyTooLarge is returned when a response body exceeds MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

// Config configures the HTTP fetcher.
type Config struct {
	// Timeout bounds a single fetch including reading the body.
	Timeout time.Duration
	// MaxBodyBytes is the largest accepted body; bigger responses fail.
	MaxBodyBytes int64
	// UserAgent is the User-Agent header value.
	UserAgent string
	// MaxConcurrent limits concurrent fetches.
	MaxConcurrent int
	// BreakerThreshold is consecutive failures before the circuit opens.
	BreakerThreshold int
	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:          10 * time.Second,
		MaxBodyBytes:     10 << 20,
		UserAgent:        "kvtrack/" + kvtrack.Version,
		MaxConcurrent:    10,
		BreakerThreshold: 5,
		BreakerTimeout:   30 * time.Second,
	}
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// WithTracer sets the tracer used for fetch spans.
func WithTracer(t trace.Tracer) Option {
	return func(f *Fetcher) {
		f.tracer = t
	}
}

// response is what crosses the circuit breaker. Client errors (4xx) are
// returned as responses so they do not trip the breaker.
type response struct {
	body   string
	status int
}

// Fetcher performs guarded HTTP GET requests.
type Fetcher struct {
	config   Config
	client   *http.Client
	executor *resilience.Executor[response]
	metrics  telemetry.Metrics
	tracer   trace.Tracer
}

// New creates a new HTTP fetcher.
func New(config Config, opts ...Option) *Fetcher {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if config.UserAgent == "" {
		config.UserAgent = defaults.UserAgent
	}

	f := &Fetcher{
		config: config,
		client: &http.Client{},
		executor: resilience.NewExecutor[response](resilience.ExecutorConfig{
			MaxConcurrent:           config.MaxConcurrent,
			CircuitBreakerThreshold: config.BreakerThreshold,
			CircuitBreakerTimeout:   config.BreakerTimeout,
			DefaultTimeout:          config.Timeout,
		}),
		metrics: &telemetry.NoopMetricsProvider{},
		tracer:  otel.Tracer("github.com/felixgeelhaar/kvtrack/infrastructure/fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a single GET request. Only 2xx responses succeed.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	ctx, span := f.tracer.Start(ctx, "fetch.page",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", rawURL)),
	)
	defer span.End()

	host := hostOf(rawURL)
	start := time.Now()

	resp, err := f.executor.Execute(ctx, func(ctx context.Context) (response, error) {
		return f.do(ctx, rawURL)
	})
	duration := time.Since(start)

	if err == nil && (resp.status < 200 || resp.status > 299) {
		err = &page.FetchError{URL: rawURL, StatusCode: resp.status}
	}
	if err != nil {
		var fe *page.FetchError
		if !errors.As(err, &fe) {
			fe = &page.FetchError{URL: rawURL, Err: err}
			err = fe
		}
		f.metrics.RecordFetch(ctx, host, fe.StatusCode, false, duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logging.Warn().
			Add(logging.URL(rawURL)).
			Add(logging.Status(fe.StatusCode)).
			Add(logging.Duration(duration)).
			Add(logging.ErrorField(err)).
			Msg("page fetch failed")
		return "", err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.status))
	f.metrics.RecordFetch(ctx, host, resp.status, true, duration)
	logging.Debug().
		Add(logging.URL(rawURL)).
		Add(logging.Status(resp.status)).
		Add(logging.Duration(duration)).
		Msg("page fetched")
	return resp.body, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return response{status: resp.StatusCode}, &page.FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes+1))
	if err != nil {
		return response{status: resp.StatusCode}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodyBytes {
		return response{status: resp.StatusCode}, &page.FetchError{URL: rawURL, Err: ErrBodyTooLarge}
	}
	return response{body: string(body), status: resp.StatusCode}, nil
}

// BreakerState reports the circuit breaker state.
func (f *Fetcher) BreakerState() string {
	return f.executor.CircuitBreakerState().String()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

var _ page.Fetcher = (*Fetcher)(nil)
