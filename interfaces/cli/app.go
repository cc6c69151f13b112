// Package cli provides the kvtrack command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kvtrack"
	domainconfig "github.com/felixgeelhaar/kvtrack/domain/config"
	"github.com/felixgeelhaar/kvtrack/domain/kv"
	"github.com/felixgeelhaar/kvtrack/domain/page"
	infraconfig "github.com/felixgeelhaar/kvtrack/infrastructure/config"
	"github.com/felixgeelhaar/kvtrack/infrastructure/fetch"
	"github.com/felixgeelhaar/kvtrack/infrastructure/logging"
	"github.com/felixgeelhaar/kvtrack/infrastructure/observability"
	"github.com/felixgeelhaar/kvtrack/infrastructure/storage/mongodb"
	"github.com/felixgeelhaar/kvtrack/infrastructure/telemetry"
)

// Version information set at build time.
var (
	Version   = kvtrack.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions holds the root persistent flags.
type globalOptions struct {
	configPath string
	logLevel   string
	backend    string
}

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer
	opts   globalOptions

	config  *domainconfig.Config
	builder *infraconfig.Builder
	tracing *observability.Provider
	metrics telemetry.Metrics

	store     kv.Store
	ownsStore bool
	fetcher   page.Fetcher
	mongo     *mongodb.Client
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "kvtrack",
		Short: "Instrumented key-value cache, web cache and document queries",
		Long: `kvtrack stores values under random keys in Redis, counts and records every
store call so it can be replayed, caches fetched web pages with a short TTL,
and runs the school and nginx log queries against MongoDB.

Each command prints its result to stdout. Logs go to stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd.Context())
		},
	}

	flags := app.root.PersistentFlags()
	flags.StringVarP(&app.opts.configPath, "config", "c", "", "Path to configuration file (yaml or json)")
	flags.StringVar(&app.opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&app.opts.backend, "backend", "", "Key-value backend (redis, badger or memory)")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newStoreCmd(),
		app.newGetCmd(),
		app.newReplayCmd(),
		app.newCountCmd(),
		app.newPageCmd(),
		app.newHitsCmd(),
		app.newSchoolsCmd(),
		app.newLogsCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// WithStore makes every command use store instead of the configured backend.
// The caller keeps ownership.
func (a *App) WithStore(store kv.Store) *App {
	a.store = store
	a.ownsStore = false
	return a
}

// WithFetcher replaces the HTTP fetcher.
func (a *App) WithFetcher(f page.Fetcher) *App {
	a.fetcher = f
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	// Set up signal handling
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer a.close()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// setup loads configuration and initializes logging and tracing.
func (a *App) setup(ctx context.Context) error {
	cfg, err := infraconfig.NewLoader().LoadFile(a.opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.opts.backend != "" {
		cfg.Backend = a.opts.backend
		if errs := cfg.Validate(); errs.HasErrors() {
			return fmt.Errorf("%w: %v", domainconfig.ErrValidationFailed, errs)
		}
	}
	a.config = cfg
	a.builder = infraconfig.NewBuilder(cfg)

	logCfg := a.builder.Logging()
	logCfg.Output = a.stderr
	logging.Init(logCfg)
	if a.opts.logLevel != "" {
		logging.SetLevel(a.opts.logLevel)
	}

	a.tracing, err = observability.New(ctx, a.builder.Observability(Version)...)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	a.metrics = telemetry.NewMetricsProvider(telemetry.DefaultMetricsConfig())

	return nil
}

// kvStore returns the injected store or connects the configured one.
func (a *App) kvStore(ctx context.Context) (kv.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := a.builder.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	logging.Debug().
		Add(logging.Backend(a.config.Backend)).
		Msg("store connected")
	a.store = store
	a.ownsStore = true
	return store, nil
}

// pageFetcher returns the injected fetcher or builds the HTTP one.
func (a *App) pageFetcher() page.Fetcher {
	if a.fetcher == nil {
		a.fetcher = fetch.New(a.builder.Fetch(),
			fetch.WithMetrics(a.metrics),
			fetch.WithTracer(a.tracing.Tracer()),
		)
	}
	return a.fetcher
}

// mongoClient connects to MongoDB on first use.
func (a *App) mongoClient(ctx context.Context) (*mongodb.Client, error) {
	if a.mongo != nil {
		return a.mongo, nil
	}
	client, err := mongodb.NewClient(ctx, a.builder.Mongo()...)
	if err != nil {
		return nil, err
	}
	a.mongo = client
	return client, nil
}

// close releases everything opened during the command.
func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if a.ownsStore {
		if c, ok := a.store.(kv.Closer); ok {
			errs = append(errs, c.Close())
		}
		a.store = nil
		a.ownsStore = false
	}
	if a.mongo != nil {
		errs = append(errs, a.mongo.Close(ctx))
		a.mongo = nil
	}
	if a.tracing != nil {
		errs = append(errs, a.tracing.Shutdown(ctx))
		a.tracing = nil
	}
	if err := errors.Join(errs...); err != nil {
		logging.Warn().Add(logging.ErrorField(err)).Msg("shutdown")
	}
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "kvtrack version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
