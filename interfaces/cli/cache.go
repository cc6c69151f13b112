package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kvtrack/application"
	"github.com/felixgeelhaar/kvtrack/domain/value"
	instrument "github.com/felixgeelhaar/kvtrack/infrastructure/middleware"
)

// newCache builds a Cache over the configured store with logging and metrics.
func (a *App) newCache(ctx context.Context, flush bool) (*application.Cache, error) {
	store, err := a.kvStore(ctx)
	if err != nil {
		return nil, err
	}
	return application.NewCache(ctx, store,
		application.WithFlushOnStart(flush),
		application.WithMiddleware(
			instrument.Logging(instrument.LoggingConfig{LogInput: true, LogOutput: true}),
			instrument.Metrics(instrument.MetricsConfig{Provider: a.metrics}),
		),
	)
}

// newStoreCmd creates the store command.
func (a *App) newStoreCmd() *cobra.Command {
	var (
		kindName string
		flush    bool
	)

	cmd := &cobra.Command{
		Use:   "store <value>...",
		Short: "Store values under fresh random keys",
		Long: `Store each value under a fresh random key and print the keys, one per line.

Every call is counted and its input and output recorded, so it shows up in
"kvtrack replay" and "kvtrack count".

Examples:
  kvtrack store hello
  kvtrack store --type int 42 7
  kvtrack store --flush --type float 3.14`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := value.ParseKind(kindName)
			if err != nil {
				return err
			}

			values := make([]value.Value, len(args))
			for i, arg := range args {
				if values[i], err = value.Parse(kind, arg); err != nil {
					return err
				}
			}

			c, err := a.newCache(cmd.Context(), flush)
			if err != nil {
				return err
			}
			for _, v := range values {
				key, err := c.Store(cmd.Context(), v)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, key)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindName, "type", "t", "text", "Value type (text, bytes, int, float)")
	cmd.Flags().BoolVar(&flush, "flush", false, "Flush the store before storing")

	return cmd
}

// newGetCmd creates the get command.
func (a *App) newGetCmd() *cobra.Command {
	var kindName string

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read a stored value",
		Long: `Read the value stored under key and print it. A missing key prints "(nil)".

--as selects the conversion: raw prints the stored bytes unchanged, str
requires valid UTF-8, int and float parse the stored decimal text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := value.ParseKind(kindName)
			if err != nil {
				return err
			}

			c, err := a.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}

			if kind == value.KindBytes {
				raw, found, err := c.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !found {
					fmt.Fprintln(a.stdout, "(nil)")
					return nil
				}
				_, err = fmt.Fprintf(a.stdout, "%s\n", raw)
				return err
			}

			v, found, err := c.GetValue(cmd.Context(), args[0], kind)
			if err != nil {
				return err
			}
			if !found {
				fmt.Fprintln(a.stdout, "(nil)")
				return nil
			}
			if s, ok := v.Text(); ok {
				fmt.Fprintln(a.stdout, s)
				return nil
			}
			fmt.Fprintln(a.stdout, v.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&kindName, "as", "str", "Conversion (raw, str, int, float)")

	return cmd
}

// newReplayCmd creates the replay command.
func (a *App) newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay [method]",
		Short: "Print the recorded call history of a method",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := application.MethodStore
			if len(args) > 0 {
				method = args[0]
			}
			store, err := a.kvStore(cmd.Context())
			if err != nil {
				return err
			}
			return application.NewReplayer(store).Replay(cmd.Context(), method, a.stdout)
		},
	}
}

// newCountCmd creates the count command.
func (a *App) newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count [method]",
		Short: "Print how many times a method was called",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := application.MethodStore
			if len(args) > 0 {
				method = args[0]
			}
			store, err := a.kvStore(cmd.Context())
			if err != nil {
				return err
			}
			n, err := application.GetCount(cmd.Context(), store, method)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, n)
			return nil
		},
	}
}
