package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kvtrack/application"
)

func (a *App) newWebCache(ctx context.Context) (*application.WebCache, error) {
	store, err := a.kvStore(ctx)
	if err != nil {
		return nil, err
	}
	return application.NewWebCache(store, a.pageFetcher(),
		application.WithTTL(a.config.WebCache.TTL.Duration()),
		application.WithMetrics(a.metrics),
	), nil
}

// newPageCmd creates the page command.
func (a *App) newPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "page <url>",
		Short: "Fetch a page through the cache and print its body",
		Long: `Fetch url and print the response body. Bodies are cached for the configured
TTL (10s by default) and every request is counted, hit or miss. Only 2xx
responses are cached.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.newWebCache(cmd.Context())
			if err != nil {
				return err
			}
			body, err := w.GetPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.stdout, body)
			return err
		},
	}
}

// newHitsCmd creates the hits command.
func (a *App) newHitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hits <url>",
		Short: "Print how many times a page was requested",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.newWebCache(cmd.Context())
			if err != nil {
				return err
			}
			n, err := w.AccessCount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, n)
			return nil
		},
	}
}
