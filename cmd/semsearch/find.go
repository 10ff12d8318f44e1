package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/semsearch/internal/searcher"
)

func newFindCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Find the code elements most similar to a natural-language query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := opts.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.Find(ctx, query, resolveLimit(cmd, limit, opts.cfg.Search.Limit))
			if err != nil {
				return err
			}
			printResults(cmd.OutOrStdout(), query, resp.Results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", searcher.DefaultLimit, "maximum number of results (default search.limit)")
	return cmd
}

// resolveLimit prefers an explicit --limit over search.limit
func resolveLimit(cmd *cobra.Command, flagValue, configured int) int {
	if cmd.Flags().Changed("limit") {
		return flagValue
	}
	return configured
}
