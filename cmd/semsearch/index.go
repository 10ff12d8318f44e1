package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/semsearch/internal/app"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var idx app.IndexOptions

	cmd := &cobra.Command{
		Use:   "index <directory>",
		Short: "Extract, embed and store every function and class under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("invalid path: %w", err)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := opts.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Indexing %s\n", root)
			stats, err := a.Index(ctx, root, idx)
			if stats != nil {
				printIndexSummary(cmd.OutOrStdout(), stats)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&idx.Clear, "clear", false, "remove all records before indexing")
	cmd.Flags().IntVar(&idx.Workers, "workers", 0, "concurrent embedding calls per file (default index.workers)")
	cmd.Flags().StringVar(&idx.OnProviderError, "on-provider-error", "", "skip or abort when the embedding provider fails")
	return cmd
}
