package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/semsearch/internal/embedder"
	"github.com/dshills/semsearch/internal/normalizer"
)

func newEmbedCmd(opts *rootOptions) *cobra.Command {
	var show int

	cmd := &cobra.Command{
		Use:   "embed <text>",
		Short: "Embed a piece of text with the configured provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

			provider, err := embedder.New(opts.cfg.EmbedderConfig())
			if err != nil {
				return err
			}
			client := embedder.NewClient(provider, opts.logger)
			defer client.Close()

			vec, err := client.Embed(cmd.Context(), text)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Provider:  %s (%s)\n", provider.Provider(), provider.Model())
			fmt.Fprintf(w, "Sanitized: %q\n", normalizer.SanitizeForEmbedding(text))
			fmt.Fprintf(w, "Dimension: %d\n", len(vec))
			fmt.Fprintf(w, "Called:    %t\n", client.ProviderCalls() > 0)
			fmt.Fprintf(w, "Head:      %s\n", formatHead(vec, show))
			return nil
		},
	}

	cmd.Flags().IntVar(&show, "show", 5, "number of leading components to print")
	return cmd
}

// formatHead renders the first n components of vec
func formatHead(vec []float32, n int) string {
	if n > len(vec) {
		n = len(vec)
	}
	if n <= 0 {
		return "[]"
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%.4f", vec[i])
	}
	suffix := ""
	if n < len(vec) {
		suffix = " ..."
	}
	return "[" + strings.Join(parts, " ") + suffix + "]"
}
