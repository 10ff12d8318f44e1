package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/semsearch/internal/storage"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "semsearch %s\n", version)
			fmt.Fprintf(w, "Build time: %s\n", buildTime)
			fmt.Fprintf(w, "Build mode: %s\n", storage.BuildMode)
			fmt.Fprintf(w, "SQLite driver: %s\n", storage.DriverName)
			fmt.Fprintf(w, "Vector extension: %t\n", storage.VectorExtensionAvailable)
		},
	}
}
