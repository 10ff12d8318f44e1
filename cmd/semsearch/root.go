package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/semsearch/internal/app"
	"github.com/dshills/semsearch/internal/config"
	"github.com/dshills/semsearch/internal/logging"
	"github.com/dshills/semsearch/pkg/types"
)

// rootOptions holds persistent flags and what PersistentPreRunE builds from them
type rootOptions struct {
	configPath string
	dsn        string
	provider   string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "semsearch",
		Short:         "Semantic search over Python functions and classes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsConfig(cmd) {
				return nil
			}
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ./semsearch.yaml or ~/.config/semsearch/config.yaml)")
	flags.StringVar(&opts.dsn, "dsn", "", "index location: SQLite path or postgres:// URL (overrides store.dsn)")
	flags.StringVar(&opts.provider, "provider", "", "embedding provider: openai, jina or local (overrides embedding.provider)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: console or json")

	root.AddCommand(
		newIndexCmd(opts),
		newFindCmd(opts),
		newStatsCmd(opts),
		newServeCmd(opts),
		newEmbedCmd(opts),
		newVersionCmd(),
	)

	root.SetErr(os.Stderr)
	root.SetOut(os.Stdout)
	return root
}

// skipsConfig reports commands that run without configuration
func skipsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "help", "completion":
			return true
		}
	}
	return false
}

// load reads configuration, applies flag overrides and builds the logger
func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.dsn != "" {
		cfg.Store.DSN = o.dsn
	}
	if o.provider != "" {
		cfg.Embedding.Provider = strings.ToLower(o.provider)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = logger
	if file := config.ConfigFile(); o.configPath == "" && file != "" {
		logger.Debug("using config file", zap.String("path", file))
	}
	return nil
}

// openApp assembles the components; the caller closes the App
func (o *rootOptions) openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, o.cfg, o.logger)
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// exitCode maps error categories to process exit codes
func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrConfiguration):
		return 2
	case errors.Is(err, types.ErrStore):
		return 3
	case errors.Is(err, types.ErrProvider):
		return 4
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
