// Package app wires configuration into the indexing and search components.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/semsearch/internal/config"
	"github.com/dshills/semsearch/internal/embedder"
	"github.com/dshills/semsearch/internal/indexer"
	"github.com/dshills/semsearch/internal/parser"
	"github.com/dshills/semsearch/internal/searcher"
	"github.com/dshills/semsearch/internal/storage"
)

// App holds the long-lived components of one process. Close releases them.
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Client   *embedder.Client
	Store    storage.VectorStore
	Indexer  *indexer.Indexer
	Searcher *searcher.Searcher
}

// New builds the embedder, opens the store at the embedder's dimension and
// assembles the pipeline. Missing credentials fail here, before any call.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	provider, err := embedder.New(cfg.EmbedderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	client := embedder.NewClient(provider, logger)

	store, err := storage.Open(ctx, cfg.Store.DSN, client.Dimension(), logger)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	logger.Debug("components ready",
		zap.String("provider", provider.Provider()),
		zap.String("model", provider.Model()),
		zap.Int("dimension", client.Dimension()),
		zap.String("backend", store.Backend()))

	return &App{
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Store:    store,
		Indexer:  indexer.New(parser.New(), client, store, logger),
		Searcher: searcher.NewSearcher(store, client, logger),
	}, nil
}

// IndexOptions override the configured indexing settings for one run
type IndexOptions struct {
	Clear           bool
	Workers         int    // 0 keeps index.workers
	OnProviderError string // "" keeps index.on_provider_error
}

// Index runs the pipeline over root and invalidates cached search results
func (a *App) Index(ctx context.Context, root string, opts IndexOptions) (*indexer.Statistics, error) {
	workers := a.Config.Index.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}
	policyName := a.Config.Index.OnProviderError
	if opts.OnProviderError != "" {
		policyName = opts.OnProviderError
	}
	policy, err := indexer.ParseProviderErrorPolicy(policyName)
	if err != nil {
		return nil, err
	}

	stats, err := a.Indexer.IndexDirectory(ctx, root, &indexer.Config{
		Workers:         workers,
		OnProviderError: policy,
		Clear:           opts.Clear,
	})
	if !errors.Is(err, indexer.ErrIndexingInProgress) {
		a.Searcher.InvalidateCache()
	}
	return stats, err
}

// Find searches with the configured cache settings. limit reaches the store
// unchanged, so limit <= 0 finds nothing.
func (a *App) Find(ctx context.Context, query string, limit int) (*searcher.SearchResponse, error) {
	return a.Searcher.Search(ctx, searcher.SearchRequest{
		Query:    query,
		Limit:    limit,
		UseCache: a.Config.Search.CacheTTL > 0,
		CacheTTL: a.Config.Search.CacheTTL,
	})
}

// Stats returns aggregate counts over the index
func (a *App) Stats(ctx context.Context) (*storage.Stats, error) {
	return a.Store.Stats(ctx)
}

// Close releases the store and the embedder
func (a *App) Close() error {
	return errors.Join(a.Store.Close(), a.Client.Close())
}
