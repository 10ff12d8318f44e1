// Package indexer drives the indexing pipeline for Python source trees.
//
// For every discovered file the indexer extracts function and class
// declarations, builds each element's searchable text, embeds it and
// appends a record to the vector store.
//
// # Basic Usage
//
//	idx := indexer.New(parser.New(), client, store, logger)
//
//	stats, err := idx.IndexDirectory(ctx, "/path/to/project", &indexer.Config{
//	    Workers:         8,
//	    OnProviderError: indexer.SkipOnProviderError,
//	})
//
//	fmt.Printf("Indexed %d elements from %d files in %v\n",
//	    stats.ElementsIndexed, stats.FilesProcessed, stats.Duration)
//
// # Discovery
//
// Files ending in .py are collected recursively in lexical order. Hidden
// files and directories are skipped, as are __pycache__, node_modules, venv,
// build, dist and site-packages. An entry below the root that cannot be
// read is logged, counted in Statistics.ReadErrors and skipped; an
// unreadable root fails the run with a ConfigurationError.
//
// # Concurrency
//
// Files are processed one after another. When the embedder implements
// BatchEmbedder, a file's texts are embedded embedder.MaxBatchSize at a
// time; a batch that fails with a ProviderError is retried one element at a
// time. Insert calls, and any per-element embed calls, run on an errgroup
// limited to Config.Workers (default NumCPU). A
// file's elements run on a context detached from cancellation, so a
// cancelled run stops at the next file boundary with every element of the
// current file either stored or skipped.
//
// Only one run may be active per Indexer; a concurrent call returns
// ErrIndexingInProgress.
//
// # Error Handling
//
//   - ParseError or unreadable file: the file is skipped and counted
//   - ProviderError: the element is skipped (SkipOnProviderError) or the
//     run stops (AbortOnProviderError)
//   - ConfigurationError, StoreError: the run stops
//
// Records already inserted stay in the store when a run stops; there is no
// transaction spanning a run. Re-indexing a file appends duplicate records
// unless Config.Clear is set.
package indexer
