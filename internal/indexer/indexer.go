package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/semsearch/internal/embedder"
	"github.com/dshills/semsearch/internal/normalizer"
	"github.com/dshills/semsearch/internal/storage"
	"github.com/dshills/semsearch/pkg/types"
)

// ErrIndexingInProgress is returned when a run is already active on the Indexer
var ErrIndexingInProgress = errors.New("indexing already in progress")

// ProviderErrorPolicy decides what a ProviderError does to a run
type ProviderErrorPolicy string

const (
	// SkipOnProviderError logs the failed element and continues
	SkipOnProviderError ProviderErrorPolicy = "skip"
	// AbortOnProviderError stops the run at the first failed element
	AbortOnProviderError ProviderErrorPolicy = "abort"
)

// ParseProviderErrorPolicy validates a policy name; empty means skip
func ParseProviderErrorPolicy(s string) (ProviderErrorPolicy, error) {
	switch ProviderErrorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SkipOnProviderError:
		return SkipOnProviderError, nil
	case AbortOnProviderError:
		return AbortOnProviderError, nil
	default:
		return "", fmt.Errorf("%w: unknown provider error policy %q (want skip or abort)", types.ErrConfiguration, s)
	}
}

// skippedDirs are never descended into
var skippedDirs = map[string]bool{
	"__pycache__":   true,
	"node_modules":  true,
	"venv":          true,
	"build":         true,
	"dist":          true,
	"site-packages": true,
}

// Extractor produces the code elements of one source file
type Extractor interface {
	ExtractFile(ctx context.Context, path string) ([]types.CodeElement, error)
}

// Embedder turns text into a vector of the store's dimension
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is an Embedder that can embed many texts per provider call
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Indexer coordinates the indexing pipeline: extract -> normalize -> embed -> store
type Indexer struct {
	extractor Extractor
	embedder  Embedder
	store     storage.VectorStore
	logger    *zap.Logger
	lock      IndexLock
}

// Config contains configuration for a run
type Config struct {
	Workers         int                 // concurrent embed+insert calls per file (default: runtime.NumCPU())
	OnProviderError ProviderErrorPolicy // default: skip
	Clear           bool                // wipe the store before indexing
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	FilesDiscovered   int
	FilesProcessed    int
	FilesSkipped      int
	ElementsExtracted int
	ElementsIndexed   int
	ElementsSkipped   int
	ParseErrors       int
	ReadErrors        int
	ProviderErrors    int
	Duration          time.Duration
	ErrorMessages     []string
}

// New creates a new Indexer instance
func New(extractor Extractor, emb Embedder, store storage.VectorStore, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		extractor: extractor,
		embedder:  emb,
		store:     store,
		logger:    logger.Named("indexer"),
	}
}

// runState accumulates counters shared by a file's workers
type runState struct {
	indexed        atomic.Int64
	skipped        atomic.Int64
	providerErrors atomic.Int64

	mu       sync.Mutex
	messages []string
}

func (r *runState) addMessage(format string, args ...any) {
	r.mu.Lock()
	r.messages = append(r.messages, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

// IndexDirectory indexes every Python file under root.
// Parse and read failures skip the file; provider failures follow
// cfg.OnProviderError; configuration and store failures abort the run.
// Cancellation is honored between files. Statistics are returned even
// when the run aborts.
func (idx *Indexer) IndexDirectory(ctx context.Context, root string, cfg *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	if cfg == nil {
		cfg = &Config{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	policy, err := ParseProviderErrorPolicy(string(cfg.OnProviderError))
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	stats := &Statistics{ErrorMessages: make([]string, 0)}
	state := &runState{}
	defer func() {
		stats.ElementsIndexed = int(state.indexed.Load())
		stats.ElementsSkipped = int(state.skipped.Load())
		stats.ProviderErrors = int(state.providerErrors.Load())
		stats.ErrorMessages = append(stats.ErrorMessages, state.messages...)
		stats.Duration = time.Since(startTime)
	}()

	disc, err := DiscoverFiles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	files := disc.Files
	stats.FilesDiscovered = len(files)
	for _, msg := range disc.Skipped {
		stats.ReadErrors++
		stats.ErrorMessages = append(stats.ErrorMessages, msg)
		idx.logger.Warn("skipping unreadable path", zap.String("detail", msg))
	}

	if cfg.Clear {
		if err := idx.store.Clear(ctx); err != nil {
			return stats, err
		}
	}

	idx.logger.Info("indexing started",
		zap.String("root", root),
		zap.Int("files", len(files)),
		zap.Int("workers", workers),
		zap.String("on_provider_error", string(policy)))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			idx.logger.Warn("indexing cancelled", zap.Int("files_processed", stats.FilesProcessed))
			return stats, err
		}

		elements, err := idx.extractor.ExtractFile(ctx, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			stats.FilesSkipped++
			if errors.Is(err, types.ErrParse) {
				stats.ParseErrors++
			} else {
				stats.ReadErrors++
			}
			state.addMessage("%s: %v", path, err)
			idx.logger.Warn("skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		stats.ElementsExtracted += len(elements)

		if err := idx.indexElements(context.WithoutCancel(ctx), elements, workers, policy, state); err != nil {
			return stats, err
		}
		stats.FilesProcessed++
		idx.logger.Debug("file indexed", zap.String("file", path), zap.Int("elements", len(elements)))
	}

	idx.logger.Info("indexing finished",
		zap.Int("files_processed", stats.FilesProcessed),
		zap.Int("files_skipped", stats.FilesSkipped),
		zap.Int64("elements_indexed", state.indexed.Load()),
		zap.Int64("elements_skipped", state.skipped.Load()),
		zap.Duration("duration", time.Since(startTime)))
	return stats, nil
}

// indexElements embeds and inserts one file's elements on a bounded pool.
// With a BatchEmbedder, texts are embedded embedder.MaxBatchSize at a time;
// a batch that fails with a provider error falls back to one call per
// element so the policy applies to each element on its own.
func (idx *Indexer) indexElements(ctx context.Context, elements []types.CodeElement, workers int,
	policy ProviderErrorPolicy, state *runState) error {

	texts := make([]string, len(elements))
	for i, elem := range elements {
		texts[i] = normalizer.ElementText(elem)
	}
	vectors, err := idx.embedBatches(ctx, texts)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, elem := range elements {
		g.Go(func() error {
			return idx.indexElement(gctx, elem, texts[i], vectors[i], policy, state)
		})
	}

	return g.Wait()
}

// embedBatches returns one vector per text, nil where the element must be
// embedded on its own
func (idx *Indexer) embedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	batcher, ok := idx.embedder.(BatchEmbedder)
	if !ok {
		return vectors, nil
	}

	for start := 0; start < len(texts); start += embedder.MaxBatchSize {
		end := min(start+embedder.MaxBatchSize, len(texts))
		batch, err := batcher.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			if !errors.Is(err, types.ErrProvider) {
				return nil, fmt.Errorf("embed batch: %w", err)
			}
			idx.logger.Debug("batch embedding failed, embedding elements one by one",
				zap.Int("batch_size", end-start),
				zap.Error(err))
			continue
		}
		copy(vectors[start:end], batch)
	}
	return vectors, nil
}

// indexElement runs embed -> insert for one element; a nil vector is
// fetched with a single Embed call
func (idx *Indexer) indexElement(ctx context.Context, elem types.CodeElement, text string,
	vector []float32, policy ProviderErrorPolicy, state *runState) error {

	if vector == nil {
		var err error
		vector, err = idx.embedder.Embed(ctx, text)
		if err != nil {
			if !errors.Is(err, types.ErrProvider) || policy == AbortOnProviderError {
				return fmt.Errorf("embed %s:%d %s: %w", elem.FilePath, elem.LineNumber, elem.Name, err)
			}
			state.providerErrors.Add(1)
			state.skipped.Add(1)
			state.addMessage("%s:%d %s: %v", elem.FilePath, elem.LineNumber, elem.Name, err)
			idx.logger.Warn("skipping element",
				zap.String("file", elem.FilePath),
				zap.Int("line", elem.LineNumber),
				zap.String("name", elem.Name),
				zap.Error(err))
			return nil
		}
	}

	rec := &storage.Record{
		Element:        elem,
		SearchableText: text,
		Embedding:      vector,
	}
	if err := idx.store.Insert(ctx, rec); err != nil {
		return err
	}
	state.indexed.Add(1)
	return nil
}

// Discovery is the result of walking an index root
type Discovery struct {
	Files   []string // .py files in lexical order
	Skipped []string // "path: error" for entries the walk could not read
}

// walkDir is swapped in tests to inject walk failures
var walkDir = filepath.WalkDir

// DiscoverFiles returns every .py file under root in lexical order,
// skipping hidden entries and build-artifact directories. Unreadable
// entries below root are recorded in Skipped and the walk continues;
// only a failure on root itself is returned, as a configuration error.
func DiscoverFiles(root string) (*Discovery, error) {
	disc := &Discovery{}

	err := walkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("%w: index root %s: %w", types.ErrConfiguration, root, err)
			}
			disc.Skipped = append(disc.Skipped, fmt.Sprintf("%s: %v", path, err))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") || skippedDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".py") {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		disc.Files = append(disc.Files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// WalkDir already walks in lexical order per directory; sort makes the whole list lexical
	sort.Strings(disc.Files)
	return disc, nil
}
