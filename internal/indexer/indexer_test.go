package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dshills/semsearch/internal/embedder"
	"github.com/dshills/semsearch/internal/parser"
	"github.com/dshills/semsearch/internal/storage"
	"github.com/dshills/semsearch/pkg/types"
)

const testDim = 8

// mockEmbedder implements Embedder for testing
type mockEmbedder struct {
	mu        sync.Mutex
	texts     []string
	failOn    string // substring that triggers err
	err       error
	delay     time.Duration
	callCount atomic.Int64
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.callCount.Add(1)
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()

	if m.err != nil && (m.failOn == "" || strings.Contains(text, m.failOn)) {
		return nil, m.err
	}

	vector := make([]float32, testDim)
	for i := range vector {
		vector[i] = float32(len(text)%(i+2)) + 0.5
	}
	return vector, nil
}

// batchingEmbedder adds EmbedBatch to mockEmbedder and records how it was called
type batchingEmbedder struct {
	mockEmbedder
	batchErr error

	callsMu    sync.Mutex
	batchSizes []int
	singles    []string
}

func (b *batchingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	b.callsMu.Lock()
	b.singles = append(b.singles, text)
	b.callsMu.Unlock()
	return b.mockEmbedder.Embed(ctx, text)
}

func (b *batchingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	b.callsMu.Lock()
	b.batchSizes = append(b.batchSizes, len(texts))
	b.callsMu.Unlock()
	if b.batchErr != nil {
		return nil, b.batchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := b.mockEmbedder.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func setupTestStorage(t testing.TB) storage.VectorStore {
	t.Helper()
	store, err := storage.NewSQLiteStore(context.Background(), ":memory:", testDim, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleModule = `"""Sample module."""

def add(a, b):
    """Add two numbers."""
    return a + b


def subtract(a, b):
    return a - b


class Calculator(Base):
    """A calculator."""

    def multiply(self, x, y):
        return x * y
`

func TestNew(t *testing.T) {
	store := setupTestStorage(t)
	idx := New(parser.New(), &mockEmbedder{}, store, nil)

	require.NotNil(t, idx)
	assert.NotNil(t, idx.logger)
	assert.Equal(t, store, idx.store)
}

func TestParseProviderErrorPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ProviderErrorPolicy
		wantErr bool
	}{
		{"", SkipOnProviderError, false},
		{"skip", SkipOnProviderError, false},
		{"ABORT", AbortOnProviderError, false},
		{" abort ", AbortOnProviderError, false},
		{"retry", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProviderErrorPolicy(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverFiles(t *testing.T) {
	tmpDir := t.TempDir()

	createTestFile(t, tmpDir, "b.py", "")
	createTestFile(t, tmpDir, "a.py", "")
	createTestFile(t, tmpDir, "pkg/mod.py", "")
	createTestFile(t, tmpDir, "pkg/notes.txt", "")
	createTestFile(t, tmpDir, "pkg/.hidden.py", "")
	createTestFile(t, tmpDir, ".git/hook.py", "")
	createTestFile(t, tmpDir, "__pycache__/a.cpython-312.py", "")
	createTestFile(t, tmpDir, "node_modules/x.py", "")
	createTestFile(t, tmpDir, "venv/lib/site.py", "")
	createTestFile(t, tmpDir, "build/gen.py", "")
	createTestFile(t, tmpDir, "dist/gen.py", "")
	createTestFile(t, tmpDir, "lib/site-packages/dep.py", "")

	disc, err := DiscoverFiles(tmpDir)
	require.NoError(t, err)

	want := []string{
		filepath.Join(tmpDir, "a.py"),
		filepath.Join(tmpDir, "b.py"),
		filepath.Join(tmpDir, "pkg", "mod.py"),
	}
	assert.Equal(t, want, disc.Files)
	assert.Empty(t, disc.Skipped)
}

func TestDiscoverFiles_EmptyDirectory(t *testing.T) {
	disc, err := DiscoverFiles(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, disc.Files)
}

func TestDiscoverFiles_MissingRoot(t *testing.T) {
	_, err := DiscoverFiles(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorIs(t, err, types.ErrConfiguration)
}

// failWalkOn makes the walk report fs.ErrPermission for the named directory
func failWalkOn(t *testing.T, dirName string) {
	t.Helper()
	orig := walkDir
	walkDir = func(root string, fn fs.WalkDirFunc) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() && d.Name() == dirName {
				return fn(path, d, fs.ErrPermission)
			}
			return fn(path, d, err)
		})
	}
	t.Cleanup(func() { walkDir = orig })
}

func TestDiscoverFiles_UnreadableDirectoryIsSkipped(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "a.py", "")
	createTestFile(t, tmpDir, "locked/hidden.py", "")
	createTestFile(t, tmpDir, "z/b.py", "")
	failWalkOn(t, "locked")

	disc, err := DiscoverFiles(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(tmpDir, "a.py"),
		filepath.Join(tmpDir, "z", "b.py"),
	}, disc.Files)
	require.Len(t, disc.Skipped, 1)
	assert.Contains(t, disc.Skipped[0], filepath.Join(tmpDir, "locked"))
	assert.Contains(t, disc.Skipped[0], fs.ErrPermission.Error())
}

func TestIndexDirectory_UnreadableDirectoryIsCounted(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "calc.py", sampleModule)
	createTestFile(t, tmpDir, "locked/other.py", sampleModule)
	failWalkOn(t, "locked")

	core, logs := observer.New(zapcore.WarnLevel)
	idx := New(parser.New(), &mockEmbedder{}, setupTestStorage(t), zap.New(core))

	stats, err := idx.IndexDirectory(context.Background(), tmpDir, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesDiscovered)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.ReadErrors)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "locked")
	assert.Equal(t, 1, logs.FilterMessage("skipping unreadable path").Len())
}

func TestIndexDirectory_Success(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "calc.py", sampleModule)

	store := setupTestStorage(t)
	emb := &mockEmbedder{}
	idx := New(parser.New(), emb, store, nil)

	stats, err := idx.IndexDirectory(context.Background(), tmpDir, &Config{Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.FilesDiscovered)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 4, stats.ElementsExtracted)
	assert.Equal(t, 4, stats.ElementsIndexed)
	assert.Equal(t, 0, stats.ElementsSkipped)
	assert.Empty(t, stats.ErrorMessages)
	assert.Greater(t, stats.Duration, time.Duration(0))

	storeStats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.Stats{TotalElements: 4, Functions: 3, Classes: 1, UniqueFiles: 1}, *storeStats)

	assert.Contains(t, emb.texts, "add def add(a, b) Add two numbers.")
	assert.Contains(t, emb.texts, "Calculator class Calculator(Base) A calculator.")
}

func TestIndexDirectory_SearchableTextStored(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "one.py", "def solo(x):\n    pass\n")

	store := setupTestStorage(t)
	emb := &mockEmbedder{}
	idx := New(parser.New(), emb, store, nil)

	_, err := idx.IndexDirectory(context.Background(), tmpDir, nil)
	require.NoError(t, err)

	vec, err := emb.Embed(context.Background(), "solo def solo(x)")
	require.NoError(t, err)
	hits, err := store.Search(context.Background(), vec, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "solo def solo(x)", hits[0].SearchableText)
	assert.Equal(t, "def solo(x)", hits[0].Element.Signature)
	assert.Equal(t, 1, hits[0].Element.LineNumber)
}

func TestIndexDirectory_EmptyProject(t *testing.T) {
	store := setupTestStorage(t)
	idx := New(parser.New(), &mockEmbedder{}, store, nil)

	stats, err := idx.IndexDirectory(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesDiscovered)
	assert.Equal(t, 0, stats.ElementsIndexed)
}

func TestIndexDirectory_MissingRoot(t *testing.T) {
	store := setupTestStorage(t)
	idx := New(parser.New(), &mockEmbedder{}, store, nil)

	_, err := idx.IndexDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"), nil)
	assert.Error(t, err)
}

func TestIndexDirectory_WithParseErrors(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "bad.py", "def broken(:\n    pass\n")
	createTestFile(t, tmpDir, "good.py", "def ok():\n    pass\n")

	store := setupTestStorage(t)
	idx := New(parser.New(), &mockEmbedder{}, store, nil)

	stats, err := idx.IndexDirectory(context.Background(), tmpDir, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesDiscovered)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 1, stats.ParseErrors)
	assert.Equal(t, 0, stats.ReadErrors)
	assert.Equal(t, 1, stats.ElementsIndexed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "bad.py")
}

func TestIndexDirectory_ProviderErrorSkip(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "calc.py", sampleModule)

	store := setupTestStorage(t)
	emb := &mockEmbedder{
		failOn: "subtract",
		err:    fmt.Errorf("%w: rate limited", embedder.ErrProviderFailed),
	}
	idx := New(parser.New(), emb, store, nil)

	stats, err := idx.IndexDirectory(context.Background(), tmpDir, &Config{OnProviderError: SkipOnProviderError})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.ElementsExtracted)
	assert.Equal(t, 3, stats.ElementsIndexed)
	assert.Equal(t, 1, stats.ElementsSkipped)
	assert.Equal(t, 1, stats.ProviderErrors)
	assert.Equal(t, 1, stats.FilesProcessed)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "subtract")
}

func TestIndexDirectory_SkipsAreLogged(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "bad.py", "def broken(:\n    pass\n")
	createTestFile(t, tmpDir, "calc.py", sampleModule)

	core, logs := observer.New(zapcore.WarnLevel)
	emb := &mockEmbedder{
		failOn: "subtract",
		err:    fmt.Errorf("%w: rate limited", embedder.ErrProviderFailed),
	}
	idx := New(parser.New(), emb, setupTestStorage(t), zap.New(core))

	_, err := idx.IndexDirectory(context.Background(), tmpDir, nil)
	require.NoError(t, err)

	fileSkips := logs.FilterMessage("skipping file").All()
	require.Len(t, fileSkips, 1)
	assert.Contains(t, fileSkips[0].ContextMap()["file"], "bad.py")

	elemSkips := logs.FilterMessage("skipping element").All()
	require.Len(t, elemSkips, 1)
	fields := elemSkips[0].ContextMap()
	assert.Equal(t, "subtract", fields["name"])
	assert.EqualValues(t, 8, fields["line"])
}

func TestIndexDirectory_ProviderErrorAbort(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "a.py", "def first():\n    pass\n")
	createTestFile(t, tmpDir, "b.py", "def second():\n    pass\n")

	store := setupTestStorage(t)
	emb := &mockEmbedder{
		failOn: "second",
		err:    fmt.Errorf("%w: network down", embedder.ErrProviderFailed),
	}
	idx := New(parser.New(), emb, store, nil)

	stats, err := idx.IndexDirectory(context.Background(), tmpDir, &Config{OnProviderError: AbortOnProviderError})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrProvider)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.ElementsIndexed)

	// partial index stays
	storeStats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, storeStats.TotalElements)
}

func TestIndexDirectory_FatalErrorsAbort(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"configuration", fmt.Errorf("%w: missing API key", types.ErrConfiguration)},
		{"unclassified", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			createTestFile(t, tmpDir, "a.py", "def first():\n    pass\n")

			store := setupTestStorage(t)
			idx := New(parser.New(), &mockEmbedder{err: tt.err}, store, nil)

			_, err := idx.IndexDirectory(context.Background(), tmpDir, &Config{OnProviderError: SkipOnProviderError})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestIndexDirectory_StoreDimensionMismatch(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "a.py", "def first():\n    pass\n")

	store, err := storage.NewSQLiteStore(context.Background(), ":memory:", testDim+1, nil)
	require.NoError(t, err)
	defer store.Close()

	idx := New(parser.New(), &mockEmbedder{}, store, nil)
	_, err = idx.IndexDirectory(context.Background(), tmpDir, nil)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
	assert.True(t, types.IsFatal(err))
}

func TestIndexDirectory_Clear(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "calc.py", sampleModule)

	store := setupTestStorage(t)
	idx := New(parser.New(), &mockEmbedder{}, store, nil)
	ctx := context.Background()

	_, err := idx.IndexDirectory(ctx, tmpDir, nil)
	require.NoError(t, err)
	_, err = idx.IndexDirectory(ctx, tmpDir, nil)
	require.NoError(t, err)

	// append-only: a second run duplicates every record
	storeStats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, storeStats.TotalElements)

	_, err = idx.IndexDirectory(ctx, tmpDir, &Config{Clear: true})
	require.NoError(t, err)
	storeStats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, storeStats.TotalElements)
}

func TestIndexDirectory_WithLocalProvider(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "calc.py", sampleModule)
	createTestFile(t, tmpDir, "empty.py", "class _:\n    pass\n")

	provider, err := embedder.NewLocalProvider(nil, embedder.WithDimension(testDim))
	require.NoError(t, err)
	client := embedder.NewClient(provider, nil)

	store := setupTestStorage(t)
	idx := New(parser.New(), client, store, nil)

	stats, err := idx.IndexDirectory(context.Background(), tmpDir, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.ElementsIndexed)
	assert.Equal(t, int64(5), client.ProviderCalls()+client.ShortCircuits())
}

func TestIndexDirectory_ConcurrentCalls(t *testing.T) {
	tmpDir := t.TempDir()
	for i := 0; i < 20; i++ {
		createTestFile(t, tmpDir, fmt.Sprintf("file%02d.py", i), fmt.Sprintf("def func%d():\n    pass\n", i))
	}

	store := setupTestStorage(t)
	idx := New(parser.New(), &mockEmbedder{delay: 10 * time.Millisecond}, store, nil)
	config := &Config{Workers: 1}

	done := make(chan error, 1)
	go func() {
		_, err := idx.IndexDirectory(context.Background(), tmpDir, config)
		done <- err
	}()

	// Give first indexing time to acquire lock and start processing
	time.Sleep(50 * time.Millisecond)

	_, err := idx.IndexDirectory(context.Background(), tmpDir, config)
	if err == nil {
		t.Log("First indexing completed before concurrent call")
	} else {
		assert.ErrorIs(t, err, ErrIndexingInProgress)
	}

	require.NoError(t, <-done)
}

func TestIndexDirectory_ContextCancellation(t *testing.T) {
	tmpDir := t.TempDir()
	for i := 0; i < 10; i++ {
		createTestFile(t, tmpDir, fmt.Sprintf("file%02d.py", i),
			"def a():\n    pass\n\ndef b():\n    pass\n\ndef c():\n    pass\n")
	}

	store := setupTestStorage(t)
	idx := New(parser.New(), &mockEmbedder{delay: 5 * time.Millisecond}, store, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	stats, err := idx.IndexDirectory(ctx, tmpDir, &Config{Workers: 1})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, stats)
	assert.Less(t, stats.FilesProcessed, 10)

	// whole files only: every processed file contributed all three elements
	storeStats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stats.FilesProcessed*3, storeStats.TotalElements)
	assert.Equal(t, stats.ElementsIndexed, storeStats.TotalElements)
}

func TestIndexDirectory_WorkerConcurrency(t *testing.T) {
	tmpDir := t.TempDir()
	var src strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&src, "def f%d():\n    pass\n\n", i)
	}
	createTestFile(t, tmpDir, "many.py", src.String())

	store := setupTestStorage(t)
	emb := &mockEmbedder{delay: 20 * time.Millisecond}
	idx := New(parser.New(), emb, store, nil)

	start := time.Now()
	stats, err := idx.IndexDirectory(context.Background(), tmpDir, &Config{Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, 12, stats.ElementsIndexed)
	assert.Equal(t, int64(12), emb.callCount.Load())
	// 12 calls of 20ms on 4 workers take well under the sequential 240ms
	assert.Less(t, time.Since(start), 220*time.Millisecond)
}

func TestIndexLock_ConcurrentAcquisition(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "TryAcquire succeeds when lock is available",
			testFunc: func(t *testing.T) {
				var lock IndexLock
				assert.True(t, lock.TryAcquire())
				lock.Release()
			},
		},
		{
			name: "TryAcquire fails when lock is held",
			testFunc: func(t *testing.T) {
				var lock IndexLock
				require.True(t, lock.TryAcquire())
				assert.False(t, lock.TryAcquire())
				lock.Release()
			},
		},
		{
			name: "Release makes lock available again",
			testFunc: func(t *testing.T) {
				var lock IndexLock
				require.True(t, lock.TryAcquire())
				lock.Release()
				assert.True(t, lock.TryAcquire())
				lock.Release()
			},
		},
		{
			name: "Concurrent goroutines attempting acquisition",
			testFunc: func(t *testing.T) {
				var lock IndexLock
				const numGoroutines = 100

				var successCount atomic.Int32
				var wg sync.WaitGroup
				wg.Add(numGoroutines)
				for i := 0; i < numGoroutines; i++ {
					go func() {
						defer wg.Done()
						if lock.TryAcquire() {
							successCount.Add(1)
						}
					}()
				}
				wg.Wait()

				assert.Equal(t, int32(1), successCount.Load())
				lock.Release()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

func TestIndexDirectory_UsesBatchEmbedding(t *testing.T) {
	tmpDir := t.TempDir()
	var big strings.Builder
	for i := 0; i < embedder.MaxBatchSize+5; i++ {
		fmt.Fprintf(&big, "def func%03d():\n    pass\n\n", i)
	}
	createTestFile(t, tmpDir, "big.py", big.String())
	createTestFile(t, tmpDir, "calc.py", sampleModule)

	emb := &batchingEmbedder{}
	idx := New(parser.New(), emb, setupTestStorage(t), nil)

	stats, err := idx.IndexDirectory(context.Background(), tmpDir, &Config{Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, []int{embedder.MaxBatchSize, 5, 4}, emb.batchSizes)
	assert.Empty(t, emb.singles)
	assert.Equal(t, embedder.MaxBatchSize+9, stats.ElementsIndexed)
}

func TestIndexDirectory_FailedBatchFallsBackPerElement(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "calc.py", sampleModule)

	emb := &batchingEmbedder{
		mockEmbedder: mockEmbedder{
			failOn: "subtract",
			err:    fmt.Errorf("%w: rate limited", embedder.ErrProviderFailed),
		},
		batchErr: fmt.Errorf("%w: rate limited", embedder.ErrProviderFailed),
	}
	store := setupTestStorage(t)
	idx := New(parser.New(), emb, store, nil)

	stats, err := idx.IndexDirectory(context.Background(), tmpDir, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{4}, emb.batchSizes)
	assert.Len(t, emb.singles, 4)
	assert.Equal(t, 3, stats.ElementsIndexed)
	assert.Equal(t, 1, stats.ProviderErrors)
}

func TestIndexDirectory_BatchConfigurationErrorAborts(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFile(t, tmpDir, "calc.py", sampleModule)

	emb := &batchingEmbedder{batchErr: fmt.Errorf("%w: no key", types.ErrConfiguration)}
	idx := New(parser.New(), emb, setupTestStorage(t), nil)

	_, err := idx.IndexDirectory(context.Background(), tmpDir, nil)
	assert.ErrorIs(t, err, types.ErrConfiguration)
	assert.Empty(t, emb.singles)
}
