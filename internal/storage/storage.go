package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/semsearch/pkg/types"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the store's dimension
	ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", types.ErrStore)
	// ErrUnsupportedDSN is returned when a connection string names no known backend
	ErrUnsupportedDSN = fmt.Errorf("%w: unsupported connection string", types.ErrStore)
)

// VectorStore persists code elements with their embeddings and answers
// top-k cosine similarity queries.
type VectorStore interface {
	// Init creates the schema. Safe to call on every startup.
	Init(ctx context.Context) error

	// Insert appends a record and assigns its ID and CreatedAt. No dedup.
	Insert(ctx context.Context, rec *Record) error

	// Search returns up to k records ordered by ascending cosine distance,
	// ties by ascending ID. k <= 0 or an empty store yields an empty slice.
	Search(ctx context.Context, vector []float32, k int) ([]SearchHit, error)

	// Clear deletes every record
	Clear(ctx context.Context) error

	// Stats returns aggregate counts over a point-in-time snapshot
	Stats(ctx context.Context) (*Stats, error)

	// SchemaVersion returns the applied schema version
	SchemaVersion(ctx context.Context) (string, error)

	// Dimension returns the vector length every record has
	Dimension() int

	// Backend names the storage engine
	Backend() string

	Close() error
}

// Record is one indexed code element
type Record struct {
	ID             int64
	Element        types.CodeElement
	SearchableText string
	Embedding      []float32
	CreatedAt      time.Time
}

// SearchHit is a record with its distance to the query
type SearchHit struct {
	Record
	Distance   float64 // cosine distance, 1 for zero-norm vectors
	Similarity float64 // 1 - Distance
}

// Stats holds aggregate counts over the store
type Stats struct {
	TotalElements int
	Functions     int
	Classes       int
	UniqueFiles   int
}

// Open connects to the backend named by dsn and initializes its schema.
// postgres:// and postgresql:// select PostgreSQL with pgvector; anything
// else is a SQLite database path (":memory:" for an in-memory store).
func Open(ctx context.Context, dsn string, dimension int, logger *zap.Logger) (VectorStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", types.ErrConfiguration, dimension)
	}

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn, dimension, logger)
	case dsn == "":
		return nil, fmt.Errorf("%w: empty connection string", ErrUnsupportedDSN)
	case strings.Contains(dsn, "://") && !strings.HasPrefix(dsn, "sqlite://") && !strings.HasPrefix(dsn, "file:"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDSN, redact(dsn))
	}

	path, err := ResolveSQLitePath(dsn)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(ctx, path, dimension, logger)
}

// ResolveSQLitePath strips a sqlite:// prefix, expands ~ and creates the parent directory
func ResolveSQLitePath(dsn string) (string, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path, nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("%w: resolve home directory: %w", types.ErrConfiguration, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("%w: create index directory: %w", types.ErrStore, err)
		}
	}
	return path, nil
}

// storeError wraps a backend failure as a StoreError
func storeError(op string, err error) error {
	if errors.Is(err, types.ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", types.ErrStore, op, err)
}

func checkDimension(got, want int) error {
	if got != want {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, want, got)
	}
	return nil
}

// redact hides the password in a URL-style connection string
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return dsn[:scheme+3] + creds[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
