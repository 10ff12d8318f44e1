package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"go.uber.org/zap"

	"github.com/dshills/semsearch/pkg/types"
)

// ivfflatLists is the number of inverted lists in the embedding index
const ivfflatLists = 100

// PostgresStore implements VectorStore using PostgreSQL with the pgvector extension
type PostgresStore struct {
	pool      *pgxpool.Pool
	dimension int
	logger    *zap.Logger
}

// NewPostgresStore connects to dsn and initializes the schema
func NewPostgresStore(ctx context.Context, dsn string, dimension int, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger = logger.Named("postgres")

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, storeError("parse dsn", err)
	}
	// the vector type must exist before its codec can be registered
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			logger.Warn("failed to create vector extension", zap.Error(err))
		}
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, storeError("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storeError("connect", err)
	}

	s := &PostgresStore{
		pool:      pool,
		dimension: dimension,
		logger:    logger,
	}
	if err := s.Init(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s.logger.Debug("store opened", zap.String("dsn", redact(dsn)), zap.Int("dimension", dimension))
	return s, nil
}

// Init creates the extension, table and indexes, then verifies the column dimension
func (s *PostgresStore) Init(ctx context.Context) error {
	if err := applyMigrations(ctx, pgMigrator{pool: s.pool}, postgresMigrations(s.dimension)); err != nil {
		return storeError("apply migrations", err)
	}

	// pgvector stores the declared dimension in the column's typmod
	var dim int32
	err := s.pool.QueryRow(ctx, `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = 'code_elements'::regclass AND attname = 'embedding'
	`).Scan(&dim)
	if err != nil {
		return storeError("read dimension", err)
	}
	return checkDimension(s.dimension, int(dim))
}

// Insert appends a record
func (s *PostgresStore) Insert(ctx context.Context, rec *Record) error {
	if err := rec.Element.Validate(); err != nil {
		return storeError("invalid record", err)
	}
	if err := checkDimension(len(rec.Embedding), s.dimension); err != nil {
		return err
	}

	e := rec.Element
	err := s.pool.QueryRow(ctx, `
		INSERT INTO code_elements (file_path, element_name, element_type, signature, docstring,
		                           searchable_text, line_number, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, e.FilePath, e.Name, string(e.Kind), e.Signature, e.Docstring,
		rec.SearchableText, e.LineNumber, pgvector.NewVector(rec.Embedding)).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return storeError("insert element", err)
	}
	return nil
}

const pgRecordColumns = `id, file_path, element_name, element_type, signature, docstring,
		       searchable_text, line_number, embedding, created_at`

// Search returns the k records nearest to vector by cosine distance
func (s *PostgresStore) Search(ctx context.Context, vector []float32, k int) ([]SearchHit, error) {
	if k <= 0 {
		return []SearchHit{}, nil
	}
	if err := checkDimension(len(vector), s.dimension); err != nil {
		return nil, err
	}

	if vectorNorm(vector) == 0 {
		return s.searchByID(ctx, k)
	}

	// pgvector reports NaN for zero-norm rows; rank them as orthogonal
	rows, err := s.pool.Query(ctx, `
		SELECT `+pgRecordColumns+`, distance
		FROM (
			SELECT *, COALESCE(NULLIF(embedding <=> $1, 'NaN'::float8), 1.0::float8) AS distance
			FROM code_elements
		) ranked
		ORDER BY distance, id
		LIMIT $2
	`, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, storeError("search", err)
	}

	hits, err := collectPGHits(rows)
	if err != nil {
		return nil, storeError("search", err)
	}
	for i := range hits {
		hits[i].Similarity = similarityFromDistance(hits[i].Distance)
	}
	return hits, nil
}

func (s *PostgresStore) searchByID(ctx context.Context, k int) ([]SearchHit, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+pgRecordColumns+`, 1.0::float8 AS distance
		FROM code_elements
		ORDER BY id
		LIMIT $1
	`, k)
	if err != nil {
		return nil, storeError("search", err)
	}

	hits, err := collectPGHits(rows)
	if err != nil {
		return nil, storeError("search", err)
	}
	for i := range hits {
		hits[i].Similarity = 0
	}
	return hits, nil
}

func collectPGHits(rows pgx.Rows) ([]SearchHit, error) {
	defer rows.Close()

	hits := make([]SearchHit, 0)
	for rows.Next() {
		var h SearchHit
		var kind string
		var embedding pgvector.Vector
		err := rows.Scan(&h.ID, &h.Element.FilePath, &h.Element.Name, &kind,
			&h.Element.Signature, &h.Element.Docstring, &h.SearchableText,
			&h.Element.LineNumber, &embedding, &h.CreatedAt, &h.Distance)
		if err != nil {
			return nil, err
		}
		if h.Element.Kind, err = types.ParseElementKind(kind); err != nil {
			return nil, err
		}
		h.Embedding = embedding.Slice()
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Clear deletes every record
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM code_elements"); err != nil {
		return storeError("clear", err)
	}
	s.logger.Info("store cleared")
	return nil
}

// Stats returns aggregate counts
func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE element_type = 'function'),
		       COUNT(*) FILTER (WHERE element_type = 'class'),
		       COUNT(DISTINCT file_path)
		FROM code_elements
	`).Scan(&stats.TotalElements, &stats.Functions, &stats.Classes, &stats.UniqueFiles)
	if err != nil {
		return nil, storeError("stats", err)
	}
	return &stats, nil
}

// SchemaVersion returns the applied schema version
func (s *PostgresStore) SchemaVersion(ctx context.Context) (string, error) {
	v, err := currentVersion(ctx, pgMigrator{pool: s.pool})
	if err != nil {
		return "", storeError("schema version", err)
	}
	return v.String(), nil
}

// Dimension returns the store's vector length
func (s *PostgresStore) Dimension() int {
	return s.dimension
}

// Backend names the storage engine
func (s *PostgresStore) Backend() string {
	return "postgres (pgvector)"
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// pgMigrator runs migrations over a pgx pool
type pgMigrator struct {
	pool *pgxpool.Pool
}

func (m pgMigrator) appliedVersions(ctx context.Context) ([]string, error) {
	var exists bool
	if err := m.pool.QueryRow(ctx, "SELECT to_regclass('schema_version') IS NOT NULL").Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check schema_version table: %w", err)
	}
	if !exists {
		return nil, nil
	}

	rows, err := m.pool.Query(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (m pgMigrator) apply(ctx context.Context, migration Migration) error {
	return pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, migration.Up); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_version (version) VALUES ($1)", migration.Version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
		}
		return nil
	})
}
