package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/semsearch/pkg/types"
)

const metaDimensionKey = "dimension"

// SQLiteStore implements VectorStore using SQLite
type SQLiteStore struct {
	db        *sql.DB
	dimension int
	logger    *zap.Logger
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer; this also keeps :memory: on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// NewSQLiteStore opens the database at dbPath and initializes its schema
func NewSQLiteStore(ctx context.Context, dbPath string, dimension int, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, storeError("open database", err)
	}

	s := &SQLiteStore{
		db:        db,
		dimension: dimension,
		logger:    logger.Named("sqlite"),
	}
	if err := s.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Debug("store opened",
		zap.String("path", dbPath),
		zap.String("build_mode", BuildMode),
		zap.Bool("vector_extension", VectorExtensionAvailable),
		zap.Int("dimension", dimension))
	return s, nil
}

// Init applies pending migrations and records or verifies the dimension
func (s *SQLiteStore) Init(ctx context.Context) error {
	if err := applyMigrations(ctx, sqliteMigrator{db: s.db}, sqliteMigrations); err != nil {
		return storeError("apply migrations", err)
	}

	var stored string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM store_meta WHERE key = ?", metaDimensionKey).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			"INSERT INTO store_meta (key, value) VALUES (?, ?)", metaDimensionKey, strconv.Itoa(s.dimension))
		if err != nil {
			return storeError("record dimension", err)
		}
		if err := s.syncVectorIndex(ctx); err != nil {
			return storeError("vector index", err)
		}
		return nil
	case err != nil:
		return storeError("read dimension", err)
	}

	dim, err := strconv.Atoi(stored)
	if err != nil {
		return storeError("parse stored dimension", err)
	}
	if err := checkDimension(s.dimension, dim); err != nil {
		return err
	}
	if err := s.syncVectorIndex(ctx); err != nil {
		return storeError("vector index", err)
	}
	return nil
}

// Insert appends a record
func (s *SQLiteStore) Insert(ctx context.Context, rec *Record) error {
	if err := rec.Element.Validate(); err != nil {
		return storeError("invalid record", err)
	}
	if err := checkDimension(len(rec.Embedding), s.dimension); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("insert element", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO code_elements (file_path, element_name, element_type, signature, docstring,
		                           searchable_text, line_number, embedding, embedding_norm, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	e := rec.Element
	result, err := tx.ExecContext(ctx, query,
		e.FilePath, e.Name, string(e.Kind), e.Signature, e.Docstring,
		rec.SearchableText, e.LineNumber, serializeVector(rec.Embedding), vectorNorm(rec.Embedding), now)
	if err != nil {
		return storeError("insert element", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return storeError("insert element", err)
	}
	if err := indexVector(ctx, tx, id, rec.Embedding); err != nil {
		return storeError("index element", err)
	}
	if err := tx.Commit(); err != nil {
		return storeError("insert element", err)
	}

	rec.ID = id
	rec.CreatedAt = now
	return nil
}

// Search returns the k records nearest to vector by cosine distance
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, k int) ([]SearchHit, error) {
	if k <= 0 {
		return []SearchHit{}, nil
	}
	if err := checkDimension(len(vector), s.dimension); err != nil {
		return nil, err
	}

	var candidates []candidate
	var err error
	if vectorNorm(vector) == 0 {
		candidates, err = s.rankByID(ctx, k)
	} else {
		candidates, err = s.rankNearest(ctx, vector, k)
	}
	if err != nil {
		return nil, storeError("search", err)
	}

	return s.hydrate(ctx, candidates)
}

// rankByID orders by insertion; every distance is 1 for a zero query
func (s *SQLiteStore) rankByID(ctx context.Context, k int) ([]candidate, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM code_elements ORDER BY id LIMIT ?", k)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]candidate, 0, k)
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id); err != nil {
			return nil, err
		}
		c.distance = 1
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// rankInGo loads every embedding and ranks in memory
func (s *SQLiteStore) rankInGo(ctx context.Context, vector []float32, k int) ([]candidate, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, embedding FROM code_elements")
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]candidate, 0, 256)
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate{
			id:       id,
			distance: cosineDistance(vector, deserializeVector(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return topK(candidates, k), nil
}

// hydrate loads full records for ranked candidates, preserving rank order
func (s *SQLiteStore) hydrate(ctx context.Context, candidates []candidate) ([]SearchHit, error) {
	hits := make([]SearchHit, 0, len(candidates))
	if len(candidates) == 0 {
		return hits, nil
	}

	placeholders := make([]string, len(candidates))
	args := make([]interface{}, len(candidates))
	for i, c := range candidates {
		placeholders[i] = "?"
		args[i] = c.id
	}

	query := `
		SELECT id, file_path, element_name, element_type, signature, docstring,
		       searchable_text, line_number, embedding, created_at
		FROM code_elements
		WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError("load records", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[int64]Record, len(candidates))
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storeError("scan record", err)
		}
		byID[rec.ID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("load records", err)
	}

	for _, c := range candidates {
		rec, ok := byID[c.id]
		if !ok {
			// cleared between ranking and loading
			continue
		}
		hits = append(hits, SearchHit{
			Record:     rec,
			Distance:   c.distance,
			Similarity: similarityFromDistance(c.distance),
		})
	}
	return hits, nil
}

func scanRecord(rows *sql.Rows) (Record, error) {
	var rec Record
	var kind string
	var blob []byte
	err := rows.Scan(&rec.ID, &rec.Element.FilePath, &rec.Element.Name, &kind,
		&rec.Element.Signature, &rec.Element.Docstring, &rec.SearchableText,
		&rec.Element.LineNumber, &blob, &rec.CreatedAt)
	if err != nil {
		return rec, err
	}
	if rec.Element.Kind, err = types.ParseElementKind(kind); err != nil {
		return rec, err
	}
	rec.Embedding = deserializeVector(blob)
	return rec, nil
}

// Clear deletes every record
func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("clear", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM code_elements"); err != nil {
		return storeError("clear", err)
	}
	if err := clearVectorIndex(ctx, tx); err != nil {
		return storeError("clear", err)
	}
	if err := tx.Commit(); err != nil {
		return storeError("clear", err)
	}
	s.logger.Info("store cleared")
	return nil
}

// Stats returns aggregate counts
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN element_type = 'function' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN element_type = 'class' THEN 1 ELSE 0 END), 0),
		       COUNT(DISTINCT file_path)
		FROM code_elements
	`
	var stats Stats
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalElements, &stats.Functions, &stats.Classes, &stats.UniqueFiles)
	if err != nil {
		return nil, storeError("stats", err)
	}
	return &stats, nil
}

// SchemaVersion returns the applied schema version
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (string, error) {
	v, err := currentVersion(ctx, sqliteMigrator{db: s.db})
	if err != nil {
		return "", storeError("schema version", err)
	}
	return v.String(), nil
}

// Dimension returns the store's vector length
func (s *SQLiteStore) Dimension() int {
	return s.dimension
}

// Backend names the storage engine
func (s *SQLiteStore) Backend() string {
	return "sqlite (" + BuildMode + ")"
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteMigrator runs migrations over database/sql
type sqliteMigrator struct {
	db *sql.DB
}

func (m sqliteMigrator) appliedVersions(ctx context.Context) ([]string, error) {
	var tableName string
	err := m.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check schema_version table: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func (m sqliteMigrator) apply(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, migration.Up); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", migration.Version); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
	}
	return tx.Commit()
}
