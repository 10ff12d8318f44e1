//go:build sqlite_vec && !purego
// +build sqlite_vec,!purego

package storage

// This file is compiled when building with CGO and the sqlite_vec tag.
// The sqlite-vec extension is registered with every connection and a vec0
// table with cosine distance serves as the similarity index.
//
// Build command:
//   CGO_ENABLED=1 go build -tags sqlite_vec ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	"context"
	"database/sql"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func init() {
	sqlite_vec.Auto()
}

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// VectorExtensionAvailable indicates if vector extension is available
	VectorExtensionAvailable = true

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)

// syncVectorIndex creates the vec0 index and rebuilds it when it has drifted
// from code_elements. Zero-norm embeddings are kept out of the index.
func (s *SQLiteStore) syncVectorIndex(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS vec_code_elements USING vec0(
		    element_id INTEGER PRIMARY KEY,
		    embedding float[%d] distance_metric=cosine
		)`, s.dimension)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	var want, have int
	err := s.db.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM code_elements WHERE embedding_norm > 0),
		       (SELECT COUNT(*) FROM vec_code_elements)
	`).Scan(&want, &have)
	if err != nil {
		return fmt.Errorf("failed to count vector index: %w", err)
	}
	if want == have {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vec_code_elements"); err != nil {
		return fmt.Errorf("failed to reset vector index: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO vec_code_elements (element_id, embedding)
		SELECT id, embedding FROM code_elements WHERE embedding_norm > 0
	`)
	if err != nil {
		return fmt.Errorf("failed to rebuild vector index: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("vector index rebuilt", zap.Int("rows", want), zap.Int("previous", have))
	return nil
}

// indexVector adds one embedding to the vec0 index inside tx
func indexVector(ctx context.Context, tx *sql.Tx, id int64, vector []float32) error {
	if vectorNorm(vector) == 0 {
		return nil
	}
	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return fmt.Errorf("serialize embedding: %w", err)
	}
	_, err = tx.ExecContext(ctx, "INSERT INTO vec_code_elements (element_id, embedding) VALUES (?, ?)", id, blob)
	return err
}

// clearVectorIndex empties the vec0 index inside tx
func clearVectorIndex(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM vec_code_elements")
	return err
}

// rankNearest runs a KNN query against the vec0 index and merges in
// zero-norm records, which sit at distance 1 outside the index.
func (s *SQLiteStore) rankNearest(ctx context.Context, vector []float32, k int) ([]candidate, error) {
	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT element_id, distance
		FROM vec_code_elements
		WHERE embedding MATCH ? AND k = ?
		ORDER BY distance
	`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]candidate, 0, 2*k)
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.distance); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	zero, err := s.db.QueryContext(ctx,
		"SELECT id FROM code_elements WHERE embedding_norm = 0 ORDER BY id LIMIT ?", k)
	if err != nil {
		return nil, fmt.Errorf("failed to query zero-norm records: %w", err)
	}
	defer func() { _ = zero.Close() }()

	for zero.Next() {
		c := candidate{distance: 1}
		if err := zero.Scan(&c.id); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	if err := zero.Err(); err != nil {
		return nil, err
	}

	return topK(candidates, k), nil
}
