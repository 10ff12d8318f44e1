//go:build purego || !sqlite_vec
// +build purego !sqlite_vec

package storage

// This file is compiled by default and with the purego tag. It uses a pure
// Go SQLite implementation; cosine distances are computed in Go over every
// stored embedding.
//
// Build command:
//   CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// VectorExtensionAvailable indicates if vector extension is available
	VectorExtensionAvailable = false

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)

// syncVectorIndex is a no-op without sqlite-vec
func (s *SQLiteStore) syncVectorIndex(context.Context) error {
	return nil
}

func indexVector(context.Context, *sql.Tx, int64, []float32) error {
	return nil
}

func clearVectorIndex(context.Context, *sql.Tx) error {
	return nil
}

// rankNearest scans every embedding
func (s *SQLiteStore) rankNearest(ctx context.Context, vector []float32, k int) ([]candidate, error) {
	return s.rankInGo(ctx, vector, k)
}
