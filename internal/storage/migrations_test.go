package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRawDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := openDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestApplyMigrations(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()
	m := sqliteMigrator{db: db}

	v, err := currentVersion(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0", v.String())

	require.NoError(t, applyMigrations(ctx, m, sqliteMigrations))
	assert.True(t, tableExists(t, db, "code_elements"))
	assert.True(t, tableExists(t, db, "store_meta"))

	v, err = currentVersion(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, v.String())

	// second run is a no-op
	require.NoError(t, applyMigrations(ctx, m, sqliteMigrations))
}

func TestApplyMigrations_Partial(t *testing.T) {
	db := openRawDB(t)
	ctx := context.Background()
	m := sqliteMigrator{db: db}

	require.NoError(t, applyMigrations(ctx, m, sqliteMigrations[:1]))
	assert.False(t, tableExists(t, db, "store_meta"))

	require.NoError(t, applyMigrations(ctx, m, sqliteMigrations))
	assert.True(t, tableExists(t, db, "store_meta"))
}

func TestApplyMigrations_InvalidVersion(t *testing.T) {
	db := openRawDB(t)
	err := applyMigrations(context.Background(), sqliteMigrator{db: db}, []Migration{{Version: "not-a-version", Up: "SELECT 1"}})
	assert.Error(t, err)
}

func TestPostgresMigrations(t *testing.T) {
	migrations := postgresMigrations(768)
	require.Len(t, migrations, 2)
	assert.Contains(t, migrations[0].Up, "CREATE EXTENSION IF NOT EXISTS vector")
	assert.Contains(t, migrations[0].Up, "vector(768)")
	assert.Contains(t, migrations[1].Up, "vector_cosine_ops")
	assert.Contains(t, migrations[1].Up, "lists = 100")
	assert.Equal(t, CurrentSchemaVersion, migrations[len(migrations)-1].Version)
}
