package storage

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

const (
	// CurrentSchemaVersion tracks the database schema version
	CurrentSchemaVersion = "1.1.0"
)

// Migration represents a database schema migration
type Migration struct {
	Version string
	Up      string
}

// migrator is the per-backend half of migration handling
type migrator interface {
	// appliedVersions lists recorded versions; empty when the version table does not exist yet
	appliedVersions(ctx context.Context) ([]string, error)
	// apply runs a migration's Up script and records its version atomically
	apply(ctx context.Context, m Migration) error
}

// currentVersion returns the highest applied version, or 0.0.0
func currentVersion(ctx context.Context, m migrator) (*semver.Version, error) {
	versions, err := m.appliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_version: %w", err)
	}

	current := semver.MustParse("0.0.0")
	for _, v := range versions {
		parsed, err := semver.NewVersion(v)
		if err != nil {
			return nil, fmt.Errorf("invalid current schema version %s: %w", v, err)
		}
		if parsed.GreaterThan(current) {
			current = parsed
		}
	}
	return current, nil
}

// applyMigrations runs every migration newer than the current schema version, in order
func applyMigrations(ctx context.Context, m migrator, migrations []Migration) error {
	current, err := currentVersion(ctx, m)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		migrationVersion, err := semver.NewVersion(migration.Version)
		if err != nil {
			return fmt.Errorf("invalid migration version %s: %w", migration.Version, err)
		}

		if !current.LessThan(migrationVersion) {
			continue
		}

		if err := m.apply(ctx, migration); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.Version, err)
		}

		current = migrationVersion
	}

	return nil
}

// sqliteMigrations is the SQLite schema history
var sqliteMigrations = []Migration{
	{
		Version: "1.0.0",
		Up: `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS code_elements (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_path TEXT NOT NULL,
    element_name TEXT NOT NULL,
    element_type TEXT NOT NULL CHECK (element_type IN ('function', 'class')),
    signature TEXT NOT NULL,
    docstring TEXT NOT NULL DEFAULT '',
    searchable_text TEXT NOT NULL,
    line_number INTEGER NOT NULL,
    embedding BLOB NOT NULL,
    embedding_norm REAL NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_code_elements_type ON code_elements(element_type);
CREATE INDEX IF NOT EXISTS idx_code_elements_file ON code_elements(file_path);
`,
	},
	{
		Version: "1.1.0",
		Up: `
CREATE TABLE IF NOT EXISTS store_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`,
	},
}

// postgresMigrations is the PostgreSQL schema history for a given vector dimension
func postgresMigrations(dimension int) []Migration {
	return []Migration{
		{
			Version: "1.0.0",
			Up: fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS code_elements (
    id BIGSERIAL PRIMARY KEY,
    file_path TEXT NOT NULL,
    element_name TEXT NOT NULL,
    element_type TEXT NOT NULL CHECK (element_type IN ('function', 'class')),
    signature TEXT NOT NULL,
    docstring TEXT NOT NULL DEFAULT '',
    searchable_text TEXT NOT NULL,
    line_number INTEGER NOT NULL,
    embedding vector(%d) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_code_elements_type ON code_elements(element_type);
CREATE INDEX IF NOT EXISTS idx_code_elements_file ON code_elements(file_path);
`, dimension),
		},
		{
			Version: "1.1.0",
			Up: fmt.Sprintf(`
CREATE INDEX IF NOT EXISTS idx_code_elements_embedding
    ON code_elements USING ivfflat (embedding vector_cosine_ops)
    WITH (lists = %d);
`, ivfflatLists),
		},
	}
}
