package store

import (
	"fmt"
	"os"

	histerrors "thoreinstein.com/histng/pkg/errors"
)

// migrations holds the append-only schema history. Entry i migrates the
// database to version i+1. Never edit a shipped entry; add a new one.
var migrations = []string{
	// v1: initial schema.
	`
	CREATE TABLE IF NOT EXISTS commands (
		id   INTEGER PRIMARY KEY,
		text TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS projects (
		id   INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id         INTEGER PRIMARY KEY,
		token      TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS executions (
		id         INTEGER PRIMARY KEY,
		command_id INTEGER NOT NULL REFERENCES commands(id),
		project_id INTEGER NOT NULL REFERENCES projects(id),
		session_id INTEGER REFERENCES sessions(id),
		pwd        TEXT NOT NULL,
		exec_time  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_executions_project_time
		ON executions(project_id, exec_time);
	CREATE INDEX IF NOT EXISTS idx_executions_session
		ON executions(session_id);
	`,
}

// migrate brings the schema up to the latest version. Each migration runs in
// its own transaction and is recorded in schema_migrations, so a partially
// upgraded database resumes where it left off.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return histerrors.NewStorageErrorWithCause("Migrate", s.path, err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return histerrors.NewStorageErrorWithCause("Migrate", s.path, err)
	}

	for version := current + 1; version <= len(migrations); version++ {
		tx, err := s.db.Begin()
		if err != nil {
			return histerrors.NewStorageErrorWithCause("Migrate", s.path, err)
		}

		if _, err := tx.Exec(migrations[version-1]); err != nil {
			_ = tx.Rollback()
			return histerrors.NewStorageErrorWithCause(fmt.Sprintf("Migrate(v%d)", version), s.path, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, strftime('%s','now'))", version); err != nil {
			_ = tx.Rollback()
			return histerrors.NewStorageErrorWithCause(fmt.Sprintf("Migrate(v%d)", version), s.path, err)
		}
		if err := tx.Commit(); err != nil {
			return histerrors.NewStorageErrorWithCause(fmt.Sprintf("Migrate(v%d)", version), s.path, err)
		}

		if s.verbose {
			fmt.Fprintf(os.Stderr, "applied schema migration v%d to %s\n", version, s.path)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version of the open database.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return 0, histerrors.NewStorageErrorWithCause("SchemaVersion", s.path, err)
	}
	return version, nil
}
