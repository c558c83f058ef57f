// Package store owns the persistent history schema: commands, projects,
// sessions, and the append-only executions log. It is the only component
// that touches the SQLite database; everything else goes through it.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	histerrors "thoreinstein.com/histng/pkg/errors"
)

// Store provides atomic CRUD/append operations over the history database.
// Writes from concurrent shells are serialized by SQLite itself (WAL +
// busy_timeout); a single connection per process keeps transactions from
// deadlocking each other in-process.
type Store struct {
	db      *sql.DB
	path    string
	verbose bool
}

// Open opens (creating if necessary) the history database at path and
// applies any pending schema migrations.
func Open(path string, verbose bool) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, histerrors.NewStorageErrorWithCause("Open", path, err)
	}

	// busy_timeout bounds the wait on a competing writer; foreign_keys makes
	// the executions references enforced, not advisory.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, histerrors.NewStorageErrorWithCause("Open", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, verbose: verbose}

	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// UpsertCommand inserts the command text if absent and returns its id.
// Command text is content-addressed: the same literal command always maps
// to the same row. Reports whether a new row was created.
func (s *Store) UpsertCommand(text string) (int64, bool, error) {
	return s.upsertInTx("UpsertCommand", func(tx *sql.Tx) (int64, bool, error) {
		return upsertCommandTx(tx, text)
	})
}

// UpsertProject inserts the project name if absent and returns its id.
func (s *Store) UpsertProject(name string) (int64, bool, error) {
	return s.upsertInTx("UpsertProject", func(tx *sql.Tx) (int64, bool, error) {
		return upsertProjectTx(tx, name)
	})
}

// RegisterSession inserts the session token if absent and returns its id.
// Re-registration with the same token is idempotent and returns the same id.
func (s *Store) RegisterSession(token string) (int64, error) {
	id, _, err := s.upsertInTx("RegisterSession", func(tx *sql.Tx) (int64, bool, error) {
		return upsertSessionTx(tx, token)
	})
	return id, err
}

// LookupSession resolves an existing session token to its id.
func (s *Store) LookupSession(token string) (int64, error) {
	var id int64
	err := s.db.QueryRow("SELECT id FROM sessions WHERE token = ?", token).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, histerrors.NewNotFoundError("session", token)
	}
	if err != nil {
		return 0, histerrors.NewStorageErrorWithCause("LookupSession", s.path, err)
	}
	return id, nil
}

// AppendExecution inserts a new execution row. Executions are never
// deduplicated: identical commands run twice are two facts.
func (s *Store) AppendExecution(commandID, projectID int64, sessionID *int64, pwd string, when time.Time) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO executions (command_id, project_id, session_id, pwd, exec_time) VALUES (?, ?, ?, ?, ?)",
		commandID, projectID, nullableID(sessionID), pwd, when.Unix(),
	)
	if err != nil {
		return 0, histerrors.NewStorageErrorWithCause("AppendExecution", s.path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, histerrors.NewStorageErrorWithCause("AppendExecution", s.path, err)
	}
	return id, nil
}

// RecordExecution resolves the command and project rows and appends the
// execution as one transaction: either the whole record commits or none of
// it does. Transient lock contention from a concurrent shell is retried
// with backoff before being surfaced.
func (s *Store) RecordExecution(text, project string, sessionID *int64, pwd string, when time.Time) (RecordResult, error) {
	return histerrors.RetryWithResult(context.Background(), histerrors.DefaultRetryConfig(), func() (RecordResult, error) {
		return s.recordExecutionOnce(text, project, sessionID, pwd, when)
	})
}

func (s *Store) recordExecutionOnce(text, project string, sessionID *int64, pwd string, when time.Time) (RecordResult, error) {
	var result RecordResult

	tx, err := s.db.Begin()
	if err != nil {
		return result, histerrors.NewStorageErrorWithCause("RecordExecution", s.path, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result.CommandID, result.CommandCreated, err = upsertCommandTx(tx, text)
	if err != nil {
		return result, histerrors.NewStorageErrorWithCause("RecordExecution", s.path, err)
	}

	result.ProjectID, result.ProjectCreated, err = upsertProjectTx(tx, project)
	if err != nil {
		return result, histerrors.NewStorageErrorWithCause("RecordExecution", s.path, err)
	}

	res, err := tx.Exec(
		"INSERT INTO executions (command_id, project_id, session_id, pwd, exec_time) VALUES (?, ?, ?, ?, ?)",
		result.CommandID, result.ProjectID, nullableID(sessionID), pwd, when.Unix(),
	)
	if err != nil {
		return result, histerrors.NewStorageErrorWithCause("RecordExecution", s.path, err)
	}
	result.ExecutionID, err = res.LastInsertId()
	if err != nil {
		return result, histerrors.NewStorageErrorWithCause("RecordExecution", s.path, err)
	}

	if err := tx.Commit(); err != nil {
		return result, histerrors.NewStorageErrorWithCause("RecordExecution", s.path, err)
	}

	return result, nil
}

// ProjectNames returns all known project names in lexical order.
func (s *Store) ProjectNames() ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM projects ORDER BY name")
	if err != nil {
		return nil, histerrors.NewStorageErrorWithCause("ProjectNames", s.path, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, histerrors.NewStorageErrorWithCause("ProjectNames", s.path, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, histerrors.NewStorageErrorWithCause("ProjectNames", s.path, err)
	}
	return names, nil
}

// upsertInTx runs a single upsert in its own transaction with busy-retry.
func (s *Store) upsertInTx(op string, fn func(*sql.Tx) (int64, bool, error)) (int64, bool, error) {
	type upsertResult struct {
		id      int64
		created bool
	}

	res, err := histerrors.RetryWithResult(context.Background(), histerrors.DefaultRetryConfig(), func() (upsertResult, error) {
		tx, err := s.db.Begin()
		if err != nil {
			return upsertResult{}, histerrors.NewStorageErrorWithCause(op, s.path, err)
		}
		defer tx.Rollback() //nolint:errcheck // no-op after commit

		id, created, err := fn(tx)
		if err != nil {
			return upsertResult{}, histerrors.NewStorageErrorWithCause(op, s.path, err)
		}
		if err := tx.Commit(); err != nil {
			return upsertResult{}, histerrors.NewStorageErrorWithCause(op, s.path, err)
		}
		return upsertResult{id: id, created: created}, nil
	})
	return res.id, res.created, err
}

// upsertCommandTx inserts the command if new, otherwise resolves the
// existing row. Relies on the UNIQUE constraint on commands.text.
func upsertCommandTx(tx *sql.Tx, text string) (int64, bool, error) {
	return upsertUnique(tx,
		"INSERT INTO commands (text) VALUES (?) ON CONFLICT(text) DO NOTHING",
		"SELECT id FROM commands WHERE text = ?",
		text)
}

func upsertProjectTx(tx *sql.Tx, name string) (int64, bool, error) {
	return upsertUnique(tx,
		"INSERT INTO projects (name) VALUES (?) ON CONFLICT(name) DO NOTHING",
		"SELECT id FROM projects WHERE name = ?",
		name)
}

func upsertSessionTx(tx *sql.Tx, token string) (int64, bool, error) {
	id, created, err := upsertUnique(tx,
		"INSERT INTO sessions (token, created_at) VALUES (?, strftime('%s','now')) ON CONFLICT(token) DO NOTHING",
		"SELECT id FROM sessions WHERE token = ?",
		token)
	return id, created, err
}

// upsertUnique implements insert-or-resolve against a UNIQUE column.
func upsertUnique(tx *sql.Tx, insertStmt, selectStmt, value string) (int64, bool, error) {
	res, err := tx.Exec(insertStmt, value)
	if err != nil {
		return 0, false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}

	if affected > 0 {
		id, err := res.LastInsertId()
		return id, true, err
	}

	var id int64
	if err := tx.QueryRow(selectStmt, value).Scan(&id); err != nil {
		return 0, false, err
	}
	return id, false, nil
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
