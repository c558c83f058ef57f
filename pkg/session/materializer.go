// Package session materializes per-session history files.
//
// A session is one live shell instance, identified by an opaque unique
// token. The materializer translates the stored per-project history into
// the flat line-oriented file that shell reads, and keeps the file in sync
// as new commands are recorded. Files are regenerable artifacts: removing
// one never loses history, the store stays authoritative.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	histerrors "thoreinstein.com/histng/pkg/errors"
	"thoreinstein.com/histng/pkg/recorder"
	"thoreinstein.com/histng/pkg/store"
)

// ErrClosed is returned for any operation on a handle after Close.
var ErrClosed = histerrors.New("session handle is closed")

// Materializer maps sessions to materialized history files under Dir.
type Materializer struct {
	store    *store.Store
	recorder *recorder.Recorder
	dir      string
	maxLines int
	verbose  bool

	// now is the timestamp source for refresh records; overridable in tests.
	now func() time.Time
}

// Handle is the scoped view of one open session's history file.
// Lifecycle: Open -> (Refresh)* -> Close. Close is terminal; a failed
// Refresh leaves the handle open, losing the whole history over one bad
// entry is the worse outcome.
type Handle struct {
	m         *Materializer
	token     string
	project   string
	pwd       string
	sessionID int64
	path      string
	closed    bool
}

// NewMaterializer creates a Materializer writing files into dir, capping
// each materialized view at maxLines.
func NewMaterializer(s *store.Store, rec *recorder.Recorder, dir string, maxLines int, verbose bool) *Materializer {
	return &Materializer{
		store:    s,
		recorder: rec,
		dir:      dir,
		maxLines: maxLines,
		verbose:  verbose,
		now:      time.Now,
	}
}

// Open registers the session and writes its materialized history file: the
// last maxLines command texts recorded for project, oldest first.
//
// Open is idempotent per token: re-opening resolves to the same session id
// and the same path, and atomically replaces the file rather than
// duplicating it.
func (m *Materializer) Open(token, project, pwd string) (*Handle, error) {
	if strings.TrimSpace(token) == "" {
		return nil, histerrors.NewValidationError("token", "session token must not be empty")
	}
	if project == "" {
		return nil, histerrors.NewValidationError("project", "project must not be empty")
	}

	if err := m.ensureDir(); err != nil {
		return nil, err
	}

	sessionID, err := m.store.RegisterSession(token)
	if err != nil {
		return nil, histerrors.Wrap(err, "failed to register session")
	}

	h := &Handle{
		m:         m,
		token:     token,
		project:   project,
		pwd:       pwd,
		sessionID: sessionID,
		path:      m.filePath(sessionID),
	}

	if err := h.materialize(); err != nil {
		return nil, err
	}

	return h, nil
}

// Release removes the materialized file for token, if any. The session row
// itself is never deleted; it persists for audit.
func (m *Materializer) Release(token string) error {
	sessionID, err := m.store.LookupSession(token)
	if err != nil {
		if histerrors.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	if err := os.Remove(m.filePath(sessionID)); err != nil && !os.IsNotExist(err) {
		return histerrors.Wrapf(err, "failed to remove session file for %s", token)
	}
	return nil
}

// ensureDir ensures the sessions directory exists with owner-only
// permissions; history lines can contain secrets.
func (m *Materializer) ensureDir() error {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return histerrors.Wrapf(err, "failed to create sessions directory %q", m.dir)
	}
	return nil
}

// filePath returns the materialized file path for a session id.
func (m *Materializer) filePath(sessionID int64) string {
	return filepath.Join(m.dir, fmt.Sprintf("%d.histng", sessionID))
}

// materialize writes the bounded project history to the session file.
// Written to a temp file and renamed so a concurrent reader never sees a
// half-written view.
func (h *Handle) materialize() error {
	// Newest maxLines, then reversed back into chronological order. Older
	// lines fall out of the view only; the store keeps everything.
	records, err := h.m.store.QueryExecutions(store.Filter{
		Projects: []string{h.project},
		Order:    store.OrderDesc,
		Limit:    h.m.maxLines,
	})
	if err != nil {
		return histerrors.Wrap(err, "failed to load project history")
	}

	var b strings.Builder
	for i := len(records) - 1; i >= 0; i-- {
		b.WriteString(records[i].Command)
		b.WriteByte('\n')
	}

	tmp := h.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return histerrors.Wrapf(err, "failed to write session file %q", tmp)
	}
	if err := os.Rename(tmp, h.path); err != nil {
		_ = os.Remove(tmp)
		return histerrors.Wrapf(err, "failed to move session file into place")
	}

	if h.m.verbose {
		fmt.Fprintf(os.Stderr, "materialized %d history lines to %s\n", len(records), h.path)
	}

	return nil
}

// Refresh records lastLine through the Recorder and appends it to the
// materialized file. This is the per-prompt path and stays O(1): only the
// new line is written, never the whole view.
//
// A blank line is dropped without touching the file. On failure the handle
// stays open; the caller reports the error and the shell keeps its history.
func (h *Handle) Refresh(lastLine string) error {
	if h.closed {
		return ErrClosed
	}

	res, err := h.m.recorder.Record(lastLine, h.project, h.pwd, h.m.now(), &h.sessionID)
	if err != nil {
		return histerrors.Wrap(err, "failed to record refresh line")
	}
	if res.Skipped {
		return nil
	}

	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return histerrors.Wrapf(err, "failed to open session file %q", h.path)
	}
	defer f.Close()

	if _, err := f.WriteString(strings.TrimSpace(lastLine) + "\n"); err != nil {
		return histerrors.Wrapf(err, "failed to append to session file %q", h.path)
	}

	return nil
}

// Close removes the backing file and marks the handle closed. Close is
// safe to call more than once, so it can sit in a defer on every exit
// path. After Close only a fresh Open is valid.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
		return histerrors.Wrapf(err, "failed to remove session file %q", h.path)
	}
	return nil
}

// Path returns the materialized history file path.
func (h *Handle) Path() string {
	return h.path
}

// SessionID returns the store id of the open session.
func (h *Handle) SessionID() int64 {
	return h.sessionID
}
