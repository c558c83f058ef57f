package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	histerrors "thoreinstein.com/histng/pkg/errors"
	"thoreinstein.com/histng/pkg/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "history.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type stubDetector struct {
	project string
	ok      bool
}

func (d stubDetector) Detect(string) (string, bool) {
	return d.project, d.ok
}

func TestRecordBlankLineIsNoOp(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	r := New(s, "global", nil)

	for _, line := range []string{"", "   ", "\t\n"} {
		res, err := r.Record(line, "a", "/", time.Unix(1, 0), nil)
		require.NoError(t, err)
		require.True(t, res.Skipped)
	}

	records, err := s.QueryExecutions(store.Filter{})
	require.NoError(t, err)
	require.Empty(t, records, "blank lines must not create executions")
}

func TestRecordTrimsAndStores(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	r := New(s, "global", nil)

	res, err := r.Record("  git status \n", "a", "/src", time.Unix(42, 0), nil)
	require.NoError(t, err)
	require.False(t, res.Skipped)
	require.True(t, res.CommandCreated)
	require.Equal(t, "a", res.Project)

	records, err := s.QueryExecutions(store.Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "git status", records[0].Command)
	require.Equal(t, "/src", records[0].Pwd)
}

func TestRecordDefaultsProject(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	r := New(s, "global", nil)

	res, err := r.Record("ls", "", "/", time.Unix(1, 0), nil)
	require.NoError(t, err)
	require.Equal(t, "global", res.Project)
}

func TestRecordDetectorWins(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	r := New(s, "global", stubDetector{project: "api", ok: true})

	res, err := r.Record("make build", "", "/src/api", time.Unix(1, 0), nil)
	require.NoError(t, err)
	require.Equal(t, "api", res.Project)

	// An explicit project bypasses the detector.
	res, err = r.Record("make build", "web", "/src/web", time.Unix(2, 0), nil)
	require.NoError(t, err)
	require.Equal(t, "web", res.Project)
}

func TestRecordDetectorDeclines(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	r := New(s, "global", stubDetector{ok: false})

	res, err := r.Record("ls", "", "/", time.Unix(1, 0), nil)
	require.NoError(t, err)
	require.Equal(t, "global", res.Project)
}

func TestRecordNoProjectNoDefault(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	r := New(s, "", nil)

	_, err := r.Record("ls", "", "/", time.Unix(1, 0), nil)
	require.Error(t, err)
	require.True(t, histerrors.IsValidationError(err))
}

func TestRecordTwiceSharesCommandRow(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	r := New(s, "global", nil)

	first, err := r.Record("ls -la", "a", "/", time.Unix(1, 0), nil)
	require.NoError(t, err)
	require.True(t, first.CommandCreated)

	second, err := r.Record("ls -la", "a", "/", time.Unix(2, 0), nil)
	require.NoError(t, err)
	require.False(t, second.CommandCreated, "one Command row for identical text")
	require.NotEqual(t, first.ExecutionID, second.ExecutionID, "two Execution rows")
}

func TestRecordWithSession(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	sessionID, err := s.RegisterSession("tok-9")
	require.NoError(t, err)

	r := New(s, "global", nil)
	_, err = r.Record("pwd", "a", "/", time.Unix(1, 0), &sessionID)
	require.NoError(t, err)

	records, err := s.QueryExecutions(store.Filter{SessionID: &sessionID})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "tok-9", records[0].Session)
}
