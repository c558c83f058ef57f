package merge

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	histerrors "thoreinstein.com/histng/pkg/errors"
	"thoreinstein.com/histng/pkg/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "history.db"), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewEngine(s), s
}

func record(t *testing.T, s *store.Store, command, project string, ts int64) {
	t.Helper()
	_, err := s.RecordExecution(command, project, nil, "/", time.Unix(ts, 0))
	require.NoError(t, err)
}

func commands(records []store.ExecutionRecord) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Command
	}
	return out
}

func TestMergeInterleaveScenario(t *testing.T) {
	t.Parallel()

	e, s := newTestEngine(t)
	record(t, s, "ls -la", "a", 1)
	record(t, s, "git status", "b", 2)

	records, err := e.Merge(Options{
		Selector: Selector{Include: []string{"a", "b"}},
		Mode:     ModeInterleave,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "ls -la", records[0].Command)
	require.Equal(t, "a", records[0].Project)
	require.Equal(t, time.Unix(1, 0), records[0].Timestamp)

	require.Equal(t, "git status", records[1].Command)
	require.Equal(t, "b", records[1].Project)
	require.Equal(t, time.Unix(2, 0), records[1].Timestamp)
}

func TestMergeInterleaveIsChronologicalWithTieBreak(t *testing.T) {
	t.Parallel()

	e, s := newTestEngine(t)
	record(t, s, "b-first", "b", 10)
	record(t, s, "a-second", "a", 20)
	record(t, s, "b-tied", "b", 30)
	record(t, s, "a-tied", "a", 30)

	records, err := e.Merge(Options{
		Selector: Selector{Include: []string{"a", "b"}},
		Mode:     ModeInterleave,
	})
	require.NoError(t, err)

	for i := 1; i < len(records); i++ {
		require.False(t, records[i].Timestamp.Before(records[i-1].Timestamp),
			"timestamps must be non-decreasing")
	}
	// Tie at t=30 resolves by project name.
	require.Equal(t, []string{"b-first", "a-second", "a-tied", "b-tied"}, commands(records))
}

func TestMergeConcatGroupsByListedOrder(t *testing.T) {
	t.Parallel()

	e, s := newTestEngine(t)
	record(t, s, "b-1", "b", 1)
	record(t, s, "a-1", "a", 2)
	record(t, s, "b-2", "b", 3)
	record(t, s, "a-2", "a", 4)

	records, err := e.Merge(Options{
		Selector: Selector{Include: []string{"b", "a"}},
		Mode:     ModeConcat,
	})
	require.NoError(t, err)

	// Projects contiguous in listed order, chronological inside each.
	require.Equal(t, []string{"b-1", "b-2", "a-1", "a-2"}, commands(records))
}

func TestMergeConcatFromExclusionIsLexical(t *testing.T) {
	t.Parallel()

	e, s := newTestEngine(t)
	record(t, s, "z-1", "zsh", 1)
	record(t, s, "a-1", "api", 2)
	record(t, s, "s-1", "scratch", 3)

	records, err := e.Merge(Options{
		Selector: Selector{Exclude: []string{"scratch"}},
		Mode:     ModeConcat,
	})
	require.NoError(t, err)

	require.Equal(t, []string{"a-1", "z-1"}, commands(records))
}

func TestMergeExclusionSelectorScenario(t *testing.T) {
	t.Parallel()

	e, s := newTestEngine(t)
	record(t, s, "ls -la", "a", 1)
	record(t, s, "git status", "b", 2)

	records, err := e.Merge(Options{
		Selector: Selector{Exclude: []string{"b"}},
		Mode:     ModeInterleave,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ls -la"}, commands(records))
}

func TestMergeAllProjectsViaEmptyExclusion(t *testing.T) {
	t.Parallel()

	e, s := newTestEngine(t)
	record(t, s, "one", "a", 1)
	record(t, s, "two", "b", 2)

	records, err := e.Merge(Options{
		Selector: Selector{Exclude: []string{}},
		Mode:     ModeInterleave,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestMergeSelectorValidation(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	_, err := e.Merge(Options{Mode: ModeInterleave})
	require.True(t, histerrors.IsValidationError(err), "neither set given")

	_, err = e.Merge(Options{
		Selector: Selector{Include: []string{"a"}, Exclude: []string{"b"}},
		Mode:     ModeInterleave,
	})
	require.True(t, histerrors.IsValidationError(err), "both sets given")
}

func TestMergeTimeRangeIsClosed(t *testing.T) {
	t.Parallel()

	e, s := newTestEngine(t)
	record(t, s, "before", "a", 5)
	record(t, s, "at-from", "a", 10)
	record(t, s, "inside", "a", 15)
	record(t, s, "at-to", "a", 20)
	record(t, s, "after", "a", 25)

	from := time.Unix(10, 0)
	to := time.Unix(20, 0)
	records, err := e.Merge(Options{
		Selector: Selector{Include: []string{"a"}},
		Mode:     ModeInterleave,
		From:     &from,
		To:       &to,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"at-from", "inside", "at-to"}, commands(records))
}

func TestMergeExcludePatterns(t *testing.T) {
	t.Parallel()

	e, s := newTestEngine(t)
	record(t, s, "ls -la", "a", 1)
	record(t, s, "git status", "a", 2)
	record(t, s, "git push origin", "a", 3)

	re, err := Regexp(`^git push`)
	require.NoError(t, err)

	records, err := e.Merge(Options{
		Selector: Selector{Include: []string{"a"}},
		Mode:     ModeInterleave,
		Patterns: []Pattern{Literal("status"), re},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"ls -la"}, commands(records))
}

func TestMergePatternsAreMonotone(t *testing.T) {
	t.Parallel()

	e, s := newTestEngine(t)
	record(t, s, "ls -la", "a", 1)
	record(t, s, "git status", "a", 2)
	record(t, s, "make test", "a", 3)

	opts := Options{
		Selector: Selector{Include: []string{"a"}},
		Mode:     ModeInterleave,
	}

	prev, err := e.Merge(opts)
	require.NoError(t, err)

	// Adding a pattern never increases the result set size.
	for _, p := range []Pattern{Literal("git"), Literal("make"), Literal("nothing-matches")} {
		opts.Patterns = append(opts.Patterns, p)
		next, err := e.Merge(opts)
		require.NoError(t, err)
		require.LessOrEqual(t, len(next), len(prev))
		prev = next
	}
}

func TestMergeResultIsRestartable(t *testing.T) {
	t.Parallel()

	e, s := newTestEngine(t)
	record(t, s, "ls", "a", 1)

	records, err := e.Merge(Options{
		Selector: Selector{Include: []string{"a"}},
		Mode:     ModeInterleave,
	})
	require.NoError(t, err)

	// Two passes over the same result see the same data.
	first := commands(records)
	second := commands(records)
	require.Equal(t, first, second)
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]Mode{
		"interleave": ModeInterleave,
		"INTERLEAVE": ModeInterleave,
		"concat":     ModeConcat,
	} {
		got, err := ParseMode(name)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseMode("shuffle")
	require.True(t, histerrors.IsValidationError(err))
}
