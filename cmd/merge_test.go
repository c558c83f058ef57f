package cmd

import (
	"testing"

	histerrors "thoreinstein.com/histng/pkg/errors"
)

func TestMergeCommandFlags(t *testing.T) {
	cmd := mergeCmd

	expectedFlags := []struct {
		name     string
		defValue string
	}{
		{"projects", "[]"},
		{"exclude-projects", "[]"},
		{"exclude", "[]"},
		{"exclude-regex", "[]"},
		{"mode", "interleave"},
		{"from", ""},
		{"to", ""},
		{"format", ""},
	}

	for _, expected := range expectedFlags {
		flag := cmd.Flags().Lookup(expected.name)
		if flag == nil {
			t.Errorf("merge command should have --%s flag", expected.name)
			continue
		}
		if flag.DefValue != expected.defValue {
			t.Errorf("--%s default = %q, want %q", expected.name, flag.DefValue, expected.defValue)
		}
	}
}

func TestBuildSelector(t *testing.T) {
	t.Parallel()

	t.Run("inclusion", func(t *testing.T) {
		sel, err := buildSelector(true, []string{"a", "b"}, false, nil)
		if err != nil {
			t.Fatalf("buildSelector error: %v", err)
		}
		if len(sel.Include) != 2 || sel.Exclude != nil {
			t.Errorf("unexpected selector: %+v", sel)
		}
	})

	t.Run("exclusion", func(t *testing.T) {
		sel, err := buildSelector(false, nil, true, []string{"scratch"})
		if err != nil {
			t.Fatalf("buildSelector error: %v", err)
		}
		if sel.Include != nil || len(sel.Exclude) != 1 {
			t.Errorf("unexpected selector: %+v", sel)
		}
	})

	t.Run("neither means all projects", func(t *testing.T) {
		sel, err := buildSelector(false, nil, false, nil)
		if err != nil {
			t.Fatalf("buildSelector error: %v", err)
		}
		if sel.Include != nil || sel.Exclude == nil || len(sel.Exclude) != 0 {
			t.Errorf("want empty exclusion set, got %+v", sel)
		}
	})

	t.Run("both rejected", func(t *testing.T) {
		_, err := buildSelector(true, []string{"a"}, true, []string{"b"})
		if !histerrors.IsValidationError(err) {
			t.Errorf("want ValidationError, got %v", err)
		}
	})

	t.Run("empty inclusion rejected", func(t *testing.T) {
		_, err := buildSelector(true, nil, false, nil)
		if !histerrors.IsValidationError(err) {
			t.Errorf("want ValidationError, got %v", err)
		}
	})
}

func TestCollectPatterns(t *testing.T) {
	t.Parallel()

	patterns, err := collectPatterns([]string{"ls"}, []string{"^git "})
	if err != nil {
		t.Fatalf("collectPatterns error: %v", err)
	}
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns, want 2", len(patterns))
	}
	if patterns[0].IsRegexp() {
		t.Error("first pattern should be literal")
	}
	if !patterns[1].IsRegexp() {
		t.Error("second pattern should be a regexp")
	}

	if _, err := collectPatterns(nil, []string{"([bad"}); !histerrors.IsValidationError(err) {
		t.Errorf("bad regexp should be a ValidationError, got %v", err)
	}
}
