// Package merge produces cross-project views of the execution history:
// interleaved into one chronological stream or concatenated per project,
// bounded by a time range and thinned by exclusion patterns.
package merge

import (
	"sort"
	"strings"
	"time"

	histerrors "thoreinstein.com/histng/pkg/errors"
	"thoreinstein.com/histng/pkg/store"
)

// Mode selects how per-project streams are combined.
type Mode int

const (
	// ModeInterleave merges all projects into one globally chronological
	// stream. Ties on equal timestamps break by project name, then
	// insertion order, so the output is deterministic.
	ModeInterleave Mode = iota
	// ModeConcat keeps each project's records contiguous and internally
	// chronological, projects in the order they were listed (lexical when
	// derived from an exclusion set).
	ModeConcat
)

// ParseMode parses a mode name as given on the command line.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "interleave":
		return ModeInterleave, nil
	case "concat":
		return ModeConcat, nil
	default:
		return 0, histerrors.NewValidationError("mode",
			"unknown merge mode "+name+" (want interleave or concat)")
	}
}

// Selector names the projects a merge spans: either an explicit inclusion
// set, or everything known minus an exclusion set. Exactly one of the two
// must be set; an empty exclusion set selects all projects.
type Selector struct {
	Include []string
	Exclude []string
}

// Options configures one merge.
type Options struct {
	Selector Selector
	Patterns []Pattern // a record is dropped if ANY pattern matches
	Mode     Mode
	From     *time.Time // closed interval start
	To       *time.Time // closed interval end
}

// Engine computes merged views over a Store.
type Engine struct {
	store *store.Store
}

// NewEngine creates a merge engine over s.
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// Merge returns the filtered, ordered executions for opts. The result is a
// finite slice the caller can re-iterate without touching the store again.
//
// Filters apply in a fixed order: time range at the store, then exclusion
// patterns, then output ordering. The order matters for performance only;
// all three commute.
func (e *Engine) Merge(opts Options) ([]store.ExecutionRecord, error) {
	projects, err := e.resolveProjects(opts.Selector)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, nil
	}

	records, err := e.store.QueryExecutions(store.Filter{
		Projects: projects,
		Since:    opts.From,
		Until:    opts.To,
		Order:    store.OrderAsc,
	})
	if err != nil {
		return nil, err
	}

	records = applyPatterns(records, opts.Patterns)

	switch opts.Mode {
	case ModeConcat:
		return concatByProject(records, projects), nil
	case ModeInterleave:
		// Already globally chronological with deterministic tie-break from
		// the store's ordering contract.
		return records, nil
	default:
		return nil, histerrors.NewValidationError("mode", "unknown merge mode")
	}
}

// resolveProjects turns the selector into a concrete project list.
func (e *Engine) resolveProjects(sel Selector) ([]string, error) {
	if sel.Include != nil && sel.Exclude != nil {
		return nil, histerrors.NewValidationError("projects",
			"inclusion and exclusion sets are mutually exclusive")
	}
	if sel.Include == nil && sel.Exclude == nil {
		return nil, histerrors.NewValidationError("projects",
			"either an inclusion or an exclusion set is required")
	}

	if sel.Include != nil {
		return sel.Include, nil
	}

	// Exclusion: all known projects, lexical order, minus the excluded.
	all, err := e.store.ProjectNames()
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(sel.Exclude))
	for _, name := range sel.Exclude {
		excluded[name] = true
	}

	var projects []string
	for _, name := range all {
		if !excluded[name] {
			projects = append(projects, name)
		}
	}
	return projects, nil
}

// applyPatterns drops every record whose command matches any pattern.
// Adding a pattern can only shrink the result set.
func applyPatterns(records []store.ExecutionRecord, patterns []Pattern) []store.ExecutionRecord {
	if len(patterns) == 0 {
		return records
	}

	kept := records[:0]
	for _, rec := range records {
		matched := false
		for _, p := range patterns {
			if p.Matches(rec.Command) {
				matched = true
				break
			}
		}
		if !matched {
			kept = append(kept, rec)
		}
	}
	return kept
}

// concatByProject regroups chronological records into contiguous per-project
// runs, in the given project order. The sort is stable, so each project's
// internal chronological order survives regrouping.
func concatByProject(records []store.ExecutionRecord, projects []string) []store.ExecutionRecord {
	rank := make(map[string]int, len(projects))
	for i, name := range projects {
		rank[name] = i
	}

	out := make([]store.ExecutionRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].Project] < rank[out[j].Project]
	})
	return out
}
