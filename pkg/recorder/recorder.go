// Package recorder turns raw command lines into execution records.
package recorder

import (
	"strings"
	"time"

	histerrors "thoreinstein.com/histng/pkg/errors"
	"thoreinstein.com/histng/pkg/store"
)

// ProjectDetector infers a project name from a command line. It is a
// pluggable hook invoked before the configured fallback project is used; no
// implementation ships with the core.
type ProjectDetector interface {
	// Detect returns the project for a command line, or ok=false when the
	// detector has no opinion.
	Detect(command string) (project string, ok bool)
}

// Recorder deduplicates command/project rows and appends execution records.
// It performs no retries itself: repeated identical commands are legitimate
// distinct executions, so a caller-side retry must dedup on execution id.
type Recorder struct {
	store          *store.Store
	defaultProject string
	detector       ProjectDetector // may be nil
}

// Result reports the outcome of a Record call.
type Result struct {
	// Skipped is true when the line was blank and nothing was recorded.
	Skipped bool

	ExecutionID    int64
	Project        string // the project the execution was filed under
	CommandCreated bool
	ProjectCreated bool
}

// New creates a Recorder. defaultProject is used when a command arrives with
// no project and the detector (if any) has no opinion.
func New(s *store.Store, defaultProject string, detector ProjectDetector) *Recorder {
	return &Recorder{
		store:          s,
		defaultProject: defaultProject,
		detector:       detector,
	}
}

// Record stores one execution of rawLine under project at pwd/when.
//
// A blank or whitespace-only line is a deliberate no-op, not an error: shell
// integrations routinely hand over empty entries on save races, and dropping
// them silently is the documented behavior. Optional session attribution is
// carried through sessionID.
func (r *Recorder) Record(rawLine, project, pwd string, when time.Time, sessionID *int64) (Result, error) {
	line := strings.TrimSpace(rawLine)
	if line == "" {
		return Result{Skipped: true}, nil
	}

	if project == "" {
		if r.detector != nil {
			if detected, ok := r.detector.Detect(line); ok {
				project = detected
			}
		}
	}
	if project == "" {
		project = r.defaultProject
	}
	if project == "" {
		return Result{}, histerrors.NewValidationError("project",
			"no project given and no default configured")
	}

	res, err := r.store.RecordExecution(line, project, sessionID, pwd, when)
	if err != nil {
		return Result{}, histerrors.Wrap(err, "failed to record execution")
	}

	return Result{
		ExecutionID:    res.ExecutionID,
		Project:        project,
		CommandCreated: res.CommandCreated,
		ProjectCreated: res.ProjectCreated,
	}, nil
}
