package store

import "time"

// ExecutionRecord is one recorded command execution, denormalized for
// callers: command text, project and session resolved to their names.
type ExecutionRecord struct {
	ID        int64
	Command   string
	Project   string
	Session   string // session token, empty for records saved without one
	Pwd       string
	Timestamp time.Time
}

// Order selects the result ordering of a query.
type Order int

const (
	// OrderAsc sorts chronologically, oldest first.
	OrderAsc Order = iota
	// OrderDesc sorts reverse-chronologically, newest first.
	OrderDesc
)

// Filter defines filtering options for execution queries.
// Projects and ExcludeProjects are mutually exclusive: at most one may be
// set. Since/Until bound a closed time interval.
type Filter struct {
	Projects        []string // Include only these projects
	ExcludeProjects []string // Include all projects except these
	SessionID       *int64   // Exact session match
	Since           *time.Time
	Until           *time.Time
	Order           Order
	Limit           int
}

// RecordResult reports what a combined record operation did: the new
// execution row plus whether the command or project rows had to be created.
type RecordResult struct {
	ExecutionID    int64
	CommandID      int64
	ProjectID      int64
	CommandCreated bool
	ProjectCreated bool
}
