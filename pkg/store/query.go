package store

import (
	"strings"
	"time"

	histerrors "thoreinstein.com/histng/pkg/errors"
)

// QueryExecutions returns the executions matching the filter, denormalized
// with command text, project name and session token. The result is a finite
// slice the caller may re-iterate freely; no cursor state survives the call.
func (s *Store) QueryExecutions(filter Filter) ([]ExecutionRecord, error) {
	query, args, err := buildExecutionQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, histerrors.NewStorageErrorWithCause("QueryExecutions", s.path, err)
	}
	defer rows.Close()

	var records []ExecutionRecord
	for rows.Next() {
		var rec ExecutionRecord
		var execTime int64
		if err := rows.Scan(&rec.ID, &rec.Command, &rec.Project, &rec.Session, &rec.Pwd, &execTime); err != nil {
			return nil, histerrors.NewStorageErrorWithCause("QueryExecutions", s.path, err)
		}
		rec.Timestamp = time.Unix(execTime, 0)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, histerrors.NewStorageErrorWithCause("QueryExecutions", s.path, err)
	}

	return records, nil
}

// buildExecutionQuery builds the SELECT statement and its arguments for a
// filter. The ordering clause is part of the contract: equal timestamps are
// broken by project name, then insertion id, so results are deterministic.
func buildExecutionQuery(filter Filter) (string, []any, error) {
	if len(filter.Projects) > 0 && len(filter.ExcludeProjects) > 0 {
		return "", nil, histerrors.NewValidationError("projects",
			"inclusion and exclusion project sets are mutually exclusive")
	}

	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT e.id, c.text, p.name, COALESCE(s.token, ''), e.pwd, e.exec_time
		FROM executions e
		JOIN commands c ON e.command_id = c.id
		JOIN projects p ON e.project_id = p.id
		LEFT JOIN sessions s ON e.session_id = s.id
		WHERE 1=1`)

	if len(filter.Projects) > 0 {
		query.WriteString(" AND p.name IN (" + placeholders(len(filter.Projects)) + ")")
		for _, name := range filter.Projects {
			args = append(args, name)
		}
	}

	if len(filter.ExcludeProjects) > 0 {
		query.WriteString(" AND p.name NOT IN (" + placeholders(len(filter.ExcludeProjects)) + ")")
		for _, name := range filter.ExcludeProjects {
			args = append(args, name)
		}
	}

	if filter.SessionID != nil {
		query.WriteString(" AND e.session_id = ?")
		args = append(args, *filter.SessionID)
	}

	// Closed interval: both bounds inclusive.
	if filter.Since != nil {
		query.WriteString(" AND e.exec_time >= ?")
		args = append(args, filter.Since.Unix())
	}
	if filter.Until != nil {
		query.WriteString(" AND e.exec_time <= ?")
		args = append(args, filter.Until.Unix())
	}

	switch filter.Order {
	case OrderDesc:
		query.WriteString(" ORDER BY e.exec_time DESC, p.name DESC, e.id DESC")
	default:
		query.WriteString(" ORDER BY e.exec_time ASC, p.name ASC, e.id ASC")
	}

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	return query.String(), args, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
