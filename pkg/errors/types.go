// Package errors provides typed errors for the hist-ng project.
//
// This package defines domain-specific error types that classify failures
// across subsystems (validation, storage, lookup). All error types implement
// the standard error interface and support errors.Is() and errors.As() from
// the standard library and cockroachdb/errors.
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ValidationError represents malformed caller input: a bad filter
// specification, an unknown merge mode, an unparsable pattern or time.
// Validation failures abort the operation before any state is touched.
type ValidationError struct {
	Field   string // Which argument or flag has the issue
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return "invalid input: " + e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NewValidationErrorWithCause creates a new ValidationError with an underlying cause.
func NewValidationErrorWithCause(field, message string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Cause: cause}
}

// StorageError represents a failure in the underlying SQLite store: I/O
// errors, lock contention that exceeded the bounded wait, or corruption.
// Storage errors are fatal for the current call; Retryable marks transient
// contention the caller may retry.
type StorageError struct {
	Operation string // e.g., "UpsertCommand", "QueryExecutions"
	Path      string // Database path if known
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storage %s failed (%s): %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("storage %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(operation, message string) *StorageError {
	return &StorageError{Operation: operation, Message: message}
}

// NewStorageErrorWithCause creates a new StorageError with an underlying cause.
// Busy/locked causes are marked retryable.
func NewStorageErrorWithCause(operation, path string, cause error) *StorageError {
	return &StorageError{
		Operation: operation,
		Path:      path,
		Message:   cause.Error(),
		Retryable: isBusyError(cause),
		Cause:     cause,
	}
}

// NotFoundError represents a referenced entity (project, session) that was
// assumed to exist but does not. Recoverable: the caller may create it and
// retry.
type NotFoundError struct {
	Kind string // e.g., "project", "session"
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(kind, name string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name}
}

// isBusyError reports whether err looks like SQLite lock contention.
// modernc.org/sqlite surfaces SQLITE_BUSY/SQLITE_LOCKED as plain errors, so
// the check is textual.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}

// IsRetryable checks if an error or any error in its chain is retryable.
// Only transient storage contention is retryable; validation and not-found
// errors never are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return storageErr.Retryable
	}

	return false
}

// IsValidationError checks if an error or any error in its chain is a ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsStorageError checks if an error or any error in its chain is a StorageError.
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// IsNotFoundError checks if an error or any error in its chain is a NotFoundError.
func IsNotFoundError(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// Re-export commonly used functions from cockroachdb/errors for convenience.
// This allows consumers to use histerrors.Wrap() instead of importing two packages.
var (
	// New creates a new error with the given message.
	New = errors.New

	// Newf creates a new error with formatted message.
	Newf = errors.Newf

	// Wrap wraps an error with additional context.
	Wrap = errors.Wrap

	// Wrapf wraps an error with formatted additional context.
	Wrapf = errors.Wrapf

	// Is reports whether any error in err's chain matches target.
	Is = errors.Is

	// As finds the first error in err's chain that matches target.
	As = errors.As

	// Cause returns the root cause of an error.
	Cause = errors.Cause
)
