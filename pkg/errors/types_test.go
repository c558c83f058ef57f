package errors

import (
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("mode", "unknown merge mode \"shuffle\"")

	want := "invalid mode: unknown merge mode \"shuffle\""
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if !IsValidationError(err) {
		t.Error("IsValidationError should detect ValidationError")
	}
	if IsRetryable(err) {
		t.Error("ValidationError should never be retryable")
	}
}

func TestValidationErrorWithoutField(t *testing.T) {
	t.Parallel()

	err := &ValidationError{Message: "empty filter"}
	want := "invalid input: empty filter"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStorageErrorRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cause     error
		retryable bool
	}{
		{"locked", fmt.Errorf("database is locked (5) (SQLITE_BUSY)"), true},
		{"busy", fmt.Errorf("SQLITE_BUSY"), true},
		{"io", fmt.Errorf("disk I/O error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStorageErrorWithCause("AppendExecution", "/tmp/history.db", tt.cause)
			if err.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", err.Retryable, tt.retryable)
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", IsRetryable(err), tt.retryable)
			}
		})
	}
}

func TestStorageErrorWrappedChain(t *testing.T) {
	t.Parallel()

	inner := NewStorageErrorWithCause("UpsertCommand", "", fmt.Errorf("database is locked"))
	wrapped := Wrap(inner, "failed to record command")

	if !IsStorageError(wrapped) {
		t.Error("IsStorageError should see through wrapping")
	}
	if !IsRetryable(wrapped) {
		t.Error("IsRetryable should see through wrapping")
	}
}

func TestNotFoundError(t *testing.T) {
	t.Parallel()

	err := NewNotFoundError("project", "api-server")
	want := "project \"api-server\" not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsNotFoundError(err) {
		t.Error("IsNotFoundError should detect NotFoundError")
	}
	if IsRetryable(err) {
		t.Error("NotFoundError should never be retryable")
	}
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := New("underlying")
	err := NewValidationErrorWithCause("from", "bad time", cause)

	if !Is(err, cause) {
		t.Error("errors.Is should find the underlying cause")
	}
}
