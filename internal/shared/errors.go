// ============================================================================
// internal/shared/errors.go
// Error kinds shared by the stores, core engine, and gateway
// ============================================================================

package shared

import (
	"errors"
	"fmt"
)

// Sentinel errors. Read-path failures other than ErrNotFound are treated as
// transient by the core (degrade to empty data); write-path failures are
// surfaced to the user and leave caches untouched.
var (
	// ErrNotFound means an entity id has no matching record.
	ErrNotFound = errors.New("record not found")

	// ErrPermissionDenied means the operation was attempted without
	// permission. The gateway rejects such requests before any backend call.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrStaleScope means an in-flight background load finished after its
	// class-detail view was closed or replaced; its result must be discarded.
	ErrStaleScope = errors.New("class detail scope no longer active")
)

// ValidationError reports a locally-detected bad input. It is checked before
// submit and never sent to a backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for one field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// WriteFailure wraps a rejected save/create/update/delete. The caller must
// not mutate local state or caches when it sees one; a retry is safe.
type WriteFailure struct {
	Op  string
	Err error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *WriteFailure) Unwrap() error {
	return e.Err
}

// IsWriteFailure reports whether err is (or wraps) a WriteFailure.
func IsWriteFailure(err error) bool {
	var wf *WriteFailure
	return errors.As(err, &wf)
}
