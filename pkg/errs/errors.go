// Package errs defines the typed error kinds surfaced by the commerce
// repository, the attachment store and the aggregate service. Handlers
// map these kinds to HTTP status codes; callers use errors.As to
// distinguish "nothing happened" from "partially happened".
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports caller-supplied data that violates an
// invariant. It is always raised before any storage call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError for a named field.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a missing commerce, locale, attachment row or
// physical file. Detail distinguishes "row missing" from "file missing
// on disk".
type NotFoundError struct {
	Entity string
	ID     int64
	Detail string
}

func (e *NotFoundError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %d not found: %s", e.Entity, e.ID, e.Detail)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError without extra detail.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// PersistenceError wraps an underlying storage fault (connection,
// constraint violation, I/O).
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err with the failing operation name. A nil err
// returns nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// PartialFailure reports a batch operation that completed some but not
// all items. Done carries the number of successes so the caller can
// tell partial progress from "nothing happened".
type PartialFailure struct {
	Op     string
	Done   int
	Failed int
	Errs   []error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s: %d done, %d failed", e.Op, e.Done, e.Failed)
}

// IsNotFound reports whether err carries a NotFoundError anywhere in
// its chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
