// Package errs defines the error taxonomy shared by the authorization core
// and the HTTP boundary: Forbidden, NotFound, Conflict and Validation.
//
// Authorization denials are always Forbidden. Tenant-isolation failures and
// route-bound parent/child mismatches are always NotFound so that callers
// cannot distinguish "exists but hidden" from "does not exist".
package errs

import (
	"errors"
	"fmt"
)

// ForbiddenError indicates the actor understood the operation but lacks rights.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return "forbidden: " + e.Reason
}

// Forbidden creates a ForbiddenError with a formatted reason.
func Forbidden(format string, args ...interface{}) error {
	return &ForbiddenError{Reason: fmt.Sprintf(format, args...)}
}

// IsForbidden checks whether err is (or wraps) a ForbiddenError.
func IsForbidden(err error) bool {
	var fe *ForbiddenError
	return errors.As(err, &fe)
}

// NotFoundError indicates the entity does not exist within the actor's
// visibility scope. Deliberately indistinguishable from a real absence.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return e.Resource + " not found"
}

// NotFound creates a NotFoundError for the named resource.
func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

// IsNotFound checks whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// ConflictError indicates a uniqueness or staleness conflict, referencing the
// conflicting field.
type ConflictError struct {
	Field  string
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return "conflict: " + e.Reason
	}
	return "conflict on " + e.Field + ": " + e.Reason
}

// Conflict creates a ConflictError for the given field.
func Conflict(field, reason string) error {
	return &ConflictError{Field: field, Reason: reason}
}

// IsConflict checks whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// ValidationError indicates malformed or out-of-range input, with field-level
// messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Validation creates a ValidationError with a single field message.
func Validation(field, message string) error {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// IsValidation checks whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
