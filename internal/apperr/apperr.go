// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Sentinels for the non-structured error kinds.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
	ErrNotFound        = errors.New("not found")
)

// FieldError names one invalid field of a payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a payload fails schema validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field is among the failing fields.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// Invalid builds a ValidationError for a single field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// ConstraintError is returned when the store rejects a write because of a
// check, foreign-key or uniqueness constraint, or when an item is not eligible
// for the requested transition.
type ConstraintError struct {
	Message string
	Err     error
}

func (e *ConstraintError) Error() string {
	return e.Message
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Constraint builds a ConstraintError with a human-readable message.
func Constraint(message string, err error) *ConstraintError {
	return &ConstraintError{Message: message, Err: err}
}

// Status maps an error to its HTTP status code. Unknown errors are upstream
// failures and map to 500.
func Status(err error) int {
	var verr *ValidationError
	var cerr *ConstraintError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr), errors.As(err, &cerr):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Fields returns the field errors carried by err, if any.
func Fields(err error) []FieldError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

// IsUpstream reports whether err falls outside the known taxonomy and should
// be treated as a failure of the remote data service.
func IsUpstream(err error) bool {
	return err != nil && Status(err) == http.StatusInternalServerError
}
