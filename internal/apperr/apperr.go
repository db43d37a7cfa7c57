// Package apperr defines the error kinds surfaced by the API and their HTTP mapping.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Kind is a machine-readable error category. Values double as the "code" field
// of error responses.
type Kind string

const (
	// KindValidation indicates the payload failed schema constraints.
	KindValidation Kind = "VALIDATION_FAILED"

	// KindNotFound indicates a requested entity or route does not exist.
	KindNotFound Kind = "NOT_FOUND"

	// KindConflict indicates a unique field already holds the submitted value.
	KindConflict Kind = "ALREADY_EXISTS"

	// KindRateLimited indicates the client exceeded its request budget.
	KindRateLimited Kind = "RATE_LIMIT_EXCEEDED"

	// KindUnavailable indicates the document store is not connected.
	KindUnavailable Kind = "SERVICE_UNAVAILABLE"

	// KindInternal covers every other failure.
	KindInternal Kind = "INTERNAL_ERROR"
)

// Violation is a single failed constraint on a named field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries a Kind, a caller-safe message and an optional cause.
type Error struct {
	Kind       Kind
	Message    string
	Violations []Violation
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error without a cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap attaches kind to err. The message defaults to err's text.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Validation builds a KindValidation error from violations. The message joins
// every violation so a plain-text consumer still sees all of them.
func Validation(violations []Violation) *Error {
	parts := make([]string, 0, len(violations))
	for _, v := range violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return &Error{
		Kind:       KindValidation,
		Message:    "validation failed: " + strings.Join(parts, "; "),
		Violations: violations,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ViolationsOf returns the violations carried by err, if any.
func ViolationsOf(err error) []Violation {
	var e *Error
	if errors.As(err, &e) {
		return e.Violations
	}
	return nil
}

// HTTPStatus maps a Kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
