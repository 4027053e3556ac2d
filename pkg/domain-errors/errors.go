// Package domainerrors provides coded errors shared by all services. Services
// attach a Code so handlers can map failures to HTTP statuses without string
// matching, and so callers can branch on the class of failure rather than the
// message.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks input that fails domain validation before any
	// store access (bad shape, missing media, non-positive amounts).
	CodeValidation Code = "validation"

	// CodeBadRequest marks malformed requests at the transport boundary.
	CodeBadRequest Code = "bad_request"

	// CodeInvalidInput marks identifiers or enums that fail to parse.
	CodeInvalidInput Code = "invalid_input"

	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"

	// CodeConflict marks recoverable concurrency conflicts: lost CAS races,
	// duplicate active assignments, repeated campaign joins. Callers may
	// re-read and retry; the core never retries on their behalf.
	CodeConflict Code = "conflict"

	// CodeInvariantViolation marks requests that would break a structural
	// invariant, such as a transition absent from the lifecycle table.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeUnauthorized marks missing or invalid credentials.
	CodeUnauthorized Code = "unauthorized"

	// CodeForbidden marks authenticated but disallowed actions.
	CodeForbidden Code = "forbidden"

	// CodeUnavailable marks collaborator outages (oracle down, empty label
	// set). Retry policy belongs to the caller.
	CodeUnavailable Code = "unavailable"

	// CodeInternal marks unexpected infrastructure failure. Details are
	// logged, never surfaced to clients.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. The wrapped cause, when present, is reachable
// through errors.Unwrap for sentinel checks.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error. A nil err yields
// nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// CodeOf returns the code carried by err, or CodeInternal when err carries
// none. Nil errors have no code and return the empty string.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var derr *Error
	if errors.As(err, &derr) {
		return derr.Code
	}
	return CodeInternal
}

// HasCode reports whether err (or any wrapped cause) carries the given code.
func HasCode(err error, code Code) bool {
	var derr *Error
	return errors.As(err, &derr) && derr.Code == code
}

// Is is an alias for HasCode kept for call-site readability.
func Is(err error, code Code) bool { return HasCode(err, code) }

// ToHTTPStatus maps a code to the HTTP status handlers should emit.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
