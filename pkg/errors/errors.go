package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies a failure for HTTP mapping and retry decisions.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Policy describes how a code surfaces to API clients.
type Policy struct {
	Status    int
	Retryable bool
	// Public replaces the error's own message when ExposeMessage is false.
	Public        string
	ExposeMessage bool
	ExposeDetails bool
}

var policies = map[Code]Policy{
	CodeValidation:    {Status: http.StatusBadRequest, Public: "validation failed", ExposeMessage: true, ExposeDetails: true},
	CodeUnauthorized:  {Status: http.StatusUnauthorized, Public: "authentication required", ExposeMessage: true},
	CodeForbidden:     {Status: http.StatusForbidden, Public: "access denied", ExposeMessage: true},
	CodeNotFound:      {Status: http.StatusNotFound, Public: "resource not found", ExposeMessage: true, ExposeDetails: true},
	CodeConflict:      {Status: http.StatusConflict, Public: "conflict detected", ExposeMessage: true, ExposeDetails: true},
	CodeStateConflict: {Status: http.StatusUnprocessableEntity, Public: "state transition disallowed", ExposeMessage: true, ExposeDetails: true},
	CodeIdempotency:   {Status: http.StatusConflict, Public: "idempotency key reused", ExposeMessage: true, ExposeDetails: true},
	CodeInternal:      {Status: http.StatusInternalServerError, Retryable: true, Public: "internal server error"},
	CodeDependency:    {Status: http.StatusServiceUnavailable, Retryable: true, Public: "dependency unavailable", ExposeDetails: true},
}

// PolicyFor returns the policy of code; unknown codes are treated as internal errors.
func PolicyFor(code Code) Policy {
	if p, ok := policies[code]; ok {
		return p
	}
	return policies[CodeInternal]
}

// Error is a coded failure with an optional client-facing details payload.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf builds a typed error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	default:
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether any *Error in err's chain carries code. A NOT_FOUND wrapped as
// INTERNAL still matches CodeNotFound.
func HasCode(err error, code Code) bool {
	for err != nil {
		typed := As(err)
		if typed == nil {
			return false
		}
		if typed.code == code {
			return true
		}
		err = typed.cause
	}
	return false
}

// Retryable reports whether the outermost code allows the caller to try again. Untyped errors
// count as retryable internal failures.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return PolicyFor(As(err).Code()).Retryable
}
