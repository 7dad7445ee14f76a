// Package domainerrors defines the coded error type services return to the
// transport layer. Every client-facing failure carries a Code; infrastructure
// errors are wrapped with CodeInternal so their details never reach callers.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error identifier. It doubles as the
// "error" field of HTTP error envelopes.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation_error"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeRateLimited  Code = "rate_limited"
	CodeInternal     Code = "internal_error"

	// Account lifecycle.
	CodeDuplicateAccount       Code = "duplicate_account"
	CodeInvalidCredentials     Code = "invalid_credentials"
	CodeActivationCodeMismatch Code = "activation_code_mismatch"
	CodeDeliveryFailed         Code = "delivery_failed"

	// Tokens and sessions.
	CodeTokenExpired    Code = "token_expired"
	CodeTokenInvalid    Code = "token_invalid"
	CodeSessionNotFound Code = "session_not_found"

	// Request gate.
	CodeUnauthenticated Code = "unauthenticated"
	CodeForbidden       Code = "forbidden"
)

// Error is a domain error with a code, a client-safe message and an optional
// wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// New creates a domain error without a cause.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a domain error with the same code and message,
// so errors.Is(err, New(code, msg)) works in tests and callers.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// HasCode reports whether any domain error in err's chain carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for err != nil {
		if errors.As(err, &de) {
			if de.Code == code {
				return true
			}
			err = de.Err
			continue
		}
		return false
	}
	return false
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost domain error in err's chain, or
// CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
