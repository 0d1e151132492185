// Package domainerrors provides coded errors shared across services.
//
// Services classify failures with a Code so transports can map them to
// protocol-specific responses and callers can branch on the kind of failure
// without string matching. Wrap preserves the cause chain for errors.Is/As.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks a structurally malformed request.
	CodeValidation Code = "validation_error"
	// CodeBadRequest marks a well-formed but unusable request.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks a missing or unverifiable actor identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an actor whose role is insufficient for the operation.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a missing record.
	CodeNotFound Code = "not_found"
	// CodeConflict marks an optimistic-concurrency mismatch at commit time.
	// Conflicts are recoverable: the caller may re-read and retry.
	CodeConflict Code = "conflict"
	// CodeNoOpTransition marks a transition whose source and target status
	// are identical.
	CodeNoOpTransition Code = "noop_transition"
	// CodeInvalidTransition marks a transition not present in the configured
	// transition table.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeMalformedTable marks a configuration defect detected at load time.
	CodeMalformedTable Code = "malformed_table"
	// CodeInvariantViolation marks a state the system promised would not
	// occur. These are flagged for reconciliation and never swallowed.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks an unexpected failure in storage or infrastructure.
	CodeInternal Code = "internal_error"
	// CodeTimeout marks a deadline exceeded while waiting on a collaborator.
	CodeTimeout Code = "timeout"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	code    Code
	message string
	cause   error
}

// New creates a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(cause error, code Code, message string) *Error {
	return &Error{code: code, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Code returns the classification of the error.
func (e *Error) Code() Code { return e.code }

// Message returns the human-readable description without the cause chain.
func (e *Error) Message() string { return e.message }

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.cause }

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// Is is a readability alias for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeInternal when the error carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
