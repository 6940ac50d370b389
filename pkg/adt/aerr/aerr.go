// Package aerr defines the error model shared by every fallible operation
// in erpl-adt. Errors carry a closed kind, the symbolic operation name, the
// endpoint that failed, and optional HTTP status and SAP-side short text,
// and map to a stable process exit code.
package aerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error into the closed taxonomy.
type Kind string

// Error kinds.
const (
	KindConnection      Kind = "connection"
	KindAuthentication  Kind = "authentication"
	KindCsrfToken       Kind = "csrf_token"
	KindNotFound        Kind = "not_found"
	KindPackageError    Kind = "package_error"
	KindCloneError      Kind = "clone_error"
	KindPullError       Kind = "pull_error"
	KindActivationError Kind = "activation_error"
	KindLockConflict    Kind = "lock_conflict"
	KindTestFailure     Kind = "test_failure"
	KindCheckError      Kind = "check_error"
	KindTransportError  Kind = "transport_error"
	KindTimeout         Kind = "timeout"
	KindInternal        Kind = "internal"
)

// Exit codes, stable across the process.
const (
	ExitOK         = 0
	ExitConnection = 1
	ExitNotFound   = 2
	ExitClone      = 3
	ExitPull       = 4
	ExitActivation = 5
	ExitLock       = 6
	ExitTest       = 7
	ExitCheck      = 8
	ExitTransport  = 9
	ExitTimeout    = 10
	ExitInternal   = 99
)

// Error is the error type crossing every module boundary. No exception or
// panic escapes a package; fallible operations return (T, *Error) or
// (T, error) wrapping an *Error.
type Error struct {
	// Kind is the error classification.
	Kind Kind
	// Operation is the symbolic operation name, e.g. "CloneRepo".
	Operation string
	// Endpoint is the URL path that failed, when known.
	Endpoint string
	// Status is the HTTP status code, 0 when not applicable.
	Status int
	// Message is the free-text description.
	Message string
	// SAPError is the SAP-side short text extracted from the response body.
	SAPError string
	// Hint carries remediation context, e.g. the Accept values tried.
	Hint string
	// Cause is the underlying error.
	Cause error
}

// Error returns the human-readable form:
// "Error: <operation> [<endpoint>] (HTTP <status>): <message> — SAP: <sap>".
func (e *Error) Error() string {
	s := e.Operation
	if e.Endpoint != "" {
		s += fmt.Sprintf(" [%s]", e.Endpoint)
	}
	if e.Status != 0 {
		s += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	s += ": " + e.Message
	if e.SAPError != "" {
		s += " - SAP: " + e.SAPError
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode maps the kind to the stable process exit code.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindConnection, KindAuthentication, KindCsrfToken:
		return ExitConnection
	case KindNotFound, KindPackageError:
		return ExitNotFound
	case KindCloneError:
		return ExitClone
	case KindPullError:
		return ExitPull
	case KindActivationError:
		return ExitActivation
	case KindLockConflict:
		return ExitLock
	case KindTestFailure:
		return ExitTest
	case KindCheckError:
		return ExitCheck
	case KindTransportError:
		return ExitTransport
	case KindTimeout:
		return ExitTimeout
	default:
		return ExitInternal
	}
}

// New creates a new Error.
func New(kind Kind, operation, message string) *Error {
	return &Error{Kind: kind, Operation: operation, Message: message}
}

// Wrap creates a new Error with an underlying cause.
func Wrap(kind Kind, operation, message string, cause error) *Error {
	return &Error{Kind: kind, Operation: operation, Message: message, Cause: cause}
}

// WithEndpoint returns the error with the endpoint set.
func (e *Error) WithEndpoint(endpoint string) *Error {
	e.Endpoint = endpoint
	return e
}

// WithStatus returns the error with the HTTP status set.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// WithSAPError returns the error with the SAP short text set.
func (e *Error) WithSAPError(sapError string) *Error {
	e.SAPError = sapError
	return e
}

// WithHint returns the error with a remediation hint set.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// As extracts an *Error from err, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// ExitCode returns the exit code for any error: 0 for nil, the mapped code
// for an *Error, ExitInternal otherwise.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if e := As(err); e != nil {
		return e.ExitCode()
	}
	return ExitInternal
}
