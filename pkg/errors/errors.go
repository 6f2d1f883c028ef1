// Package errors provides structured error types for shadergraph.
//
// Every failure the core can report carries a machine-readable [Code] so the
// CLI (or any other front end) can decide how to surface it without string
// matching. The codes mirror the failure taxonomy of the editor core:
//
//   - Registry errors: DUPLICATE_TYPE, UNKNOWN_TYPE, INVALID_DEFINITION
//   - Graph validation errors: SELF_CONNECTION, UNKNOWN_NODE, UNKNOWN_SOCKET,
//     SOCKET_TYPE_MISMATCH, UNKNOWN_EDGE
//   - Collection errors: EMPTY_IMPORT, UNKNOWN_MODULE, DUPLICATE_MODULE
//   - Serialization errors: MISSING_GRAPH, MALFORMED_PROJECT
//
// Registry errors indicate configuration defects. Graph validation errors are
// recoverable: a rejected connection leaves the graph untouched. Collection
// and serialization errors abort the action and preserve the previous state.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeUnknownNode, "node %q not found", id)
//	if errors.Is(err, errors.ErrCodeUnknownNode) {
//	    // report and carry on
//	}
//
//	err := errors.Wrap(errors.ErrCodeMalformedProject, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code identifies a failure class. Callers branch on codes, not messages.
type Code string

// Error codes, grouped by the component that returns them.
const (
	// Registry errors
	ErrCodeDuplicateType     Code = "DUPLICATE_TYPE"
	ErrCodeUnknownType       Code = "UNKNOWN_TYPE"
	ErrCodeInvalidDefinition Code = "INVALID_DEFINITION"

	// Graph validation errors
	ErrCodeSelfConnection     Code = "SELF_CONNECTION"
	ErrCodeUnknownNode        Code = "UNKNOWN_NODE"
	ErrCodeUnknownSocket      Code = "UNKNOWN_SOCKET"
	ErrCodeSocketTypeMismatch Code = "SOCKET_TYPE_MISMATCH"
	ErrCodeUnknownEdge        Code = "UNKNOWN_EDGE"

	// Collection errors
	ErrCodeEmptyImport     Code = "EMPTY_IMPORT"
	ErrCodeUnknownModule   Code = "UNKNOWN_MODULE"
	ErrCodeDuplicateModule Code = "DUPLICATE_MODULE"

	// Serialization errors
	ErrCodeMissingGraph     Code = "MISSING_GRAPH"
	ErrCodeMalformedProject Code = "MALFORMED_PROJECT"

	// Generic errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
	ErrCodeUnsupported  Code = "UNSUPPORTED"
)

// Error carries a Code, a message for people and an optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New returns an Error with a formatted message and no cause.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap returns an Error whose cause is cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether the first *Error in err's chain has code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the code of the first *Error in err's chain, or "" when
// there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of a coded error without its code and
// cause. Other errors are returned as err.Error().
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Recoverable reports whether err is a graph validation failure that a front
// end should report and move past, as opposed to a failure that aborts the
// surrounding action.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeSelfConnection, ErrCodeUnknownNode, ErrCodeUnknownSocket,
		ErrCodeSocketTypeMismatch, ErrCodeUnknownEdge:
		return true
	}
	return false
}

// As is errors.As from the standard library, re-exported so callers that
// import this package as "errors" can still match error types.
func As(err error, target any) bool {
	return errors.As(err, target)
}
