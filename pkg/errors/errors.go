// Package errors provides structured error types for xbpar.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes are grouped by the stage that raises them:
//   - Graph construction: DUPLICATE_PORT, PORT_DIRECTION_MISMATCH, UNKNOWN_*
//   - Placement: NO_LEGAL_SEED, INFEASIBLE_CAPACITY, EXHAUSTED
//   - Input handling: INVALID_*
//   - INTERNAL_ERROR: a broken invariant, always a bug
//
// # Usage
//
//	err := errors.New(errors.ErrCodeDuplicatePort, "node %d: port %q already registered", id, name)
//	if errors.Is(err, errors.ErrCodeDuplicatePort) {
//	    // Handle construction error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInvalidFormat, origErr, "decode %s", path)
//
// Typed errors that carry extra context (for example the capacity deficit
// reported by the placer) implement [Coder] and are recognised by [Is] and
// [GetCode] the same way as [*Error].
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Graph construction errors
	ErrCodeDuplicatePort     Code = "DUPLICATE_PORT"
	ErrCodePortDirection     Code = "PORT_DIRECTION_MISMATCH"
	ErrCodeUnknownNode       Code = "UNKNOWN_NODE"
	ErrCodeUnknownPort       Code = "UNKNOWN_PORT"
	ErrCodeDuplicateNodeName Code = "DUPLICATE_NODE_NAME"

	// Placement errors
	ErrCodeNoLegalSeed        Code = "NO_LEGAL_SEED"
	ErrCodeInfeasibleCapacity Code = "INFEASIBLE_CAPACITY"
	ErrCodeExhausted          Code = "EXHAUSTED"

	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"
	ErrCodeInvalidConstraint Code = "INVALID_CONSTRAINT"
	ErrCodeInvalidFormat     Code = "INVALID_FORMAT"
	ErrCodeInvalidName       Code = "INVALID_NAME"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Coder is implemented by typed errors that map onto a [Code].
type Coder interface {
	error
	Code() Code
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It walks the error chain and returns true for the first *Error or
// [Coder] whose code matches.
func Is(err error, code Code) bool {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			if e.Code == code {
				return true
			}
		case Coder:
			if e.Code() == code {
				return true
			}
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if no *Error or [Coder] is found in the chain.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
