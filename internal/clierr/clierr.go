// Package clierr defines structured error types shared by the tracking
// services and the CLI. Errors carry a machine-readable code, a
// human-readable message, and optional details for script consumption.
package clierr

import "fmt"

// Error code constants: uppercase, underscore-separated, stable across minor versions.
const (
	ProjectNotFound       = "PROJECT_NOT_FOUND"
	TaskNotFound          = "TASK_NOT_FOUND"
	SessionNotFound       = "SESSION_NOT_FOUND"
	ActiveSessionExists   = "ACTIVE_SESSION_EXISTS"
	InvalidState          = "INVALID_STATE"
	AlreadyStopped        = "ALREADY_STOPPED"
	InvalidTimestampOrder = "INVALID_TIMESTAMP_ORDER"
	InvalidInput          = "INVALID_INPUT"
	InternalError         = "INTERNAL_ERROR"
)

// Error represents a structured error with a machine-readable code.
type Error struct {
	Code    string
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// New creates an Error with the given code and message.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails returns the error with the given details map attached.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// ExitCode returns 2 for InternalError, 1 for all others.
func (e *Error) ExitCode() int {
	if e.Code == InternalError {
		return 2
	}
	return 1
}
