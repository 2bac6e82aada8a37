// Package errors provides structured error types for the dotatlas pipeline.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the engine packages
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Configuration and input validation failures (fatal)
//   - GEOMETRY_*: Coordinate-system and projection failures (fatal)
//   - NOT_FOUND_*: Resource not found
//   - INTERNAL_*: Unexpected internal errors
//
// Coverage gaps and degenerate geometries are deliberately NOT errors: they
// are per-record conditions counted on result summaries so one bad polygon
// cannot block output for the rest of a collection.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidUnit, "people per dot must be positive, got %g", unit)
//	if errors.Is(err, errors.ErrCodeInvalidUnit) {
//	    // Handle configuration error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeUnprojectable, origErr, "reproject %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors: invalid or missing required parameters.
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidUnit   Code = "INVALID_UNIT"
	ErrCodeInvalidLayer  Code = "INVALID_LAYER"
	ErrCodeInvalidAttr   Code = "INVALID_ATTRIBUTE"
	ErrCodeMissingLabel  Code = "MISSING_LABEL_COLUMN"

	// Geometry errors: systematically wrong units for every record.
	ErrCodeCRSMismatch   Code = "GEOMETRY_CRS_MISMATCH"
	ErrCodeUnprojectable Code = "GEOMETRY_UNPROJECTABLE"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Storage errors
	ErrCodeStorage Code = "STORAGE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

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
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
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

// IsConfiguration reports whether the error is a configuration error
// (invalid parameter, missing required column). Configuration errors abort
// the whole run for the affected component.
func IsConfiguration(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidConfig, ErrCodeInvalidUnit, ErrCodeInvalidLayer,
		ErrCodeInvalidAttr, ErrCodeMissingLabel:
		return true
	}
	return false
}

// IsGeometry reports whether the error is a geometry error (CRS mismatch,
// unprojectable geometry). Geometry errors abort the whole run for the
// affected component.
func IsGeometry(err error) bool {
	switch GetCode(err) {
	case ErrCodeCRSMismatch, ErrCodeUnprojectable:
		return true
	}
	return false
}
