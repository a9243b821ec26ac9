// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
//
// Scope errors are raised while resolving the target hierarchy node,
// input errors while materializing engine inputs, algorithm errors
// during partitioning, and validation errors while checking the
// produced segment set.
const (
	CodeUnknown = "UNKNOWN_ERROR"

	// Scope errors.
	CodeUnknownScope      = "UNKNOWN_SCOPE"
	CodeBoothNotFound     = "BOOTH_NOT_FOUND"
	CodeBoundaryViolation = "BOUNDARY_VIOLATION"

	// Input errors.
	CodeNoVoters   = "NO_VOTERS"
	CodeNoUnits    = "NO_UNITS"
	CodeNoBoundary = "NO_BOUNDARY"

	// Algorithm errors.
	CodeAssignmentFailed    = "ASSIGNMENT_FAILED"
	CodeGeometryBuildFailed = "GEOMETRY_BUILD_FAILED"

	// Validation errors.
	CodeEmptySegment       = "EMPTY_SEGMENT"
	CodeVoterCountMismatch = "VOTER_COUNT_MISMATCH"
	CodeDuplicateVoter     = "DUPLICATE_VOTER"
	CodeUnassignedFamily   = "UNASSIGNED_FAMILY"
	CodeInteriorOverlap    = "INTERIOR_OVERLAP"
	CodeInvalidGeometry    = "INVALID_GEOMETRY"
	CodeEmptyGeometry      = "EMPTY_GEOMETRY"

	// Infrastructure errors.
	CodeDatabaseError = "DATABASE_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
	CodeJobFailed     = "JOB_FAILED"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrUnknownScope      = New(CodeUnknownScope, "node level is neither booth nor constituency")
	ErrBoothNotFound     = New(CodeBoothNotFound, "no booths found for scope")
	ErrBoundaryViolation = New(CodeBoundaryViolation, "scope crosses constituency boundary")
	ErrNoVoters          = New(CodeNoVoters, "no voters in scope")
	ErrNoUnits           = New(CodeNoUnits, "no atomic units in scope")
	ErrNoBoundary        = New(CodeNoBoundary, "parent boundary could not be computed")
	ErrAssignmentFailed  = New(CodeAssignmentFailed, "unit could not be assigned to a grid cell")
	ErrDatabaseError     = New(CodeDatabaseError, "database error")
)

// IsScopeError reports whether the error was raised during scope resolution.
func IsScopeError(err error) bool {
	switch GetErrorCode(err) {
	case CodeUnknownScope, CodeBoothNotFound, CodeBoundaryViolation:
		return true
	}
	return false
}

// IsValidationError reports whether the error was raised by the segment validator.
func IsValidationError(err error) bool {
	switch GetErrorCode(err) {
	case CodeEmptySegment, CodeVoterCountMismatch, CodeDuplicateVoter,
		CodeUnassignedFamily, CodeInteriorOverlap, CodeInvalidGeometry,
		CodeEmptyGeometry:
		return true
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
