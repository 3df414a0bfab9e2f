// Package apperrors defines the application error taxonomy. Per-event
// failures (invalid names, stale relationships) are isolated and reported in
// rebuild summaries; configuration failures are fatal before any write.
package apperrors

import (
	"errors"
	"fmt"
)

// AppError is a coded application error.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code so sentinel comparisons work across wrapping.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// Error codes.
const (
	CodeInvalidName       = "INVALID_NAME"
	CodeConfigError       = "CONFIG_ERROR"
	CodeRebuildBusy       = "REBUILD_BUSY"
	CodeNotFound          = "NOT_FOUND"
	CodeDatabaseError     = "DATABASE_ERROR"
	CodeStaleRelationship = "STALE_RELATIONSHIP"
)

// Sentinels for errors.Is checks.
var (
	ErrInvalidName = &AppError{Code: CodeInvalidName, Message: "invalid company name"}
	ErrConfig      = &AppError{Code: CodeConfigError, Message: "invalid configuration"}
	ErrRebuildBusy = &AppError{Code: CodeRebuildBusy, Message: "a rebuild is already in progress"}
	ErrNotFound    = &AppError{Code: CodeNotFound, Message: "not found"}
)

// InvalidName builds an INVALID_NAME error for a specific raw input.
func InvalidName(raw string) *AppError {
	return &AppError{Code: CodeInvalidName, Message: fmt.Sprintf("company name %q is empty after normalization", raw)}
}

// ConfigError builds a fatal CONFIG_ERROR.
func ConfigError(message string, cause error) *AppError {
	return &AppError{Code: CodeConfigError, Message: message, Cause: cause}
}

// NotFound builds a NOT_FOUND error.
func NotFound(message string, cause error) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Cause: cause}
}

// DatabaseError builds a DATABASE_ERROR.
func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

// StaleRelationship builds the non-fatal warning recorded when a relationship
// was found only by falling back to an expired date range.
func StaleRelationship(message string) *AppError {
	return &AppError{Code: CodeStaleRelationship, Message: message}
}
