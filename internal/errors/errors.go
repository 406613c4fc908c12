// Package errors provides a lightweight structured error type (PackError)
// for category-based classification of pipeline failures in the CLI.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a texpack error for classification
type ErrorCategory string

const (
	// Setup errors abort a run before any compiler is spawned.
	CategorySetup  ErrorCategory = "setup"
	CategoryConfig ErrorCategory = "config"

	// Build and processing errors
	CategoryBuild        ErrorCategory = "build"
	CategoryFileSystem   ErrorCategory = "filesystem"
	CategoryRelocate     ErrorCategory = "relocate"
	CategoryBibliography ErrorCategory = "bibliography"

	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// PackError is a structured error with category, severity, and context
type PackError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for PackError
type ContextFields map[string]any

// Error implements the error interface
func (e *PackError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *PackError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *PackError) WithContext(key string, value any) *PackError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new fatal PackError
func New(category ErrorCategory, message string) *PackError {
	return &PackError{
		Category: category,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// Wrap creates a new fatal PackError that wraps an existing error
func Wrap(err error, category ErrorCategory, message string) *PackError {
	return &PackError{
		Category: category,
		Severity: SeverityFatal,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	var pe *PackError
	if errors.As(err, &pe) {
		return pe.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a PackError
func GetCategory(err error) ErrorCategory {
	var pe *PackError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryInternal
}
