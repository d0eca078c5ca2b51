// Package errors defines the typed errors shared across gimlet. Each type
// wraps an optional cause so callers can use errors.Is and errors.As.
package errors

import (
	"fmt"
)

// ParseError represents a failure to parse a configuration or script file.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError reports an invalid configuration or scenario field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SetupError is a construction-time configuration error, such as a drill
// without a bit. The component that reported it stays inert.
type SetupError struct {
	Component string
	Message   string
	Err       error
}

// NewSetupError constructs a SetupError.
func NewSetupError(component, message string, err error) error {
	return &SetupError{Component: component, Message: message, Err: err}
}

func (e *SetupError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("setup error: %s: %s: %v", e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("setup error: %s: %s", e.Component, e.Message)
}

// Unwrap exposes the underlying error.
func (e *SetupError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
