package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryServer Category = "server"
	CategoryGuard  Category = "guard"
	CategoryPlugin Category = "plugin"
	CategoryCLI    Category = "cli"
)

// WasmletError is a structured error with a stable code and a fix suggestion.
type WasmletError struct {
	// Code is a unique error identifier (e.g., "E201").
	Code string

	// Category is the error type (config, server, guard, plugin, cli).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *WasmletError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *WasmletError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *WasmletError) WithDetail(d string) *WasmletError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detailed explanation to the error.
func (e *WasmletError) WithDetailf(format string, args ...any) *WasmletError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *WasmletError) WithSuggestion(s string) *WasmletError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *WasmletError) Wrap(err error) *WasmletError {
	e.Wrapped = err
	return e
}

// New creates a WasmletError from a registered error code.
func New(code string) *WasmletError {
	template, ok := registry[code]
	if !ok {
		return &WasmletError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &WasmletError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new WasmletError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *WasmletError {
	return &WasmletError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a WasmletError.
func FromError(err error, code string) *WasmletError {
	if err == nil {
		return nil
	}
	if we, ok := err.(*WasmletError); ok {
		return we
	}
	return New(code).Wrap(err)
}
