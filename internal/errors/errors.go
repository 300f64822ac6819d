package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors.
// The acquisition codes double as the failure reasons reported to the dashboard.
const (
	ErrConfig          = "CONFIG"
	ErrExec            = "EXEC"
	ErrToolUnavailable = "TOOL_UNAVAILABLE"
	ErrTimeout         = "TIMEOUT"
	ErrNonZeroExit     = "NONZERO_EXIT"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrExec code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrExec,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}

// CodeOf returns the code of the first structured Error in err's chain,
// or an empty string if there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var gErr *Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	return ""
}

// MessageOf returns the one-line message of the first structured Error in
// err's chain, or err.Error() for plain errors.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var gErr *Error
	if errors.As(err, &gErr) {
		return gErr.Message
	}
	return err.Error()
}

// SuggestionOf returns the suggestion of the first structured Error in err's
// chain that has one.
func SuggestionOf(err error) string {
	for err != nil {
		var gErr *Error
		if !errors.As(err, &gErr) {
			return ""
		}
		if gErr.Suggestion != "" {
			return gErr.Suggestion
		}
		err = gErr.Cause
	}
	return ""
}

// ExitError signals that the process should exit with a specific code
// without printing anything further (the command already reported).
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError with the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode extracts the exit code from an ExitError in err's chain.
func GetExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
