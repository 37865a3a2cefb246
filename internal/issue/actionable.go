// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error context: what operation
// failed, what resource was involved, and what the user can do about it.
package issue

import (
	"errors"
	"fmt"
	"strings"
)

// ActionableError is an error with context for user-facing error
// messages. The CLI layer wraps engine errors in one before rendering;
// the engine itself never constructs them.
type ActionableError struct {
	// Operation describes what was being attempted (e.g. "resolve runtime version").
	Operation string

	// Resource identifies the input or entity involved (optional).
	Resource string

	// Suggestions provides hints on how to fix the issue (optional).
	Suggestions []string

	// Cause is the underlying error that triggered this error (optional).
	Cause error
}

// Wrap wraps an error with operation context. Returns nil for a nil err
// so it can be applied unconditionally on return paths.
func Wrap(err error, operation string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{Operation: operation, Cause: err}
}

// Error implements the error interface. Returns a concise message
// suitable for default (non-verbose) output.
func (e *ActionableError) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)

	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}

	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap returns the underlying cause error for use with errors.Is/As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// WithResource sets the resource involved and returns the error for
// chaining.
func (e *ActionableError) WithResource(res string) *ActionableError {
	e.Resource = res
	return e
}

// WithSuggestion adds a suggestion for how to fix the issue. Can be
// called multiple times.
func (e *ActionableError) WithSuggestion(sug string) *ActionableError {
	e.Suggestions = append(e.Suggestions, sug)
	return e
}

// Format returns a formatted error message with optional verbosity.
//
// When verbose is false:
//
//	failed to <operation>: <resource>: <cause message>
//	  • <suggestion 1>
//
// When verbose is true, additionally includes the full error chain.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder

	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, suggestion := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(suggestion)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		err := e.Cause
		depth := 1
		for err != nil {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			err = errors.Unwrap(err)
			depth++
		}
	}

	return msg.String()
}
