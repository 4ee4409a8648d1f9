// Package brelerrors provides structured error types for version updates.
//
// Every error produced while updating files can be classified with
// [errors.Is] against one of the sentinels below, and inspected with
// [errors.As] for the offending file and selector:
//
//	report, err := processor.ApplyVersionUpdates(root, "1.2.0", updates, nil)
//	if errors.Is(err, brelerrors.ErrSelectorNoMatch) {
//	    // the configured selector does not exist in the file
//	}
//
//	var selErr *brelerrors.SelectorError
//	if errors.As(err, &selErr) {
//	    fmt.Println(selErr.Path, selErr.Selector)
//	}
//
// [InvariantError] is different from the others: it signals a bug in this
// module rather than a problem with user input.
package brelerrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrFileNotFound matches a configured file that does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrFormatUndetected matches a file whose format could not be inferred.
	ErrFormatUndetected = errors.New("file format undetected")
	// ErrDocumentParse matches a file that is not valid JSON or TOML.
	ErrDocumentParse = errors.New("document parse error")
	// ErrSelectorSyntax matches a selector that violates the grammar.
	ErrSelectorSyntax = errors.New("selector syntax error")
	// ErrSelectorTypeMismatch matches a selector whose shape disagrees with the document.
	ErrSelectorTypeMismatch = errors.New("selector type mismatch")
	// ErrSelectorNoMatch matches a selector that resolved to no values.
	ErrSelectorNoMatch = errors.New("selector matched no values")
	// ErrNonStringTarget matches a resolved value that is not a string.
	ErrNonStringTarget = errors.New("non-string value")
	// ErrInternalInvariant matches an internal inconsistency (a bug).
	ErrInternalInvariant = errors.New("internal invariant violation")
	// ErrConfig matches invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// FileError reports a problem with a whole file: it is missing, its format
// cannot be determined, or it cannot be parsed or written.
type FileError struct {
	// Path is the repository-relative path of the file
	Path string
	// Kind is the sentinel this error matches (ErrFileNotFound, ErrFormatUndetected, ErrDocumentParse)
	Kind error
	// Line and Column locate parse errors when known (1-based, 0 if unknown)
	Line   int
	Column int
	// Message provides additional context
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *FileError) Error() string {
	msg := "file error"
	if e.Kind != nil {
		msg = e.Kind.Error()
	}
	if e.Path != "" {
		msg += fmt.Sprintf(" in `%s`", e.Path)
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *FileError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error's kind.
func (e *FileError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// SelectorError attaches a file and selector to a resolution or mutation
// failure. The classification comes from Cause.
type SelectorError struct {
	// Path is the repository-relative path of the file
	Path string
	// Selector is the selector text as configured
	Selector string
	// Cause is the underlying error; it carries the sentinel
	Cause error
}

// Error returns a human-readable error message.
func (e *SelectorError) Error() string {
	msg := fmt.Sprintf("selector `%s`", e.Selector)
	if e.Path != "" {
		msg += fmt.Sprintf(" in `%s`", e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *SelectorError) Unwrap() error {
	return e.Cause
}

// InvariantError reports that the resolver and the syntax-aware editor
// disagree about a document. It is always a bug.
type InvariantError struct {
	// Path is the repository-relative path of the file, if known
	Path string
	// Location is the concrete path being edited
	Location string
	// Message describes the disagreement
	Message string
}

// Error returns a human-readable error message.
func (e *InvariantError) Error() string {
	msg := ErrInternalInvariant.Error()
	if e.Path != "" {
		msg += fmt.Sprintf(" in `%s`", e.Path)
	}
	if e.Location != "" {
		msg += fmt.Sprintf(" at `%s`", e.Location)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg + " (this is a bug in brel, please report it)"
}

// Is reports whether target matches this error type.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInternalInvariant
}

// ConfigError represents invalid configuration.
type ConfigError struct {
	// File is the configuration file, if any
	File string
	// Field is the offending configuration key (e.g., "release_pr.version_updates")
	Field string
	// Message describes the problem
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "config error"
	if e.File != "" {
		msg += fmt.Sprintf(" in `%s`", e.File)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(": `%s`", e.Field)
	}
	if e.Message != "" {
		msg += " " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}
