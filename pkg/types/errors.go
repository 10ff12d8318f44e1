package types

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by a component wraps exactly one of these.
var (
	// ErrParse marks a source file that could not be parsed. The file is skipped.
	ErrParse = errors.New("parse error")
	// ErrConfiguration marks missing or invalid configuration. Fatal at startup.
	ErrConfiguration = errors.New("configuration error")
	// ErrProvider marks a failed embedding call. The element is skipped.
	ErrProvider = errors.New("provider error")
	// ErrStore marks a vector store connectivity or schema failure. Fatal.
	ErrStore = errors.New("store error")
)

// Domain errors for type validation
var (
	ErrInvalidKind     = errors.New("invalid element kind")
	ErrMissingFilePath = errors.New("file path is required")
)

// ParseError represents a file whose content does not parse
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	if pe.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", pe.File, pe.Line, pe.Column, pe.Message)
	}
	return fmt.Sprintf("%s: %s", pe.File, pe.Message)
}

// Unwrap lets errors.Is match ErrParse
func (pe *ParseError) Unwrap() error {
	return ErrParse
}

// IsFatal reports whether err must stop a run. Configuration and store
// failures are fatal; parse and provider failures degrade the result.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrStore)
}
