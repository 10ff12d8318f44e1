package types

import (
	"errors"
	"strings"
)

// ElementKind represents the type of declaration a CodeElement was built from
type ElementKind string

const (
	KindFunction ElementKind = "function"
	KindClass    ElementKind = "class"
)

// ParseElementKind converts a stored kind string back to an ElementKind
func ParseElementKind(s string) (ElementKind, error) {
	switch ElementKind(s) {
	case KindFunction, KindClass:
		return ElementKind(s), nil
	default:
		return "", ErrInvalidKind
	}
}

// CodeElement represents a function or class declaration found in a source file.
// Values are produced by the extractor and never mutated afterwards.
type CodeElement struct {
	FilePath   string
	Name       string
	Kind       ElementKind
	Signature  string
	Docstring  string // May be empty
	LineNumber int    // 1-based
}

// Validate checks that the element carries the fields every stored record needs
func (e *CodeElement) Validate() error {
	if e.FilePath == "" {
		return ErrMissingFilePath
	}

	if strings.TrimSpace(e.Name) == "" {
		return errors.New("element name is required")
	}

	if _, err := ParseElementKind(string(e.Kind)); err != nil {
		return err
	}

	if e.Signature == "" {
		return errors.New("element signature is required")
	}

	if e.LineNumber <= 0 {
		return errors.New("invalid position: line number must be positive")
	}

	return nil
}
