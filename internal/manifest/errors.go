package manifest

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is returned when the manifest is not a valid literal.
	ErrSyntax = errors.New("invalid manifest syntax")

	// ErrNotMapping is returned when the manifest literal is not a dict.
	ErrNotMapping = errors.New("manifest is not a mapping")

	// ErrMissingName is returned when the manifest has no string name.
	ErrMissingName = errors.New("manifest has no name")
)

// SyntaxError describes where a literal failed to parse.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

// Error returns the error message.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// Unwrap returns ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}
