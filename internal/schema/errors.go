package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned for a member kind that is not recognised.
	ErrUnknownKind = errors.New("unknown member kind")

	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidField is returned when a field has the wrong shape for its kind.
	ErrInvalidField = errors.New("invalid field")

	// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ParseError reports a document that could not be decoded.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DefinitionError reports a decoded class or member definition that
// cannot be built.
type DefinitionError struct {
	Class  string
	Member string
	Err    error
}

func (e *DefinitionError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("class %s: %v", e.Class, e.Err)
	}
	return fmt.Sprintf("class %s member %s: %v", e.Class, e.Member, e.Err)
}

func (e *DefinitionError) Unwrap() error {
	return e.Err
}
