package schemadoc

import (
	"fmt"
	"strings"
)

// NotFoundError indicates the schema document file is absent.
type NotFoundError struct {
	Schema string
	Path   string
	Err    error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("schema doc not found for %q: %s", e.Schema, e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError indicates the document was readable but no field rows were
// recognized in it.
type ParseError struct {
	Schema string
	Path   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no schema fields parsed from %s", e.Path)
}

// LookupError indicates a schema name that was never configured.
type LookupError struct {
	Schema    string
	Available []string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("schema %q not found (available: %s)", e.Schema, strings.Join(e.Available, ", "))
}
