package mobiledoc

import (
	"errors"
	"fmt"
)

// Errors returned by the mobiledoc codec.
var (
	// ErrUnsupportedVersion indicates a version that cannot be read or written.
	ErrUnsupportedVersion = errors.New("unsupported mobiledoc version")

	// ErrMalformed indicates JSON that does not have the mobiledoc shape.
	ErrMalformed = errors.New("malformed mobiledoc")
)

// ParseError describes where a mobiledoc could not be parsed.
type ParseError struct {
	// Version is the declared version, if it was read.
	Version string
	// Path is the JSON path of the offending value, such as "sections.2.1".
	Path string
	// Message describes the problem.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("mobiledoc %s: parse error at %s: %s", e.Version, e.Path, e.Message)
	}
	return fmt.Sprintf("mobiledoc %s: parse error: %s", e.Version, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
