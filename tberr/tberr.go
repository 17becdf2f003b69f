// Package tberr classifies the engine's failure modes so callers can
// tell a malformed table file from a plain filesystem error without
// string-matching messages.
package tberr

import "fmt"

// Kind classifies an Error.
type Kind uint8

const (
	// InvalidData marks a malformed binary layout: a bad header, bad
	// block offsets, an unsupported compression method, a codec
	// failure, a truncated file, or an index missing from a
	// decompressed block.
	InvalidData Kind = iota
	// InvalidInput marks an out-of-range block or byte index: either a
	// corrupt file or a selector bug, never a user-supplied value.
	InvalidInput
	// Io marks an underlying filesystem error (open, read).
	Io
)

func (k Kind) String() string {
	switch k {
	case InvalidData:
		return "invalid data"
	case InvalidInput:
		return "invalid input"
	case Io:
		return "io"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind and the table file path it
// occurred on, if any.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, path string, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches kind and path to an existing error, leaving err untouched
// if it is nil.
func Wrap(kind Kind, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Path: path, Err: err}
}
