package embedding

import (
	"errors"
	"fmt"
)

// ErrEngineClosed is returned by an Engine after Close
var ErrEngineClosed = errors.New("embedding engine not initialized")

// ModelLoadError is returned when the embedding model cannot be initialised.
// It is fatal: a process that sees it must not start serving.
type ModelLoadError struct {
	Model string
	Cause error
}

// Error implements the error interface.
func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load embedding model %q: %v", e.Model, e.Cause)
}

// Unwrap returns the underlying cause of the error.
func (e *ModelLoadError) Unwrap() error {
	return e.Cause
}

// EncodeError is returned when the input text cannot be encoded, such as a
// missing or malformed text. It is a per-request failure and is not retried.
type EncodeError struct {
	Index int // Position in a batch, or -1 for a single text
	Cause error
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("cannot encode text at index %d: %v", e.Index, e.Cause)
	}
	return fmt.Sprintf("cannot encode text: %v", e.Cause)
}

// Unwrap returns the underlying cause of the error.
func (e *EncodeError) Unwrap() error {
	return e.Cause
}

// IsEncodeError reports whether err is or wraps an *EncodeError
func IsEncodeError(err error) bool {
	var encodeErr *EncodeError
	return errors.As(err, &encodeErr)
}

// IsModelLoadError reports whether err is or wraps a *ModelLoadError
func IsModelLoadError(err error) bool {
	var loadErr *ModelLoadError
	return errors.As(err, &loadErr)
}
