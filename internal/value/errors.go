package value

import "errors"

// Value access errors.
var (
	// ErrKindMismatch is returned when an operation's requested kind
	// disagrees with the stored or declared kind. Values are never coerced.
	ErrKindMismatch = errors.New("value kind mismatch")

	// ErrUnset is returned when reading a cell that was never written.
	ErrUnset = errors.New("value not set")
)
