package hook

import "errors"

// Registry errors.
var (
	// ErrUnknownFunction is returned when the function id does not exist
	// in the current catalog build.
	ErrUnknownFunction = errors.New("function does not exist in current API version")

	// ErrUnavailable is returned when the function's required companion
	// component is absent from the host build.
	ErrUnavailable = errors.New("function is not available")

	// ErrNilCallback is returned when registering without a resolved
	// callback reference.
	ErrNilCallback = errors.New("callback reference is nil")

	// ErrInvalidHandle is returned when a handle does not identify a live
	// registration.
	ErrInvalidHandle = errors.New("invalid hookchain handle")
)
