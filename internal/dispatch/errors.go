package dispatch

import "errors"

// Dispatch errors.
var (
	// ErrNoInvocation is returned when a value-access operation runs with
	// no hook dispatch active.
	ErrNoInvocation = errors.New("no active hook invocation")

	// ErrUnknownFunction is returned when dispatching an id the registry
	// has no descriptor for.
	ErrUnknownFunction = errors.New("no hook descriptor for function")

	// ErrArgCount is returned when the captured argument count does not
	// match the descriptor's signature.
	ErrArgCount = errors.New("argument count mismatch")

	// ErrNoCapacity is returned when reading a string return value without
	// supplying an output capacity.
	ErrNoCapacity = errors.New("no output capacity supplied for string value")
)
