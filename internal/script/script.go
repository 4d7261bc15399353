// Package script defines the scripting host collaborator: the runtime that
// owns callback modules and invokes their functions on the engine's behalf.
// The engine depends only on these interfaces; internal/script/luahost
// provides the gopher-lua implementation.
package script

import (
	"errors"

	"github.com/dshills/hookchain/internal/value"
)

// Host errors.
var (
	// ErrModuleNotFound is returned when no loaded module has the
	// requested name.
	ErrModuleNotFound = errors.New("script module not found")

	// ErrFunctionNotFound is returned when a callback name cannot be
	// resolved inside its module.
	ErrFunctionNotFound = errors.New("script function not found")
)

// FuncRef identifies a resolved callback function inside a script module.
// Refs stay valid for the lifetime of their module.
type FuncRef interface {
	// Module returns the owning module's name.
	Module() string

	// Name returns the function name within the module.
	Name() string
}

// Host is the scripting runtime hosting callback code.
//
// Dispatch is synchronous: Call runs the callback to completion on the
// calling goroutine and returns its first result, if any. A callback may
// re-enter the engine (including triggering a nested dispatch) while its
// Call is in flight.
type Host interface {
	// FindFunction resolves a callable by module and function name.
	FindFunction(module, name string) (FuncRef, error)

	// Call invokes a previously resolved callback with the given values.
	// The zero Value is returned when the callback produces no result.
	Call(ref FuncRef, args ...value.Value) (value.Value, error)
}
