// Package catalog describes the fixed surface of hookable API functions and
// the native-object resolution helpers the engine consumes. The engine never
// enumerates functions itself; the host supplies a Catalog at startup.
package catalog

import (
	"errors"
	"fmt"

	"github.com/dshills/hookchain/internal/value"
)

// FuncID is the stable small-integer identity of a hookable function within
// one catalog build. IDs are assigned by the host and survive for the
// process lifetime.
type FuncID int32

// InvalidFuncID is the sentinel for an unknown function.
const InvalidFuncID FuncID = -1

// Catalog errors.
var (
	// ErrDuplicateFunction is returned when a catalog is built with two
	// functions sharing an id or name.
	ErrDuplicateFunction = errors.New("duplicate catalog function")

	// ErrBadSignature is returned for a function with an invalid kind in
	// its signature.
	ErrBadSignature = errors.New("invalid function signature")

	// ErrUnknownRef is returned by resolvers for an index or reference
	// that is not registered.
	ErrUnknownRef = errors.New("unknown native reference")
)

// Function describes one hookable API function: its identity, argument and
// return kinds, and the availability predicate guarding registration.
// Functions are immutable once the catalog is built.
type Function struct {
	// ID is the function's stable identity.
	ID FuncID

	// Name is the human-readable function name scripts register against.
	Name string

	// Args holds the declared kind of every argument slot, in order.
	Args []value.Kind

	// Return is the declared return kind. The return cell's kind is fixed
	// to it for every dispatch of this function.
	Return value.Kind

	// Requires names the companion component this function depends on.
	// Used only for diagnostics; empty when the function has no dependency.
	Requires string

	// Available reports whether the function can be hooked in the current
	// host build. A nil predicate means always available.
	Available func() bool
}

// IsAvailable evaluates the availability predicate.
func (f *Function) IsAvailable() bool {
	return f.Available == nil || f.Available()
}

// validate checks the signature kinds.
func (f *Function) validate() error {
	if f.Name == "" {
		return fmt.Errorf("function %d has no name: %w", f.ID, ErrBadSignature)
	}
	if !f.Return.Valid() {
		return fmt.Errorf("function %q return kind: %w", f.Name, ErrBadSignature)
	}
	for i, k := range f.Args {
		if !k.Valid() {
			return fmt.Errorf("function %q argument %d kind: %w", f.Name, i, ErrBadSignature)
		}
	}
	return nil
}

// Catalog enumerates the hookable functions of one host build.
type Catalog interface {
	// ResolveFunctionID maps a function name to its id.
	ResolveFunctionID(name string) (FuncID, bool)

	// Function returns the descriptor data for an id.
	Function(id FuncID) (*Function, bool)

	// Functions returns every function in id order.
	Functions() []*Function
}

// Resolver translates between opaque native references and the
// small-integer indices scripts exchange across the boundary.
type Resolver interface {
	// ResolveClass maps an index to a class object reference.
	ResolveClass(index int64) (value.Ref, error)

	// ResolveEntity maps an index to an entity reference.
	ResolveEntity(index int64) (value.Ref, error)

	// ResolveData maps an index to an attached-data reference.
	ResolveData(index int64) (value.Ref, error)

	// IndexOf maps a reference back to its index.
	IndexOf(ref value.Ref) (int64, error)
}

// Static is an immutable in-memory Catalog.
type Static struct {
	byID    map[FuncID]*Function
	byName  map[string]FuncID
	ordered []*Function
}

// NewStatic builds a catalog from the given functions. Ids and names must
// be unique and signatures valid.
func NewStatic(funcs []*Function) (*Static, error) {
	c := &Static{
		byID:   make(map[FuncID]*Function, len(funcs)),
		byName: make(map[string]FuncID, len(funcs)),
	}

	for _, f := range funcs {
		if err := f.validate(); err != nil {
			return nil, err
		}
		if _, ok := c.byID[f.ID]; ok {
			return nil, fmt.Errorf("id %d: %w", f.ID, ErrDuplicateFunction)
		}
		if _, ok := c.byName[f.Name]; ok {
			return nil, fmt.Errorf("name %q: %w", f.Name, ErrDuplicateFunction)
		}
		c.byID[f.ID] = f
		c.byName[f.Name] = f.ID
		c.ordered = append(c.ordered, f)
	}

	return c, nil
}

// ResolveFunctionID implements Catalog.
func (c *Static) ResolveFunctionID(name string) (FuncID, bool) {
	id, ok := c.byName[name]
	if !ok {
		return InvalidFuncID, false
	}
	return id, true
}

// Function implements Catalog.
func (c *Static) Function(id FuncID) (*Function, bool) {
	f, ok := c.byID[id]
	return f, ok
}

// Functions implements Catalog.
func (c *Static) Functions() []*Function {
	out := make([]*Function, len(c.ordered))
	copy(out, c.ordered)
	return out
}
