package value

import (
	"fmt"

	"github.com/dshills/hookchain/internal/arena"
)

// Cell holds the current return value of one invocation. Its kind is fixed
// at construction by the descriptor's declared return type. The set flag
// distinguishes "never written" from "written with a value"; reading an
// unset cell is an error.
//
// String contents are copied into the invocation's scratch arena. Each
// overwrite frees the previous buffer, so repeated overrides within one
// invocation never accumulate allocations.
type Cell struct {
	kind    Kind
	set     bool
	val     Value
	scratch *arena.Arena
	slot    arena.Slot
}

// NewCell creates an unset cell of the given kind. scratch may be nil when
// the cell never holds strings; a string write then stores the text in the
// cell itself.
func NewCell(kind Kind, scratch *arena.Arena) Cell {
	return Cell{kind: kind, scratch: scratch}
}

// Kind returns the cell's fixed kind.
func (c *Cell) Kind() Kind {
	return c.kind
}

// IsSet reports whether the cell has been written.
func (c *Cell) IsSet() bool {
	return c.set
}

// Set stores v in the cell. The value's kind must match the cell's kind.
func (c *Cell) Set(v Value) error {
	if v.Kind() != c.kind {
		return fmt.Errorf("cell expects %s, got %s: %w", c.kind, v.Kind(), ErrKindMismatch)
	}

	if c.kind == KindString && c.scratch != nil {
		if c.slot != arena.InvalidSlot {
			c.scratch.Free(c.slot)
		}
		s, _ := v.AsString()
		c.slot = c.scratch.Alloc(s)
	}

	c.val = v
	c.set = true
	return nil
}

// Get returns the stored value, or ErrUnset when nothing was written.
func (c *Cell) Get() (Value, error) {
	if !c.set {
		return Value{}, ErrUnset
	}

	if c.kind == KindString && c.scratch != nil {
		s, ok := c.scratch.String(c.slot)
		if !ok {
			return Value{}, ErrUnset
		}
		return String(s), nil
	}

	return c.val, nil
}
