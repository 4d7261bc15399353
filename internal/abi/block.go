// Package abi models the live native argument block of an intercepted call.
// All per-kind raw storage reads and writes are confined to this package;
// the rest of the engine only ever exchanges tagged values with it.
package abi

import (
	"errors"
	"fmt"
	"math"

	"github.com/dshills/hookchain/internal/arena"
	"github.com/dshills/hookchain/internal/value"
)

// ErrIndexOutOfRange is returned for an argument index outside the block.
var ErrIndexOutOfRange = errors.New("argument index out of range")

// slot is the raw storage for one argument. Integers and floats share the
// word; string arguments hold an arena slot whose buffer outlives every
// rewrite within the invocation; opaque kinds hold the native reference
// itself.
type slot struct {
	word uint64
	str  arena.Slot
	ref  value.Ref
}

// Block is one invocation's argument block. Its slot kinds are copied from
// the hook descriptor and fixed for the block's lifetime.
type Block struct {
	kinds   []value.Kind
	slots   []slot
	scratch *arena.Arena
}

// NewBlock creates a block with the given per-slot kinds. String writes are
// copied into scratch so the eventually-called original function observes
// text that stays valid for the whole invocation.
func NewBlock(kinds []value.Kind, scratch *arena.Arena) *Block {
	return &Block{
		kinds:   kinds,
		slots:   make([]slot, len(kinds)),
		scratch: scratch,
	}
}

// Len returns the number of argument slots.
func (b *Block) Len() int {
	return len(b.slots)
}

// Kind returns the declared kind of slot i, or KindInvalid when i is out of
// range.
func (b *Block) Kind(i int) value.Kind {
	if i < 0 || i >= len(b.kinds) {
		return value.KindInvalid
	}
	return b.kinds[i]
}

// Load writes v into slot i. The value's kind must match the slot's
// declared kind exactly.
func (b *Block) Load(i int, v value.Value) error {
	if i < 0 || i >= len(b.slots) {
		return fmt.Errorf("slot %d of %d: %w", i, len(b.slots), ErrIndexOutOfRange)
	}
	if v.Kind() != b.kinds[i] {
		return fmt.Errorf("slot %d expects %s, got %s: %w", i, b.kinds[i], v.Kind(), value.ErrKindMismatch)
	}

	switch b.kinds[i] {
	case value.KindInt, value.KindFloat:
		b.slots[i] = slot{word: v.Word()}
	case value.KindString:
		// Previous buffers stay live until the invocation releases the
		// arena; only the installed pointer changes.
		s, _ := v.AsString()
		b.slots[i] = slot{str: b.scratch.Alloc(s)}
	default:
		r, _ := v.AsRef()
		b.slots[i] = slot{ref: r}
	}
	return nil
}

// Read returns the value currently stored in slot i.
func (b *Block) Read(i int) (value.Value, error) {
	if i < 0 || i >= len(b.slots) {
		return value.Value{}, fmt.Errorf("slot %d of %d: %w", i, len(b.slots), ErrIndexOutOfRange)
	}

	switch b.kinds[i] {
	case value.KindInt:
		return value.Int(int64(b.slots[i].word)), nil
	case value.KindFloat:
		return value.Float(math.Float64frombits(b.slots[i].word)), nil
	case value.KindString:
		s, ok := b.scratch.String(b.slots[i].str)
		if !ok {
			// Never loaded; an unwritten string slot reads as empty text.
			return value.String(""), nil
		}
		return value.String(s), nil
	default:
		return value.NewRef(b.kinds[i], b.slots[i].ref), nil
	}
}
