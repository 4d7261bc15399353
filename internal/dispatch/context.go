package dispatch

import (
	"fmt"

	"github.com/dshills/hookchain/internal/abi"
	"github.com/dshills/hookchain/internal/arena"
	"github.com/dshills/hookchain/internal/hook"
	"github.com/dshills/hookchain/internal/value"
)

// Outcome is the chain-control result of one dispatch.
type Outcome uint8

const (
	// OutcomeContinue means no handler replaced the return value; the
	// caller observes the original function's natural result.
	OutcomeContinue Outcome = iota

	// OutcomeOverride means the original function ran but a handler
	// replaced its return value.
	OutcomeOverride

	// OutcomeSupersede means a pre-handler set the return value and the
	// original function was skipped entirely.
	OutcomeSupersede
)

// String returns the outcome name used in diagnostics.
func (o Outcome) String() string {
	switch o {
	case OutcomeOverride:
		return "override"
	case OutcomeSupersede:
		return "supersede"
	default:
		return "continue"
	}
}

// Invocation is the live state exposed to callbacks while one hooked call
// is dispatched: the argument block, the return cell, the current phase and
// the chain-control outcome. One invocation exists per active dispatch;
// nested dispatches stack fresh invocations and the driver restores the
// outer one when they complete.
type Invocation struct {
	desc    *hook.Descriptor
	block   *abi.Block
	scratch *arena.Arena
	ret     value.Cell
	phase   hook.Phase
	outcome Outcome
}

// Function returns the name of the hooked function.
func (inv *Invocation) Function() string {
	return inv.desc.Function().Name
}

// Phase returns the currently executing chain phase.
func (inv *Invocation) Phase() hook.Phase {
	return inv.phase
}

// Outcome returns the chain-control outcome so far.
func (inv *Invocation) Outcome() Outcome {
	return inv.outcome
}

// ArgCount returns the number of argument slots.
func (inv *Invocation) ArgCount() int {
	return inv.block.Len()
}

// Arg reads argument slot i. kind must match the descriptor's declared kind
// for that slot; values are never coerced.
func (inv *Invocation) Arg(i int, kind value.Kind) (value.Value, error) {
	if err := inv.checkSlot(i, kind); err != nil {
		return value.Value{}, err
	}
	return inv.block.Read(i)
}

// SetArg rewrites argument slot i so the eventually-called original
// function observes the new value. String text is copied into the
// invocation's scratch arena, never retained from the caller's buffer.
//
// Outside the pre phase the write validates, reports success and changes
// nothing: the original function has already consumed its arguments, and
// existing scripts unconditionally set-and-get around the original call.
func (inv *Invocation) SetArg(i int, kind value.Kind, v value.Value) error {
	if err := inv.checkSlot(i, kind); err != nil {
		return err
	}
	if v.Kind() != kind {
		return fmt.Errorf("argument %d expects %s, got %s: %w", i, kind, v.Kind(), value.ErrKindMismatch)
	}

	if inv.phase != hook.PhasePre {
		return nil
	}
	return inv.block.Load(i, v)
}

// Return reads the current return cell. It fails while the cell is unset
// and when kind disagrees with the declared return kind.
func (inv *Invocation) Return(kind value.Kind) (value.Value, error) {
	if kind != inv.ret.Kind() {
		return value.Value{}, fmt.Errorf("return expects %s, got %s: %w", inv.ret.Kind(), kind, value.ErrKindMismatch)
	}
	return inv.ret.Get()
}

// SetReturn writes the return cell. During the pre phase a set return value
// supersedes the original call; after it, the write overrides the result
// the caller will observe. Previous string contents are released before
// replacement.
func (inv *Invocation) SetReturn(kind value.Kind, v value.Value) error {
	if kind != inv.ret.Kind() {
		return fmt.Errorf("return expects %s, got %s: %w", inv.ret.Kind(), kind, value.ErrKindMismatch)
	}
	if err := inv.ret.Set(v); err != nil {
		return err
	}

	if inv.phase == hook.PhasePre {
		inv.outcome = OutcomeSupersede
	} else if inv.outcome != OutcomeSupersede {
		inv.outcome = OutcomeOverride
	}
	return nil
}

// ReturnSet reports whether the return cell holds a value.
func (inv *Invocation) ReturnSet() bool {
	return inv.ret.IsSet()
}

// checkSlot validates an argument index and its declared kind.
func (inv *Invocation) checkSlot(i int, kind value.Kind) error {
	args := inv.desc.Function().Args
	if i < 0 || i >= len(args) {
		return fmt.Errorf("argument %d of %d: %w", i, len(args), abi.ErrIndexOutOfRange)
	}
	if args[i] != kind {
		return fmt.Errorf("argument %d expects %s, got %s: %w", i, args[i], kind, value.ErrKindMismatch)
	}
	return nil
}
