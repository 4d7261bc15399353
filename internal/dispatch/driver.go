package dispatch

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/hookchain/internal/abi"
	"github.com/dshills/hookchain/internal/arena"
	"github.com/dshills/hookchain/internal/catalog"
	"github.com/dshills/hookchain/internal/hook"
	"github.com/dshills/hookchain/internal/script"
	"github.com/dshills/hookchain/internal/value"
)

// Original is the intercepted function's native implementation. It receives
// the possibly rewritten argument block and produces the natural result.
type Original func(args *abi.Block) (value.Value, error)

// Driver runs hook chains around intercepted native calls.
//
// Dispatch is a plain nested function call on the intercepting goroutine;
// nothing suspends and there is no cancellation. Re-entrancy — a handler
// triggering another hooked call, including recursively its own — is
// handled by an explicit invocation stack, not concurrency. A Driver must
// only be used from one goroutine.
type Driver struct {
	reg   *hook.Registry
	host  script.Host
	log   *zap.Logger
	stack []*Invocation
}

// NewDriver creates a driver over the given registry and scripting host.
func NewDriver(reg *hook.Registry, host script.Host, log *zap.Logger) *Driver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{reg: reg, host: host, log: log}
}

// Current returns the innermost active invocation. It fails cleanly when no
// dispatch is in flight, which is how every value-access operation detects
// being called outside a hook.
func (d *Driver) Current() (*Invocation, error) {
	if len(d.stack) == 0 {
		return nil, ErrNoInvocation
	}
	return d.stack[len(d.stack)-1], nil
}

// Depth returns the number of stacked invocations.
func (d *Driver) Depth() int {
	return len(d.stack)
}

// Dispatch runs the full chain for one intercepted call: it builds an
// invocation from the captured arguments, runs enabled pre-handlers in
// registration order, calls the original unless a pre-handler superseded
// it, runs enabled post-handlers, and yields the final return value.
//
// A handler's own failure is logged and the chain continues; only a
// malformed dispatch (unknown id, signature mismatch) or an error from the
// original function itself aborts.
func (d *Driver) Dispatch(id catalog.FuncID, args []value.Value, original Original) (value.Value, error) {
	desc, ok := d.reg.Lookup(id)
	if !ok {
		return value.Value{}, fmt.Errorf("function id %d: %w", id, ErrUnknownFunction)
	}
	fn := desc.Function()
	if len(args) != len(fn.Args) {
		return value.Value{}, fmt.Errorf("%s: got %d arguments, want %d: %w", fn.Name, len(args), len(fn.Args), ErrArgCount)
	}

	scratch := arena.New()
	block := abi.NewBlock(fn.Args, scratch)
	for i, v := range args {
		if err := block.Load(i, v); err != nil {
			return value.Value{}, fmt.Errorf("%s: %w", fn.Name, err)
		}
	}

	inv := &Invocation{
		desc:    desc,
		block:   block,
		scratch: scratch,
		ret:     value.NewCell(fn.Return, scratch),
		phase:   hook.PhasePre,
	}

	// Push as current; the deferred pop restores the outer invocation so
	// nested dispatches leave their caller's context intact.
	d.stack = append(d.stack, inv)
	defer func() {
		d.stack = d.stack[:len(d.stack)-1]
		scratch.Release()
	}()

	d.runChain(inv, id, hook.PhasePre)

	if inv.ret.IsSet() {
		inv.outcome = OutcomeSupersede
		d.log.Debug("original superseded", zap.String("function", fn.Name))
	} else {
		out, err := original(block)
		if err != nil {
			return value.Value{}, fmt.Errorf("%s: original failed: %w", fn.Name, err)
		}
		if err := inv.ret.Set(out); err != nil {
			return value.Value{}, fmt.Errorf("%s: original result: %w", fn.Name, err)
		}
		// The cell now holds the natural result; outcome stays continue
		// unless a post-handler overrides it.
		inv.outcome = OutcomeContinue
	}

	inv.phase = hook.PhasePost
	d.runChain(inv, id, hook.PhasePost)

	if v, err := inv.ret.Get(); err == nil {
		return v, nil
	}
	// Unset at completion: yield the kind's defined default, never
	// undefined memory.
	return value.Zero(fn.Return), nil
}

// runChain invokes every enabled handler for one phase in registration
// order. Handler errors do not abort the chain or corrupt state for the
// handlers that follow.
func (d *Driver) runChain(inv *Invocation, id catalog.FuncID, phase hook.Phase) {
	for _, entry := range d.reg.Chain(id, phase) {
		if _, err := d.host.Call(entry.Callback); err != nil {
			d.log.Error("hook callback failed",
				zap.String("function", inv.Function()),
				zap.String("phase", phase.String()),
				zap.String("owner", entry.Owner),
				zap.String("callback", entry.Callback.Name()),
				zap.Error(err))
		}
	}
}
