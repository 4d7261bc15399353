package hook

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/hookchain/internal/catalog"
	"github.com/dshills/hookchain/internal/script"
)

// Registry is the catalog of hook descriptors. It is built once from the
// API catalog and mutated only by handler registration and enable/disable.
// Reads during dispatch take snapshots under a read lock, so registrations
// appended after dispatching has begun never invalidate a chain already
// being run.
type Registry struct {
	mu    sync.RWMutex
	log   *zap.Logger
	hooks map[catalog.FuncID]*Descriptor
	regs  []*Registration
	gen   uint32
}

// NewRegistry builds a registry with one descriptor per catalog function.
func NewRegistry(cat catalog.Catalog, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}

	r := &Registry{
		log:   log,
		hooks: make(map[catalog.FuncID]*Descriptor),
	}
	for _, f := range cat.Functions() {
		r.hooks[f.ID] = &Descriptor{fn: f}
	}
	return r
}

// Lookup returns the descriptor for a function id.
func (r *Registry) Lookup(id catalog.FuncID) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.hooks[id]
	return d, ok
}

// Register appends a callback to the function's chain for the given phase
// and returns its handle. It fails when the id is unknown to the catalog
// build, when the function's required companion component is absent, or
// when no callback reference is supplied. There is no retroactive effect on
// in-flight dispatches.
func (r *Registry) Register(id catalog.FuncID, phase Phase, owner string, cb script.FuncRef) (Handle, error) {
	if cb == nil {
		return InvalidHandle, ErrNilCallback
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.hooks[id]
	if !ok {
		return InvalidHandle, fmt.Errorf("function id %d: %w", id, ErrUnknownFunction)
	}
	if !d.fn.IsAvailable() {
		return InvalidHandle, fmt.Errorf("function %q requires %s: %w", d.fn.Name, d.fn.Requires, ErrUnavailable)
	}

	r.gen++
	reg := &Registration{
		handle:   packHandle(r.gen, len(r.regs)),
		owner:    owner,
		callback: cb,
		phase:    phase,
		enabled:  true,
	}
	r.regs = append(r.regs, reg)

	if phase == PhasePost {
		d.post = append(d.post, reg)
	} else {
		d.pre = append(d.pre, reg)
	}

	r.log.Debug("hook handler registered",
		zap.String("function", d.fn.Name),
		zap.String("phase", phase.String()),
		zap.String("owner", owner),
		zap.String("callback", cb.Name()),
		zap.Int64("handle", int64(reg.handle)))

	return reg.handle, nil
}

// SetEnabled toggles a registration without removing it or disturbing its
// chain position. Invalid or stale handles are rejected.
func (r *Registry) SetEnabled(h Handle, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, err := r.lookupHandleLocked(h)
	if err != nil {
		return err
	}
	reg.enabled = enabled
	return nil
}

// IsEnabled reports a registration's enabled state.
func (r *Registry) IsEnabled(h Handle) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, err := r.lookupHandleLocked(h)
	if err != nil {
		return false, err
	}
	return reg.enabled, nil
}

// Chain returns a snapshot of the enabled registrations for one phase of
// one function, in registration order. Pre and post are independent queues;
// relative registration order between phases does not interleave them.
func (r *Registry) Chain(id catalog.FuncID, phase Phase) []ChainEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.hooks[id]
	if !ok {
		return nil
	}

	regs := d.chain(phase)
	out := make([]ChainEntry, 0, len(regs))
	for _, reg := range regs {
		if !reg.enabled {
			continue
		}
		out = append(out, ChainEntry{
			Handle:   reg.handle,
			Owner:    reg.owner,
			Callback: reg.callback,
		})
	}
	return out
}

// lookupHandleLocked validates a handle's slot index and generation stamp.
func (r *Registry) lookupHandleLocked(h Handle) (*Registration, error) {
	idx := h.index()
	if idx < 0 || idx >= len(r.regs) {
		return nil, ErrInvalidHandle
	}
	reg := r.regs[idx]
	if reg.handle.generation() != h.generation() {
		return nil, ErrInvalidHandle
	}
	return reg, nil
}
