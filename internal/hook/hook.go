// Package hook implements the hook descriptor registry and the per-phase
// handler chains scripts register callbacks into.
package hook

import (
	"github.com/dshills/hookchain/internal/catalog"
	"github.com/dshills/hookchain/internal/script"
)

// Phase selects when a handler runs relative to the original function.
type Phase uint8

const (
	// PhasePre runs before the original function and may rewrite
	// arguments or supersede the call.
	PhasePre Phase = iota

	// PhasePost runs after the original function (or after a supersede)
	// and may override the return value.
	PhasePost
)

// String returns the phase name used in diagnostics.
func (p Phase) String() string {
	if p == PhasePost {
		return "post"
	}
	return "pre"
}

// Registration is one callback's membership in a hook chain. Registrations
// are appended in registration order and never removed or reordered; a
// disabled registration is skipped during dispatch but keeps its position.
type Registration struct {
	handle   Handle
	owner    string
	callback script.FuncRef
	phase    Phase
	enabled  bool
}

// Handle returns the registration's stable numeric handle.
func (r *Registration) Handle() Handle { return r.handle }

// Owner returns the name of the script module that registered the callback.
func (r *Registration) Owner() string { return r.owner }

// Phase returns the registration's phase.
func (r *Registration) Phase() Phase { return r.phase }

// Descriptor is one hookable function's registration record: the catalog
// function plus its ordered pre and post chains. Descriptors are built when
// the registry is constructed and live for the process lifetime; only their
// chains change, and only by append.
type Descriptor struct {
	fn   *catalog.Function
	pre  []*Registration
	post []*Registration
}

// Function returns the catalog data for the hooked function.
func (d *Descriptor) Function() *catalog.Function { return d.fn }

// chain returns the registration list for a phase.
func (d *Descriptor) chain(p Phase) []*Registration {
	if p == PhasePost {
		return d.post
	}
	return d.pre
}

// ChainEntry is a dispatch-time snapshot of one enabled registration.
type ChainEntry struct {
	Handle   Handle
	Owner    string
	Callback script.FuncRef
}
