package hook_test

import (
	"errors"
	"testing"

	"github.com/dshills/hookchain/internal/catalog"
	"github.com/dshills/hookchain/internal/hook"
	"github.com/dshills/hookchain/internal/value"
)

// fakeRef implements script.FuncRef for registry tests.
type fakeRef struct {
	module string
	name   string
}

func (r *fakeRef) Module() string { return r.module }
func (r *fakeRef) Name() string   { return r.name }

func testRegistry(t *testing.T) *hook.Registry {
	t.Helper()

	unavailable := &catalog.Function{
		ID:        2,
		Name:      "Gated",
		Args:      []value.Kind{value.KindInt},
		Return:    value.KindInt,
		Requires:  "gamedll",
		Available: func() bool { return false },
	}
	cat, err := catalog.NewStatic([]*catalog.Function{
		{
			ID:     1,
			Name:   "Open",
			Args:   []value.Kind{value.KindInt, value.KindInt},
			Return: value.KindInt,
		},
		unavailable,
	})
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	return hook.NewRegistry(cat, nil)
}

// TestRegisterUnknownFunction verifies an id outside the catalog build is
// rejected with the invalid handle.
func TestRegisterUnknownFunction(t *testing.T) {
	reg := testRegistry(t)

	h, err := reg.Register(99, hook.PhasePre, "mod", &fakeRef{"mod", "cb"})
	if !errors.Is(err, hook.ErrUnknownFunction) {
		t.Errorf("err = %v, want ErrUnknownFunction", err)
	}
	if h != hook.InvalidHandle {
		t.Errorf("handle = %d, want InvalidHandle", h)
	}
}

// TestRegisterUnavailableFunction verifies the availability predicate gates
// registration.
func TestRegisterUnavailableFunction(t *testing.T) {
	reg := testRegistry(t)

	h, err := reg.Register(2, hook.PhasePre, "mod", &fakeRef{"mod", "cb"})
	if !errors.Is(err, hook.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if h != hook.InvalidHandle {
		t.Errorf("handle = %d, want InvalidHandle", h)
	}
}

// TestRegisterNilCallback verifies registration demands a resolved ref.
func TestRegisterNilCallback(t *testing.T) {
	reg := testRegistry(t)

	if _, err := reg.Register(1, hook.PhasePre, "mod", nil); !errors.Is(err, hook.ErrNilCallback) {
		t.Errorf("err = %v, want ErrNilCallback", err)
	}
}

// TestChainOrderAndPhases verifies registration order within each phase and
// that pre and post are independent queues.
func TestChainOrderAndPhases(t *testing.T) {
	reg := testRegistry(t)

	mustRegister := func(phase hook.Phase, name string) hook.Handle {
		t.Helper()
		h, err := reg.Register(1, phase, "mod", &fakeRef{"mod", name})
		if err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
		return h
	}

	mustRegister(hook.PhasePre, "pre1")
	mustRegister(hook.PhasePost, "post1")
	mustRegister(hook.PhasePre, "pre2")
	mustRegister(hook.PhasePost, "post2")

	pre := reg.Chain(1, hook.PhasePre)
	if len(pre) != 2 || pre[0].Callback.Name() != "pre1" || pre[1].Callback.Name() != "pre2" {
		t.Errorf("pre chain out of order: %+v", pre)
	}

	post := reg.Chain(1, hook.PhasePost)
	if len(post) != 2 || post[0].Callback.Name() != "post1" || post[1].Callback.Name() != "post2" {
		t.Errorf("post chain out of order: %+v", post)
	}
}

// TestSetEnabled verifies disable skips without reordering and re-enable
// restores the original position.
func TestSetEnabled(t *testing.T) {
	reg := testRegistry(t)

	var handles []hook.Handle
	for _, name := range []string{"a", "b", "c"} {
		h, err := reg.Register(1, hook.PhasePre, "mod", &fakeRef{"mod", name})
		if err != nil {
			t.Fatalf("Register(%s): %v", name, err)
		}
		handles = append(handles, h)
	}

	if err := reg.SetEnabled(handles[1], false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}

	chain := reg.Chain(1, hook.PhasePre)
	if len(chain) != 2 || chain[0].Callback.Name() != "a" || chain[1].Callback.Name() != "c" {
		t.Errorf("disabled handler not skipped cleanly: %+v", chain)
	}

	if err := reg.SetEnabled(handles[1], true); err != nil {
		t.Fatalf("re-enable: %v", err)
	}
	chain = reg.Chain(1, hook.PhasePre)
	if len(chain) != 3 || chain[1].Callback.Name() != "b" {
		t.Errorf("re-enabled handler lost its position: %+v", chain)
	}

	enabled, err := reg.IsEnabled(handles[1])
	if err != nil || !enabled {
		t.Errorf("IsEnabled = (%v, %v), want (true, nil)", enabled, err)
	}
}

// TestInvalidHandles verifies fabricated and sentinel handles are rejected
// without disturbing anything.
func TestInvalidHandles(t *testing.T) {
	reg := testRegistry(t)

	h, err := reg.Register(1, hook.PhasePre, "mod", &fakeRef{"mod", "cb"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := reg.SetEnabled(hook.InvalidHandle, false); !errors.Is(err, hook.ErrInvalidHandle) {
		t.Errorf("sentinel handle: err = %v, want ErrInvalidHandle", err)
	}

	// Same slot index, wrong generation stamp.
	stale := h + (1 << 32)
	if err := reg.SetEnabled(stale, false); !errors.Is(err, hook.ErrInvalidHandle) {
		t.Errorf("stale handle: err = %v, want ErrInvalidHandle", err)
	}

	// Slot index beyond the registration arena.
	if err := reg.SetEnabled(hook.Handle(1000), false); !errors.Is(err, hook.ErrInvalidHandle) {
		t.Errorf("out-of-range handle: err = %v, want ErrInvalidHandle", err)
	}

	if enabled, err := reg.IsEnabled(h); err != nil || !enabled {
		t.Errorf("valid handle disturbed: (%v, %v)", enabled, err)
	}
}

// TestLookup verifies descriptor lookup by id.
func TestLookup(t *testing.T) {
	reg := testRegistry(t)

	d, ok := reg.Lookup(1)
	if !ok || d.Function().Name != "Open" {
		t.Errorf("Lookup(1) = (%v, %v)", d, ok)
	}
	if _, ok := reg.Lookup(42); ok {
		t.Error("unknown id should not resolve")
	}
}
