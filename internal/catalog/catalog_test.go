package catalog_test

import (
	"errors"
	"testing"

	"github.com/dshills/hookchain/internal/catalog"
	"github.com/dshills/hookchain/internal/value"
)

func intFunc(id catalog.FuncID, name string) *catalog.Function {
	return &catalog.Function{
		ID:     id,
		Name:   name,
		Args:   []value.Kind{value.KindInt, value.KindInt},
		Return: value.KindInt,
	}
}

// TestStaticLookup verifies name and id resolution.
func TestStaticLookup(t *testing.T) {
	cat, err := catalog.NewStatic([]*catalog.Function{
		intFunc(1, "Alpha"),
		intFunc(2, "Beta"),
	})
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}

	id, ok := cat.ResolveFunctionID("Beta")
	if !ok || id != 2 {
		t.Errorf("ResolveFunctionID(Beta) = (%d, %v), want (2, true)", id, ok)
	}

	if _, ok := cat.ResolveFunctionID("Gamma"); ok {
		t.Error("unknown name should not resolve")
	}

	f, ok := cat.Function(1)
	if !ok || f.Name != "Alpha" {
		t.Errorf("Function(1) = %+v, want Alpha", f)
	}

	if got := len(cat.Functions()); got != 2 {
		t.Errorf("Functions() len = %d, want 2", got)
	}
}

// TestStaticRejectsDuplicates verifies duplicate ids and names fail.
func TestStaticRejectsDuplicates(t *testing.T) {
	_, err := catalog.NewStatic([]*catalog.Function{
		intFunc(1, "Alpha"),
		intFunc(1, "Beta"),
	})
	if !errors.Is(err, catalog.ErrDuplicateFunction) {
		t.Errorf("duplicate id: err = %v, want ErrDuplicateFunction", err)
	}

	_, err = catalog.NewStatic([]*catalog.Function{
		intFunc(1, "Alpha"),
		intFunc(2, "Alpha"),
	})
	if !errors.Is(err, catalog.ErrDuplicateFunction) {
		t.Errorf("duplicate name: err = %v, want ErrDuplicateFunction", err)
	}
}

// TestStaticRejectsBadSignature verifies invalid kinds fail catalog build.
func TestStaticRejectsBadSignature(t *testing.T) {
	_, err := catalog.NewStatic([]*catalog.Function{{
		ID:     1,
		Name:   "Broken",
		Args:   []value.Kind{value.KindInvalid},
		Return: value.KindInt,
	}})
	if !errors.Is(err, catalog.ErrBadSignature) {
		t.Errorf("invalid arg kind: err = %v, want ErrBadSignature", err)
	}
}

// TestAvailability verifies the predicate defaults to available.
func TestAvailability(t *testing.T) {
	f := intFunc(1, "Alpha")
	if !f.IsAvailable() {
		t.Error("nil predicate should mean available")
	}

	f.Available = func() bool { return false }
	if f.IsAvailable() {
		t.Error("predicate result should be honored")
	}
}

// TestRefTableRoundTrip verifies index <-> reference translation.
func TestRefTableRoundTrip(t *testing.T) {
	type entity struct{ id int }
	a, b := &entity{1}, &entity{2}

	refs := catalog.NewRefTable()
	ia := refs.Add(a)
	ib := refs.Add(b)
	if ia == ib {
		t.Fatal("distinct refs must get distinct indices")
	}
	if again := refs.Add(a); again != ia {
		t.Errorf("re-adding a ref returned %d, want %d", again, ia)
	}

	got, err := refs.ResolveEntity(ia)
	if err != nil || got != value.Ref(a) {
		t.Errorf("ResolveEntity(%d) = (%v, %v), want a", ia, got, err)
	}
	if _, err := refs.ResolveClass(ib); err != nil {
		t.Errorf("ResolveClass shares the index space: %v", err)
	}

	idx, err := refs.IndexOf(b)
	if err != nil || idx != ib {
		t.Errorf("IndexOf(b) = (%d, %v), want %d", idx, err, ib)
	}
}

// TestRefTableUnknown verifies unknown indices and refs are rejected.
func TestRefTableUnknown(t *testing.T) {
	refs := catalog.NewRefTable()

	if _, err := refs.ResolveEntity(0); !errors.Is(err, catalog.ErrUnknownRef) {
		t.Errorf("index 0: err = %v, want ErrUnknownRef", err)
	}
	if _, err := refs.ResolveData(5); !errors.Is(err, catalog.ErrUnknownRef) {
		t.Errorf("index 5: err = %v, want ErrUnknownRef", err)
	}
	if _, err := refs.IndexOf(&struct{}{}); !errors.Is(err, catalog.ErrUnknownRef) {
		t.Errorf("IndexOf unknown: err = %v, want ErrUnknownRef", err)
	}
}
