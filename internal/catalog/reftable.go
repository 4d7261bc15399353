package catalog

import (
	"fmt"
	"sync"

	"github.com/dshills/hookchain/internal/value"
)

// RefTable is an in-memory Resolver. The host registers its live native
// objects and the table hands out 1-based indices; index 0 is reserved as
// the invalid sentinel. References must be comparable (pointers are).
//
// Class, entity and attached-data references share one index space, the
// way the original host indexed all three through the same entity table.
type RefTable struct {
	mu    sync.RWMutex
	refs  []value.Ref
	index map[value.Ref]int64
}

// NewRefTable creates an empty table.
func NewRefTable() *RefTable {
	return &RefTable{index: make(map[value.Ref]int64)}
}

// Add registers a reference and returns its index. Registering the same
// reference twice returns the existing index.
func (t *RefTable) Add(ref value.Ref) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if idx, ok := t.index[ref]; ok {
		return idx
	}

	t.refs = append(t.refs, ref)
	idx := int64(len(t.refs))
	t.index[ref] = idx
	return idx
}

// ResolveClass implements Resolver.
func (t *RefTable) ResolveClass(index int64) (value.Ref, error) {
	return t.resolve(index)
}

// ResolveEntity implements Resolver.
func (t *RefTable) ResolveEntity(index int64) (value.Ref, error) {
	return t.resolve(index)
}

// ResolveData implements Resolver.
func (t *RefTable) ResolveData(index int64) (value.Ref, error) {
	return t.resolve(index)
}

// IndexOf implements Resolver.
func (t *RefTable) IndexOf(ref value.Ref) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	idx, ok := t.index[ref]
	if !ok {
		return 0, fmt.Errorf("unregistered reference: %w", ErrUnknownRef)
	}
	return idx, nil
}

func (t *RefTable) resolve(index int64) (value.Ref, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index < 1 || index > int64(len(t.refs)) {
		return nil, fmt.Errorf("index %d: %w", index, ErrUnknownRef)
	}
	return t.refs[index-1], nil
}
