// Package arena provides per-invocation scratch storage for string values
// rewritten while a hook chain runs. Buffers allocated here stay valid for
// the lifetime of the invocation and are released in one sweep when the
// invocation completes, so a handler can overwrite a string argument any
// number of times without use-after-free or leaks.
package arena

// Slot identifies one scratch buffer. The zero Slot is invalid.
type Slot int

// InvalidSlot is the reserved sentinel for "no buffer".
const InvalidSlot Slot = 0

// Arena owns a set of copied string buffers. It is strictly stack-local to
// one invocation and must not be shared across goroutines.
type Arena struct {
	bufs   [][]byte
	free   []int
	live   int
	allocs int
}

// New creates an empty arena.
func New() *Arena {
	return &Arena{}
}

// Alloc copies s into a fresh buffer and returns its slot. The caller's
// string is never retained.
func (a *Arena) Alloc(s string) Slot {
	buf := make([]byte, len(s))
	copy(buf, s)

	a.allocs++
	a.live++

	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.bufs[idx] = buf
		return Slot(idx + 1)
	}

	a.bufs = append(a.bufs, buf)
	return Slot(len(a.bufs))
}

// String returns the text stored in slot. ok is false for an invalid or
// freed slot.
func (a *Arena) String(slot Slot) (s string, ok bool) {
	idx := int(slot) - 1
	if idx < 0 || idx >= len(a.bufs) || a.bufs[idx] == nil {
		return "", false
	}
	return string(a.bufs[idx]), true
}

// Free releases a single slot before the arena itself is released. It
// reports whether the slot was live.
func (a *Arena) Free(slot Slot) bool {
	idx := int(slot) - 1
	if idx < 0 || idx >= len(a.bufs) || a.bufs[idx] == nil {
		return false
	}
	a.bufs[idx] = nil
	a.free = append(a.free, idx)
	a.live--
	return true
}

// Release drops every buffer. Outstanding slots become invalid.
func (a *Arena) Release() {
	a.bufs = nil
	a.free = nil
	a.live = 0
}

// Live returns the number of currently held buffers.
func (a *Arena) Live() int {
	return a.live
}

// Allocs returns the total number of allocations made, freed or not.
// Tests use this to prove overwrite paths do not leak.
func (a *Arena) Allocs() int {
	return a.allocs
}
