package hook

// Handle is the numeric identity a registration call hands back to the
// registrant. The external contract is a plain integer; internally it packs
// a registry slot index with a generation stamp so stale or fabricated
// handles are rejected instead of trusted.
type Handle int64

// InvalidHandle is the reserved sentinel returned on every registration
// failure path.
const InvalidHandle Handle = 0

// Valid reports whether h is structurally a handle. The registry still
// verifies the generation on every use.
func (h Handle) Valid() bool {
	return h != InvalidHandle && h.index() >= 0
}

// packHandle builds a handle from a slot index and generation stamp.
func packHandle(gen uint32, index int) Handle {
	return Handle(uint64(gen)<<32 | uint64(uint32(index+1)))
}

// index returns the registry slot index, or -1 for the invalid handle.
func (h Handle) index() int {
	low := uint32(uint64(h))
	if low == 0 {
		return -1
	}
	return int(low) - 1
}

// generation returns the generation stamp.
func (h Handle) generation() uint32 {
	return uint32(uint64(h) >> 32)
}
