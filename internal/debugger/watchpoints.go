package debugger

// WatchpointSet maps a watched address to the last word value observed at
// it: between steps, every watchpoint is re-read and compared against its
// stored value.
type WatchpointSet struct {
	last map[uint32]uint32
}

func newWatchpointSet() *WatchpointSet {
	return &WatchpointSet{last: make(map[uint32]uint32)}
}

// Toggle adds addr (capturing baseline as the watchpoint's initial value)
// if absent, removes it if present. Returns true if it is now set.
func (w *WatchpointSet) Toggle(addr, baseline uint32) bool {
	if _, ok := w.last[addr]; ok {
		delete(w.last, addr)
		return false
	}
	w.last[addr] = baseline
	return true
}

// Has reports whether addr has a watchpoint.
func (w *WatchpointSet) Has(addr uint32) bool {
	_, ok := w.last[addr]
	return ok
}

// Check compares current against addr's stored baseline; if it differs,
// the baseline is updated to current and (old, true) is returned.
// Otherwise, or when addr is not watched, it returns (0, false).
func (w *WatchpointSet) Check(addr, current uint32) (old uint32, changed bool) {
	prev, ok := w.last[addr]
	if !ok || prev == current {
		return 0, false
	}
	w.last[addr] = current
	return prev, true
}

// Addrs returns all watched addresses, unordered.
func (w *WatchpointSet) Addrs() []uint32 {
	out := make([]uint32, 0, len(w.last))
	for a := range w.last {
		out = append(out, a)
	}
	return out
}

// LastValue returns the stored baseline for addr.
func (w *WatchpointSet) LastValue(addr uint32) (uint32, bool) {
	v, ok := w.last[addr]
	return v, ok
}
