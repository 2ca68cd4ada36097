package vm

import "sort"

// allocAlign is the allocator's alignment granularity; every live
// allocation's size is rounded up to a multiple of this.
const allocAlign = 8

// freeBlock is one entry of the allocator's free list.
type freeBlock struct {
	start uint32
	size  uint32
}

// Allocator is a first-fit free-list allocator over a fixed arena. It never
// hands out addresses below base (the reserved program-load region) and
// never above base+arenaSize.
//
// The free list is kept sorted by start address with no two entries
// adjacent, so coalescing on free is just "merge with left/right neighbor
// if touching" rather than a full list scan.
type Allocator struct {
	base      uint32
	arenaSize uint32

	free  []freeBlock      // sorted by start, never adjacent
	spans map[uint32]uint32 // live allocation start -> size
}

// NewAllocator creates an allocator over [base, base+arenaSize).
func NewAllocator(base, arenaSize uint32) *Allocator {
	a := &Allocator{
		base:      base,
		arenaSize: arenaSize,
		spans:     make(map[uint32]uint32),
	}
	a.free = []freeBlock{{start: base, size: arenaSize}}
	return a
}

// Reset restores the allocator to its initial single-free-block state.
func (a *Allocator) Reset() {
	a.free = []freeBlock{{start: a.base, size: a.arenaSize}}
	a.spans = make(map[uint32]uint32)
}

func roundUp(size, align uint32) uint32 {
	if size == 0 {
		return align
	}
	rem := size % align
	if rem == 0 {
		return size
	}
	return size + (align - rem)
}

// Alloc finds the first free block large enough for size (rounded up to
// allocAlign) and carves it off the front of that block. Returns 0 on
// failure, mirroring the guest-visible SYS_ALLOC convention (the VM's
// allocator has base ReservedSize, so a real allocation there is never at
// address 0; an allocator built with base 0 can return 0 for a success).
func (a *Allocator) Alloc(size uint32) uint32 {
	need := roundUp(size, allocAlign)
	if need > a.arenaSize {
		return 0
	}

	for i := range a.free {
		blk := &a.free[i]
		if blk.size < need {
			continue
		}

		start := blk.start
		a.spans[start] = need

		if blk.size == need {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			blk.start += need
			blk.size -= need
		}
		return start
	}
	return 0
}

// Free returns addr's allocation to the free list, merging with an
// adjacent predecessor and/or successor. Reports false if addr is not a
// live allocation (the guest sees this as E_INVALID; it is never fatal).
func (a *Allocator) Free(addr uint32) bool {
	size, ok := a.spans[addr]
	if !ok {
		return false
	}
	delete(a.spans, addr)
	a.insertFree(addr, size)
	return true
}

func (a *Allocator) insertFree(start, size uint32) {
	// Find insertion point keeping a.free sorted by start.
	idx := sort.Search(len(a.free), func(i int) bool { return a.free[i].start >= start })

	merged := freeBlock{start: start, size: size}

	// Merge with successor if contiguous.
	if idx < len(a.free) && a.free[idx].start == merged.start+merged.size {
		merged.size += a.free[idx].size
		a.free = append(a.free[:idx], a.free[idx+1:]...)
	}

	// Merge with predecessor if contiguous.
	if idx > 0 {
		prev := &a.free[idx-1]
		if prev.start+prev.size == merged.start {
			prev.size += merged.size
			return
		}
	}

	a.free = append(a.free, freeBlock{})
	copy(a.free[idx+1:], a.free[idx:])
	a.free[idx] = merged
}

// Realloc changes addr's size. Shrinking happens in place, returning the
// excess to the free list. Growing first tries to absorb an immediately
// following free block; failing that it allocates a fresh block and frees
// the old one, leaving byte copying to the caller (the core's realloc
// syscall does not copy bytes automatically — see spec Open Questions).
// Returns 0 on failure, leaving addr's old allocation untouched.
func (a *Allocator) Realloc(addr, newSize uint32) uint32 {
	oldSize, ok := a.spans[addr]
	if !ok {
		return 0
	}
	need := roundUp(newSize, allocAlign)

	if need <= oldSize {
		if need < oldSize {
			a.spans[addr] = need
			a.insertFree(addr+need, oldSize-need)
		}
		return addr
	}

	// Try to absorb a contiguous following free block.
	grow := need - oldSize
	for i := range a.free {
		blk := a.free[i]
		if blk.start == addr+oldSize && blk.size >= grow {
			a.spans[addr] = need
			if blk.size == grow {
				a.free = append(a.free[:i], a.free[i+1:]...)
			} else {
				a.free[i].start += grow
				a.free[i].size -= grow
			}
			return addr
		}
	}

	// Relocate.
	newAddr := a.Alloc(need)
	if newAddr == 0 {
		return 0
	}
	a.Free(addr)
	return newAddr
}

// Size returns the size of a live allocation, or (0, false) if addr is not
// a live allocation start.
func (a *Allocator) Size(addr uint32) (uint32, bool) {
	size, ok := a.spans[addr]
	return size, ok
}

// FreeBytes returns the sum of all free block sizes, used by tests
// checking the arena partition invariant.
func (a *Allocator) FreeBytes() uint32 {
	var total uint32
	for _, b := range a.free {
		total += b.size
	}
	return total
}

// AllocatedBytes returns the sum of all live allocation sizes.
func (a *Allocator) AllocatedBytes() uint32 {
	var total uint32
	for _, size := range a.spans {
		total += size
	}
	return total
}

// FreeBlocks returns a copy of the free list, sorted by start address.
func (a *Allocator) FreeBlocks() []freeBlock {
	out := make([]freeBlock, len(a.free))
	copy(out, a.free)
	return out
}
