package vm

import "testing"

func TestAllocFirstFit(t *testing.T) {
	a := NewAllocator(0x1000, 0x1000)

	p1 := a.Alloc(16)
	if p1 != 0x1000 {
		t.Fatalf("p1 = 0x%X, want 0x1000", p1)
	}
	p2 := a.Alloc(32)
	if p2 != 0x1010 {
		t.Fatalf("p2 = 0x%X, want 0x1010", p2)
	}
}

func TestAllocRoundsUpToAlignment(t *testing.T) {
	a := NewAllocator(0, 256)
	p := a.Alloc(3)
	if p != 0 {
		t.Fatalf("p = 0x%X, want 0", p)
	}
	size, ok := a.Size(p)
	if !ok || size != allocAlign {
		t.Errorf("size = %d, want %d", size, allocAlign)
	}
}

func TestAllocFailsWhenExhausted(t *testing.T) {
	a := NewAllocator(0, 16)
	if got := a.Alloc(16); got != 0 {
		t.Fatalf("first alloc = 0x%X, want 0", got)
	}
	if got := a.Alloc(8); got != 0 {
		t.Errorf("second alloc should fail, got 0x%X", got)
	}
}

func TestFreeCoalescesWithNeighbors(t *testing.T) {
	a := NewAllocator(0, 256)
	p1 := a.Alloc(32)
	p2 := a.Alloc(32)
	p3 := a.Alloc(32)

	a.Free(p1)
	a.Free(p3)
	a.Free(p2)

	blocks := a.FreeBlocks()
	if len(blocks) != 1 {
		t.Fatalf("expected one fully coalesced free block, got %d: %+v", len(blocks), blocks)
	}
	if blocks[0].start != 0 || blocks[0].size != 256 {
		t.Errorf("got %+v, want {start:0 size:256}", blocks[0])
	}
}

func TestFreeUnknownAddressReportsFalse(t *testing.T) {
	a := NewAllocator(0, 256)
	if a.Free(0x40) {
		t.Error("Free of a non-live address should return false")
	}
}

func TestReallocShrinkInPlace(t *testing.T) {
	a := NewAllocator(0, 256)
	p := a.Alloc(64)
	got := a.Realloc(p, 16)
	if got != p {
		t.Fatalf("shrink should keep the same address, got 0x%X", got)
	}
	if size, _ := a.Size(p); size != 16 {
		t.Errorf("size = %d, want 16", size)
	}
	if a.FreeBytes() != 256-16 {
		t.Errorf("free bytes = %d, want %d", a.FreeBytes(), 256-16)
	}
}

func TestReallocGrowsByAbsorbingFollowingFreeBlock(t *testing.T) {
	a := NewAllocator(0, 256)
	p := a.Alloc(16)
	got := a.Realloc(p, 64)
	if got != p {
		t.Fatalf("grow-in-place should keep the same address, got 0x%X", got)
	}
	size, _ := a.Size(p)
	if size != 64 {
		t.Errorf("size = %d, want 64", size)
	}
}

func TestReallocRelocatesWhenNoRoomToGrow(t *testing.T) {
	a := NewAllocator(0, 128)
	p1 := a.Alloc(16)
	p2 := a.Alloc(16) // immediately follows p1, leaving no room to grow p1 in place
	_ = p2

	got := a.Realloc(p1, 48)
	if got == p1 {
		t.Fatalf("expected relocation, got same address 0x%X", got)
	}
	if got == 0 {
		t.Fatal("realloc should have found room by relocating")
	}
	if _, ok := a.Size(p1); ok {
		t.Error("old address should no longer be live after relocation")
	}
}

func TestArenaPartitionInvariant(t *testing.T) {
	a := NewAllocator(0x1000, 4096)
	a.Alloc(100)
	a.Alloc(200)
	p := a.Alloc(50)
	a.Free(p)
	a.Alloc(10)

	if a.FreeBytes()+a.AllocatedBytes() != 4096 {
		t.Errorf("free(%d) + allocated(%d) != arena size(%d)", a.FreeBytes(), a.AllocatedBytes(), 4096)
	}
}
