package debugger

import "testing"

func TestBreakpointToggle(t *testing.T) {
	b := newBreakpointSet()
	if b.Has(0x100) {
		t.Fatal("fresh set should have no breakpoints")
	}
	if !b.Toggle(0x100) {
		t.Fatal("first toggle should set the breakpoint")
	}
	if !b.Has(0x100) {
		t.Fatal("expected 0x100 to be set")
	}
	if b.Toggle(0x100) {
		t.Fatal("second toggle should clear the breakpoint")
	}
	if b.Has(0x100) {
		t.Fatal("expected 0x100 to be cleared")
	}
}

func TestBreakpointListReturnsAllSet(t *testing.T) {
	b := newBreakpointSet()
	b.Toggle(0x10)
	b.Toggle(0x20)
	b.Toggle(0x30)
	got := b.List()
	if len(got) != 3 {
		t.Fatalf("got %d addresses, want 3", len(got))
	}
}
