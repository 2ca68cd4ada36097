package debugger

import "testing"

func TestWatchpointToggle(t *testing.T) {
	w := newWatchpointSet()
	if w.Has(0x200) {
		t.Fatal("fresh set should have no watchpoints")
	}
	if !w.Toggle(0x200, 5) {
		t.Fatal("first toggle should set the watchpoint")
	}
	if v, ok := w.LastValue(0x200); !ok || v != 5 {
		t.Fatalf("baseline = %d, %v, want 5, true", v, ok)
	}
	if w.Toggle(0x200, 0) {
		t.Fatal("second toggle should clear the watchpoint")
	}
	if w.Has(0x200) {
		t.Fatal("expected 0x200 to be cleared")
	}
}

func TestWatchpointCheckReportsChangeOnce(t *testing.T) {
	w := newWatchpointSet()
	w.Toggle(0x200, 5)

	if _, changed := w.Check(0x200, 5); changed {
		t.Fatal("unchanged value should not report a change")
	}
	old, changed := w.Check(0x200, 9)
	if !changed || old != 5 {
		t.Fatalf("Check = %d, %v, want 5, true", old, changed)
	}
	if _, changed := w.Check(0x200, 9); changed {
		t.Fatal("repeated read of the same new value should not report a change again")
	}
}

func TestWatchpointCheckUnknownAddressNeverChanges(t *testing.T) {
	w := newWatchpointSet()
	if _, changed := w.Check(0xDEAD, 1); changed {
		t.Fatal("an unwatched address must never report a change")
	}
}
