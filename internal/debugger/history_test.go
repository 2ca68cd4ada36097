package debugger

import "testing"

func TestCommandHistoryIgnoresEmptyAndConsecutiveRepeats(t *testing.T) {
	h := NewCommandHistory(10)
	h.Add("")
	h.Add("step")
	h.Add("step")
	h.Add("continue")
	got := h.All()
	if len(got) != 2 || got[0] != "step" || got[1] != "continue" {
		t.Fatalf("history = %v, want [step continue]", got)
	}
}

func TestCommandHistoryCapsAtMaxSize(t *testing.T) {
	h := NewCommandHistory(2)
	h.Add("a")
	h.Add("b")
	h.Add("c")
	got := h.All()
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("history = %v, want [b c]", got)
	}
}

func TestCommandHistoryDefaultsWhenMaxSizeNonPositive(t *testing.T) {
	h := NewCommandHistory(0)
	if h.maxSize != 1000 {
		t.Errorf("maxSize = %d, want 1000", h.maxSize)
	}
}
