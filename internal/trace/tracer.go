// Package trace provides an opt-in execution tracer hooked at the
// executor's step boundary: a small ring of entries plus a line-oriented
// writer, gated by config so it costs nothing when off.
package trace

import (
	"fmt"
	"io"

	"github.com/burst-vm/burst/internal/disasm"
	"github.com/burst-vm/burst/internal/vm"
)

// Entry is one traced step.
type Entry struct {
	Sequence uint64
	PC       uint32
	Text     string
	Flags    uint8
}

// Tracer records executed instructions and, optionally, mirrors each entry
// to a writer as it happens. It keeps the last MaxEntries in memory for
// later inspection (e.g. a future `info trace` command).
type Tracer struct {
	Enabled    bool
	Writer     io.Writer
	MaxEntries int

	entries  []Entry
	sequence uint64
}

// NewTracer returns a disabled tracer; callers set Enabled and call Attach
// once configuration says tracing is wanted (Attach alone does not enable
// it).
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{Writer: w, MaxEntries: 100000}
}

// Attach installs this tracer as the VM's StepHook. Passing a nil Tracer
// clears the hook.
func Attach(v *vm.VM, t *Tracer) {
	if t == nil {
		v.StepHook = nil
		return
	}
	v.StepHook = t.onStep
}

func (t *Tracer) onStep(pc uint32, inst vm.Instruction, cpu *vm.CPU) {
	if !t.Enabled {
		return
	}
	t.sequence++
	entry := Entry{
		Sequence: t.sequence,
		PC:       pc,
		Text:     disasm.Instruction(pc, inst.Word),
		Flags:    cpu.Flags,
	}
	if len(t.entries) >= t.MaxEntries {
		t.entries = t.entries[1:]
	}
	t.entries = append(t.entries, entry)

	if t.Writer != nil {
		fmt.Fprintf(t.Writer, "%6d 0x%08X: %-28s flags=%04b\n", entry.Sequence, entry.PC, entry.Text, entry.Flags)
	}
}

// Entries returns a copy of the recorded trace.
func (t *Tracer) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Reset clears recorded entries and the sequence counter.
func (t *Tracer) Reset() {
	t.entries = t.entries[:0]
	t.sequence = 0
}
