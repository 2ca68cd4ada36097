package debugger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/burst-vm/burst/internal/vm"
)

func loadWords(t *testing.T, m *vm.VM, words []uint32) {
	t.Helper()
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		buf[i*4] = byte(w)
		buf[i*4+1] = byte(w >> 8)
		buf[i*4+2] = byte(w >> 16)
		buf[i*4+3] = byte(w >> 24)
	}
	if err := m.LoadProgram(buf, 0); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
}

func TestDebuggerStepDisassemblesThenExecutes(t *testing.T) {
	m := vm.NewVMWithSize(4096)
	loadWords(t, m, []uint32{
		vm.EncodeImm16(vm.OpMOVI, 0, 5),
		uint32(vm.OpHALT) << 24,
	})
	d := NewDebugger(m, 10)
	out, err := d.Execute("step")
	if err != nil {
		t.Fatalf("Execute(step): %v", err)
	}
	if !strings.Contains(out, "MOVI r0, #5") {
		t.Errorf("output = %q, want disassembly of the stepped instruction", out)
	}
	if m.CPU.R[0] != 5 {
		t.Errorf("r0 = %d, want 5", m.CPU.R[0])
	}
}

func TestDebuggerEmptyLineRepeatsLastCommand(t *testing.T) {
	m := vm.NewVMWithSize(4096)
	loadWords(t, m, []uint32{
		vm.EncodeImm16(vm.OpMOVI, 0, 1),
		vm.EncodeImm16(vm.OpMOVI, 0, 2),
		uint32(vm.OpHALT) << 24,
	})
	d := NewDebugger(m, 10)
	if _, err := d.Execute("step"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Execute(""); err != nil {
		t.Fatal(err)
	}
	if m.CPU.R[0] != 2 {
		t.Errorf("r0 = %d, want 2 after repeating step", m.CPU.R[0])
	}
}

func TestDebuggerBreakpointStopsRun(t *testing.T) {
	m := vm.NewVMWithSize(4096)
	loadWords(t, m, []uint32{
		vm.EncodeImm16(vm.OpMOVI, 0, 1), // 0x00
		vm.EncodeImm16(vm.OpMOVI, 0, 2), // 0x04
		uint32(vm.OpHALT) << 24,         // 0x08
	})
	d := NewDebugger(m, 10)
	if _, err := d.Execute("break 0x04"); err != nil {
		t.Fatal(err)
	}
	out, err := d.Execute("run")
	if err != nil {
		t.Fatalf("Execute(run): %v", err)
	}
	if !strings.Contains(out, "breakpoint hit at 0x00000004") {
		t.Errorf("output = %q", out)
	}
	if m.CPU.R[0] != 1 {
		t.Errorf("r0 = %d, want 1 (second MOVI not yet executed)", m.CPU.R[0])
	}

	out, err = d.Execute("continue")
	if err != nil {
		t.Fatalf("Execute(continue): %v", err)
	}
	if !strings.Contains(out, "halted") {
		t.Errorf("continue output = %q, want halted", out)
	}
	if m.CPU.R[0] != 2 {
		t.Errorf("r0 = %d, want 2 after continuing past the breakpoint", m.CPU.R[0])
	}
}

func TestDebuggerWatchpointStopsRun(t *testing.T) {
	m := vm.NewVMWithSize(4096)
	loadWords(t, m, []uint32{
		vm.EncodeImm16(vm.OpMOVI, 1, 0x800), // r1 = address
		vm.EncodeImm16(vm.OpMOVI, 0, 0x99),  // r0 = value
		vm.EncodeMem(vm.OpSTORE, 0, 1, 0),   // [r1] = r0
		uint32(vm.OpHALT) << 24,
	})
	d := NewDebugger(m, 10)
	if _, err := d.Execute("watch 0x800"); err != nil {
		t.Fatal(err)
	}
	out, err := d.Execute("run")
	if err != nil {
		t.Fatalf("Execute(run): %v", err)
	}
	if !strings.Contains(out, "watchpoint hit at 0x00000800: 0 -> 153") {
		t.Errorf("output = %q", out)
	}
}

func TestDebuggerPrintGrowsValueHistory(t *testing.T) {
	m := vm.NewVMWithSize(4096)
	d := NewDebugger(m, 10)
	out, err := d.Execute("print 1 + 2")
	if err != nil {
		t.Fatalf("Execute(print): %v", err)
	}
	if !strings.Contains(out, "$1 = 3") {
		t.Errorf("output = %q, want $1 = 3 (...)", out)
	}
}

func TestDebuggerSetRegisterAndPC(t *testing.T) {
	m := vm.NewVMWithSize(4096)
	d := NewDebugger(m, 10)
	if _, err := d.Execute("set r2 0x10"); err != nil {
		t.Fatal(err)
	}
	if m.CPU.R[2] != 0x10 {
		t.Errorf("r2 = %#x, want 0x10", m.CPU.R[2])
	}
	if _, err := d.Execute("set pc 0x40"); err != nil {
		t.Fatal(err)
	}
	if m.CPU.PC != 0x40 {
		t.Errorf("pc = %#x, want 0x40", m.CPU.PC)
	}
}

func TestDebuggerResetClearsBreakpointsAndHaltedState(t *testing.T) {
	m := vm.NewVMWithSize(4096)
	loadWords(t, m, []uint32{uint32(vm.OpHALT) << 24})
	d := NewDebugger(m, 10)
	d.Execute("break 0x00")
	d.Execute("run")      // stops at the breakpoint on pc 0x00
	d.Execute("continue") // steps past it and executes HALT
	if !m.Halted {
		t.Fatal("expected the VM to have halted")
	}
	if _, err := d.Execute("reset"); err != nil {
		t.Fatal(err)
	}
	if m.Halted {
		t.Error("expected reset to clear Halted")
	}
	if len(d.Breakpoints.List()) != 0 {
		t.Error("expected reset to clear breakpoints")
	}
}

func TestDebuggerQuitReturnsErrQuit(t *testing.T) {
	d := NewDebugger(vm.NewVMWithSize(4096), 10)
	if _, err := d.Execute("quit"); err != ErrQuit {
		t.Errorf("Execute(quit) err = %v, want ErrQuit", err)
	}
}

func TestDebuggerAssembleWritesBinAndLoadsSymbols(t *testing.T) {
	dir := t.TempDir()
	src := "start:\n  MOVI r0, #9\n  HALT\n"
	srcPath := filepath.Join(dir, "prog.asm")
	if err := os.WriteFile(srcPath, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	m := vm.NewVMWithSize(4096)
	d := NewDebugger(m, 10)
	out, err := d.Execute("assemble " + srcPath + " -l")
	if err != nil {
		t.Fatalf("Execute(assemble): %v", err)
	}
	if !strings.Contains(out, "assembled") || !strings.Contains(out, "loaded") {
		t.Errorf("output = %q", out)
	}
	if _, ok := d.Symbols["start"]; !ok {
		t.Error("expected the \"start\" label in the loaded symbol table")
	}
	binPath := filepath.Join(dir, "prog.bin")
	if _, err := os.Stat(binPath); err != nil {
		t.Errorf("expected %s to exist: %v", binPath, err)
	}
}
