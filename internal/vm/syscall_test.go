package vm

import (
	"bytes"
	"testing"
)

func newSyscallVM() *VM {
	m := NewVMWithSize(8192)
	var buf bytes.Buffer
	m.OutputWriter = &buf
	return m
}

func TestSysAlloc(t *testing.T) {
	m := newSyscallVM()
	m.CPU.R[0] = SysAlloc
	m.CPU.R[1] = 64
	if err := m.dispatchSyscall(); err != nil {
		t.Fatalf("dispatchSyscall: %v", err)
	}
	if m.CPU.R[0] == 0 {
		t.Error("expected a non-zero address")
	}
}

func TestSysFreeUnknownAddressReportsInvalid(t *testing.T) {
	m := newSyscallVM()
	m.CPU.R[0] = SysFree
	m.CPU.R[1] = 0x99999
	if err := m.dispatchSyscall(); err != nil {
		t.Fatalf("dispatchSyscall: %v", err)
	}
	if m.CPU.R[0] != E_INVALID {
		t.Errorf("r0 = %d, want E_INVALID", m.CPU.R[0])
	}
}

func TestSysWriteBadFd(t *testing.T) {
	m := newSyscallVM()
	m.CPU.R[0] = SysWrite
	m.CPU.R[1] = 5 // not stdout/stderr
	m.CPU.R[2] = 0
	m.CPU.R[3] = 0
	if err := m.dispatchSyscall(); err != nil {
		t.Fatalf("dispatchSyscall: %v", err)
	}
	if m.CPU.R[0] != E_BADFD {
		t.Errorf("r0 = %d, want E_BADFD", m.CPU.R[0])
	}
}

func TestSysWriteToOutput(t *testing.T) {
	m := newSyscallVM()
	m.Memory.LoadBytes(0x1000, []byte("hi"))
	m.CPU.R[0] = SysWrite
	m.CPU.R[1] = 1
	m.CPU.R[2] = 0x1000
	m.CPU.R[3] = 2
	if err := m.dispatchSyscall(); err != nil {
		t.Fatalf("dispatchSyscall: %v", err)
	}
	if m.CPU.R[0] != 2 {
		t.Errorf("r0 = %d, want 2 bytes written", m.CPU.R[0])
	}
	buf := m.OutputWriter.(*bytes.Buffer)
	if buf.String() != "hi" {
		t.Errorf("output = %q, want %q", buf.String(), "hi")
	}
}

func TestSysExitSetsHaltedAndExitCode(t *testing.T) {
	m := newSyscallVM()
	m.CPU.R[0] = SysExit
	m.CPU.R[1] = 7
	if err := m.dispatchSyscall(); err != nil {
		t.Fatalf("dispatchSyscall: %v", err)
	}
	if !m.Halted {
		t.Error("expected Halted after SYS_EXIT")
	}
	if m.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", m.ExitCode)
	}
}

func TestUnknownSyscallReturnsNosysWithoutHalting(t *testing.T) {
	m := newSyscallVM()
	m.CPU.R[0] = 999
	if err := m.dispatchSyscall(); err != nil {
		t.Fatalf("dispatchSyscall: %v", err)
	}
	if m.CPU.R[0] != E_NOSYS {
		t.Errorf("r0 = %d, want E_NOSYS", m.CPU.R[0])
	}
	if m.Halted {
		t.Error("unknown syscall must not halt the VM")
	}
}
