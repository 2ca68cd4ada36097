package vm

import (
	"bufio"
	"io"
	"os"
)

// DefaultMemorySize (memory.go) and StackReserve bound the default VM
// configuration; callers needing a non-default arena size use NewVMWithSize.
const (
	StackReserve = 8 // bytes reserved below memSize so SP's initial value leaves one free word
)

// StepHook is called after every fetched instruction has executed (also
// when it trapped), so a syscall's effects, including its r0 result, are
// already applied. It is not called when the fetch itself faults. It is used by the optional
// execution tracer (internal/trace) and is nil by default, costing nothing
// when tracing is off.
type StepHook func(pc uint32, inst Instruction, cpu *CPU)

// VM is the complete BURST machine: memory, register file, flags, and the
// allocator the syscall layer drives. It is single-threaded and purely
// synchronous — no operation here may suspend.
type VM struct {
	CPU       *CPU
	Memory    *Memory
	Allocator *Allocator

	Halted bool
	Err    *TrapError

	ExitCode int32

	// OutputWriter receives bytes from SYS_WRITE/SYS_PRINT/SYS_PUTCHAR.
	// Defaults to os.Stdout; tests and the debugger substitute a buffer.
	OutputWriter io.Writer

	stdinReader *bufio.Reader

	// StepHook, if set, is invoked once per executed instruction.
	StepHook StepHook

	memSize uint32
}

// NewVM constructs a VM with the default 1 MiB arena.
func NewVM() *VM {
	return NewVMWithSize(DefaultMemorySize)
}

// NewVMWithSize constructs a VM with an arena of the given size. size must
// be large enough to hold the reserved region and at least one stack word;
// callers needing smaller arenas for targeted tests are responsible for
// choosing a sane size.
func NewVMWithSize(size uint32) *VM {
	vm := &VM{
		CPU:          NewCPU(),
		Memory:       NewMemory(size),
		OutputWriter: os.Stdout,
		stdinReader:  bufio.NewReader(os.Stdin),
		memSize:      size,
	}
	vm.Allocator = NewAllocator(ReservedSize, size-ReservedSize)
	vm.CPU.SP = size - StackReserve
	return vm
}

// Reset restores memory, registers, flags, and the allocator to their
// initial state; all of it is reset together, not piecemeal.
func (vm *VM) Reset() {
	vm.Memory.Reset()
	vm.CPU.Reset()
	vm.CPU.SP = vm.memSize - StackReserve
	vm.Allocator.Reset()
	vm.Halted = false
	vm.Err = nil
	vm.ExitCode = 0
}

// SetStdinReader lets a host (debugger, tests) supply SYS_GETCHAR input
// from something other than the process's real stdin.
func (vm *VM) SetStdinReader(r io.Reader) {
	if br, ok := r.(*bufio.Reader); ok {
		vm.stdinReader = br
	} else {
		vm.stdinReader = bufio.NewReader(r)
	}
}

// LoadProgram copies bytes into memory starting at address and sets pc to
// address. No header, no relocation table — bytes is exactly an
// assembler's output.
func (vm *VM) LoadProgram(bytes []byte, address uint32) error {
	if err := vm.Memory.LoadBytes(address, bytes); err != nil {
		return err
	}
	vm.CPU.PC = address
	return nil
}

// fault halts the VM and records the error kind surfaced to the caller of
// Step/Run. Halted is terminal for fatal errors: once set, nothing but
// Reset clears it.
func (vm *VM) fault(err *TrapError) error {
	vm.Halted = true
	vm.Err = err
	return err
}
