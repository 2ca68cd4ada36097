package vm

// Syscall numbers.
const (
	SysAlloc   = 1
	SysFree    = 2
	SysRealloc = 3

	SysWrite = 11

	SysExit = 20

	SysPrint   = 30
	SysPutchar = 32
	SysGetchar = 33
)

// Error-code registry.
const (
	E_OK       = 0
	E_NOMEM    = 1
	E_BADFD    = 2
	E_NOTFOUND = 3
	E_PERM     = 4
	E_IO       = 5
	E_NOSYS    = 6
	E_INVALID  = 7
)

// dispatchSyscall reads the syscall number from r0 and performs its
// effect. Unimplemented numbers store E_NOSYS in r0 and do NOT halt —
// guest-visible failures go through r0; only memory-bounds faults that
// indicate a broken program (not just a bad syscall argument) reach
// fault() and halt the VM.
func (vm *VM) dispatchSyscall() error {
	switch vm.CPU.R[0] {
	case SysAlloc:
		return vm.sysAlloc()
	case SysFree:
		return vm.sysFree()
	case SysRealloc:
		return vm.sysRealloc()
	case SysWrite:
		return vm.sysWrite()
	case SysExit:
		return vm.sysExit()
	case SysPrint:
		return vm.sysPrint()
	case SysPutchar:
		return vm.sysPutchar()
	case SysGetchar:
		return vm.sysGetchar()
	default:
		vm.CPU.R[0] = E_NOSYS
		return nil
	}
}

func (vm *VM) sysAlloc() error {
	size := vm.CPU.R[1]
	addr := vm.Allocator.Alloc(size)
	vm.CPU.R[0] = addr
	return nil
}

func (vm *VM) sysFree() error {
	addr := vm.CPU.R[1]
	if vm.Allocator.Free(addr) {
		vm.CPU.R[0] = E_OK
	} else {
		vm.CPU.R[0] = E_INVALID
	}
	return nil
}

func (vm *VM) sysRealloc() error {
	addr := vm.CPU.R[1]
	newSize := vm.CPU.R[2]
	newAddr := vm.Allocator.Realloc(addr, newSize)
	vm.CPU.R[0] = newAddr
	return nil
}

func (vm *VM) sysWrite() error {
	fd := vm.CPU.R[1]
	bufAddr := vm.CPU.R[2]
	length := vm.CPU.R[3]

	if fd != 1 && fd != 2 {
		vm.CPU.R[0] = E_BADFD
		return nil
	}

	data, err := vm.Memory.GetBytes(bufAddr, length)
	if err != nil {
		return vm.fault(err.(*TrapError))
	}

	n, werr := vm.OutputWriter.Write(data)
	if werr != nil {
		vm.CPU.R[0] = E_IO
		return nil
	}
	vm.CPU.R[0] = uint32(n)
	return nil
}

func (vm *VM) sysExit() error {
	vm.ExitCode = int32(vm.CPU.R[1])
	vm.Halted = true
	vm.CPU.R[0] = uint32(vm.ExitCode)
	return nil
}

func (vm *VM) sysPrint() error {
	bufAddr := vm.CPU.R[1]
	length := vm.CPU.R[2]

	data, err := vm.Memory.GetBytes(bufAddr, length)
	if err != nil {
		return vm.fault(err.(*TrapError))
	}
	if _, werr := vm.OutputWriter.Write(data); werr != nil {
		vm.CPU.R[0] = E_IO
		return nil
	}
	vm.CPU.R[0] = length
	return nil
}

func (vm *VM) sysPutchar() error {
	ch := byte(vm.CPU.R[1])
	if _, err := vm.OutputWriter.Write([]byte{ch}); err != nil {
		vm.CPU.R[0] = E_IO
		return nil
	}
	vm.CPU.R[0] = 1
	return nil
}

func (vm *VM) sysGetchar() error {
	b, err := vm.stdinReader.ReadByte()
	if err != nil {
		vm.CPU.R[0] = 0xFFFFFFFF // -1: end of input
		return nil
	}
	vm.CPU.R[0] = uint32(b)
	return nil
}
