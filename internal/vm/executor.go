package vm

import "fmt"

// Step decodes and executes exactly one instruction. If the VM is already
// Halted, Step is a no-op (Halted is terminal). A fatal
// error halts the VM and is returned; the caller (debugger, Run) should
// stop looping on any non-nil error.
func (vm *VM) Step() error {
	if vm.Halted {
		return nil
	}

	word, err := vm.Memory.ReadWord(vm.CPU.PC)
	if err != nil {
		return vm.fault(err.(*TrapError))
	}
	inst := Decode(word)
	pc := vm.CPU.PC
	vm.CPU.PC += 4

	execErr := vm.execute(inst)

	if vm.StepHook != nil {
		vm.StepHook(pc, inst, vm.CPU)
	}

	return execErr
}

// Run executes instructions until the VM halts or a fatal error occurs.
// It is the bare executor loop; the debugger controller layers breakpoint
// and watchpoint checks on top of this (that is deliberately kept
// that concern out of the executor).
func (vm *VM) Run() error {
	for !vm.Halted {
		if err := vm.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) execute(inst Instruction) error {
	switch inst.Opcode {
	case OpMOVI:
		vm.CPU.R[inst.RD] = uint32(inst.Imm16)
		return nil
	case OpMOV:
		vm.CPU.R[inst.RD] = vm.CPU.R[inst.RS1]
		return nil

	case OpLOAD:
		return vm.execLoad(inst, 4)
	case OpLOADB:
		return vm.execLoad(inst, 1)
	case OpSTORE:
		return vm.execStore(inst, 4)
	case OpSTOREB:
		return vm.execStore(inst, 1)

	case OpPUSH:
		return vm.execPush(inst)
	case OpPOP:
		return vm.execPop(inst)

	case OpADD:
		a, b := vm.CPU.R[inst.RS1], vm.CPU.R[inst.RS2]
		result := a + b
		vm.CPU.setFlag(FlagCarry, calcAddCarry(a, b))
		vm.CPU.setFlag(FlagOverflow, calcAddOverflow(a, b, result))
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpSUB:
		a, b := vm.CPU.R[inst.RS1], vm.CPU.R[inst.RS2]
		result := a - b
		vm.CPU.setFlag(FlagCarry, calcSubCarry(a, b))
		vm.CPU.setFlag(FlagOverflow, calcSubOverflow(a, b, result))
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpMUL:
		a, b := int32(vm.CPU.R[inst.RS1]), int32(vm.CPU.R[inst.RS2])
		result := uint32(a * b)
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpDIV:
		a, b := int32(vm.CPU.R[inst.RS1]), int32(vm.CPU.R[inst.RS2])
		if b == 0 {
			return vm.fault(newTrap(ErrDivisionByZero, "division by zero"))
		}
		result := uint32(a / b)
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpMOD:
		a, b := int32(vm.CPU.R[inst.RS1]), int32(vm.CPU.R[inst.RS2])
		if b == 0 {
			return vm.fault(newTrap(ErrDivisionByZero, "division by zero"))
		}
		result := uint32(a % b)
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil

	case OpAND:
		result := vm.CPU.R[inst.RS1] & vm.CPU.R[inst.RS2]
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpOR:
		result := vm.CPU.R[inst.RS1] | vm.CPU.R[inst.RS2]
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpXOR:
		result := vm.CPU.R[inst.RS1] ^ vm.CPU.R[inst.RS2]
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpNOT:
		result := ^vm.CPU.R[inst.RS1]
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpSHL:
		amount := vm.CPU.R[inst.RS2] & 0x1F
		result := vm.CPU.R[inst.RS1] << amount
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpSHR:
		amount := vm.CPU.R[inst.RS2] & 0x1F
		result := vm.CPU.R[inst.RS1] >> amount // logical, zero-fill
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpINC:
		a := vm.CPU.R[inst.RS1]
		result := a + 1
		vm.CPU.setFlag(FlagCarry, calcAddCarry(a, 1))
		vm.CPU.setFlag(FlagOverflow, calcAddOverflow(a, 1, result))
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpDEC:
		a := vm.CPU.R[inst.RS1]
		result := a - 1
		vm.CPU.setFlag(FlagCarry, calcSubCarry(a, 1))
		vm.CPU.setFlag(FlagOverflow, calcSubOverflow(a, 1, result))
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil
	case OpNEG:
		a := vm.CPU.R[inst.RS1]
		result := uint32(0) - a
		vm.CPU.setFlag(FlagCarry, calcSubCarry(0, a))
		vm.CPU.setFlag(FlagOverflow, calcSubOverflow(0, a, result))
		vm.CPU.updateZN(result)
		vm.CPU.R[inst.RD] = result
		return nil

	case OpCMP:
		a, b := vm.CPU.R[inst.RS1], vm.CPU.R[inst.RS2]
		result := a - b
		vm.CPU.setFlag(FlagCarry, calcSubCarry(a, b))
		vm.CPU.setFlag(FlagOverflow, calcSubOverflow(a, b, result))
		vm.CPU.updateZN(result)
		return nil

	case OpJMP, OpJZ, OpJNZ, OpJEQ, OpJNE, OpJLT, OpJGT, OpJLE, OpJGE:
		if branchTaken(inst.Opcode, vm.CPU.Flags) {
			vm.CPU.PC = inst.Addr24
		}
		return nil

	case OpCALL:
		if err := vm.pushWord(vm.CPU.PC); err != nil {
			return err
		}
		vm.CPU.PC = inst.Addr24
		return nil
	case OpRET:
		ret, err := vm.popWord()
		if err != nil {
			return err
		}
		vm.CPU.PC = ret
		return nil

	case OpSYSCALL:
		return vm.dispatchSyscall()
	case OpHALT:
		vm.Halted = true
		return nil
	case OpNOP:
		return nil

	default:
		return vm.fault(newTrap(ErrUnknownOpcode, fmt.Sprintf("unknown opcode 0x%02X at 0x%08X", byte(inst.Opcode), vm.CPU.PC-4)))
	}
}

func (vm *VM) effectiveAddr(base uint32, off12 uint16) uint32 {
	return base + uint32(off12) // 32-bit wrap
}

func (vm *VM) execLoad(inst Instruction, width int) error {
	addr := vm.effectiveAddr(vm.CPU.R[inst.RS1], inst.Off12)
	if width == 4 {
		v, err := vm.Memory.ReadWord(addr)
		if err != nil {
			return vm.fault(err.(*TrapError))
		}
		vm.CPU.R[inst.RD] = v
		return nil
	}
	v, err := vm.Memory.ReadByte(addr)
	if err != nil {
		return vm.fault(err.(*TrapError))
	}
	vm.CPU.R[inst.RD] = uint32(v) // zero-extend
	return nil
}

func (vm *VM) execStore(inst Instruction, width int) error {
	addr := vm.effectiveAddr(vm.CPU.R[inst.RS1], inst.Off12)
	if width == 4 {
		if err := vm.Memory.WriteWord(addr, vm.CPU.R[inst.RD]); err != nil {
			return vm.fault(err.(*TrapError))
		}
		return nil
	}
	if err := vm.Memory.WriteByte(addr, byte(vm.CPU.R[inst.RD])); err != nil {
		return vm.fault(err.(*TrapError))
	}
	return nil
}

func (vm *VM) execPush(inst Instruction) error {
	if vm.CPU.SP < 4 {
		return vm.fault(newTrap(ErrStackOverflow, fmt.Sprintf("stack overflow: sp underflow pushing at 0x%08X", vm.CPU.SP)))
	}
	return vm.pushWord(vm.CPU.R[inst.RD])
}

func (vm *VM) execPop(inst Instruction) error {
	v, err := vm.popWord()
	if err != nil {
		return err
	}
	vm.CPU.R[inst.RD] = v
	return nil
}

// pushWord is the raw sp-=4;store primitive shared by PUSH and CALL.
func (vm *VM) pushWord(value uint32) error {
	if vm.CPU.SP < 4 {
		return vm.fault(newTrap(ErrStackOverflow, fmt.Sprintf("stack overflow: sp underflow at 0x%08X", vm.CPU.SP)))
	}
	vm.CPU.SP -= 4
	if err := vm.Memory.WriteWord(vm.CPU.SP, value); err != nil {
		return vm.fault(err.(*TrapError))
	}
	return nil
}

// popWord is the raw load;sp+=4 primitive shared by POP and RET.
func (vm *VM) popWord() (uint32, error) {
	if vm.CPU.SP > vm.memSize-4 {
		return 0, vm.fault(newTrap(ErrStackUnderflow, fmt.Sprintf("stack underflow: sp overflow at 0x%08X", vm.CPU.SP)))
	}
	v, err := vm.Memory.ReadWord(vm.CPU.SP)
	if err != nil {
		return 0, vm.fault(err.(*TrapError))
	}
	vm.CPU.SP += 4
	return v, nil
}
