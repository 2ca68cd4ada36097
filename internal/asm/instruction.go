package asm

import (
	"strings"

	"github.com/burst-vm/burst/internal/vm"
)

// mnemonicKnown reports whether tok (already lowercased) names a real
// instruction mnemonic, used by pass 1 to reject typos before pass 2 ever
// runs.
func mnemonicKnown(tok string) (vm.Opcode, bool) {
	op, ok := vm.MnemonicToOpcode[strings.ToUpper(tok)]
	return op, ok
}

// encodeInstruction assembles one instruction line into its 4-byte word,
// resolving any label operand against symtab (must be fully populated —
// this only ever runs in pass 2).
func encodeInstruction(line rawLine, symtab *SymbolTable) (uint32, error) {
	opcode, ok := vm.MnemonicToOpcode[strings.ToUpper(line.op)]
	if !ok {
		return 0, newError(line.lineNo, "unknown mnemonic %q", line.op)
	}

	ops, err := parseOperands(line)
	if err != nil {
		return 0, err
	}

	switch opcode {
	case vm.OpMOVI:
		rd, imm, err := regAndImm(ops, line.lineNo, symtab)
		if err != nil {
			return 0, err
		}
		return vm.EncodeImm16(opcode, rd, imm), nil

	case vm.OpMOV:
		rd, rs1, err := twoRegs(ops, line.lineNo)
		if err != nil {
			return 0, err
		}
		return vm.EncodeReg2(opcode, rd, rs1), nil

	case vm.OpLOAD, vm.OpSTORE, vm.OpLOADB, vm.OpSTOREB:
		rd, rs1, off, err := regAndMem(ops, line.lineNo)
		if err != nil {
			return 0, err
		}
		return vm.EncodeMem(opcode, rd, rs1, off), nil

	case vm.OpPUSH, vm.OpPOP:
		rd, err := oneReg(ops, line.lineNo)
		if err != nil {
			return 0, err
		}
		return vm.EncodeReg2(opcode, rd, 0), nil

	case vm.OpADD, vm.OpSUB, vm.OpMUL, vm.OpDIV, vm.OpMOD,
		vm.OpAND, vm.OpOR, vm.OpXOR, vm.OpSHL, vm.OpSHR:
		rd, rs1, rs2, err := threeRegs(ops, line.lineNo)
		if err != nil {
			return 0, err
		}
		return vm.EncodeReg3(opcode, rd, rs1, rs2), nil

	case vm.OpNOT, vm.OpINC, vm.OpDEC, vm.OpNEG:
		rd, rs1, err := twoRegs(ops, line.lineNo)
		if err != nil {
			return 0, err
		}
		return vm.EncodeReg2(opcode, rd, rs1), nil

	case vm.OpCMP:
		rs1, rs2, err := twoRegs(ops, line.lineNo)
		if err != nil {
			return 0, err
		}
		return vm.EncodeReg2(opcode, 0, rs1) | uint32(rs2&0xF)<<8, nil

	case vm.OpJMP, vm.OpJZ, vm.OpJNZ, vm.OpJEQ, vm.OpJNE,
		vm.OpJLT, vm.OpJGT, vm.OpJLE, vm.OpJGE, vm.OpCALL:
		addr, err := oneAddr(ops, line.lineNo, symtab)
		if err != nil {
			return 0, err
		}
		return vm.EncodeAddr24(opcode, addr), nil

	case vm.OpRET, vm.OpHALT, vm.OpNOP, vm.OpSYSCALL:
		if len(ops) != 0 {
			return 0, newError(line.lineNo, "%s takes no operands", line.op)
		}
		return vm.EncodeAddr24(opcode, 0), nil

	default:
		return 0, newError(line.lineNo, "unknown mnemonic %q", line.op)
	}
}

func parseOperands(line rawLine) ([]operand, error) {
	ops := make([]operand, 0, len(line.operands))
	for _, tok := range line.operands {
		op, ok := parseOperand(tok)
		if !ok {
			return nil, newError(line.lineNo, "invalid operand %q", tok)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func regOf(op operand, lineNo int) (uint8, error) {
	if op.kind != operandRegister {
		return 0, newError(lineNo, "expected register operand")
	}
	return uint8(op.reg), nil
}

func oneReg(ops []operand, lineNo int) (uint8, error) {
	if len(ops) != 1 {
		return 0, newError(lineNo, "expected exactly one register operand")
	}
	return regOf(ops[0], lineNo)
}

func twoRegs(ops []operand, lineNo int) (uint8, uint8, error) {
	if len(ops) != 2 {
		return 0, 0, newError(lineNo, "expected exactly two register operands")
	}
	a, err := regOf(ops[0], lineNo)
	if err != nil {
		return 0, 0, err
	}
	b, err := regOf(ops[1], lineNo)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func threeRegs(ops []operand, lineNo int) (uint8, uint8, uint8, error) {
	if len(ops) != 3 {
		return 0, 0, 0, newError(lineNo, "expected exactly three register operands")
	}
	a, err := regOf(ops[0], lineNo)
	if err != nil {
		return 0, 0, 0, err
	}
	b, err := regOf(ops[1], lineNo)
	if err != nil {
		return 0, 0, 0, err
	}
	c, err := regOf(ops[2], lineNo)
	if err != nil {
		return 0, 0, 0, err
	}
	return a, b, c, nil
}

func regAndImm(ops []operand, lineNo int, symtab *SymbolTable) (uint8, uint16, error) {
	if len(ops) != 2 {
		return 0, 0, newError(lineNo, "expected register, immediate")
	}
	rd, err := regOf(ops[0], lineNo)
	if err != nil {
		return 0, 0, err
	}
	if ops[1].kind != operandImmediate {
		return 0, 0, newError(lineNo, "expected immediate operand")
	}
	v, err := resolveValue(ops[1], symtab, lineNo)
	if err != nil {
		return 0, 0, err
	}
	return rd, uint16(uint32(v)), nil
}

func regAndMem(ops []operand, lineNo int) (uint8, uint8, uint16, error) {
	if len(ops) != 2 {
		return 0, 0, 0, newError(lineNo, "expected register, memory operand")
	}
	rd, err := regOf(ops[0], lineNo)
	if err != nil {
		return 0, 0, 0, err
	}
	if ops[1].kind != operandMemory {
		return 0, 0, 0, newError(lineNo, "expected memory operand [rN] or [rN+off]")
	}
	if ops[1].offset < 0 || ops[1].offset > 0xFFF {
		return 0, 0, 0, newError(lineNo, "memory offset out of range: %d", ops[1].offset)
	}
	return rd, uint8(ops[1].reg), uint16(ops[1].offset), nil
}

func oneAddr(ops []operand, lineNo int, symtab *SymbolTable) (uint32, error) {
	if len(ops) != 1 {
		return 0, newError(lineNo, "expected exactly one address/label operand")
	}
	switch ops[0].kind {
	case operandLabel:
		v, ok := symtab.lookup(ops[0].label)
		if !ok {
			return 0, newError(lineNo, "undefined label %q", ops[0].label)
		}
		return v, nil
	case operandImmediate:
		v, err := resolveValue(ops[0], symtab, lineNo)
		if err != nil {
			return 0, err
		}
		return uint32(v) & 0xFFFFFF, nil
	default:
		return 0, newError(lineNo, "expected a label or immediate address")
	}
}
