// Package disasm reverses BURST instruction words into the human-readable
// mnemonic + operand form.
package disasm

import (
	"fmt"
	"strings"

	"github.com/burst-vm/burst/internal/vm"
)

// Line is one disassembled instruction: its address, the raw word, and the
// rendered text. Size is always 4 (every instruction is one word), kept
// here so callers iterating a range don't need to hardcode it.
type Line struct {
	Address uint32
	Word    uint32
	Text    string
	Size    uint32
}

// Instruction renders a single 32-bit word at the given address as
// "mnemonic [operand, ...]". Register operands render as r<n>, immediates
// as #<decimal>, memory references as [r<n>] or [r<n>+<off>], jump targets
// as 0x<hex>. Unknown opcodes render as "db 0x<eight-hex-digits>".
func Instruction(address, word uint32) string {
	inst := vm.Decode(word)
	mnem := vm.MnemonicOf(inst.Opcode)
	if mnem == "" {
		return fmt.Sprintf("db 0x%08X", word)
	}

	switch inst.Opcode {
	case vm.OpMOVI:
		return fmt.Sprintf("%s r%d, #%d", mnem, inst.RD, inst.Imm16)
	case vm.OpMOV:
		return fmt.Sprintf("%s r%d, r%d", mnem, inst.RD, inst.RS1)

	case vm.OpLOAD, vm.OpLOADB:
		return fmt.Sprintf("%s r%d, %s", mnem, inst.RD, memOperand(inst.RS1, inst.Off12))
	case vm.OpSTORE, vm.OpSTOREB:
		return fmt.Sprintf("%s r%d, %s", mnem, inst.RD, memOperand(inst.RS1, inst.Off12))

	case vm.OpPUSH, vm.OpPOP:
		return fmt.Sprintf("%s r%d", mnem, inst.RD)

	case vm.OpADD, vm.OpSUB, vm.OpMUL, vm.OpDIV, vm.OpMOD,
		vm.OpAND, vm.OpOR, vm.OpXOR, vm.OpSHL, vm.OpSHR:
		return fmt.Sprintf("%s r%d, r%d, r%d", mnem, inst.RD, inst.RS1, inst.RS2)
	case vm.OpNOT, vm.OpINC, vm.OpDEC, vm.OpNEG:
		return fmt.Sprintf("%s r%d, r%d", mnem, inst.RD, inst.RS1)
	case vm.OpCMP:
		return fmt.Sprintf("%s r%d, r%d", mnem, inst.RS1, inst.RS2)

	case vm.OpJMP, vm.OpJZ, vm.OpJNZ, vm.OpJEQ, vm.OpJNE,
		vm.OpJLT, vm.OpJGT, vm.OpJLE, vm.OpJGE, vm.OpCALL:
		return fmt.Sprintf("%s 0x%08X", mnem, inst.Addr24)
	case vm.OpRET, vm.OpHALT, vm.OpNOP, vm.OpSYSCALL:
		return mnem

	default:
		return fmt.Sprintf("db 0x%08X", word)
	}
}

func memOperand(rs1 uint8, off12 uint16) string {
	if off12 == 0 {
		return fmt.Sprintf("[r%d]", rs1)
	}
	return fmt.Sprintf("[r%d+%d]", rs1, off12)
}

// Range disassembles n instructions starting at address in mem, stopping
// early if a memory read fails (e.g. the range runs past the arena).
func Range(mem *vm.Memory, address uint32, n int) ([]Line, error) {
	lines := make([]Line, 0, n)
	addr := address
	for i := 0; i < n; i++ {
		word, err := mem.ReadWord(addr)
		if err != nil {
			return lines, err
		}
		lines = append(lines, Line{
			Address: addr,
			Word:    word,
			Text:    Instruction(addr, word),
			Size:    4,
		})
		addr += 4
	}
	return lines, nil
}

// FormatRange renders a disassembled range as one line per instruction,
// "0x<addr>: <mnemonic operands>", used by the `disasm` host command.
func FormatRange(lines []Line) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "0x%08X: %s\n", l.Address, l.Text)
	}
	return b.String()
}
