package disasm

import (
	"strings"
	"testing"

	"github.com/burst-vm/burst/internal/vm"
)

func TestInstructionRendersRegisterForms(t *testing.T) {
	cases := []struct {
		word uint32
		want string
	}{
		{vm.EncodeImm16(vm.OpMOVI, 2, 100), "MOVI r2, #100"},
		{vm.EncodeReg2(vm.OpMOV, 1, 3), "MOV r1, r3"},
		{vm.EncodeReg3(vm.OpADD, 0, 1, 2), "ADD r0, r1, r2"},
		{vm.EncodeReg2(vm.OpNEG, 4, 4), "NEG r4, r4"},
		{vm.EncodeReg2(vm.OpCMP, 0, 1) | uint32(2&0xF)<<8, "CMP r1, r2"},
		{vm.EncodeAddr24(vm.OpJMP, 0x1000), "JMP 0x00001000"},
		{vm.EncodeAddr24(vm.OpCALL, 0x40), "CALL 0x00000040"},
	}
	for _, c := range cases {
		got := Instruction(0, c.word)
		if got != c.want {
			t.Errorf("Instruction(%#08x) = %q, want %q", c.word, got, c.want)
		}
	}
}

func TestInstructionRendersMemoryOperands(t *testing.T) {
	zero := Instruction(0, vm.EncodeMem(vm.OpLOAD, 1, 2, 0))
	if zero != "LOAD r1, [r2]" {
		t.Errorf("zero offset = %q", zero)
	}
	off := Instruction(0, vm.EncodeMem(vm.OpSTORE, 1, 2, 8))
	if off != "STORE r1, [r2+8]" {
		t.Errorf("with offset = %q", off)
	}
}

func TestInstructionRendersBareMnemonics(t *testing.T) {
	for op, want := range map[vm.Opcode]string{
		vm.OpRET: "RET", vm.OpHALT: "HALT", vm.OpNOP: "NOP", vm.OpSYSCALL: "SYSCALL",
	} {
		got := Instruction(0, uint32(op)<<24)
		if got != want {
			t.Errorf("Instruction(%v) = %q, want %q", op, got, want)
		}
	}
}

func TestInstructionUnknownOpcodeRendersAsDB(t *testing.T) {
	got := Instruction(0, 0xFF000000)
	if got != "db 0xFF000000" {
		t.Errorf("got %q", got)
	}
}

func TestRangeStopsEarlyOnReadFailure(t *testing.T) {
	m := vm.NewMemory(16)
	m.LoadBytes(0, []byte{
		byte(vm.OpNOP), 0, 0, 0,
		byte(vm.OpNOP), 0, 0, 0,
	})
	lines, err := Range(m, 0, 10)
	if err == nil {
		t.Fatal("expected an error running past the arena")
	}
	if len(lines) != 4 {
		t.Errorf("got %d lines before the failure, want 4", len(lines))
	}
}

func TestFormatRangeOneLinePerInstruction(t *testing.T) {
	lines := []Line{
		{Address: 0, Word: 0, Text: "NOP", Size: 4},
		{Address: 4, Word: 0, Text: "HALT", Size: 4},
	}
	out := FormatRange(lines)
	if strings.Count(out, "\n") != 2 {
		t.Errorf("expected 2 lines, got %q", out)
	}
	if !strings.Contains(out, "0x00000000: NOP") || !strings.Contains(out, "0x00000004: HALT") {
		t.Errorf("unexpected format: %q", out)
	}
}
