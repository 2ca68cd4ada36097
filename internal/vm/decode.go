package vm

// Opcode identifies the operation encoded in the top 8 bits of an
// instruction word.
type Opcode byte

// Opcode table.
const (
	OpLOAD   Opcode = 0x01
	OpSTORE  Opcode = 0x02
	OpPUSH   Opcode = 0x03
	OpPOP    Opcode = 0x04
	OpLOADB  Opcode = 0x05
	OpSTOREB Opcode = 0x06

	OpADD Opcode = 0x10
	OpSUB Opcode = 0x11
	OpMUL Opcode = 0x12
	OpDIV Opcode = 0x13
	OpMOD Opcode = 0x14
	OpAND Opcode = 0x15
	OpOR  Opcode = 0x16
	OpXOR Opcode = 0x17
	OpNOT Opcode = 0x18
	OpSHL Opcode = 0x19
	OpSHR Opcode = 0x1A
	OpINC Opcode = 0x1B
	OpDEC Opcode = 0x1C
	OpNEG Opcode = 0x1D

	OpJMP  Opcode = 0x20
	OpJZ   Opcode = 0x21
	OpJNZ  Opcode = 0x22
	OpJEQ  Opcode = 0x23
	OpJNE  Opcode = 0x24
	OpJLT  Opcode = 0x25
	OpJGT  Opcode = 0x26
	OpCALL Opcode = 0x27
	OpRET  Opcode = 0x28
	OpJLE  Opcode = 0x29
	OpJGE  Opcode = 0x2A

	OpMOV  Opcode = 0x30
	OpMOVI Opcode = 0x31
	OpCMP  Opcode = 0x32

	OpSYSCALL Opcode = 0x40
	OpHALT    Opcode = 0x41
	OpNOP     Opcode = 0x42
)

var mnemonics = map[Opcode]string{
	OpLOAD: "LOAD", OpSTORE: "STORE", OpPUSH: "PUSH", OpPOP: "POP",
	OpLOADB: "LOADB", OpSTOREB: "STOREB",
	OpADD: "ADD", OpSUB: "SUB", OpMUL: "MUL", OpDIV: "DIV", OpMOD: "MOD",
	OpAND: "AND", OpOR: "OR", OpXOR: "XOR", OpNOT: "NOT",
	OpSHL: "SHL", OpSHR: "SHR", OpINC: "INC", OpDEC: "DEC", OpNEG: "NEG",
	OpJMP: "JMP", OpJZ: "JZ", OpJNZ: "JNZ", OpJEQ: "JEQ", OpJNE: "JNE",
	OpJLT: "JLT", OpJGT: "JGT", OpCALL: "CALL", OpRET: "RET",
	OpJLE: "JLE", OpJGE: "JGE",
	OpMOV: "MOV", OpMOVI: "MOVI", OpCMP: "CMP",
	OpSYSCALL: "SYSCALL", OpHALT: "HALT", OpNOP: "NOP",
}

// MnemonicOf returns the canonical mnemonic for an opcode, or "" if unknown.
func MnemonicOf(op Opcode) string {
	return mnemonics[op]
}

// MnemonicToOpcode is the reverse lookup used by the assembler.
var MnemonicToOpcode = func() map[string]Opcode {
	m := make(map[string]Opcode, len(mnemonics))
	for op, name := range mnemonics {
		m[name] = op
	}
	return m
}()

// Instruction is the decoded form of one 32-bit instruction word. Not every
// field is meaningful for every opcode; the executor reads only the fields
// its opcode defines.
type Instruction struct {
	Word   uint32 // the raw instruction word this was decoded from
	Opcode Opcode
	RD     uint8
	RS1    uint8
	RS2    uint8
	Imm16  int32  // IMM16, sign-extended
	Off12  uint16 // OFF12, unsigned
	Addr24 uint32 // ADDR24
}

// Decode splits a 32-bit instruction word into opcode and operand fields.
// It never fails: an unrecognized opcode decodes fine, the executor is
// responsible for rejecting it as Unknown Opcode.
func Decode(word uint32) Instruction {
	return Instruction{
		Word:   word,
		Opcode: Opcode(word >> 24),
		RD:     uint8((word >> 16) & 0xF),
		RS1:    uint8((word >> 12) & 0xF),
		RS2:    uint8((word >> 8) & 0xF),
		Imm16:  signExtend16(uint16(word & 0xFFFF)),
		Off12:  uint16(word & 0xFFF),
		Addr24: word & 0xFFFFFF,
	}
}

// EncodeImm16 packs an RD + 16-bit-immediate instruction (MOVI-shaped).
func EncodeImm16(opcode Opcode, rd uint8, imm16 uint16) uint32 {
	word := uint32(opcode) << 24
	word |= uint32(rd&0xF) << 16
	word |= uint32(imm16)
	return word
}

// EncodeMem packs a LOAD/STORE/LOADB/STOREB-shaped instruction: RD, RS1,
// and a 12-bit unsigned offset.
func EncodeMem(opcode Opcode, rd, rs1 uint8, off12 uint16) uint32 {
	word := uint32(opcode) << 24
	word |= uint32(rd&0xF) << 16
	word |= uint32(rs1&0xF) << 12
	return word | uint32(off12&0xFFF)
}

// EncodeReg3 packs an RD/RS1/RS2-shaped instruction (ADD/SUB/...).
func EncodeReg3(opcode Opcode, rd, rs1, rs2 uint8) uint32 {
	word := uint32(opcode) << 24
	word |= uint32(rd&0xF) << 16
	word |= uint32(rs1&0xF) << 12
	word |= uint32(rs2&0xF) << 8
	return word
}

// EncodeReg2 packs an RD/RS1-shaped instruction (MOV, and NOT/INC/DEC/NEG,
// which read RS1 and write RD). CMP reads RS1 and RS2, so a CMP caller
// passes rd=0 and ORs the RS2 field in itself.
func EncodeReg2(opcode Opcode, rd, rs1 uint8) uint32 {
	word := uint32(opcode) << 24
	word |= uint32(rd&0xF) << 16
	word |= uint32(rs1&0xF) << 12
	return word
}

// EncodeAddr24 packs a JMP/CALL-shaped instruction with a 24-bit target.
func EncodeAddr24(opcode Opcode, addr24 uint32) uint32 {
	return uint32(opcode)<<24 | (addr24 & 0xFFFFFF)
}

func signExtend16(v uint16) int32 {
	return int32(int16(v))
}
