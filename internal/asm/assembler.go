// Package asm implements BURST's two-pass textual assembler: pass 1 walks
// the source computing label addresses and per-line sizes, pass 2 walks it
// again emitting bytes using the now-complete label table.
package asm

import (
	"bufio"
	"strings"
)

// Result is the output of a successful Assemble call: the emitted bytes
// and the symbol table (labels and .equ constants), which the caller hands
// to the debugger for address/name resolution.
type Result struct {
	Bytes   []byte
	Symbols *SymbolTable
}

// Assemble runs both passes over source and returns the assembled bytes.
// Given the same source text, Assemble is deterministic and produces
// byte-identical output across runs — nothing in
// either pass consults wall-clock time, map iteration order, or any other
// non-deterministic input.
func Assemble(source string) (*Result, error) {
	lines, err := tokenizeLines(source)
	if err != nil {
		return nil, err
	}

	symtab := newSymbolTable()
	if err := passOne(lines, symtab); err != nil {
		return nil, err
	}

	out, err := passTwo(lines, symtab)
	if err != nil {
		return nil, err
	}

	return &Result{Bytes: out, Symbols: symtab}, nil
}

func tokenizeLines(source string) ([]rawLine, error) {
	var lines []rawLine
	scanner := bufio.NewScanner(strings.NewReader(source))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw, err := splitLine(lineNo, scanner.Text())
		if err != nil {
			return nil, err
		}
		lines = append(lines, raw)
	}
	return lines, nil
}

// passOne computes each label's address and the running size, honoring
// .org (relocate the counter) and .equ (define a named constant, no
// bytes). By invariant, pass 1's final address must equal pass
// 2's total output length — every size computation here and in
// directiveSize/4-bytes-per-instruction must exactly match what emitLine
// produces in pass 2.
func passOne(lines []rawLine, symtab *SymbolTable) error {
	var addr uint32
	for i := range lines {
		line := &lines[i]

		if line.label != "" {
			symtab.define(line.label, addr)
		}
		for _, extra := range line.extraLabels {
			symtab.define(extra, addr)
		}

		if line.op == "" {
			continue
		}

		if line.op == ".org" {
			if len(line.operands) != 1 {
				return newError(line.lineNo, ".org expects exactly one address operand")
			}
			v, ok := parseLiteral(strings.TrimSpace(line.operands[0]))
			if !ok {
				return newError(line.lineNo, ".org operand must be a numeric literal")
			}
			addr = uint32(v)
			continue
		}

		if line.op == ".equ" {
			if len(line.operands) != 2 {
				return newError(line.lineNo, ".equ expects name, value")
			}
			name := strings.TrimSpace(line.operands[0])
			v, err := parseEquValue(line.operands[1], symtab, line.lineNo)
			if err != nil {
				return err
			}
			symtab.define(name, v)
			continue
		}

		if isDirective(line.op) {
			size, err := directiveSize(*line)
			if err != nil {
				return err
			}
			addr += uint32(size)
			continue
		}

		// Instruction: every encoding form is exactly 4 bytes.
		if _, ok := mnemonicKnown(line.op); !ok {
			return newError(line.lineNo, "unknown mnemonic %q", line.op)
		}
		addr += 4
	}
	return nil
}

func passTwo(lines []rawLine, symtab *SymbolTable) ([]byte, error) {
	out := make([]byte, 0, len(lines)*4)
	for _, line := range lines {
		if line.op == ".org" {
			v, _ := parseLiteral(strings.TrimSpace(line.operands[0]))
			target := uint32(v)
			if target < uint32(len(out)) {
				return nil, newError(line.lineNo, ".org cannot move the address counter backward")
			}
			for uint32(len(out)) < target {
				out = append(out, 0)
			}
			continue
		}
		if line.op == "" || line.op == ".equ" {
			continue
		}
		if isDirective(line.op) {
			var err error
			out, err = emitDirective(line, symtab, out)
			if err != nil {
				return nil, err
			}
			continue
		}
		word, err := encodeInstruction(line, symtab)
		if err != nil {
			return nil, err
		}
		out = appendWord(out, word)
	}
	return out, nil
}

func appendWord(out []byte, word uint32) []byte {
	return append(out, byte(word), byte(word>>8), byte(word>>16), byte(word>>24))
}
