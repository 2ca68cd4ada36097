package asm

import (
	"encoding/binary"
	"strings"
)

// isDirective reports whether op (already lowercased by splitLine) names a
// directive rather than an instruction mnemonic.
func isDirective(op string) bool {
	switch op {
	case ".string", ".ascii", ".byte", ".db", ".word", ".dw", ".space", ".skip", ".equ", ".org":
		return true
	}
	return false
}

// directiveSize returns the number of bytes a directive will emit, using
// the exact same escape-processing rule pass 2 uses for strings — the two
// must agree exactly, or label addresses would drift from emitted bytes. .equ and
// .org emit no bytes in the output stream (.org instead relocates the
// address counter, handled by the caller).
func directiveSize(line rawLine) (int, error) {
	switch line.op {
	case ".string", ".ascii":
		s, err := quotedStringBody(line)
		if err != nil {
			return 0, err
		}
		return escapedLen(s), nil
	case ".byte", ".db":
		return len(line.operands), nil
	case ".word", ".dw":
		return len(line.operands) * 4, nil
	case ".space", ".skip":
		n, err := directiveCount(line)
		if err != nil {
			return 0, err
		}
		return n, nil
	case ".equ", ".org":
		return 0, nil
	default:
		return 0, newError(line.lineNo, "unknown directive %q", line.op)
	}
}

func quotedStringBody(line rawLine) (string, error) {
	if len(line.operands) != 1 {
		return "", newError(line.lineNo, "%s expects a single quoted string operand", line.op)
	}
	tok := strings.TrimSpace(line.operands[0])
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return "", newError(line.lineNo, "%s operand must be a quoted string", line.op)
	}
	return tok[1 : len(tok)-1], nil
}

func directiveCount(line rawLine) (int, error) {
	if len(line.operands) != 1 {
		return 0, newError(line.lineNo, "%s expects exactly one operand", line.op)
	}
	v, ok := parseLiteral(strings.TrimSpace(line.operands[0]))
	if !ok {
		return 0, newError(line.lineNo, "%s operand must be a numeric literal", line.op)
	}
	if v < 0 {
		return 0, newError(line.lineNo, "%s operand must be non-negative", line.op)
	}
	return int(v), nil
}

// emitDirective appends the directive's bytes to out, resolving any label
// references against symtab (fully defined by pass 2). .equ/.org are
// handled by the caller before reaching here since they don't append
// bytes.
func emitDirective(line rawLine, symtab *SymbolTable, out []byte) ([]byte, error) {
	switch line.op {
	case ".string", ".ascii":
		s, err := quotedStringBody(line)
		if err != nil {
			return out, err
		}
		return append(out, processEscapes(s)...), nil

	case ".byte", ".db":
		for _, tok := range line.operands {
			v, err := literalOrSymbol(tok, symtab, line.lineNo)
			if err != nil {
				return out, err
			}
			out = append(out, byte(v))
		}
		return out, nil

	case ".word", ".dw":
		for _, tok := range line.operands {
			v, err := literalOrSymbol(tok, symtab, line.lineNo)
			if err != nil {
				return out, err
			}
			var buf [4]byte
			binary.LittleEndian.PutUint32(buf[:], uint32(v))
			out = append(out, buf[:]...)
		}
		return out, nil

	case ".space", ".skip":
		n, err := directiveCount(line)
		if err != nil {
			return out, err
		}
		for i := 0; i < n; i++ {
			out = append(out, 0)
		}
		return out, nil

	default:
		return out, newError(line.lineNo, "unknown directive %q", line.op)
	}
}

// literalOrSymbol resolves a .byte/.word value operand: a decimal/hex
// literal, or a label/.equ name.
func literalOrSymbol(tok string, symtab *SymbolTable, lineNo int) (int64, error) {
	tok = strings.TrimSpace(tok)
	if v, ok := parseLiteral(tok); ok {
		return v, nil
	}
	if v, ok := symtab.lookup(tok); ok {
		return int64(v), nil
	}
	return 0, newError(lineNo, "undefined label %q", tok)
}

// parseEquValue resolves the right-hand side of a ".equ name, value" line,
// which may itself be a literal or a previously-defined symbol.
func parseEquValue(tok string, symtab *SymbolTable, lineNo int) (uint32, error) {
	tok = strings.TrimSpace(tok)
	if v, ok := parseLiteral(tok); ok {
		return uint32(v), nil
	}
	if v, ok := symtab.lookup(tok); ok {
		return v, nil
	}
	return 0, newError(lineNo, "undefined symbol %q in .equ", tok)
}
