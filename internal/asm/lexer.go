package asm

import "strings"

// operandKind tags how a raw operand token was written in source, matching
// the tagged-variant model a statically-typed operand parser needs in
// place of the source's dynamically-typed one.
type operandKind int

const (
	operandRegister operandKind = iota
	operandImmediate
	operandMemory
	operandLabel
)

// operand is one parsed operand. Only the fields meaningful for Kind are
// populated; an instruction's encode step reads only what its form needs.
type operand struct {
	kind operandKind

	reg int32 // operandRegister, and the base register of operandMemory

	immValue  int64  // operandImmediate, when the literal is numeric
	immLabel  string // operandImmediate, when the literal is a label name
	hasLabel  bool
	offset    int32 // operandMemory
	label     string // operandLabel
}

// rawLine is one source line split into its label (if any), mnemonic or
// directive, and the comma-separated operand text (not yet parsed into
// operand values — that happens per-instruction since directives and
// instructions disagree on what an operand looks like).
type rawLine struct {
	lineNo      int
	label       string // "" if none; the last label in a colon-chain
	extraLabels []string
	op          string // mnemonic or ".directive", lowercased; "" if label-only line
	operands    []string
}

// splitLine strips comments, extracts a leading "label:", and splits the
// remainder into the op and its comma-separated operand text. It does not
// interpret the operands — parseOperand does that per-instruction.
func splitLine(lineNo int, text string) (rawLine, error) {
	text = stripComment(text)
	text = strings.TrimSpace(text)
	if text == "" {
		return rawLine{lineNo: lineNo}, nil
	}

	line := rawLine{lineNo: lineNo}

	// Consume leading "label:" chains, e.g. "foo: bar: MOV r0, r1", binding
	// both labels to the same address. line.label holds the last one;
	// line.extraLabels holds the rest, in source order.
	for {
		idx := strings.IndexByte(text, ':')
		if idx < 0 {
			break
		}
		candidate := strings.TrimSpace(text[:idx])
		if candidate == "" || strings.ContainsAny(candidate, " \t") {
			break
		}
		if line.label != "" {
			line.extraLabels = append(line.extraLabels, line.label)
		}
		line.label = candidate
		text = strings.TrimSpace(text[idx+1:])
		if text == "" {
			return line, nil
		}
	}

	fields := strings.SplitN(text, " ", 2)
	op := fields[0]
	line.op = strings.ToLower(op)

	if len(fields) == 2 {
		rest := strings.TrimSpace(fields[1])
		line.operands = splitOperands(rest)
	}
	return line, nil
}

// splitOperands splits a comma-separated operand list, respecting that a
// quoted string (as used by .string/.ascii) may itself contain commas.
func splitOperands(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ',' && !inQuote:
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 || len(out) > 0 {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	return out
}

func stripComment(s string) string {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return s[:i]
			}
		}
	}
	return s
}
