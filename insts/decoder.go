package insts

import (
	"strconv"
	"strings"
)

// Decoder translates assembly source lines into Instructions.
type Decoder struct{}

// NewDecoder creates a new assembly decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// mnemonics maps mnemonic text to opcodes, including the LW/SW aliases.
var mnemonics = map[string]Op{
	"ADD":  OpADD,
	"SUB":  OpSUB,
	"MUL":  OpMUL,
	"DIV":  OpDIV,
	"ADDI": OpADDI,
	"SUBI": OpSUBI,
	"LD":   OpLD,
	"LW":   OpLD,
	"SD":   OpSD,
	"SW":   OpSD,
	"BEQ":  OpBEQ,
	"BNE":  OpBNE,
	"BNEZ": OpBNEZ,
	"HLT":  OpHLT,
}

// Decode parses one source line. It never fails: blank, comment-only, or
// unrecognized lines produce an Instruction with Op == OpInvalid, which
// the loader discards. A label on an otherwise empty line is still
// reported so the loader can bind it to the next instruction.
func (d *Decoder) Decode(line string) *Instruction {
	inst := &Instruction{}

	// Strip comment and surrounding whitespace.
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	inst.Raw = line
	if line == "" {
		return inst
	}

	// Optional label prefix.
	if i := strings.IndexByte(line, ':'); i >= 0 {
		inst.Label = strings.TrimSpace(line[:i])
		line = strings.TrimSpace(line[i+1:])
	}

	tokens := tokenize(line)
	if len(tokens) == 0 {
		return inst
	}

	op, ok := mnemonics[strings.ToUpper(tokens[0])]
	if !ok {
		return inst
	}

	switch {
	case op.IsArith3():
		// op rd, rs, rt
		if len(tokens) < 4 {
			return inst
		}
		inst.Op = op
		inst.Rd, inst.Rs, inst.Rt = tokens[1], tokens[2], tokens[3]

	case op.IsArithImm():
		// op rd, rs, imm
		if len(tokens) < 4 {
			return inst
		}
		imm, err := strconv.ParseInt(tokens[3], 10, 64)
		if err != nil {
			return inst
		}
		inst.Op = op
		inst.Rd, inst.Rs, inst.Imm = tokens[1], tokens[2], imm

	case op.IsMemory():
		// op rd, imm(rs) — a missing offset means 0.
		switch {
		case len(tokens) >= 4:
			imm, err := strconv.ParseInt(tokens[2], 10, 64)
			if err != nil {
				return inst
			}
			inst.Op = op
			inst.Rd, inst.Imm, inst.Rs = tokens[1], imm, tokens[3]
		case len(tokens) == 3:
			inst.Op = op
			inst.Rd, inst.Rs = tokens[1], tokens[2]
		default:
			return inst
		}

	case op == OpBEQ || op == OpBNE:
		// op rs, rt, label
		if len(tokens) < 4 {
			return inst
		}
		inst.Op = op
		inst.Rs, inst.Rt, inst.Target = tokens[1], tokens[2], tokens[3]

	case op == OpBNEZ:
		// op rs, label
		if len(tokens) < 3 {
			return inst
		}
		inst.Op = op
		inst.Rs, inst.Target = tokens[1], tokens[2]

	case op == OpHLT:
		inst.Op = op
	}

	return inst
}

// tokenize splits on whitespace, commas, and parentheses, which makes the
// memory form "imm(base)" come out as two tokens.
func tokenize(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		switch r {
		case ' ', '\t', ',', '(', ')':
			return true
		}
		return false
	})
}
