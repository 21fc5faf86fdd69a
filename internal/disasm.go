package internal

import (
	"fmt"
	"strconv"
	"strings"
)

// operandShape describes how an opcode's operand bits are decoded for
// display.
type operandShape int

const (
	shapeNone operandShape = iota
	shapeU16
	shapeU8
	shapeI16
	shapeU16U8
)

var opShapes = map[Op]operandShape{
	OpLOADC: shapeU16, OpLOADL: shapeU16, OpLOADG: shapeU16,
	OpSTOREG: shapeU16, OpSTOREL: shapeU16, OpNEWLLIST: shapeU16,
	OpCASE: shapeU16,
	OpTHE:  shapeU8,
	OpJMP:  shapeI16, OpBRT: shapeI16, OpBRF: shapeI16,
	OpCALL: shapeU16U8, OpOCALL: shapeU16U8,
}

// Disassemble renders every instruction of c, one per line, as
// "OPCODE operand [; hint]". The hint resolves
// LOADL/STOREL to the local's name, LOADC/LOADG/STOREG/CALL/OCALL to the
// constant's literal form, THE to the named builtin, and branches to their
// target instruction index.
func Disassemble(c *Chunk) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "handler %s: %d args, %d locals, %d consts, %d instrs\n",
		c.Name, c.NArgs, c.NLocals, len(c.Consts), len(c.Code))
	for i, in := range c.Code {
		fmt.Fprintf(&sb, "%4d  %s\n", i, disasmLine(c, i, in))
	}
	return sb.String()
}

func disasmLine(c *Chunk, idx int, in Instr) string {
	op := in.Op()
	switch opShapes[op] {
	case shapeU16:
		n := int(in.U16())
		switch op {
		case OpLOADC, OpLOADG, OpSTOREG:
			return fmt.Sprintf("%s %d ; %s", op, n, constHint(c, n))
		case OpLOADL, OpSTOREL:
			return fmt.Sprintf("%s %d ; %s", op, n, c.LocalName(n))
		default:
			return fmt.Sprintf("%s %d", op, n)
		}
	case shapeU8:
		id := TheBuiltin(in.U8())
		if op == OpTHE {
			return fmt.Sprintf("%s %d ; the %s", op, in.U8(), theBuiltinName(id))
		}
		return fmt.Sprintf("%s %d", op, in.U8())
	case shapeI16:
		off := int(in.I16())
		return fmt.Sprintf("%s %d ; -> %d", op, off, idx+1+off)
	case shapeU16U8:
		k, n := in.U16Pair()
		return fmt.Sprintf("%s %d,%d ; %s", op, k, n, constHint(c, int(k)))
	default:
		if op == OpLOADL0 {
			return fmt.Sprintf("%s ; %s", op, c.LocalName(0))
		}
		return op.String()
	}
}

// constHint renders constant k in its literal source form.
func constHint(c *Chunk, k int) string {
	if k < 0 || k >= len(c.Consts) {
		return "?"
	}
	kn := c.Consts[k]
	switch kn.Tag {
	case ConstVoid:
		return "void"
	case ConstInt:
		return strconv.FormatInt(int64(kn.I), 10)
	case ConstFloat:
		return strconv.FormatFloat(kn.F, 'g', -1, 64)
	case ConstString:
		return strconv.Quote(c.StringAt(kn.StrOff))
	case ConstSymbol:
		return "#" + c.StringAt(kn.StrOff)
	default:
		return "?"
	}
}
