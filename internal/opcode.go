package internal

// Op is one opcode of the packed 32-bit instruction stream: low 8 bits of
// the word.
type Op uint8

const (
	OpRET Op = iota
	OpPOP
	OpDUP
	OpLOADVOID
	OpLOADI0
	OpLOADI1
	OpLOADC
	OpLOADL
	OpLOADL0
	OpLOADG
	OpSTOREG
	OpSTOREL
	OpUNM
	OpADD
	OpSUB
	OpMUL
	OpDIV
	OpMOD
	OpEQ
	OpLT
	OpGT
	OpLTE
	OpGTE
	OpAND
	OpOR
	OpNOT
	OpCONCAT
	OpCONCATSP
	OpJMP
	OpBRT
	OpBRF
	OpCALL
	OpOCALL
	OpOIDXG
	OpOIDXS
	OpOIDXK
	OpOIDXKR
	OpTHE
	OpNEWLLIST
	OpNEWPLIST
	OpCASE
	OpPUT
)

var opNames = [...]string{
	"RET", "POP", "DUP", "LOADVOID", "LOADI0", "LOADI1", "LOADC", "LOADL",
	"LOADL0", "LOADG", "STOREG", "STOREL", "UNM", "ADD", "SUB", "MUL", "DIV",
	"MOD", "EQ", "LT", "GT", "LTE", "GTE", "AND", "OR", "NOT",
	"CONCAT", "CONCATSP", "JMP", "BRT", "BRF", "CALL", "OCALL", "OIDXG",
	"OIDXS", "OIDXK", "OIDXKR", "THE", "NEWLLIST", "NEWPLIST", "CASE", "PUT",
}

func (op Op) String() string {
	if int(op) >= len(opNames) {
		return "OP(?)"
	}
	return opNames[op]
}

// Instr is a decoded 32-bit instruction word. Not every field is
// meaningful for every opcode; see encode/decode helpers below for the
// operand shape each opcode uses.
type Instr uint32

// EncodeNone packs an opcode with no operand.
func EncodeNone(op Op) Instr {
	return Instr(op)
}

// EncodeU16 packs an opcode with one u16 operand in bits 8-23.
func EncodeU16(op Op, operand uint16) Instr {
	return Instr(op) | Instr(operand)<<8
}

// EncodeU8 packs an opcode with one u8 operand in bits 8-15.
func EncodeU8(op Op, operand uint8) Instr {
	return Instr(op) | Instr(operand)<<8
}

// EncodeI16 packs an opcode with one signed 16-bit jump-offset operand.
func EncodeI16(op Op, offset int16) Instr {
	return Instr(op) | Instr(uint16(offset))<<8
}

// EncodeU16U8 packs an opcode with a u16 operand in bits 8-23 followed by a
// u8 operand in bits 24-31 (used by CALL/OCALL: constant index + argc).
func EncodeU16U8(op Op, u16operand uint16, u8operand uint8) Instr {
	return Instr(op) | Instr(u16operand)<<8 | Instr(u8operand)<<24
}

// Op returns the opcode carried by the low 8 bits.
func (i Instr) Op() Op { return Op(i & 0xff) }

// U16 returns the u16 operand in bits 8-23.
func (i Instr) U16() uint16 { return uint16(i >> 8) }

// U8 returns the u8 operand in bits 8-15.
func (i Instr) U8() uint8 { return uint8(i >> 8) }

// I16 returns the signed 16-bit jump-offset operand.
func (i Instr) I16() int16 { return int16(uint16(i >> 8)) }

// U16Pair returns the (u16, u8) operand pair used by CALL/OCALL.
func (i Instr) U16Pair() (uint16, uint8) {
	return uint16(i>>8) & 0xffff, uint8(i >> 24)
}
