package internal

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ConstTag discriminates a Chunk constant pool entry.
type ConstTag uint8

const (
	ConstVoid ConstTag = iota
	ConstInt
	ConstFloat
	ConstString
	ConstSymbol
)

// Const is one constant pool entry: `{tag: u8, payload: 8 bytes}`, payload
// interpreted per Tag.
type Const struct {
	Tag    ConstTag
	I      int32
	F      float64
	StrOff uint32 // offset into the chunk's string pool, for String/Symbol
}

// header is the fixed-size binary prefix of a serialized chunk. All
// offsets are relative to the header's own start.
type header struct {
	NArgs         uint32
	NLocals       uint32
	NConsts       uint32
	NInstr        uint32
	CodeOff       uint32
	ConstsOff     uint32
	StringsOff    uint32
	LocalNamesOff uint32
}

const headerSize = 8 * 4
const constRecordSize = 16 // tag(1) + pad(7) + payload(8), naturally aligned

// Chunk is the compiled, immutable form of one handler: header plus code,
// constants, string pool, and local-name metadata. It is
// built once by the generator (see chunkBuilder in generator.go) and
// consumed read-only by the VM and the disassembler.
type Chunk struct {
	// Name is the handler's name. It is not part of the wire format (every
	// other region is) but is kept on the in-process container as the key
	// the VM's registered-handlers table looks chunks up by.
	Name string

	NArgs   int
	NLocals int

	Code       []Instr
	Consts     []Const
	StringPool []byte   // sequence of {size, bytes+NUL} records, 4-byte aligned
	LocalNames []uint32 // nargs+nlocals entries: offsets into StringPool
}

// StringAt decodes the NUL-terminated string pool record at byte offset off.
func (c *Chunk) StringAt(off uint32) string {
	size := binary.LittleEndian.Uint32(c.StringPool[off:])
	start := off + 4
	return string(c.StringPool[start : start+size])
}

// ConstString returns the decoded text of a String or Symbol constant.
func (c *Chunk) ConstString(i int) string {
	return c.StringAt(c.Consts[i].StrOff)
}

// LocalName returns the diagnostic name of local slot n.
func (c *Chunk) LocalName(n int) string {
	if n < 0 || n >= len(c.LocalNames) {
		return fmt.Sprintf("local%d", n)
	}
	return c.StringAt(c.LocalNames[n])
}

// Marshal serializes the chunk to its wire format: header, code,
// constants, string pool, then local names, each region naturally aligned,
// every offset relative to the header start.
func (c *Chunk) Marshal() []byte {
	pool := c.StringPool
	codeOff := uint32(headerSize)
	// Constants carry 8-byte payloads; keep their region 8-aligned even
	// when the code region ends on an odd word.
	constsOff := (codeOff + uint32(len(c.Code))*4 + 7) &^ 7
	stringsOff := constsOff + uint32(len(c.Consts))*constRecordSize
	localNamesOff := stringsOff + uint32(len(pool))

	h := header{
		NArgs:         uint32(c.NArgs),
		NLocals:       uint32(c.NLocals),
		NConsts:       uint32(len(c.Consts)),
		NInstr:        uint32(len(c.Code)),
		CodeOff:       codeOff,
		ConstsOff:     constsOff,
		StringsOff:    stringsOff,
		LocalNamesOff: localNamesOff,
	}

	total := int(localNamesOff) + len(c.LocalNames)*4
	buf := make([]byte, total)
	putHeader(buf, h)

	off := int(codeOff)
	for _, instr := range c.Code {
		binary.LittleEndian.PutUint32(buf[off:], uint32(instr))
		off += 4
	}

	off = int(constsOff)
	for _, k := range c.Consts {
		buf[off] = byte(k.Tag)
		payload := buf[off+8 : off+16]
		switch k.Tag {
		case ConstInt:
			binary.LittleEndian.PutUint32(payload, uint32(k.I))
		case ConstFloat:
			binary.LittleEndian.PutUint64(payload, math.Float64bits(k.F))
		case ConstString, ConstSymbol:
			binary.LittleEndian.PutUint32(payload, k.StrOff)
		}
		off += constRecordSize
	}

	copy(buf[int(stringsOff):], pool)

	off = int(localNamesOff)
	for _, o := range c.LocalNames {
		binary.LittleEndian.PutUint32(buf[off:], o)
		off += 4
	}

	return buf
}

func putHeader(buf []byte, h header) {
	binary.LittleEndian.PutUint32(buf[0:], h.NArgs)
	binary.LittleEndian.PutUint32(buf[4:], h.NLocals)
	binary.LittleEndian.PutUint32(buf[8:], h.NConsts)
	binary.LittleEndian.PutUint32(buf[12:], h.NInstr)
	binary.LittleEndian.PutUint32(buf[16:], h.CodeOff)
	binary.LittleEndian.PutUint32(buf[20:], h.ConstsOff)
	binary.LittleEndian.PutUint32(buf[24:], h.StringsOff)
	binary.LittleEndian.PutUint32(buf[28:], h.LocalNamesOff)
}

func getHeader(buf []byte) header {
	return header{
		NArgs:         binary.LittleEndian.Uint32(buf[0:]),
		NLocals:       binary.LittleEndian.Uint32(buf[4:]),
		NConsts:       binary.LittleEndian.Uint32(buf[8:]),
		NInstr:        binary.LittleEndian.Uint32(buf[12:]),
		CodeOff:       binary.LittleEndian.Uint32(buf[16:]),
		ConstsOff:     binary.LittleEndian.Uint32(buf[20:]),
		StringsOff:    binary.LittleEndian.Uint32(buf[24:]),
		LocalNamesOff: binary.LittleEndian.Uint32(buf[28:]),
	}
}

// UnmarshalChunk deserializes a chunk previously produced by Marshal. Name
// is not part of the wire format and is supplied by the caller (the
// container format that wraps multiple chunks records names alongside).
func UnmarshalChunk(name string, buf []byte) (*Chunk, error) {
	if len(buf) < headerSize {
		return nil, fmt.Errorf("cast: chunk %q: truncated header", name)
	}
	h := getHeader(buf)

	c := &Chunk{
		Name:    name,
		NArgs:   int(h.NArgs),
		NLocals: int(h.NLocals),
	}

	c.Code = make([]Instr, h.NInstr)
	off := int(h.CodeOff)
	for i := range c.Code {
		c.Code[i] = Instr(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
	}

	c.Consts = make([]Const, h.NConsts)
	off = int(h.ConstsOff)
	for i := range c.Consts {
		tag := ConstTag(buf[off])
		payload := buf[off+8 : off+16]
		k := Const{Tag: tag}
		switch tag {
		case ConstInt:
			k.I = int32(binary.LittleEndian.Uint32(payload))
		case ConstFloat:
			k.F = math.Float64frombits(binary.LittleEndian.Uint64(payload))
		case ConstString, ConstSymbol:
			k.StrOff = binary.LittleEndian.Uint32(payload)
		}
		c.Consts[i] = k
		off += constRecordSize
	}

	c.StringPool = buf[h.StringsOff:h.LocalNamesOff]

	nlocalnames := int(h.NArgs) + int(h.NLocals)
	c.LocalNames = make([]uint32, nlocalnames)
	off = int(h.LocalNamesOff)
	for i := range c.LocalNames {
		c.LocalNames[i] = binary.LittleEndian.Uint32(buf[off:])
		off += 4
	}

	return c, nil
}
