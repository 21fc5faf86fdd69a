package internal

import (
	"encoding/binary"
	"fmt"
)

// programMagic heads a serialized multi-chunk program. Each chunk's blob is
// Chunk.Marshal's format; the container contributes only the order and the
// handler names, which are deliberately not part of the per-chunk wire
// format.
var programMagic = [4]byte{'C', 'A', 'S', 'T'}

const programVersion = 1

// MarshalProgram serializes an ordered chunk list. Layout: magic, u32
// version, u32 count, then per chunk a u32 name length, the name bytes
// padded to 4, a u32 blob length, and the blob padded to 4.
func MarshalProgram(chunks []*Chunk) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, programMagic[:]...)
	buf = appendU32(buf, programVersion)
	buf = appendU32(buf, uint32(len(chunks)))
	for _, c := range chunks {
		buf = appendU32(buf, uint32(len(c.Name)))
		buf = append(buf, c.Name...)
		buf = pad4(buf)
		blob := c.Marshal()
		buf = appendU32(buf, uint32(len(blob)))
		buf = append(buf, blob...)
		buf = pad4(buf)
	}
	return buf
}

func appendU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func pad4(buf []byte) []byte {
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

// UnmarshalProgram deserializes a program produced by MarshalProgram.
func UnmarshalProgram(buf []byte) ([]*Chunk, error) {
	if len(buf) < 12 || [4]byte{buf[0], buf[1], buf[2], buf[3]} != programMagic {
		return nil, fmt.Errorf("cast: not a compiled program")
	}
	if v := binary.LittleEndian.Uint32(buf[4:]); v != programVersion {
		return nil, fmt.Errorf("cast: unsupported program version %d", v)
	}
	count := int(binary.LittleEndian.Uint32(buf[8:]))
	off := 12
	chunks := make([]*Chunk, 0, count)
	for i := 0; i < count; i++ {
		if off+4 > len(buf) {
			return nil, fmt.Errorf("cast: truncated program at chunk %d", i)
		}
		nameLen := int(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
		if off+nameLen > len(buf) {
			return nil, fmt.Errorf("cast: truncated program at chunk %d", i)
		}
		name := string(buf[off : off+nameLen])
		off = align4(off + nameLen)
		if off+4 > len(buf) {
			return nil, fmt.Errorf("cast: truncated program at chunk %d", i)
		}
		blobLen := int(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
		if off+blobLen > len(buf) {
			return nil, fmt.Errorf("cast: truncated program at chunk %d", i)
		}
		c, err := UnmarshalChunk(name, buf[off:off+blobLen])
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
		off = align4(off + blobLen)
	}
	return chunks, nil
}

func align4(n int) int {
	return (n + 3) &^ 3
}
