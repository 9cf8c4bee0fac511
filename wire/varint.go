package wire

// maxVarintLen is the longest encoding of a 64-bit value.
const maxVarintLen = 10

// AppendVarint appends the varint encoding of v to buf.
func AppendVarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// ConsumeVarint decodes a varint from the start of b and returns the value
// and the number of bytes read.
func ConsumeVarint(b []byte) (uint64, int, error) {
	var result uint64
	for i := 0; i < maxVarintLen; i++ {
		if i >= len(b) {
			return 0, 0, ErrTruncatedInput
		}
		c := b[i]
		// the tenth group only has room for bit 63
		if i == maxVarintLen-1 && c > 1 {
			return 0, 0, ErrVarintOverflow
		}
		result |= uint64(c&0x7F) << (7 * uint(i))
		if c&0x80 == 0 {
			return result, i + 1, nil
		}
	}
	return 0, 0, ErrVarintOverflow
}

// VarintSize returns the number of bytes AppendVarint writes for v.
func VarintSize(v uint64) int {
	n := 1
	for ; v >= 0x80; v >>= 7 {
		n++
	}
	return n
}

// DecodeZigZag32 maps a zigzag varint back to a sint32.
func DecodeZigZag32(encoded uint64) int32 {
	return int32((uint32(encoded) >> 1) ^ uint32(-int32(encoded&1)))
}

// DecodeZigZag64 maps a zigzag varint back to a sint64.
func DecodeZigZag64(encoded uint64) int64 {
	return int64((encoded >> 1) ^ uint64(-int64(encoded&1)))
}

func EncodeZigZag32(v int32) uint64 {
	return uint64((uint32(v) << 1) ^ uint32(v>>31))
}

func EncodeZigZag64(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}
