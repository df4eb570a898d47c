package thumb2

import "math/bits"

// ModifiedImmediate returns the 12-bit Thumb2 modified immediate encoding of
// value, or -1 if value cannot be expressed as one.
func ModifiedImmediate(value uint32) int32 {
	b0 := value & 0xff
	// Zero must take the 0:000:00000000 form.
	if value <= 0xff {
		return int32(b0)
	}
	if value == b0<<16|b0 {
		return int32(0x100 | b0)
	}
	if value == b0<<24|b0<<16|b0<<8|b0 {
		return int32(0x300 | b0)
	}
	b0 = value >> 8 & 0xff
	if value == b0<<24|b0<<8 {
		return int32(0x200 | b0)
	}
	// A rotated run of at most eight significant bits.
	leading := bits.LeadingZeros32(value)
	trailing := bits.TrailingZeros32(value)
	if leading+trailing < 24 {
		return -1
	}
	// Left-justify and drop the top bit, which is known to be one.
	value <<= uint(leading + 1)
	value >>= 25
	return int32(value) | int32(8+leading)<<7
}

// ExpandImmediate is the inverse of ModifiedImmediate.
func ExpandImmediate(encoded int32) uint32 {
	v := uint32(encoded)
	b := v & 0xff
	switch v & 0xf00 >> 8 {
	case 0:
		return b
	case 1:
		return b<<16 | b
	case 2:
		return b<<24 | b<<8
	case 3:
		return b<<24 | b<<16 | b<<8 | b
	}
	b = (b | 0x80) << 24
	return b >> ((v&0xf80)>>7 - 8)
}

// EncodeImmSingle returns the 8-bit VFP immediate of the float32 with bit
// pattern value, or -1 if it has none.
func EncodeImmSingle(value uint32) int32 {
	bitA := value & 0x80000000 >> 31
	notBitB := value & 0x40000000 >> 30
	bitB := value & 0x20000000 >> 29
	bSmear := value & 0x3e000000 >> 25
	slice := value & 0x01f80000 >> 19
	if value&0x0007ffff != 0 {
		return -1
	}
	if bitB != 0 {
		if notBitB != 0 || bSmear != 0x1f {
			return -1
		}
	} else if notBitB != 1 || bSmear != 0 {
		return -1
	}
	return int32(bitA<<7 | bitB<<6 | slice)
}

// EncodeImmDouble returns the 8-bit VFP immediate of the float64 with bit
// pattern value, or -1 if it has none.
func EncodeImmDouble(value uint64) int32 {
	bitA := value & 0x8000000000000000 >> 63
	notBitB := value & 0x4000000000000000 >> 62
	bitB := value & 0x2000000000000000 >> 61
	bSmear := value & 0x3fc0000000000000 >> 54
	slice := value & 0x003f000000000000 >> 48
	if value&0x0000ffffffffffff != 0 {
		return -1
	}
	if bitB != 0 {
		if notBitB != 0 || bSmear != 0xff {
			return -1
		}
	} else if notBitB != 1 || bSmear != 0 {
		return -1
	}
	return int32(bitA<<7 | bitB<<6 | slice)
}

// itMask returns the mask field of an IT block for firstCond followed by
// guide, a string of up to three 'T' (then) or 'E' (else) characters.
func itMask(firstCond Cond, guide string) int32 {
	if len(guide) > 3 {
		panic("BUG: IT block longer than four instructions")
	}
	var mask [3]int32
	// The then/else bits are relative to the low bit of the condition.
	bit := int32(firstCond) & 1
	for i := 0; i < len(guide); i++ {
		switch guide[i] {
		case 'T':
			mask[i] = bit
		case 'E':
			mask[i] = bit ^ 1
		default:
			panic("BUG: invalid IT guide " + guide)
		}
	}
	return mask[0]<<3 | mask[1]<<2 | mask[2]<<1 | 1<<(3-len(guide))
}
