package thumb2

import (
	"fmt"

	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
)

// fieldKind tells how an operand is scattered into the instruction bits.
type fieldKind byte

const (
	// fieldUnused ends the operand list of an instruction.
	fieldUnused fieldKind = iota
	// fieldBitBlt copies the operand into bits hi..lo.
	fieldBitBlt
	// fieldDfp is a double register: D:Vd with D at bit hi and Vd at lo.
	fieldDfp
	// fieldSfp is a single register: Vd:D with D at bit hi and Vd at lo.
	fieldSfp
	// fieldModImm is the i:imm3:imm8 modified immediate.
	fieldModImm
	// fieldImm16 is the imm4:i:imm3:imm8 plain 16-bit immediate.
	fieldImm16
	// fieldImm6 is the i:imm5 offset of cbz/cbnz.
	fieldImm6
	// fieldImm12 is the i:imm3:imm8 plain 12-bit immediate.
	fieldImm12
	// fieldShift is an EncodeShift value for a register operand.
	fieldShift
	// fieldLsb is the imm3:imm2 lsb of a bitfield extract.
	fieldLsb
	// fieldBWidth is the width of a bitfield extract, encoded minus one.
	fieldBWidth
	// fieldShift5 is the imm3:imm2 shift amount of a shift by immediate.
	fieldShift5
	// fieldBrOffset is the S:J2:J1:imm6:imm11 conditional branch offset.
	fieldBrOffset
	// fieldFPImm is the imm4H:imm4L VFP immediate.
	fieldFPImm
	// fieldOff24 is the S:I1:I2:imm10:imm11 unconditional branch offset.
	fieldOff24
	// fieldSkip is an operand with no encoding, e.g. an implicit sp.
	fieldSkip
)

type field struct {
	kind   fieldKind
	hi, lo int8
}

func bb(hi, lo int8) field     { return field{kind: fieldBitBlt, hi: hi, lo: lo} }
func dfp(hi, lo int8) field    { return field{kind: fieldDfp, hi: hi, lo: lo} }
func sfp(hi, lo int8) field    { return field{kind: fieldSfp, hi: hi, lo: lo} }
func fpImm(hi, lo int8) field  { return field{kind: fieldFPImm, hi: hi, lo: lo} }
func bWidth(hi, lo int8) field { return field{kind: fieldBWidth, hi: hi, lo: lo} }

var (
	unused   = field{}
	skip     = field{kind: fieldSkip, hi: -1, lo: -1}
	modImm   = field{kind: fieldModImm, hi: -1, lo: -1}
	imm12    = field{kind: fieldImm12, hi: -1, lo: -1}
	imm16    = field{kind: fieldImm16, hi: -1, lo: -1}
	imm6     = field{kind: fieldImm6, hi: -1, lo: -1}
	shift    = field{kind: fieldShift, hi: -1, lo: -1}
	shift5   = field{kind: fieldShift5, hi: -1, lo: -1}
	lsb      = field{kind: fieldLsb, hi: -1, lo: -1}
	brOffset = field{kind: fieldBrOffset, hi: -1, lo: -1}
	off24    = field{kind: fieldOff24, hi: -1, lo: -1}
)

func bitMask(hi int8) uint32 {
	if hi >= 31 {
		return 0xffffffff
	}
	return 1<<uint(hi+1) - 1
}

// encode returns the bits of operand placed according to f.
func (f field) encode(operand int32) uint32 {
	op := uint32(operand)
	switch f.kind {
	case fieldBitBlt:
		return (op << uint(f.lo)) & bitMask(f.hi)
	case fieldDfp:
		n := uint32(regNum(operand))
		return (n&0x10)>>4<<uint(f.hi) | (n&0x0f)<<uint(f.lo)
	case fieldSfp:
		n := uint32(regNum(operand))
		return (n&0x1)<<uint(f.hi) | (n&0x1e)>>1<<uint(f.lo)
	case fieldModImm, fieldImm12:
		return (op&0x800)>>11<<26 | (op&0x700)>>8<<12 | op&0x0ff
	case fieldImm16:
		return (op&0x0800)>>11<<26 | (op&0xf000)>>12<<16 | (op&0x0700)>>8<<12 | op&0x0ff
	case fieldImm6:
		return (op&0x20)>>5<<9 | (op&0x1f)<<3
	case fieldShift:
		return (op&0x70)>>4<<12 | (op&0x0f)<<4
	case fieldLsb, fieldShift5:
		return (op&0x1c)>>2<<12 | (op&0x3)<<6
	case fieldBWidth:
		return ((op - 1) << uint(f.lo)) & bitMask(f.hi)
	case fieldBrOffset:
		return (op&0x80000)>>19<<26 |
			(op&0x40000)>>18<<11 |
			(op&0x20000)>>17<<13 |
			(op&0x1f800)>>11<<16 |
			op&0x007ff
	case fieldFPImm:
		return (op&0xf0)>>4<<uint(f.hi) | (op&0x0f)<<uint(f.lo)
	case fieldOff24:
		s := op >> 31 & 1
		i1 := op >> 22 & 1
		i2 := op >> 21 & 1
		imm10 := op >> 11 & 0x3ff
		imm11 := op & 0x7ff
		j1 := (i1 ^ s ^ 1) & 1
		j2 := (i2 ^ s ^ 1) & 1
		return s<<26 | j1<<13 | j2<<11 | imm10<<16 | imm11
	case fieldSkip:
		return 0
	}
	panic(fmt.Sprintf("BUG: invalid field kind %d", f.kind))
}

func signExtend(v uint32, bits uint) int32 {
	return int32(v<<(32-bits)) >> (32 - bits)
}

// decode extracts the operand placed according to f from bits. Register
// fields of VFP operands come back with their class flag. Offsets of
// branches are sign extended when signed is set.
func (f field) decode(bits uint32, signed bool) int32 {
	switch f.kind {
	case fieldBitBlt:
		width := uint(f.hi-f.lo) + 1
		v := bits & bitMask(f.hi) >> uint(f.lo)
		if signed {
			return signExtend(v, width)
		}
		return int32(v)
	case fieldDfp:
		return D(int(bits>>uint(f.hi)&1<<4 | bits>>uint(f.lo)&0xf))
	case fieldSfp:
		return S(int(bits>>uint(f.lo)&0xf<<1 | bits>>uint(f.hi)&1))
	case fieldModImm, fieldImm12:
		return int32(bits>>26&1<<11 | bits>>12&7<<8 | bits&0xff)
	case fieldImm16:
		return int32(bits>>16&0xf<<12 | bits>>26&1<<11 | bits>>12&7<<8 | bits&0xff)
	case fieldImm6:
		return int32(bits>>9&1<<5 | bits>>3&0x1f)
	case fieldShift:
		return int32(bits>>12&7<<4 | bits>>4&0xf)
	case fieldLsb, fieldShift5:
		return int32(bits>>12&7<<2 | bits>>6&3)
	case fieldBWidth:
		return int32(bits&bitMask(f.hi)>>uint(f.lo)) + 1
	case fieldBrOffset:
		v := bits>>26&1<<19 | bits>>11&1<<18 | bits>>13&1<<17 | bits>>16&0x3f<<11 | bits&0x7ff
		return signExtend(v, 20)
	case fieldFPImm:
		return int32(bits>>uint(f.hi)&0xf<<4 | bits>>uint(f.lo)&0xf)
	case fieldOff24:
		s := bits >> 26 & 1
		j1 := bits >> 13 & 1
		j2 := bits >> 11 & 1
		i1 := (j1 ^ s ^ 1) & 1
		i2 := (j2 ^ s ^ 1) & 1
		v := s<<23 | i1<<22 | i2<<21 | bits>>16&0x3ff<<11 | bits&0x7ff
		return signExtend(v, 24)
	case fieldSkip:
		return 0
	}
	panic(fmt.Sprintf("BUG: invalid field kind %d", f.kind))
}

// DecodeOperands recovers the operands of an instruction of opcode from its
// encoded bits. Operands without an encoding (fieldSkip) come back as zero.
func DecodeOperands(op lir.Opcode, bits uint32) (operands [4]int32) {
	d := &encodings[op]
	// The 16-bit branches hold a signed halfword offset in operand 0.
	signedOffset := d.fixup == lir.FixupCondBranch || d.fixup == lir.FixupT1Branch
	for i, f := range d.fields {
		if f.kind == fieldUnused {
			break
		}
		operands[i] = f.decode(bits, signedOffset && i == 0 && f.kind == fieldBitBlt)
	}
	return
}
