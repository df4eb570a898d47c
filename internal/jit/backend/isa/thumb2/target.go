package thumb2

import (
	"fmt"

	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
)

// target implements lir.Target.
type target struct{}

var _ lir.Target = target{}

func descriptorOf(op lir.Opcode) *descriptor {
	if op < 0 || op >= opcodeEnd {
		panic(fmt.Sprintf("BUG: invalid thumb2 opcode %d", op))
	}
	return &encodings[op]
}

// Flags implements lir.Target.
func (target) Flags(op lir.Opcode) lir.Flags { return descriptorOf(op).flags }

// Size implements lir.Target.
func (target) Size(op lir.Opcode) int { return descriptorOf(op).size }

// Fixup implements lir.Target.
func (target) Fixup(op lir.Opcode) lir.FixupKind { return descriptorOf(op).fixup }

// Name implements lir.Target.
func (target) Name(op lir.Opcode) string { return descriptorOf(op).name }

// RegMask implements lir.Target.
func (target) RegMask(reg int32) lir.ResourceMask { return regMask(reg) }

// PCMask implements lir.Target.
func (target) PCMask() lir.ResourceMask { return lir.Bit(int(PC)) }

// SetupTargetResourceMasks implements lir.Target.
func (target) SetupTargetResourceMasks(n *lir.Node, flags lir.Flags, use, def *lir.ResourceMask) {
	if flags.Any(lir.RegDefSP) {
		def.SetBit(int(SP))
	}
	if flags.Any(lir.RegUseSP) {
		use.SetBit(int(SP))
	}
	if flags.Any(lir.RegDefList0) {
		def.SetBits(lir.RawMask(uint64(uint32(n.Operands[0]))))
	}
	if flags.Any(lir.RegDefList1) {
		def.SetBits(lir.RawMask(uint64(uint32(n.Operands[1]))))
	}
	if flags.Any(lir.RegDefFPCSList0) {
		def.SetBits(fpRegList(n.Operands[0], n.Operands[1]))
	}
	if flags.Any(lir.RegDefFPCSList2) {
		def.SetBits(fpRegList(n.Operands[1], n.Operands[2]))
	}
	if flags.Any(lir.RegUseList0) {
		use.SetBits(lir.RawMask(uint64(uint32(n.Operands[0]))))
	}
	if flags.Any(lir.RegUseList1) {
		use.SetBits(lir.RawMask(uint64(uint32(n.Operands[1]))))
	}
	if flags.Any(lir.RegUseFPCSList0) {
		use.SetBits(fpRegList(n.Operands[0], n.Operands[1]))
	}
	if flags.Any(lir.RegUseFPCSList2) {
		use.SetBits(fpRegList(n.Operands[1], n.Operands[2]))
	}
	if flags.Any(lir.RegUsePC) {
		use.SetBit(int(PC))
	}
	// Everything may be conditionally skipped inside an IT block.
	if flags.Any(lir.IsIT) {
		*def = lir.EncodeAll
	}
	// The 16-bit push and pop use bit 8 of the list for lr and pc.
	r8 := regMask(R8)
	switch {
	case n.Opcode == ThumbPush && use.Intersects(r8):
		use.ClearBits(r8)
		use.SetBit(int(LR))
	case n.Opcode == ThumbPop && def.Intersects(r8):
		def.ClearBits(r8)
		def.SetBit(int(PC))
	}
	if flags.Any(lir.RegDefLR) {
		def.SetBit(int(LR))
	}
}

// fpRegList returns the mask of count consecutive single registers from first.
func fpRegList(first, count int32) lir.ResourceMask {
	return lir.Bits(fpReg0+int(regNum(first)), int(count))
}

// RegCopy implements lir.Target.
func (target) RegCopy(dst, src int32) (lir.Opcode, []int32) {
	return regCopyOpcode(dst, src), []int32{dst, src}
}

func regCopyOpcode(dst, src int32) lir.Opcode {
	if isFPReg(dst) || isFPReg(src) {
		switch {
		case isDoubleReg(dst):
			return Thumb2Vmovd
		case isSingleReg(dst) && isSingleReg(src):
			return Thumb2Vmovs
		case isSingleReg(dst):
			return Thumb2Fmsr
		default:
			return Thumb2Fmrs
		}
	}
	switch {
	case isLowReg(dst) && isLowReg(src):
		return ThumbMovRR
	case !isLowReg(dst) && !isLowReg(src):
		return ThumbMovRRH2H
	case isLowReg(dst):
		return ThumbMovRRH2L
	default:
		return ThumbMovRRL2H
	}
}

// SameRegClass implements lir.Target.
func (target) SameRegClass(a, b int32) bool {
	return isDoubleReg(a) == isDoubleReg(b) && isSingleReg(a) == isSingleReg(b)
}

// memAccess describes the address of a load or store with a base register
// and an immediate displacement.
type memAccess struct {
	base, disp int32
	width      int
}

// accessOf returns the address of n, or ok=false if n is not a base plus
// immediate access.
func accessOf(n *lir.Node) (a memAccess, ok bool) {
	ops := &n.Operands
	switch n.Opcode {
	case ThumbLdrRRI5, ThumbStrRRI5:
		return memAccess{base: ops[1], disp: ops[2] * 4, width: 4}, true
	case ThumbLdrhRRI5, ThumbStrhRRI5:
		return memAccess{base: ops[1], disp: ops[2] * 2, width: 2}, true
	case ThumbLdrbRRI5, ThumbStrbRRI5:
		return memAccess{base: ops[1], disp: ops[2], width: 1}, true
	case ThumbLdrSpRel, ThumbStrSpRel:
		return memAccess{base: SP, disp: ops[2] * 4, width: 4}, true
	case Thumb2LdrRRI12, Thumb2StrRRI12:
		return memAccess{base: ops[1], disp: ops[2], width: 4}, true
	case Thumb2LdrRRI8Predec, Thumb2StrRRI8Predec:
		return memAccess{base: ops[1], disp: -ops[2], width: 4}, true
	case Thumb2LdrhRRI12, Thumb2LdrshRRI12, Thumb2StrhRRI12:
		return memAccess{base: ops[1], disp: ops[2], width: 2}, true
	case Thumb2LdrbRRI12, Thumb2LdrsbRRI12, Thumb2StrbRRI12:
		return memAccess{base: ops[1], disp: ops[2], width: 1}, true
	case Thumb2Vldrs, Thumb2Vstrs:
		return memAccess{base: ops[1], disp: ops[2] * 4, width: 4}, true
	case Thumb2Vldrd, Thumb2Vstrd:
		return memAccess{base: ops[1], disp: ops[2] * 4, width: 8}, true
	case Thumb2LdrdI8, Thumb2StrdI8:
		return memAccess{base: ops[2], disp: ops[3] * 4, width: 8}, true
	}
	return memAccess{}, false
}

// SameMemAccess implements lir.Target.
func (target) SameMemAccess(a, b *lir.Node) bool {
	am, ok := accessOf(a)
	if !ok {
		return false
	}
	bm, ok := accessOf(b)
	return ok && am == bm
}

// Format implements lir.Target.
func (target) Format(n *lir.Node) string {
	d := descriptorOf(n.Opcode)
	name := expandFormat(d.name, n.Operands, n.Offset)
	if d.format == "" {
		return name
	}
	return name + " " + expandFormat(d.format, n.Operands, n.Offset)
}
