package thumb2

import (
	"fmt"
	"math/bits"

	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
)

// FrameSize implements backend.Machine.
func (m *Machine) FrameSize() uint32 {
	if !m.frameReady {
		panic("BUG: FrameSize before SetupFrame")
	}
	return m.frameSize
}

// spillSize returns the size of the callee-save area, lr included.
func (m *Machine) spillSize() uint32 {
	return uint32(m.numCoreSpills+m.numFPSpills) * wordSize
}

// SetupFrame implements backend.Machine.
//
// It lays out the frame from the promotion, which gets lr and a contiguous
// range of s16 upwards added to its spill masks, fills in the displacement
// of every frame slot access, then inserts the prologue after each method
// entry marker and the epilogue after each method exit marker.
func (m *Machine) SetupFrame() {
	if m.frameReady {
		panic("BUG: SetupFrame called twice")
	}
	if m.info.NumOuts > m.cfg.MaxOuts() {
		panic(fmt.Sprintf("BUG: %d outgoing words exceed the limit of %d", m.info.NumOuts, m.cfg.MaxOuts()))
	}
	p := m.pool.Promotion()
	if p == nil {
		p = m.pool.DoPromotion(m.info.NumRegs, nil)
	}

	m.coreSpillMask = p.CoreSpillMask | 1<<uint(LR)
	p.CoreSpillMask = m.coreSpillMask
	m.numCoreSpills = bits.OnesCount32(m.coreSpillMask)

	// vpush takes a range, so everything from s16 to the highest promoted
	// single is saved.
	if p.FPSpillMask != 0 {
		m.numFPSpills = bits.Len32(p.FPSpillMask) - fpCalleeSaveBase
		m.fpSpillMask = (1<<uint(m.numFPSpills) - 1) << fpCalleeSaveBase
		p.FPSpillMask = m.fpSpillMask
	}

	words := uint32(m.numCoreSpills+m.numFPSpills) + 1 /* filler */ +
		uint32(m.info.NumLocals()) + uint32(m.info.NumOuts) + 1 /* Method* */
	m.frameSize = (words*wordSize + frameAlignment - 1) &^ (frameAlignment - 1)
	m.frameReady = true

	m.resolveFrameAccesses()

	for n := m.First(); n != nil; n = n.Next() {
		switch n.Opcode {
		case lir.PseudoMethodEntry:
			m.insertAfter(n, m.genPrologue)
		case lir.PseudoMethodExit:
			m.insertAfter(n, m.genEpilogue)
		}
	}
}

// fpCalleeSaveBase is the number of the first callee-save single, s16.
const fpCalleeSaveBase = 16

// VRegOffset returns the offset from sp of the frame slot of vreg.
// Ins live in the caller frame, above the Method* slot at the entry sp.
func (m *Machine) VRegOffset(vreg int32) int32 {
	if !m.frameReady {
		panic("BUG: VRegOffset before SetupFrame")
	}
	numLocals := int32(m.info.NumLocals())
	if vreg >= numLocals {
		return int32(m.frameSize) + wordSize + (vreg-numLocals)*wordSize
	}
	localsBase := int32(m.frameSize) - int32(m.spillSize()) - wordSize /* filler */ - numLocals*wordSize
	return localsBase + vreg*wordSize
}

// OutOffset returns the offset from sp of outgoing argument word i.
func (m *Machine) OutOffset(i int32) int32 {
	return wordSize + i*wordSize
}

// resolveFrameAccesses fills in the displacement of the loads and stores
// annotated as frame slot accesses. They are found by walking the list since
// load hoisting may have replaced the nodes created by the frame helpers.
func (m *Machine) resolveFrameAccesses() {
	for n := m.First(); n != nil; n = n.Next() {
		if n.IsNop || n.Opcode.IsPseudo() {
			continue
		}
		flags := descriptorOf(n.Opcode).flags
		var mem *lir.ResourceMask
		switch {
		case flags.Any(lir.IsLoad):
			mem = n.UseMask
		case flags.Any(lir.IsStore):
			mem = n.DefMask
		default:
			continue
		}
		if *mem == lir.EncodeAll || !mem.HasBit(lir.ResourceDalvikReg) {
			continue
		}
		off := m.VRegOffset(lir.AliasInfoReg(n.AliasInfo))
		m.patchFrameAccess(n, off)
	}
}

func (m *Machine) patchFrameAccess(n *lir.Node, off int32) {
	switch n.Opcode {
	case Thumb2LdrRRI12, Thumb2StrRRI12:
		if off >= 4096 {
			panic(fmt.Sprintf("BUG: frame slot at %d out of range of %s", off, formatNode(n)))
		}
		// The short sp-relative forms are enough for most frames.
		if isLowReg(n.Operands[0]) && off <= 1020 {
			op := ThumbLdrSpRel
			if n.Opcode == Thumb2StrRRI12 {
				op = ThumbStrSpRel
			}
			n.Opcode = op
			n.Size = uint8(descriptorOf(op).size)
			n.Operands[1], n.Operands[2] = SP, off>>2
			return
		}
		n.Operands[2] = off
	case Thumb2Vldrs, Thumb2Vstrs, Thumb2Vldrd, Thumb2Vstrd:
		if off > 1020 {
			panic(fmt.Sprintf("BUG: frame slot at %d out of range of %s", off, formatNode(n)))
		}
		n.Operands[2] = off >> 2
	case Thumb2LdrdI8, Thumb2StrdI8:
		if off > 1020 {
			panic(fmt.Sprintf("BUG: frame slot at %d out of range of %s", off, formatNode(n)))
		}
		n.Operands[3] = off >> 2
	default:
		panic(fmt.Sprintf("BUG: unexpected frame access %s", formatNode(n)))
	}
}

// formatNode renders the single node n.
func formatNode(n *lir.Node) string {
	if n.Opcode.IsPseudo() {
		return lir.PseudoName(n.Opcode)
	}
	return target{}.Format(n)
}

// insertAfter runs gen, which appends nodes, and moves what it appended
// right after anchor.
func (m *Machine) insertAfter(anchor *lir.Node, gen func()) {
	last := m.Last()
	saved := m.DalvikOffset()
	m.SetDalvikOffset(anchor.DalvikOffset)
	gen()
	m.SetDalvikOffset(saved)
	m.MoveTailAfter(anchor, last.Next())
}

// genPrologue emits
//
//	push {<core spills>, lr}
//	vpush {s16-s<15+numFPSpills>}
//	sub sp, sp, #(frameSize - spills)
//	str r0, [sp]
func (m *Machine) genPrologue() {
	if list, ok := shortList(m.coreSpillMask, LR); ok {
		m.NewLIR1(ThumbPush, list)
	} else {
		m.NewLIR1(Thumb2Push, int32(m.coreSpillMask))
	}
	if m.numFPSpills > 0 {
		m.NewLIR2(Thumb2Vpush, S(fpCalleeSaveBase), int32(m.numFPSpills))
	}
	m.adjustSP(-int32(m.frameSize - m.spillSize()))
	m.NewLIR3(ThumbStrSpRel, R0, SP, methodPointerOffset)
}

// genEpilogue is the mirror of genPrologue, returning through the pop of pc.
func (m *Machine) genEpilogue() {
	m.adjustSP(int32(m.frameSize - m.spillSize()))
	if m.numFPSpills > 0 {
		m.NewLIR2(Thumb2Vpop, S(fpCalleeSaveBase), int32(m.numFPSpills))
	}
	popMask := m.coreSpillMask&^(1<<uint(LR)) | 1<<uint(PC)
	if list, ok := shortList(popMask, PC); ok {
		m.NewLIR1(ThumbPop, list)
	} else {
		m.NewLIR1(Thumb2Pop, int32(popMask))
	}
}

// shortList returns the register list of the 16-bit push or pop for mask,
// where extra (lr or pc) takes bit 8. ok is false if mask has another
// register above r7.
func shortList(mask uint32, extra int32) (int32, bool) {
	rest := mask &^ (1 << uint(extra))
	if rest&^0xff != 0 {
		return 0, false
	}
	list := int32(rest)
	if mask&(1<<uint(extra)) != 0 {
		list |= 1 << 8
	}
	return list, true
}

// adjustSP adds delta to sp. r12 is scratch at the method boundaries.
func (m *Machine) adjustSP(delta int32) {
	abs := delta
	if abs < 0 {
		abs = -abs
	}
	switch {
	case delta == 0:
	case abs <= 508 && abs&3 == 0:
		if delta < 0 {
			m.NewLIR1(ThumbSubSpI7, abs>>2)
		} else {
			m.NewLIR1(ThumbAddSpI7, abs>>2)
		}
	case abs < 4096:
		if delta < 0 {
			m.NewLIR3(Thumb2SubRRI12, SP, SP, abs)
		} else {
			m.NewLIR3(Thumb2AddRRI12, SP, SP, abs)
		}
	default:
		m.LoadConstantNoClobber(R12, delta)
		m.NewLIR2(ThumbAddRRHH, SP, R12)
	}
}

// GenEntrySequence marks where the prologue goes. It must be the first
// thing emitted for a method.
func (m *Machine) GenEntrySequence() *lir.Node {
	return m.NewLIR0(lir.PseudoMethodEntry)
}

// GenExitSequence marks a return. The epilogue inserted there pops the
// return address into pc.
func (m *Machine) GenExitSequence() *lir.Node {
	return m.NewLIR0(lir.PseudoMethodExit)
}
