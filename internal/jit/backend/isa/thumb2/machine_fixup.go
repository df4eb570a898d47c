package thumb2

import (
	"fmt"
	"math/bits"

	"github.com/davecgh/go-spew/spew"

	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
	"github.com/thumbjit/thumbjit/internal/jit/jitapi"
)

// maxAssemblerRetries bounds the number of fixup passes. Every retry grows
// or drops some instruction for good, so hitting it means a resolver bug.
var maxAssemblerRetries = 50

// fixupResult is what resolving one node tells the pass driver.
type fixupResult struct {
	// adjust is the change of the code size caused by the node.
	adjust int32
	// retry asks for another pass once this one is done.
	retry bool
	// prev, if set, is the fixup node to continue the walk after instead of
	// the resolved one. It is set when new nodes were linked after it.
	prev *lir.Node
}

// resolveFixups runs fixup passes over the fixup list until every layout
// dependent encoding is final.
func (m *Machine) resolveFixups() {
	var generation uint8
	for passes := 0; ; passes++ {
		if passes > maxAssemblerRetries {
			panic(fmt.Sprintf("BUG: assembler did not converge after %d passes\n%s\n%s",
				passes, m.Dump(), spewConfig.Sdump(m.literals)))
		}
		generation ^= 1
		adjust, retry := m.fixupPass(generation)
		if jitapi.PrintFixupPasses {
			fmt.Printf("fixup pass %d: code size %d -> %d, retry=%v\n", passes, m.codeSize, m.codeSize+adjust, retry)
		}
		m.codeSize += adjust
		m.assignDataOffsets()
		if !retry {
			return
		}
	}
}

var spewConfig = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, MaxDepth: 2}

// fixupPass walks the fixup list once. Offsets are updated as the walk goes;
// nodes not visited yet in this pass are still off by the running
// adjustment, which the generation bit tells apart.
func (m *Machine) fixupPass(generation uint8) (adjust int32, retry bool) {
	var prev *lir.Node
	for n := m.FirstFixup(); n != nil; {
		n.Offset += adjust
		n.Generation = generation
		r := m.fixup(n, prev, adjust, retry || adjust != 0)
		if jitapi.FixupLoggingEnabled && (r.adjust != 0 || r.retry) {
			fmt.Printf("\t%#x %s: size %+d, retry=%v\n", n.Offset, target{}.Format(n), r.adjust, r.retry)
		}
		adjust += r.adjust
		retry = retry || r.retry
		if r.prev != nil {
			prev = r.prev
		} else {
			prev = n
		}
		n = prev.PCRelNext()
	}
	// Estimates made after a size change are only final on a clean pass.
	retry = retry || adjust != 0
	return
}

// targetOffset returns the offset of t as seen from n in the current pass.
// Data never gets visited, so its offset is always one pass behind.
func targetOffset(n, t *lir.Node, adjust int32) int32 {
	if t.Opcode == lir.PseudoLiteral || t.Generation != n.Generation {
		return t.Offset + adjust
	}
	return t.Offset
}

func (m *Machine) tableOf(wrapped int32) *lir.EmbeddedData {
	if wrapped < 0 {
		return nil
	}
	return m.UnwrapPointer(wrapped).(*lir.EmbeddedData)
}

// setOpcode changes the opcode of n and returns the size delta.
func setOpcode(n *lir.Node, op lir.Opcode) int32 {
	old := int32(n.Size)
	n.Opcode = op
	n.Size = uint8(descriptorOf(op).size)
	return int32(n.Size) - old
}

// fixup resolves n. pending reports that an earlier node of the pass changed
// size or asked for a retry, so offsets of data are estimates.
func (m *Machine) fixup(n, prev *lir.Node, adjust int32, pending bool) (r fixupResult) {
	switch n.Fixup {
	case lir.FixupNone, lir.FixupLabel:
	case lir.FixupLoad, lir.FixupVLoad:
		return m.fixupLoad(n, prev, adjust, pending)
	case lir.FixupCBxZ:
		return m.fixupCBxZ(n, prev, adjust)
	case lir.FixupPushPop:
		list := uint32(n.Operands[0])
		if bits.OnesCount32(list) == 1 {
			op := Thumb2Push1
			if n.Opcode == Thumb2Pop {
				op = Thumb2Pop1
			}
			r.adjust = setOpcode(n, op)
			n.Operands[0] = int32(bits.TrailingZeros32(list))
			// Final: no need to unlink it.
			n.Fixup = lir.FixupNone
		}
	case lir.FixupCondBranch:
		delta := targetOffset(n, n.Target, adjust) - (n.Offset + 4)
		if n.Opcode == ThumbBCond && (delta > 254 || delta < -256) {
			r.adjust = setOpcode(n, Thumb2BCond)
			r.retry = true
		}
		n.Operands[0] = delta >> 1
	case lir.FixupT2Branch:
		delta := targetOffset(n, n.Target, adjust) - (n.Offset + 4)
		n.Operands[0] = delta >> 1
		if m.cfg.SafeOptimizations() && n.Operands[0] == 0 {
			r.adjust = m.dropBranch(n)
			r.retry = true
		}
	case lir.FixupT1Branch:
		delta := targetOffset(n, n.Target, adjust) - (n.Offset + 4)
		if delta > 2046 || delta < -2048 {
			r.adjust = setOpcode(n, Thumb2BUncond)
			n.Operands[0] = 0
			n.Fixup = lir.FixupT2Branch
			r.retry = true
			break
		}
		n.Operands[0] = delta >> 1
		// A branch to the next instruction.
		if m.cfg.SafeOptimizations() && n.Operands[0] == -1 {
			r.adjust = m.dropBranch(n)
			r.retry = true
		}
	case lir.FixupAdr:
		return m.fixupAdr(n, prev, adjust)
	case lir.FixupMovImmLST, lir.FixupMovImmHST:
		add := m.UnwrapPointer(n.Operands[2]).(*lir.Node)
		var targetDisp int32
		if tab := m.tableOf(n.Operands[3]); tab != nil {
			targetDisp = tab.Offset
		} else {
			targetDisp = n.Target.Offset
		}
		disp := targetDisp - (add.Offset + 4)
		if n.Fixup == lir.FixupMovImmLST {
			n.Operands[1] = disp & 0xffff
		} else {
			n.Operands[1] = disp >> 16 & 0xffff
		}
	case lir.FixupAlign4:
		required := n.Offset & 2
		if int32(n.Size) != required {
			r.adjust = required - int32(n.Size)
			n.Size = uint8(required)
			r.retry = true
		}
	default:
		panic(fmt.Sprintf("BUG: unhandled fixup kind %s on %s", n.Fixup, formatNode(n)))
	}
	return
}

// dropBranch turns the branch n into a nop. It stays in the fixup list.
func (m *Machine) dropBranch(n *lir.Node) int32 {
	n.Nop()
	n.Fixup = lir.FixupNone
	return -int32(n.Size)
}

// fixupLoad resolves a pc-relative literal load. When the literal is out of
// reach, an adr materializes its address and the load becomes a base plus
// offset one. While the pass is pending the literal offset may be off by a
// halfword, and the rounded down delta is good enough until the next pass.
func (m *Machine) fixupLoad(n, prev *lir.Node, adjust int32, pending bool) (r fixupResult) {
	if n.Fixup == lir.FixupVLoad && n.Operands[1] != PC {
		return
	}
	pc := (n.Offset + 4) &^ 3
	delta := targetOffset(n, n.Target, adjust) - pc
	if pending {
		delta &^= 3
	}
	if delta&3 != 0 || delta < 0 {
		panic(fmt.Sprintf("BUG: misplaced literal for %s: delta %d", formatNode(n), delta))
	}

	var outOfRange bool
	switch n.Opcode {
	case Thumb2LdrPcRel12:
		outOfRange = delta > 4091
	case Thumb2LdrdPcRel8, Thumb2Vldrs, Thumb2Vldrd:
		outOfRange = delta > 1020
	case ThumbLdrPcRel:
		if delta > 1020 {
			panic(fmt.Sprintf("BUG: literal out of range of %s", formatNode(n)))
		}
	}

	if !outOfRange {
		switch n.Opcode {
		case Thumb2Vldrs, Thumb2Vldrd, Thumb2LdrdPcRel8:
			n.Operands[2] = delta >> 2
		case Thumb2LdrPcRel12:
			n.Operands[1] = delta
		default:
			n.Operands[1] = delta >> 2
		}
		return
	}

	// vldr only has lr to spare, which is why it is declared to define it.
	base := LR
	if n.Opcode == Thumb2LdrPcRel12 || n.Opcode == Thumb2LdrdPcRel8 {
		base = n.Operands[0]
	}
	adr := m.RawLIR(n.DalvikOffset, Thumb2Adr, n.Target, base, 0, -1)
	adr.Offset = n.Offset
	adr.Fixup = lir.FixupAdr
	adr.Generation = n.Generation
	m.InsertLIRBefore(n, adr)
	n.Offset += int32(adr.Size)
	r.adjust = int32(adr.Size)
	// n is no longer pc-relative.
	m.ReplaceFixup(prev, n, adr)

	switch n.Opcode {
	case Thumb2LdrPcRel12:
		r.adjust += setOpcode(n, Thumb2LdrRRI12)
		n.Operands[1], n.Operands[2] = base, 0
	case Thumb2LdrdPcRel8:
		r.adjust += setOpcode(n, Thumb2LdrdI8)
		n.Operands[2], n.Operands[3] = base, 0
	default:
		n.Operands[1], n.Operands[2] = base, 0
	}
	n.Target = nil
	r.prev, r.retry = adr, true
	return
}

// fixupCBxZ resolves cbz/cbnz, which only branch forward by up to 126
// bytes. Anything else becomes cmp plus a conditional branch.
func (m *Machine) fixupCBxZ(n, prev *lir.Node, adjust int32) (r fixupResult) {
	delta := targetOffset(n, n.Target, adjust) - (n.Offset + 4)
	if delta >= 0 && delta <= 126 {
		n.Operands[1] = delta >> 1
		return
	}
	cond := CondEq
	if n.Opcode == Thumb2Cbnz {
		cond = CondNe
	}
	branch := m.RawLIR(n.DalvikOffset, ThumbBCond, n.Target, 0, int32(cond))
	m.InsertLIRAfter(n, branch)

	r.adjust = setOpcode(n, ThumbCmpRI8)
	n.Operands[1] = 0
	n.Target = nil

	branch.Offset = n.Offset + int32(n.Size)
	branch.Fixup = lir.FixupCondBranch
	branch.Generation = n.Generation
	r.adjust += int32(branch.Size)
	// n is no longer pc-relative.
	m.ReplaceFixup(prev, n, branch)
	r.prev, r.retry = branch, true
	return
}

// fixupAdr resolves adr, which reaches 4095 bytes forward. Beyond that the
// address is built as mov/movt of the displacement plus an add of pc.
func (m *Machine) fixupAdr(n, prev *lir.Node, adjust int32) (r fixupResult) {
	tab := m.tableOf(n.Operands[2])
	var targetDisp int32
	if tab != nil {
		targetDisp = tab.Offset + adjust
	} else {
		targetDisp = targetOffset(n, n.Target, adjust)
	}
	disp := targetDisp - ((n.Offset + 4) &^ 3)
	if disp >= 0 && disp < 4096 {
		n.Operands[1] = disp
		return
	}

	rd := n.Operands[0]
	self := m.WrapPointer(n)
	for _, op := range [...]lir.Opcode{Thumb2MovImm16LST, Thumb2MovImm16HST} {
		mov := m.RawLIR(n.DalvikOffset, op, n.Target, rd, 0, self, n.Operands[2])
		mov.Offset = n.Offset
		mov.Generation = n.Generation
		if op == Thumb2MovImm16LST {
			mov.Fixup = lir.FixupMovImmLST
		} else {
			mov.Fixup = lir.FixupMovImmHST
		}
		m.InsertLIRBefore(n, mov)
		n.Offset += int32(mov.Size)
		r.adjust += int32(mov.Size)
		m.InsertFixupBefore(prev, n, mov)
		prev = mov
	}

	add := ThumbAddRRHH
	if isLowReg(rd) {
		add = ThumbAddRRLH
	}
	r.adjust += setOpcode(n, add)
	n.Operands[1] = PC
	// Stays in the fixup list so that its offset is kept current for the
	// mov pair. The pair itself is resolved on the next pass.
	n.Fixup = lir.FixupNone
	r.retry = true
	return
}

// assignDataOffsets lays out the data region after the code: the literal
// pool, the switch tables, then the fill-array payloads.
func (m *Machine) assignDataOffsets() {
	off := (m.codeSize + 3) &^ 3
	for _, lit := range m.literals {
		lit.Offset = off
		off += wordSize
	}
	for _, tab := range m.switchTables {
		tab.Offset = off
		off += tab.Size()
	}
	for _, tab := range m.fillArrays {
		tab.Offset = off
		off = (off + tab.Size() + 3) &^ 3
	}
	m.dataSize = off
}
