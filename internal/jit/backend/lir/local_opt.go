package lir

import (
	"fmt"

	"github.com/thumbjit/thumbjit/internal/jit/jitapi"
)

// Hoisting heuristics. These are tuning values, not a machine model.
const (
	maxHoistDistance = 20
	ldldDistance     = 4
	ldLatency        = 2
)

// loadStoreFilter excludes the memory operations whose effect is too coarse
// to reason about: wide and exclusive accesses, register lists, IT blocks
// and branches.
func loadStoreFilter(f Flags) bool {
	return f.Has(IsQuadOp|IsStore) ||
		f.Has(IsQuadOp|IsLoad) ||
		f.Has(RegUse012) ||
		f.Has(RegDef01) ||
		f.Any(regListMask) ||
		f.Any(IsVolatile|IsBranch|IsIT)
}

// ApplyLocalOptimizations runs the enabled block-local passes over the whole list.
// Labels and safepoints are barriers, so the passes never look across blocks.
func (u *Unit[T]) ApplyLocalOptimizations(loadStoreElimination, loadHoisting bool) {
	if u.first == nil {
		return
	}
	if loadStoreElimination {
		u.ApplyLoadStoreElimination(u.first, u.last)
	}
	if loadHoisting {
		u.ApplyLoadHoisting(u.first, u.last)
	}
	if jitapi.PrintLIRAfterOpt {
		fmt.Printf("[[[[[[[[[[[[[[[[[[[[ LIR after local optimizations ]]]]]]]]]]]]]]]]]]]]\n%s\n", u.Dump())
	}
}

// ConvertMemOpIntoMove inserts a move from src to dst right after orig. The
// move is placed after orig so that a forward scan checks it next.
func (u *Unit[T]) ConvertMemOpIntoMove(orig *Node, dst, src int32) *Node {
	op, operands := u.target.RegCopy(dst, src)
	move := u.RawLIR(orig.DalvikOffset, op, nil, operands...)
	u.InsertLIRAfter(orig, move)
	return move
}

// eliminateLoad replaces the load n by a copy of src, or drops it when it
// already loads into src.
func (u *Unit[T]) eliminateLoad(n *Node, src int32) {
	if n.Operands[0] != src {
		u.ConvertMemOpIntoMove(n, n.Operands[0], src)
	}
	n.Nop()
	if jitapi.LocalOptLoggingEnabled {
		fmt.Printf("eliminated load %s (value in %d)\n", u.target.Format(n), src)
	}
}

// aliasSet is the set of registers known to hold the value of the tracked
// memory location.
type aliasSet struct {
	regs []int32
	mask ResourceMask
}

func (s *aliasSet) reset() {
	s.regs = s.regs[:0]
	s.mask = EncodeNone
}

func (s *aliasSet) contains(reg int32) bool {
	for _, r := range s.regs {
		if r == reg {
			return true
		}
	}
	return false
}

// ApplyLoadStoreElimination scans forward from every plain load or store
// from head to tail, both included, and removes later accesses to the same
// location.
//
// A later load is replaced by a copy of a register still holding the value.
// A later store to the same frame slot makes an earlier store dead. The scan
// of one candidate stops at any instruction that may change the location or
// redefine its address, at any barrier, and once no register holds the
// value anymore. Heap accesses only match with the same base, displacement
// and width, and any other heap store is assumed to alias.
func (u *Unit[T]) ApplyLoadStoreElimination(head, tail *Node) {
	if head == tail {
		return
	}
	pcMask := u.target.PCMask()
	var aliases aliasSet
	end := tail.next
	for this := head; this != end; this = this.next {
		if this.IsNop || this.Opcode.IsPseudo() {
			continue
		}
		flags := u.target.Flags(this.Opcode)
		if loadStoreFilter(flags) || flags.Has(IsLoad|IsStore) || !flags.Any(IsLoad|IsStore) {
			continue
		}
		isThisLoad := flags.Any(IsLoad)
		thisMem := EncodeMem.Intersection(this.UseMask.Union(*this.DefMask))
		if thisMem != EncodeLiteral && thisMem != EncodeDalvikReg && thisMem != EncodeHeapRef {
			continue
		}
		// The load redefines its own address.
		if this.DefMask.Without(EncodeMem).Intersects(*this.UseMask) {
			continue
		}

		valueReg := this.Operands[0]
		valueMask := u.target.RegMask(valueReg)
		addrMask := this.UseMask.Without(EncodeMem).Without(pcMask)
		if !isThisLoad {
			addrMask = addrMask.Without(valueMask)
		}
		aliases.reset()
		aliases.regs = append(aliases.regs, valueReg)
		aliases.mask = valueMask

		for check := this.next; check != end; check = check.next {
			if check.IsNop {
				continue
			}
			if check.Opcode.IsPseudo() {
				if check.Opcode.isBarrierPseudo() {
					break
				}
				continue
			}
			if *check.UseMask == EncodeAll || *check.DefMask == EncodeAll {
				break
			}
			checkFlags := u.target.Flags(check.Opcode)
			checkMem := EncodeMem.Intersection(check.UseMask.Union(*check.DefMask))

			if checkMem.Intersects(thisMem) {
				if loadStoreFilter(checkFlags) || checkFlags.Has(IsLoad|IsStore) {
					break
				}
				stop, done := u.matchMemAccess(this, check, thisMem, isThisLoad, checkFlags.Any(IsLoad), &aliases)
				if stop {
					break
				}
				if done {
					// check was replaced; the inserted move, if any, is visited next.
					continue
				}
			} else if thisMem == EncodeHeapRef && checkFlags.Any(IsStore) && checkMem.Intersects(EncodeMem) {
				// A store through a must-not-alias or untyped reference.
				break
			}

			checkDef := check.DefMask.Without(EncodeMem)
			if checkDef.Intersects(addrMask) {
				break
			}
			if checkDef.Intersects(aliases.mask) {
				u.dropAliases(&aliases, checkDef)
			}
			if checkFlags.Any(IsMove) && aliases.contains(check.Operands[1]) && u.target.SameRegClass(check.Operands[0], check.Operands[1]) {
				aliases.regs = append(aliases.regs, check.Operands[0])
				aliases.mask.SetBits(u.target.RegMask(check.Operands[0]))
			}
			if len(aliases.regs) == 0 {
				break
			}
		}
	}
}

// matchMemAccess handles a check accessing the same memory class as this.
// stop ends the scan of this; done means check was eliminated.
func (u *Unit[T]) matchMemAccess(this, check *Node, thisMem ResourceMask, isThisLoad, isCheckLoad bool, aliases *aliasSet) (stop, done bool) {
	var match bool
	switch thisMem {
	case EncodeLiteral, EncodeDalvikReg:
		match = check.AliasInfo == this.AliasInfo
	case EncodeHeapRef:
		match = u.target.SameMemAccess(this, check)
	}

	if !match {
		switch thisMem {
		case EncodeDalvikReg:
			// Partial overlap with a wide access.
			return isDalvikRegClobbered(this, check), false
		case EncodeHeapRef:
			return !isCheckLoad, false
		}
		return false, false
	}

	switch {
	case isCheckLoad:
		dst := check.Operands[0]
		if aliases.contains(dst) {
			check.Nop()
			return false, true
		}
		for _, src := range aliases.regs {
			if u.target.SameRegClass(dst, src) {
				u.eliminateLoad(check, src)
				return false, true
			}
		}
		// Different register class: something complicated is going on.
		return thisMem != EncodeLiteral, false
	case !isThisLoad && thisMem == EncodeDalvikReg:
		// The later store overwrites the slot before anyone read it.
		this.Nop()
		return true, false
	default:
		return true, false
	}
}

func (u *Unit[T]) dropAliases(aliases *aliasSet, def ResourceMask) {
	kept := aliases.regs[:0]
	aliases.mask = EncodeNone
	for _, r := range aliases.regs {
		m := u.target.RegMask(r)
		if !m.Intersects(def) {
			kept = append(kept, r)
			aliases.mask.SetBits(m)
		}
	}
	aliases.regs = kept
}

// checkRegDep returns true if check has a read-after-write, write-after-read
// or write-after-write register dependency with the masks.
func checkRegDep(use, def ResourceMask, check *Node) bool {
	return def.Intersects(*check.UseMask) || use.Union(def).Intersects(*check.DefMask)
}

// ApplyLoadHoisting moves loads after head up to tail included earlier,
// past independent instructions, to hide their latency. head itself stays
// in place and bounds the hoisting.
func (u *Unit[T]) ApplyLoadHoisting(head, tail *Node) {
	if head == tail {
		return
	}
	var prevInsts [maxHoistDistance]*Node
	pcMask := u.target.PCMask()
	end := tail.next
	for this := head.next; this != end; this = this.next {
		if this.Opcode.IsPseudo() || this.IsNop {
			continue
		}
		flags := u.target.Flags(this.Opcode)
		if !flags.Any(IsLoad) || flags.Has(RegDef01) || flags.Has(IsLoad|IsStore) {
			continue
		}

		stopUseAll := *this.UseMask
		// Null and range check branches carry their true resources; only heap
		// references are ordered against them conservatively.
		if stopUseAll.HasBit(ResourceHeapRef) {
			stopUseAll.SetBits(pcMask)
		}
		stopUseReg := stopUseAll.Without(EncodeMem)
		stopDefReg := this.DefMask.Without(EncodeMem)

		nextSlot := 0
		stopHere := false
		for check := this.prev; check != head; check = check.prev {
			if check.IsNop {
				continue
			}
			checkMem := check.DefMask.Intersection(EncodeMem)
			aliasCondition := stopUseAll.Intersection(checkMem)
			stopHere = false

			if checkMem != EncodeMem && !aliasCondition.IsEmpty() {
				if aliasCondition == EncodeDalvikReg {
					stopHere = check.AliasInfo == this.AliasInfo || isDalvikRegClobbered(this, check)
				} else {
					// Heap references may alias.
					stopHere = true
				}
				if stopHere {
					prevInsts[nextSlot] = check
					nextSlot++
					break
				}
			}

			stopHere = checkRegDep(stopUseReg, stopDefReg, check)
			if stopHere || !check.Opcode.IsPseudo() {
				prevInsts[nextSlot] = check
				nextSlot++
				if nextSlot == maxHoistDistance {
					break
				}
			}
			if stopHere {
				break
			}
		}

		// Reached the top: head is the dependency since labels are barriers.
		if !stopHere && nextSlot < maxHoistDistance {
			prevInsts[nextSlot] = head
			nextSlot++
		}
		if nextSlot < 2 {
			continue
		}

		slot := u.hoistSlot(prevInsts[:nextSlot])
		if slot < 0 {
			continue
		}
		cur := prevInsts[slot]
		hoisted := u.nodes.New()
		*hoisted = *this
		hoisted.pcrelNext = nil
		u.InsertLIRBefore(cur, hoisted)
		this.Nop()
		if jitapi.LocalOptLoggingEnabled {
			fmt.Printf("hoisted %s above %s\n", u.target.Format(this), u.opName(cur.Opcode))
		}
	}
}

// hoistSlot picks the entry of insts, ordered from the load upwards, before
// which the load is inserted, or returns -1.
func (u *Unit[T]) hoistSlot(insts []*Node) int {
	nextSlot := len(insts)
	firstSlot := nextSlot - 2
	dep := insts[nextSlot-1]
	if !dep.Opcode.IsPseudo() && u.target.Flags(dep.Opcode).Any(IsLoad) {
		firstSlot -= ldldDistance
	}
	slot := firstSlot
	for ; slot >= 0; slot-- {
		cur, prev := insts[slot], insts[slot+1]
		if *prev.DefMask == EncodeAll {
			// Hoisting above a leading load is unlikely to pay off.
			if !cur.Opcode.IsPseudo() && u.target.Flags(cur.Opcode).Any(IsLoad) {
				continue
			}
			if slot < ldLatency {
				break
			}
		}
		switch prev.Opcode {
		case PseudoTargetLabel, PseudoSafepointPC, PseudoBarrier:
			return slot
		}
		prevIsLoad := !prev.Opcode.IsPseudo() && u.target.Flags(prev.Opcode).Any(IsLoad)
		if prevIsLoad && cur.UseMask.Intersects(*prev.DefMask) || slot < ldLatency {
			break
		}
	}
	return slot
}
