package lir

import (
	"fmt"
	"strings"

	"github.com/thumbjit/thumbjit/internal/jit/jitapi"
)

// Unit holds the LIR of one method being compiled.
//
// A Unit is not safe for concurrent use. Methods compiled in parallel each
// own a Unit.
type Unit[T Target] struct {
	target T

	nodes       jitapi.Arena[Node]
	first, last *Node
	firstFixup  *Node

	masks *MaskCache

	// pointers backs WrapPointer: operands refer to auxiliary data by index.
	pointers []any

	dalvikOffset int32
	memRefType   int
}

// NewUnit returns an empty Unit for target.
func NewUnit[T Target](target T) *Unit[T] {
	return &Unit[T]{
		target:     target,
		masks:      NewMaskCache(),
		memRefType: ResourceHeapRef,
	}
}

// retainedNodePages is the number of node pages a Unit keeps across Reset.
const retainedNodePages = 16

// Reset clears the unit so that it can be reused for another method.
func (u *Unit[T]) Reset() {
	u.nodes.Reset(retainedNodePages)
	u.first, u.last, u.firstFixup = nil, nil, nil
	u.masks.Reset()
	u.pointers = u.pointers[:0]
	u.dalvikOffset = 0
	u.memRefType = ResourceHeapRef
}

// Target returns the instruction set hook.
func (u *Unit[T]) Target() T { return u.target }

// First returns the first node in program order.
func (u *Unit[T]) First() *Node { return u.first }

// Last returns the last node in program order.
func (u *Unit[T]) Last() *Node { return u.last }

// FirstFixup returns the head of the fixup list built by LinkFixups.
func (u *Unit[T]) FirstFixup() *Node { return u.firstFixup }

// NumNodes returns the number of nodes allocated so far.
func (u *Unit[T]) NumNodes() int { return u.nodes.Len() }

// SetDalvikOffset sets the bytecode offset recorded on nodes created from now on.
func (u *Unit[T]) SetDalvikOffset(offset int32) { u.dalvikOffset = offset }

// DalvikOffset returns the current bytecode offset.
func (u *Unit[T]) DalvikOffset() int32 { return u.dalvikOffset }

// RawLIR allocates a node and computes its resource masks without linking it.
func (u *Unit[T]) RawLIR(dalvikOffset int32, op Opcode, target *Node, operands ...int32) *Node {
	if len(operands) > 5 {
		panic(fmt.Sprintf("BUG: %d operands for %s", len(operands), u.opName(op)))
	}
	n := u.nodes.New()
	n.Opcode = op
	n.DalvikOffset = dalvikOffset
	n.Offset = OffsetInvalid
	n.Target = target
	copy(n.Operands[:], operands)
	u.SetupResourceMasks(n)
	return n
}

// NewLIR0 appends a node without operands.
func (u *Unit[T]) NewLIR0(op Opcode) *Node {
	return u.newLIR(op)
}

// NewLIR1 appends a node with one operand.
func (u *Unit[T]) NewLIR1(op Opcode, a0 int32) *Node {
	return u.newLIR(op, a0)
}

// NewLIR2 appends a node with two operands.
func (u *Unit[T]) NewLIR2(op Opcode, a0, a1 int32) *Node {
	return u.newLIR(op, a0, a1)
}

// NewLIR3 appends a node with three operands.
func (u *Unit[T]) NewLIR3(op Opcode, a0, a1, a2 int32) *Node {
	return u.newLIR(op, a0, a1, a2)
}

// NewLIR4 appends a node with four operands.
func (u *Unit[T]) NewLIR4(op Opcode, a0, a1, a2, a3 int32) *Node {
	return u.newLIR(op, a0, a1, a2, a3)
}

// NewLIR5 appends a node with five operands.
func (u *Unit[T]) NewLIR5(op Opcode, a0, a1, a2, a3, a4 int32) *Node {
	return u.newLIR(op, a0, a1, a2, a3, a4)
}

func (u *Unit[T]) newLIR(op Opcode, operands ...int32) *Node {
	if jitapi.LIRValidationEnabled {
		u.validateArity(op, len(operands))
	}
	n := u.RawLIR(u.dalvikOffset, op, nil, operands...)
	u.AppendLIR(n)
	return n
}

func (u *Unit[T]) validateArity(op Opcode, got int) {
	if op.IsPseudo() {
		if got > 2 {
			panic(fmt.Sprintf("BUG: pseudo op %s with %d operands", PseudoName(op), got))
		}
		return
	}
	want := u.target.Flags(op).Arity()
	if want == got {
		return
	}
	panic(fmt.Sprintf("BUG: %s takes %d operands but NewLIR%d was used\n%s", u.target.Name(op), want, got, u.Dump()))
}

// NewLiteral returns an unlinked literal pool word holding value.
func (u *Unit[T]) NewLiteral(value int32) *Node {
	return u.RawLIR(0, PseudoLiteral, nil, value)
}

// NewLabel appends a branch target label.
func (u *Unit[T]) NewLabel() *Node {
	return u.NewLIR0(PseudoTargetLabel)
}

// AppendLIR links n at the end of the program order.
func (u *Unit[T]) AppendLIR(n *Node) {
	if u.first == nil {
		u.first, u.last = n, n
		n.prev, n.next = nil, nil
		return
	}
	u.last.next = n
	n.prev = u.last
	n.next = nil
	u.last = n
}

// InsertLIRBefore links n right before cur.
func (u *Unit[T]) InsertLIRBefore(cur, n *Node) {
	prev := cur.prev
	n.prev, n.next = prev, cur
	cur.prev = n
	if prev == nil {
		u.first = n
	} else {
		prev.next = n
	}
}

// InsertLIRAfter links n right after cur.
func (u *Unit[T]) InsertLIRAfter(cur, n *Node) {
	next := cur.next
	n.prev, n.next = cur, next
	cur.next = n
	if next == nil {
		u.last = n
	} else {
		next.prev = n
	}
}

// MoveTailAfter unlinks the nodes from first to the end of the program order
// and links them back right after anchor. anchor must precede first.
func (u *Unit[T]) MoveTailAfter(anchor, first *Node) {
	if first == nil || anchor == first.prev {
		return
	}
	last := u.last
	u.last = first.prev
	u.last.next = nil

	next := anchor.next
	anchor.next, first.prev = first, anchor
	last.next = next
	if next == nil {
		u.last = last
	} else {
		next.prev = last
	}
}

// MarkScheduleBarrier makes n define every resource so that no memory
// access is moved across it.
func (u *Unit[T]) MarkScheduleBarrier(n *Node) {
	n.DefMask = u.masks.Get(EncodeAll)
}

// SetupResourceMasks computes the fixup placeholder, size and use/def masks of n.
func (u *Unit[T]) SetupResourceMasks(n *Node) {
	op := n.Opcode
	if op.IsPseudo() {
		n.Size = 0
		switch op {
		case PseudoBarrier:
			n.Fixup = FixupNone
		case PseudoAlign4:
			n.Fixup = FixupAlign4
		default:
			n.Fixup = FixupLabel
		}
		if op.isBarrierPseudo() {
			n.UseMask, n.DefMask = u.masks.Get(EncodeAll), u.masks.Get(EncodeAll)
		} else {
			n.UseMask, n.DefMask = u.masks.Get(EncodeNone), u.masks.Get(EncodeNone)
		}
		return
	}

	flags := u.target.Flags(op)
	n.Fixup = FixupNone
	if flags.Any(NeedsFixup) {
		// The target specific kind is set by LinkFixups.
		n.Fixup = FixupLabel
	}
	n.Size = uint8(u.target.Size(op))

	// Branches may call out to code that trashes everything.
	if flags.Any(IsBranch) {
		n.UseMask, n.DefMask = u.masks.Get(EncodeAll), u.masks.Get(EncodeAll)
		return
	}

	var use, def ResourceMask
	if flags.Any(IsLoad) {
		use.SetBit(u.memRefType)
	}
	if flags.Any(IsStore) {
		def.SetBit(u.memRefType)
	}
	for i, f := range [...]Flags{RegDef0, RegDef1, RegDef2} {
		if flags.Any(f) {
			def.SetBits(u.target.RegMask(n.Operands[i]))
		}
	}
	for i, f := range [...]Flags{RegUse0, RegUse1, RegUse2, RegUse3, RegUse4} {
		if flags.Any(f) {
			use.SetBits(u.target.RegMask(n.Operands[i]))
		}
	}
	if flags.Any(SetsCCodes) {
		def.SetBit(ResourceCCode)
	}
	if flags.Any(UsesCCodes) {
		use.SetBit(ResourceCCode)
	}
	if flags.Any(UsesFPStatus) {
		use.SetBit(ResourceFPStatus)
	}
	u.target.SetupTargetResourceMasks(n, flags, &use, &def)
	n.UseMask, n.DefMask = u.masks.Get(use), u.masks.Get(def)
}

// SetMemRefType replaces the memory class of the load or store n.
func (u *Unit[T]) SetMemRefType(n *Node, isLoad bool, memType int) {
	if jitapi.LIRValidationEnabled && !u.target.Flags(n.Opcode).Any(IsLoad|IsStore) {
		panic(fmt.Sprintf("BUG: SetMemRefType on %s", u.target.Name(n.Opcode)))
	}
	maskPtr := &n.DefMask
	if isLoad {
		maskPtr = &n.UseMask
	}
	mask := (*maskPtr).Without(EncodeMem)
	switch memType {
	case ResourceLiteral:
		if !isLoad {
			panic("BUG: store to the literal pool")
		}
	case ResourceMustNotAlias:
		if u.target.Flags(n.Opcode).Any(IsStore) {
			panic("BUG: only loads can be marked must-not-alias")
		}
	case ResourceDalvikReg, ResourceHeapRef:
	default:
		panic(fmt.Sprintf("BUG: invalid memory class %d", memType))
	}
	mask.SetBit(memType)
	*maskPtr = u.masks.Get(mask)
}

// AnnotateDalvikRegAccess marks n as an access to the frame slot of vreg.
func (u *Unit[T]) AnnotateDalvikRegAccess(n *Node, vreg int32, isLoad, wide bool) {
	n.AliasInfo = EncodeAliasInfo(vreg, wide)
	u.SetMemRefType(n, isLoad, ResourceDalvikReg)
}

// WithMemRefType makes memType the memory class of loads and stores created
// until the returned function is called.
func (u *Unit[T]) WithMemRefType(memType int) (restore func()) {
	old := u.memRefType
	u.memRefType = memType
	return func() { u.memRefType = old }
}

// MarkSafepointPC makes inst a full barrier and appends the safepoint marker
// recording the return address of inst.
func (u *Unit[T]) MarkSafepointPC(inst *Node) *Node {
	inst.DefMask = u.masks.Get(EncodeAll)
	return u.NewLIR0(PseudoSafepointPC)
}

// WrapPointer stores p and returns the operand value referring to it.
func (u *Unit[T]) WrapPointer(p any) int32 {
	u.pointers = append(u.pointers, p)
	return int32(len(u.pointers) - 1)
}

// UnwrapPointer returns the value stored by WrapPointer.
func (u *Unit[T]) UnwrapPointer(i int32) any {
	return u.pointers[i]
}

// LinkFixups builds the fixup list from the nodes needing one, assigns them
// their real fixup kind, size and offset, and returns the code size.
func (u *Unit[T]) LinkFixups() int32 {
	var last *Node
	u.firstFixup = nil
	offset := int32(0)
	for n := u.first; n != nil; n = n.next {
		if n.IsNop {
			continue
		}
		if n.Fixup != FixupNone {
			switch {
			case !n.Opcode.IsPseudo():
				n.Size = uint8(u.target.Size(n.Opcode))
				n.Fixup = u.target.Fixup(n.Opcode)
			case n.Opcode == PseudoAlign4:
				n.Size = uint8(offset & 2)
				n.Fixup = FixupAlign4
			default:
				n.Size = 0
				n.Fixup = FixupLabel
			}
			n.pcrelNext = nil
			if last == nil {
				u.firstFixup = n
			} else {
				last.pcrelNext = n
			}
			last = n
		}
		n.Offset = offset
		offset += int32(n.Size)
	}
	return offset
}

// ReplaceFixup puts n in the fixup list in place of orig. prev is the fixup
// node preceding orig, or nil if orig is the head.
func (u *Unit[T]) ReplaceFixup(prev, orig, n *Node) {
	n.pcrelNext = orig.pcrelNext
	if prev == nil {
		u.firstFixup = n
	} else {
		prev.pcrelNext = n
	}
	orig.Fixup = FixupNone
}

// InsertFixupBefore links n in the fixup list right before orig.
func (u *Unit[T]) InsertFixupBefore(prev, orig, n *Node) {
	n.pcrelNext = orig
	if prev == nil {
		u.firstFixup = n
		return
	}
	if jitapi.LIRValidationEnabled && prev.pcrelNext != orig {
		panic("BUG: InsertFixupBefore with a stale predecessor")
	}
	prev.pcrelNext = n
}

func (u *Unit[T]) opName(op Opcode) string {
	if op.IsPseudo() {
		return PseudoName(op)
	}
	return u.target.Name(op)
}

// Dump renders the program order list.
func (u *Unit[T]) Dump() string {
	var sb strings.Builder
	for n := u.first; n != nil; n = n.next {
		u.dumpNode(&sb, n)
	}
	return sb.String()
}

func (u *Unit[T]) dumpNode(sb *strings.Builder, n *Node) {
	offset := "????"
	if n.Offset != OffsetInvalid {
		offset = fmt.Sprintf("%04x", n.Offset)
	}
	nop := ""
	if n.IsNop {
		nop = " (nop)"
	}
	switch n.Opcode {
	case PseudoTargetLabel, PseudoCaseLabel, PseudoNormalBlockLabel:
		fmt.Fprintf(sb, "L%p:%s\n", n, nop)
	case PseudoDalvikBoundary:
		fmt.Fprintf(sb, "-------- dalvik offset: %#x\n", n.DalvikOffset)
	case PseudoSafepointPC:
		fmt.Fprintf(sb, "-------- safepoint at %s\n", offset)
	case PseudoExportedPC:
		fmt.Fprintf(sb, "-------- exported pc %#x at %s\n", n.DalvikOffset, offset)
	case PseudoBarrier:
		sb.WriteString("-------- BARRIER\n")
	case PseudoAlign4:
		fmt.Fprintf(sb, "%s (%04x): .align4 (%d)\n", offset, n.DalvikOffset, n.Size)
	case PseudoMethodEntry:
		sb.WriteString("-------- method entry\n")
	case PseudoMethodExit:
		sb.WriteString("-------- method exit\n")
	case PseudoLiteral:
		fmt.Fprintf(sb, "%s: .word %#08x\n", offset, uint32(n.Operands[0]))
	default:
		fmt.Fprintf(sb, "%s (%04x): %s%s\n", offset, n.DalvikOffset, u.target.Format(n), nop)
	}
}
