package lir

import "fmt"

// OffsetInvalid is the offset of a node not laid out yet.
const OffsetInvalid int32 = -1

// Node is one target instruction or pseudo instruction.
//
// Nodes are owned by the Unit arena and never freed individually. They are
// linked in program order, and nodes with a fixup are also linked in the
// fixup list of the unit.
type Node struct {
	Opcode   Opcode
	Operands [5]int32

	// Offset is the byte offset from the start of the method. It changes on
	// every pass of the fixup resolver.
	Offset int32
	// DalvikOffset is the bytecode offset this node was generated for.
	DalvikOffset int32

	// Target is the branch or load target. Not owned.
	Target *Node

	prev, next *Node
	pcrelNext  *Node

	IsNop bool
	Size  uint8
	Fixup FixupKind
	// Generation is flipped on every node visited by a fixup pass.
	Generation uint8
	// AliasInfo identifies the memory accessed: the encoded frame slot for
	// frame accesses, the literal for literal loads.
	AliasInfo int32

	UseMask, DefMask *ResourceMask
}

// Next returns the next node in program order.
func (n *Node) Next() *Node { return n.next }

// Prev returns the previous node in program order.
func (n *Node) Prev() *Node { return n.prev }

// PCRelNext returns the next node of the fixup list.
func (n *Node) PCRelNext() *Node { return n.pcrelNext }

// Nop makes n a no-op. It stays linked so that the fixup list is preserved.
func (n *Node) Nop() {
	n.IsNop = true
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	var name string
	if n.Opcode.IsPseudo() {
		name = PseudoName(n.Opcode)
	} else {
		name = fmt.Sprintf("op%d", n.Opcode)
	}
	return fmt.Sprintf("%#04x: %s %v", uint32(n.Offset), name, n.Operands)
}

// EncodeAliasInfo packs a frame slot number and its width for AliasInfo.
func EncodeAliasInfo(vreg int32, wide bool) int32 {
	if wide {
		return int32(uint32(vreg) | 1<<31)
	}
	return vreg
}

// AliasInfoReg returns the frame slot of a frame access.
func AliasInfoReg(info int32) int32 {
	return info & 0x7fffffff
}

// AliasInfoWide returns 1 for a 64-bit frame access, 0 otherwise.
func AliasInfoWide(info int32) int32 {
	return int32(uint32(info) >> 31)
}

// isDalvikRegClobbered returns true if the frame accesses of a and b overlap.
func isDalvikRegClobbered(a, b *Node) bool {
	aLo := AliasInfoReg(a.AliasInfo)
	aHi := aLo + AliasInfoWide(a.AliasInfo)
	bLo := AliasInfoReg(b.AliasInfo)
	bHi := bLo + AliasInfoWide(b.AliasInfo)
	return aLo == bLo || aLo == bHi || aHi == bLo
}
