package lir

// Target is the instruction set hook of a Unit. Units are instantiated with
// a concrete Target type so that every call below is statically dispatched.
type Target interface {
	// Flags returns the descriptor flags of op. op is never a pseudo opcode.
	Flags(op Opcode) Flags
	// Size returns the encoded size in bytes of op.
	Size(op Opcode) int
	// Fixup returns the fixup kind of op once the node is laid out.
	Fixup(op Opcode) FixupKind
	// Name returns the mnemonic of op.
	Name(op Opcode) string

	// RegMask returns the resource bits of register reg.
	RegMask(reg int32) ResourceMask
	// SetupTargetResourceMasks adds the target specific resources of n,
	// such as stack pointer or register list operands, to use and def.
	SetupTargetResourceMasks(n *Node, flags Flags, use, def *ResourceMask)
	// PCMask returns the resource bits of the program counter.
	PCMask() ResourceMask

	// RegCopy returns the opcode and operands of a move from src to dst.
	RegCopy(dst, src int32) (Opcode, []int32)
	// SameRegClass returns true if a and b are registers of the same class and width.
	SameRegClass(a, b int32) bool
	// SameMemAccess returns true if the heap accesses a and b have the same
	// base register, displacement and width.
	SameMemAccess(a, b *Node) bool

	// Format renders n in assembler syntax.
	Format(n *Node) string
}
