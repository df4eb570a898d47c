// Package backend drives the compilation of one method from LIR to machine
// code plus the metadata read by the runtime. The instruction set specific
// work is done by a Machine implementation living under isa/.
package backend

import "github.com/thumbjit/thumbjit/internal/jit/backend/regalloc"

// MethodInfo describes the frame of the method being compiled.
type MethodInfo struct {
	// NumRegs is the number of virtual registers, ins included.
	NumRegs int
	// NumIns is the number of incoming arguments. They are the last NumIns
	// virtual registers.
	NumIns int
	// NumOuts is the size in words of the largest outgoing argument list.
	NumOuts int
}

// NumLocals returns the number of virtual registers that are not ins.
func (i MethodInfo) NumLocals() int {
	return i.NumRegs - i.NumIns
}

// Safepoint is a native pc at which the runtime may inspect the frame.
type Safepoint struct {
	// NativeOffset is the offset of the return address of the call.
	NativeOffset uint32
	// DexPC is the bytecode offset of the call.
	DexPC uint32
	// References is a bitmap, one bit per virtual register, of the
	// registers holding an object reference at this point.
	References []byte
}

// ExportedPC maps a bytecode offset to the native offset its code starts at.
type ExportedPC struct {
	DexPC        uint32
	NativeOffset uint32
}

// Machine is the instruction set specific half of the backend. A Machine
// holds the LIR of one method, built by the lowering passes through the
// helpers of the concrete type, and is driven by Compile.
type Machine interface {
	// ApplyLocalOptimizations runs the enabled block-local passes over the LIR.
	ApplyLocalOptimizations(loadStoreElimination, loadHoisting bool)

	// Promotion returns the promotion decided so far, or nil.
	Promotion() *regalloc.Promotion

	// DoPromotion assigns callee-save registers to the most used virtual
	// registers. A nil uses promotes nothing.
	DoPromotion(uses []regalloc.UseCount) *regalloc.Promotion

	// SetupFrame computes the frame layout from the promotion, resolves the
	// frame slot displacements and inserts the prologue and epilogues.
	SetupFrame()

	// FrameSize returns the frame size in bytes. Valid after SetupFrame.
	FrameSize() uint32

	// Assemble resolves every layout dependent encoding and returns the code
	// followed by the data region. The second value is the code size.
	Assemble() (buf []byte, codeSize uint32)

	// Safepoints returns the safepoints in program order. Valid after Assemble.
	Safepoints() []Safepoint

	// ExportedPCs returns the exported pcs in program order. Valid after Assemble.
	ExportedPCs() []ExportedPC

	// Format returns the LIR in assembler syntax.
	Format() string
}
