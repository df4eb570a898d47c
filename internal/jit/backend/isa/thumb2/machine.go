package thumb2

import (
	"github.com/thumbjit/thumbjit/internal/asm"
	"github.com/thumbjit/thumbjit/internal/jit/backend"
	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
	"github.com/thumbjit/thumbjit/internal/jit/backend/regalloc"
)

type (
	// Machine implements backend.Machine for Thumb2. Its exported helpers
	// are what the bytecode lowering passes build the LIR of a method with.
	Machine struct {
		*lir.Unit[target]

		cfg  *backend.Config
		info backend.MethodInfo
		pool *regalloc.Pool

		// literals is the literal pool in creation order. A wide constant
		// takes two consecutive entries, low word first.
		literals     []*lir.Node
		switchTables []*lir.EmbeddedData
		fillArrays   []*lir.EmbeddedData

		// frameSize is the size of the frame in bytes, spills included.
		// During the execution of the method, the stack looks like:
		//
		//            (high address)
		//          +-----------------+
		//          |      in N-1     |
		//          |     .......     |
		//          |      in 0       |
		//          | caller Method*  |
		//          +-----------------+ <---- sp at entry
		//          |   lr            |
		//          |   core spills   |   push {r5-r8, r10, r11, lr}
		//          |   fp spills     |   vpush {s16-...}
		//          |   filler        |
		//          |   local L-1     |
		//          |     .......     |
		//          |   local 0       |
		//          |   (padding)     |
		//          |   out O-1       |
		//          |     .......     |
		//          |   out 0         |
		//          |   Method*       |
		//   SP---> +-----------------+
		//             (low address)
		//
		// Only known after SetupFrame.
		frameSize                  uint32
		coreSpillMask, fpSpillMask uint32
		numCoreSpills, numFPSpills int
		frameReady                 bool

		// codeSize is the size of the instructions and dataSize the size of
		// the whole method, data region included, as of the last fixup pass.
		codeSize, dataSize int32
		buf                asm.Buffer

		safepoints  []backend.Safepoint
		exportedPCs []backend.ExportedPC
	}
)

var (
	_ backend.Machine  = (*Machine)(nil)
	_ regalloc.Spiller = (*Machine)(nil)
)

// NewMachine returns a Machine ready to receive the LIR of a method.
func NewMachine(cfg *backend.Config, info backend.MethodInfo) *Machine {
	m := &Machine{Unit: lir.NewUnit(target{}), cfg: cfg}
	m.Reset(info)
	return m
}

// Reset discards the current method and prepares m for the next one.
func (m *Machine) Reset(info backend.MethodInfo) {
	m.Unit.Reset()
	m.info = info
	m.pool = regalloc.NewPool(PoolConfig(), m)
	m.literals = m.literals[:0]
	m.switchTables = m.switchTables[:0]
	m.fillArrays = m.fillArrays[:0]
	m.frameSize, m.coreSpillMask, m.fpSpillMask = 0, 0, 0
	m.numCoreSpills, m.numFPSpills = 0, 0
	m.frameReady = false
	m.codeSize, m.dataSize = 0, 0
	m.buf.Reset()
	m.safepoints = m.safepoints[:0]
	m.exportedPCs = m.exportedPCs[:0]
}

// Pool returns the register pool of the current method.
func (m *Machine) Pool() *regalloc.Pool { return m.pool }

// Info returns the frame description of the current method.
func (m *Machine) Info() backend.MethodInfo { return m.info }

// Promotion implements backend.Machine.
func (m *Machine) Promotion() *regalloc.Promotion { return m.pool.Promotion() }

// DoPromotion implements backend.Machine.
func (m *Machine) DoPromotion(uses []regalloc.UseCount) *regalloc.Promotion {
	if m.frameReady {
		panic("BUG: promotion after the frame was laid out")
	}
	return m.pool.DoPromotion(m.info.NumRegs, uses)
}

// FlushToHome implements regalloc.Spiller.
func (m *Machine) FlushToHome(sReg int32, reg regalloc.RegStorage, wide bool) {
	m.StoreValueToFrame(sReg, reg, wide)
}

// Format implements backend.Machine.
func (m *Machine) Format() string { return m.Dump() }

// Safepoints implements backend.Machine.
func (m *Machine) Safepoints() []backend.Safepoint { return m.safepoints }

// ExportedPCs implements backend.Machine.
func (m *Machine) ExportedPCs() []backend.ExportedPC { return m.exportedPCs }

// newLIRTo appends an instruction whose layout dependent operand refers to to.
func (m *Machine) newLIRTo(op lir.Opcode, to *lir.Node, operands ...int32) *lir.Node {
	n := m.RawLIR(m.DalvikOffset(), op, to, operands...)
	m.AppendLIR(n)
	return n
}

// ExportPC records the native pc of the current bytecode offset.
func (m *Machine) ExportPC() *lir.Node {
	return m.NewLIR0(lir.PseudoExportedPC)
}

// MarkSafepointPC records the return address of the call inst as a
// safepoint. refs has one bit per virtual register holding a reference
// across the call.
func (m *Machine) MarkSafepointPC(inst *lir.Node, refs []byte) *lir.Node {
	sp := m.Unit.MarkSafepointPC(inst)
	sp.DalvikOffset = inst.DalvikOffset
	// Operands[0] holds the wrapped bitmap index plus one: zero means no bitmap.
	sp.Operands[0] = m.WrapPointer(refs) + 1
	return sp
}

// collectPCs reads the safepoints and exported pcs off the laid out LIR.
func (m *Machine) collectPCs() {
	for n := m.First(); n != nil; n = n.Next() {
		switch n.Opcode {
		case lir.PseudoSafepointPC:
			sp := backend.Safepoint{NativeOffset: uint32(n.Offset), DexPC: uint32(n.DalvikOffset)}
			if i := n.Operands[0]; i > 0 {
				sp.References, _ = m.UnwrapPointer(i - 1).([]byte)
			}
			m.safepoints = append(m.safepoints, sp)
		case lir.PseudoExportedPC:
			m.exportedPCs = append(m.exportedPCs, backend.ExportedPC{
				DexPC:        uint32(n.DalvikOffset),
				NativeOffset: uint32(n.Offset),
			})
		}
	}
}
