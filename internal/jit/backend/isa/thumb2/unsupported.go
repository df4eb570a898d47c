package thumb2

import (
	"github.com/thumbjit/thumbjit/internal/jit/backend"
	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
)

// The operations below exist for instruction sets with memory operands or
// conditional moves. Shared lowering code must not reach them on thumb2.

// OpMem panics.
func (m *Machine) OpMem(op backend.OpKind, base, disp int32) *lir.Node {
	panic("BUG: OpMem not supported on thumb2")
}

// OpCondRegReg panics.
func (m *Machine) OpCondRegReg(op backend.OpKind, cond Cond, dst, src int32) *lir.Node {
	panic("BUG: OpCondRegReg not supported on thumb2")
}

// OpTlsCmp panics.
func (m *Machine) OpTlsCmp(offset, v int32) {
	panic("BUG: OpTlsCmp not supported on thumb2")
}

// OpRegMem panics.
func (m *Machine) OpRegMem(op backend.OpKind, dst, base, disp int32) *lir.Node {
	panic("BUG: OpRegMem not supported on thumb2")
}
