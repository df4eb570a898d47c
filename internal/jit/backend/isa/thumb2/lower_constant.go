package thumb2

import (
	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
	"github.com/thumbjit/thumbjit/internal/jit/backend/regalloc"
)

// InexpensiveConstantInt returns true if v can be materialized with a single
// instruction.
func InexpensiveConstantInt(v int32) bool {
	return ModifiedImmediate(uint32(v)) >= 0 || ModifiedImmediate(^uint32(v)) >= 0 ||
		uint32(v) <= 0xffff
}

// LoadConstantNoClobber loads v into r without using any other register.
func (m *Machine) LoadConstantNoClobber(r int32, v int32) *lir.Node {
	if isFPReg(r) {
		return m.LoadFPConstantValue(r, v)
	}
	if isLowReg(r) && v >= 0 && v <= 255 {
		return m.NewLIR2(ThumbMovImm, r, v)
	}
	if mod := ModifiedImmediate(uint32(v)); mod >= 0 {
		return m.NewLIR2(Thumb2MovI8M, r, mod)
	}
	if mod := ModifiedImmediate(^uint32(v)); mod >= 0 {
		return m.NewLIR2(Thumb2MvnI8M, r, mod)
	}
	if uint32(v) <= 0xffff {
		return m.NewLIR2(Thumb2MovImm16, r, v)
	}
	ret := m.NewLIR2(Thumb2MovImm16, r, v&0xffff)
	m.NewLIR2(Thumb2MovImm16H, r, int32(uint32(v)>>16))
	return ret
}

// LoadFPConstantValue loads the bit pattern v into the single register r.
func (m *Machine) LoadFPConstantValue(r int32, v int32) *lir.Node {
	if !isSingleReg(r) {
		panic("BUG: LoadFPConstantValue into " + RegName(r))
	}
	if v == 0 {
		// +0.0 has no VFP immediate: load 2.0 and subtract it from itself.
		m.NewLIR2(Thumb2VmovsImm8, r, EncodeImmSingle(0x40000000))
		return m.NewLIR3(Thumb2Vsubs, r, r, r)
	}
	if imm := EncodeImmSingle(uint32(v)); imm >= 0 {
		return m.NewLIR2(Thumb2VmovsImm8, r, imm)
	}
	lit, idx := m.ScanLiteralPool(v)
	if lit == nil {
		lit, idx = m.addLiteral(v)
	}
	defer m.WithMemRefType(lir.ResourceLiteral)()
	load := m.newLIRTo(Thumb2Vldrs, lit, r, PC, 0)
	load.AliasInfo = lir.EncodeAliasInfo(idx, false)
	return load
}

// LoadConstantWide loads the 64-bit v into dst, a double register or a core
// register pair.
func (m *Machine) LoadConstantWide(dst regalloc.RegStorage, v int64) *lir.Node {
	lo, hi := int32(v), int32(v>>32)
	if !dst.IsPair() {
		r := int32(dst.Reg())
		if !isDoubleReg(r) {
			panic("BUG: LoadConstantWide into " + RegName(r))
		}
		if v == 0 {
			m.NewLIR2(Thumb2VmovdImm8, r, EncodeImmDouble(0x4000000000000000))
			return m.NewLIR3(Thumb2Vsubd, r, r, r)
		}
		if imm := EncodeImmDouble(uint64(v)); imm >= 0 {
			return m.NewLIR2(Thumb2VmovdImm8, r, imm)
		}
		lit, idx := m.wideLiteral(lo, hi)
		defer m.WithMemRefType(lir.ResourceLiteral)()
		load := m.newLIRTo(Thumb2Vldrd, lit, r, PC, 0)
		load.AliasInfo = lir.EncodeAliasInfo(idx, true)
		return load
	}

	rLo, rHi := int32(dst.Low()), int32(dst.High())
	if InexpensiveConstantInt(lo) && InexpensiveConstantInt(hi) {
		ret := m.LoadConstantNoClobber(rLo, lo)
		m.LoadConstantNoClobber(rHi, hi)
		return ret
	}
	lit, idx := m.wideLiteral(lo, hi)
	defer m.WithMemRefType(lir.ResourceLiteral)()
	load := m.newLIRTo(Thumb2LdrdPcRel8, lit, rLo, rHi, 0)
	load.AliasInfo = lir.EncodeAliasInfo(idx, true)
	return load
}

// LoadWordLiteral loads v into the core register r from the literal pool.
func (m *Machine) LoadWordLiteral(r int32, v int32) *lir.Node {
	lit, idx := m.ScanLiteralPool(v)
	if lit == nil {
		lit, idx = m.addLiteral(v)
	}
	defer m.WithMemRefType(lir.ResourceLiteral)()
	load := m.newLIRTo(Thumb2LdrPcRel12, lit, r, 0)
	load.AliasInfo = lir.EncodeAliasInfo(idx, false)
	return load
}

func (m *Machine) wideLiteral(lo, hi int32) (*lir.Node, int32) {
	if lit, idx := m.ScanLiteralPoolWide(lo, hi); lit != nil {
		return lit, idx
	}
	return m.addWideLiteral(lo, hi)
}

// ScanLiteralPool returns the literal holding v and its index in the pool,
// or nil.
func (m *Machine) ScanLiteralPool(v int32) (*lir.Node, int32) {
	for i, lit := range m.literals {
		if lit.Operands[0] == v {
			return lit, int32(i)
		}
	}
	return nil, -1
}

// ScanLiteralPoolWide returns the first of two consecutive literals holding
// lo then hi, or nil.
func (m *Machine) ScanLiteralPoolWide(lo, hi int32) (*lir.Node, int32) {
	for i := 0; i+1 < len(m.literals); i++ {
		if m.literals[i].Operands[0] == lo && m.literals[i+1].Operands[0] == hi {
			return m.literals[i], int32(i)
		}
	}
	return nil, -1
}

func (m *Machine) addLiteral(v int32) (*lir.Node, int32) {
	lit := m.NewLiteral(v)
	m.literals = append(m.literals, lit)
	return lit, int32(len(m.literals) - 1)
}

func (m *Machine) addWideLiteral(lo, hi int32) (*lir.Node, int32) {
	lit, idx := m.addLiteral(lo)
	m.addLiteral(hi)
	return lit, idx
}
