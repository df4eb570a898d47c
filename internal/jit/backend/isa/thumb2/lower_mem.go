package thumb2

import (
	"fmt"

	"github.com/thumbjit/thumbjit/internal/jit/backend"
	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
	"github.com/thumbjit/thumbjit/internal/jit/backend/regalloc"
)

// LoadBaseDisp loads the value of the given size at [base, #disp] into dst.
// A volatile load is followed by the barrier ordering it before later
// accesses, and 64-bit volatile loads use ldrexd unless ldrd is atomic.
func (m *Machine) LoadBaseDisp(base, disp int32, dst regalloc.RegStorage, size backend.OpSize, volatile bool) *lir.Node {
	var load *lir.Node
	if volatile && isWide(size) && !m.cfg.Features().HasLPAE {
		load = m.loadAtomicWide(base, disp, dst)
	} else {
		load = m.loadBaseDispBody(base, disp, dst, size)
	}
	if volatile {
		m.GenMemBarrier(backend.BarrierLoadAny)
	}
	return load
}

// StoreBaseDisp stores src, of the given size, at [base, #disp].
func (m *Machine) StoreBaseDisp(base, disp int32, src regalloc.RegStorage, size backend.OpSize, volatile bool) *lir.Node {
	if volatile {
		m.GenMemBarrier(backend.BarrierAnyStore)
	}
	var store *lir.Node
	if volatile && isWide(size) && !m.cfg.Features().HasLPAE {
		store = m.storeAtomicWide(base, disp, src)
	} else {
		store = m.storeBaseDispBody(base, disp, src, size)
	}
	if volatile {
		m.GenMemBarrier(backend.BarrierAnyAny)
	}
	return store
}

func isWide(size backend.OpSize) bool {
	return size == backend.SizeWide || size == backend.SizeDouble
}

func (m *Machine) loadBaseDispBody(base, disp int32, dst regalloc.RegStorage, size backend.OpSize) *lir.Node {
	switch size {
	case backend.SizeWide, backend.SizeDouble, backend.SizeSingle:
		return m.loadStoreImm8Shl2(base, disp, dst, true)
	}
	if dst.IsPair() {
		panic(fmt.Sprintf("BUG: %d byte load into %s", size.Bytes(), dst))
	}
	r := int32(dst.Reg())
	if isSingleReg(r) {
		return m.loadStoreImm8Shl2(base, disp, dst, true)
	}

	allLow := isLowReg(r) && isLowReg(base)
	var short, long lir.Opcode
	var shortScale, shortLimit int32
	switch size {
	case backend.SizeWord, backend.SizeReference:
		short, long, shortScale, shortLimit = ThumbLdrRRI5, Thumb2LdrRRI12, 4, 128
		if base == SP && isLowReg(r) && disp >= 0 && disp <= 1020 && disp&3 == 0 {
			return m.NewLIR3(ThumbLdrSpRel, r, SP, disp>>2)
		}
	case backend.SizeUnsignedHalf:
		short, long, shortScale, shortLimit = ThumbLdrhRRI5, Thumb2LdrhRRI12, 2, 64
	case backend.SizeSignedHalf:
		long = Thumb2LdrshRRI12
	case backend.SizeUnsignedByte:
		short, long, shortScale, shortLimit = ThumbLdrbRRI5, Thumb2LdrbRRI12, 1, 32
	case backend.SizeSignedByte:
		long = Thumb2LdrsbRRI12
	}

	switch {
	case shortLimit > 0 && allLow && disp >= 0 && disp < shortLimit && disp%shortScale == 0:
		return m.NewLIR3(short, r, base, disp/shortScale)
	case disp >= 0 && disp < 4092:
		return m.NewLIR3(long, r, base, disp)
	}
	tmp := m.pool.AllocTemp(true)
	m.LoadConstantNoClobber(int32(tmp.Reg()), disp)
	load := m.LoadBaseIndexed(base, int32(tmp.Reg()), dst, 0, size)
	m.pool.FreeTemp(tmp)
	return load
}

func (m *Machine) storeBaseDispBody(base, disp int32, src regalloc.RegStorage, size backend.OpSize) *lir.Node {
	switch size {
	case backend.SizeWide, backend.SizeDouble, backend.SizeSingle:
		return m.loadStoreImm8Shl2(base, disp, src, false)
	}
	if src.IsPair() {
		panic(fmt.Sprintf("BUG: %d byte store of %s", size.Bytes(), src))
	}
	r := int32(src.Reg())
	if isSingleReg(r) {
		return m.loadStoreImm8Shl2(base, disp, src, false)
	}

	allLow := isLowReg(r) && isLowReg(base)
	var short, long lir.Opcode
	var shortScale, shortLimit int32
	switch size {
	case backend.SizeWord, backend.SizeReference:
		short, long, shortScale, shortLimit = ThumbStrRRI5, Thumb2StrRRI12, 4, 128
		if base == SP && isLowReg(r) && disp >= 0 && disp <= 1020 && disp&3 == 0 {
			return m.NewLIR3(ThumbStrSpRel, r, SP, disp>>2)
		}
	case backend.SizeUnsignedHalf, backend.SizeSignedHalf:
		short, long, shortScale, shortLimit = ThumbStrhRRI5, Thumb2StrhRRI12, 2, 64
	case backend.SizeUnsignedByte, backend.SizeSignedByte:
		short, long, shortScale, shortLimit = ThumbStrbRRI5, Thumb2StrbRRI12, 1, 32
	}

	switch {
	case allLow && disp >= 0 && disp < shortLimit && disp%shortScale == 0:
		return m.NewLIR3(short, r, base, disp/shortScale)
	case disp >= 0 && disp < 4092:
		return m.NewLIR3(long, r, base, disp)
	}
	tmp := m.pool.AllocTemp(true)
	m.LoadConstantNoClobber(int32(tmp.Reg()), disp)
	store := m.StoreBaseIndexed(base, int32(tmp.Reg()), src, 0, size)
	m.pool.FreeTemp(tmp)
	return store
}

// loadStoreImm8Shl2 emits the ldrd/strd/vldr/vstr forms, which take a word
// offset of at most 255 words. Other offsets go through a temp base.
func (m *Machine) loadStoreImm8Shl2(base, disp int32, r regalloc.RegStorage, isLoad bool) *lir.Node {
	tmp := regalloc.InvalidStorage
	if disp < 0 || disp > 1020 || disp&3 != 0 {
		tmp = m.pool.AllocTemp(true)
		m.OpRegRegImm(backend.OpAdd, int32(tmp.Reg()), base, disp)
		base, disp = int32(tmp.Reg()), 0
	}
	var n *lir.Node
	switch {
	case r.IsPair():
		op := Thumb2StrdI8
		if isLoad {
			op = Thumb2LdrdI8
		}
		n = m.NewLIR4(op, int32(r.Low()), int32(r.High()), base, disp>>2)
	case isDoubleReg(int32(r.Reg())):
		op := Thumb2Vstrd
		if isLoad {
			op = Thumb2Vldrd
		}
		n = m.NewLIR3(op, int32(r.Reg()), base, disp>>2)
	case isSingleReg(int32(r.Reg())):
		op := Thumb2Vstrs
		if isLoad {
			op = Thumb2Vldrs
		}
		n = m.NewLIR3(op, int32(r.Reg()), base, disp>>2)
	default:
		panic(fmt.Sprintf("BUG: 64-bit or FP access with %s", r))
	}
	if tmp.Valid() {
		m.pool.FreeTemp(tmp)
	}
	return n
}

// loadAtomicWide loads a 64-bit value with ldrexd, which is single-copy
// atomic where ldrd is not.
func (m *Machine) loadAtomicWide(base, disp int32, dst regalloc.RegStorage) *lir.Node {
	addr := regalloc.InvalidStorage
	if disp != 0 {
		addr = m.pool.AllocTemp(true)
		m.OpRegRegImm(backend.OpAdd, int32(addr.Reg()), base, disp)
		base = int32(addr.Reg())
	}
	var load *lir.Node
	if dst.IsPair() {
		load = m.NewLIR3(Thumb2Ldrexd, int32(dst.Low()), int32(dst.High()), base)
	} else {
		pair := m.pool.AllocTempWide(true)
		load = m.NewLIR3(Thumb2Ldrexd, int32(pair.Low()), int32(pair.High()), base)
		m.NewLIR3(Thumb2Fmdrr, int32(dst.Reg()), int32(pair.Low()), int32(pair.High()))
		m.pool.FreeTemp(pair)
	}
	if addr.Valid() {
		m.pool.FreeTemp(addr)
	}
	return load
}

// storeAtomicWide stores a 64-bit value with an ldrexd/strexd loop:
//
//	retry:
//	  ldrexd t0, t1, [addr]
//	  strexd t0, lo, hi, [addr]
//	  cbnz t0, retry
func (m *Machine) storeAtomicWide(base, disp int32, src regalloc.RegStorage) *lir.Node {
	addr := base
	addrTemp := regalloc.InvalidStorage
	if disp != 0 {
		addrTemp = m.pool.AllocTemp(true)
		m.OpRegRegImm(backend.OpAdd, int32(addrTemp.Reg()), base, disp)
		addr = int32(addrTemp.Reg())
	}
	lo, hi := int32(src.Low()), int32(src.High())
	valueTemp := regalloc.InvalidStorage
	if !src.IsPair() {
		valueTemp = m.pool.AllocTempWide(true)
		lo, hi = int32(valueTemp.Low()), int32(valueTemp.High())
		m.NewLIR3(Thumb2Fmrrd, lo, hi, int32(src.Reg()))
	}

	// The loaded value is dead: it only claims the exclusive monitor, so the
	// status register can reuse its low half.
	scratch := m.pool.AllocTempWide(true)
	status := int32(scratch.Low())

	retry := m.NewLabel()
	m.NewLIR3(Thumb2Ldrexd, int32(scratch.Low()), int32(scratch.High()), addr)
	store := m.NewLIR4(Thumb2Strexd, status, lo, hi, addr)
	m.OpCmpImmBranch(CondNe, status, 0, retry)

	m.pool.FreeTemp(scratch)
	if valueTemp.Valid() {
		m.pool.FreeTemp(valueTemp)
	}
	if addrTemp.Valid() {
		m.pool.FreeTemp(addrTemp)
	}
	return store
}

// LoadBaseIndexed loads the value at [base, index, lsl #scale] into dst.
func (m *Machine) LoadBaseIndexed(base, index int32, dst regalloc.RegStorage, scale int32, size backend.OpSize) *lir.Node {
	r := int32(dst.Reg())
	if isFPReg(r) {
		tmp := m.pool.AllocTemp(true)
		m.OpRegRegRegShift(backend.OpAdd, int32(tmp.Reg()), base, index, EncodeShift(ShiftLSL, scale))
		load := m.loadStoreImm8Shl2(int32(tmp.Reg()), 0, dst, true)
		m.pool.FreeTemp(tmp)
		return load
	}
	var thumb, thumb2 lir.Opcode
	switch size {
	case backend.SizeWord, backend.SizeReference:
		thumb, thumb2 = ThumbLdrRRR, Thumb2LdrRRR
	case backend.SizeUnsignedHalf:
		thumb, thumb2 = ThumbLdrhRRR, Thumb2LdrhRRR
	case backend.SizeSignedHalf:
		thumb, thumb2 = ThumbLdrshRRR, Thumb2LdrshRRR
	case backend.SizeUnsignedByte:
		thumb, thumb2 = ThumbLdrbRRR, Thumb2LdrbRRR
	case backend.SizeSignedByte:
		thumb, thumb2 = ThumbLdrsbRRR, Thumb2LdrsbRRR
	default:
		panic(fmt.Sprintf("BUG: indexed load of size %d", size))
	}
	if scale == 0 && isLowReg(r) && isLowReg(base) && isLowReg(index) {
		return m.NewLIR3(thumb, r, base, index)
	}
	return m.NewLIR4(thumb2, r, base, index, scale)
}

// StoreBaseIndexed stores src at [base, index, lsl #scale].
func (m *Machine) StoreBaseIndexed(base, index int32, src regalloc.RegStorage, scale int32, size backend.OpSize) *lir.Node {
	r := int32(src.Reg())
	if isFPReg(r) {
		tmp := m.pool.AllocTemp(true)
		m.OpRegRegRegShift(backend.OpAdd, int32(tmp.Reg()), base, index, EncodeShift(ShiftLSL, scale))
		store := m.loadStoreImm8Shl2(int32(tmp.Reg()), 0, src, false)
		m.pool.FreeTemp(tmp)
		return store
	}
	var thumb, thumb2 lir.Opcode
	switch size {
	case backend.SizeWord, backend.SizeReference:
		thumb, thumb2 = ThumbStrRRR, Thumb2StrRRR
	case backend.SizeUnsignedHalf, backend.SizeSignedHalf:
		thumb, thumb2 = ThumbStrhRRR, Thumb2StrhRRR
	case backend.SizeUnsignedByte, backend.SizeSignedByte:
		thumb, thumb2 = ThumbStrbRRR, Thumb2StrbRRR
	default:
		panic(fmt.Sprintf("BUG: indexed store of size %d", size))
	}
	if scale == 0 && isLowReg(r) && isLowReg(base) && isLowReg(index) {
		return m.NewLIR3(thumb, r, base, index)
	}
	return m.NewLIR4(thumb2, r, base, index, scale)
}

// LoadValueFromFrame loads the frame slot of vreg (two slots when wide) into
// reg. The displacement is filled in by SetupFrame.
func (m *Machine) LoadValueFromFrame(vreg int32, reg regalloc.RegStorage, wide bool) *lir.Node {
	n := m.frameAccess(reg, wide, true)
	m.AnnotateDalvikRegAccess(n, vreg, true, wide)
	return n
}

// StoreValueToFrame stores reg into the frame slot of vreg.
func (m *Machine) StoreValueToFrame(vreg int32, reg regalloc.RegStorage, wide bool) *lir.Node {
	n := m.frameAccess(reg, wide, false)
	m.AnnotateDalvikRegAccess(n, vreg, false, wide)
	return n
}

func (m *Machine) frameAccess(reg regalloc.RegStorage, wide, isLoad bool) *lir.Node {
	if reg.IsPair() {
		if !wide {
			panic("BUG: narrow frame access with a register pair")
		}
		op := Thumb2StrdI8
		if isLoad {
			op = Thumb2LdrdI8
		}
		return m.NewLIR4(op, int32(reg.Low()), int32(reg.High()), SP, 0)
	}
	r := int32(reg.Reg())
	var op lir.Opcode
	switch {
	case isDoubleReg(r):
		op = Thumb2Vstrd
		if isLoad {
			op = Thumb2Vldrd
		}
	case isSingleReg(r):
		op = Thumb2Vstrs
		if isLoad {
			op = Thumb2Vldrs
		}
	default:
		op = Thumb2StrRRI12
		if isLoad {
			op = Thumb2LdrRRI12
		}
	}
	return m.NewLIR3(op, r, SP, 0)
}
