package thumb2

import (
	"fmt"

	"github.com/thumbjit/thumbjit/internal/jit/backend"
	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
	"github.com/thumbjit/thumbjit/internal/jit/backend/regalloc"
)

// OpRegCopyNoInsert returns an unlinked move from src to dst. A move of a
// register to itself is returned as a nop when safe optimizations are on.
func (m *Machine) OpRegCopyNoInsert(dst, src int32) *lir.Node {
	n := m.RawLIR(m.DalvikOffset(), regCopyOpcode(dst, src), nil, dst, src)
	if m.cfg.SafeOptimizations() && dst == src {
		n.Nop()
	}
	return n
}

// OpRegCopy appends a move from src to dst.
func (m *Machine) OpRegCopy(dst, src int32) *lir.Node {
	n := m.OpRegCopyNoInsert(dst, src)
	m.AppendLIR(n)
	return n
}

// OpRegCopyWide copies a 64-bit value between register pairs and doubles.
func (m *Machine) OpRegCopyWide(dst, src regalloc.RegStorage) {
	if dst == src {
		return
	}
	switch {
	case !dst.IsPair() && !src.IsPair():
		m.NewLIR2(Thumb2Vmovd, int32(dst.Reg()), int32(src.Reg()))
	case !dst.IsPair():
		m.NewLIR3(Thumb2Fmdrr, int32(dst.Reg()), int32(src.Low()), int32(src.High()))
	case !src.IsPair():
		m.NewLIR3(Thumb2Fmrrd, int32(dst.Low()), int32(dst.High()), int32(src.Reg()))
	case dst.Low() == src.High():
		if dst.High() == src.Low() {
			panic(fmt.Sprintf("BUG: OpRegCopyWide cannot swap %s and %s", dst, src))
		}
		m.OpRegCopy(int32(dst.High()), int32(src.High()))
		m.OpRegCopy(int32(dst.Low()), int32(src.Low()))
	default:
		m.OpRegCopy(int32(dst.Low()), int32(src.Low()))
		m.OpRegCopy(int32(dst.High()), int32(src.High()))
	}
}

// OpCondBranch appends a conditional branch to target. target may be set
// later on the returned node.
func (m *Machine) OpCondBranch(cond Cond, target *lir.Node) *lir.Node {
	n := m.NewLIR2(ThumbBCond, 0, int32(cond))
	n.Target = target
	return n
}

// OpUnconditionalBranch appends a branch to target.
func (m *Machine) OpUnconditionalBranch(target *lir.Node) *lir.Node {
	n := m.NewLIR1(ThumbBUncond, 0)
	n.Target = target
	return n
}

// OpCmpImmBranch compares reg with v and branches to target if cond holds.
// Comparisons of a low register with zero use cbz/cbnz.
func (m *Machine) OpCmpImmBranch(cond Cond, reg, v int32, target *lir.Node) *lir.Node {
	var branch *lir.Node
	if isLowReg(reg) && v == 0 {
		switch cond {
		case CondEq:
			branch = m.NewLIR2(Thumb2Cbz, reg, 0)
		case CondNe:
			branch = m.NewLIR2(Thumb2Cbnz, reg, 0)
		case CondLs:
			// Unsigned reg <= 0 only holds for zero.
			branch = m.NewLIR2(Thumb2Cbz, reg, 0)
		}
	}
	if branch == nil {
		m.OpRegImm(backend.OpCmp, reg, v)
		branch = m.NewLIR2(ThumbBCond, 0, int32(cond))
	}
	branch.Target = target
	return branch
}

// OpIT starts an IT block: cond for the next instruction, then guide
// (up to three of 'T' or 'E') for the following ones.
func (m *Machine) OpIT(cond Cond, guide string) *lir.Node {
	return m.NewLIR2(Thumb2It, int32(cond), itMask(cond, guide))
}

// OpEndIT closes the IT block started by it.
func (m *Machine) OpEndIT(it *lir.Node) *lir.Node {
	if it == nil || it.Opcode != Thumb2It {
		panic("BUG: OpEndIT without an IT block")
	}
	return m.NewLIR0(lir.PseudoBarrier)
}

// OpRegImm applies op to reg and v, storing the result in reg.
func (m *Machine) OpRegImm(op backend.OpKind, reg, v int32) *lir.Node {
	neg := v < 0
	abs := v
	if neg {
		abs = -v
	}
	short := abs&0xff == abs && isLowReg(reg)
	var opcode lir.Opcode
	switch op {
	case backend.OpAdd:
		if !neg && reg == SP && v <= 508 {
			return m.NewLIR1(ThumbAddSpI7, v>>2)
		}
		opcode = ThumbAddRI8
		if neg {
			opcode = ThumbSubRI8
		}
	case backend.OpSub:
		if !neg && reg == SP && v <= 508 {
			return m.NewLIR1(ThumbSubSpI7, v>>2)
		}
		opcode = ThumbSubRI8
		if neg {
			opcode = ThumbAddRI8
		}
	case backend.OpCmp:
		opcode = ThumbCmpRI8
		short = short && !neg
	default:
		short = false
	}
	if short {
		return m.NewLIR2(opcode, reg, abs)
	}
	return m.OpRegRegImm(op, reg, reg, v)
}

// OpRegRegImm stores op applied to src and v in dst. Immediates with no
// encoding are loaded into a temp.
func (m *Machine) OpRegRegImm(op backend.OpKind, dst, src, v int32) *lir.Node {
	neg := v < 0
	abs := v
	if neg {
		abs = -v
	}
	allLow := isLowReg(dst) && isLowReg(src)
	mod := ModifiedImmediate(uint32(v))
	var opcode, alt lir.Opcode

	switch op {
	case backend.OpLsl, backend.OpLsr, backend.OpAsr, backend.OpRor:
		return m.shiftImm(op, dst, src, v)
	case backend.OpAdd, backend.OpSub:
		if op == backend.OpAdd && isLowReg(dst) && v >= 0 && v <= 1020 && v&3 == 0 {
			switch src {
			case SP:
				return m.NewLIR3(ThumbAddSpRel, dst, SP, v>>2)
			case PC:
				return m.NewLIR2(ThumbAddPcRel, dst, v>>2)
			}
		}
		if allLow && abs&7 == abs {
			opcode = ThumbAddRRI3
			if (op == backend.OpAdd) == neg {
				opcode = ThumbSubRRI3
			}
			return m.NewLIR3(opcode, dst, src, abs)
		}
		if mod < 0 {
			if mod = ModifiedImmediate(uint32(-v)); mod >= 0 {
				if op == backend.OpAdd {
					op = backend.OpSub
				} else {
					op = backend.OpAdd
				}
			}
		}
		// The 12-bit forms do not set the flags, which callers rely on for
		// small immediates, so they are only a fallback.
		if mod < 0 && abs>>12 == 0 {
			opcode = Thumb2AddRRI12
			if (op == backend.OpAdd) == neg {
				opcode = Thumb2SubRRI12
			}
			return m.NewLIR3(opcode, dst, src, abs)
		}
		if op == backend.OpSub {
			opcode, alt = Thumb2SubRRI8M, Thumb2SubRRR
		} else {
			opcode, alt = Thumb2AddRRI8M, Thumb2AddRRR
		}
	case backend.OpRsub:
		opcode, alt = Thumb2RsubRRI8M, Thumb2RsubRRR
	case backend.OpAdc:
		opcode, alt = Thumb2AdcRRI8M, Thumb2AdcRRR
	case backend.OpSbc:
		opcode, alt = Thumb2SbcRRI8M, Thumb2SbcRRR
	case backend.OpOr:
		opcode, alt = Thumb2OrrRRI8M, Thumb2OrrRRR
	case backend.OpAnd:
		if mod < 0 {
			if inv := ModifiedImmediate(^uint32(v)); inv >= 0 {
				return m.NewLIR3(Thumb2BicRRI8M, dst, src, inv)
			}
		}
		opcode, alt = Thumb2AndRRI8M, Thumb2AndRRR
	case backend.OpBic:
		opcode, alt = Thumb2BicRRI8M, Thumb2BicRRR
	case backend.OpXor:
		opcode, alt = Thumb2EorRRI8M, Thumb2EorRRR
	case backend.OpMul:
		mod, alt = -1, Thumb2MulRRR
	case backend.OpCmp:
		switch {
		case mod >= 0:
			return m.NewLIR2(Thumb2CmpRI8M, src, mod)
		case ModifiedImmediate(uint32(-v)) >= 0:
			return m.NewLIR2(Thumb2CmnRI8M, src, ModifiedImmediate(uint32(-v)))
		}
		tmp := m.pool.AllocTemp(true)
		m.LoadConstantNoClobber(int32(tmp.Reg()), v)
		ret := m.OpRegReg(backend.OpCmp, src, int32(tmp.Reg()))
		m.pool.FreeTemp(tmp)
		return ret
	default:
		panic(fmt.Sprintf("BUG: OpRegRegImm(%s) not supported on thumb2", op))
	}

	if mod >= 0 {
		return m.NewLIR3(opcode, dst, src, mod)
	}
	tmp := m.pool.AllocTemp(true)
	m.LoadConstantNoClobber(int32(tmp.Reg()), v)
	var ret *lir.Node
	if descriptorOf(alt).flags.Any(lir.IsQuadOp) {
		ret = m.NewLIR4(alt, dst, src, int32(tmp.Reg()), 0)
	} else {
		ret = m.NewLIR3(alt, dst, src, int32(tmp.Reg()))
	}
	m.pool.FreeTemp(tmp)
	return ret
}

func (m *Machine) shiftImm(op backend.OpKind, dst, src, amount int32) *lir.Node {
	allLow := isLowReg(dst) && isLowReg(src)
	switch op {
	case backend.OpLsl:
		if allLow {
			return m.NewLIR3(ThumbLslRRI5, dst, src, amount)
		}
		return m.NewLIR3(Thumb2LslRRI5, dst, src, amount)
	case backend.OpLsr:
		if allLow {
			return m.NewLIR3(ThumbLsrRRI5, dst, src, amount)
		}
		return m.NewLIR3(Thumb2LsrRRI5, dst, src, amount)
	case backend.OpAsr:
		if allLow {
			return m.NewLIR3(ThumbAsrRRI5, dst, src, amount)
		}
		return m.NewLIR3(Thumb2AsrRRI5, dst, src, amount)
	default:
		return m.NewLIR3(Thumb2RorRRI5, dst, src, amount)
	}
}

// OpRegReg applies op to dst and src, storing the result in dst.
func (m *Machine) OpRegReg(op backend.OpKind, dst, src int32) *lir.Node {
	return m.OpRegRegShift(op, dst, src, 0)
}

// OpRegRegShift applies op to dst and src shifted by the EncodeShift value
// shift, storing the result in dst.
func (m *Machine) OpRegRegShift(op backend.OpKind, dst, src, shift int32) *lir.Node {
	thumb := shift == 0 && isLowReg(dst) && isLowReg(src)
	pick := func(t, t2 lir.Opcode) lir.Opcode {
		if thumb {
			return t
		}
		return t2
	}
	var opcode lir.Opcode
	switch op {
	case backend.OpAdc:
		opcode = pick(ThumbAdcRR, Thumb2AdcRRR)
	case backend.OpAnd:
		opcode = pick(ThumbAndRR, Thumb2AndRRR)
	case backend.OpBic:
		opcode = pick(ThumbBicRR, Thumb2BicRRR)
	case backend.OpCmn:
		opcode = pick(ThumbCmnRR, Thumb2CmnRR)
	case backend.OpCmp:
		switch {
		case thumb:
			opcode = ThumbCmpRR
		case shift != 0:
			opcode = Thumb2CmpRR
		case !isLowReg(dst) && !isLowReg(src):
			opcode = ThumbCmpHH
		case isLowReg(dst):
			opcode = ThumbCmpLH
		default:
			opcode = ThumbCmpHL
		}
	case backend.OpXor:
		opcode = pick(ThumbEorRR, Thumb2EorRRR)
	case backend.OpMov:
		opcode = regCopyOpcode(dst, src)
	case backend.OpMul:
		opcode = pick(ThumbMul, Thumb2MulRRR)
	case backend.OpMvn:
		opcode = pick(ThumbMvn, Thumb2MvnRR)
	case backend.OpNeg:
		if !thumb {
			return m.NewLIR3(Thumb2RsubRRI8M, dst, src, 0)
		}
		opcode = ThumbNeg
	case backend.OpOr:
		opcode = pick(ThumbOrr, Thumb2OrrRRR)
	case backend.OpSbc:
		opcode = pick(ThumbSbc, Thumb2SbcRRR)
	case backend.OpTst:
		opcode = pick(ThumbTst, Thumb2TstRR)
	case backend.OpLsl:
		opcode = pick(ThumbLslRR, Thumb2LslRRR)
	case backend.OpLsr:
		opcode = pick(ThumbLsrRR, Thumb2LsrRRR)
	case backend.OpAsr:
		opcode = pick(ThumbAsrRR, Thumb2AsrRRR)
	case backend.OpRor:
		opcode = pick(ThumbRorRR, Thumb2RorRRR)
	case backend.OpAdd:
		opcode = pick(ThumbAddRRR, Thumb2AddRRR)
	case backend.OpSub:
		opcode = pick(ThumbSubRRR, Thumb2SubRRR)
	default:
		panic(fmt.Sprintf("BUG: OpRegReg(%s) not supported on thumb2", op))
	}

	d := descriptorOf(opcode)
	switch d.flags.Arity() {
	case 2:
		return m.NewLIR2(opcode, dst, src)
	case 3:
		if d.fields[2].kind == fieldShift {
			return m.NewLIR3(opcode, dst, src, shift)
		}
		return m.NewLIR3(opcode, dst, dst, src)
	case 4:
		return m.NewLIR4(opcode, dst, dst, src, shift)
	}
	panic(fmt.Sprintf("BUG: unexpected arity of %s", d.name))
}

// OpRegRegReg stores op applied to a and b in dst.
func (m *Machine) OpRegRegReg(op backend.OpKind, dst, a, b int32) *lir.Node {
	return m.OpRegRegRegShift(op, dst, a, b, 0)
}

// OpRegRegRegShift stores op applied to a and b shifted by shift in dst.
// Division and remainder need the hardware divider.
func (m *Machine) OpRegRegRegShift(op backend.OpKind, dst, a, b, shift int32) *lir.Node {
	thumb := shift == 0 && isLowReg(dst) && isLowReg(a) && isLowReg(b)
	var opcode lir.Opcode
	switch op {
	case backend.OpAdd:
		opcode = Thumb2AddRRR
		if thumb {
			opcode = ThumbAddRRR
		}
	case backend.OpSub:
		opcode = Thumb2SubRRR
		if thumb {
			opcode = ThumbSubRRR
		}
	case backend.OpRsub:
		opcode = Thumb2RsubRRR
	case backend.OpAdc:
		opcode = Thumb2AdcRRR
	case backend.OpSbc:
		opcode = Thumb2SbcRRR
	case backend.OpAnd:
		opcode = Thumb2AndRRR
	case backend.OpBic:
		opcode = Thumb2BicRRR
	case backend.OpOr:
		opcode = Thumb2OrrRRR
	case backend.OpXor:
		opcode = Thumb2EorRRR
	case backend.OpMul:
		opcode = Thumb2MulRRR
	case backend.OpDiv, backend.OpRem:
		if !m.cfg.Features().HasDivide {
			panic(fmt.Sprintf("BUG: %s without a hardware divider", op))
		}
		if op == backend.OpDiv {
			opcode = Thumb2SdivRRR
			break
		}
		// a - (a / b) * b
		tmp := m.pool.AllocTemp(true)
		m.NewLIR3(Thumb2SdivRRR, int32(tmp.Reg()), a, b)
		ret := m.NewLIR4(Thumb2MlsRRRR, dst, int32(tmp.Reg()), b, a)
		m.pool.FreeTemp(tmp)
		return ret
	case backend.OpLsl:
		opcode = Thumb2LslRRR
	case backend.OpLsr:
		opcode = Thumb2LsrRRR
	case backend.OpAsr:
		opcode = Thumb2AsrRRR
	case backend.OpRor:
		opcode = Thumb2RorRRR
	default:
		panic(fmt.Sprintf("BUG: OpRegRegReg(%s) not supported on thumb2", op))
	}
	if descriptorOf(opcode).flags.Any(lir.IsQuadOp) {
		return m.NewLIR4(opcode, dst, a, b, shift)
	}
	if shift != 0 {
		panic(fmt.Sprintf("BUG: shifted operand for %s", op))
	}
	return m.NewLIR3(opcode, dst, a, b)
}

// GenPackedSwitch branches to targets[key-lowKey], or falls through when
// the key is out of range:
//
//	adr   base, table
//	sub   idx, key, #lowKey
//	cmp   idx, #len-1
//	bhi   done
//	ldr   disp, [base, idx, lsl #2]
//	add   pc, disp
//	done:
func (m *Machine) GenPackedSwitch(key, lowKey int32, targets []*lir.Node) *lir.EmbeddedData {
	tab := &lir.EmbeddedData{Kind: lir.EmbeddedPackedSwitch, Keys: []int32{lowKey}, Targets: targets}
	m.switchTables = append(m.switchTables, tab)

	base := m.pool.AllocTemp(true)
	m.NewLIR3(Thumb2Adr, int32(base.Reg()), 0, m.WrapPointer(tab))
	idx := key
	var idxTemp regalloc.RegStorage
	if lowKey != 0 {
		idxTemp = m.pool.AllocTemp(true)
		idx = int32(idxTemp.Reg())
		m.OpRegRegImm(backend.OpSub, idx, key, lowKey)
	}
	m.OpRegImm(backend.OpCmp, idx, int32(len(targets)-1))
	over := m.OpCondBranch(CondHi, nil)

	disp := m.pool.AllocTemp(true)
	m.LoadBaseIndexed(int32(base.Reg()), idx, disp, 2, backend.SizeWord)
	tab.Anchor = m.NewLIR1(Thumb2AddPCR, int32(disp.Reg()))
	over.Target = m.NewLabel()

	m.pool.FreeTemp(disp)
	if lowKey != 0 {
		m.pool.FreeTemp(idxTemp)
	}
	m.pool.FreeTemp(base)
	return tab
}

// GenSparseSwitch branches to the target of the matching key by a linear
// scan of the (key, displacement) table, or falls through:
//
//	adr   base, table
//	mov   idx, #len
//	loop:
//	ldmia base!, {k, disp}
//	cmp   k, key
//	it    eq
//	add   pc, disp
//	subs  idx, idx, #1
//	bne   loop
func (m *Machine) GenSparseSwitch(key int32, keys []int32, targets []*lir.Node) *lir.EmbeddedData {
	if len(keys) != len(targets) {
		panic("BUG: sparse switch with mismatched keys and targets")
	}
	tab := &lir.EmbeddedData{Kind: lir.EmbeddedSparseSwitch, Keys: keys, Targets: targets}
	m.switchTables = append(m.switchTables, tab)

	base := m.pool.AllocTemp(true)
	k := m.pool.AllocTemp(true)
	disp := m.pool.AllocTemp(true)
	// ldmia loads the lower numbered register first.
	if k.Reg() > disp.Reg() {
		k, disp = disp, k
	}
	m.NewLIR3(Thumb2Adr, int32(base.Reg()), 0, m.WrapPointer(tab))
	idx := m.pool.AllocTemp(true)
	m.LoadConstantNoClobber(int32(idx.Reg()), int32(len(keys)))

	loop := m.NewLabel()
	m.NewLIR2(Thumb2LdmiaWB, int32(base.Reg()), 1<<uint(k.Reg())|1<<uint(disp.Reg()))
	m.OpRegReg(backend.OpCmp, int32(k.Reg()), key)
	it := m.OpIT(CondEq, "")
	tab.Anchor = m.NewLIR1(Thumb2AddPCR, int32(disp.Reg()))
	m.OpEndIT(it)
	m.OpRegRegImm(backend.OpSub, int32(idx.Reg()), int32(idx.Reg()), 1)
	m.OpCondBranch(CondNe, loop)

	m.pool.FreeTemp(idx)
	m.pool.FreeTemp(disp)
	m.pool.FreeTemp(k)
	m.pool.FreeTemp(base)
	return tab
}

// GenFillArrayData calls the runtime to copy data, count elements of width
// bytes each, into the array held by array. refs is the reference bitmap
// of the safepoint of the call.
func (m *Machine) GenFillArrayData(array int32, width uint16, data []byte, refs []byte) *lir.EmbeddedData {
	tab := &lir.EmbeddedData{Kind: lir.EmbeddedFillArray, Payload: lir.NewFillArrayPayload(width, data)}
	m.fillArrays = append(m.fillArrays, tab)

	m.pool.FlushAllRegs()
	m.pool.LockTemp(regalloc.Reg(R0))
	m.pool.LockTemp(regalloc.Reg(R1))
	if array != R0 {
		m.OpRegCopy(R0, array)
	}
	m.LoadBaseDisp(RegSelf, EntrypointHandleFillArrayData.Offset(), regalloc.Solo(regalloc.Reg(LR)), backend.SizeWord, false)
	m.NewLIR3(Thumb2Adr, R1, 0, m.WrapPointer(tab))
	m.pool.ClobberAllTemps()
	call := m.NewLIR1(ThumbBlxR, LR)
	m.MarkSafepointPC(call, refs)
	m.pool.FreeTemp(regalloc.Solo(regalloc.Reg(R0)))
	m.pool.FreeTemp(regalloc.Solo(regalloc.Reg(R1)))
	return tab
}

// CallRuntime calls the runtime helper ep and records the return address as
// a safepoint with the reference bitmap refs. Arguments are expected in
// r0-r3 already.
func (m *Machine) CallRuntime(ep Entrypoint, refs []byte) *lir.Node {
	m.LoadBaseDisp(RegSelf, ep.Offset(), regalloc.Solo(regalloc.Reg(LR)), backend.SizeWord, false)
	m.pool.ClobberAllTemps()
	call := m.NewLIR1(ThumbBlxR, LR)
	m.MarkSafepointPC(call, refs)
	return call
}

// GenMemBarrier emits the dmb for kind unless the previous instruction is
// the same barrier, and returns true if one was emitted. Either way the
// barrier is a scheduling barrier.
func (m *Machine) GenMemBarrier(kind backend.BarrierKind) bool {
	option := int32(0xb) // ish
	if kind == backend.BarrierStoreStore {
		option = 0xa // ishst
	}
	barrier := m.Last()
	emitted := false
	if barrier == nil || barrier.Opcode != Thumb2Dmb || barrier.Operands[0] != option {
		barrier = m.NewLIR1(Thumb2Dmb, option)
		emitted = true
	}
	m.MarkScheduleBarrier(barrier)
	return emitted
}
