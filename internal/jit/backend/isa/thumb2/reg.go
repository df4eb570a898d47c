package thumb2

import (
	"fmt"

	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
	"github.com/thumbjit/thumbjit/internal/jit/backend/regalloc"
)

// Registers are encoded in LIR operands as the hardware number, or-ed with
// singleFlag for single precision VFP registers and doubleFlag for double
// precision ones.
const (
	singleFlag = 0x20
	doubleFlag = 0x40
	regNumMask = 0x1f
)

// Core registers.
const (
	R0 int32 = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP
	LR
	PC
)

const (
	// RegSuspend holds the suspend check countdown.
	RegSuspend = R4
	// RegSelf holds the current thread.
	RegSelf = R9
)

// S returns single precision register sN.
func S(n int) int32 { return int32(singleFlag | n) }

// D returns double precision register dN.
func D(n int) int32 { return int32(doubleFlag | n) }

func isFPReg(r int32) bool     { return r&(singleFlag|doubleFlag) != 0 }
func isSingleReg(r int32) bool { return r&singleFlag != 0 }
func isDoubleReg(r int32) bool { return r&doubleFlag != 0 }
func isLowReg(r int32) bool    { return r >= 0 && r < 8 }
func regNum(r int32) int32     { return r & regNumMask }

// RegName returns the assembler name of r.
func RegName(r int32) string {
	switch {
	case isDoubleReg(r):
		return fmt.Sprintf("d%d", regNum(r))
	case isSingleReg(r):
		return fmt.Sprintf("s%d", regNum(r))
	}
	switch r {
	case SP:
		return "sp"
	case LR:
		return "lr"
	case PC:
		return "pc"
	}
	return fmt.Sprintf("r%d", r)
}

// Resource mask layout: r0-r15 occupy bits 0-15 and s0-s31 bits 16-47. A
// double covers the bits of its two singles.
const fpReg0 = 16

func regMask(r int32) lir.ResourceMask {
	switch {
	case isDoubleReg(r):
		return lir.Bits(fpReg0+2*int(regNum(r)), 2)
	case isSingleReg(r):
		return lir.Bit(fpReg0 + int(regNum(r)))
	}
	return lir.Bit(int(r))
}

// PoolConfig returns the register files handed to the allocator.
//
// r4 (suspend), r9 (self), sp, lr and pc are reserved. r0-r3 and r12 are
// caller-save temporaries, r5-r8, r10 and r11 are callee-save and only given
// out by promotion. s0-s15/d0-d7 are temporaries and s16-s31/d8-d15 are
// callee-save.
func PoolConfig() regalloc.PoolConfig {
	cfg := regalloc.PoolConfig{
		Core:      []regalloc.Reg{0, 1, 2, 3, 5, 6, 7, 8, 10, 11, 12},
		CoreTemps: []regalloc.Reg{0, 1, 2, 3, 12},
		DoubleViews: func(d regalloc.Reg) (lo, hi regalloc.Reg, ok bool) {
			n := int(regNum(int32(d)))
			return regalloc.Reg(S(2 * n)), regalloc.Reg(S(2*n + 1)), true
		},
		RegNum: func(r regalloc.Reg) int { return int(regNum(int32(r))) },
		Name:   func(r regalloc.Reg) string { return RegName(int32(r)) },
	}
	for n := 0; n < 32; n++ {
		cfg.Singles = append(cfg.Singles, regalloc.Reg(S(n)))
		if n < 16 {
			cfg.SingleTemps = append(cfg.SingleTemps, regalloc.Reg(S(n)))
		}
	}
	for n := 0; n < 16; n++ {
		cfg.Doubles = append(cfg.Doubles, regalloc.Reg(D(n)))
		if n < 8 {
			cfg.DoubleTemps = append(cfg.DoubleTemps, regalloc.Reg(D(n)))
		}
	}
	return cfg
}

// Cond is an ARM condition code.
type Cond int32

const (
	CondEq Cond = iota
	CondNe
	CondCs
	CondCc
	CondMi
	CondPl
	CondVs
	CondVc
	CondHi
	CondLs
	CondGe
	CondLt
	CondGt
	CondLe
	CondAl
	CondNv
)

var condNames = [...]string{"eq", "ne", "cs", "cc", "mi", "pl", "vs", "vc", "hi", "ls", "ge", "lt", "gt", "le", "al", "nv"}

// String implements fmt.Stringer.
func (c Cond) String() string {
	return condNames[c&0xf]
}

// Invert returns the opposite condition.
func (c Cond) Invert() Cond {
	return c ^ 1
}

// Shift kinds of the register shift field.
const (
	ShiftLSL int32 = iota
	ShiftLSR
	ShiftASR
	ShiftROR
)

// EncodeShift packs a shift kind and amount for the Shift field.
func EncodeShift(kind, amount int32) int32 {
	return (amount&0x1f)<<2 | kind&3
}
