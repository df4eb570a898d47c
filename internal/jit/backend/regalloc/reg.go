// Package regalloc implements the register pool of the LIR backend: temporary
// allocation, value liveness tracking over narrow/wide register views, and
// whole-method promotion of virtual registers into callee-save registers.
package regalloc

import "fmt"

// Reg is a physical register in the encoding of the target architecture.
// The pool treats it as an opaque identifier.
type Reg int32

// InvalidReg is the Reg returned when no register is available.
const InvalidReg Reg = -1

// InvalidSReg marks a register that does not hold any virtual register.
const InvalidSReg int32 = -1

// RegClass tells which register file a register view belongs to.
type RegClass byte

const (
	ClassCore RegClass = iota
	ClassSingle
	ClassDouble
)

// String implements fmt.Stringer.
func (c RegClass) String() string {
	switch c {
	case ClassCore:
		return "core"
	case ClassSingle:
		return "single"
	case ClassDouble:
		return "double"
	}
	return "invalid"
}

// AllocClass is the register class requested by AllocLiveReg.
type AllocClass byte

const (
	AnyReg AllocClass = iota
	CoreReg
	FPReg
)

// RegStorage is where a value lives: a single physical register, or a pair of
// 32-bit core registers holding the low and high words of a 64-bit value.
type RegStorage struct {
	low, high Reg
}

// InvalidStorage is the RegStorage of a failed allocation.
var InvalidStorage = RegStorage{low: InvalidReg, high: InvalidReg}

// Solo returns the RegStorage of a value held in r alone.
func Solo(r Reg) RegStorage {
	return RegStorage{low: r, high: InvalidReg}
}

// Pair returns the RegStorage of a 64-bit value split over lo and hi.
func Pair(lo, hi Reg) RegStorage {
	return RegStorage{low: lo, high: hi}
}

// Valid returns true if s names at least one register.
func (s RegStorage) Valid() bool {
	return s.low != InvalidReg
}

// IsPair returns true if s is a register pair.
func (s RegStorage) IsPair() bool {
	return s.low != InvalidReg && s.high != InvalidReg
}

// Reg returns the register of a solo storage.
func (s RegStorage) Reg() Reg {
	if s.IsPair() {
		panic("BUG: Reg called on a register pair")
	}
	return s.low
}

// Low returns the register holding the low word (or the only register).
func (s RegStorage) Low() Reg {
	return s.low
}

// High returns the register holding the high word of a pair.
func (s RegStorage) High() Reg {
	return s.high
}

// String implements fmt.Stringer.
func (s RegStorage) String() string {
	switch {
	case !s.Valid():
		return "invalid"
	case s.IsPair():
		return fmt.Sprintf("pair(%d,%d)", s.low, s.high)
	default:
		return fmt.Sprintf("solo(%d)", s.low)
	}
}

// Location describes a virtual register value and its current register home.
type Location struct {
	SReg int32
	Wide bool
	Reg  RegStorage
}
