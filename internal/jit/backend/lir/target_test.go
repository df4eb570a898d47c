package lir

import (
	"fmt"
	"strings"
)

// testTarget is a small load/store machine: r0-r15 with r13 the stack
// pointer and r15 the program counter, plus single precision f0-f15.
type testTarget struct{}

const (
	testSP    = 13
	testPC    = 15
	testFPReg = 0x20
)

const (
	opMov Opcode = iota
	opFMov
	opAdd
	opLdr
	opStr
	opFLdr
	opLdrLit
	opLdrd
	opB
	opBl
	opCmp
	opNop
)

type testDesc struct {
	name   string
	flags  Flags
	size   int
	fixup  FixupKind
	format string
}

var testDescs = [...]testDesc{
	opMov:    {"mov", IsBinaryOp | IsMove | RegDef0Use1, 2, FixupNone, "r!0d, r!1d"},
	opFMov:   {"fmov", IsBinaryOp | IsMove | RegDef0Use1, 4, FixupNone, "r!0d, r!1d"},
	opAdd:    {"add", IsTertiaryOp | RegDef0Use12 | SetsCCodes, 2, FixupNone, "r!0d, r!1d, r!2d"},
	opLdr:    {"ldr", IsTertiaryOp | IsLoad | RegDef0Use1, 4, FixupNone, "r!0d, [r!1d, #!2d]"},
	opStr:    {"str", IsTertiaryOp | IsStore | RegUse01, 4, FixupNone, "r!0d, [r!1d, #!2d]"},
	opFLdr:   {"fldr", IsTertiaryOp | IsLoad | RegDef0Use1, 4, FixupNone, "f!0d, [r!1d, #!2d]"},
	opLdrLit: {"ldr", IsBinaryOp | IsLoad | RegDef0 | RegUsePC | NeedsFixup, 4, FixupLoad, "r!0d, [pc, #!1d]"},
	opLdrd:   {"ldrd", IsQuadOp | IsLoad | RegDef01 | RegUse2, 4, FixupNone, "r!0d, r!1d, [r!2d, #!3d]"},
	opB:      {"b", IsUnaryOp | IsBranch | NeedsFixup, 2, FixupT1Branch, "!0t"},
	opBl:     {"bl", IsUnaryOp | IsBranch | RegDefLR, 4, FixupNone, "!0d"},
	opCmp:    {"cmp", IsBinaryOp | RegUse01 | SetsCCodes, 2, FixupNone, "r!0d, r!1d"},
	opNop:    {"nop", NoOperand, 2, FixupNone, ""},
}

func (testTarget) Flags(op Opcode) Flags     { return testDescs[op].flags }
func (testTarget) Size(op Opcode) int        { return testDescs[op].size }
func (testTarget) Fixup(op Opcode) FixupKind { return testDescs[op].fixup }
func (testTarget) Name(op Opcode) string     { return testDescs[op].name }

func (testTarget) RegMask(reg int32) ResourceMask {
	if reg&testFPReg != 0 {
		return Bit(16 + int(reg&0xf))
	}
	return Bit(int(reg))
}

func (t testTarget) SetupTargetResourceMasks(_ *Node, flags Flags, use, def *ResourceMask) {
	if flags.Any(RegUsePC) {
		use.SetBits(t.PCMask())
	}
	if flags.Any(RegDefLR) {
		def.SetBit(14)
	}
}

func (testTarget) PCMask() ResourceMask { return Bit(testPC) }

func (testTarget) RegCopy(dst, src int32) (Opcode, []int32) {
	if dst&testFPReg != 0 {
		return opFMov, []int32{dst, src}
	}
	return opMov, []int32{dst, src}
}

func (testTarget) SameRegClass(a, b int32) bool {
	return a&testFPReg == b&testFPReg
}

func (testTarget) SameMemAccess(a, b *Node) bool {
	return a.Operands[1] == b.Operands[1] && a.Operands[2] == b.Operands[2] &&
		testDescs[a.Opcode].size == testDescs[b.Opcode].size
}

func (testTarget) Format(n *Node) string {
	d := testDescs[n.Opcode]
	out := d.format
	for i := 0; i < 4; i++ {
		out = strings.ReplaceAll(out, fmt.Sprintf("!%dd", i), fmt.Sprint(n.Operands[i]))
		out = strings.ReplaceAll(out, fmt.Sprintf("!%dt", i), fmt.Sprintf("%#x", n.Operands[i]))
	}
	return d.name + " " + out
}

func newTestUnit() *Unit[testTarget] {
	return NewUnit(testTarget{})
}

// live returns the opcodes of the nodes which are not nops, pseudo
// opcodes excluded.
func live(u *Unit[testTarget]) (ret []string) {
	for n := u.First(); n != nil; n = n.Next() {
		if n.IsNop || n.Opcode.IsPseudo() {
			continue
		}
		ret = append(ret, u.Target().Format(n))
	}
	return
}
