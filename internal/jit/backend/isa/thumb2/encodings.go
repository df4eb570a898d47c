package thumb2

import (
	"fmt"

	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
)

// descriptor describes how to encode one opcode.
//
// Formats use !<operand index><kind> directives expanded by the printer, see
// expandFormat.
type descriptor struct {
	opcode   lir.Opcode
	skeleton uint32
	fields   [4]field
	flags    lir.Flags
	name     string
	format   string
	size     int
	fixup    lir.FixupKind
}

func enc(op lir.Opcode, skeleton uint32, f0, f1, f2, f3 field, flags lir.Flags, name, format string, size int, fixup lir.FixupKind) descriptor {
	return descriptor{opcode: op, skeleton: skeleton, fields: [4]field{f0, f1, f2, f3}, flags: flags, name: name, format: format, size: size, fixup: fixup}
}

const (
	noFixup = lir.FixupNone
)

// Flag shorthands for the table below.
const (
	fNone  = lir.NoOperand
	fUnary = lir.IsUnaryOp
	fBin   = lir.IsBinaryOp
	fTer   = lir.IsTertiaryOp
	fQuad  = lir.IsQuadOp
	fSetCC = lir.SetsCCodes
	fUseCC = lir.UsesCCodes
	fLoad  = lir.IsLoad
	fStore = lir.IsStore
	fBr    = lir.IsBranch
	fFix   = lir.NeedsFixup
)

// encodings is indexed by opcode.
var encodings = [...]descriptor{
	enc(ThumbAdcRR, 0x4140, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01|fSetCC|fUseCC, "adcs", "!0C, !1C", 2, noFixup),
	enc(ThumbAddRRI3, 0x1c00, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegDef0Use1|fSetCC, "adds", "!0C, !1C, #!2d", 2, noFixup),
	enc(ThumbAddRI8, 0x3000, bb(10, 8), bb(7, 0), unused, unused,
		fBin|lir.RegDef0Use0|fSetCC, "adds", "!0C, !0C, #!1d", 2, noFixup),
	enc(ThumbAddRRR, 0x1800, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegDef0Use12|fSetCC, "adds", "!0C, !1C, !2C", 2, noFixup),
	enc(ThumbAddRRLH, 0x4440, bb(2, 0), bb(6, 3), unused, unused,
		fBin|lir.RegDef0Use01, "add", "!0C, !1C", 2, noFixup),
	enc(ThumbAddRRHL, 0x4480, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01, "add", "!0C, !1C", 2, noFixup),
	enc(ThumbAddRRHH, 0x44c0, bb(2, 0), bb(6, 3), unused, unused,
		fBin|lir.RegDef0Use01, "add", "!0C, !1C", 2, noFixup),
	enc(ThumbAddPcRel, 0xa000, bb(10, 8), bb(7, 0), unused, unused,
		fBin|lir.RegDef0|lir.RegUsePC, "add", "!0C, pc, #!1E", 2, noFixup),
	enc(ThumbAddSpRel, 0xa800, bb(10, 8), skip, bb(7, 0), unused,
		fTer|lir.RegDef0|lir.RegUseSP, "add", "!0C, sp, #!2E", 2, noFixup),
	enc(ThumbAddSpI7, 0xb000, bb(6, 0), unused, unused, unused,
		fUnary|lir.RegDefSP|lir.RegUseSP, "add", "sp, #!0E", 2, noFixup),
	enc(ThumbAndRR, 0x4000, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01|fSetCC, "ands", "!0C, !1C", 2, noFixup),
	enc(ThumbAsrRRI5, 0x1000, bb(2, 0), bb(5, 3), bb(10, 6), unused,
		fTer|lir.RegDef0Use1|fSetCC, "asrs", "!0C, !1C, #!2d", 2, noFixup),
	enc(ThumbAsrRR, 0x4100, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01|fSetCC, "asrs", "!0C, !1C", 2, noFixup),
	enc(ThumbBCond, 0xd000, bb(7, 0), bb(11, 8), unused, unused,
		fBin|fBr|fUseCC|fFix, "b!1c", "!0t", 2, lir.FixupCondBranch),
	enc(ThumbBUncond, 0xe000, bb(10, 0), unused, unused, unused,
		fUnary|fBr|fFix, "b", "!0t", 2, lir.FixupT1Branch),
	enc(ThumbBicRR, 0x4380, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01|fSetCC, "bics", "!0C, !1C", 2, noFixup),
	enc(ThumbBkpt, 0xbe00, bb(7, 0), unused, unused, unused,
		fUnary|fBr, "bkpt", "!0d", 2, noFixup),
	enc(ThumbBlxR, 0x4780, bb(6, 3), unused, unused, unused,
		fUnary|lir.RegUse0|fBr|lir.RegDefLR, "blx", "!0C", 2, noFixup),
	enc(ThumbBx, 0x4700, bb(6, 3), unused, unused, unused,
		fUnary|lir.RegUse0|fBr, "bx", "!0C", 2, noFixup),
	enc(ThumbCmnRR, 0x42c0, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegUse01|fSetCC, "cmn", "!0C, !1C", 2, noFixup),
	enc(ThumbCmpRI8, 0x2800, bb(10, 8), bb(7, 0), unused, unused,
		fBin|lir.RegUse0|fSetCC, "cmp", "!0C, #!1d", 2, noFixup),
	enc(ThumbCmpRR, 0x4280, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegUse01|fSetCC, "cmp", "!0C, !1C", 2, noFixup),
	enc(ThumbCmpLH, 0x4540, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegUse01|fSetCC, "cmp", "!0C, !1C", 2, noFixup),
	enc(ThumbCmpHL, 0x4580, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegUse01|fSetCC, "cmp", "!0C, !1C", 2, noFixup),
	enc(ThumbCmpHH, 0x45c0, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegUse01|fSetCC, "cmp", "!0C, !1C", 2, noFixup),
	enc(ThumbEorRR, 0x4040, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01|fSetCC, "eors", "!0C, !1C", 2, noFixup),
	enc(ThumbLdmia, 0xc800, bb(10, 8), bb(7, 0), unused, unused,
		fBin|lir.RegDef0Use0|lir.RegDefList1|fLoad, "ldmia", "!0C!!, <!1R>", 2, noFixup),
	enc(ThumbLdrRRI5, 0x6800, bb(2, 0), bb(5, 3), bb(10, 6), unused,
		fTer|lir.RegDef0Use1|fLoad, "ldr", "!0C, [!1C, #!2E]", 2, noFixup),
	enc(ThumbLdrRRR, 0x5800, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegDef0Use12|fLoad, "ldr", "!0C, [!1C, !2C]", 2, noFixup),
	enc(ThumbLdrPcRel, 0x4800, bb(10, 8), bb(7, 0), unused, unused,
		fBin|lir.RegDef0|lir.RegUsePC|fLoad|fFix, "ldr", "!0C, [pc, #!1E]", 2, lir.FixupLoad),
	enc(ThumbLdrSpRel, 0x9800, bb(10, 8), skip, bb(7, 0), unused,
		fTer|lir.RegDef0|lir.RegUseSP|fLoad, "ldr", "!0C, [sp, #!2E]", 2, noFixup),
	enc(ThumbLdrbRRI5, 0x7800, bb(2, 0), bb(5, 3), bb(10, 6), unused,
		fTer|lir.RegDef0Use1|fLoad, "ldrb", "!0C, [!1C, #!2d]", 2, noFixup),
	enc(ThumbLdrbRRR, 0x5c00, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegDef0Use12|fLoad, "ldrb", "!0C, [!1C, !2C]", 2, noFixup),
	enc(ThumbLdrhRRI5, 0x8800, bb(2, 0), bb(5, 3), bb(10, 6), unused,
		fTer|lir.RegDef0Use1|fLoad, "ldrh", "!0C, [!1C, #!2F]", 2, noFixup),
	enc(ThumbLdrhRRR, 0x5a00, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegDef0Use12|fLoad, "ldrh", "!0C, [!1C, !2C]", 2, noFixup),
	enc(ThumbLdrsbRRR, 0x5600, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegDef0Use12|fLoad, "ldrsb", "!0C, [!1C, !2C]", 2, noFixup),
	enc(ThumbLdrshRRR, 0x5e00, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegDef0Use12|fLoad, "ldrsh", "!0C, [!1C, !2C]", 2, noFixup),
	enc(ThumbLslRRI5, 0x0000, bb(2, 0), bb(5, 3), bb(10, 6), unused,
		fTer|lir.RegDef0Use1|fSetCC, "lsls", "!0C, !1C, #!2d", 2, noFixup),
	enc(ThumbLslRR, 0x4080, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01|fSetCC, "lsls", "!0C, !1C", 2, noFixup),
	enc(ThumbLsrRRI5, 0x0800, bb(2, 0), bb(5, 3), bb(10, 6), unused,
		fTer|lir.RegDef0Use1|fSetCC, "lsrs", "!0C, !1C, #!2d", 2, noFixup),
	enc(ThumbLsrRR, 0x40c0, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01|fSetCC, "lsrs", "!0C, !1C", 2, noFixup),
	enc(ThumbMovImm, 0x2000, bb(10, 8), bb(7, 0), unused, unused,
		fBin|lir.RegDef0|fSetCC, "movs", "!0C, #!1d", 2, noFixup),
	enc(ThumbMovRR, 0x1c00, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use1|fSetCC|lir.IsMove, "movs", "!0C, !1C", 2, noFixup),
	enc(ThumbMovRRH2H, 0x46c0, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use1|lir.IsMove, "mov", "!0C, !1C", 2, noFixup),
	enc(ThumbMovRRH2L, 0x4640, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use1|lir.IsMove, "mov", "!0C, !1C", 2, noFixup),
	enc(ThumbMovRRL2H, 0x4680, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use1|lir.IsMove, "mov", "!0C, !1C", 2, noFixup),
	enc(ThumbMul, 0x4340, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01|fSetCC, "muls", "!0C, !1C", 2, noFixup),
	enc(ThumbMvn, 0x43c0, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use1|fSetCC, "mvns", "!0C, !1C", 2, noFixup),
	enc(ThumbNeg, 0x4240, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use1|fSetCC, "negs", "!0C, !1C", 2, noFixup),
	enc(ThumbOrr, 0x4300, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01|fSetCC, "orrs", "!0C, !1C", 2, noFixup),
	enc(ThumbPop, 0xbc00, bb(8, 0), unused, unused, unused,
		fUnary|lir.RegDefSP|lir.RegUseSP|lir.RegDefList0|fLoad, "pop", "<!0R>", 2, noFixup),
	enc(ThumbPush, 0xb400, bb(8, 0), unused, unused, unused,
		fUnary|lir.RegDefSP|lir.RegUseSP|lir.RegUseList0|fStore, "push", "<!0R>", 2, noFixup),
	enc(ThumbRorRR, 0x41c0, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01|fSetCC, "rors", "!0C, !1C", 2, noFixup),
	enc(ThumbSbc, 0x4180, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegDef0Use01|fUseCC|fSetCC, "sbcs", "!0C, !1C", 2, noFixup),
	enc(ThumbStmia, 0xc000, bb(10, 8), bb(7, 0), unused, unused,
		fBin|lir.RegDef0Use0|lir.RegUseList1|fStore, "stmia", "!0C!!, <!1R>", 2, noFixup),
	enc(ThumbStrRRI5, 0x6000, bb(2, 0), bb(5, 3), bb(10, 6), unused,
		fTer|lir.RegUse01|fStore, "str", "!0C, [!1C, #!2E]", 2, noFixup),
	enc(ThumbStrRRR, 0x5000, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegUse012|fStore, "str", "!0C, [!1C, !2C]", 2, noFixup),
	enc(ThumbStrSpRel, 0x9000, bb(10, 8), skip, bb(7, 0), unused,
		fTer|lir.RegUse0|lir.RegUseSP|fStore, "str", "!0C, [sp, #!2E]", 2, noFixup),
	enc(ThumbStrbRRI5, 0x7000, bb(2, 0), bb(5, 3), bb(10, 6), unused,
		fTer|lir.RegUse01|fStore, "strb", "!0C, [!1C, #!2d]", 2, noFixup),
	enc(ThumbStrbRRR, 0x5400, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegUse012|fStore, "strb", "!0C, [!1C, !2C]", 2, noFixup),
	enc(ThumbStrhRRI5, 0x8000, bb(2, 0), bb(5, 3), bb(10, 6), unused,
		fTer|lir.RegUse01|fStore, "strh", "!0C, [!1C, #!2F]", 2, noFixup),
	enc(ThumbStrhRRR, 0x5200, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegUse012|fStore, "strh", "!0C, [!1C, !2C]", 2, noFixup),
	enc(ThumbSubRRI3, 0x1e00, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegDef0Use1|fSetCC, "subs", "!0C, !1C, #!2d", 2, noFixup),
	enc(ThumbSubRI8, 0x3800, bb(10, 8), bb(7, 0), unused, unused,
		fBin|lir.RegDef0Use0|fSetCC, "subs", "!0C, #!1d", 2, noFixup),
	enc(ThumbSubRRR, 0x1a00, bb(2, 0), bb(5, 3), bb(8, 6), unused,
		fTer|lir.RegDef0Use12|fSetCC, "subs", "!0C, !1C, !2C", 2, noFixup),
	enc(ThumbSubSpI7, 0xb080, bb(6, 0), unused, unused, unused,
		fUnary|lir.RegDefSP|lir.RegUseSP, "sub", "sp, #!0E", 2, noFixup),
	enc(ThumbSwi, 0xdf00, bb(7, 0), unused, unused, unused,
		fUnary|fBr, "swi", "!0d", 2, noFixup),
	enc(ThumbTst, 0x4200, bb(2, 0), bb(5, 3), unused, unused,
		fBin|lir.RegUse01|fSetCC, "tst", "!0C, !1C", 2, noFixup),
	enc(ThumbUndefined, 0xde00, bb(7, 0), unused, unused, unused,
		fUnary, "udf", "!0d", 2, noFixup),
	enc(ThumbNop, 0xbf00, unused, unused, unused, unused,
		fNone, "nop", "", 2, noFixup),

	// VFP. Vldr participates in the fixup list so that a literal load can
	// be rewritten when the pool is out of range; it may use lr for that.
	enc(Thumb2Vldrs, 0xed900a00, sfp(22, 12), bb(19, 16), bb(7, 0), unused,
		fTer|lir.RegDef0Use1|fLoad|lir.RegDefLR|fFix, "vldr", "!0s, [!1C, #!2E]", 4, lir.FixupVLoad),
	enc(Thumb2Vldrd, 0xed900b00, dfp(22, 12), bb(19, 16), bb(7, 0), unused,
		fTer|lir.RegDef0Use1|fLoad|lir.RegDefLR|fFix, "vldr", "!0S, [!1C, #!2E]", 4, lir.FixupVLoad),
	enc(Thumb2Vmuls, 0xee200a00, sfp(22, 12), sfp(7, 16), sfp(5, 0), unused,
		fTer|lir.RegDef0Use12, "vmuls", "!0s, !1s, !2s", 4, noFixup),
	enc(Thumb2Vmuld, 0xee200b00, dfp(22, 12), dfp(7, 16), dfp(5, 0), unused,
		fTer|lir.RegDef0Use12, "vmuld", "!0S, !1S, !2S", 4, noFixup),
	enc(Thumb2Vstrs, 0xed800a00, sfp(22, 12), bb(19, 16), bb(7, 0), unused,
		fTer|lir.RegUse01|fStore, "vstr", "!0s, [!1C, #!2E]", 4, noFixup),
	enc(Thumb2Vstrd, 0xed800b00, dfp(22, 12), bb(19, 16), bb(7, 0), unused,
		fTer|lir.RegUse01|fStore, "vstr", "!0S, [!1C, #!2E]", 4, noFixup),
	enc(Thumb2Vsubs, 0xee300a40, sfp(22, 12), sfp(7, 16), sfp(5, 0), unused,
		fTer|lir.RegDef0Use12, "vsub", "!0s, !1s, !2s", 4, noFixup),
	enc(Thumb2Vsubd, 0xee300b40, dfp(22, 12), dfp(7, 16), dfp(5, 0), unused,
		fTer|lir.RegDef0Use12, "vsub", "!0S, !1S, !2S", 4, noFixup),
	enc(Thumb2Vadds, 0xee300a00, sfp(22, 12), sfp(7, 16), sfp(5, 0), unused,
		fTer|lir.RegDef0Use12, "vadd", "!0s, !1s, !2s", 4, noFixup),
	enc(Thumb2Vaddd, 0xee300b00, dfp(22, 12), dfp(7, 16), dfp(5, 0), unused,
		fTer|lir.RegDef0Use12, "vadd", "!0S, !1S, !2S", 4, noFixup),
	enc(Thumb2Vdivs, 0xee800a00, sfp(22, 12), sfp(7, 16), sfp(5, 0), unused,
		fTer|lir.RegDef0Use12, "vdivs", "!0s, !1s, !2s", 4, noFixup),
	enc(Thumb2Vdivd, 0xee800b00, dfp(22, 12), dfp(7, 16), dfp(5, 0), unused,
		fTer|lir.RegDef0Use12, "vdivd", "!0S, !1S, !2S", 4, noFixup),
	enc(Thumb2VcvtIF, 0xeeb80ac0, sfp(22, 12), sfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vcvt.f32.s32", "!0s, !1s", 4, noFixup),
	enc(Thumb2VcvtFI, 0xeebd0ac0, sfp(22, 12), sfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vcvt.s32.f32", "!0s, !1s", 4, noFixup),
	enc(Thumb2VcvtDI, 0xeebd0bc0, sfp(22, 12), dfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vcvt.s32.f64", "!0s, !1S", 4, noFixup),
	enc(Thumb2VcvtFd, 0xeeb70ac0, dfp(22, 12), sfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vcvt.f64.f32", "!0S, !1s", 4, noFixup),
	enc(Thumb2VcvtDF, 0xeeb70bc0, sfp(22, 12), dfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vcvt.f32.f64", "!0s, !1S", 4, noFixup),
	enc(Thumb2VcvtID, 0xeeb80bc0, dfp(22, 12), sfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vcvt.f64.s32", "!0S, !1s", 4, noFixup),
	enc(Thumb2Vsqrts, 0xeeb10ac0, sfp(22, 12), sfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vsqrt.f32", "!0s, !1s", 4, noFixup),
	enc(Thumb2Vsqrtd, 0xeeb10bc0, dfp(22, 12), dfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vsqrt.f64", "!0S, !1S", 4, noFixup),
	enc(Thumb2Vabss, 0xeeb00ac0, sfp(22, 12), sfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vabs.f32", "!0s, !1s", 4, noFixup),
	enc(Thumb2Vabsd, 0xeeb00bc0, dfp(22, 12), dfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vabs.f64", "!0S, !1S", 4, noFixup),
	enc(Thumb2Vnegs, 0xeeb10a40, sfp(22, 12), sfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vneg.f32", "!0s, !1s", 4, noFixup),
	enc(Thumb2Vnegd, 0xeeb10b40, dfp(22, 12), dfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1, "vneg.f64", "!0S, !1S", 4, noFixup),
	enc(Thumb2VmovsImm8, 0xeeb00a00, sfp(22, 12), fpImm(16, 0), unused, unused,
		fBin|lir.RegDef0, "vmov.f32", "!0s, #0x!1h", 4, noFixup),
	enc(Thumb2VmovdImm8, 0xeeb00b00, dfp(22, 12), fpImm(16, 0), unused, unused,
		fBin|lir.RegDef0, "vmov.f64", "!0S, #0x!1h", 4, noFixup),
	enc(Thumb2Vmovs, 0xeeb00a40, sfp(22, 12), sfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1|lir.IsMove, "vmov.f32", "!0s, !1s", 4, noFixup),
	enc(Thumb2Vmovd, 0xeeb00b40, dfp(22, 12), dfp(5, 0), unused, unused,
		fBin|lir.RegDef0Use1|lir.IsMove, "vmov.f64", "!0S, !1S", 4, noFixup),
	enc(Thumb2Vcmps, 0xeeb40a40, sfp(22, 12), sfp(5, 0), unused, unused,
		fBin|lir.RegUse01, "vcmp.f32", "!0s, !1s", 4, noFixup),
	enc(Thumb2Vcmpd, 0xeeb40b40, dfp(22, 12), dfp(5, 0), unused, unused,
		fBin|lir.RegUse01, "vcmp.f64", "!0S, !1S", 4, noFixup),
	enc(Thumb2Fmstat, 0xeef1fa10, unused, unused, unused, unused,
		fNone|fSetCC|lir.UsesFPStatus, "fmstat", "", 4, noFixup),
	enc(Thumb2Fmrs, 0xee100a10, bb(15, 12), sfp(7, 16), unused, unused,
		fBin|lir.RegDef0Use1, "fmrs", "!0C, !1s", 4, noFixup),
	enc(Thumb2Fmsr, 0xee000a10, sfp(7, 16), bb(15, 12), unused, unused,
		fBin|lir.RegDef0Use1, "fmsr", "!0s, !1C", 4, noFixup),
	enc(Thumb2Fmrrd, 0xec500b10, bb(15, 12), bb(19, 16), dfp(5, 0), unused,
		fTer|lir.RegDef01Use2, "fmrrd", "!0C, !1C, !2S", 4, noFixup),
	enc(Thumb2Fmdrr, 0xec400b10, dfp(5, 0), bb(15, 12), bb(19, 16), unused,
		fTer|lir.RegDef0Use12, "fmdrr", "!0S, !1C, !2C", 4, noFixup),
	enc(Thumb2Vpush, 0xed2d0a00, sfp(22, 12), bb(7, 0), unused, unused,
		fBin|lir.RegDefSP|lir.RegUseSP|lir.RegUseFPCSList0|fStore, "vpush", "<!0P>", 4, noFixup),
	enc(Thumb2Vpop, 0xecbd0a00, sfp(22, 12), bb(7, 0), unused, unused,
		fBin|lir.RegDefSP|lir.RegUseSP|lir.RegDefFPCSList0|fLoad, "vpop", "<!0P>", 4, noFixup),

	enc(Thumb2LdrRRI12, 0xf8d00000, bb(15, 12), bb(19, 16), bb(11, 0), unused,
		fTer|lir.RegDef0Use1|fLoad, "ldr", "!0C, [!1C, #!2d]", 4, noFixup),
	enc(Thumb2StrRRI12, 0xf8c00000, bb(15, 12), bb(19, 16), bb(11, 0), unused,
		fTer|lir.RegUse01|fStore, "str", "!0C, [!1C, #!2d]", 4, noFixup),
	enc(Thumb2LdrRRI8Predec, 0xf8500c00, bb(15, 12), bb(19, 16), bb(7, 0), unused,
		fTer|lir.RegDef0Use1|fLoad, "ldr", "!0C, [!1C, #-!2d]", 4, noFixup),
	enc(Thumb2StrRRI8Predec, 0xf8400c00, bb(15, 12), bb(19, 16), bb(7, 0), unused,
		fTer|lir.RegUse01|fStore, "str", "!0C, [!1C, #-!2d]", 4, noFixup),
	enc(Thumb2LdrbRRI12, 0xf8900000, bb(15, 12), bb(19, 16), bb(11, 0), unused,
		fTer|lir.RegDef0Use1|fLoad, "ldrb", "!0C, [!1C, #!2d]", 4, noFixup),
	enc(Thumb2LdrhRRI12, 0xf8b00000, bb(15, 12), bb(19, 16), bb(11, 0), unused,
		fTer|lir.RegDef0Use1|fLoad, "ldrh", "!0C, [!1C, #!2d]", 4, noFixup),
	enc(Thumb2LdrsbRRI12, 0xf9900000, bb(15, 12), bb(19, 16), bb(11, 0), unused,
		fTer|lir.RegDef0Use1|fLoad, "ldrsb", "!0C, [!1C, #!2d]", 4, noFixup),
	enc(Thumb2LdrshRRI12, 0xf9b00000, bb(15, 12), bb(19, 16), bb(11, 0), unused,
		fTer|lir.RegDef0Use1|fLoad, "ldrsh", "!0C, [!1C, #!2d]", 4, noFixup),
	enc(Thumb2StrbRRI12, 0xf8800000, bb(15, 12), bb(19, 16), bb(11, 0), unused,
		fTer|lir.RegUse01|fStore, "strb", "!0C, [!1C, #!2d]", 4, noFixup),
	enc(Thumb2StrhRRI12, 0xf8a00000, bb(15, 12), bb(19, 16), bb(11, 0), unused,
		fTer|lir.RegUse01|fStore, "strh", "!0C, [!1C, #!2d]", 4, noFixup),
	enc(Thumb2LdrRRR, 0xf8500000, bb(15, 12), bb(19, 16), bb(3, 0), bb(5, 4),
		fQuad|lir.RegDef0Use12|fLoad, "ldr", "!0C, [!1C, !2C, LSL #!3d]", 4, noFixup),
	enc(Thumb2StrRRR, 0xf8400000, bb(15, 12), bb(19, 16), bb(3, 0), bb(5, 4),
		fQuad|lir.RegUse012|fStore, "str", "!0C, [!1C, !2C, LSL #!3d]", 4, noFixup),
	enc(Thumb2LdrbRRR, 0xf8100000, bb(15, 12), bb(19, 16), bb(3, 0), bb(5, 4),
		fQuad|lir.RegDef0Use12|fLoad, "ldrb", "!0C, [!1C, !2C, LSL #!3d]", 4, noFixup),
	enc(Thumb2LdrhRRR, 0xf8300000, bb(15, 12), bb(19, 16), bb(3, 0), bb(5, 4),
		fQuad|lir.RegDef0Use12|fLoad, "ldrh", "!0C, [!1C, !2C, LSL #!3d]", 4, noFixup),
	enc(Thumb2LdrsbRRR, 0xf9100000, bb(15, 12), bb(19, 16), bb(3, 0), bb(5, 4),
		fQuad|lir.RegDef0Use12|fLoad, "ldrsb", "!0C, [!1C, !2C, LSL #!3d]", 4, noFixup),
	enc(Thumb2LdrshRRR, 0xf9300000, bb(15, 12), bb(19, 16), bb(3, 0), bb(5, 4),
		fQuad|lir.RegDef0Use12|fLoad, "ldrsh", "!0C, [!1C, !2C, LSL #!3d]", 4, noFixup),
	enc(Thumb2StrbRRR, 0xf8000000, bb(15, 12), bb(19, 16), bb(3, 0), bb(5, 4),
		fQuad|lir.RegUse012|fStore, "strb", "!0C, [!1C, !2C, LSL #!3d]", 4, noFixup),
	enc(Thumb2StrhRRR, 0xf8200000, bb(15, 12), bb(19, 16), bb(3, 0), bb(5, 4),
		fQuad|lir.RegUse012|fStore, "strh", "!0C, [!1C, !2C, LSL #!3d]", 4, noFixup),
	enc(Thumb2LdrPcRel12, 0xf8df0000, bb(15, 12), bb(11, 0), unused, unused,
		fBin|lir.RegDef0|lir.RegUsePC|fLoad|fFix, "ldr", "!0C, [pc, #!1d]", 4, lir.FixupLoad),
	enc(Thumb2LdrdPcRel8, 0xe9df0000, bb(15, 12), bb(11, 8), bb(7, 0), unused,
		fTer|lir.RegDef01|lir.RegUsePC|fLoad|fFix, "ldrd", "!0C, !1C, [pc, #!2E]", 4, lir.FixupLoad),
	enc(Thumb2LdrdI8, 0xe9d00000, bb(15, 12), bb(11, 8), bb(19, 16), bb(7, 0),
		fQuad|lir.RegDef01Use2|fLoad, "ldrd", "!0C, !1C, [!2C, #!3E]", 4, noFixup),
	enc(Thumb2StrdI8, 0xe9c00000, bb(15, 12), bb(11, 8), bb(19, 16), bb(7, 0),
		fQuad|lir.RegUse012|fStore, "strd", "!0C, !1C, [!2C, #!3E]", 4, noFixup),
	enc(Thumb2LdmiaWB, 0xe8b00000, bb(19, 16), bb(15, 0), unused, unused,
		fBin|lir.RegDef0Use0|lir.RegDefList1|fLoad, "ldmia", "!0C!!, <!1R>", 4, noFixup),
	enc(Thumb2Stmia, 0xe8800000, bb(19, 16), bb(15, 0), unused, unused,
		fBin|lir.RegUse0|lir.RegUseList1|fStore, "stmia", "!0C, <!1R>", 4, noFixup),
	enc(Thumb2Ldrex, 0xe8500f00, bb(15, 12), bb(19, 16), bb(7, 0), unused,
		fTer|lir.RegDef0Use1|fLoad|lir.IsVolatile, "ldrex", "!0C, [!1C, #!2E]", 4, noFixup),
	enc(Thumb2Strex, 0xe8400000, bb(11, 8), bb(15, 12), bb(19, 16), bb(7, 0),
		fQuad|lir.RegDef0Use12|fStore|lir.IsVolatile, "strex", "!0C, !1C, [!2C, #!3E]", 4, noFixup),
	enc(Thumb2Ldrexd, 0xe8d0007f, bb(15, 12), bb(11, 8), bb(19, 16), unused,
		fTer|lir.RegDef01Use2|fLoad|lir.IsVolatile, "ldrexd", "!0C, !1C, [!2C]", 4, noFixup),
	enc(Thumb2Strexd, 0xe8c00070, bb(3, 0), bb(15, 12), bb(11, 8), bb(19, 16),
		fQuad|lir.RegDef0Use123|fStore|lir.IsVolatile, "strexd", "!0C, !1C, !2C, [!3C]", 4, noFixup),

	enc(Thumb2MovI8M, 0xf04f0000, bb(11, 8), modImm, unused, unused,
		fBin|lir.RegDef0, "mov", "!0C, #!1m", 4, noFixup),
	enc(Thumb2MvnI8M, 0xf06f0000, bb(11, 8), modImm, unused, unused,
		fBin|lir.RegDef0, "mvn", "!0C, #!1n", 4, noFixup),
	enc(Thumb2MovImm16, 0xf2400000, bb(11, 8), imm16, unused, unused,
		fBin|lir.RegDef0, "mov", "!0C, #!1M", 4, noFixup),
	enc(Thumb2MovImm16H, 0xf2c00000, bb(11, 8), imm16, unused, unused,
		fBin|lir.RegDef0Use0, "movt", "!0C, #!1M", 4, noFixup),
	// Operands 2 and 3 are the wrapped add-pc node and switch table of an
	// expanded adr.
	enc(Thumb2MovImm16LST, 0xf2400000, bb(11, 8), imm16, unused, unused,
		fQuad|lir.RegDef0|fFix, "mov", "!0C, #!1M", 4, lir.FixupMovImmLST),
	enc(Thumb2MovImm16HST, 0xf2c00000, bb(11, 8), imm16, unused, unused,
		fQuad|lir.RegDef0Use0|fFix, "movt", "!0C, #!1M", 4, lir.FixupMovImmHST),
	enc(Thumb2AddRRI12, 0xf2000000, bb(11, 8), bb(19, 16), imm12, unused,
		fTer|lir.RegDef0Use1, "add", "!0C, !1C, #!2d", 4, noFixup),
	enc(Thumb2SubRRI12, 0xf2a00000, bb(11, 8), bb(19, 16), imm12, unused,
		fTer|lir.RegDef0Use1, "sub", "!0C, !1C, #!2d", 4, noFixup),
	enc(Thumb2AddRRI8M, 0xf1100000, bb(11, 8), bb(19, 16), modImm, unused,
		fTer|lir.RegDef0Use1|fSetCC, "adds", "!0C, !1C, #!2m", 4, noFixup),
	enc(Thumb2SubRRI8M, 0xf1b00000, bb(11, 8), bb(19, 16), modImm, unused,
		fTer|lir.RegDef0Use1|fSetCC, "subs", "!0C, !1C, #!2m", 4, noFixup),
	enc(Thumb2AdcRRI8M, 0xf1500000, bb(11, 8), bb(19, 16), modImm, unused,
		fTer|lir.RegDef0Use1|fSetCC|fUseCC, "adcs", "!0C, !1C, #!2m", 4, noFixup),
	enc(Thumb2SbcRRI8M, 0xf1700000, bb(11, 8), bb(19, 16), modImm, unused,
		fTer|lir.RegDef0Use1|fSetCC|fUseCC, "sbcs", "!0C, !1C, #!2m", 4, noFixup),
	enc(Thumb2RsubRRI8M, 0xf1d00000, bb(11, 8), bb(19, 16), modImm, unused,
		fTer|lir.RegDef0Use1|fSetCC, "rsbs", "!0C, !1C, #!2m", 4, noFixup),
	enc(Thumb2AndRRI8M, 0xf0000000, bb(11, 8), bb(19, 16), modImm, unused,
		fTer|lir.RegDef0Use1, "and", "!0C, !1C, #!2m", 4, noFixup),
	enc(Thumb2OrrRRI8M, 0xf0400000, bb(11, 8), bb(19, 16), modImm, unused,
		fTer|lir.RegDef0Use1, "orr", "!0C, !1C, #!2m", 4, noFixup),
	enc(Thumb2EorRRI8M, 0xf0800000, bb(11, 8), bb(19, 16), modImm, unused,
		fTer|lir.RegDef0Use1, "eor", "!0C, !1C, #!2m", 4, noFixup),
	enc(Thumb2BicRRI8M, 0xf0200000, bb(11, 8), bb(19, 16), modImm, unused,
		fTer|lir.RegDef0Use1, "bic", "!0C, !1C, #!2m", 4, noFixup),
	enc(Thumb2CmpRI8M, 0xf1b00f00, bb(19, 16), modImm, unused, unused,
		fBin|lir.RegUse0|fSetCC, "cmp", "!0C, #!1m", 4, noFixup),
	enc(Thumb2CmnRI8M, 0xf1100f00, bb(19, 16), modImm, unused, unused,
		fBin|lir.RegUse0|fSetCC, "cmn", "!0C, #!1m", 4, noFixup),
	enc(Thumb2TstRI8M, 0xf0100f00, bb(19, 16), modImm, unused, unused,
		fBin|lir.RegUse0|fSetCC, "tst", "!0C, #!1m", 4, noFixup),

	enc(Thumb2AddRRR, 0xeb100000, bb(11, 8), bb(19, 16), bb(3, 0), shift,
		fQuad|lir.RegDef0Use12|fSetCC, "adds", "!0C, !1C, !2C!3H", 4, noFixup),
	enc(Thumb2SubRRR, 0xebb00000, bb(11, 8), bb(19, 16), bb(3, 0), shift,
		fQuad|lir.RegDef0Use12|fSetCC, "subs", "!0C, !1C, !2C!3H", 4, noFixup),
	enc(Thumb2AdcRRR, 0xeb500000, bb(11, 8), bb(19, 16), bb(3, 0), shift,
		fQuad|lir.RegDef0Use12|fSetCC|fUseCC, "adcs", "!0C, !1C, !2C!3H", 4, noFixup),
	enc(Thumb2SbcRRR, 0xeb700000, bb(11, 8), bb(19, 16), bb(3, 0), shift,
		fQuad|lir.RegDef0Use12|fSetCC|fUseCC, "sbcs", "!0C, !1C, !2C!3H", 4, noFixup),
	enc(Thumb2RsubRRR, 0xebd00000, bb(11, 8), bb(19, 16), bb(3, 0), shift,
		fQuad|lir.RegDef0Use12|fSetCC, "rsbs", "!0C, !1C, !2C!3H", 4, noFixup),
	enc(Thumb2AndRRR, 0xea000000, bb(11, 8), bb(19, 16), bb(3, 0), shift,
		fQuad|lir.RegDef0Use12, "and", "!0C, !1C, !2C!3H", 4, noFixup),
	enc(Thumb2OrrRRR, 0xea400000, bb(11, 8), bb(19, 16), bb(3, 0), shift,
		fQuad|lir.RegDef0Use12, "orr", "!0C, !1C, !2C!3H", 4, noFixup),
	enc(Thumb2EorRRR, 0xea800000, bb(11, 8), bb(19, 16), bb(3, 0), shift,
		fQuad|lir.RegDef0Use12, "eor", "!0C, !1C, !2C!3H", 4, noFixup),
	enc(Thumb2BicRRR, 0xea200000, bb(11, 8), bb(19, 16), bb(3, 0), shift,
		fQuad|lir.RegDef0Use12, "bic", "!0C, !1C, !2C!3H", 4, noFixup),
	enc(Thumb2CmpRR, 0xebb00f00, bb(19, 16), bb(3, 0), shift, unused,
		fTer|lir.RegUse01|fSetCC, "cmp", "!0C, !1C!2H", 4, noFixup),
	enc(Thumb2CmnRR, 0xeb100f00, bb(19, 16), bb(3, 0), shift, unused,
		fTer|lir.RegUse01|fSetCC, "cmn", "!0C, !1C!2H", 4, noFixup),
	enc(Thumb2TstRR, 0xea100f00, bb(19, 16), bb(3, 0), shift, unused,
		fTer|lir.RegUse01|fSetCC, "tst", "!0C, !1C!2H", 4, noFixup),
	enc(Thumb2MovRR, 0xea4f0000, bb(11, 8), bb(3, 0), unused, unused,
		fBin|lir.RegDef0Use1|lir.IsMove, "mov", "!0C, !1C", 4, noFixup),
	enc(Thumb2MvnRR, 0xea6f0000, bb(11, 8), bb(3, 0), shift, unused,
		fTer|lir.RegDef0Use1, "mvn", "!0C, !1C!2H", 4, noFixup),
	enc(Thumb2LslRRR, 0xfa00f000, bb(11, 8), bb(19, 16), bb(3, 0), unused,
		fTer|lir.RegDef0Use12, "lsl", "!0C, !1C, !2C", 4, noFixup),
	enc(Thumb2LsrRRR, 0xfa20f000, bb(11, 8), bb(19, 16), bb(3, 0), unused,
		fTer|lir.RegDef0Use12, "lsr", "!0C, !1C, !2C", 4, noFixup),
	enc(Thumb2AsrRRR, 0xfa40f000, bb(11, 8), bb(19, 16), bb(3, 0), unused,
		fTer|lir.RegDef0Use12, "asr", "!0C, !1C, !2C", 4, noFixup),
	enc(Thumb2RorRRR, 0xfa60f000, bb(11, 8), bb(19, 16), bb(3, 0), unused,
		fTer|lir.RegDef0Use12, "ror", "!0C, !1C, !2C", 4, noFixup),
	enc(Thumb2LslRRI5, 0xea4f0000, bb(11, 8), bb(3, 0), shift5, unused,
		fTer|lir.RegDef0Use1, "lsl", "!0C, !1C, #!2d", 4, noFixup),
	enc(Thumb2LsrRRI5, 0xea4f0010, bb(11, 8), bb(3, 0), shift5, unused,
		fTer|lir.RegDef0Use1, "lsr", "!0C, !1C, #!2d", 4, noFixup),
	enc(Thumb2AsrRRI5, 0xea4f0020, bb(11, 8), bb(3, 0), shift5, unused,
		fTer|lir.RegDef0Use1, "asr", "!0C, !1C, #!2d", 4, noFixup),
	enc(Thumb2RorRRI5, 0xea4f0030, bb(11, 8), bb(3, 0), shift5, unused,
		fTer|lir.RegDef0Use1, "ror", "!0C, !1C, #!2d", 4, noFixup),
	enc(Thumb2MulRRR, 0xfb00f000, bb(11, 8), bb(19, 16), bb(3, 0), unused,
		fTer|lir.RegDef0Use12, "mul", "!0C, !1C, !2C", 4, noFixup),
	enc(Thumb2SdivRRR, 0xfb90f0f0, bb(11, 8), bb(19, 16), bb(3, 0), unused,
		fTer|lir.RegDef0Use12, "sdiv", "!0C, !1C, !2C", 4, noFixup),
	enc(Thumb2UdivRRR, 0xfbb0f0f0, bb(11, 8), bb(19, 16), bb(3, 0), unused,
		fTer|lir.RegDef0Use12, "udiv", "!0C, !1C, !2C", 4, noFixup),
	enc(Thumb2MlaRRRR, 0xfb000000, bb(11, 8), bb(19, 16), bb(3, 0), bb(15, 12),
		fQuad|lir.RegDef0Use123, "mla", "!0C, !1C, !2C, !3C", 4, noFixup),
	enc(Thumb2MlsRRRR, 0xfb000010, bb(11, 8), bb(19, 16), bb(3, 0), bb(15, 12),
		fQuad|lir.RegDef0Use123, "mls", "!0C, !1C, !2C, !3C", 4, noFixup),
	enc(Thumb2UmullRRRR, 0xfba00000, bb(15, 12), bb(11, 8), bb(19, 16), bb(3, 0),
		fQuad|lir.RegDef01Use23, "umull", "!0C, !1C, !2C, !3C", 4, noFixup),
	enc(Thumb2SmullRRRR, 0xfb800000, bb(15, 12), bb(11, 8), bb(19, 16), bb(3, 0),
		fQuad|lir.RegDef01Use23, "smull", "!0C, !1C, !2C, !3C", 4, noFixup),
	enc(Thumb2Ubfx, 0xf3c00000, bb(11, 8), bb(19, 16), lsb, bWidth(4, 0),
		fQuad|lir.RegDef0Use1, "ubfx", "!0C, !1C, #!2d, #!3d", 4, noFixup),
	enc(Thumb2Sbfx, 0xf3400000, bb(11, 8), bb(19, 16), lsb, bWidth(4, 0),
		fQuad|lir.RegDef0Use1, "sbfx", "!0C, !1C, #!2d, #!3d", 4, noFixup),

	enc(Thumb2BCond, 0xf0008000, brOffset, bb(25, 22), unused, unused,
		fBin|fBr|fUseCC|fFix, "b!1c", "!0t", 4, lir.FixupCondBranch),
	enc(Thumb2BUncond, 0xf0009000, off24, unused, unused, unused,
		fUnary|fBr|fFix, "b", "!0t", 4, lir.FixupT2Branch),
	enc(Thumb2Cbnz, 0xb900, bb(2, 0), imm6, unused, unused,
		fBin|lir.RegUse0|fBr|fFix, "cbnz", "!0C, !1t", 2, lir.FixupCBxZ),
	enc(Thumb2Cbz, 0xb100, bb(2, 0), imm6, unused, unused,
		fBin|lir.RegUse0|fBr|fFix, "cbz", "!0C, !1t", 2, lir.FixupCBxZ),
	enc(Thumb2It, 0xbf00, bb(7, 4), bb(3, 0), unused, unused,
		fBin|lir.IsIT|fUseCC, "it:!1b", "!0c", 2, noFixup),
	enc(Thumb2Push, 0xe92d0000, bb(15, 0), unused, unused, unused,
		fUnary|lir.RegDefSP|lir.RegUseSP|lir.RegUseList0|fStore|fFix, "push", "<!0R>", 4, lir.FixupPushPop),
	enc(Thumb2Pop, 0xe8bd0000, bb(15, 0), unused, unused, unused,
		fUnary|lir.RegDefSP|lir.RegUseSP|lir.RegDefList0|fLoad|fFix, "pop", "<!0R>", 4, lir.FixupPushPop),
	enc(Thumb2Push1, 0xf84d0d04, bb(15, 12), unused, unused, unused,
		fUnary|lir.RegDefSP|lir.RegUseSP|lir.RegUse0|fStore, "push1", "!0C", 4, noFixup),
	enc(Thumb2Pop1, 0xf85d0b04, bb(15, 12), unused, unused, unused,
		fUnary|lir.RegDefSP|lir.RegUseSP|lir.RegDef0|fLoad, "pop1", "!0C", 4, noFixup),
	// Operand 2 is the wrapped switch table, or -1 for a label target.
	enc(Thumb2Adr, 0xf20f0000, bb(11, 8), imm12, unused, unused,
		fTer|lir.RegDef0|fFix, "adr", "!0C, #!1d", 4, lir.FixupAdr),
	// Switch anchor: stays in the fixup list so its offset is tracked.
	enc(Thumb2AddPCR, 0x4487, bb(6, 3), unused, unused, unused,
		fUnary|lir.RegUse0|fBr|fFix, "add", "pc, !0C", 2, lir.FixupLabel),
	enc(Thumb2Dmb, 0xf3bf8f50, bb(3, 0), unused, unused, unused,
		fUnary|lir.IsVolatile, "dmb", "#!0B", 4, noFixup),
}

func init() {
	if len(encodings) != int(opcodeEnd) {
		panic(fmt.Sprintf("BUG: %d descriptors for %d opcodes", len(encodings), opcodeEnd))
	}
	for i := range encodings {
		d := &encodings[i]
		if d.opcode != lir.Opcode(i) {
			panic(fmt.Sprintf("BUG: descriptor %d (%s) is out of order", i, d.name))
		}
		if d.flags.Arity() < 0 {
			panic(fmt.Sprintf("BUG: descriptor %s has no arity", d.name))
		}
		if d.flags.Any(lir.NeedsFixup) != (d.fixup != lir.FixupNone) {
			panic(fmt.Sprintf("BUG: descriptor %s fixup %s disagrees with its flags", d.name, d.fixup))
		}
	}
}
