// Package thumb2 implements the ARMv7-A Thumb2 target of the LIR backend:
// the instruction descriptor table, the layout-dependent fixup resolver and
// encoder, and the code generation helpers used by the bytecode lowering.
package thumb2

import "github.com/thumbjit/thumbjit/internal/jit/backend/lir"

// Thumb2 opcodes. The order must match encodings.
//
// 16-bit Thumb forms come first, then the 32-bit Thumb2 and VFP forms.
// Names are the mnemonic followed by the operand forms: R register, I
// immediate, 8M modified immediate, H/L high or low register.
const (
	ThumbAdcRR lir.Opcode = iota
	ThumbAddRRI3
	ThumbAddRI8
	ThumbAddRRR
	ThumbAddRRLH
	ThumbAddRRHL
	ThumbAddRRHH
	ThumbAddPcRel
	ThumbAddSpRel
	ThumbAddSpI7
	ThumbAndRR
	ThumbAsrRRI5
	ThumbAsrRR
	ThumbBCond
	ThumbBUncond
	ThumbBicRR
	ThumbBkpt
	ThumbBlxR
	ThumbBx
	ThumbCmnRR
	ThumbCmpRI8
	ThumbCmpRR
	ThumbCmpLH
	ThumbCmpHL
	ThumbCmpHH
	ThumbEorRR
	ThumbLdmia
	ThumbLdrRRI5
	ThumbLdrRRR
	ThumbLdrPcRel
	ThumbLdrSpRel
	ThumbLdrbRRI5
	ThumbLdrbRRR
	ThumbLdrhRRI5
	ThumbLdrhRRR
	ThumbLdrsbRRR
	ThumbLdrshRRR
	ThumbLslRRI5
	ThumbLslRR
	ThumbLsrRRI5
	ThumbLsrRR
	ThumbMovImm
	ThumbMovRR
	ThumbMovRRH2H
	ThumbMovRRH2L
	ThumbMovRRL2H
	ThumbMul
	ThumbMvn
	ThumbNeg
	ThumbOrr
	ThumbPop
	ThumbPush
	ThumbRorRR
	ThumbSbc
	ThumbStmia
	ThumbStrRRI5
	ThumbStrRRR
	ThumbStrSpRel
	ThumbStrbRRI5
	ThumbStrbRRR
	ThumbStrhRRI5
	ThumbStrhRRR
	ThumbSubRRI3
	ThumbSubRI8
	ThumbSubRRR
	ThumbSubSpI7
	ThumbSwi
	ThumbTst
	ThumbUndefined
	ThumbNop

	Thumb2Vldrs
	Thumb2Vldrd
	Thumb2Vmuls
	Thumb2Vmuld
	Thumb2Vstrs
	Thumb2Vstrd
	Thumb2Vsubs
	Thumb2Vsubd
	Thumb2Vadds
	Thumb2Vaddd
	Thumb2Vdivs
	Thumb2Vdivd
	Thumb2VcvtIF
	Thumb2VcvtFI
	Thumb2VcvtDI
	Thumb2VcvtFd
	Thumb2VcvtDF
	Thumb2VcvtID
	Thumb2Vsqrts
	Thumb2Vsqrtd
	Thumb2Vabss
	Thumb2Vabsd
	Thumb2Vnegs
	Thumb2Vnegd
	Thumb2VmovsImm8
	Thumb2VmovdImm8
	Thumb2Vmovs
	Thumb2Vmovd
	Thumb2Vcmps
	Thumb2Vcmpd
	Thumb2Fmstat
	Thumb2Fmrs
	Thumb2Fmsr
	Thumb2Fmrrd
	Thumb2Fmdrr
	Thumb2Vpush
	Thumb2Vpop

	Thumb2LdrRRI12
	Thumb2StrRRI12
	Thumb2LdrRRI8Predec
	Thumb2StrRRI8Predec
	Thumb2LdrbRRI12
	Thumb2LdrhRRI12
	Thumb2LdrsbRRI12
	Thumb2LdrshRRI12
	Thumb2StrbRRI12
	Thumb2StrhRRI12
	Thumb2LdrRRR
	Thumb2StrRRR
	Thumb2LdrbRRR
	Thumb2LdrhRRR
	Thumb2LdrsbRRR
	Thumb2LdrshRRR
	Thumb2StrbRRR
	Thumb2StrhRRR
	Thumb2LdrPcRel12
	Thumb2LdrdPcRel8
	Thumb2LdrdI8
	Thumb2StrdI8
	Thumb2LdmiaWB
	Thumb2Stmia
	Thumb2Ldrex
	Thumb2Strex
	Thumb2Ldrexd
	Thumb2Strexd

	Thumb2MovI8M
	Thumb2MvnI8M
	Thumb2MovImm16
	Thumb2MovImm16H
	Thumb2MovImm16LST
	Thumb2MovImm16HST
	Thumb2AddRRI12
	Thumb2SubRRI12
	Thumb2AddRRI8M
	Thumb2SubRRI8M
	Thumb2AdcRRI8M
	Thumb2SbcRRI8M
	Thumb2RsubRRI8M
	Thumb2AndRRI8M
	Thumb2OrrRRI8M
	Thumb2EorRRI8M
	Thumb2BicRRI8M
	Thumb2CmpRI8M
	Thumb2CmnRI8M
	Thumb2TstRI8M

	Thumb2AddRRR
	Thumb2SubRRR
	Thumb2AdcRRR
	Thumb2SbcRRR
	Thumb2RsubRRR
	Thumb2AndRRR
	Thumb2OrrRRR
	Thumb2EorRRR
	Thumb2BicRRR
	Thumb2CmpRR
	Thumb2CmnRR
	Thumb2TstRR
	Thumb2MovRR
	Thumb2MvnRR
	Thumb2LslRRR
	Thumb2LsrRRR
	Thumb2AsrRRR
	Thumb2RorRRR
	Thumb2LslRRI5
	Thumb2LsrRRI5
	Thumb2AsrRRI5
	Thumb2RorRRI5
	Thumb2MulRRR
	Thumb2SdivRRR
	Thumb2UdivRRR
	Thumb2MlaRRRR
	Thumb2MlsRRRR
	Thumb2UmullRRRR
	Thumb2SmullRRRR
	Thumb2Ubfx
	Thumb2Sbfx

	Thumb2BCond
	Thumb2BUncond
	Thumb2Cbnz
	Thumb2Cbz
	Thumb2It
	Thumb2Push
	Thumb2Pop
	Thumb2Push1
	Thumb2Pop1
	Thumb2Adr
	Thumb2AddPCR
	Thumb2Dmb

	opcodeEnd
)
