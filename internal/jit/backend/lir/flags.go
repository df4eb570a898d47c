package lir

// Flags are the semantic flags of an opcode as declared by the target's
// descriptor table.
type Flags uint64

const (
	// Arity classes. Exactly one is set for every real opcode.
	NoOperand Flags = 1 << iota
	IsUnaryOp
	IsBinaryOp
	IsTertiaryOp
	IsQuadOp
	IsQuinOp

	IsBranch
	IsIT
	IsMove
	IsLoad
	IsStore
	// IsVolatile marks exclusive accesses and barriers.
	IsVolatile

	RegDef0
	RegDef1
	RegDef2
	RegUse0
	RegUse1
	RegUse2
	RegUse3
	RegUse4
	RegDefSP
	RegUseSP
	RegDefLR
	RegUsePC
	// List operands are register bitmaps (core) or first-register/count pairs (FP).
	RegDefList0
	RegDefList1
	RegUseList0
	RegUseList1
	RegDefFPCSList0
	RegDefFPCSList2
	RegUseFPCSList0
	RegUseFPCSList2

	SetsCCodes
	UsesCCodes
	UsesFPStatus
	NeedsFixup
)

// Common combinations.
const (
	RegDef01      = RegDef0 | RegDef1
	RegUse01      = RegUse0 | RegUse1
	RegUse12      = RegUse1 | RegUse2
	RegUse012     = RegUse0 | RegUse1 | RegUse2
	RegUse123     = RegUse1 | RegUse2 | RegUse3
	RegDef0Use0   = RegDef0 | RegUse0
	RegDef0Use1   = RegDef0 | RegUse1
	RegDef0Use01  = RegDef0 | RegUse01
	RegDef0Use12  = RegDef0 | RegUse12
	RegDef01Use2  = RegDef01 | RegUse2
	RegDef0Use123 = RegDef0 | RegUse123
	RegDef01Use23 = RegDef01 | RegUse2 | RegUse3

	arityMask = NoOperand | IsUnaryOp | IsBinaryOp | IsTertiaryOp | IsQuadOp | IsQuinOp

	regListMask = RegDefList0 | RegDefList1 | RegUseList0 | RegUseList1 |
		RegDefFPCSList0 | RegDefFPCSList2 | RegUseFPCSList0 | RegUseFPCSList2
)

// Arity returns the number of operands declared by the arity class of f,
// or -1 if no arity class is set.
func (f Flags) Arity() int {
	switch f & arityMask {
	case NoOperand:
		return 0
	case IsUnaryOp:
		return 1
	case IsBinaryOp:
		return 2
	case IsTertiaryOp:
		return 3
	case IsQuadOp:
		return 4
	case IsQuinOp:
		return 5
	}
	return -1
}

// Has returns true if every flag of mask is set in f.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// Any returns true if at least one flag of mask is set in f.
func (f Flags) Any(mask Flags) bool {
	return f&mask != 0
}

// FixupKind tells how the encoding of a node depends on the final layout.
type FixupKind uint8

const (
	FixupNone FixupKind = iota
	FixupLabel
	FixupLoad
	FixupVLoad
	FixupCBxZ
	FixupPushPop
	FixupCondBranch
	FixupT1Branch
	FixupT2Branch
	FixupAdr
	FixupMovImmLST
	FixupMovImmHST
	FixupAlign4
)

// String implements fmt.Stringer.
func (k FixupKind) String() string {
	switch k {
	case FixupNone:
		return "none"
	case FixupLabel:
		return "label"
	case FixupLoad:
		return "load"
	case FixupVLoad:
		return "vload"
	case FixupCBxZ:
		return "cbxz"
	case FixupPushPop:
		return "pushpop"
	case FixupCondBranch:
		return "condbranch"
	case FixupT1Branch:
		return "t1branch"
	case FixupT2Branch:
		return "t2branch"
	case FixupAdr:
		return "adr"
	case FixupMovImmLST:
		return "movimmlst"
	case FixupMovImmHST:
		return "movimmhst"
	case FixupAlign4:
		return "align4"
	}
	return "invalid"
}
