package backend

// OpKind is the abstract operation requested by the lowering passes from the
// OpReg* helpers of a Machine.
type OpKind byte

const (
	OpAdd OpKind = iota
	OpSub
	OpRsub
	OpAdc
	OpSbc
	OpAnd
	OpOr
	OpXor
	OpBic
	OpLsl
	OpLsr
	OpAsr
	OpRor
	OpMul
	OpDiv
	OpRem
	OpCmp
	OpCmn
	OpTst
	OpMov
	OpMvn
	OpNeg
)

var opKindNames = [...]string{
	OpAdd: "add", OpSub: "sub", OpRsub: "rsub", OpAdc: "adc", OpSbc: "sbc",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpBic: "bic",
	OpLsl: "lsl", OpLsr: "lsr", OpAsr: "asr", OpRor: "ror",
	OpMul: "mul", OpDiv: "div", OpRem: "rem",
	OpCmp: "cmp", OpCmn: "cmn", OpTst: "tst",
	OpMov: "mov", OpMvn: "mvn", OpNeg: "neg",
}

// String implements fmt.Stringer.
func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return "invalid"
}

// OpSize is the width and signedness of a memory access.
type OpSize byte

const (
	SizeWord OpSize = iota
	SizeReference
	SizeUnsignedHalf
	SizeSignedHalf
	SizeUnsignedByte
	SizeSignedByte
	SizeWide
	SizeSingle
	SizeDouble
)

// Bytes returns the number of bytes accessed.
func (s OpSize) Bytes() int32 {
	switch s {
	case SizeUnsignedHalf, SizeSignedHalf:
		return 2
	case SizeUnsignedByte, SizeSignedByte:
		return 1
	case SizeWide, SizeDouble:
		return 8
	}
	return 4
}

// BarrierKind is the ordering a memory barrier enforces.
type BarrierKind byte

const (
	BarrierAnyStore BarrierKind = iota
	BarrierLoadAny
	BarrierStoreStore
	BarrierAnyAny
)
