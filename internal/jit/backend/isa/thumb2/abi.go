package thumb2

// Calling convention of compiled code:
//
//   - r0 holds the callee Method* on entry and is stored at [sp, #0] by the
//     prologue. r1-r3 carry the first argument words, the rest are read
//     from the ins area of the caller frame.
//   - r0/r1 hold the return value, s0/d0 a floating point one.
//   - r4 counts down to the next suspend check, r9 holds the current thread.
//   - r12 and lr are scratch once the prologue is done: the frame adjustment
//     of large frames goes through r12, out of range literal loads through lr.
const (
	// methodPointerOffset is the offset of the Method* slot from sp.
	methodPointerOffset = 0
	// frameAlignment is the alignment of sp at calls.
	frameAlignment = 16
	// wordSize is the size of a virtual register slot.
	wordSize = 4
)

// Entrypoint identifies a runtime helper reachable from the thread register.
type Entrypoint int32

const (
	EntrypointHandleFillArrayData Entrypoint = iota
	EntrypointTestSuspend
	EntrypointDeliverException
	EntrypointThrowNullPointer
	EntrypointThrowArrayBounds
	EntrypointThrowDivZero
	EntrypointThrowStackOverflow

	entrypointEnd
)

// threadEntrypointsOffset is where the entrypoint table starts within the
// thread object pointed to by RegSelf.
const threadEntrypointsOffset = 0x1a8

// Offset returns the offset of the helper address from RegSelf.
func (e Entrypoint) Offset() int32 {
	if e < 0 || e >= entrypointEnd {
		panic("BUG: invalid entrypoint")
	}
	return threadEntrypointsOffset + int32(e)*wordSize
}
