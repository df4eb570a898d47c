package thumb2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thumbjit/thumbjit/internal/jit/backend"
	"github.com/thumbjit/thumbjit/internal/jit/backend/lir"
	"github.com/thumbjit/thumbjit/internal/jit/backend/regalloc"
)

func TestMachine_SetupFrame(t *testing.T) {
	m := NewMachine(backend.NewConfig(), backend.MethodInfo{NumRegs: 4, NumIns: 1, NumOuts: 2})
	m.GenEntrySequence()
	load := m.LoadValueFromFrame(1, regalloc.Solo(regalloc.Reg(R1)), false)
	m.GenExitSequence()
	m.SetupFrame()

	require.Equal(t, uint32(32), m.FrameSize())
	require.Equal(t, int32(12), m.VRegOffset(0))
	require.Equal(t, int32(16), m.VRegOffset(1))
	require.Equal(t, int32(20), m.VRegOffset(2))
	// The in is in the caller frame, above its Method* slot.
	require.Equal(t, int32(36), m.VRegOffset(3))
	require.Equal(t, int32(4), m.OutOffset(0))
	require.Equal(t, int32(8), m.OutOffset(1))

	require.Equal(t, []lir.Opcode{
		ThumbPush, ThumbSubSpI7, ThumbStrSpRel,
		ThumbLdrSpRel,
		ThumbAddSpI7, ThumbPop,
	}, opcodes(m))
	ins := instructions(m)
	require.Equal(t, int32(1<<8), ins[0].Operands[0])
	require.Equal(t, int32(7), ins[1].Operands[0])
	require.Equal(t, []int32{R0, SP, 0}, operands(ins[2], 3))
	require.Same(t, load, ins[3])
	require.Equal(t, []int32{R1, SP, 4}, operands(load, 3))
	require.Equal(t, int32(7), ins[4].Operands[0])
	require.Equal(t, int32(1<<8), ins[5].Operands[0])

	code, codeSize := m.Assemble()
	require.Equal(t, uint32(12), codeSize)
	require.Equal(t, []byte{
		0x00, 0xb5, // push {lr}
		0x87, 0xb0, // sub sp, #28
		0x00, 0x90, // str r0, [sp]
		0x04, 0x99, // ldr r1, [sp, #16]
		0x07, 0xb0, // add sp, #28
		0x00, 0xbd, // pop {pc}
	}, code)

	require.Panics(t, m.SetupFrame)
}

func TestMachine_SetupFrame_promotion(t *testing.T) {
	m := NewMachine(backend.NewConfig(), backend.MethodInfo{NumRegs: 4, NumIns: 1, NumOuts: 2})
	p := m.DoPromotion([]regalloc.UseCount{
		{SReg: 0, Count: 10},
		{SReg: 1, Count: 5},
		{SReg: 2, Count: 3, FP: true},
	})
	require.Equal(t, regalloc.Reg(R5), p.Map[0].CoreReg)
	require.Equal(t, regalloc.Reg(R6), p.Map[1].CoreReg)
	require.Equal(t, regalloc.Reg(S(16)), p.Map[2].FPReg)
	require.Equal(t, regalloc.InvalidReg, p.Map[3].CoreReg)

	m.GenEntrySequence()
	m.GenExitSequence()
	m.SetupFrame()
	require.Panics(t, func() { m.DoPromotion(nil) })

	// lr, r5, r6 and s16, a filler, three locals, two outs and Method*.
	require.Equal(t, uint32(48), m.FrameSize())
	require.Equal(t, uint32(1<<LR|1<<R5|1<<R6), p.CoreSpillMask)
	require.Equal(t, []lir.Opcode{
		ThumbPush, Thumb2Vpush, ThumbSubSpI7, ThumbStrSpRel,
		ThumbAddSpI7, Thumb2Vpop, ThumbPop,
	}, opcodes(m))
	ins := instructions(m)
	require.Equal(t, int32(1<<8|1<<R5|1<<R6), ins[0].Operands[0])
	require.Equal(t, []int32{S(16), 1}, operands(ins[1], 2))
	require.Equal(t, int32((48-16)>>2), ins[2].Operands[0])
	require.Equal(t, int32(1<<8|1<<R5|1<<R6), ins[6].Operands[0])
}

func TestMachine_SetupFrame_highCoreSpill(t *testing.T) {
	m := NewMachine(backend.NewConfig(), backend.MethodInfo{NumRegs: 5})
	var uses []regalloc.UseCount
	for i := int32(0); i < 5; i++ {
		uses = append(uses, regalloc.UseCount{SReg: i, Count: int(10 - i)})
	}
	m.DoPromotion(uses)
	m.GenEntrySequence()
	m.GenExitSequence()
	m.SetupFrame()

	// r8 cannot go in the 16-bit register lists.
	ins := instructions(m)
	require.Equal(t, Thumb2Push, ins[0].Opcode)
	require.Equal(t, int32(1<<LR|1<<R5|1<<R6|1<<R7|1<<R8|1<<R10), ins[0].Operands[0])
	last := ins[len(ins)-1]
	require.Equal(t, Thumb2Pop, last.Opcode)
	require.Equal(t, int32(1<<PC|1<<R5|1<<R6|1<<R7|1<<R8|1<<R10), last.Operands[0])
}

func TestMachine_SetupFrame_largeFrames(t *testing.T) {
	t.Run("12-bit immediate", func(t *testing.T) {
		m := NewMachine(backend.NewConfig(), backend.MethodInfo{NumRegs: 300, NumIns: 1, NumOuts: 2})
		m.GenEntrySequence()
		m.GenExitSequence()
		m.SetupFrame()
		require.Equal(t, uint32(1216), m.FrameSize())
		require.Equal(t, []lir.Opcode{
			ThumbPush, Thumb2SubRRI12, ThumbStrSpRel,
			Thumb2AddRRI12, ThumbPop,
		}, opcodes(m))
		require.Equal(t, []int32{SP, SP, 1212}, operands(instructions(m)[1], 3))
	})
	t.Run("through r12", func(t *testing.T) {
		m := NewMachine(backend.NewConfig(), backend.MethodInfo{NumRegs: 1200, NumIns: 1, NumOuts: 2})
		m.GenEntrySequence()
		m.GenExitSequence()
		m.SetupFrame()
		require.Equal(t, uint32(4816), m.FrameSize())
		require.Equal(t, []lir.Opcode{
			ThumbPush, Thumb2MovImm16, Thumb2MovImm16H, ThumbAddRRHH, ThumbStrSpRel,
			Thumb2MovImm16, ThumbAddRRHH, ThumbPop,
		}, opcodes(m))
		ins := instructions(m)
		require.Equal(t, []int32{R12, 0xed34}, operands(ins[1], 2))
		require.Equal(t, []int32{R12, 0xffff}, operands(ins[2], 2))
		require.Equal(t, []int32{SP, R12}, operands(ins[3], 2))
		require.Equal(t, []int32{R12, 4812}, operands(ins[5], 2))
	})
}

func TestMachine_SetupFrame_tooManyOuts(t *testing.T) {
	m := NewMachine(backend.NewConfig().WithMaxOuts(4), backend.MethodInfo{NumRegs: 1, NumOuts: 5})
	require.Panics(t, m.SetupFrame)
}

func TestMachine_frameAccesses(t *testing.T) {
	m := NewMachine(backend.NewConfig(), backend.MethodInfo{NumRegs: 4, NumIns: 1, NumOuts: 2})
	high := m.StoreValueToFrame(0, regalloc.Solo(regalloc.Reg(R8)), false)
	single := m.LoadValueFromFrame(2, regalloc.Solo(regalloc.Reg(S(3))), false)
	double := m.StoreValueToFrame(0, regalloc.Solo(regalloc.Reg(D(1))), true)
	pair := m.LoadValueFromFrame(2, regalloc.Pair(regalloc.Reg(R2), regalloc.Reg(R3)), true)
	m.SetupFrame()

	require.Equal(t, Thumb2StrRRI12, high.Opcode)
	require.Equal(t, []int32{R8, SP, 12}, operands(high, 3))
	require.Equal(t, []int32{S(3), SP, 20 >> 2}, operands(single, 3))
	require.Equal(t, []int32{D(1), SP, 12 >> 2}, operands(double, 3))
	require.Equal(t, []int32{R2, R3, SP, 20 >> 2}, operands(pair, 4))

	require.Panics(t, func() {
		m := newTestMachine()
		m.LoadValueFromFrame(0, regalloc.Pair(regalloc.Reg(R2), regalloc.Reg(R3)), false)
	})
}

func TestShortList(t *testing.T) {
	list, ok := shortList(1<<LR|1<<R5, LR)
	require.True(t, ok)
	require.Equal(t, int32(1<<8|1<<5), list)

	_, ok = shortList(1<<LR|1<<R10, LR)
	require.False(t, ok)

	list, ok = shortList(1<<R0, PC)
	require.True(t, ok)
	require.Equal(t, int32(1), list)
}
