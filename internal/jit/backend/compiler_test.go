package backend_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thumbjit/thumbjit/internal/jit/backend"
	"github.com/thumbjit/thumbjit/internal/jit/backend/isa/thumb2"
	"github.com/thumbjit/thumbjit/internal/jit/backend/regalloc"
)

// buildMethod emits a method that stores a constant into vreg 1, exports
// dex pc 2 and calls the suspend check there.
func buildMethod(m *thumb2.Machine) {
	m.GenEntrySequence()
	m.LoadConstantNoClobber(thumb2.R0, 1)
	m.StoreValueToFrame(1, regalloc.Solo(regalloc.Reg(thumb2.R0)), false)
	m.SetDalvikOffset(2)
	m.ExportPC()
	m.CallRuntime(thumb2.EntrypointTestSuspend, []byte{0x02})
	m.GenExitSequence()
}

func TestCompile(t *testing.T) {
	cfg := backend.NewConfig()
	m := thumb2.NewMachine(cfg, backend.MethodInfo{NumRegs: 2})
	buildMethod(m)

	cm := backend.Compile(m, cfg, []regalloc.UseCount{{SReg: 0, Count: 4}})
	require.Zero(t, cm.CodeSize%2)
	require.Equal(t, len(cm.Code), int(cm.CodeSize+3)&^3)
	// lr and r5, a filler, two locals and Method*, aligned.
	require.Equal(t, uint32(32), cm.FrameSize)
	require.Equal(t, uint32(1<<thumb2.LR|1<<thumb2.R5), cm.CoreSpillMask)
	require.Zero(t, cm.FPSpillMask)

	core, fp, err := backend.DecodeVMapTable(cm.VMapTable)
	require.NoError(t, err)
	require.Equal(t, []uint32{0}, core)
	require.Nil(t, fp)

	table, err := backend.DecodeMappingTable(cm.MappingTable)
	require.NoError(t, err)
	require.Equal(t, 1, len(table.PCToDex))
	require.Equal(t, 1, len(table.DexToPC))
	sp := table.PCToDex[0]
	require.Equal(t, uint32(2), sp.DexPC)
	require.Equal(t, uint32(2), table.DexToPC[0].DexPC)
	// The safepoint is the return address of the call, after the export.
	require.Less(t, table.DexToPC[0].NativeOffset, sp.NativeOffset)
	require.LessOrEqual(t, sp.NativeOffset, cm.CodeSize)

	gcMap, err := backend.ParseGCMap(cm.GCMap)
	require.NoError(t, err)
	refs, ok := gcMap.Lookup(sp.NativeOffset)
	require.True(t, ok)
	require.Equal(t, []byte{0x02}, refs)

	require.Equal(t, fmt.Sprintf("code %dB, data %dB, frame 32B, mapping table %dB, vmap 3B, gc map %dB",
		cm.CodeSize, len(cm.Code)-int(cm.CodeSize), len(cm.MappingTable), len(cm.GCMap)), cm.String())
}

func TestCompiledMethod_String(t *testing.T) {
	cm := &backend.CompiledMethod{
		Code:         make([]byte, 3*1024+512+8),
		CodeSize:     3*1024 + 512,
		FrameSize:    96,
		MappingTable: make([]byte, 10),
		VMapTable:    make([]byte, 3),
		GCMap:        make([]byte, 2000),
	}
	require.Equal(t, "code 3.5KiB, data 8B, frame 96B, mapping table 10B, vmap 3B, gc map 1.953KiB", cm.String())
}

func TestCompile_noPromotion(t *testing.T) {
	cfg := backend.NewConfig().WithPromotion(false).
		WithLoadStoreElimination(false).WithLoadHoisting(false)
	m := thumb2.NewMachine(cfg, backend.MethodInfo{NumRegs: 2})
	buildMethod(m)

	cm := backend.Compile(m, cfg, []regalloc.UseCount{{SReg: 0, Count: 4}})
	require.Equal(t, uint32(1<<thumb2.LR), cm.CoreSpillMask)
	require.Equal(t, uint32(32), cm.FrameSize)

	core, fp, err := backend.DecodeVMapTable(cm.VMapTable)
	require.NoError(t, err)
	require.Nil(t, core)
	require.Nil(t, fp)
}

func TestCompile_promotedBeforehand(t *testing.T) {
	cfg := backend.NewConfig()
	m := thumb2.NewMachine(cfg, backend.MethodInfo{NumRegs: 2})
	p := m.DoPromotion([]regalloc.UseCount{{SReg: 1, Count: 3, FP: true}})
	buildMethod(m)

	// The use counts given to Compile are ignored.
	cm := backend.Compile(m, cfg, []regalloc.UseCount{{SReg: 0, Count: 4}})
	require.Same(t, p, m.Promotion())
	require.Equal(t, uint32(1<<thumb2.LR), cm.CoreSpillMask)
	require.Equal(t, uint32(1<<16), cm.FPSpillMask)

	core, fp, err := backend.DecodeVMapTable(cm.VMapTable)
	require.NoError(t, err)
	require.Nil(t, core)
	require.Equal(t, []uint32{1}, fp)
}
