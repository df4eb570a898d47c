package lir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thumbjit/thumbjit/internal/jit/jitapi"
)

func TestResourceMask(t *testing.T) {
	m := Bit(3).Union(Bit(70))
	require.True(t, m.HasBit(3))
	require.True(t, m.HasBit(70))
	require.False(t, m.HasBit(6))
	require.Equal(t, uint64(1<<3), m.Low())

	require.Equal(t, Bit(70), m.Without(Bit(3)))
	require.Equal(t, Bit(3), m.Intersection(Bits(0, 8)))
	require.True(t, m.Intersects(Bit(70)))
	require.False(t, m.Intersects(EncodeMem))
	require.True(t, EncodeNone.IsEmpty())

	m.SetBit(ResourceHeapRef)
	require.Equal(t, "{3,heap}", m.Without(Bit(70)).String())
	m.ClearBits(EncodeMem)
	require.False(t, m.HasBit(ResourceHeapRef))

	require.Equal(t, "none", EncodeNone.String())
	require.Equal(t, "all", EncodeAll.String())
	require.Equal(t, Bit(0).Union(Bit(1)).Union(Bit(2)), Bits(0, 3))
}

func TestMaskCache(t *testing.T) {
	c := NewMaskCache()
	a := c.Get(Bit(1).Union(Bit(2)))
	b := c.Get(Bits(1, 2))
	require.Same(t, a, b)
	require.Equal(t, 1, c.Len())

	require.Same(t, c.Get(EncodeAll), c.Get(EncodeAll))
	require.Same(t, c.Get(EncodeNone), c.Get(ResourceMask{}))
	require.Equal(t, 1, c.Len())

	c.Reset()
	require.Equal(t, 0, c.Len())
	require.NotSame(t, a, c.Get(Bits(1, 2)))
}

func TestUnit_SetupResourceMasks(t *testing.T) {
	tests := []struct {
		name     string
		build    func(u *Unit[testTarget]) *Node
		use, def ResourceMask
		fixup    FixupKind
		size     uint8
	}{
		{
			name:  "add",
			build: func(u *Unit[testTarget]) *Node { return u.NewLIR3(opAdd, 1, 2, 3) },
			use:   Bits(2, 2),
			def:   Bit(1).Union(Bit(ResourceCCode)),
			size:  2,
		},
		{
			name:  "heap load",
			build: func(u *Unit[testTarget]) *Node { return u.NewLIR3(opLdr, 0, 5, 8) },
			use:   Bit(5).Union(EncodeHeapRef),
			def:   Bit(0),
			size:  4,
		},
		{
			name:  "heap store",
			build: func(u *Unit[testTarget]) *Node { return u.NewLIR3(opStr, 0, 5, 8) },
			use:   Bit(0).Union(Bit(5)),
			def:   EncodeHeapRef,
			size:  4,
		},
		{
			name: "frame load",
			build: func(u *Unit[testTarget]) *Node {
				n := u.NewLIR3(opLdr, 0, testSP, 4)
				u.AnnotateDalvikRegAccess(n, 1, true, false)
				return n
			},
			use:  Bit(testSP).Union(EncodeDalvikReg),
			def:  Bit(0),
			size: 4,
		},
		{
			name:  "fp load",
			build: func(u *Unit[testTarget]) *Node { return u.NewLIR3(opFLdr, testFPReg|3, 5, 0) },
			use:   Bit(5).Union(EncodeHeapRef),
			def:   Bit(19),
			size:  4,
		},
		{
			name: "literal load",
			build: func(u *Unit[testTarget]) *Node {
				restore := u.WithMemRefType(ResourceLiteral)
				defer restore()
				return u.NewLIR2(opLdrLit, 2, 0)
			},
			use:   Bit(testPC).Union(EncodeLiteral),
			def:   Bit(2),
			fixup: FixupLabel,
			size:  4,
		},
		{
			name:  "branch",
			build: func(u *Unit[testTarget]) *Node { return u.NewLIR1(opB, 0) },
			use:   EncodeAll,
			def:   EncodeAll,
			fixup: FixupLabel,
			size:  2,
		},
		{
			name:  "call",
			build: func(u *Unit[testTarget]) *Node { return u.NewLIR1(opBl, 0) },
			use:   EncodeAll,
			def:   EncodeAll,
			size:  4,
		},
		{
			name:  "label",
			build: func(u *Unit[testTarget]) *Node { return u.NewLabel() },
			use:   EncodeAll,
			def:   EncodeAll,
			fixup: FixupLabel,
		},
		{
			name:  "boundary",
			build: func(u *Unit[testTarget]) *Node { return u.NewLIR0(PseudoDalvikBoundary) },
			fixup: FixupLabel,
		},
		{
			name:  "align",
			build: func(u *Unit[testTarget]) *Node { return u.NewLIR0(PseudoAlign4) },
			fixup: FixupAlign4,
		},
		{
			name:  "barrier",
			build: func(u *Unit[testTarget]) *Node { return u.NewLIR0(PseudoBarrier) },
			use:   EncodeAll,
			def:   EncodeAll,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			u := newTestUnit()
			n := tc.build(u)
			require.Equal(t, tc.use, *n.UseMask, n.UseMask.String())
			require.Equal(t, tc.def, *n.DefMask, n.DefMask.String())
			require.Equal(t, tc.fixup, n.Fixup)
			require.Equal(t, tc.size, n.Size)
			require.Equal(t, OffsetInvalid, n.Offset)
		})
	}
}

func TestUnit_NewLIR_arity(t *testing.T) {
	u := newTestUnit()
	require.Panics(t, func() { u.NewLIR2(opAdd, 1, 2) })
	require.Panics(t, func() { u.NewLIR0(opMov) })
	require.Panics(t, func() { u.NewLIR3(PseudoTargetLabel, 0, 0, 0) })
	require.NotPanics(t, func() { u.NewLIR0(opNop) })
}

func TestUnit_SetMemRefType(t *testing.T) {
	u := newTestUnit()
	st := u.NewLIR3(opStr, 0, 5, 0)
	require.Panics(t, func() { u.SetMemRefType(st, false, ResourceLiteral) })
	require.Panics(t, func() { u.SetMemRefType(st, false, ResourceMustNotAlias) })
	require.Panics(t, func() { u.SetMemRefType(u.NewLIR3(opAdd, 0, 1, 2), true, ResourceHeapRef) })

	ld := u.NewLIR3(opLdr, 0, 5, 0)
	u.SetMemRefType(ld, true, ResourceMustNotAlias)
	require.Equal(t, Bit(5).Union(EncodeMustNotAlias), *ld.UseMask)

	u.AnnotateDalvikRegAccess(st, 7, false, true)
	require.Equal(t, EncodeDalvikReg, *st.DefMask)
	require.Equal(t, int32(7), AliasInfoReg(st.AliasInfo))
	require.Equal(t, int32(1), AliasInfoWide(st.AliasInfo))
}

func TestUnit_insert(t *testing.T) {
	u := newTestUnit()
	a := u.NewLIR3(opAdd, 0, 1, 2)
	b := u.NewLIR3(opAdd, 3, 4, 5)

	head := u.RawLIR(0, opNop, nil)
	u.InsertLIRBefore(a, head)
	require.Same(t, head, u.First())
	require.Nil(t, head.Prev())

	tail := u.RawLIR(0, opNop, nil)
	u.InsertLIRAfter(b, tail)
	require.Same(t, tail, u.Last())
	require.Nil(t, tail.Next())

	mid := u.RawLIR(0, opCmp, nil, 0, 3)
	u.InsertLIRAfter(a, mid)
	require.Same(t, mid, a.Next())
	require.Same(t, mid, b.Prev())

	var got []Opcode
	for n := u.First(); n != nil; n = n.Next() {
		got = append(got, n.Opcode)
	}
	require.Equal(t, []Opcode{opNop, opAdd, opCmp, opAdd, opNop}, got)
	require.Equal(t, 5, u.NumNodes())
}

func TestUnit_MoveTailAfter(t *testing.T) {
	opcodes := func(u *Unit[testTarget]) (ret []Opcode) {
		for n := u.First(); n != nil; n = n.Next() {
			ret = append(ret, n.Opcode)
		}
		return
	}

	t.Run("middle", func(t *testing.T) {
		u := newTestUnit()
		entry := u.NewLIR0(PseudoMethodEntry)
		u.NewLIR3(opAdd, 0, 1, 2)
		u.NewLIR0(PseudoMethodExit)
		first := u.NewLIR2(opCmp, 0, 1)
		last := u.NewLIR0(opNop)

		u.MoveTailAfter(entry, first)
		require.Equal(t, []Opcode{PseudoMethodEntry, opCmp, opNop, opAdd, PseudoMethodExit}, opcodes(u))
		require.Same(t, entry, first.Prev())
		require.Equal(t, Opcode(PseudoMethodExit), u.Last().Opcode)
		require.Same(t, last, u.Last().Prev().Prev())
		require.Nil(t, u.Last().Next())
	})

	t.Run("after last", func(t *testing.T) {
		u := newTestUnit()
		u.NewLIR3(opAdd, 0, 1, 2)
		exit := u.NewLIR0(PseudoMethodExit)
		first := u.NewLIR0(opNop)
		u.MoveTailAfter(exit, first)
		require.Equal(t, []Opcode{opAdd, PseudoMethodExit, opNop}, opcodes(u))
		require.Same(t, first, u.Last())
	})

	t.Run("nil", func(t *testing.T) {
		u := newTestUnit()
		a := u.NewLIR0(opNop)
		u.MoveTailAfter(a, nil)
		require.Same(t, a, u.Last())
	})
}

func TestUnit_MarkScheduleBarrier(t *testing.T) {
	u := newTestUnit()
	n := u.NewLIR2(opCmp, 0, 1)
	require.NotEqual(t, EncodeAll, *n.DefMask)
	u.MarkScheduleBarrier(n)
	require.Equal(t, EncodeAll, *n.DefMask)
}

func TestUnit_MarkSafepointPC(t *testing.T) {
	u := newTestUnit()
	call := u.NewLIR3(opAdd, 0, 1, 2)
	sp := u.MarkSafepointPC(call)
	require.Equal(t, PseudoSafepointPC, sp.Opcode)
	require.Equal(t, EncodeAll, *call.DefMask)
	require.Same(t, sp, u.Last())
}

func TestUnit_WrapPointer(t *testing.T) {
	u := newTestUnit()
	d := &EmbeddedData{Kind: EmbeddedFillArray}
	i := u.WrapPointer("x")
	j := u.WrapPointer(d)
	require.Equal(t, int32(0), i)
	require.Equal(t, int32(1), j)
	require.Same(t, d, u.UnwrapPointer(j).(*EmbeddedData))

	u.Reset()
	require.Equal(t, int32(0), u.WrapPointer(d))
	require.Nil(t, u.First())
	require.Equal(t, 0, u.NumNodes())
}

func TestUnit_Reset_nodePages(t *testing.T) {
	u := newTestUnit()
	for i := 0; i < (retainedNodePages+4)*jitapi.ArenaPageSize; i++ {
		u.NewLIR3(opAdd, 0, 1, 2)
	}
	require.Equal(t, retainedNodePages+4, u.nodes.Pages())

	u.Reset()
	require.Equal(t, retainedNodePages, u.nodes.Pages())
	n := u.NewLIR3(opAdd, 3, 4, 5)
	require.Same(t, n, u.First())
	require.Nil(t, n.Next())
	require.Equal(t, 1, u.NumNodes())
}

func TestUnit_LinkFixups(t *testing.T) {
	u := newTestUnit()
	u.NewLIR3(opAdd, 0, 1, 2)
	br := u.NewLIR1(opB, 0)
	u.NewLIR3(opAdd, 0, 1, 2)
	dead := u.NewLIR3(opAdd, 0, 1, 2)
	dead.Nop()
	align := u.NewLIR0(PseudoAlign4)
	ld := u.NewLIR2(opLdrLit, 0, 0)
	label := u.NewLabel()
	br.Target = label
	u.NewLIR0(PseudoBarrier)
	u.NewLIR3(opAdd, 0, 1, 2)

	size := u.LinkFixups()
	require.Equal(t, int32(2+2+2+2+4+2), size)

	var list []*Node
	for n := u.FirstFixup(); n != nil; n = n.PCRelNext() {
		list = append(list, n)
	}
	require.Equal(t, []*Node{br, align, ld, label}, list)
	require.Equal(t, FixupT1Branch, br.Fixup)
	require.Equal(t, FixupLoad, ld.Fixup)
	require.Equal(t, int32(2), br.Offset)
	require.Equal(t, int32(6), align.Offset)
	require.Equal(t, uint8(2), align.Size)
	require.Equal(t, int32(8), ld.Offset)
	require.Equal(t, int32(12), label.Offset)
	require.Equal(t, OffsetInvalid, dead.Offset)
}

func TestUnit_fixupListEdits(t *testing.T) {
	u := newTestUnit()
	a := u.NewLIR1(opB, 0)
	b := u.NewLIR1(opB, 0)
	u.LinkFixups()

	c := u.RawLIR(0, opB, nil, 0)
	u.InsertFixupBefore(a, b, c)
	require.Same(t, c, a.PCRelNext())
	require.Same(t, b, c.PCRelNext())

	d := u.RawLIR(0, opB, nil, 0)
	u.InsertFixupBefore(nil, a, d)
	require.Same(t, d, u.FirstFixup())

	e := u.RawLIR(0, opB, nil, 0)
	u.ReplaceFixup(c, b, e)
	require.Same(t, e, c.PCRelNext())
	require.Nil(t, e.PCRelNext())
	require.Equal(t, FixupNone, b.Fixup)

	require.Panics(t, func() { u.InsertFixupBefore(a, b, u.RawLIR(0, opB, nil, 0)) })
}

func TestIsDalvikRegClobbered(t *testing.T) {
	n := func(vreg int32, wide bool) *Node { return &Node{AliasInfo: EncodeAliasInfo(vreg, wide)} }
	require.True(t, isDalvikRegClobbered(n(3, false), n(3, false)))
	require.True(t, isDalvikRegClobbered(n(3, true), n(4, false)))
	require.True(t, isDalvikRegClobbered(n(4, false), n(3, true)))
	require.False(t, isDalvikRegClobbered(n(3, false), n(4, false)))
	require.False(t, isDalvikRegClobbered(n(3, true), n(5, true)))
}

func TestUnit_Dump(t *testing.T) {
	u := newTestUnit()
	u.NewLIR0(PseudoMethodEntry)
	u.NewLIR3(opLdr, 0, 5, 8).Nop()
	u.NewLIR0(PseudoBarrier)
	require.Equal(t, "-------- method entry\n???? (0000): ldr r0, [r5, #8] (nop)\n-------- BARRIER\n", u.Dump())
}
