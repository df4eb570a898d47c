package regalloc

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testSingleFlag = 0x20
	testDoubleFlag = 0x40
)

func testSingle(n int) Reg { return Reg(testSingleFlag | n) }
func testDouble(n int) Reg { return Reg(testDoubleFlag | n) }

// testConfig mirrors the ARM pool: r4, r9 and r13-r15 are reserved.
func testConfig() PoolConfig {
	cfg := PoolConfig{
		Core:      []Reg{0, 1, 2, 3, 5, 6, 7, 8, 10, 11, 12},
		CoreTemps: []Reg{0, 1, 2, 3, 12},
		DoubleViews: func(d Reg) (lo, hi Reg, ok bool) {
			n := int(d) & 0x1f
			return testSingle(2 * n), testSingle(2*n + 1), n < 16
		},
		RegNum: func(r Reg) int { return int(r) & 0x1f },
		Name: func(r Reg) string {
			switch {
			case r&testDoubleFlag != 0:
				return fmt.Sprintf("d%d", r&0x1f)
			case r&testSingleFlag != 0:
				return fmt.Sprintf("s%d", r&0x1f)
			}
			return fmt.Sprintf("r%d", r)
		},
	}
	for i := 0; i < 32; i++ {
		cfg.Singles = append(cfg.Singles, testSingle(i))
		if i < 16 {
			cfg.SingleTemps = append(cfg.SingleTemps, testSingle(i))
		}
	}
	for i := 0; i < 16; i++ {
		cfg.Doubles = append(cfg.Doubles, testDouble(i))
		if i < 8 {
			cfg.DoubleTemps = append(cfg.DoubleTemps, testDouble(i))
		}
	}
	return cfg
}

type flush struct {
	sReg int32
	reg  RegStorage
	wide bool
}

type recordingSpiller struct{ flushes []flush }

func (s *recordingSpiller) FlushToHome(sReg int32, reg RegStorage, wide bool) {
	s.flushes = append(s.flushes, flush{sReg: sReg, reg: reg, wide: wide})
}

func TestPool_AllocTemp(t *testing.T) {
	p := NewPool(testConfig(), nil)
	var got []Reg
	for i := 0; i < 5; i++ {
		r := p.AllocTemp(true)
		require.True(t, r.Valid())
		got = append(got, r.Reg())
	}
	require.Equal(t, []Reg{0, 1, 2, 3, 12}, got)
	require.False(t, p.AllocTemp(false).Valid())
	require.Panics(t, func() { p.AllocTemp(true) })

	p.FreeTemp(Solo(2))
	require.Equal(t, Solo(2), p.AllocTemp(true))
}

func TestPool_AllocTemp_prefersDeadRegisters(t *testing.T) {
	p := NewPool(testConfig(), nil)
	for i := int32(0); i < 3; i++ {
		r := p.AllocTemp(true)
		p.MarkLive(Location{SReg: 10 + i, Reg: r})
		p.FreeTemp(r)
	}
	// r0..r2 cache values, so the free and dead r3, r12 go first.
	require.Equal(t, Solo(3), p.AllocTemp(true))
	require.Equal(t, Solo(12), p.AllocTemp(true))
	// Then the round-robin cursor evicts the oldest cached value.
	evicted := p.AllocTemp(true)
	require.Equal(t, Solo(0), evicted)
	require.False(t, p.AllocLiveReg(10, CoreReg, false).Valid())
	require.Equal(t, Solo(1), p.AllocLiveReg(11, CoreReg, false))
}

func TestPool_AllocTempVariants(t *testing.T) {
	p := NewPool(testConfig(), nil)
	require.Equal(t, Solo(testSingle(0)), p.AllocTempSingle(true))
	// d0 overlaps the allocated s0.
	require.Equal(t, Solo(testDouble(1)), p.AllocTempDouble(true))
	require.Equal(t, Solo(testSingle(1)), p.AllocTempSingle(true))
	// s2 and s3 are covered by d1.
	require.Equal(t, Solo(testSingle(4)), p.AllocTempSingle(true))
	require.Equal(t, Solo(0), p.AllocTempRef(true))

	wide := p.AllocTempWide(true)
	require.True(t, wide.IsPair())
	require.Equal(t, Pair(1, 2), wide)

	for _, r := range []Reg{3, 12} {
		p.LockTemp(r)
	}
	// A single temp left is not enough for a pair.
	p.FreeTemp(Solo(12))
	require.False(t, p.AllocTempWide(false).Valid())
	require.False(t, p.RegisterInfo(12).InUse())
}

func TestPool_AllocLiveReg(t *testing.T) {
	p := NewPool(testConfig(), nil)
	r := p.AllocTemp(true)
	p.MarkLive(Location{SReg: 7, Reg: r})
	p.FreeTemp(r)
	require.True(t, p.IsLive(r.Reg()))

	got := p.AllocLiveReg(7, CoreReg, false)
	require.Equal(t, r, got)
	require.True(t, p.RegisterInfo(r.Reg()).InUse())

	// Width mismatch: the cached copy is dropped.
	p.FreeTemp(r)
	require.False(t, p.AllocLiveReg(7, CoreReg, true).Valid())
	require.False(t, p.IsLive(r.Reg()))
}

func TestPool_AllocLiveReg_pair(t *testing.T) {
	p := NewPool(testConfig(), nil)
	w := p.AllocTempWide(true)
	p.MarkLive(Location{SReg: 4, Wide: true, Reg: w})
	p.FreeTemp(w)

	got := p.AllocLiveReg(4, AnyReg, true)
	require.Equal(t, w, got)
	lo, hi := p.RegisterInfo(w.Low()), p.RegisterInfo(w.High())
	require.True(t, lo.IsWide())
	require.Equal(t, hi.Reg(), lo.Partner())
	require.Equal(t, lo.Reg(), hi.Partner())
	require.Equal(t, int32(5), hi.SReg())
}

func TestPool_Clobber_pair(t *testing.T) {
	p := NewPool(testConfig(), nil)
	w := p.AllocTempWide(true)
	p.MarkLive(Location{SReg: 2, Wide: true, Reg: w})
	lo, hi := p.RegisterInfo(w.Low()), p.RegisterInfo(w.High())
	require.True(t, lo.IsWide() && hi.IsWide())
	require.True(t, lo.IsLive() && hi.IsLive())

	// Clobbering one half drops both halves and the pairing.
	p.Clobber(Solo(w.High()))
	require.False(t, lo.IsWide())
	require.False(t, hi.IsWide())
	require.True(t, lo.IsDead())
	require.True(t, hi.IsDead())
	require.Equal(t, InvalidSReg, lo.SReg())
}

func TestPool_Clobber_aliases(t *testing.T) {
	t.Run("double clobbers singles", func(t *testing.T) {
		p := NewPool(testConfig(), nil)
		s0, s1 := p.RegisterInfo(testSingle(0)), p.RegisterInfo(testSingle(1))
		p.MarkLive(Location{SReg: 1, Reg: Solo(s0.Reg())})
		p.MarkLive(Location{SReg: 2, Reg: Solo(s1.Reg())})
		require.True(t, s0.IsLive() && s1.IsLive())

		p.Clobber(Solo(testDouble(0)))
		require.True(t, s0.IsDead())
		require.True(t, s1.IsDead())
		require.False(t, p.AllocLiveReg(1, FPReg, false).Valid())
		require.False(t, p.AllocLiveReg(2, FPReg, false).Valid())
	})
	t.Run("single clobbers double", func(t *testing.T) {
		p := NewPool(testConfig(), nil)
		d0 := p.RegisterInfo(testDouble(0))
		p.MarkLive(Location{SReg: 6, Wide: true, Reg: Solo(d0.Reg())})
		require.True(t, d0.IsLive())
		require.True(t, d0.IsWide())

		p.Clobber(Solo(testSingle(1)))
		require.True(t, d0.IsDead())
		require.False(t, d0.IsWide())
		require.False(t, p.AllocLiveReg(6, FPReg, true).Valid())
	})
	t.Run("disjoint single survives", func(t *testing.T) {
		p := NewPool(testConfig(), nil)
		s0, s1 := p.RegisterInfo(testSingle(0)), p.RegisterInfo(testSingle(1))
		p.MarkLive(Location{SReg: 1, Reg: Solo(s0.Reg())})
		p.MarkLive(Location{SReg: 2, Reg: Solo(s1.Reg())})
		p.Clobber(Solo(s1.Reg()))
		require.True(t, s0.IsLive())
		require.Equal(t, Solo(s0.Reg()), p.AllocLiveReg(1, FPReg, false))
	})
	t.Run("marking a view live drops overlapping bindings", func(t *testing.T) {
		p := NewPool(testConfig(), nil)
		d1 := p.RegisterInfo(testDouble(1))
		p.MarkLive(Location{SReg: 3, Wide: true, Reg: Solo(d1.Reg())})
		p.MarkLive(Location{SReg: 9, Reg: Solo(testSingle(2))})
		require.True(t, d1.IsDead() || d1.SReg() == InvalidSReg)
		require.False(t, p.AllocLiveReg(3, FPReg, true).Valid())
		require.Equal(t, Solo(testSingle(2)), p.AllocLiveReg(9, FPReg, false))
	})
}

func TestPool_ClobberSReg(t *testing.T) {
	p := NewPool(testConfig(), nil)
	p.MarkLive(Location{SReg: 3, Reg: Solo(0)})
	// Rebinding the same vreg elsewhere drops the older copy.
	p.MarkLive(Location{SReg: 3, Reg: Solo(1)})
	require.False(t, p.IsLive(0))
	require.True(t, p.IsLive(1))

	p.ClobberSReg(3)
	require.False(t, p.IsLive(1))
	require.Equal(t, InvalidSReg, p.RegisterInfo(1).SReg())
}

func TestPool_Flush(t *testing.T) {
	s := &recordingSpiller{}
	p := NewPool(testConfig(), s)

	narrow := Location{SReg: 1, Reg: p.AllocTemp(true)}
	p.MarkLive(narrow)
	p.MarkDirty(narrow)
	require.True(t, p.IsDirty(narrow.Reg))

	wide := Location{SReg: 6, Wide: true, Reg: p.AllocTempWide(true)}
	p.MarkLive(wide)
	p.MarkDirty(wide)

	double := Location{SReg: 8, Wide: true, Reg: p.AllocTempDouble(true)}
	p.MarkLive(double)
	p.MarkDirty(double)

	clean := Location{SReg: 2, Reg: p.AllocTemp(true)}
	p.MarkLive(clean)
	p.MarkClean(clean)

	p.FlushReg(narrow.Reg.Reg())
	require.Equal(t, []flush{{sReg: 1, reg: narrow.Reg}}, s.flushes)
	// Already clean.
	p.FlushReg(narrow.Reg.Reg())
	require.Len(t, s.flushes, 1)

	p.FlushAllRegs()
	require.Equal(t, []flush{
		{sReg: 1, reg: narrow.Reg},
		{sReg: 6, reg: wide.Reg, wide: true},
		{sReg: 8, reg: double.Reg, wide: true},
	}, s.flushes)
	require.False(t, p.IsLive(wide.Reg.Low()))
	require.False(t, p.IsLive(clean.Reg.Reg()))
}

func TestPool_NonTempRegistersAreNotTracked(t *testing.T) {
	p := NewPool(testConfig(), nil)
	p.MarkLive(Location{SReg: 1, Reg: Solo(5)})
	require.False(t, p.IsLive(5))
	require.False(t, p.IsTemp(5))
	require.Panics(t, func() { p.LockTemp(5) })
	require.Panics(t, func() { p.RegisterInfo(13) })
}
