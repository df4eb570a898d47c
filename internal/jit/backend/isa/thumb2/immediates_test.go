package thumb2

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModifiedImmediate(t *testing.T) {
	for _, tc := range []struct {
		v   uint32
		exp int32
	}{
		{v: 0, exp: 0},
		{v: 0xab, exp: 0xab},
		{v: 0x00ab00ab, exp: 0x1ab},
		{v: 0xab00ab00, exp: 0x2ab},
		{v: 0xabababab, exp: 0x3ab},
		{v: 0xff00ff00, exp: 0x2ff},
		{v: 0x100, exp: 0xf80},
		{v: 0x1fe, exp: 0xfff},
		{v: 0x80000000, exp: 0x400},
		{v: 0x12345678, exp: -1},
		{v: 0x101, exp: -1},
		{v: 0xffffffff, exp: 0x3ff},
	} {
		require.Equal(t, tc.exp, ModifiedImmediate(tc.v), "%#x", tc.v)
	}
}

func TestModifiedImmediate_roundTrip(t *testing.T) {
	for b := uint32(1); b <= 0xff; b++ {
		for s := uint(0); s <= 24; s++ {
			v := b << s
			enc := ModifiedImmediate(v)
			require.NotEqual(t, int32(-1), enc, "%#x", v)
			require.Equal(t, v, ExpandImmediate(enc), "%#x", v)
		}
	}
}

func TestEncodeImmSingle(t *testing.T) {
	for _, tc := range []struct {
		f   float32
		exp int32
	}{
		{f: 2.0, exp: 0},
		{f: 1.0, exp: 0x70},
		{f: 0.5, exp: 0x60},
		{f: -2.0, exp: 0x80},
		{f: 31.0, exp: 0x3f},
		{f: 0.1, exp: -1},
		{f: 0, exp: -1},
		{f: 1e10, exp: -1},
	} {
		require.Equal(t, tc.exp, EncodeImmSingle(math.Float32bits(tc.f)), "%v", tc.f)
	}
}

func TestEncodeImmDouble(t *testing.T) {
	for _, tc := range []struct {
		f   float64
		exp int32
	}{
		{f: 2.0, exp: 0},
		{f: 1.0, exp: 0x70},
		{f: -0.5, exp: 0xe0},
		{f: 0.1, exp: -1},
		{f: 0, exp: -1},
	} {
		require.Equal(t, tc.exp, EncodeImmDouble(math.Float64bits(tc.f)), "%v", tc.f)
	}
}

func TestItMask(t *testing.T) {
	for _, tc := range []struct {
		cond  Cond
		guide string
		exp   int32
	}{
		{cond: CondEq, guide: "", exp: 0x8},
		{cond: CondEq, guide: "E", exp: 0xc},
		{cond: CondEq, guide: "T", exp: 0x4},
		{cond: CondNe, guide: "T", exp: 0xc},
		{cond: CondNe, guide: "E", exp: 0x4},
		{cond: CondEq, guide: "TT", exp: 0x2},
		{cond: CondEq, guide: "TTT", exp: 0x1},
	} {
		t.Run(fmt.Sprintf("%s%s", tc.cond, tc.guide), func(t *testing.T) {
			require.Equal(t, tc.exp, itMask(tc.cond, tc.guide))
		})
	}
	require.Panics(t, func() { itMask(CondEq, "TTTT") })
	require.Panics(t, func() { itMask(CondEq, "X") })
}
