package backend

import (
	"sort"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
)

func TestEncodeGCMap(t *testing.T) {
	data := EncodeGCMap([]Safepoint{
		{NativeOffset: 12, References: []byte{0x05}},
		{NativeOffset: 4, References: []byte{0x01, 0x02}},
		{NativeOffset: 12, References: []byte{0x02}},
	})
	require.Equal(t, []byte{
		0x11, 0x00, 0x02, 0x00, // 1-byte offsets, 2-byte bitmaps, 2 entries
		0x04, 0x01, 0x02,
		0x0c, 0x07, 0x00,
	}, data)

	m, err := ParseGCMap(data)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())
	require.Equal(t, 2, m.RegWidth())

	off, refs := m.Entry(0)
	require.Equal(t, uint32(4), off)
	require.Equal(t, []byte{0x01, 0x02}, refs)

	refs, ok := m.Lookup(12)
	require.True(t, ok)
	require.Equal(t, []byte{0x07, 0x00}, refs)

	_, ok = m.Lookup(5)
	require.False(t, ok)
	_, ok = m.Lookup(100)
	require.False(t, ok)
}

func TestEncodeGCMap_empty(t *testing.T) {
	data := EncodeGCMap(nil)
	require.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, data)
	m, err := ParseGCMap(data)
	require.NoError(t, err)
	require.Zero(t, m.Len())
	_, ok := m.Lookup(0)
	require.False(t, ok)
}

func TestEncodeGCMap_offsetWidth(t *testing.T) {
	for _, tc := range []struct {
		offset uint32
		exp    byte
	}{
		{offset: 0xff, exp: 1},
		{offset: 0x100, exp: 2},
		{offset: 0xffff, exp: 2},
		{offset: 0x10000, exp: 3},
		{offset: 0x1000000, exp: 4},
	} {
		data := EncodeGCMap([]Safepoint{{NativeOffset: tc.offset}})
		require.Equal(t, tc.exp, data[0]&7, "%#x", tc.offset)
		m, err := ParseGCMap(data)
		require.NoError(t, err)
		off, refs := m.Entry(0)
		require.Equal(t, tc.offset, off)
		require.Empty(t, refs)
	}
}

func TestEncodeGCMap_random(t *testing.T) {
	f := gofakeit.New(7)
	expected := map[uint32][]byte{}
	var safepoints []Safepoint
	for i := 0; i < 500; i++ {
		sp := Safepoint{NativeOffset: uint32(f.Number(0, 70000))}
		if _, dup := expected[sp.NativeOffset]; dup {
			continue
		}
		sp.References = []byte{f.Uint8(), f.Uint8(), f.Uint8()}
		expected[sp.NativeOffset] = sp.References
		safepoints = append(safepoints, sp)
	}
	// Program order is not required to be sorted.
	for i := len(safepoints) - 1; i > 0; i-- {
		j := f.Number(0, i)
		safepoints[i], safepoints[j] = safepoints[j], safepoints[i]
	}

	m, err := ParseGCMap(EncodeGCMap(safepoints))
	require.NoError(t, err)
	require.Equal(t, len(expected), m.Len())
	require.Equal(t, 3, m.RegWidth())

	var offsets []uint32
	for off, refs := range expected {
		offsets = append(offsets, off)
		actual, ok := m.Lookup(off)
		require.True(t, ok, "%#x", off)
		require.Equal(t, refs, actual, "%#x", off)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	for i, exp := range offsets {
		off, _ := m.Entry(i)
		require.Equal(t, exp, off)
	}
}

func TestParseGCMap_errors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		data   []byte
		expErr string
	}{
		{name: "short", data: []byte{1, 2}, expErr: "GC map too short: 2 bytes"},
		{name: "offset width", data: []byte{0, 0, 0, 0}, expErr: "invalid native offset width 0"},
		{name: "size", data: []byte{0x09, 0, 1, 0, 4}, expErr: "GC map size 5, want 6"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseGCMap(tc.data)
			require.EqualError(t, err, tc.expErr)
		})
	}
}
