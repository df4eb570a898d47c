package backend

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
)

func TestEncodeMappingTable(t *testing.T) {
	safepoints := []Safepoint{
		{NativeOffset: 6, DexPC: 3},
		{NativeOffset: 20, DexPC: 1},
	}
	exported := []ExportedPC{{DexPC: 7, NativeOffset: 2}}

	table := EncodeMappingTable(safepoints, exported)
	require.Equal(t, []byte{
		0x03, 0x02, // total, pc-to-dex
		0x06, 0x03, // +6, +3
		0x0e, 0x7e, // +14, -2
		0x02, 0x07, // +2, +7
	}, table)

	decoded, err := DecodeMappingTable(table)
	require.NoError(t, err)
	require.Equal(t, []ExportedPC{{DexPC: 3, NativeOffset: 6}, {DexPC: 1, NativeOffset: 20}}, decoded.PCToDex)
	require.Equal(t, exported, decoded.DexToPC)
}

func TestEncodeMappingTable_empty(t *testing.T) {
	table := EncodeMappingTable(nil, nil)
	require.Equal(t, []byte{0, 0}, table)
	decoded, err := DecodeMappingTable(table)
	require.NoError(t, err)
	require.Nil(t, decoded.PCToDex)
	require.Nil(t, decoded.DexToPC)
}

func TestEncodeMappingTable_outOfOrder(t *testing.T) {
	require.Panics(t, func() {
		EncodeMappingTable([]Safepoint{{NativeOffset: 8}, {NativeOffset: 4}}, nil)
	})
}

func TestEncodeMappingTable_random(t *testing.T) {
	f := gofakeit.New(42)
	var safepoints []Safepoint
	var exported []ExportedPC
	var native uint32
	for i := 0; i < 100; i++ {
		native += uint32(f.Number(0, 300))
		dex := uint32(f.Number(0, 1<<16))
		if f.Bool() {
			safepoints = append(safepoints, Safepoint{NativeOffset: native, DexPC: dex})
		} else {
			exported = append(exported, ExportedPC{NativeOffset: native, DexPC: dex})
		}
	}

	decoded, err := DecodeMappingTable(EncodeMappingTable(safepoints, exported))
	require.NoError(t, err)
	require.Equal(t, len(safepoints), len(decoded.PCToDex))
	for i, sp := range safepoints {
		require.Equal(t, ExportedPC{DexPC: sp.DexPC, NativeOffset: sp.NativeOffset}, decoded.PCToDex[i])
	}
	require.Equal(t, exported, decoded.DexToPC)
}

func TestDecodeMappingTable_errors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		table  []byte
		expErr string
	}{
		{name: "empty", table: nil, expErr: "failed to read the entry count: readByte failed: EOF"},
		{name: "no pc-to-dex count", table: []byte{1}, expErr: "failed to read the pc-to-dex count: readByte failed: EOF"},
		{name: "count mismatch", table: []byte{1, 2}, expErr: "pc-to-dex count 2 exceeds total 1"},
		{name: "truncated entry", table: []byte{1, 1, 4}, expErr: "failed to read dex delta of entry 0: readByte failed: EOF"},
		{name: "missing entry", table: []byte{1, 1}, expErr: "failed to read native delta of entry 0: readByte failed: EOF"},
		{name: "trailing", table: []byte{1, 1, 4, 4, 0}, expErr: "1 trailing bytes"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeMappingTable(tc.table)
			require.EqualError(t, err, tc.expErr)
		})
	}
}
