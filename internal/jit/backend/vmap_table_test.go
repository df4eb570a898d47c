package backend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thumbjit/thumbjit/internal/jit/backend/regalloc"
)

func TestEncodeVMapTable(t *testing.T) {
	none := regalloc.InvalidReg
	p := &regalloc.Promotion{Map: []regalloc.PromotionLocation{
		{CoreReg: 6, FPReg: none},
		{CoreReg: 5, FPReg: none},
		{CoreReg: none, FPReg: 40},
		{CoreReg: none, FPReg: none},
	}}
	table := EncodeVMapTable(p)
	// Core entries are ordered by register: r5 holds vreg 1, then r6 vreg 0.
	require.Equal(t, []byte{0x04, 0x04, 0x03, 0x02, 0x05}, table)

	core, fp, err := DecodeVMapTable(table)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 0}, core)
	require.Equal(t, []uint32{2}, fp)
}

func TestEncodeVMapTable_empty(t *testing.T) {
	table := EncodeVMapTable(&regalloc.Promotion{})
	require.Equal(t, []byte{0x01, 0x02}, table)
	core, fp, err := DecodeVMapTable(table)
	require.NoError(t, err)
	require.Nil(t, core)
	require.Nil(t, fp)
}

func TestDecodeVMapTable_errors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		table  []byte
		expErr string
	}{
		{name: "empty", table: nil, expErr: "failed to read the entry count: readByte failed: EOF"},
		{name: "truncated", table: []byte{0x02, 0x02}, expErr: "failed to read entry 1: readByte failed: EOF"},
		{name: "no marker", table: []byte{0x01, 0x05}, expErr: "missing FP marker"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := DecodeVMapTable(tc.table)
			require.EqualError(t, err, tc.expErr)
		})
	}
}
