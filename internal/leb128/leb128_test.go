package leb128

import (
	"bytes"
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
)

func TestEncodeUint32(t *testing.T) {
	for _, c := range []struct {
		input    uint32
		expected []byte
	}{
		{input: 0, expected: []byte{0x00}},
		{input: 1, expected: []byte{0x01}},
		{input: 4, expected: []byte{0x04}},
		{input: 16256, expected: []byte{0x80, 0x7f}},
		{input: 624485, expected: []byte{0xe5, 0x8e, 0x26}},
		{input: 165675008, expected: []byte{0x80, 0x80, 0x80, 0x4f}},
		{input: math.MaxUint32, expected: []byte{0xff, 0xff, 0xff, 0xff, 0xf}},
	} {
		require.Equal(t, c.expected, EncodeUint32(nil, c.input))
		require.Equal(t, len(c.expected), SizeUint32(c.input))
	}
}

func TestEncodeInt32(t *testing.T) {
	for _, c := range []struct {
		input    int32
		expected []byte
	}{
		{input: 0, expected: []byte{0x00}},
		{input: 1, expected: []byte{0x01}},
		{input: 4, expected: []byte{0x04}},
		{input: 127, expected: []byte{0xff, 0x00}},
		{input: 129, expected: []byte{0x81, 0x01}},
		{input: -1, expected: []byte{0x7f}},
		{input: -64, expected: []byte{0x40}},
		{input: -127, expected: []byte{0x81, 0x7f}},
		{input: -129, expected: []byte{0xff, 0x7e}},
		{input: math.MinInt32, expected: []byte{0x80, 0x80, 0x80, 0x80, 0x78}},
	} {
		require.Equal(t, c.expected, EncodeInt32(nil, c.input))
	}
}

func TestDecodeUint32(t *testing.T) {
	for _, c := range []struct {
		bytes []byte
		exp   uint32
	}{
		{bytes: []byte{0x04}, exp: 4},
		{bytes: []byte{0x80, 0x7f}, exp: 16256},
		{bytes: []byte{0xe5, 0x8e, 0x26}, exp: 624485},
		{bytes: []byte{0x80, 0x80, 0x80, 0x4f}, exp: 165675008},
		{bytes: []byte{0x89, 0x80, 0x80, 0x80, 0x01}, exp: 268435465},
	} {
		actual, num, err := DecodeUint32(bytes.NewReader(c.bytes))
		require.NoError(t, err)
		require.Equal(t, c.exp, actual)
		require.Equal(t, uint64(len(c.bytes)), num)
	}
}

func TestDecodeInt32(t *testing.T) {
	for _, c := range []struct {
		bytes []byte
		exp   int32
	}{
		{bytes: []byte{0x00}, exp: 0},
		{bytes: []byte{0x04}, exp: 4},
		{bytes: []byte{0xFF, 0x00}, exp: 127},
		{bytes: []byte{0x81, 0x01}, exp: 129},
		{bytes: []byte{0x7f}, exp: -1},
		{bytes: []byte{0x81, 0x7f}, exp: -127},
		{bytes: []byte{0xFF, 0x7e}, exp: -129},
	} {
		actual, num, err := DecodeInt32(bytes.NewReader(c.bytes))
		require.NoError(t, err)
		require.Equal(t, c.exp, actual)
		require.Equal(t, uint64(len(c.bytes)), num)
	}
}

func TestDecode_truncated(t *testing.T) {
	_, _, err := DecodeUint32(bytes.NewReader([]byte{0x80}))
	require.Error(t, err)
	_, _, err = DecodeInt32(bytes.NewReader(nil))
	require.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	f := gofakeit.New(1)
	var buf []byte
	var us []uint32
	var ss []int32
	for i := 0; i < 200; i++ {
		u, s := f.Uint32(), f.Int32()
		us, ss = append(us, u), append(ss, s)
		buf = EncodeUint32(buf, u)
		buf = EncodeInt32(buf, s)
	}
	r := bytes.NewReader(buf)
	for i := range us {
		u, _, err := DecodeUint32(r)
		require.NoError(t, err)
		require.Equal(t, us[i], u)
		s, _, err := DecodeInt32(r)
		require.NoError(t, err)
		require.Equal(t, ss[i], s)
	}
	require.Zero(t, r.Len())
}
