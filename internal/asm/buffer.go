// Package asm holds the output buffer shared by the instruction encoders.
package asm

import "encoding/binary"

// Buffer is a growable, heap-backed byte sink for one compiled method.
//
// The layout of a finished buffer is the instruction stream followed by the
// data region (literal pool, switch tables, fill-array payloads). The runtime
// loader copies it into executable memory, so Buffer never maps pages itself.
//
// The zero value is an empty buffer ready for use.
type Buffer struct {
	code []byte
}

// NewBuffer returns a Buffer whose backing array has room for size bytes.
func NewBuffer(size int) *Buffer {
	return &Buffer{code: make([]byte, 0, size)}
}

// Len returns the number of bytes written so far.
func (buf *Buffer) Len() int {
	return len(buf.code)
}

// Bytes returns the bytes written so far. The slice is only valid until the
// next write.
func (buf *Buffer) Bytes() []byte {
	return buf.code
}

// Reset discards the content while keeping the backing array.
func (buf *Buffer) Reset() {
	buf.code = buf.code[:0]
}

// Truncate shrinks the buffer to n bytes.
func (buf *Buffer) Truncate(n int) {
	buf.code = buf.code[:n]
}

// Append grows the buffer by n zero bytes and returns them for in-place writes.
func (buf *Buffer) Append(n int) []byte {
	i := len(buf.code)
	j := i + n
	if j > cap(buf.code) {
		buf.grow(n)
	}
	buf.code = buf.code[:j]
	b := buf.code[i:j:j]
	for k := range b {
		b[k] = 0
	}
	return b
}

// PadTo appends zero bytes until the length reaches offset.
func (buf *Buffer) PadTo(offset int) {
	if n := offset - len(buf.code); n > 0 {
		buf.Append(n)
	}
}

// WriteBytes appends b as is.
func (buf *Buffer) WriteBytes(b []byte) {
	buf.code = append(buf.code, b...)
}

// WriteUint16 writes one 16-bit Thumb instruction unit, little-endian.
func (buf *Buffer) WriteUint16(u uint16) {
	binary.LittleEndian.PutUint16(buf.Append(2), u)
}

// WriteUint32 writes a little-endian data word.
func (buf *Buffer) WriteUint32(u uint32) {
	binary.LittleEndian.PutUint32(buf.Append(4), u)
}

// WriteThumb2 writes a 32-bit Thumb2 instruction. The leading halfword (bits
// 31:16) goes first, each halfword little-endian.
func (buf *Buffer) WriteThumb2(bits uint32) {
	buf.Write4Bytes(byte(bits>>16), byte(bits>>24), byte(bits), byte(bits>>8))
}

func (buf *Buffer) Write4Bytes(a, b, c, d byte) {
	buf.code = append(buf.code, a, b, c, d)
}

func (buf *Buffer) grow(n int) {
	size := cap(buf.code)
	want := len(buf.code) + n
	if size == 0 {
		size = 1024
	}
	for size < want {
		size *= 2
	}
	b := make([]byte, len(buf.code), size)
	copy(b, buf.code)
	buf.code = b
}
