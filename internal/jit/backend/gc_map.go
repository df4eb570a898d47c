package backend

import (
	"fmt"
	"sort"

	"github.com/google/btree"
)

// gcMapHeaderSize is the size of the GC map header:
//
//	byte 0: native offset width in bytes (bits 0-2), low 5 bits of the bitmap width (bits 3-7)
//	byte 1: high 8 bits of the bitmap width
//	byte 2-3: number of entries, little endian
const gcMapHeaderSize = 4

type gcMapEntry struct {
	nativeOffset uint32
	references   []byte
}

// EncodeGCMap builds the native GC map of a method: for every safepoint,
// sorted by native offset, the offset followed by the reference bitmap.
// Safepoints sharing a native offset are merged.
func EncodeGCMap(safepoints []Safepoint) []byte {
	entries := btree.NewG[gcMapEntry](8, func(a, b gcMapEntry) bool {
		return a.nativeOffset < b.nativeOffset
	})
	var maxOffset uint32
	var regWidth int
	for _, sp := range safepoints {
		e := gcMapEntry{nativeOffset: sp.NativeOffset, references: append([]byte(nil), sp.References...)}
		if prev, ok := entries.Get(e); ok {
			e.references = mergeBitmaps(prev.references, e.references)
		}
		entries.ReplaceOrInsert(e)
		if sp.NativeOffset > maxOffset {
			maxOffset = sp.NativeOffset
		}
		if len(e.references) > regWidth {
			regWidth = len(e.references)
		}
	}
	count := entries.Len()
	if count > 0xffff {
		panic(fmt.Sprintf("BUG: too many safepoints for the GC map: %d", count))
	}
	if regWidth > 0x1fff {
		panic(fmt.Sprintf("BUG: reference bitmap too wide: %d bytes", regWidth))
	}

	offsetWidth := nativeOffsetWidth(maxOffset)
	buf := make([]byte, gcMapHeaderSize, gcMapHeaderSize+count*(offsetWidth+regWidth))
	buf[0] = byte(offsetWidth) | byte(regWidth<<3)
	buf[1] = byte(regWidth >> 5)
	buf[2] = byte(count)
	buf[3] = byte(count >> 8)
	entries.Ascend(func(e gcMapEntry) bool {
		for i := 0; i < offsetWidth; i++ {
			buf = append(buf, byte(e.nativeOffset>>(8*i)))
		}
		bitmap := make([]byte, regWidth)
		copy(bitmap, e.references)
		buf = append(buf, bitmap...)
		return true
	})
	return buf
}

func mergeBitmaps(a, b []byte) []byte {
	if len(a) < len(b) {
		a, b = b, a
	}
	ret := append([]byte(nil), a...)
	for i := range b {
		ret[i] |= b[i]
	}
	return ret
}

func nativeOffsetWidth(maxOffset uint32) int {
	switch {
	case maxOffset <= 0xff:
		return 1
	case maxOffset <= 0xffff:
		return 2
	case maxOffset <= 0xffffff:
		return 3
	}
	return 4
}

// GCMap is a read-only view over an encoded GC map.
type GCMap struct {
	data                  []byte
	offsetWidth, regWidth int
	count                 int
}

// ParseGCMap validates the header of an encoded GC map.
func ParseGCMap(data []byte) (*GCMap, error) {
	if len(data) < gcMapHeaderSize {
		return nil, fmt.Errorf("GC map too short: %d bytes", len(data))
	}
	m := &GCMap{
		data:        data,
		offsetWidth: int(data[0] & 7),
		regWidth:    int(data[0]>>3) | int(data[1])<<5,
		count:       int(data[2]) | int(data[3])<<8,
	}
	if m.offsetWidth == 0 || m.offsetWidth > 4 {
		return nil, fmt.Errorf("invalid native offset width %d", m.offsetWidth)
	}
	if want := gcMapHeaderSize + m.count*m.entrySize(); len(data) != want {
		return nil, fmt.Errorf("GC map size %d, want %d", len(data), want)
	}
	return m, nil
}

// Len returns the number of entries.
func (m *GCMap) Len() int { return m.count }

// RegWidth returns the size in bytes of every reference bitmap.
func (m *GCMap) RegWidth() int { return m.regWidth }

func (m *GCMap) entrySize() int { return m.offsetWidth + m.regWidth }

// Entry returns the native offset and reference bitmap of entry i.
func (m *GCMap) Entry(i int) (nativeOffset uint32, references []byte) {
	e := m.data[gcMapHeaderSize+i*m.entrySize():]
	for b := 0; b < m.offsetWidth; b++ {
		nativeOffset |= uint32(e[b]) << (8 * b)
	}
	return nativeOffset, e[m.offsetWidth:m.entrySize()]
}

// Lookup returns the reference bitmap of the safepoint at nativeOffset.
func (m *GCMap) Lookup(nativeOffset uint32) (references []byte, ok bool) {
	i := sort.Search(m.count, func(i int) bool {
		off, _ := m.Entry(i)
		return off >= nativeOffset
	})
	if i == m.count {
		return nil, false
	}
	off, refs := m.Entry(i)
	if off != nativeOffset {
		return nil, false
	}
	return refs, true
}
