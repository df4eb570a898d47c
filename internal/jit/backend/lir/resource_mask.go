package lir

import (
	"fmt"
	"math/bits"
	"strings"
)

// ResourceMask is a 128-bit set of machine resources read or written by a
// node. Bits below ResourceArchEnd belong to the target (registers); the
// bits above are shared by every target.
type ResourceMask struct {
	lo, hi uint64
}

// Shared resource bits.
const (
	ResourceArchEnd      = 120
	ResourceFPStatus     = 121
	ResourceCCode        = 122
	ResourceDalvikReg    = 123
	ResourceLiteral      = 124
	ResourceHeapRef      = 125
	ResourceMustNotAlias = 126
)

var (
	EncodeNone         = ResourceMask{}
	EncodeAll          = ResourceMask{lo: ^uint64(0), hi: ^uint64(0)}
	EncodeDalvikReg    = Bit(ResourceDalvikReg)
	EncodeLiteral      = Bit(ResourceLiteral)
	EncodeHeapRef      = Bit(ResourceHeapRef)
	EncodeMustNotAlias = Bit(ResourceMustNotAlias)
	EncodeMem          = EncodeDalvikReg.Union(EncodeLiteral).Union(EncodeHeapRef).Union(EncodeMustNotAlias)
)

// Bit returns the mask with only bit n set.
func Bit(n int) ResourceMask {
	if n < 64 {
		return ResourceMask{lo: 1 << uint(n)}
	}
	return ResourceMask{hi: 1 << uint(n-64)}
}

// Bits returns the mask of the count bits starting at n.
func Bits(n, count int) (ret ResourceMask) {
	for i := 0; i < count; i++ {
		ret = ret.Union(Bit(n + i))
	}
	return
}

// RawMask returns the mask whose low 64 bits are lo.
func RawMask(lo uint64) ResourceMask {
	return ResourceMask{lo: lo}
}

// Union returns m | o.
func (m ResourceMask) Union(o ResourceMask) ResourceMask {
	return ResourceMask{lo: m.lo | o.lo, hi: m.hi | o.hi}
}

// Intersection returns m & o.
func (m ResourceMask) Intersection(o ResourceMask) ResourceMask {
	return ResourceMask{lo: m.lo & o.lo, hi: m.hi & o.hi}
}

// Without returns m &^ o.
func (m ResourceMask) Without(o ResourceMask) ResourceMask {
	return ResourceMask{lo: m.lo &^ o.lo, hi: m.hi &^ o.hi}
}

// Intersects returns true if m and o share at least one bit.
func (m ResourceMask) Intersects(o ResourceMask) bool {
	return m.lo&o.lo != 0 || m.hi&o.hi != 0
}

// HasBit returns true if bit n is set.
func (m ResourceMask) HasBit(n int) bool {
	return m.Intersects(Bit(n))
}

// IsEmpty returns true if no bit is set.
func (m ResourceMask) IsEmpty() bool {
	return m.lo == 0 && m.hi == 0
}

// SetBit sets bit n in place.
func (m *ResourceMask) SetBit(n int) {
	*m = m.Union(Bit(n))
}

// SetBits adds o in place.
func (m *ResourceMask) SetBits(o ResourceMask) {
	*m = m.Union(o)
}

// ClearBits removes o in place.
func (m *ResourceMask) ClearBits(o ResourceMask) {
	*m = m.Without(o)
}

// Low returns the target-owned low 64 bits.
func (m ResourceMask) Low() uint64 {
	return m.lo
}

// String implements fmt.Stringer.
func (m ResourceMask) String() string {
	switch m {
	case EncodeNone:
		return "none"
	case EncodeAll:
		return "all"
	}
	var parts []string
	for lo := m.lo; lo != 0; lo &= lo - 1 {
		parts = append(parts, fmt.Sprintf("%d", bits.TrailingZeros64(lo)))
	}
	for _, b := range [...]struct {
		bit  int
		name string
	}{
		{ResourceFPStatus, "fpstatus"},
		{ResourceCCode, "ccode"},
		{ResourceDalvikReg, "dalvik"},
		{ResourceLiteral, "literal"},
		{ResourceHeapRef, "heap"},
		{ResourceMustNotAlias, "noalias"},
	} {
		if m.HasBit(b.bit) {
			parts = append(parts, b.name)
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// MaskCache interns resource masks so that nodes with equal masks share one
// immutable value.
type MaskCache struct {
	masks map[ResourceMask]*ResourceMask
}

var (
	encodeNone = EncodeNone
	encodeAll  = EncodeAll
)

// NewMaskCache returns an empty cache.
func NewMaskCache() *MaskCache {
	return &MaskCache{masks: map[ResourceMask]*ResourceMask{}}
}

// Get returns the interned copy of m.
func (c *MaskCache) Get(m ResourceMask) *ResourceMask {
	switch m {
	case EncodeNone:
		return &encodeNone
	case EncodeAll:
		return &encodeAll
	}
	if p, ok := c.masks[m]; ok {
		return p
	}
	p := new(ResourceMask)
	*p = m
	c.masks[m] = p
	return p
}

// Len returns the number of interned masks, not counting none and all.
func (c *MaskCache) Len() int {
	return len(c.masks)
}

// Reset drops every interned mask.
func (c *MaskCache) Reset() {
	for k := range c.masks {
		delete(c.masks, k)
	}
}
