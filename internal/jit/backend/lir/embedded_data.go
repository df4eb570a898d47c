package lir

import "encoding/binary"

// EmbeddedDataKind is the kind of an EmbeddedData record.
type EmbeddedDataKind byte

const (
	// EmbeddedPackedSwitch is a table of displacements indexed by key - first key.
	EmbeddedPackedSwitch EmbeddedDataKind = iota
	// EmbeddedSparseSwitch is a table of sorted (key, displacement) pairs.
	EmbeddedSparseSwitch
	// EmbeddedFillArray is an array payload copied verbatim.
	EmbeddedFillArray
)

// EmbeddedData is a table laid out in the data region after the code.
type EmbeddedData struct {
	Kind EmbeddedDataKind

	// Offset is the position of the table from the start of the method.
	Offset int32

	// Anchor is the node switch displacements are relative to: a
	// displacement is Targets[i].Offset - (Anchor.Offset + 4).
	Anchor *Node

	// Keys holds the first key of a packed switch, or every key of a sparse one.
	Keys    []int32
	Targets []*Node

	// Payload is the fill-array data, header included.
	Payload []byte
}

// Size returns the size in bytes of the table.
func (d *EmbeddedData) Size() int32 {
	switch d.Kind {
	case EmbeddedPackedSwitch:
		return int32(4 * len(d.Targets))
	case EmbeddedSparseSwitch:
		return int32(8 * len(d.Targets))
	default:
		return int32(len(d.Payload)+1) &^ 1
	}
}

// NewFillArrayPayload builds the fill-array payload of count elements of
// width bytes each.
func NewFillArrayPayload(width uint16, data []byte) []byte {
	count := uint32(len(data)) / uint32(width)
	payload := make([]byte, 8, 8+len(data))
	binary.LittleEndian.PutUint16(payload[0:], 0x0300)
	binary.LittleEndian.PutUint16(payload[2:], width)
	binary.LittleEndian.PutUint32(payload[4:], count)
	return append(payload, data...)
}
