package backend

import (
	"bytes"
	"fmt"

	"github.com/thumbjit/thumbjit/internal/leb128"
)

// EncodeMappingTable builds the pc mapping table of a method.
//
// The layout is:
//
//	uleb128 total number of entries
//	uleb128 number of pc-to-dex entries
//	pc-to-dex entries: uleb128 native offset delta, sleb128 dex pc delta
//	dex-to-pc entries: uleb128 native offset delta, sleb128 dex pc delta
//
// Deltas are relative to the previous entry of the same list, starting from zero.
// pc-to-dex entries come from safepoints and dex-to-pc entries from exported pcs.
func EncodeMappingTable(safepoints []Safepoint, exported []ExportedPC) []byte {
	total := uint32(len(safepoints) + len(exported))
	buf := leb128.EncodeUint32(nil, total)
	buf = leb128.EncodeUint32(buf, uint32(len(safepoints)))

	var nativeOffset uint32
	var dexPC int32
	for _, sp := range safepoints {
		buf = appendMappingEntry(buf, sp.NativeOffset, sp.DexPC, &nativeOffset, &dexPC)
	}
	nativeOffset, dexPC = 0, 0
	for _, e := range exported {
		buf = appendMappingEntry(buf, e.NativeOffset, e.DexPC, &nativeOffset, &dexPC)
	}
	return buf
}

func appendMappingEntry(buf []byte, native, dex uint32, prevNative *uint32, prevDex *int32) []byte {
	if native < *prevNative {
		panic(fmt.Sprintf("BUG: mapping table entries out of order: %#x after %#x", native, *prevNative))
	}
	buf = leb128.EncodeUint32(buf, native-*prevNative)
	buf = leb128.EncodeInt32(buf, int32(dex)-*prevDex)
	*prevNative, *prevDex = native, int32(dex)
	return buf
}

// MappingTable is a decoded pc mapping table.
type MappingTable struct {
	PCToDex []ExportedPC
	DexToPC []ExportedPC
}

// DecodeMappingTable is the inverse of EncodeMappingTable.
func DecodeMappingTable(table []byte) (*MappingTable, error) {
	r := bytes.NewReader(table)
	total, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read the entry count: %w", err)
	}
	pcToDex, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read the pc-to-dex count: %w", err)
	}
	if pcToDex > total {
		return nil, fmt.Errorf("pc-to-dex count %d exceeds total %d", pcToDex, total)
	}

	ret := &MappingTable{}
	var nativeOffset uint32
	var dexPC int32
	for i := uint32(0); i < total; i++ {
		if i == pcToDex {
			nativeOffset, dexPC = 0, 0
		}
		nativeDelta, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read native delta of entry %d: %w", i, err)
		}
		dexDelta, _, err := leb128.DecodeInt32(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read dex delta of entry %d: %w", i, err)
		}
		nativeOffset += nativeDelta
		dexPC += dexDelta
		e := ExportedPC{DexPC: uint32(dexPC), NativeOffset: nativeOffset}
		if i < pcToDex {
			ret.PCToDex = append(ret.PCToDex, e)
		} else {
			ret.DexToPC = append(ret.DexToPC, e)
		}
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", r.Len())
	}
	return ret, nil
}
