package backend

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/thumbjit/thumbjit/internal/jit/backend/regalloc"
	"github.com/thumbjit/thumbjit/internal/leb128"
)

const (
	// vmapEntryAdjustment keeps small vreg numbers clear of the marker.
	vmapEntryAdjustment = 3
	// vmapFPMarker separates the core entries from the FP ones. It sits in
	// the slot of lr, which is always spilled.
	vmapFPMarker = (0xffff + vmapEntryAdjustment) & 0xffff
)

// EncodeVMapTable lists the promoted virtual registers for the stack walker:
//
//	uleb128 number of entries, the marker included
//	uleb128 vreg+3 of each promoted core vreg, by physical register
//	uleb128 marker (2)
//	uleb128 vreg+3 of each promoted FP vreg, by physical register
//
// The position of an entry within its section is the index of its register
// in the spill mask.
func EncodeVMapTable(p *regalloc.Promotion) []byte {
	var core, fp []vmapEntry
	for vreg, loc := range p.Map {
		if loc.CoreReg != regalloc.InvalidReg {
			core = append(core, vmapEntry{reg: loc.CoreReg, vreg: uint32(vreg)})
		}
		if loc.FPReg != regalloc.InvalidReg {
			fp = append(fp, vmapEntry{reg: loc.FPReg, vreg: uint32(vreg)})
		}
	}
	sort.Slice(core, func(i, j int) bool { return core[i].reg < core[j].reg })
	sort.Slice(fp, func(i, j int) bool { return fp[i].reg < fp[j].reg })

	buf := leb128.EncodeUint32(nil, uint32(len(core)+len(fp)+1))
	for _, e := range core {
		buf = leb128.EncodeUint32(buf, (e.vreg+vmapEntryAdjustment)&0xffff)
	}
	buf = leb128.EncodeUint32(buf, vmapFPMarker)
	for _, e := range fp {
		buf = leb128.EncodeUint32(buf, (e.vreg+vmapEntryAdjustment)&0xffff)
	}
	return buf
}

type vmapEntry struct {
	reg  regalloc.Reg
	vreg uint32
}

// DecodeVMapTable is the inverse of EncodeVMapTable.
func DecodeVMapTable(table []byte) (core, fp []uint32, err error) {
	r := bytes.NewReader(table)
	n, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read the entry count: %w", err)
	}
	inFP := false
	for i := uint32(0); i < n; i++ {
		v, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read entry %d: %w", i, err)
		}
		switch {
		case v == vmapFPMarker && !inFP:
			inFP = true
		case inFP:
			fp = append(fp, v-vmapEntryAdjustment)
		default:
			core = append(core, v-vmapEntryAdjustment)
		}
	}
	if !inFP {
		return nil, nil, fmt.Errorf("missing FP marker")
	}
	return core, fp, nil
}
