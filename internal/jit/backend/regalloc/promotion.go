package regalloc

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/oleiade/lane"

	"github.com/thumbjit/thumbjit/internal/jit/jitapi"
)

// UseCount is the weighted number of uses of one virtual register, as
// computed by the dataflow pass (weights grow with loop nesting depth).
//
// A wide core value reports its low vreg and counts for both halves. A wide
// FP value is promoted as a whole into a double register.
type UseCount struct {
	SReg  int32
	Count int
	Wide  bool
	FP    bool
}

// PromotionLocation is the physical home of a virtual register for the whole
// method. InvalidReg means the value lives in its frame slot.
type PromotionLocation struct {
	CoreReg Reg
	FPReg   Reg
}

// Promotion is the result of DoPromotion.
type Promotion struct {
	// Map is indexed by virtual register number.
	Map []PromotionLocation

	// CoreSpillMask and FPSpillMask have one bit per hardware register number
	// of the promoted core and single-precision registers.
	CoreSpillMask, FPSpillMask uint32
}

// NumCoreSpills returns the number of promoted core registers.
func (p *Promotion) NumCoreSpills() int {
	return popcount(p.CoreSpillMask)
}

func popcount(v uint32) (n int) {
	for ; v != 0; v &= v - 1 {
		n++
	}
	return
}

const (
	promotionThreshold = 1
	// wideCandidate is or-ed into the tie-break key of double candidates so
	// that singles with equal counts come first.
	wideCandidate = 1 << 16
	// priorityShift leaves room for the tie-break key below the use count.
	priorityShift = 24
)

type candidate struct {
	sReg  int32
	count int
	wide  bool
}

// candidateQueue pops candidates by descending count, then ascending key.
type candidateQueue struct {
	q *lane.PQueue
}

func newCandidateQueue(counts []int, wideCounts []int) candidateQueue {
	q := lane.NewPQueue(lane.MAXPQ)
	for s, c := range counts {
		if c >= promotionThreshold {
			q.Push(candidate{sReg: int32(s), count: c}, c<<priorityShift-s)
		}
	}
	for s, c := range wideCounts {
		if c >= promotionThreshold {
			q.Push(candidate{sReg: int32(s), count: c, wide: true}, c<<priorityShift-(s|wideCandidate))
		}
	}
	return candidateQueue{q: q}
}

func (cq candidateQueue) pop() (candidate, bool) {
	if cq.q.Empty() {
		return candidate{}, false
	}
	v, _ := cq.q.Pop()
	return v.(candidate), true
}

// DoPromotion assigns callee-save registers to the most used virtual
// registers of the method. FP candidates are placed first, doubles and
// singles ordered together by count; core candidates follow. Equal counts
// are ordered by virtual register number so the result is reproducible.
func (p *Pool) DoPromotion(numRegs int, uses []UseCount) *Promotion {
	if numRegs >= wideCandidate {
		panic(fmt.Sprintf("BUG: too many virtual registers for promotion: %d", numRegs))
	}
	coreCounts := make([]int, numRegs+1)
	fpCounts := make([]int, numRegs+1)
	doubleCounts := make([]int, numRegs+1)
	for _, u := range uses {
		if u.SReg < 0 || int(u.SReg) >= numRegs {
			panic(fmt.Sprintf("BUG: use count for vreg %d out of [0, %d)", u.SReg, numRegs))
		}
		switch {
		case u.FP && u.Wide:
			doubleCounts[u.SReg] += u.Count
		case u.FP:
			fpCounts[u.SReg] += u.Count
		default:
			coreCounts[u.SReg] += u.Count
			if u.Wide {
				coreCounts[u.SReg+1] += u.Count
			}
		}
	}
	coreCounts, fpCounts, doubleCounts = coreCounts[:numRegs], fpCounts[:numRegs], doubleCounts[:numRegs]

	if jitapi.PrintPromotion {
		cfg := spew.ConfigState{Indent: " "}
		fmt.Printf("promotion counts core=%s fp=%s double=%s", cfg.Sdump(coreCounts), cfg.Sdump(fpCounts), cfg.Sdump(doubleCounts))
	}

	ret := &Promotion{Map: make([]PromotionLocation, numRegs)}
	for i := range ret.Map {
		ret.Map[i] = PromotionLocation{CoreReg: InvalidReg, FPReg: InvalidReg}
	}
	p.promotion = ret

	fq := newCandidateQueue(fpCounts, doubleCounts)
	for c, ok := fq.pop(); ok; c, ok = fq.pop() {
		if c.wide {
			if c.sReg+1 < int32(numRegs) && ret.Map[c.sReg].FPReg == InvalidReg && ret.Map[c.sReg+1].FPReg == InvalidReg {
				// A failed double may still leave room for singles.
				p.allocPreservedDouble(c.sReg)
			}
			continue
		}
		if ret.Map[c.sReg].FPReg != InvalidReg {
			continue
		}
		if !p.allocPreservedSingle(c.sReg).Valid() {
			break
		}
	}

	cq := newCandidateQueue(coreCounts, nil)
	for c, ok := cq.pop(); ok; c, ok = cq.pop() {
		if ret.Map[c.sReg].CoreReg != InvalidReg {
			continue
		}
		if !p.allocPreservedCore(c.sReg).Valid() {
			break
		}
	}

	if jitapi.PrintPromotion {
		fmt.Printf("promotion result: %s\n", spew.Sdump(ret))
	}
	return ret
}

func (p *Pool) allocPreservedCore(sReg int32) RegStorage {
	for _, info := range p.core {
		if !info.temp && !info.InUse() {
			info.markInUse()
			p.promotion.Map[sReg].CoreReg = info.reg
			p.promotion.CoreSpillMask |= 1 << uint(p.regNum(info.reg))
			return Solo(info.reg)
		}
	}
	return InvalidStorage
}

func (p *Pool) allocPreservedSingle(sReg int32) RegStorage {
	for _, info := range p.singles {
		if !info.temp && !info.InUse() {
			p.recordFPPromotion(sReg, info)
			return Solo(info.reg)
		}
	}
	return InvalidStorage
}

func (p *Pool) recordFPPromotion(sReg int32, info *RegisterInfo) {
	info.markInUse()
	p.promotion.Map[sReg].FPReg = info.reg
	p.promotion.FPSpillMask |= 1 << uint(p.regNum(info.reg))
}

// allocPreservedDouble promotes sReg and sReg+1 into the halves of one double.
func (p *Pool) allocPreservedDouble(sReg int32) RegStorage {
	for _, d := range p.doubles {
		if d.temp || d.InUse() {
			continue
		}
		lo, hi, ok := p.views(d)
		if !ok {
			continue
		}
		p.recordFPPromotion(sReg, lo)
		p.recordFPPromotion(sReg+1, hi)
		return Solo(d.reg)
	}
	return InvalidStorage
}

func (p *Pool) views(d *RegisterInfo) (lo, hi *RegisterInfo, ok bool) {
	for _, v := range d.unit.views {
		switch v.mask {
		case 0x1:
			lo = v
		case 0x2:
			hi = v
		}
	}
	return lo, hi, lo != nil && hi != nil
}

func (p *Pool) regNum(r Reg) int {
	if p.cfg.RegNum != nil {
		return p.cfg.RegNum(r)
	}
	return int(r)
}
