package regalloc

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/thumbjit/thumbjit/internal/jit/jitapi"
)

// PoolConfig describes the register files of a target.
//
// Registers absent from every list (stack pointer, thread register, ...) are
// never touched by the pool. Registers listed but not in the matching *Temps
// list are callee-save and only handed out by promotion.
type PoolConfig struct {
	Core, CoreTemps      []Reg
	Singles, SingleTemps []Reg
	Doubles, DoubleTemps []Reg

	// DoubleViews returns the single registers overlapping the low and high
	// halves of double d. ok is false when d has no single views.
	DoubleViews func(d Reg) (lo, hi Reg, ok bool)

	// RegNum returns the hardware number of r within its register file.
	RegNum func(r Reg) int

	// Name returns the assembler name of r.
	Name func(r Reg) string
}

// Spiller writes a register back to the frame home of a virtual register.
type Spiller interface {
	// FlushToHome stores reg into the home slot of sReg. wide stores 64 bits.
	FlushToHome(sReg int32, reg RegStorage, wide bool)
}

// Pool is the register pool of one compilation unit.
type Pool struct {
	cfg     PoolConfig
	spiller Spiller

	infos                  map[Reg]*RegisterInfo
	core, singles, doubles []*RegisterInfo

	// temps lists every temporary view, core first.
	temps []*RegisterInfo

	nextCore, nextSingle, nextDouble int

	promotion *Promotion
}

// NewPool builds the pool described by cfg. spiller may be nil if FlushReg is never called.
func NewPool(cfg PoolConfig, spiller Spiller) *Pool {
	p := &Pool{cfg: cfg, spiller: spiller, infos: map[Reg]*RegisterInfo{}}
	p.core = p.newRegs(cfg.Core, cfg.CoreTemps, ClassCore)
	p.singles = p.newRegs(cfg.Singles, cfg.SingleTemps, ClassSingle)
	p.doubles = p.newRegs(cfg.Doubles, cfg.DoubleTemps, ClassDouble)
	if cfg.DoubleViews != nil {
		for _, d := range p.doubles {
			lo, hi, ok := cfg.DoubleViews(d.reg)
			if !ok {
				continue
			}
			d.unit.live, d.unit.used = 0, 0
			d.mask = 0x3
			p.getInfo(lo).aliasOnto(d, 0x1)
			p.getInfo(hi).aliasOnto(d, 0x2)
		}
	}
	for _, list := range [][]*RegisterInfo{p.core, p.singles, p.doubles} {
		for _, info := range list {
			if info.temp {
				p.temps = append(p.temps, info)
			}
		}
	}
	return p
}

func (p *Pool) newRegs(all, temps []Reg, class RegClass) []*RegisterInfo {
	ret := make([]*RegisterInfo, 0, len(all))
	for _, r := range all {
		info := newRegisterInfo(r, class)
		p.infos[r] = info
		ret = append(ret, info)
	}
	for _, r := range temps {
		p.getInfo(r).temp = true
	}
	return ret
}

// RegisterInfo returns the state of r.
func (p *Pool) RegisterInfo(r Reg) *RegisterInfo {
	return p.getInfo(r)
}

func (p *Pool) getInfo(r Reg) *RegisterInfo {
	info, ok := p.infos[r]
	if !ok {
		panic(fmt.Sprintf("BUG: register %d is not managed by the pool", r))
	}
	return info
}

func (p *Pool) name(r Reg) string {
	if p.cfg.Name != nil {
		return p.cfg.Name(r)
	}
	return fmt.Sprint(int32(r))
}

// AllocTemp allocates a core temporary. If required is set and none is free, AllocTemp panics.
func (p *Pool) AllocTemp(required bool) RegStorage {
	return p.allocTempBody(p.core, &p.nextCore, required)
}

// AllocTempRef allocates a core temporary that will hold an object reference.
func (p *Pool) AllocTempRef(required bool) RegStorage {
	return p.allocTempBody(p.core, &p.nextCore, required)
}

// AllocTempSingle allocates a single-precision temporary.
func (p *Pool) AllocTempSingle(required bool) RegStorage {
	return p.allocTempBody(p.singles, &p.nextSingle, required)
}

// AllocTempDouble allocates a double-precision temporary.
func (p *Pool) AllocTempDouble(required bool) RegStorage {
	return p.allocTempBody(p.doubles, &p.nextDouble, required)
}

// AllocTempWide allocates a pair of core temporaries for a 64-bit value.
// Wideness is set by the caller through MarkWide.
func (p *Pool) AllocTempWide(required bool) RegStorage {
	low := p.AllocTemp(required)
	if !low.Valid() {
		return InvalidStorage
	}
	high := p.AllocTemp(required)
	if !high.Valid() {
		p.FreeTemp(low)
		return InvalidStorage
	}
	return Pair(low.Reg(), high.Reg())
}

func (p *Pool) allocTempBody(regs []*RegisterInfo, nextTemp *int, required bool) RegStorage {
	num := len(regs)
	next := *nextTemp
	// First look for a temp that is free and holds nothing worth keeping.
	for i := 0; i < num; i++ {
		if next >= num {
			next = 0
		}
		info := regs[next]
		if info.temp && !info.InUse() && info.IsDead() {
			p.Clobber(Solo(info.reg))
			info.markInUse()
			info.wide = false
			*nextTemp = next + 1
			return Solo(info.reg)
		}
		next++
	}
	next = *nextTemp
	// Then evict a cached value.
	for i := 0; i < num; i++ {
		if next >= num {
			next = 0
		}
		info := regs[next]
		if info.temp && !info.InUse() {
			if jitapi.RegAllocLoggingEnabled {
				fmt.Printf("evicting v%d from %s\n", info.sReg, p.name(info.reg))
			}
			p.ClobberSReg(info.sReg)
			p.Clobber(Solo(info.reg))
			info.markInUse()
			if info.wide {
				partner := p.getInfo(info.partner)
				info.wide = false
				partner.wide = false
			}
			*nextTemp = next + 1
			return Solo(info.reg)
		}
		next++
	}
	if required {
		panic("BUG: no free temp registers\n" + p.Dump())
	}
	return InvalidStorage
}

// FreeTemp returns a temporary to the pool. Non-temporary registers are left alone.
func (p *Pool) FreeTemp(s RegStorage) {
	if s.IsPair() {
		p.FreeTemp(Solo(s.low))
		p.FreeTemp(Solo(s.high))
		return
	}
	info := p.getInfo(s.Reg())
	if info.temp {
		info.markFree()
		info.wide = false
		info.partner = info.reg
	}
}

// LockTemp reserves a specific temporary, evicting whatever it cached.
func (p *Pool) LockTemp(r Reg) {
	info := p.getInfo(r)
	if !info.temp {
		panic(fmt.Sprintf("BUG: LockTemp on non-temp register %s", p.name(r)))
	}
	p.ClobberSReg(info.sReg)
	p.Clobber(Solo(r))
	info.markInUse()
}

// IsTemp returns true if r is a temporary register.
func (p *Pool) IsTemp(r Reg) bool {
	return p.getInfo(r).temp
}

// IsPromoted returns true if r is a callee-save register claimed by promotion.
func (p *Pool) IsPromoted(r Reg) bool {
	info := p.getInfo(r)
	return !info.temp && info.InUse()
}

// IsLive returns true if r caches a virtual register.
func (p *Pool) IsLive(r Reg) bool {
	return p.getInfo(r).IsLive()
}

// IsDirty returns true if r has not been written back to its home.
func (p *Pool) IsDirty(s RegStorage) bool {
	if s.IsPair() {
		return p.getInfo(s.low).dirty || p.getInfo(s.high).dirty
	}
	return p.getInfo(s.Reg()).dirty
}

// Clobber invalidates whatever s caches, together with its pair partner and
// every register view sharing its storage.
func (p *Pool) Clobber(s RegStorage) {
	if s.IsPair() {
		p.Clobber(Solo(s.low))
		p.Clobber(Solo(s.high))
		return
	}
	info := p.getInfo(s.Reg())
	if !info.temp || info.IsDead() {
		return
	}
	if info.partner != info.reg {
		p.clobberBody(p.getInfo(info.partner))
	}
	p.clobberBody(info)
	master := info.unit.master
	if info != master {
		p.clobberBody(master)
	}
	p.clobberAliases(master, info.mask)
}

func (p *Pool) clobberAliases(master *RegisterInfo, mask uint32) {
	for _, alias := range master.unit.views {
		if alias != master && alias.mask&mask != 0 {
			p.clobberBody(alias)
		}
	}
}

func (p *Pool) clobberBody(info *RegisterInfo) {
	if !info.temp {
		return
	}
	if jitapi.RegAllocValidationEnabled && info.IsLive() && info.dirty && info.sReg != InvalidSReg {
		panic(fmt.Sprintf("BUG: live and dirty temp %s clobbered\n%s", p.name(info.reg), p.Dump()))
	}
	info.markDead()
	info.dirty = false
	if info.wide {
		info.wide = false
		if info.partner != info.reg {
			partner := p.getInfo(info.partner)
			partner.wide = false
			partner.markDead()
		}
	}
}

// ClobberSReg drops every cached copy of sReg. A single virtual register may
// be cached in several views, so all register files are scanned.
func (p *Pool) ClobberSReg(sReg int32) {
	if sReg == InvalidSReg {
		return
	}
	for _, list := range [][]*RegisterInfo{p.core, p.singles, p.doubles} {
		for _, info := range list {
			if info.sReg == sReg || info.wide && info.partner != info.reg && p.getInfo(info.partner).sReg == sReg {
				if info.temp {
					info.markDead()
				}
				info.sReg = InvalidSReg
			}
		}
	}
}

// ClobberAllTemps forgets every cached value without writing anything back.
func (p *Pool) ClobberAllTemps() {
	for _, info := range p.temps {
		p.clobberBody(info)
	}
}

// MarkInUse marks s allocated.
func (p *Pool) MarkInUse(s RegStorage) {
	if s.IsPair() {
		p.getInfo(s.low).markInUse()
		p.getInfo(s.high).markInUse()
		return
	}
	p.getInfo(s.Reg()).markInUse()
}

// MarkWide records that s holds a 64-bit value.
func (p *Pool) MarkWide(s RegStorage) {
	if s.IsPair() {
		lo, hi := p.getInfo(s.low), p.getInfo(s.high)
		// Unpair any previous partners first.
		if lo.wide && lo.partner != hi.reg {
			p.getInfo(lo.partner).wide = false
		}
		if hi.wide && hi.partner != lo.reg {
			p.getInfo(hi.partner).wide = false
		}
		lo.wide, hi.wide = true, true
		lo.partner, hi.partner = hi.reg, lo.reg
		return
	}
	info := p.getInfo(s.Reg())
	if info.class != ClassDouble {
		panic(fmt.Sprintf("BUG: MarkWide on 32-bit register %s", p.name(info.reg)))
	}
	info.wide = true
	info.partner = info.reg
}

// MarkNarrow records that s holds a 32-bit value.
func (p *Pool) MarkNarrow(s RegStorage) {
	if s.IsPair() {
		panic("BUG: MarkNarrow on a register pair")
	}
	info := p.getInfo(s.Reg())
	info.wide = false
	info.partner = info.reg
}

// MarkLive binds the register(s) of loc to loc.SReg.
func (p *Pool) MarkLive(loc Location) {
	s := loc.Reg
	if !p.isTempStorage(s) {
		return
	}
	if loc.SReg == InvalidSReg {
		if s.IsPair() {
			p.getInfo(s.low).markDead()
			p.getInfo(s.high).markDead()
		} else {
			p.getInfo(s.Reg()).markDead()
		}
		return
	}
	if s.IsPair() {
		lo, hi := p.getInfo(s.low), p.getInfo(s.high)
		if lo.IsLive() && lo.sReg == loc.SReg && hi.IsLive() && hi.sReg == loc.SReg+1 {
			return
		}
		p.ClobberSReg(loc.SReg)
		p.ClobberSReg(loc.SReg + 1)
		lo.markLive(loc.SReg)
		hi.markLive(loc.SReg + 1)
	} else {
		info := p.getInfo(s.Reg())
		if info.IsLive() && info.sReg == loc.SReg {
			return
		}
		p.ClobberSReg(loc.SReg)
		if loc.Wide {
			p.ClobberSReg(loc.SReg + 1)
		}
		// Views overlapping the same storage no longer hold their values.
		for _, v := range info.unit.views {
			if v != info && v.mask&info.mask != 0 {
				v.markDead()
				v.wide = false
			}
		}
		info.markLive(loc.SReg)
	}
	if loc.Wide {
		p.MarkWide(s)
	} else {
		p.MarkNarrow(s)
	}
}

func (p *Pool) isTempStorage(s RegStorage) bool {
	if s.IsPair() {
		return p.getInfo(s.low).temp
	}
	return p.getInfo(s.Reg()).temp
}

// MarkDirty records that the registers of loc hold a value newer than its home.
func (p *Pool) MarkDirty(loc Location) {
	p.setDirty(loc.Reg, true)
}

// MarkClean records that the registers of loc match the home of the value.
func (p *Pool) MarkClean(loc Location) {
	p.setDirty(loc.Reg, false)
}

func (p *Pool) setDirty(s RegStorage, dirty bool) {
	if s.IsPair() {
		p.getInfo(s.low).dirty = dirty
		p.getInfo(s.high).dirty = dirty
		return
	}
	p.getInfo(s.Reg()).dirty = dirty
}

// FlushReg writes a live, dirty 32-bit register back to its home.
func (p *Pool) FlushReg(r Reg) {
	info := p.getInfo(r)
	if info.IsLive() && info.dirty {
		info.dirty = false
		p.spiller.FlushToHome(info.sReg, Solo(r), false)
	}
}

// FlushRegWide writes a live, dirty 64-bit value back to its home.
func (p *Pool) FlushRegWide(s RegStorage) {
	if !s.IsPair() {
		info := p.getInfo(s.Reg())
		if info.IsLive() && info.dirty {
			info.dirty = false
			p.spiller.FlushToHome(info.sReg, s, true)
		}
		return
	}
	lo, hi := p.getInfo(s.low), p.getInfo(s.high)
	if jitapi.RegAllocValidationEnabled {
		if !lo.wide || !hi.wide || lo.partner != hi.reg || hi.partner != lo.reg {
			panic(fmt.Sprintf("BUG: FlushRegWide on an inconsistent pair %s/%s\n%s", p.name(lo.reg), p.name(hi.reg), p.Dump()))
		}
	}
	if lo.IsLive() && lo.dirty || hi.IsLive() && hi.dirty {
		if !lo.temp || !hi.temp {
			panic("BUG: wide value half temp, half promoted")
		}
		lo.dirty, hi.dirty = false, false
		sReg := lo.sReg
		if hi.sReg < sReg {
			sReg = hi.sReg
		}
		p.spiller.FlushToHome(sReg, s, true)
	}
}

// FlushAllRegs writes back every dirty temporary and forgets all cached values.
func (p *Pool) FlushAllRegs() {
	for _, info := range p.temps {
		if info.dirty && info.IsLive() {
			switch {
			case !info.wide:
				p.FlushReg(info.reg)
			case info.partner == info.reg:
				p.FlushRegWide(Solo(info.reg))
			default:
				p.FlushRegWide(Pair(info.reg, info.partner))
			}
		}
		info.markDead()
		info.wide = false
	}
}

// AllocLiveReg returns the register(s) already caching sReg, or InvalidStorage.
// On a miss every stale copy of sReg is clobbered.
func (p *Pool) AllocLiveReg(sReg int32, class AllocClass, wide bool) RegStorage {
	reg := InvalidStorage
	if class == AnyReg || class == FPReg {
		if wide {
			reg = findLiveReg(p.doubles, sReg)
		} else {
			reg = findLiveReg(p.singles, sReg)
		}
	}
	if !reg.Valid() && class != FPReg {
		reg = findLiveReg(p.core, sReg)
		if reg.Valid() && wide {
			// 64-bit core values live in register pairs.
			high := findLiveReg(p.core, sReg+1)
			if high.Valid() {
				reg = Pair(reg.Reg(), high.Reg())
				p.MarkWide(reg)
			} else {
				reg = InvalidStorage
			}
		}
	}
	if reg.Valid() && wide != p.getInfo(reg.Low()).wide {
		reg = InvalidStorage
	}
	if !reg.Valid() {
		p.ClobberSReg(sReg)
		if wide {
			p.ClobberSReg(sReg + 1)
		}
		return InvalidStorage
	}
	if reg.IsPair() {
		for _, r := range []Reg{reg.low, reg.high} {
			if info := p.getInfo(r); info.temp {
				info.markInUse()
			}
		}
	} else if info := p.getInfo(reg.Reg()); info.temp {
		info.markInUse()
	}
	return reg
}

func findLiveReg(regs []*RegisterInfo, sReg int32) RegStorage {
	for _, info := range regs {
		if info.sReg == sReg && info.IsLive() {
			return Solo(info.reg)
		}
	}
	return InvalidStorage
}

// Promotion returns the result of DoPromotion, or nil before it ran.
func (p *Pool) Promotion() *Promotion {
	return p.promotion
}

// Dump renders the full pool state for diagnostics.
func (p *Pool) Dump() string {
	type regState struct {
		Name                           string
		Temp, InUse, Live, Dirty, Wide bool
		Partner                        string
		SReg                           int32
	}
	var states []regState
	for _, list := range [][]*RegisterInfo{p.core, p.singles, p.doubles} {
		for _, info := range list {
			states = append(states, regState{
				Name: p.name(info.reg), Temp: info.temp, InUse: info.InUse(), Live: info.IsLive(),
				Dirty: info.dirty, Wide: info.wide, Partner: p.name(info.partner), SReg: info.sReg,
			})
		}
	}
	cfg := spew.ConfigState{Indent: " ", DisablePointerAddresses: true, DisableCapacities: true}
	return cfg.Sdump(states)
}
