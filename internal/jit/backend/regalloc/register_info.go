package regalloc

// storageUnit is one physical storage location. Every register view that
// reads or writes part of it shares the unit, and the unit's sub-slot masks
// record which parts are allocated and which hold live values, so a write
// through any view is visible to all others.
type storageUnit struct {
	master *RegisterInfo
	views  []*RegisterInfo

	// used and live are masks over the sub-slots of the unit.
	used, live uint32
}

// RegisterInfo is the allocation state of one register view.
type RegisterInfo struct {
	reg   Reg
	class RegClass
	temp  bool
	dirty bool
	wide  bool

	// partner is the other half of a pair, or reg itself when unpaired.
	partner Reg
	sReg    int32

	unit *storageUnit

	// mask is the set of sub-slots of unit covered by this view.
	mask uint32
}

func newRegisterInfo(r Reg, class RegClass) *RegisterInfo {
	info := &RegisterInfo{reg: r, class: class, partner: r, sReg: InvalidSReg, mask: 0x1}
	info.unit = &storageUnit{master: info, views: []*RegisterInfo{info}}
	return info
}

// aliasOnto makes info a view of the sub-slots mask of master's storage unit.
func (info *RegisterInfo) aliasOnto(master *RegisterInfo, mask uint32) {
	info.unit = master.unit
	info.mask = mask
	master.unit.views = append(master.unit.views, info)
}

// Reg returns the register of this view.
func (info *RegisterInfo) Reg() Reg { return info.reg }

// Class returns the register class of this view.
func (info *RegisterInfo) Class() RegClass { return info.class }

// IsTemp returns true if the register can be handed out as a temporary.
func (info *RegisterInfo) IsTemp() bool { return info.temp }

// InUse returns true if any part of the storage covered by this view is allocated.
func (info *RegisterInfo) InUse() bool { return info.unit.used&info.mask != 0 }

// IsLive returns true if every sub-slot covered by this view holds a live value.
func (info *RegisterInfo) IsLive() bool { return info.unit.live&info.mask == info.mask }

// IsDead returns true if no sub-slot covered by this view holds a live value.
func (info *RegisterInfo) IsDead() bool { return info.unit.live&info.mask == 0 }

// IsDirty returns true if the register holds a value not yet written to its home.
func (info *RegisterInfo) IsDirty() bool { return info.dirty }

// IsWide returns true if the register holds half (or all) of a 64-bit value.
func (info *RegisterInfo) IsWide() bool { return info.wide }

// Partner returns the other half of the pair.
func (info *RegisterInfo) Partner() Reg { return info.partner }

// SReg returns the virtual register bound to this view, or InvalidSReg.
func (info *RegisterInfo) SReg() int32 { return info.sReg }

// IsMaster returns true if this view covers the whole storage unit.
func (info *RegisterInfo) IsMaster() bool { return info.unit.master == info }

func (info *RegisterInfo) markInUse() { info.unit.used |= info.mask }

func (info *RegisterInfo) markFree() { info.unit.used &^= info.mask }

func (info *RegisterInfo) markLive(sReg int32) {
	info.sReg = sReg
	info.unit.live |= info.mask
}

func (info *RegisterInfo) markDead() {
	if info.sReg != InvalidSReg {
		info.sReg = InvalidSReg
		info.unit.live &^= info.mask
	}
}
