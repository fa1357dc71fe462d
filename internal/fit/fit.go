package fit

// Fit is a ship loadout: a hull plus local and projected modules.
type Fit struct {
	ID        string
	Name      string
	Ship      *Item
	Notes     string // markdown
	CreatedAt int64
	UpdatedAt int64

	Modules   *ModuleSeq
	Projected *ModuleSeq

	// Stats is derived; it is only meaningful after a recalculation.
	Stats Stats
}

// New returns an empty fit on the given hull.
func New(id, name string, ship *Item) *Fit {
	return &Fit{
		ID:        id,
		Name:      name,
		Ship:      ship,
		Modules:   NewModuleSeq(SeqLocal, id),
		Projected: NewModuleSeq(SeqProjected, id),
	}
}

// Stats holds a fit's derived attributes.
type Stats struct {
	CPUUsed        float64 `json:"cpu_used"`
	CPUOutput      float64 `json:"cpu_output"`
	PowerUsed      float64 `json:"power_used"`
	PowerOutput    float64 `json:"power_output"`
	ModuleCount    int     `json:"module_count"`
	ProjectedCount int     `json:"projected_count"`
	ActiveCount    int     `json:"active_count"`
}

// CPUOverloaded reports whether fitted modules need more CPU than available.
func (s Stats) CPUOverloaded() bool { return s.CPUUsed > s.CPUOutput }

// PowerOverloaded reports whether fitted modules need more power than available.
func (s Stats) PowerOverloaded() bool { return s.PowerUsed > s.PowerOutput }

// StateChanges records the states modules had before a reconciliation,
// keyed by position in the local and projected sequences.
type StateChanges struct {
	Local     map[int]State
	Projected map[int]State
}

// Empty reports whether no state was changed.
func (c StateChanges) Empty() bool {
	return len(c.Local) == 0 && len(c.Projected) == 0
}

// AfterRemove returns the changes re-keyed for a sequence from which the
// module at pos was removed. An entry for pos itself is dropped.
func (c StateChanges) AfterRemove(kind SeqKind, pos int) StateChanges {
	return c.rekey(kind, func(i int) (int, bool) {
		switch {
		case i == pos:
			return 0, false
		case i > pos:
			return i - 1, true
		}
		return i, true
	})
}

// AfterInsert returns the changes re-keyed for a sequence into which a
// module was inserted at pos.
func (c StateChanges) AfterInsert(kind SeqKind, pos int) StateChanges {
	return c.rekey(kind, func(i int) (int, bool) {
		if i >= pos {
			return i + 1, true
		}
		return i, true
	})
}

func (c StateChanges) rekey(kind SeqKind, move func(int) (int, bool)) StateChanges {
	src := c.Local
	if kind == SeqProjected {
		src = c.Projected
	}
	var dst map[int]State
	if len(src) > 0 {
		dst = make(map[int]State, len(src))
		for i, s := range src {
			if j, ok := move(i); ok {
				dst[j] = s
			}
		}
	}
	if kind == SeqProjected {
		return StateChanges{Local: c.Local, Projected: dst}
	}
	return StateChanges{Local: dst, Projected: c.Projected}
}

// ModuleInfo is an immutable description of a module to install.
type ModuleInfo struct {
	ItemID   int    `json:"item_id"`
	State    *State `json:"state,omitempty"`
	ChargeID int    `json:"charge_id,omitempty"`
}

// FromModule captures enough of m to rebuild it later.
func FromModule(m *Module) ModuleInfo {
	state := m.State
	info := ModuleInfo{ItemID: m.Item.ID, State: &state}
	if m.Charge != nil {
		info.ChargeID = m.Charge.ID
	}
	return info
}

// WithItem returns a copy of the info targeting a different item.
func (i ModuleInfo) WithItem(itemID int) ModuleInfo {
	i.ItemID = itemID
	return i
}

// ToModule builds a detached module. A saved state the item cannot hold is
// replaced by fallback when fallback is valid; an invalid charge is dropped.
// Returns nil when the item is unknown or cannot be a module.
func (i ModuleInfo) ToModule(items ItemSource, fallback State) *Module {
	item, ok := items.Item(i.ItemID)
	if !ok {
		return nil
	}
	m := NewModule(item)
	if m == nil {
		return nil
	}
	switch {
	case i.State != nil && m.CanHaveState(*i.State):
		m.State = *i.State
	case m.CanHaveState(fallback):
		m.State = fallback
	}
	if i.ChargeID != 0 {
		if charge, ok := items.Item(i.ChargeID); ok && m.IsValidCharge(charge) {
			m.Charge = charge
		}
	}
	return m
}
