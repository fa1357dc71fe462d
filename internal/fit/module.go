package fit

// Module is an item attached to a fit's module sequence.
type Module struct {
	Item   *Item
	Slot   Slot
	State  State
	Charge *Item
	Owner  string // fit ID; empty while detached
}

// NewModule builds a detached module for item in its default state.
// Items that cannot be modules (hulls) yield nil.
func NewModule(item *Item) *Module {
	if item == nil {
		return nil
	}
	switch item.Category {
	case CategoryHull:
		return nil
	case CategoryModule, CategorySubsystem, CategoryCharge:
	}
	m := &Module{Item: item, Slot: item.Slot, State: StateOnline}
	if !m.CanHaveState(m.State) {
		m.State = item.MaxState()
	}
	return m
}

// CanHaveState reports whether the module's item supports state s.
func (m *Module) CanHaveState(s State) bool {
	return s >= StateOffline && s <= m.Item.MaxState()
}

// IsValidCharge reports whether charge can be loaded into the module.
func (m *Module) IsValidCharge(charge *Item) bool {
	if charge == nil {
		return true
	}
	return charge.Category == CategoryCharge &&
		m.Item.ChargeGroup != "" &&
		m.Item.ChargeGroup == charge.Group
}

// Fits reports whether the module can be added to f's local modules.
func (m *Module) Fits(f *Fit) bool {
	return m.fits(f, -1)
}

// FitsReplacing reports whether the module can take the place of the local
// module at position.
func (m *Module) FitsReplacing(f *Fit, position int) bool {
	return m.fits(f, position)
}

// fits checks hull restrictions, slot availability and group limits,
// ignoring the local module at skip.
func (m *Module) fits(f *Fit, skip int) bool {
	if f == nil || f.Ship == nil {
		return false
	}
	if !m.Item.CanFitShip(f.Ship.ID) {
		return false
	}
	slotsUsed, groupFitted := 0, 0
	for i, other := range f.Modules.mods {
		if i == skip || other == m {
			continue
		}
		if other.Slot == m.Slot {
			slotsUsed++
		}
		if m.Item.Group != "" && other.Item.Group == m.Item.Group {
			groupFitted++
		}
	}
	// Slotless items occupy no rack; the module list decides whether they are valid.
	if m.Slot != SlotNone && slotsUsed >= f.Ship.Slots.Count(m.Slot) {
		return false
	}
	if m.Item.MaxGroupFitted > 0 && groupFitted >= m.Item.MaxGroupFitted {
		return false
	}
	return true
}
