package fit

import "slices"

// SlotLayout is the number of slots a hull offers per rack.
type SlotLayout struct {
	High      int `json:"high"`
	Med       int `json:"med"`
	Low       int `json:"low"`
	Rig       int `json:"rig"`
	Subsystem int `json:"subsystem"`
}

// Count returns the number of slots for the given rack.
func (l SlotLayout) Count(slot Slot) int {
	switch slot {
	case SlotHigh:
		return l.High
	case SlotMed:
		return l.Med
	case SlotLow:
		return l.Low
	case SlotRig:
		return l.Rig
	case SlotSubsystem:
		return l.Subsystem
	case SlotNone:
		return 0
	}
	return 0
}

// Item is an immutable catalog entry.
type Item struct {
	ID        int
	Name      string
	Category  Category
	Group     string
	Family    int // variation root; items with the same family are metas of each other
	MetaLevel int
	Slot      Slot

	CPU   float64 // fitting cost
	Power float64

	// Hulls: base output. Subsystems: output bonus while online.
	CPUOutput   float64
	PowerOutput float64
	Slots       SlotLayout

	Activatable    bool
	Overheatable   bool
	MaxGroupFitted int // 0 = unlimited
	MaxGroupActive int // 0 = unlimited
	SubsystemSlot  int // subsystem slot group; 0 for non-subsystems
	ShipIDs        []int
	ChargeGroup    string // accepted charge group for modules
}

// ItemSource resolves catalog items by ID.
type ItemSource interface {
	Item(id int) (*Item, bool)
}

// FamilyID returns the variation root of the item.
func (i *Item) FamilyID() int {
	if i.Family != 0 {
		return i.Family
	}
	return i.ID
}

// MaxState returns the highest state a module built from the item can hold.
func (i *Item) MaxState() State {
	switch i.Category {
	case CategoryModule:
		switch {
		case i.Overheatable:
			return StateOverheated
		case i.Activatable:
			return StateActive
		default:
			return StateOnline
		}
	case CategorySubsystem:
		return StateOnline
	case CategoryHull, CategoryCharge:
		return StateOffline
	}
	return StateOffline
}

// CanFitShip reports whether the item may be installed on the given hull.
func (i *Item) CanFitShip(shipID int) bool {
	return len(i.ShipIDs) == 0 || slices.Contains(i.ShipIDs, shipID)
}

// FallbackState is the state a freshly added module takes when nothing else
// was requested: active for activatable modules, online otherwise.
func FallbackState(item *Item) State {
	if item == nil {
		return StateOffline
	}
	if item.Category == CategoryModule && item.Activatable {
		return StateActive
	}
	return StateOnline
}
