package ops

import "github.com/hpungsan/loadout/internal/fit"

// ModuleView is a module as reported to callers.
type ModuleView struct {
	Position   int    `json:"position"`
	ItemID     int    `json:"item_id"`
	Name       string `json:"name"`
	Slot       string `json:"slot"`
	State      string `json:"state"`
	ChargeID   int    `json:"charge_id,omitempty"`
	ChargeName string `json:"charge_name,omitempty"`
}

// StatsView is the derived attribute block of a fit.
type StatsView struct {
	fit.Stats
	CPUOverloaded   bool `json:"cpu_overloaded"`
	PowerOverloaded bool `json:"power_overloaded"`
}

// FitView is a fit with both module sequences and its stats.
type FitView struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	ShipID    int          `json:"ship_id"`
	ShipName  string       `json:"ship_name"`
	Notes     string       `json:"notes,omitempty"`
	CreatedAt int64        `json:"created_at"`
	UpdatedAt int64        `json:"updated_at"`
	Modules   []ModuleView `json:"modules"`
	Projected []ModuleView `json:"projected"`
	Stats     StatsView    `json:"stats"`
}

// ItemView is a catalog entry as reported to callers.
type ItemView struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Group     string `json:"group,omitempty"`
	MetaLevel int    `json:"meta_level"`
	Slot      string `json:"slot,omitempty"`
}

func newFitView(f *fit.Fit) FitView {
	return FitView{
		ID:        f.ID,
		Name:      f.Name,
		ShipID:    f.Ship.ID,
		ShipName:  f.Ship.Name,
		Notes:     f.Notes,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		Modules:   moduleViews(f.Modules),
		Projected: moduleViews(f.Projected),
		Stats:     newStatsView(f.Stats),
	}
}

func newStatsView(s fit.Stats) StatsView {
	return StatsView{
		Stats:           s,
		CPUOverloaded:   s.CPUOverloaded(),
		PowerOverloaded: s.PowerOverloaded(),
	}
}

// moduleViews never returns nil so JSON output carries [] for empty racks.
func moduleViews(seq *fit.ModuleSeq) []ModuleView {
	out := make([]ModuleView, 0, seq.Len())
	for i, m := range seq.All() {
		v := ModuleView{
			Position: i,
			ItemID:   m.Item.ID,
			Name:     m.Item.Name,
			Slot:     m.Slot.String(),
			State:    m.State.String(),
		}
		if m.Charge != nil {
			v.ChargeID = m.Charge.ID
			v.ChargeName = m.Charge.Name
		}
		out = append(out, v)
	}
	return out
}

func newItemView(it *fit.Item) ItemView {
	v := ItemView{
		ID:        it.ID,
		Name:      it.Name,
		Category:  it.Category.String(),
		Group:     it.Group,
		MetaLevel: it.MetaLevel,
	}
	if it.Slot != fit.SlotNone {
		v.Slot = it.Slot.String()
	}
	return v
}
