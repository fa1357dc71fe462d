// Package catalog provides the read-only item database used to build fits.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hpungsan/loadout/internal/fit"
)

// MaxCatalogFileSize bounds catalog files read from disk (4MB).
const MaxCatalogFileSize = 4 * 1024 * 1024

//go:embed items.yaml
var defaultItemsYAML []byte

// fileYAML is the root structure for YAML deserialization.
type fileYAML struct {
	Items []itemYAML `yaml:"items"`
}

type itemYAML struct {
	ID             int       `yaml:"id"`
	Name           string    `yaml:"name"`
	Category       string    `yaml:"category"`
	Group          string    `yaml:"group"`
	Family         int       `yaml:"family,omitempty"`
	MetaLevel      int       `yaml:"meta_level,omitempty"`
	Slot           string    `yaml:"slot,omitempty"`
	CPU            float64   `yaml:"cpu,omitempty"`
	Power          float64   `yaml:"power,omitempty"`
	CPUOutput      float64   `yaml:"cpu_output,omitempty"`
	PowerOutput    float64   `yaml:"power_output,omitempty"`
	Slots          slotsYAML `yaml:"slots,omitempty"`
	Activatable    bool      `yaml:"activatable,omitempty"`
	Overheatable   bool      `yaml:"overheatable,omitempty"`
	MaxGroupFitted int       `yaml:"max_group_fitted,omitempty"`
	MaxGroupActive int       `yaml:"max_group_active,omitempty"`
	SubsystemSlot  int       `yaml:"subsystem_slot,omitempty"`
	ShipIDs        []int     `yaml:"ship_ids,omitempty"`
	ChargeGroup    string    `yaml:"charge_group,omitempty"`
}

type slotsYAML struct {
	High      int `yaml:"high"`
	Med       int `yaml:"med"`
	Low       int `yaml:"low"`
	Rig       int `yaml:"rig"`
	Subsystem int `yaml:"subsystem"`
}

// Catalog is an immutable, indexed set of items. Safe for concurrent use.
type Catalog struct {
	byID    map[int]*fit.Item
	byName  map[string]*fit.Item
	ordered []*fit.Item
}

// Default parses the embedded catalog. The embedded file is validated by
// tests, so a failure here is a build defect.
func Default() *Catalog {
	c, err := Parse(defaultItemsYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded items.yaml: %v", err))
	}
	return c
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat catalog: %w", err)
	}
	if info.Size() > MaxCatalogFileSize {
		return nil, fmt.Errorf("catalog %s exceeds %d bytes", path, MaxCatalogFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Open returns the catalog at path, or the embedded one when path is empty.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var raw fileYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(raw.Items) == 0 {
		return nil, fmt.Errorf("catalog has no items")
	}

	c := &Catalog{
		byID:   make(map[int]*fit.Item, len(raw.Items)),
		byName: make(map[string]*fit.Item, len(raw.Items)),
	}
	for i, rec := range raw.Items {
		item, err := rec.toItem()
		if err != nil {
			return nil, fmt.Errorf("item %d (id %d): %w", i, rec.ID, err)
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("item %d: duplicate id %d", i, item.ID)
		}
		key := strings.ToLower(item.Name)
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("item %d: duplicate name %q", i, item.Name)
		}
		c.byID[item.ID] = item
		c.byName[key] = item
		c.ordered = append(c.ordered, item)
	}
	return c, nil
}

func (r itemYAML) toItem() (*fit.Item, error) {
	if r.ID <= 0 {
		return nil, fmt.Errorf("id must be positive")
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	category, err := fit.ParseCategory(r.Category)
	if err != nil {
		return nil, err
	}
	slot, err := fit.ParseSlot(r.Slot)
	if err != nil {
		return nil, err
	}

	switch category {
	case fit.CategoryModule:
		if slot == fit.SlotNone || slot == fit.SlotSubsystem {
			return nil, fmt.Errorf("module needs a high, med, low or rig slot")
		}
	case fit.CategorySubsystem:
		if slot == fit.SlotNone {
			slot = fit.SlotSubsystem
		}
		if slot != fit.SlotSubsystem {
			return nil, fmt.Errorf("subsystem must use the subsystem slot")
		}
		if r.SubsystemSlot <= 0 {
			return nil, fmt.Errorf("subsystem_slot is required")
		}
	case fit.CategoryHull, fit.CategoryCharge:
		if slot != fit.SlotNone {
			return nil, fmt.Errorf("%s cannot occupy a slot", category)
		}
	}

	return &fit.Item{
		ID:        r.ID,
		Name:      name,
		Category:  category,
		Group:     r.Group,
		Family:    r.Family,
		MetaLevel: r.MetaLevel,
		Slot:      slot,
		CPU:       r.CPU,
		Power:     r.Power,

		CPUOutput:   r.CPUOutput,
		PowerOutput: r.PowerOutput,
		Slots: fit.SlotLayout{
			High:      r.Slots.High,
			Med:       r.Slots.Med,
			Low:       r.Slots.Low,
			Rig:       r.Slots.Rig,
			Subsystem: r.Slots.Subsystem,
		},

		Activatable:    r.Activatable,
		Overheatable:   r.Overheatable,
		MaxGroupFitted: r.MaxGroupFitted,
		MaxGroupActive: r.MaxGroupActive,
		SubsystemSlot:  r.SubsystemSlot,
		ShipIDs:        r.ShipIDs,
		ChargeGroup:    r.ChargeGroup,
	}, nil
}

// Item implements fit.ItemSource.
func (c *Catalog) Item(id int) (*fit.Item, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Lookup resolves a numeric ID or a case-insensitive exact name.
func (c *Catalog) Lookup(ref string) (*fit.Item, bool) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		return c.Item(id)
	}
	it, ok := c.byName[strings.ToLower(ref)]
	return it, ok
}

// Variations returns every item in id's family ordered by meta level, then ID.
func (c *Catalog) Variations(id int) []*fit.Item {
	item, ok := c.byID[id]
	if !ok {
		return nil
	}
	family := item.FamilyID()
	var out []*fit.Item
	for _, other := range c.ordered {
		if other.Category == item.Category && other.FamilyID() == family {
			out = append(out, other)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MetaLevel != out[j].MetaLevel {
			return out[i].MetaLevel < out[j].MetaLevel
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Hulls returns hull items in catalog order.
func (c *Catalog) Hulls() []*fit.Item {
	var out []*fit.Item
	for _, it := range c.ordered {
		if it.Category == fit.CategoryHull {
			out = append(out, it)
		}
	}
	return out
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.ordered) }
