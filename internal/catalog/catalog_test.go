package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/loadout/internal/fit"
)

func TestDefault_Parses(t *testing.T) {
	c := Default()
	if c.Len() == 0 {
		t.Fatal("embedded catalog is empty")
	}

	tengu, ok := c.Lookup("tengu")
	if !ok || tengu.Category != fit.CategoryHull {
		t.Fatalf("Lookup(tengu) = %v, %v", tengu, ok)
	}
	if tengu.Slots.Subsystem != 4 {
		t.Errorf("Tengu subsystem slots = %d, want 4", tengu.Slots.Subsystem)
	}

	core, ok := c.Item(45625)
	if !ok || core.Slot != fit.SlotSubsystem || core.SubsystemSlot != 125 {
		t.Errorf("core subsystem = %+v", core)
	}
	if !core.CanFitShip(tengu.ID) {
		t.Error("Tengu subsystem should fit the Tengu")
	}
}

func TestLookup(t *testing.T) {
	c := Default()

	tests := []struct {
		ref    string
		wantID int
		ok     bool
	}{
		{"2410", 2410, true},
		{" Heavy Missile Launcher II ", 2410, true},
		{"heavy missile launcher ii", 2410, true},
		{"Heavy Missile Launcher", 0, false},
		{"999999", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		it, ok := c.Lookup(tt.ref)
		if ok != tt.ok {
			t.Errorf("Lookup(%q) ok = %v, want %v", tt.ref, ok, tt.ok)
			continue
		}
		if ok && it.ID != tt.wantID {
			t.Errorf("Lookup(%q) = %d, want %d", tt.ref, it.ID, tt.wantID)
		}
	}
}

func TestVariations(t *testing.T) {
	c := Default()

	vars := c.Variations(2410)
	var ids []int
	for _, v := range vars {
		ids = append(ids, v.ID)
	}
	want := []int{8105, 8107, 2410, 27359}
	if len(ids) != len(want) {
		t.Fatalf("Variations(2410) = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Variations(2410) = %v, want %v", ids, want)
		}
	}

	if got := c.Variations(22291); len(got) != 1 || got[0].ID != 22291 {
		t.Errorf("single-member family = %v", got)
	}
	if got := c.Variations(424242); got != nil {
		t.Errorf("unknown item variations = %v, want nil", got)
	}
}

func TestHulls(t *testing.T) {
	for _, h := range Default().Hulls() {
		if h.Category != fit.CategoryHull {
			t.Errorf("Hulls() returned %s (%s)", h.Name, h.Category)
		}
	}
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty",
			yaml:    "items: []",
			wantErr: "no items",
		},
		{
			name:    "malformed",
			yaml:    "items: [",
			wantErr: "parse catalog",
		},
		{
			name: "duplicate id",
			yaml: `items:
  - {id: 1, name: A, category: charge}
  - {id: 1, name: B, category: charge}`,
			wantErr: "duplicate id",
		},
		{
			name: "duplicate name",
			yaml: `items:
  - {id: 1, name: A, category: charge}
  - {id: 2, name: a, category: charge}`,
			wantErr: "duplicate name",
		},
		{
			name:    "missing name",
			yaml:    `items: [{id: 1, category: charge}]`,
			wantErr: "name is required",
		},
		{
			name:    "unknown category",
			yaml:    `items: [{id: 1, name: A, category: drone}]`,
			wantErr: "unknown category",
		},
		{
			name:    "unknown slot",
			yaml:    `items: [{id: 1, name: A, category: module, slot: top}]`,
			wantErr: "unknown slot",
		},
		{
			name:    "module without slot",
			yaml:    `items: [{id: 1, name: A, category: module}]`,
			wantErr: "module needs",
		},
		{
			name:    "subsystem without group",
			yaml:    `items: [{id: 1, name: A, category: subsystem}]`,
			wantErr: "subsystem_slot",
		},
		{
			name:    "slotted hull",
			yaml:    `items: [{id: 1, name: A, category: hull, slot: high}]`,
			wantErr: "cannot occupy a slot",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_SubsystemDefaultsSlot(t *testing.T) {
	c, err := Parse([]byte(`items: [{id: 7, name: Core, category: subsystem, subsystem_slot: 125}]`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	it, _ := c.Item(7)
	if it.Slot != fit.SlotSubsystem {
		t.Errorf("Slot = %v, want subsystem", it.Slot)
	}
}

func TestOpen(t *testing.T) {
	c, err := Open("")
	if err != nil || c.Len() != Default().Len() {
		t.Fatalf("Open(\"\") = %v, %v", c, err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "items.yaml")
	if err := os.WriteFile(path, []byte(`items: [{id: 5, name: Ammo, category: charge, group: Missile}]`), 0600); err != nil {
		t.Fatal(err)
	}
	c, err = Open(path)
	if err != nil {
		t.Fatalf("Open(file) error = %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	if _, err := Open(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Open(missing) should fail")
	}
}
