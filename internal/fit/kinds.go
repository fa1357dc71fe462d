package fit

import (
	"fmt"
	"strings"
)

// Category is the kind of a catalog item.
type Category int

const (
	CategoryHull Category = iota
	CategoryModule
	CategorySubsystem
	CategoryCharge
)

var categoryNames = map[Category]string{
	CategoryHull:      "hull",
	CategoryModule:    "module",
	CategorySubsystem: "subsystem",
	CategoryCharge:    "charge",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory parses a category name (case-insensitive).
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if name == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Slot is the hull rack a module occupies.
type Slot int

const (
	SlotNone Slot = iota
	SlotHigh
	SlotMed
	SlotLow
	SlotRig
	SlotSubsystem
)

var slotNames = map[Slot]string{
	SlotNone:      "none",
	SlotHigh:      "high",
	SlotMed:       "med",
	SlotLow:       "low",
	SlotRig:       "rig",
	SlotSubsystem: "subsystem",
}

func (s Slot) String() string {
	if name, ok := slotNames[s]; ok {
		return name
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// ParseSlot parses a slot name. An empty string is SlotNone.
func ParseSlot(s string) (Slot, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SlotNone, nil
	}
	for slot, name := range slotNames {
		if name == s {
			return slot, nil
		}
	}
	return SlotNone, fmt.Errorf("unknown slot %q", s)
}

// State is a module activation state. States are ordered.
type State int

const (
	StateOffline State = iota
	StateOnline
	StateActive
	StateOverheated
)

var stateNames = [...]string{"offline", "online", "active", "overheated"}

func (s State) String() string {
	if s >= StateOffline && s <= StateOverheated {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ParseState parses a state name (case-insensitive).
func ParseState(s string) (State, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range stateNames {
		if name == s {
			return State(i), nil
		}
	}
	return StateOffline, fmt.Errorf("unknown state %q", s)
}
