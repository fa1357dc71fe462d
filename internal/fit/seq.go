package fit

import "fmt"

// SeqKind distinguishes a fit's local module list from its projected list.
type SeqKind int

const (
	SeqLocal SeqKind = iota
	SeqProjected
)

func (k SeqKind) String() string {
	if k == SeqProjected {
		return "projected"
	}
	return "local"
}

// RejectReason explains why a module sequence refused a mutation.
type RejectReason int

const (
	RejectOutOfRange RejectReason = iota + 1
	RejectDuplicate
	RejectCategory
	RejectNotProjectable
)

func (r RejectReason) String() string {
	switch r {
	case RejectOutOfRange:
		return "position out of range"
	case RejectDuplicate:
		return "module already attached"
	case RejectCategory:
		return "category cannot be fitted"
	case RejectNotProjectable:
		return "module cannot be projected"
	}
	return fmt.Sprintf("reject(%d)", int(r))
}

// ListActionError is returned when a guarded sequence refuses a mutation.
// The sequence is left untouched.
type ListActionError struct {
	Kind     SeqKind
	Reason   RejectReason
	Position int
}

func (e *ListActionError) Error() string {
	return fmt.Sprintf("%s modules: %s (position %d)", e.Kind, e.Reason, e.Position)
}

// ModuleSeq is an ordered, guarded list of modules owned by one fit.
type ModuleSeq struct {
	kind  SeqKind
	owner string
	mods  []*Module
}

// NewModuleSeq returns an empty sequence of the given kind owned by fitID.
func NewModuleSeq(kind SeqKind, fitID string) *ModuleSeq {
	return &ModuleSeq{kind: kind, owner: fitID}
}

// Kind returns the sequence kind.
func (s *ModuleSeq) Kind() SeqKind { return s.kind }

// Len returns the number of modules.
func (s *ModuleSeq) Len() int { return len(s.mods) }

// At returns the module at position i, or nil when out of range.
func (s *ModuleSeq) At(i int) *Module {
	if i < 0 || i >= len(s.mods) {
		return nil
	}
	return s.mods[i]
}

// All returns a copy of the module list.
func (s *ModuleSeq) All() []*Module {
	out := make([]*Module, len(s.mods))
	copy(out, s.mods)
	return out
}

// Index returns the position of m, or -1.
func (s *ModuleSeq) Index(m *Module) int {
	for i, other := range s.mods {
		if other == m {
			return i
		}
	}
	return -1
}

// Append attaches m at the end and returns its position.
func (s *ModuleSeq) Append(m *Module) (int, error) {
	pos := len(s.mods)
	if err := s.Insert(pos, m); err != nil {
		return -1, err
	}
	return pos, nil
}

// Insert attaches m at position i, shifting later modules up.
func (s *ModuleSeq) Insert(i int, m *Module) error {
	if i < 0 || i > len(s.mods) {
		return s.reject(RejectOutOfRange, i)
	}
	if err := s.guard(m, i); err != nil {
		return err
	}
	s.mods = append(s.mods, nil)
	copy(s.mods[i+1:], s.mods[i:])
	s.mods[i] = m
	m.Owner = s.owner
	return nil
}

// Remove detaches and returns the module at position i.
func (s *ModuleSeq) Remove(i int) (*Module, error) {
	if i < 0 || i >= len(s.mods) {
		return nil, s.reject(RejectOutOfRange, i)
	}
	m := s.mods[i]
	s.mods = append(s.mods[:i], s.mods[i+1:]...)
	m.Owner = ""
	return m, nil
}

// Set replaces the module at position i with m and returns the detached one.
func (s *ModuleSeq) Set(i int, m *Module) (*Module, error) {
	if i < 0 || i >= len(s.mods) {
		return nil, s.reject(RejectOutOfRange, i)
	}
	old := s.mods[i]
	if m == old {
		return nil, s.reject(RejectDuplicate, i)
	}
	if err := s.guard(m, i); err != nil {
		return nil, err
	}
	s.mods[i] = m
	old.Owner = ""
	m.Owner = s.owner
	return old, nil
}

func (s *ModuleSeq) guard(m *Module, pos int) error {
	if m == nil || m.Item == nil {
		return s.reject(RejectCategory, pos)
	}
	if m.Owner != "" || s.Index(m) >= 0 {
		return s.reject(RejectDuplicate, pos)
	}
	switch m.Item.Category {
	case CategoryModule:
		return nil
	case CategorySubsystem:
		if s.kind == SeqProjected {
			return s.reject(RejectNotProjectable, pos)
		}
		return nil
	case CategoryHull, CategoryCharge:
		return s.reject(RejectCategory, pos)
	}
	return s.reject(RejectCategory, pos)
}

func (s *ModuleSeq) reject(reason RejectReason, pos int) error {
	return &ListActionError{Kind: s.kind, Reason: reason, Position: pos}
}
