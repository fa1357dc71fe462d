// Package calc recomputes derived fit attributes and reconciles module states.
package calc

import (
	"context"
	"fmt"

	"github.com/hpungsan/loadout/internal/fit"
)

// FitSource resolves a fit by ID.
type FitSource interface {
	GetFit(ctx context.Context, id string) (*fit.Fit, error)
}

// StatsSink stores the derived display row for a fit.
type StatsSink interface {
	SaveStats(ctx context.Context, fitID string, stats fit.Stats) error
}

// Engine is the recalculation and state reconciliation service.
type Engine struct {
	fits FitSource
	sink StatsSink
}

// NewEngine returns an engine that fills stats into sink.
func NewEngine(fits FitSource, sink StatsSink) *Engine {
	return &Engine{fits: fits, sink: sink}
}

// Recalc recomputes f.Stats from its current modules.
func (e *Engine) Recalc(f *fit.Fit) {
	var s fit.Stats
	if f.Ship != nil {
		s.CPUOutput = f.Ship.CPUOutput
		s.PowerOutput = f.Ship.PowerOutput
	}
	for _, m := range f.Modules.All() {
		if m.State < fit.StateOnline {
			continue
		}
		s.CPUUsed += m.Item.CPU
		s.PowerUsed += m.Item.Power
		if m.Item.Category == fit.CategorySubsystem {
			s.CPUOutput += m.Item.CPUOutput
			s.PowerOutput += m.Item.PowerOutput
		}
		if m.State >= fit.StateActive {
			s.ActiveCount++
		}
	}
	s.ModuleCount = f.Modules.Len()
	s.ProjectedCount = f.Projected.Len()
	f.Stats = s
}

// Fill recalculates the fit and writes its stats row.
func (e *Engine) Fill(ctx context.Context, fitID string) error {
	f, err := e.fits.GetFit(ctx, fitID)
	if err != nil {
		return err
	}
	e.Recalc(f)
	if e.sink == nil {
		return nil
	}
	if err := e.sink.SaveStats(ctx, fitID, f.Stats); err != nil {
		return fmt.Errorf("fill %s: %w", fitID, err)
	}
	return nil
}

// CheckStates downgrades every module other than changed whose state is no
// longer valid. A changed local module keeps its state and claims its
// group's active budget first; the rest keep theirs in list order. Projected
// modules never count toward the local group limits. Returns the old state
// of every module it touched.
func (e *Engine) CheckStates(f *fit.Fit, changed *fit.Module) fit.StateChanges {
	changes := fit.StateChanges{}

	active := make(map[string]int)
	if changed != nil && changed.State >= fit.StateActive && f.Modules.Index(changed) >= 0 {
		active[changed.Item.Group]++
	}

	for i, m := range f.Modules.All() {
		if m == changed {
			continue
		}
		s := min(m.State, m.Item.MaxState())
		if s >= fit.StateActive {
			if limit := m.Item.MaxGroupActive; limit > 0 && active[m.Item.Group] >= limit {
				s = fit.StateOnline
			}
		}
		if s >= fit.StateActive {
			active[m.Item.Group]++
		}
		if s != m.State {
			if changes.Local == nil {
				changes.Local = make(map[int]fit.State)
			}
			changes.Local[i] = m.State
			m.State = s
		}
	}

	for i, m := range f.Projected.All() {
		if m == changed {
			continue
		}
		if s := m.Item.MaxState(); m.State > s {
			if changes.Projected == nil {
				changes.Projected = make(map[int]fit.State)
			}
			changes.Projected[i] = m.State
			m.State = s
		}
	}
	return changes
}

// RestoreCheckedStates reapplies states captured by CheckStates. Positions
// outside the current sequences are ignored.
func (e *Engine) RestoreCheckedStates(f *fit.Fit, changes fit.StateChanges) {
	for pos, s := range changes.Local {
		if m := f.Modules.At(pos); m != nil {
			m.State = s
		}
	}
	for pos, s := range changes.Projected {
		if m := f.Projected.At(pos); m != nil {
			m.State = s
		}
	}
}
