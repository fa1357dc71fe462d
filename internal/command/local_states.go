package command

import (
	"context"

	"github.com/hpungsan/loadout/internal/fit"
)

// CalcChangeLocalModuleStates sets the state of local modules. A requested
// state a module cannot hold is clamped to its highest state.
type CalcChangeLocalModuleStates struct {
	env       *Env
	fitID     string
	positions []int
	state     fit.State
	commit    bool

	oldStates   map[int]fit.State
	savedStates fit.StateChanges
}

// NewCalcChangeLocalModuleStates returns an unexecuted state change command.
func NewCalcChangeLocalModuleStates(env *Env, fitID string, positions []int, state fit.State, commit bool) *CalcChangeLocalModuleStates {
	return &CalcChangeLocalModuleStates{env: env, fitID: fitID, positions: positions, state: state, commit: commit}
}

func (c *CalcChangeLocalModuleStates) Name() string { return "Change Module States" }

func (c *CalcChangeLocalModuleStates) Do(ctx context.Context) bool {
	c.env.logger().Debug("changing local module states", "fit_id", c.fitID, "positions", c.positions, "state", c.state.String())

	f := c.env.getFit(ctx, c.fitID)
	if f == nil {
		return false
	}

	c.oldStates = make(map[int]fit.State)
	var main *fit.Module
	for _, pos := range c.positions {
		m := f.Modules.At(pos)
		if m == nil {
			continue
		}
		if _, seen := c.oldStates[pos]; seen {
			continue
		}
		target := min(c.state, m.Item.MaxState())
		if target == m.State {
			continue
		}
		c.oldStates[pos] = m.State
		m.State = target
		if main == nil {
			main = m
		}
	}
	if len(c.oldStates) == 0 {
		return false
	}

	c.savedStates = c.env.settle(ctx, f, main)
	if c.commit {
		c.env.commit(ctx)
	}
	return true
}

func (c *CalcChangeLocalModuleStates) Undo(ctx context.Context) bool {
	c.env.logger().Debug("undoing local module state change", "fit_id", c.fitID, "positions", c.positions)

	if len(c.oldStates) == 0 {
		return false
	}
	f := c.env.getFit(ctx, c.fitID)
	if f == nil {
		return false
	}

	// Reconciled states first; the requested ones sit underneath.
	c.env.Calc.RestoreCheckedStates(f, c.savedStates)
	for pos, s := range c.oldStates {
		if m := f.Modules.At(pos); m != nil {
			m.State = s
		}
	}

	c.env.flush(ctx)
	c.env.Calc.Recalc(f)
	if c.commit {
		c.env.commit(ctx)
	}
	c.oldStates = nil
	c.savedStates = fit.StateChanges{}
	return true
}
