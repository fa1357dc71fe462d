package command

import (
	"context"
	"slices"

	"github.com/hpungsan/loadout/internal/fit"
)

// CalcRemoveLocalModules removes local modules at the given positions.
type CalcRemoveLocalModules struct {
	env       *Env
	fitID     string
	positions []int
	commit    bool

	removed     []removedModule // ascending by position
	savedStates fit.StateChanges
}

type removedModule struct {
	position int
	info     fit.ModuleInfo
}

// NewCalcRemoveLocalModules returns an unexecuted remove command.
func NewCalcRemoveLocalModules(env *Env, fitID string, positions []int, commit bool) *CalcRemoveLocalModules {
	return &CalcRemoveLocalModules{env: env, fitID: fitID, positions: positions, commit: commit}
}

func (c *CalcRemoveLocalModules) Name() string { return "Remove Modules" }

// Do removes in descending order so earlier positions stay valid.
func (c *CalcRemoveLocalModules) Do(ctx context.Context) bool {
	c.env.logger().Debug("removing local modules", "fit_id", c.fitID, "positions", c.positions)

	f := c.env.getFit(ctx, c.fitID)
	if f == nil {
		return false
	}

	c.removed = c.removed[:0]
	for _, pos := range descending(c.positions) {
		m := f.Modules.At(pos)
		if m == nil {
			continue
		}
		info := fit.FromModule(m)
		if _, err := f.Modules.Remove(pos); err != nil {
			continue
		}
		c.removed = append(c.removed, removedModule{position: pos, info: info})
	}
	if len(c.removed) == 0 {
		return false
	}
	slices.Reverse(c.removed)

	c.savedStates = c.env.settle(ctx, f, nil)
	if c.commit {
		c.env.commit(ctx)
	}
	return true
}

// Undo reinserts removed modules at their original positions, ascending.
func (c *CalcRemoveLocalModules) Undo(ctx context.Context) bool {
	c.env.logger().Debug("undoing local module removal", "fit_id", c.fitID, "positions", c.positions)

	if len(c.removed) == 0 {
		return false
	}
	f := c.env.getFit(ctx, c.fitID)
	if f == nil {
		return false
	}

	states := c.savedStates
	restored := false
	for _, r := range c.removed {
		m := c.env.build(r.info)
		if m == nil {
			continue
		}
		if err := f.Modules.Insert(r.position, m); err != nil {
			c.env.logger().Warn("failed to reinsert module", "fit_id", c.fitID, "position", r.position, "error", err)
			continue
		}
		states = states.AfterInsert(fit.SeqLocal, r.position)
		restored = true
	}
	if !restored {
		return false
	}

	c.env.restore(ctx, f, states)
	if c.commit {
		c.env.commit(ctx)
	}
	c.removed = nil
	c.savedStates = fit.StateChanges{}
	return true
}

// descending returns the distinct positions sorted high to low.
func descending(positions []int) []int {
	out := slices.Clone(positions)
	slices.Sort(out)
	out = slices.Compact(out)
	slices.Reverse(out)
	return out
}
