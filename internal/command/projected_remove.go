package command

import (
	"context"

	"github.com/hpungsan/loadout/internal/fit"
)

// CalcRemoveProjectedModule removes one projected module.
type CalcRemoveProjectedModule struct {
	env      *Env
	fitID    string
	position int
	commit   bool

	savedInfo   *fit.ModuleInfo
	savedStates fit.StateChanges
}

// NewCalcRemoveProjectedModule returns an unexecuted projected remove command.
func NewCalcRemoveProjectedModule(env *Env, fitID string, position int, commit bool) *CalcRemoveProjectedModule {
	return &CalcRemoveProjectedModule{env: env, fitID: fitID, position: position, commit: commit}
}

func (c *CalcRemoveProjectedModule) Name() string { return "Remove Projected Module" }

func (c *CalcRemoveProjectedModule) Do(ctx context.Context) bool {
	c.env.logger().Debug("removing projected module", "fit_id", c.fitID, "position", c.position)

	f := c.env.getFit(ctx, c.fitID)
	if f == nil {
		return false
	}
	m := f.Projected.At(c.position)
	if m == nil {
		return false
	}
	info := fit.FromModule(m)
	if _, err := f.Projected.Remove(c.position); err != nil {
		return false
	}
	c.savedInfo = &info
	c.savedStates = c.env.settle(ctx, f, nil)
	if c.commit {
		c.env.commit(ctx)
	}
	return true
}

// Undo re-adds the module at its original position.
func (c *CalcRemoveProjectedModule) Undo(ctx context.Context) bool {
	c.env.logger().Debug("undoing projected module removal", "fit_id", c.fitID, "position", c.position)

	if c.savedInfo == nil {
		return false
	}
	pos := c.position
	cmd := NewCalcAddProjectedModule(c.env, c.fitID, *c.savedInfo, &pos, false)
	if !cmd.Do(ctx) {
		return false
	}
	if f := c.env.getFit(ctx, c.fitID); f != nil {
		c.env.restore(ctx, f, c.savedStates.AfterInsert(fit.SeqProjected, pos))
	}
	if c.commit {
		c.env.commit(ctx)
	}
	c.savedInfo = nil
	c.savedStates = fit.StateChanges{}
	return true
}
