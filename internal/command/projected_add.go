package command

import (
	"context"
	stderrors "errors"

	"github.com/hpungsan/loadout/internal/fit"
)

// CalcAddProjectedModule projects a module onto a fit, at a position when one
// is given and at the end otherwise.
type CalcAddProjectedModule struct {
	env      *Env
	fitID    string
	info     fit.ModuleInfo
	position *int
	commit   bool

	savedPosition int
	savedStates   fit.StateChanges
}

// NewCalcAddProjectedModule returns an unexecuted projected add command.
// A nil position appends.
func NewCalcAddProjectedModule(env *Env, fitID string, info fit.ModuleInfo, position *int, commit bool) *CalcAddProjectedModule {
	return &CalcAddProjectedModule{env: env, fitID: fitID, info: info, position: position, commit: commit, savedPosition: -1}
}

func (c *CalcAddProjectedModule) Name() string { return "Add Projected Module" }

func (c *CalcAddProjectedModule) Do(ctx context.Context) bool {
	log := c.env.logger()
	log.Debug("adding projected module", "fit_id", c.fitID, "item_id", c.info.ItemID)

	f := c.env.getFit(ctx, c.fitID)
	if f == nil {
		return false
	}
	m := c.env.build(c.info)
	if m == nil {
		return false
	}

	var (
		pos int
		err error
	)
	if c.position != nil {
		pos = *c.position
		err = f.Projected.Insert(pos, m)
	} else {
		pos, err = f.Projected.Append(m)
	}
	if err != nil {
		var lErr *fit.ListActionError
		if stderrors.As(err, &lErr) {
			log.Warn("failed to add projected module", "fit_id", c.fitID, "reason", lErr.Reason.String())
			if c.commit {
				c.env.compensate(ctx, f)
			}
		}
		return false
	}

	c.savedPosition = pos
	c.savedStates = c.env.settle(ctx, f, m)
	if c.commit {
		c.env.commit(ctx)
	}
	return true
}

func (c *CalcAddProjectedModule) Undo(ctx context.Context) bool {
	c.env.logger().Debug("undoing projected module addition", "fit_id", c.fitID, "item_id", c.info.ItemID)

	if c.savedPosition < 0 {
		return false
	}
	cmd := NewCalcRemoveProjectedModule(c.env, c.fitID, c.savedPosition, false)
	if !cmd.Do(ctx) {
		return false
	}
	if f := c.env.getFit(ctx, c.fitID); f != nil {
		c.env.restore(ctx, f, c.savedStates.AfterRemove(fit.SeqProjected, c.savedPosition))
	}
	if c.commit {
		c.env.commit(ctx)
	}
	c.savedPosition = -1
	c.savedStates = fit.StateChanges{}
	return true
}
