package command

import (
	"context"
	stderrors "errors"

	"github.com/hpungsan/loadout/internal/fit"
)

// CalcReplaceLocalModule swaps the local module at a position in place.
type CalcReplaceLocalModule struct {
	env      *Env
	fitID    string
	position int
	info     fit.ModuleInfo
	commit   bool

	oldInfo     *fit.ModuleInfo
	savedStates fit.StateChanges
}

// NewCalcReplaceLocalModule returns an unexecuted replace command.
func NewCalcReplaceLocalModule(env *Env, fitID string, position int, info fit.ModuleInfo, commit bool) *CalcReplaceLocalModule {
	return &CalcReplaceLocalModule{env: env, fitID: fitID, position: position, info: info, commit: commit}
}

func (c *CalcReplaceLocalModule) Name() string { return "Replace Module" }

func (c *CalcReplaceLocalModule) Do(ctx context.Context) bool {
	log := c.env.logger()
	log.Debug("replacing local module", "fit_id", c.fitID, "position", c.position, "item_id", c.info.ItemID)

	f := c.env.getFit(ctx, c.fitID)
	if f == nil {
		return false
	}
	old := f.Modules.At(c.position)
	if old == nil || old.Item.ID == c.info.ItemID {
		return false
	}
	m := c.env.build(c.info)
	if m == nil {
		return false
	}
	if !m.FitsReplacing(f, c.position) {
		log.Warn("replacement does not fit", "fit_id", c.fitID, "item_id", m.Item.ID)
		return false
	}

	oldInfo := fit.FromModule(old)
	if _, err := f.Modules.Set(c.position, m); err != nil {
		var lErr *fit.ListActionError
		if stderrors.As(err, &lErr) {
			log.Warn("failed to replace local module", "fit_id", c.fitID, "reason", lErr.Reason.String())
			if c.commit {
				c.env.compensate(ctx, f)
			}
		}
		return false
	}
	c.oldInfo = &oldInfo
	c.savedStates = c.env.settle(ctx, f, m)
	if c.commit {
		c.env.commit(ctx)
	}
	return true
}

func (c *CalcReplaceLocalModule) Undo(ctx context.Context) bool {
	c.env.logger().Debug("undoing local module replacement", "fit_id", c.fitID, "position", c.position)

	if c.oldInfo == nil {
		return false
	}
	f := c.env.getFit(ctx, c.fitID)
	if f == nil {
		return false
	}
	m := c.env.build(*c.oldInfo)
	if m == nil {
		return false
	}
	if _, err := f.Modules.Set(c.position, m); err != nil {
		c.env.logger().Warn("failed to restore replaced module", "fit_id", c.fitID, "error", err)
		return false
	}

	c.env.restore(ctx, f, c.savedStates)
	if c.commit {
		c.env.commit(ctx)
	}
	c.oldInfo = nil
	c.savedStates = fit.StateChanges{}
	return true
}
