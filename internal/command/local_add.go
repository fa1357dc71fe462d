package command

import (
	"context"
	stderrors "errors"

	"github.com/hpungsan/loadout/internal/fit"
)

// CalcAddLocalModule appends a module to a fit's local modules. A subsystem
// whose slot group is already taken by a different item replaces it instead.
type CalcAddLocalModule struct {
	env    *Env
	fitID  string
	info   fit.ModuleInfo
	commit bool

	savedPosition int
	savedStates   fit.StateChanges
	subsystemCmd  *CalcReplaceLocalModule
}

// NewCalcAddLocalModule returns an unexecuted add command.
func NewCalcAddLocalModule(env *Env, fitID string, info fit.ModuleInfo, commit bool) *CalcAddLocalModule {
	return &CalcAddLocalModule{env: env, fitID: fitID, info: info, commit: commit, savedPosition: -1}
}

func (c *CalcAddLocalModule) Name() string { return "Add Module" }

// Position returns where Do inserted the module, or -1.
func (c *CalcAddLocalModule) Position() int { return c.savedPosition }

func (c *CalcAddLocalModule) Do(ctx context.Context) bool {
	log := c.env.logger()
	log.Debug("adding local module", "fit_id", c.fitID, "item_id", c.info.ItemID)

	f := c.env.getFit(ctx, c.fitID)
	if f == nil {
		return false
	}
	m := c.env.build(c.info)
	if m == nil {
		return false
	}

	switch m.Item.Category {
	case fit.CategorySubsystem:
		if pos := subsystemOccupant(f, m); pos >= 0 {
			return c.replaceSubsystem(ctx, f, pos)
		}
	case fit.CategoryModule, fit.CategoryCharge:
	case fit.CategoryHull:
		return false
	}

	if !m.Fits(f) {
		log.Warn("module does not fit", "fit_id", c.fitID, "item_id", m.Item.ID)
		return false
	}
	pos, err := f.Modules.Append(m)
	if err != nil {
		var lErr *fit.ListActionError
		if !stderrors.As(err, &lErr) {
			log.Error("append failed", "fit_id", c.fitID, "error", err)
			return false
		}
		log.Warn("failed to append to local modules", "fit_id", c.fitID, "reason", lErr.Reason.String())
		if c.commit {
			c.env.compensate(ctx, f)
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

func (c *CalcAddLocalModule) replaceSubsystem(ctx context.Context, f *fit.Fit, pos int) bool {
	if f.Modules.At(pos).Item.ID == c.info.ItemID {
		return false
	}
	cmd := NewCalcReplaceLocalModule(c.env, c.fitID, pos, c.info, false)
	if !cmd.Do(ctx) {
		return false
	}
	c.subsystemCmd = cmd
	c.savedStates = c.env.settle(ctx, f, f.Modules.At(pos))
	if c.commit {
		c.env.commit(ctx)
	}
	return true
}

func (c *CalcAddLocalModule) Undo(ctx context.Context) bool {
	c.env.logger().Debug("undoing local module addition", "fit_id", c.fitID, "item_id", c.info.ItemID)

	if c.subsystemCmd != nil {
		if !c.subsystemCmd.Undo(ctx) {
			return false
		}
		if f := c.env.getFit(ctx, c.fitID); f != nil {
			c.env.restore(ctx, f, c.savedStates)
		}
		if c.commit {
			c.env.commit(ctx)
		}
		c.subsystemCmd = nil
		c.savedStates = fit.StateChanges{}
		return true
	}

	if c.savedPosition < 0 {
		return false
	}
	cmd := NewCalcRemoveLocalModules(c.env, c.fitID, []int{c.savedPosition}, false)
	if !cmd.Do(ctx) {
		return false
	}
	if f := c.env.getFit(ctx, c.fitID); f != nil {
		c.env.restore(ctx, f, c.savedStates.AfterRemove(fit.SeqLocal, c.savedPosition))
	}
	if c.commit {
		c.env.commit(ctx)
	}
	c.savedPosition = -1
	c.savedStates = fit.StateChanges{}
	return true
}

// subsystemOccupant returns the position of the local subsystem sharing m's
// slot group, or -1.
func subsystemOccupant(f *fit.Fit, m *fit.Module) int {
	for i, old := range f.Modules.All() {
		if old.Item.Category == fit.CategorySubsystem &&
			old.Item.SubsystemSlot == m.Item.SubsystemSlot &&
			old.Slot == m.Slot {
			return i
		}
	}
	return -1
}
