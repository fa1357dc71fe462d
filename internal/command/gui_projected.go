package command

import (
	"context"

	"github.com/hpungsan/loadout/internal/fit"
)

// GuiAddProjectedModule projects an item onto a fit.
type GuiAddProjectedModule struct {
	composite
	itemID int
}

// NewGuiAddProjectedModule returns an unexecuted command.
func NewGuiAddProjectedModule(env *Env, fitID string, itemID int) *GuiAddProjectedModule {
	return &GuiAddProjectedModule{composite: composite{env: env, fitID: fitID}, itemID: itemID}
}

func (c *GuiAddProjectedModule) Name() string { return "Add Projected Module" }

func (c *GuiAddProjectedModule) Do(ctx context.Context) bool {
	cmd := NewCalcAddProjectedModule(c.env, c.fitID, fit.ModuleInfo{ItemID: c.itemID}, nil, false)
	return c.finish(ctx, c.history.Submit(ctx, cmd))
}

// GuiRemoveProjectedModules removes projected modules by position.
type GuiRemoveProjectedModules struct {
	composite
	positions []int
}

// NewGuiRemoveProjectedModules returns an unexecuted command.
func NewGuiRemoveProjectedModules(env *Env, fitID string, positions []int) *GuiRemoveProjectedModules {
	return &GuiRemoveProjectedModules{composite: composite{env: env, fitID: fitID}, positions: positions}
}

func (c *GuiRemoveProjectedModules) Name() string { return "Remove Projected Modules" }

func (c *GuiRemoveProjectedModules) Do(ctx context.Context) bool {
	success := false
	for _, pos := range descending(c.positions) {
		if c.history.Submit(ctx, NewCalcRemoveProjectedModule(c.env, c.fitID, pos, false)) {
			success = true
		}
	}
	return c.finish(ctx, success)
}

// GuiChangeProjectedModuleMetas swaps projected modules for another
// variation. Each position is a remove+add batch, undone as a unit.
type GuiChangeProjectedModuleMetas struct {
	composite
	positions []int
	newItemID int
}

// NewGuiChangeProjectedModuleMetas returns an unexecuted command.
func NewGuiChangeProjectedModuleMetas(env *Env, fitID string, positions []int, newItemID int) *GuiChangeProjectedModuleMetas {
	return &GuiChangeProjectedModuleMetas{composite: composite{env: env, fitID: fitID}, positions: positions, newItemID: newItemID}
}

func (c *GuiChangeProjectedModuleMetas) Name() string { return "Change Projected Module Metas" }

// Do processes positions high to low and succeeds when any batch succeeded.
// The replacement keeps the original position.
func (c *GuiChangeProjectedModuleMetas) Do(ctx context.Context) bool {
	f := c.env.getFit(ctx, c.fitID)
	if f == nil {
		return false
	}
	success := false
	for _, pos := range descending(c.positions) {
		m := f.Projected.At(pos)
		if m == nil || m.Item.ID == c.newItemID {
			continue
		}
		info := fit.FromModule(m).WithItem(c.newItemID)
		at := pos
		remove := NewCalcRemoveProjectedModule(c.env, c.fitID, pos, false)
		add := NewCalcAddProjectedModule(c.env, c.fitID, info, &at, false)
		if c.history.SubmitBatch(ctx, remove, add) {
			success = true
		}
	}
	return c.finish(ctx, success)
}
