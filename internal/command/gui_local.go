package command

import (
	"context"

	"github.com/hpungsan/loadout/internal/fit"
)

// composite is the shared body of Gui commands.
type composite struct {
	env     *Env
	fitID   string
	history InternalHistory
}

// finish runs the composite finalization and passes success through.
func (c *composite) finish(ctx context.Context, success bool) bool {
	c.env.finalize(ctx, c.fitID)
	return success
}

func (c *composite) Undo(ctx context.Context) bool {
	return c.finish(ctx, c.history.UndoAll(ctx))
}

// GuiAddLocalModule fits an item to a fit.
type GuiAddLocalModule struct {
	composite
	itemID int
}

// NewGuiAddLocalModule returns an unexecuted command.
func NewGuiAddLocalModule(env *Env, fitID string, itemID int) *GuiAddLocalModule {
	return &GuiAddLocalModule{composite: composite{env: env, fitID: fitID}, itemID: itemID}
}

func (c *GuiAddLocalModule) Name() string { return "Add Module" }

func (c *GuiAddLocalModule) Do(ctx context.Context) bool {
	cmd := NewCalcAddLocalModule(c.env, c.fitID, fit.ModuleInfo{ItemID: c.itemID}, false)
	return c.finish(ctx, c.history.Submit(ctx, cmd))
}

// GuiRemoveLocalModules removes local modules by position.
type GuiRemoveLocalModules struct {
	composite
	positions []int
}

// NewGuiRemoveLocalModules returns an unexecuted command.
func NewGuiRemoveLocalModules(env *Env, fitID string, positions []int) *GuiRemoveLocalModules {
	return &GuiRemoveLocalModules{composite: composite{env: env, fitID: fitID}, positions: positions}
}

func (c *GuiRemoveLocalModules) Name() string { return "Remove Modules" }

func (c *GuiRemoveLocalModules) Do(ctx context.Context) bool {
	cmd := NewCalcRemoveLocalModules(c.env, c.fitID, c.positions, false)
	return c.finish(ctx, c.history.Submit(ctx, cmd))
}

// GuiChangeLocalModuleMetas swaps local modules for another variation of
// the same module, keeping each position's state and charge where valid.
type GuiChangeLocalModuleMetas struct {
	composite
	positions []int
	newItemID int
}

// NewGuiChangeLocalModuleMetas returns an unexecuted command.
func NewGuiChangeLocalModuleMetas(env *Env, fitID string, positions []int, newItemID int) *GuiChangeLocalModuleMetas {
	return &GuiChangeLocalModuleMetas{composite: composite{env: env, fitID: fitID}, positions: positions, newItemID: newItemID}
}

func (c *GuiChangeLocalModuleMetas) Name() string { return "Change Module Metas" }

// Do succeeds when any position changed.
func (c *GuiChangeLocalModuleMetas) Do(ctx context.Context) bool {
	f := c.env.getFit(ctx, c.fitID)
	if f == nil {
		return false
	}
	success := false
	for _, pos := range descending(c.positions) {
		m := f.Modules.At(pos)
		if m == nil || m.Item.ID == c.newItemID {
			continue
		}
		info := fit.FromModule(m).WithItem(c.newItemID)
		cmd := NewCalcReplaceLocalModule(c.env, c.fitID, pos, info, false)
		if c.history.Submit(ctx, cmd) {
			success = true
		}
	}
	return c.finish(ctx, success)
}

// GuiChangeLocalModuleStates sets the state of local modules.
type GuiChangeLocalModuleStates struct {
	composite
	positions []int
	state     fit.State
}

// NewGuiChangeLocalModuleStates returns an unexecuted command.
func NewGuiChangeLocalModuleStates(env *Env, fitID string, positions []int, state fit.State) *GuiChangeLocalModuleStates {
	return &GuiChangeLocalModuleStates{composite: composite{env: env, fitID: fitID}, positions: positions, state: state}
}

func (c *GuiChangeLocalModuleStates) Name() string { return "Change Module States" }

func (c *GuiChangeLocalModuleStates) Do(ctx context.Context) bool {
	cmd := NewCalcChangeLocalModuleStates(c.env, c.fitID, c.positions, c.state, false)
	return c.finish(ctx, c.history.Submit(ctx, cmd))
}
