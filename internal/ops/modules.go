package ops

import (
	"context"
	"fmt"

	"github.com/hpungsan/loadout/internal/command"
	"github.com/hpungsan/loadout/internal/errors"
	"github.com/hpungsan/loadout/internal/fit"
)

// ModuleInput addresses an item to add to a fit.
type ModuleInput struct {
	FitID string
	Item  string // ID or exact name
}

// PositionsInput addresses modules of a fit by position.
type PositionsInput struct {
	FitID     string
	Positions []int
}

// MetasInput swaps the modules at Positions for another variation.
type MetasInput struct {
	FitID     string
	Positions []int
	Item      string // ID or exact name of the new variation
}

// StatesInput sets the state of the modules at Positions.
type StatesInput struct {
	FitID     string
	Positions []int
	State     string // offline, online, active or overheated
}

// AddModule fits an item to the local modules.
func (w *Workbench) AddModule(ctx context.Context, input ModuleInput) (*CommandOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, item, err := w.fitAndItem(ctx, input.FitID, input.Item)
	if err != nil {
		return nil, err
	}
	return w.run(ctx, f.ID, command.NewGuiAddLocalModule(w.env, f.ID, item.ID))
}

// RemoveModules removes local modules by position.
func (w *Workbench) RemoveModules(ctx context.Context, input PositionsInput) (*CommandOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.fitAndPositions(ctx, input.FitID, input.Positions)
	if err != nil {
		return nil, err
	}
	return w.run(ctx, f.ID, command.NewGuiRemoveLocalModules(w.env, f.ID, input.Positions))
}

// ChangeModuleMetas replaces local modules with another variation of the
// same item family.
func (w *Workbench) ChangeModuleMetas(ctx context.Context, input MetasInput) (*CommandOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.fitAndPositions(ctx, input.FitID, input.Positions)
	if err != nil {
		return nil, err
	}
	item, err := w.variation(f.Modules, input.Positions, input.Item)
	if err != nil {
		return nil, err
	}
	return w.run(ctx, f.ID, command.NewGuiChangeLocalModuleMetas(w.env, f.ID, input.Positions, item.ID))
}

// ChangeModuleStates sets the state of local modules. Requested states are
// clamped to what each module supports.
func (w *Workbench) ChangeModuleStates(ctx context.Context, input StatesInput) (*CommandOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.fitAndPositions(ctx, input.FitID, input.Positions)
	if err != nil {
		return nil, err
	}
	state, err := fit.ParseState(input.State)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return w.run(ctx, f.ID, command.NewGuiChangeLocalModuleStates(w.env, f.ID, input.Positions, state))
}

// AddProjected projects an item onto a fit.
func (w *Workbench) AddProjected(ctx context.Context, input ModuleInput) (*CommandOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, item, err := w.fitAndItem(ctx, input.FitID, input.Item)
	if err != nil {
		return nil, err
	}
	return w.run(ctx, f.ID, command.NewGuiAddProjectedModule(w.env, f.ID, item.ID))
}

// RemoveProjected removes projected modules by position.
func (w *Workbench) RemoveProjected(ctx context.Context, input PositionsInput) (*CommandOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.fitAndPositions(ctx, input.FitID, input.Positions)
	if err != nil {
		return nil, err
	}
	return w.run(ctx, f.ID, command.NewGuiRemoveProjectedModules(w.env, f.ID, input.Positions))
}

// ChangeProjectedMetas replaces projected modules with another variation,
// keeping each module's position.
func (w *Workbench) ChangeProjectedMetas(ctx context.Context, input MetasInput) (*CommandOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.fitAndPositions(ctx, input.FitID, input.Positions)
	if err != nil {
		return nil, err
	}
	item, err := w.variation(f.Projected, input.Positions, input.Item)
	if err != nil {
		return nil, err
	}
	return w.run(ctx, f.ID, command.NewGuiChangeProjectedModuleMetas(w.env, f.ID, input.Positions, item.ID))
}

func (w *Workbench) fitAndItem(ctx context.Context, fitID, ref string) (*fit.Fit, *fit.Item, error) {
	f, err := w.loadFit(ctx, fitID)
	if err != nil {
		return nil, nil, err
	}
	item, err := w.resolveItem(ref)
	if err != nil {
		return nil, nil, err
	}
	return f, item, nil
}

func (w *Workbench) fitAndPositions(ctx context.Context, fitID string, positions []int) (*fit.Fit, error) {
	if len(positions) == 0 {
		return nil, errors.NewInvalidRequest("positions must not be empty")
	}
	for _, p := range positions {
		if p < 0 {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("position must be non-negative, got %d", p))
		}
	}
	return w.loadFit(ctx, fitID)
}

// variation resolves ref and checks it belongs to the family of every
// occupied position. Empty positions are left for the command to skip.
func (w *Workbench) variation(seq *fit.ModuleSeq, positions []int, ref string) (*fit.Item, error) {
	item, err := w.resolveItem(ref)
	if err != nil {
		return nil, err
	}
	for _, p := range positions {
		m := seq.At(p)
		if m == nil {
			continue
		}
		if m.Item.Category != item.Category || m.Item.FamilyID() != item.FamilyID() {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("%s is not a variation of %s", item.Name, m.Item.Name))
		}
	}
	return item, nil
}
