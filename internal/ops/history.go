package ops

import (
	"context"
	"time"

	"github.com/hpungsan/loadout/internal/errors"
)

// HistoryInput addresses a fit's undo history.
type HistoryInput struct {
	FitID string
}

// Undo reverts the most recent command applied to the fit.
func (w *Workbench) Undo(ctx context.Context, input HistoryInput) (*CommandOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.loadFit(ctx, input.FitID)
	if err != nil {
		return nil, err
	}
	h := w.history(f.ID)
	if !h.CanUndo() {
		return nil, errors.NewNothingToUndo(f.ID)
	}
	name := h.UndoName()
	start := time.Now()
	applied := h.Undo(ctx)
	w.observe(name, "undo", applied, start)
	if !applied {
		w.log.Warn("undo failed", "fit_id", f.ID, "command", name)
	}
	return w.commandOutput(ctx, f.ID, name, applied)
}

// Redo reapplies the most recently undone command.
func (w *Workbench) Redo(ctx context.Context, input HistoryInput) (*CommandOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.loadFit(ctx, input.FitID)
	if err != nil {
		return nil, err
	}
	h := w.history(f.ID)
	if !h.CanRedo() {
		return nil, errors.NewNothingToRedo(f.ID)
	}
	name := h.RedoName()
	start := time.Now()
	applied := h.Redo(ctx)
	w.observe(name, "redo", applied, start)
	if !applied {
		w.log.Warn("redo failed", "fit_id", f.ID, "command", name)
	}
	return w.commandOutput(ctx, f.ID, name, applied)
}
