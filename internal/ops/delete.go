package ops

import (
	"context"

	"github.com/hpungsan/loadout/internal/events"
)

// DeleteFitInput contains parameters for the DeleteFit operation.
type DeleteFitInput struct {
	ID string
}

// DeleteFitOutput contains the result of the DeleteFit operation.
type DeleteFitOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// DeleteFit removes a fit, its modules and stats, and drops its undo history.
func (w *Workbench) DeleteFit(ctx context.Context, input DeleteFitInput) (*DeleteFitOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Verify it exists (GetFit returns NOT_FOUND if not)
	f, err := w.loadFit(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	w.session.Delete(f.ID)
	if err := w.persist(ctx, ""); err != nil {
		return nil, err
	}
	delete(w.histories, f.ID)
	w.bus.Post(fitChanged(f.ID))
	w.log.Info("fit deleted", "fit_id", f.ID)

	return &DeleteFitOutput{
		Deleted: true,
		ID:      f.ID,
	}, nil
}

func fitChanged(id string) events.FitChanged {
	return events.FitChanged{FitID: id}
}
