package ops

import (
	"context"

	"github.com/hpungsan/loadout/internal/errors"
)

// MaxNotesChars bounds the markdown notes of a fit.
const MaxNotesChars = 20000

// UpdateFitInput contains parameters for the UpdateFit operation.
type UpdateFitInput struct {
	ID string

	// Editable fields (nil = don't change)
	Name  *string
	Notes *string
}

// UpdateFit renames a fit or replaces its notes. Edits are not undoable.
func (w *Workbench) UpdateFit(ctx context.Context, input UpdateFitInput) (*FitOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if input.Name == nil && input.Notes == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}

	var name string
	if input.Name != nil {
		n, err := validateName(*input.Name)
		if err != nil {
			return nil, err
		}
		name = n
	}
	if input.Notes != nil && len([]rune(*input.Notes)) > MaxNotesChars {
		return nil, errors.NewInvalidRequest("notes must be at most 20000 characters")
	}

	f, err := w.loadFit(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		f.Name = name
	}
	if input.Notes != nil {
		f.Notes = *input.Notes
	}

	if err := w.persist(ctx, f.ID); err != nil {
		return nil, err
	}
	w.bus.Post(fitChanged(f.ID))
	return w.fitOutput(f), nil
}
