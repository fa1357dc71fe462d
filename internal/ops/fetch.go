package ops

import "context"

// FetchFitInput contains parameters for the FetchFit operation.
type FetchFitInput struct {
	ID string
}

// FetchFit retrieves a fit with freshly computed stats.
func (w *Workbench) FetchFit(ctx context.Context, input FetchFitInput) (*FitOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.loadFit(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	w.engine.Recalc(f)
	return w.fitOutput(f), nil
}
