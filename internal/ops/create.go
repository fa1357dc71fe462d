package ops

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/loadout/internal/errors"
	"github.com/hpungsan/loadout/internal/fit"
)

// MaxNameChars bounds fit names.
const MaxNameChars = 200

// CreateFitInput contains parameters for the CreateFit operation.
type CreateFitInput struct {
	Name  string // required
	Ship  string // hull ID or exact name, required
	Notes string
}

// FitOutput carries a fit together with its undo state.
type FitOutput struct {
	Fit      FitView `json:"fit"`
	CanUndo  bool    `json:"can_undo"`
	CanRedo  bool    `json:"can_redo"`
	UndoName string  `json:"undo_name,omitempty"`
	RedoName string  `json:"redo_name,omitempty"`
}

// CreateFit creates an empty fit on a hull.
func (w *Workbench) CreateFit(ctx context.Context, input CreateFitInput) (*FitOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	ship, err := w.resolveItem(input.Ship)
	if err != nil {
		return nil, err
	}
	if ship.Category != fit.CategoryHull {
		return nil, errors.NewNotAHull(ship.Name)
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	f := fit.New(id, name, ship)
	f.Notes = input.Notes
	w.session.Add(f)
	if err := w.persist(ctx, id); err != nil {
		return nil, err
	}
	w.log.Info("fit created", "fit_id", id, "ship", ship.Name)
	return w.fitOutput(f), nil
}

func (w *Workbench) fitOutput(f *fit.Fit) *FitOutput {
	h := w.history(f.ID)
	return &FitOutput{
		Fit:      newFitView(f),
		CanUndo:  h.CanUndo(),
		CanRedo:  h.CanRedo(),
		UndoName: h.UndoName(),
		RedoName: h.RedoName(),
	}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.NewInvalidRequest("name is required")
	}
	if len([]rune(name)) > MaxNameChars {
		return "", errors.NewInvalidRequest("name must be at most 200 characters")
	}
	return name, nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
