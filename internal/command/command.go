// Package command implements undoable fit mutations.
//
// Calc commands are mutation primitives: each changes one module sequence,
// recalculates, reconciles states and commits only when asked to. Gui
// commands compose primitives through an InternalHistory and always finish
// with flush, recalc, fill, commit and a FitChanged notification.
//
// Every command reports failure as false. After a successful Do, one Undo
// restores the fit's module sequences and states; Do may then run again.
package command

import (
	"context"
	"log/slog"

	"github.com/hpungsan/loadout/internal/events"
	"github.com/hpungsan/loadout/internal/fit"
)

// Command is an undoable action against one fit.
type Command interface {
	Name() string
	Do(ctx context.Context) bool
	Undo(ctx context.Context) bool
}

// FitLookup resolves fits by ID.
type FitLookup interface {
	GetFit(ctx context.Context, id string) (*fit.Fit, error)
}

// Persistence is the transaction boundary. Flush makes pending changes
// queryable without ending the transaction.
type Persistence interface {
	Flush(ctx context.Context) error
	Commit(ctx context.Context) error
}

// Calculator recomputes derived attributes and reconciles module states.
type Calculator interface {
	Recalc(f *fit.Fit)
	Fill(ctx context.Context, fitID string) error
	CheckStates(f *fit.Fit, changed *fit.Module) fit.StateChanges
	RestoreCheckedStates(f *fit.Fit, changes fit.StateChanges)
}

// Notifier receives fit change events.
type Notifier interface {
	Post(ev events.FitChanged)
}

// Env carries the collaborators every command needs.
type Env struct {
	Fits   FitLookup
	Calc   Calculator
	Store  Persistence
	Events Notifier
	Items  fit.ItemSource
	Log    *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

// getFit returns nil when the fit cannot be resolved.
func (e *Env) getFit(ctx context.Context, id string) *fit.Fit {
	f, err := e.Fits.GetFit(ctx, id)
	if err != nil {
		e.logger().Warn("fit lookup failed", "fit_id", id, "error", err)
		return nil
	}
	return f
}

// Persistence failures are logged and do not change a command's outcome.

func (e *Env) flush(ctx context.Context) {
	if err := e.Store.Flush(ctx); err != nil {
		e.logger().Error("flush failed", "error", err)
	}
}

func (e *Env) commit(ctx context.Context) {
	if err := e.Store.Commit(ctx); err != nil {
		e.logger().Error("commit failed", "error", err)
	}
}

// settle flushes, recalculates and reconciles states around changed.
func (e *Env) settle(ctx context.Context, f *fit.Fit, changed *fit.Module) fit.StateChanges {
	e.flush(ctx)
	e.Calc.Recalc(f)
	return e.Calc.CheckStates(f, changed)
}

// restore reapplies checked states, then flushes and recalculates so the
// fit's stats describe the restored states.
func (e *Env) restore(ctx context.Context, f *fit.Fit, changes fit.StateChanges) {
	e.Calc.RestoreCheckedStates(f, changes)
	e.flush(ctx)
	e.Calc.Recalc(f)
}

// compensate commits after a rejected mutation so the transaction does not
// straddle states.
func (e *Env) compensate(ctx context.Context, f *fit.Fit) {
	e.flush(ctx)
	e.Calc.Recalc(f)
	e.commit(ctx)
}

// finalize ends a composite command.
func (e *Env) finalize(ctx context.Context, fitID string) {
	e.flush(ctx)
	if f := e.getFit(ctx, fitID); f != nil {
		e.Calc.Recalc(f)
	}
	if err := e.Calc.Fill(ctx, fitID); err != nil {
		e.logger().Error("fill failed", "fit_id", fitID, "error", err)
	}
	e.commit(ctx)
	if e.Events != nil {
		e.Events.Post(events.FitChanged{FitID: fitID})
	}
}

// build creates a detached module from info using the item's fallback state.
func (e *Env) build(info fit.ModuleInfo) *fit.Module {
	item, ok := e.Items.Item(info.ItemID)
	if !ok {
		return nil
	}
	return info.ToModule(e.Items, fit.FallbackState(item))
}
