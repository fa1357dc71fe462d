// Package ops is the service layer shared by the CLI, MCP server and web UI.
package ops

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/loadout/internal/calc"
	"github.com/hpungsan/loadout/internal/catalog"
	"github.com/hpungsan/loadout/internal/command"
	"github.com/hpungsan/loadout/internal/config"
	"github.com/hpungsan/loadout/internal/db"
	"github.com/hpungsan/loadout/internal/errors"
	"github.com/hpungsan/loadout/internal/events"
	"github.com/hpungsan/loadout/internal/fit"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Workbench owns the persistence session, the calculation engine and one
// undo history per fit. Every operation holds the workbench lock, so a
// command's Do or Undo finishes before the next operation starts.
type Workbench struct {
	mu sync.Mutex

	db      *sql.DB
	cfg     *config.Config
	items   *catalog.Catalog
	session *db.Session
	engine  *calc.Engine
	bus     *events.Bus
	env     *command.Env
	log     *slog.Logger

	histories map[string]*command.History
	observer  CommandObserver
}

// CommandObserver is told about every command run, undone or redone.
// Action is one of "do", "undo" or "redo".
type CommandObserver interface {
	ObserveCommand(name, action string, applied bool, elapsed time.Duration)
}

// NewWorkbench wires a workbench over an initialized database.
func NewWorkbench(database *sql.DB, items *catalog.Catalog, cfg *config.Config, log *slog.Logger) *Workbench {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	session := db.NewSession(database, items, log)
	engine := calc.NewEngine(session, session)
	bus := events.NewBus()

	w := &Workbench{
		db:        database,
		cfg:       cfg,
		items:     items,
		session:   session,
		engine:    engine,
		bus:       bus,
		log:       log,
		histories: make(map[string]*command.History),
	}
	w.env = &command.Env{
		Fits:   session,
		Calc:   engine,
		Store:  session,
		Events: bus,
		Items:  items,
		Log:    log,
	}
	bus.Subscribe(func(ev events.FitChanged) {
		log.Debug("fit changed", "fit_id", ev.FitID)
	})
	return w
}

// Events returns the bus FitChanged notifications are posted to.
func (w *Workbench) Events() *events.Bus { return w.bus }

// SetObserver installs o to be told about every command outcome.
func (w *Workbench) SetObserver(o CommandObserver) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observer = o
}

// Catalog returns the item catalog the workbench resolves against.
func (w *Workbench) Catalog() *catalog.Catalog { return w.items }

// Close discards any open transaction. The database is owned by the caller.
func (w *Workbench) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.session.Rollback()
}

// history returns the fit's undo stack, creating it on first use.
func (w *Workbench) history(fitID string) *command.History {
	h, ok := w.histories[fitID]
	if !ok {
		h = command.NewHistory(w.cfg.HistoryMaxDepth)
		w.histories[fitID] = h
	}
	return h
}

// loadFit validates the ID and resolves the fit through the session.
func (w *Workbench) loadFit(ctx context.Context, id string) (*fit.Fit, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewInvalidRequest("fit_id is required")
	}
	return w.session.GetFit(ctx, id)
}

// resolveItem looks up a catalog item by numeric ID or exact name.
func (w *Workbench) resolveItem(ref string) (*fit.Item, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.NewInvalidRequest("item is required")
	}
	item, ok := w.items.Lookup(ref)
	if !ok {
		return nil, errors.NewItemNotFound(ref)
	}
	return item, nil
}

// persist flushes, fills stats and commits a non-command change. On failure
// the session is rolled back so the next read reloads from disk.
func (w *Workbench) persist(ctx context.Context, fitID string) error {
	if err := w.session.Flush(ctx); err != nil {
		w.session.Rollback()
		return errors.NewInternal(err)
	}
	if fitID != "" {
		if err := w.engine.Fill(ctx, fitID); err != nil {
			w.session.Rollback()
			return errors.NewInternal(err)
		}
	}
	if err := w.session.Commit(ctx); err != nil {
		w.session.Rollback()
		return errors.NewInternal(err)
	}
	return nil
}

// CommandOutput is the result of every undoable operation.
type CommandOutput struct {
	Applied  bool    `json:"applied"`
	Command  string  `json:"command"`
	CanUndo  bool    `json:"can_undo"`
	CanRedo  bool    `json:"can_redo"`
	UndoName string  `json:"undo_name,omitempty"`
	RedoName string  `json:"redo_name,omitempty"`
	Fit      FitView `json:"fit"`
}

// run submits cmd to the fit's history. A command that reports failure is
// not pushed, and the output says so through Applied.
func (w *Workbench) run(ctx context.Context, fitID string, cmd command.Command) (*CommandOutput, error) {
	h := w.history(fitID)
	start := time.Now()
	applied := h.Submit(ctx, cmd)
	w.observe(cmd.Name(), "do", applied, start)
	w.log.Debug("command", "fit_id", fitID, "command", cmd.Name(), "applied", applied)
	return w.commandOutput(ctx, fitID, cmd.Name(), applied)
}

func (w *Workbench) observe(name, action string, applied bool, start time.Time) {
	if w.observer != nil {
		w.observer.ObserveCommand(name, action, applied, time.Since(start))
	}
}

func (w *Workbench) commandOutput(ctx context.Context, fitID, name string, applied bool) (*CommandOutput, error) {
	f, err := w.session.GetFit(ctx, fitID)
	if err != nil {
		return nil, err
	}
	h := w.history(fitID)
	return &CommandOutput{
		Applied:  applied,
		Command:  name,
		CanUndo:  h.CanUndo(),
		CanRedo:  h.CanRedo(),
		UndoName: h.UndoName(),
		RedoName: h.RedoName(),
		Fit:      newFitView(f),
	}, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit, max(offset, 0)
}
