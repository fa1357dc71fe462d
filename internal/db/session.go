package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hpungsan/loadout/internal/errors"
	"github.com/hpungsan/loadout/internal/fit"
)

// Session is a unit of work over the fits tables. Loaded fits are tracked in
// an identity map so every caller mutates the same *fit.Fit; Flush writes
// them inside a lazily opened transaction and Commit makes the writes
// durable.
//
// A Session is not safe for concurrent use.
type Session struct {
	db    *sql.DB
	items fit.ItemSource
	log   *slog.Logger
	now   func() int64

	tx      *sql.Tx
	fits    map[string]*fit.Fit
	deleted map[string]bool

	// clean holds the committed fingerprint of each tracked fit; pending holds
	// fingerprints flushed in the open transaction.
	clean   map[string]string
	pending map[string]string
}

// NewSession returns a session resolving module items through items.
func NewSession(db *sql.DB, items fit.ItemSource, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		db:      db,
		items:   items,
		log:     log,
		now:     func() int64 { return time.Now().Unix() },
		fits:    make(map[string]*fit.Fit),
		deleted: make(map[string]bool),
		clean:   make(map[string]string),
		pending: make(map[string]string),
	}
}

func (s *Session) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *Session) begin(ctx context.Context) error {
	if s.tx != nil {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	s.tx = tx
	return nil
}

// GetFit returns the tracked fit, loading it on first access.
func (s *Session) GetFit(ctx context.Context, id string) (*fit.Fit, error) {
	if s.deleted[id] {
		return nil, errors.NewNotFound(id)
	}
	if f, ok := s.fits[id]; ok {
		return f, nil
	}

	row, err := getFitRow(ctx, s.q(), id)
	if err != nil {
		return nil, err
	}
	ship, ok := s.items.Item(row.ShipID)
	if !ok || ship.Category != fit.CategoryHull {
		return nil, errors.NewInternal(fmt.Errorf("fit %s: unknown hull %d", id, row.ShipID))
	}
	rows, err := loadModules(ctx, s.q(), id)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	f := fit.New(row.ID, row.Name, ship)
	f.Notes = row.Notes
	f.CreatedAt = row.CreatedAt
	f.UpdatedAt = row.UpdatedAt
	for _, r := range rows {
		s.attach(f, r)
	}

	s.fits[id] = f
	s.clean[id] = fingerprint(f)
	return f, nil
}

// attach rebuilds a stored module row. Rows that no longer resolve against
// the catalog are dropped with a warning and disappear on the next write.
func (s *Session) attach(f *fit.Fit, r moduleRow) {
	state := r.State
	m := fit.ModuleInfo{ItemID: r.ItemID, State: &state, ChargeID: r.ChargeID}.ToModule(s.items, fit.StateOffline)
	if m == nil {
		s.log.Warn("dropping unknown module", "fit_id", f.ID, "item_id", r.ItemID, "position", r.Position)
		return
	}
	seq := f.Modules
	if r.Kind == fit.SeqProjected {
		seq = f.Projected
	}
	if _, err := seq.Append(m); err != nil {
		s.log.Warn("dropping stored module", "fit_id", f.ID, "item_id", r.ItemID, "error", err)
	}
}

// Add tracks a new fit. It is written on the next flush.
func (s *Session) Add(f *fit.Fit) {
	delete(s.deleted, f.ID)
	s.fits[f.ID] = f
}

// Delete queues removal of a fit. It is applied on the next flush and
// reported as not found from then on.
func (s *Session) Delete(id string) {
	delete(s.fits, id)
	delete(s.clean, id)
	delete(s.pending, id)
	s.deleted[id] = true
}

// Flush writes queued deletions and every changed tracked fit without
// committing.
func (s *Session) Flush(ctx context.Context) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	for id := range s.deleted {
		if err := deleteFit(ctx, s.tx, id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
	}
	for id, f := range s.fits {
		fp := fingerprint(f)
		last, ok := s.pending[id]
		if !ok {
			last = s.clean[id]
		}
		if fp == last {
			continue
		}
		f.UpdatedAt = s.now()
		if f.CreatedAt == 0 {
			f.CreatedAt = f.UpdatedAt
		}
		if err := upsertFit(ctx, s.tx, f); err != nil {
			return fmt.Errorf("write %s: %w", id, err)
		}
		if err := replaceModules(ctx, s.tx, f); err != nil {
			return fmt.Errorf("write modules %s: %w", id, err)
		}
		s.pending[id] = fp
	}
	return nil
}

// SaveStats writes the derived stats row in the open transaction. The fit
// row must already have been flushed.
func (s *Session) SaveStats(ctx context.Context, fitID string, stats fit.Stats) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	return upsertStats(ctx, s.tx, fitID, stats)
}

// Commit flushes and commits the open transaction. On failure the
// transaction is rolled back while tracked fits are kept, so the next flush
// rewrites them.
func (s *Session) Commit(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		s.abort()
		return err
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		clear(s.pending)
		return fmt.Errorf("commit: %w", err)
	}
	for id, fp := range s.pending {
		s.clean[id] = fp
	}
	clear(s.pending)
	clear(s.deleted)
	return nil
}

func (s *Session) abort() {
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	clear(s.pending)
}

// Rollback discards the open transaction and every tracked fit.
func (s *Session) Rollback() {
	s.abort()
	clear(s.fits)
	clear(s.deleted)
	clear(s.clean)
}

// fingerprint summarizes the persisted fields of a fit.
func fingerprint(f *fit.Fit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\x00%d\x00%s", f.Name, f.Ship.ID, f.Notes)
	for _, seq := range []*fit.ModuleSeq{f.Modules, f.Projected} {
		b.WriteString("|")
		for _, m := range seq.All() {
			charge := 0
			if m.Charge != nil {
				charge = m.Charge.ID
			}
			fmt.Fprintf(&b, "%d:%d:%d;", m.Item.ID, m.State, charge)
		}
	}
	return b.String()
}
