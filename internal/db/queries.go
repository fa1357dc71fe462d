package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hpungsan/loadout/internal/errors"
	"github.com/hpungsan/loadout/internal/fit"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FitRow is the stored header of a fit.
type FitRow struct {
	ID        string
	Name      string
	ShipID    int
	Notes     string
	CreatedAt int64
	UpdatedAt int64
}

// FitSummary is a list entry: the fit header plus its last derived stats.
// Stats is nil until the fit has been filled at least once.
type FitSummary struct {
	FitRow
	Stats *fit.Stats
}

// moduleRow is one stored module of either sequence.
type moduleRow struct {
	Kind     fit.SeqKind
	Position int
	ItemID   int
	State    fit.State
	ChargeID int
}

// GetFitRow retrieves a fit header by ID.
func GetFitRow(ctx context.Context, db *sql.DB, id string) (*FitRow, error) {
	return getFitRow(ctx, db, id)
}

func getFitRow(ctx context.Context, q querier, id string) (*FitRow, error) {
	query := `
		SELECT id, name, ship_id, notes, created_at, updated_at
		FROM fits
		WHERE id = ?
	`
	var r FitRow
	err := q.QueryRowContext(ctx, query, id).Scan(
		&r.ID, &r.Name, &r.ShipID, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &r, nil
}

// ListFits returns fits ordered by most recently updated, with the total count.
func ListFits(ctx context.Context, db *sql.DB, limit, offset int) ([]FitSummary, int, error) {
	var total int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fits").Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT f.id, f.name, f.ship_id, f.notes, f.created_at, f.updated_at,
			s.cpu_used, s.cpu_output, s.power_used, s.power_output,
			s.module_count, s.projected_count, s.active_count
		FROM fits f
		LEFT JOIN fit_stats s ON s.fit_id = f.id
		ORDER BY f.updated_at DESC, f.id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var out []FitSummary
	for rows.Next() {
		var (
			s                                FitSummary
			cpuUsed, cpuOut, powUsed, powOut sql.NullFloat64
			modCount, projCount, activeCount sql.NullInt64
		)
		if err := rows.Scan(
			&s.ID, &s.Name, &s.ShipID, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
			&cpuUsed, &cpuOut, &powUsed, &powOut,
			&modCount, &projCount, &activeCount,
		); err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		if cpuUsed.Valid {
			s.Stats = &fit.Stats{
				CPUUsed:        cpuUsed.Float64,
				CPUOutput:      cpuOut.Float64,
				PowerUsed:      powUsed.Float64,
				PowerOutput:    powOut.Float64,
				ModuleCount:    int(modCount.Int64),
				ProjectedCount: int(projCount.Int64),
				ActiveCount:    int(activeCount.Int64),
			}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return out, total, nil
}

// loadModules returns a fit's module rows ordered by kind and position.
func loadModules(ctx context.Context, q querier, fitID string) ([]moduleRow, error) {
	query := `
		SELECT kind, position, item_id, state, charge_id
		FROM fit_modules
		WHERE fit_id = ?
		ORDER BY kind, position
	`
	rows, err := q.QueryContext(ctx, query, fitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []moduleRow
	for rows.Next() {
		var (
			r        moduleRow
			kind     string
			state    string
			chargeID sql.NullInt64
		)
		if err := rows.Scan(&kind, &r.Position, &r.ItemID, &state, &chargeID); err != nil {
			return nil, err
		}
		if kind == fit.SeqProjected.String() {
			r.Kind = fit.SeqProjected
		}
		st, err := fit.ParseState(state)
		if err != nil {
			return nil, fmt.Errorf("fit %s module %d: %w", fitID, r.Position, err)
		}
		r.State = st
		r.ChargeID = int(chargeID.Int64)
		out = append(out, r)
	}
	return out, rows.Err()
}

// upsertFit writes the fit header.
func upsertFit(ctx context.Context, q querier, f *fit.Fit) error {
	query := `
		INSERT INTO fits (id, name, ship_id, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			ship_id = excluded.ship_id,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query, f.ID, f.Name, f.Ship.ID, f.Notes, f.CreatedAt, f.UpdatedAt)
	return err
}

// replaceModules rewrites both module sequences of a fit.
func replaceModules(ctx context.Context, q querier, f *fit.Fit) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM fit_modules WHERE fit_id = ?", f.ID); err != nil {
		return err
	}
	query := `
		INSERT INTO fit_modules (fit_id, kind, position, item_id, state, charge_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for _, seq := range []*fit.ModuleSeq{f.Modules, f.Projected} {
		for pos, m := range seq.All() {
			var charge sql.NullInt64
			if m.Charge != nil {
				charge = sql.NullInt64{Int64: int64(m.Charge.ID), Valid: true}
			}
			if _, err := q.ExecContext(ctx, query,
				f.ID, seq.Kind().String(), pos, m.Item.ID, m.State.String(), charge,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// deleteFit removes a fit and its dependent rows.
func deleteFit(ctx context.Context, q querier, id string) error {
	for _, query := range []string{
		"DELETE FROM fit_stats WHERE fit_id = ?",
		"DELETE FROM fit_modules WHERE fit_id = ?",
		"DELETE FROM fits WHERE id = ?",
	} {
		if _, err := q.ExecContext(ctx, query, id); err != nil {
			return err
		}
	}
	return nil
}

// upsertStats writes the derived stats row of a fit.
func upsertStats(ctx context.Context, q querier, fitID string, s fit.Stats) error {
	query := `
		INSERT INTO fit_stats (
			fit_id, cpu_used, cpu_output, power_used, power_output,
			module_count, projected_count, active_count, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fit_id) DO UPDATE SET
			cpu_used = excluded.cpu_used,
			cpu_output = excluded.cpu_output,
			power_used = excluded.power_used,
			power_output = excluded.power_output,
			module_count = excluded.module_count,
			projected_count = excluded.projected_count,
			active_count = excluded.active_count,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		fitID, s.CPUUsed, s.CPUOutput, s.PowerUsed, s.PowerOutput,
		s.ModuleCount, s.ProjectedCount, s.ActiveCount, time.Now().Unix(),
	)
	return err
}
