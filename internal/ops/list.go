package ops

import (
	"context"

	"github.com/hpungsan/loadout/internal/db"
)

// ListFitsInput contains parameters for the ListFits operation.
type ListFitsInput struct {
	Limit  int // default: 20, max: 100
	Offset int // default: 0
}

// FitSummary is a list entry. Stats is nil for fits never recalculated.
type FitSummary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	ShipID    int        `json:"ship_id"`
	ShipName  string     `json:"ship_name"`
	CreatedAt int64      `json:"created_at"`
	UpdatedAt int64      `json:"updated_at"`
	Stats     *StatsView `json:"stats,omitempty"`
}

// ListFitsOutput contains the result of the ListFits operation.
type ListFitsOutput struct {
	Items      []FitSummary `json:"items"`
	Pagination Pagination   `json:"pagination"`
	Sort       string       `json:"sort"`
}

// ListFits retrieves fit summaries with pagination, most recently updated first.
func (w *Workbench) ListFits(ctx context.Context, input ListFitsInput) (*ListFitsOutput, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	limit, offset := clampPage(input.Limit, input.Offset)

	rows, total, err := db.ListFits(ctx, w.db, limit, offset)
	if err != nil {
		return nil, err
	}

	// Ensure we return an empty array rather than nil
	items := make([]FitSummary, 0, len(rows))
	for _, r := range rows {
		s := FitSummary{
			ID:        r.ID,
			Name:      r.Name,
			ShipID:    r.ShipID,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
		if ship, ok := w.items.Item(r.ShipID); ok {
			s.ShipName = ship.Name
		}
		if r.Stats != nil {
			v := newStatsView(*r.Stats)
			s.Stats = &v
		}
		items = append(items, s)
	}

	return &ListFitsOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "updated_at_desc",
	}, nil
}
