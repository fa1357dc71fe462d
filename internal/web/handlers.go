package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hpungsan/loadout/internal/errors"
	"github.com/hpungsan/loadout/internal/ops"
)

// states offered by the detail page's state selector.
var states = []string{"offline", "online", "active", "overheated"}

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	w        *ops.Workbench
	log      *slog.Logger
	renderer *Renderer
}

// HandleList handles GET /fits — list fits, most recently updated first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.w.ListFits(r.Context(), ops.ListFitsInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, "list", ListPageData{
		PageData: PageData{
			Title:   "Fits",
			Version: h.renderer.version,
			Nav:     "fits",
		},
		Items:      result.Items,
		Pagination: result.Pagination,
	})
}

// HandleDetail handles GET /fits/{id} — view a single fit.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("fit ID is required"))
		return
	}

	out, err := h.w.FetchFit(r.Context(), ops.FetchFitInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}

	h.renderer.renderPage(w, "detail", DetailPageData{
		PageData: PageData{
			Title:   out.Fit.Name,
			Version: h.renderer.version,
			Nav:     "fits",
		},
		Fit:       out,
		NotesHTML: renderMarkdown(out.Fit.Notes),
		States:    states,
		Flash:     r.URL.Query().Get("flash"),
	})
}

// HandleDelete handles DELETE /fits/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("fit ID is required"))
		return
	}

	result, err := h.w.DeleteFit(r.Context(), ops.DeleteFitInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/fits", http.StatusFound)
}

// HandleUndo handles POST /fits/{id}/undo.
func (h *Handlers) HandleUndo(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, id string) (*ops.CommandOutput, error) {
		return h.w.Undo(ctx, ops.HistoryInput{FitID: id})
	})
}

// HandleRedo handles POST /fits/{id}/redo.
func (h *Handlers) HandleRedo(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, id string) (*ops.CommandOutput, error) {
		return h.w.Redo(ctx, ops.HistoryInput{FitID: id})
	})
}

// HandleAddModule handles POST /fits/{id}/modules with form field item.
func (h *Handlers) HandleAddModule(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, id string) (*ops.CommandOutput, error) {
		return h.w.AddModule(ctx, ops.ModuleInput{FitID: id, Item: r.FormValue("item")})
	})
}

// HandleRemoveModule handles POST /fits/{id}/modules/remove with form field position.
func (h *Handlers) HandleRemoveModule(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, id string) (*ops.CommandOutput, error) {
		pos, err := formPosition(r)
		if err != nil {
			return nil, err
		}
		return h.w.RemoveModules(ctx, ops.PositionsInput{FitID: id, Positions: []int{pos}})
	})
}

// HandleModuleState handles POST /fits/{id}/modules/state with form fields
// position and state.
func (h *Handlers) HandleModuleState(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, id string) (*ops.CommandOutput, error) {
		pos, err := formPosition(r)
		if err != nil {
			return nil, err
		}
		return h.w.ChangeModuleStates(ctx, ops.StatesInput{
			FitID:     id,
			Positions: []int{pos},
			State:     r.FormValue("state"),
		})
	})
}

// HandleAddProjected handles POST /fits/{id}/projected with form field item.
func (h *Handlers) HandleAddProjected(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, id string) (*ops.CommandOutput, error) {
		return h.w.AddProjected(ctx, ops.ModuleInput{FitID: id, Item: r.FormValue("item")})
	})
}

// HandleRemoveProjected handles POST /fits/{id}/projected/remove with form field position.
func (h *Handlers) HandleRemoveProjected(w http.ResponseWriter, r *http.Request) {
	h.command(w, r, func(ctx context.Context, id string) (*ops.CommandOutput, error) {
		pos, err := formPosition(r)
		if err != nil {
			return nil, err
		}
		return h.w.RemoveProjected(ctx, ops.PositionsInput{FitID: id, Positions: []int{pos}})
	})
}

// command runs a form-submitted operation. JSON clients get the command
// output; browsers are redirected back to the detail page, with a flash
// message when the command did not apply.
func (h *Handlers) command(w http.ResponseWriter, r *http.Request, run func(context.Context, string) (*ops.CommandOutput, error)) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("fit ID is required"))
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("invalid form data"))
		return
	}

	out, err := run(r.Context(), id)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}

	target := "/fits/" + url.PathEscape(id)
	if !out.Applied {
		target += "?flash=" + url.QueryEscape(out.Command+" had no effect")
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func formPosition(r *http.Request) (int, error) {
	s := strings.TrimSpace(r.FormValue("position"))
	pos, err := strconv.Atoi(s)
	if err != nil || pos < 0 {
		return 0, errors.NewInvalidRequest("position must be a non-negative integer")
	}
	return pos, nil
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
