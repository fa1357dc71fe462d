package web

import (
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hpungsan/loadout/internal/catalog"
	"github.com/hpungsan/loadout/internal/db"
	"github.com/hpungsan/loadout/internal/errors"
	"github.com/hpungsan/loadout/internal/metrics"
	"github.com/hpungsan/loadout/internal/ops"
)

func setupTest(t *testing.T) *Handlers {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := ops.NewWorkbench(database, catalog.Default(), nil, log)
	t.Cleanup(w.Close)

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		t.Fatalf("template sub-FS: %v", err)
	}

	return &Handlers{
		w:        w,
		log:      log,
		renderer: NewRenderer(templateSub, "test", log),
	}
}

// serve routes req through the real mux so path values are populated.
func serve(h *Handlers, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.routes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// seedFit creates a Tengu fit and returns its ID.
func seedFit(t *testing.T, h *Handlers, name, notes string) string {
	t.Helper()
	out, err := h.w.CreateFit(context.Background(), ops.CreateFitInput{Name: name, Ship: "Tengu", Notes: notes})
	if err != nil {
		t.Fatalf("seed fit %q: %v", name, err)
	}
	return out.Fit.ID
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// --- HandleList ---

func TestHandleList_Default(t *testing.T) {
	h := setupTest(t)
	seedFit(t, h, "alpha", "")

	rec := serve(h, httptest.NewRequest("GET", "/fits", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "alpha") {
		t.Error("expected fit name 'alpha' in response")
	}
	if !strings.Contains(body, "Tengu") {
		t.Error("expected hull name in response")
	}
	if !strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("expected full layout")
	}
}

func TestHandleList_Empty(t *testing.T) {
	h := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/fits", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No fits yet") {
		t.Error("expected empty state message")
	}
}

func TestHandleList_InvalidLimitFallsBack(t *testing.T) {
	h := setupTest(t)
	seedFit(t, h, "alpha", "")

	rec := serve(h, httptest.NewRequest("GET", "/fits?limit=notanumber&offset=bad", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRoot_RedirectsToList(t *testing.T) {
	h := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/fits" {
		t.Errorf("Location = %q, want /fits", loc)
	}
}

// --- HandleDetail ---

func TestHandleDetail_Found(t *testing.T) {
	h := setupTest(t)
	id := seedFit(t, h, "detail-fit", "## Plan\nKite at **60km**.")

	rec := serve(h, httptest.NewRequest("GET", "/fits/"+id, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "detail-fit") {
		t.Error("expected fit name in detail page")
	}
	if !strings.Contains(body, "<h2>Plan</h2>") {
		t.Error("expected notes rendered as markdown")
	}
	if !strings.Contains(body, "<strong>60km</strong>") {
		t.Error("expected emphasis rendered in notes")
	}
	if !strings.Contains(body, "No modules fitted") {
		t.Error("expected empty module rack")
	}
}

func TestHandleDetail_RawHTMLNotRendered(t *testing.T) {
	h := setupTest(t)
	id := seedFit(t, h, "xss", "<script>alert(1)</script>")

	rec := serve(h, httptest.NewRequest("GET", "/fits/"+id, nil))

	if strings.Contains(rec.Body.String(), "<script>alert(1)</script>") {
		t.Error("raw HTML in notes must not be rendered")
	}
}

func TestHandleDetail_NotFound(t *testing.T) {
	h := setupTest(t)

	rec := serve(h, httptest.NewRequest("GET", "/fits/01NOPE", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDetail_EmptyID(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/fits/", nil)
	rec := httptest.NewRecorder()
	h.HandleDetail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleDetail_JSON(t *testing.T) {
	h := setupTest(t)
	id := seedFit(t, h, "json-fit", "")

	req := httptest.NewRequest("GET", "/fits/"+id, nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out ops.FitOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Fit.ID != id {
		t.Errorf("id = %q, want %q", out.Fit.ID, id)
	}
	if out.Fit.Stats.CPUOutput == 0 {
		t.Error("expected hull CPU output in stats")
	}
}

// --- HandleDelete ---

func TestHandleDelete_JSONRequest(t *testing.T) {
	h := setupTest(t)
	id := seedFit(t, h, "to-delete", "")

	req := httptest.NewRequest("DELETE", "/fits/"+id, nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result["deleted"] != true {
		t.Errorf("deleted = %v, want true", result["deleted"])
	}

	rec = serve(h, httptest.NewRequest("GET", "/fits/"+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", rec.Code)
	}
}

func TestHandleDelete_DefaultRedirect(t *testing.T) {
	h := setupTest(t)
	id := seedFit(t, h, "redirect-delete", "")

	rec := serve(h, httptest.NewRequest("DELETE", "/fits/"+id, nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/fits" {
		t.Errorf("Location = %q, want /fits", loc)
	}
}

func TestHandleDelete_NotFound_JSON(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("DELETE", "/fits/01NOPE", nil)
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	errObj, _ := result["error"].(map[string]any)
	if errObj["code"] != string(errors.ErrNotFound) {
		t.Errorf("code = %v, want %s", errObj["code"], errors.ErrNotFound)
	}
}

// --- commands ---

func TestHandleAddModule_RedirectsAndUndoes(t *testing.T) {
	h := setupTest(t)
	id := seedFit(t, h, "cmd", "")

	rec := serve(h, postForm("/fits/"+id+"/modules", url.Values{"item": {"Heavy Missile Launcher II"}}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/fits/"+id {
		t.Errorf("Location = %q, want /fits/%s", loc, id)
	}

	rec = serve(h, httptest.NewRequest("GET", "/fits/"+id, nil))
	body := rec.Body.String()
	if !strings.Contains(body, "Heavy Missile Launcher II") {
		t.Error("expected fitted module on detail page")
	}
	if !strings.Contains(body, "Undo Add Module") {
		t.Error("expected undo button naming the command")
	}

	req := postForm("/fits/"+id+"/undo", nil)
	req.Header.Set("Accept", "application/json")
	rec = serve(h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("undo status = %d, want 200", rec.Code)
	}
	var out ops.CommandOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !out.Applied || len(out.Fit.Modules) != 0 || !out.CanRedo {
		t.Errorf("undo output = %+v, want applied with empty rack and redo available", out)
	}
}

func TestHandleModuleState_JSON(t *testing.T) {
	h := setupTest(t)
	id := seedFit(t, h, "state", "")
	serve(h, postForm("/fits/"+id+"/modules", url.Values{"item": {"Heavy Missile Launcher II"}}))

	req := postForm("/fits/"+id+"/modules/state", url.Values{"position": {"0"}, "state": {"offline"}})
	req.Header.Set("Accept", "application/json")
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out ops.CommandOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(out.Fit.Modules) != 1 || out.Fit.Modules[0].State != "offline" {
		t.Errorf("modules = %+v, want one offline module", out.Fit.Modules)
	}
}

func TestHandleProjected_AddAndRemove(t *testing.T) {
	h := setupTest(t)
	id := seedFit(t, h, "proj", "")

	rec := serve(h, postForm("/fits/"+id+"/projected", url.Values{"item": {"Stasis Webifier I"}}))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add status = %d, want 303", rec.Code)
	}

	req := postForm("/fits/"+id+"/projected/remove", url.Values{"position": {"0"}})
	req.Header.Set("Accept", "application/json")
	rec = serve(h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove status = %d, want 200", rec.Code)
	}
	var out ops.CommandOutput
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !out.Applied || len(out.Fit.Projected) != 0 {
		t.Errorf("output = %+v, want applied with nothing projected", out)
	}
}

func TestHandleCommand_NotAppliedAddsFlash(t *testing.T) {
	h := setupTest(t)
	id := seedFit(t, h, "flash", "")

	rec := serve(h, postForm("/fits/"+id+"/modules", url.Values{"item": {"Scourge Heavy Missile"}}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.Contains(loc, "flash=") {
		t.Fatalf("Location = %q, want flash parameter", loc)
	}

	rec = serve(h, httptest.NewRequest("GET", loc, nil))
	if !strings.Contains(rec.Body.String(), "had no effect") {
		t.Error("expected flash message on detail page")
	}
}

func TestHandleUndo_NothingToUndo(t *testing.T) {
	h := setupTest(t)
	id := seedFit(t, h, "empty-history", "")

	rec := serve(h, postForm("/fits/"+id+"/undo", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestHandleRemoveModule_BadPosition(t *testing.T) {
	h := setupTest(t)
	id := seedFit(t, h, "bad-pos", "")

	for _, pos := range []string{"", "abc", "-1"} {
		rec := serve(h, postForm("/fits/"+id+"/modules/remove", url.Values{"position": {pos}}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("position %q: status = %d, want 400", pos, rec.Code)
		}
	}
}

// --- error rendering ---

func TestErrorRendering_JSONError(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/fits/x", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.renderer.renderError(rec, req, errors.NewInvalidRequest("bad input"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	errObj, _ := result["error"].(map[string]any)
	if errObj["message"] != "bad input" {
		t.Errorf("message = %v, want 'bad input'", errObj["message"])
	}
}

func TestErrorRendering_FullErrorPage(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/fits/x", nil)
	rec := httptest.NewRecorder()
	h.renderer.renderError(rec, req, errors.NewNotFound("x"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("expected full error page")
	}
	if !strings.Contains(body, "Error 404") {
		t.Error("expected status code in error page")
	}
}

func TestErrorRendering_PlainErrorIsInternal(t *testing.T) {
	h := setupTest(t)

	req := httptest.NewRequest("GET", "/fits", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.renderer.renderError(rec, req, io.ErrUnexpectedEOF)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "unexpected EOF") {
		t.Error("internal error details must not leak")
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := securityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "same-origin",
	}
	for k, v := range want {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if !strings.Contains(rec.Header().Get("Content-Security-Policy"), "default-src 'self'") {
		t.Error("expected restrictive CSP")
	}
}

func TestNewServer_ServesStatic(t *testing.T) {
	h := setupTest(t)
	srv, err := NewServer(h.w, nil, h.log, "test", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/static/style.css", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "--accent") {
		t.Error("expected stylesheet content")
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("metrics without recorder: status = %d, want 404", rec.Code)
	}
}

func TestNewServer_Metrics(t *testing.T) {
	h := setupTest(t)
	rec := metrics.New()
	h.w.SetObserver(rec)
	h.w.Events().Subscribe(rec.FitChanged)

	srv, err := NewServer(h.w, rec, h.log, "test", "127.0.0.1", 0)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	id := seedFit(t, h, "metrics", "")
	srv.Handler.ServeHTTP(httptest.NewRecorder(), postForm("/fits/"+id+"/modules", url.Values{"item": {"Heavy Missile Launcher I"}}))

	resp := httptest.NewRecorder()
	srv.Handler.ServeHTTP(resp, httptest.NewRequest("GET", "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `loadout_commands_total{action="do",applied="true",command="Add Module"} 1`) {
		t.Error("expected command counter in exposition")
	}
	if !strings.Contains(body, "loadout_fit_changes_total 1") {
		t.Error("expected one fit change")
	}
}

// --- helpers ---

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 20},
		{"limit=5", 5},
		{"limit=abc", 20},
		{"limit=-3", -3},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/fits?"+tt.query, nil)
		if got := parseIntParam(req, "limit", 20); got != tt.want {
			t.Errorf("parseIntParam(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{375, "375"},
		{12.5, "12.5"},
		{0, "0"},
		{33.333, "33.3"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("01ARZ3NDEKTSV4RRFFQ69G5FAV"); got != "01ARZ3NDEK..." {
		t.Errorf("shortID = %q", got)
	}
	if got := shortID("short"); got != "short" {
		t.Errorf("shortID = %q, want unchanged", got)
	}
}
