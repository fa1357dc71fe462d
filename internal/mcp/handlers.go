package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/loadout/internal/errors"
	"github.com/hpungsan/loadout/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	w *ops.Workbench
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(w *ops.Workbench) *Handlers {
	return &Handlers{w: w}
}

// Request types for each tool

// FitCreateRequest represents the arguments for fit_create.
type FitCreateRequest struct {
	Name  string `json:"name"`
	Ship  string `json:"ship"`
	Notes string `json:"notes,omitempty"`
}

// FitIDRequest represents the arguments for tools addressing a fit by id.
type FitIDRequest struct {
	ID string `json:"id"`
}

// FitListRequest represents the arguments for fit_list.
type FitListRequest struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// FitUpdateRequest represents the arguments for fit_update.
type FitUpdateRequest struct {
	ID    string  `json:"id"`
	Name  *string `json:"name,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// ModuleRequest represents the arguments for module_add and projected_add.
type ModuleRequest struct {
	FitID string `json:"fit_id"`
	Item  string `json:"item"`
}

// PositionsRequest represents the arguments for the remove tools.
type PositionsRequest struct {
	FitID     string `json:"fit_id"`
	Positions []int  `json:"positions"`
}

// MetasRequest represents the arguments for the metas tools.
type MetasRequest struct {
	FitID     string `json:"fit_id"`
	Positions []int  `json:"positions"`
	Item      string `json:"item"`
}

// StatesRequest represents the arguments for module_states.
type StatesRequest struct {
	FitID     string `json:"fit_id"`
	Positions []int  `json:"positions"`
	State     string `json:"state"`
}

// HistoryRequest represents the arguments for history_undo and history_redo.
type HistoryRequest struct {
	FitID string `json:"fit_id"`
}

// ItemRequest represents the arguments for item_variations.
type ItemRequest struct {
	Item string `json:"item"`
}

// Handler implementations

// HandleFitCreate handles the fit_create tool call.
func (h *Handlers) HandleFitCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FitCreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.CreateFit(ctx, ops.CreateFitInput{
		Name:  input.Name,
		Ship:  input.Ship,
		Notes: input.Notes,
	}))
}

// HandleFitFetch handles the fit_fetch tool call.
func (h *Handlers) HandleFitFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FitIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.FetchFit(ctx, ops.FetchFitInput{ID: input.ID}))
}

// HandleFitList handles the fit_list tool call.
func (h *Handlers) HandleFitList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FitListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.ListFits(ctx, ops.ListFitsInput{Limit: input.Limit, Offset: input.Offset}))
}

// HandleFitUpdate handles the fit_update tool call.
func (h *Handlers) HandleFitUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FitUpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.UpdateFit(ctx, ops.UpdateFitInput{
		ID:    input.ID,
		Name:  input.Name,
		Notes: input.Notes,
	}))
}

// HandleFitDelete handles the fit_delete tool call.
func (h *Handlers) HandleFitDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FitIDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.DeleteFit(ctx, ops.DeleteFitInput{ID: input.ID}))
}

// HandleModuleAdd handles the module_add tool call.
func (h *Handlers) HandleModuleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ModuleRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.AddModule(ctx, ops.ModuleInput{FitID: input.FitID, Item: input.Item}))
}

// HandleModuleRemove handles the module_remove tool call.
func (h *Handlers) HandleModuleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PositionsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.RemoveModules(ctx, ops.PositionsInput{FitID: input.FitID, Positions: input.Positions}))
}

// HandleModuleMetas handles the module_metas tool call.
func (h *Handlers) HandleModuleMetas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MetasRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.ChangeModuleMetas(ctx, ops.MetasInput{
		FitID:     input.FitID,
		Positions: input.Positions,
		Item:      input.Item,
	}))
}

// HandleModuleStates handles the module_states tool call.
func (h *Handlers) HandleModuleStates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[StatesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.ChangeModuleStates(ctx, ops.StatesInput{
		FitID:     input.FitID,
		Positions: input.Positions,
		State:     input.State,
	}))
}

// HandleProjectedAdd handles the projected_add tool call.
func (h *Handlers) HandleProjectedAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ModuleRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.AddProjected(ctx, ops.ModuleInput{FitID: input.FitID, Item: input.Item}))
}

// HandleProjectedRemove handles the projected_remove tool call.
func (h *Handlers) HandleProjectedRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PositionsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.RemoveProjected(ctx, ops.PositionsInput{FitID: input.FitID, Positions: input.Positions}))
}

// HandleProjectedMetas handles the projected_metas tool call.
func (h *Handlers) HandleProjectedMetas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[MetasRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.ChangeProjectedMetas(ctx, ops.MetasInput{
		FitID:     input.FitID,
		Positions: input.Positions,
		Item:      input.Item,
	}))
}

// HandleHistoryUndo handles the history_undo tool call.
func (h *Handlers) HandleHistoryUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.Undo(ctx, ops.HistoryInput{FitID: input.FitID}))
}

// HandleHistoryRedo handles the history_redo tool call.
func (h *Handlers) HandleHistoryRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.Redo(ctx, ops.HistoryInput{FitID: input.FitID}))
}

// HandleItemVariations handles the item_variations tool call.
func (h *Handlers) HandleItemVariations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ItemRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return respond(h.w.Variations(ctx, ops.VariationsInput{Item: input.Item}))
}

// Result helpers

// respond converts an ops result into a tool result.
func respond[T any](result *T, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var lErr *errors.LoadoutError
	if stderrors.As(err, &lErr) {
		errorObj := map[string]any{
			"code":    lErr.Code,
			"message": lErr.Message,
			"status":  lErr.Status,
		}
		if lErr.Code != errors.ErrInternal && lErr.Details != nil {
			errorObj["details"] = lErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
