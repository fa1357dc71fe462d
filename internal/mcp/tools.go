package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Shared property options.
var (
	fitIDProp = mcp.WithString("fit_id",
		mcp.Required(),
		mcp.Description("Fit ID (ULID)"),
	)
	positionsProp = mcp.WithArray("positions",
		mcp.Required(),
		mcp.Description("Zero-based module positions"),
		mcp.Items(map[string]any{"type": "integer", "minimum": 0}),
	)
	itemProp = mcp.WithString("item",
		mcp.Required(),
		mcp.Description("Catalog item ID or exact name (case-insensitive)"),
	)
)

var fitCreateToolDef = mcp.NewTool("fit_create",
	mcp.WithDescription("Create an empty fit on a hull."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Fit name")),
	mcp.WithString("ship", mcp.Required(), mcp.Description("Hull item ID or exact name")),
	mcp.WithString("notes", mcp.Description("Markdown notes")),
)

var fitFetchToolDef = mcp.NewTool("fit_fetch",
	mcp.WithDescription("Fetch a fit with its modules, projected modules, stats and undo state."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Fit ID")),
)

var fitListToolDef = mcp.NewTool("fit_list",
	mcp.WithDescription("List fits, most recently updated first."),
	mcp.WithNumber("limit", mcp.Description("Max results (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Results to skip")),
)

var fitUpdateToolDef = mcp.NewTool("fit_update",
	mcp.WithDescription("Rename a fit or replace its notes. Not undoable."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Fit ID")),
	mcp.WithString("name", mcp.Description("New name")),
	mcp.WithString("notes", mcp.Description("New markdown notes")),
)

var fitDeleteToolDef = mcp.NewTool("fit_delete",
	mcp.WithDescription("Delete a fit permanently. Its undo history is dropped."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Fit ID")),
)

var moduleAddToolDef = mcp.NewTool("module_add",
	mcp.WithDescription("Fit a module or subsystem. A subsystem replaces the one in its slot group."),
	fitIDProp,
	itemProp,
)

var moduleRemoveToolDef = mcp.NewTool("module_remove",
	mcp.WithDescription("Remove fitted modules by position."),
	fitIDProp,
	positionsProp,
)

var moduleMetasToolDef = mcp.NewTool("module_metas",
	mcp.WithDescription("Swap fitted modules for another variation of the same family. State and charge carry over when valid."),
	fitIDProp,
	positionsProp,
	itemProp,
)

var moduleStatesToolDef = mcp.NewTool("module_states",
	mcp.WithDescription("Set the state of fitted modules. Conflicting modules are downgraded."),
	fitIDProp,
	positionsProp,
	mcp.WithString("state",
		mcp.Required(),
		mcp.Enum("offline", "online", "active", "overheated"),
		mcp.Description("Target state, clamped to what each module supports"),
	),
)

var projectedAddToolDef = mcp.NewTool("projected_add",
	mcp.WithDescription("Project a module onto the fit."),
	fitIDProp,
	itemProp,
)

var projectedRemoveToolDef = mcp.NewTool("projected_remove",
	mcp.WithDescription("Remove projected modules by position."),
	fitIDProp,
	positionsProp,
)

var projectedMetasToolDef = mcp.NewTool("projected_metas",
	mcp.WithDescription("Swap projected modules for another variation, keeping their positions."),
	fitIDProp,
	positionsProp,
	itemProp,
)

var historyUndoToolDef = mcp.NewTool("history_undo",
	mcp.WithDescription("Undo the last module command on a fit."),
	fitIDProp,
)

var historyRedoToolDef = mcp.NewTool("history_redo",
	mcp.WithDescription("Redo the last undone module command on a fit."),
	fitIDProp,
)

var itemVariationsToolDef = mcp.NewTool("item_variations",
	mcp.WithDescription("List every variation of an item, ordered by meta level."),
	itemProp,
)
