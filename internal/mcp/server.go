package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/loadout/internal/config"
	"github.com/hpungsan/loadout/internal/ops"
)

// KnownTypes lists all valid type names.
var KnownTypes = []string{"fit", "module", "projected", "history", "item"}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"fit_create": {
		def:     fitCreateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFitCreate },
	},
	"fit_fetch": {
		def:     fitFetchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFitFetch },
	},
	"fit_list": {
		def:     fitListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFitList },
	},
	"fit_update": {
		def:     fitUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFitUpdate },
	},
	"fit_delete": {
		def:     fitDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFitDelete },
	},
	"module_add": {
		def:     moduleAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleModuleAdd },
	},
	"module_remove": {
		def:     moduleRemoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleModuleRemove },
	},
	"module_metas": {
		def:     moduleMetasToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleModuleMetas },
	},
	"module_states": {
		def:     moduleStatesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleModuleStates },
	},
	"projected_add": {
		def:     projectedAddToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProjectedAdd },
	},
	"projected_remove": {
		def:     projectedRemoveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProjectedRemove },
	},
	"projected_metas": {
		def:     projectedMetasToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProjectedMetas },
	},
	"history_undo": {
		def:     historyUndoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryUndo },
	},
	"history_redo": {
		def:     historyRedoToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHistoryRedo },
	},
	"item_variations": {
		def:     itemVariationsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleItemVariations },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// ValidateDisabledTypes returns a list of unknown type names from the given list.
func ValidateDisabledTypes(names []string) []string {
	known := make(map[string]bool, len(KnownTypes))
	for _, t := range KnownTypes {
		known[t] = true
	}

	unknown := make([]string, 0)
	for _, name := range names {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// GetTypeForTool extracts the type name from a tool name.
// Tool names follow the pattern "type_action" (e.g., "module_add" → "module").
func GetTypeForTool(toolName string) string {
	if idx := strings.Index(toolName, "_"); idx > 0 {
		return toolName[:idx]
	}
	return ""
}

// ExpandTypesToTools returns all tool names belonging to the given types.
func ExpandTypesToTools(types []string) []string {
	if len(types) == 0 {
		return nil
	}

	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}

	tools := make([]string, 0)
	for name := range toolRegistry {
		if typeSet[GetTypeForTool(name)] {
			tools = append(tools, name)
		}
	}
	return tools
}

// NewServer creates a new MCP server with Loadout tools registered.
// Tools listed in cfg.DisabledTools or belonging to cfg.DisabledTypes
// are excluded from registration. Undo history lives in the workbench,
// so it lasts as long as the server process.
func NewServer(w *ops.Workbench, cfg *config.Config, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"loadout",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(w)

	// Build set of disabled tools: first expand types, then add individual tools
	disabled := make(map[string]bool)
	for _, tool := range ExpandTypesToTools(cfg.DisabledTypes) {
		disabled[tool] = true
	}
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(w *ops.Workbench, cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(w, cfg, version))
}
