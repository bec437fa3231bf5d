package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cairnhq/cairn/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"checkpoint_save": {
		def:     saveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave },
	},
	"checkpoint_recall": {
		def:     recallToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecall },
	},
	"workspace_sync": {
		def:     syncToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSync },
	},
	"workspace_purge": {
		def:     purgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePurge },
	},
	"plan_save": {
		def:     planSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanSave },
	},
	"plan_update": {
		def:     planUpdateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanUpdate },
	},
	"plan_get": {
		def:     planGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanGet },
	},
	"plan_list": {
		def:     planListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanList },
	},
	"plan_activate": {
		def:     planActivateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanActivate },
	},
	"plan_delete": {
		def:     planDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePlanDelete },
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

// NewServer creates a new MCP server with Cairn tools registered.
// Tools listed in the config's disabled_tools are excluded from
// registration.
func NewServer(env *ops.Env, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"cairn",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(env)

	disabled := make(map[string]bool)
	for _, name := range env.Cfg.DisabledTools {
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
func Run(env *ops.Env, version string) error {
	s := NewServer(env, version)
	return server.ServeStdio(s)
}
