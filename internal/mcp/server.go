// Package mcp exposes the clip store and sync engine as MCP tools over
// stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jessemcnew/glippy/internal/router"
	"github.com/jessemcnew/glippy/internal/store"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"clip_save": {
		def:     saveTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSave },
	},
	"clip_list": {
		def:     listTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"clip_get": {
		def:     getTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"clip_retry": {
		def:     retryTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRetry },
	},
	"clip_delete": {
		def:     deleteTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"clip_search": {
		def:     searchTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"clip_test_connection": {
		def:     testConnectionTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTestConnection },
	},
	"clip_test_indexing": {
		def:     testIndexingTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTestIndexing },
	},
	"clip_collections": {
		def:     collectionsTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCollections },
	},
	"clip_collection_items": {
		def:     collectionItemsTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCollectionItems },
	},
	"clip_get_config": {
		def:     getConfigTool(),
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGetConfig },
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

// NewServer creates an MCP server with all Glippy tools registered.
func NewServer(r *router.Router, st *store.Store, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"glippy",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(r, st)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves MCP over stdio until the client disconnects.
func Run(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
