package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions for the Glippy MCP server.

// saveTool returns the clip_save tool definition.
func saveTool() mcp.Tool {
	return mcp.NewTool("clip_save",
		mcp.WithDescription("Save a web clip. The clip is stored immediately and synced to the configured Glean backends in the background."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Source page URL"),
		),
		mcp.WithString("title",
			mcp.Description("Page title; derived from html when omitted"),
		),
		mcp.WithString("selected_text",
			mcp.Description("The captured text selection"),
		),
		mcp.WithString("context",
			mcp.Description("Surrounding text providing context for the selection"),
		),
		mcp.WithString("html",
			mcp.Description("Raw page HTML; used to derive a missing title or selection"),
		),
	)
}

// listTool returns the clip_list tool definition.
func listTool() mcp.Tool {
	return mcp.NewTool("clip_list",
		mcp.WithDescription("List saved clips, newest first, with their sync status."),
	)
}

// getTool returns the clip_get tool definition.
func getTool() mcp.Tool {
	return mcp.NewTool("clip_get",
		mcp.WithDescription("Get one clip by id, including its full text and sync history."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The clip's id"),
		),
	)
}

// retryTool returns the clip_retry tool definition.
func retryTool() mcp.Tool {
	return mcp.NewTool("clip_retry",
		mcp.WithDescription("Retry syncing a clip to the configured backends. Backends that already accepted the clip are skipped."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The clip's id"),
		),
	)
}

// deleteTool returns the clip_delete tool definition.
func deleteTool() mcp.Tool {
	return mcp.NewTool("clip_delete",
		mcp.WithDescription("Delete a clip from the local store. Remote copies are not touched."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The clip's id"),
		),
	)
}

// searchTool returns the clip_search tool definition.
func searchTool() mcp.Tool {
	return mcp.NewTool("clip_search",
		mcp.WithDescription("Search Glean with the configured credentials and return flattened results."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query"),
		),
	)
}

// testConnectionTool returns the clip_test_connection tool definition.
func testConnectionTool() mcp.Tool {
	return mcp.NewTool("clip_test_connection",
		mcp.WithDescription("Verify the Collections API credentials by listing visible collections."),
	)
}

// testIndexingTool returns the clip_test_indexing tool definition.
func testIndexingTool() mcp.Tool {
	return mcp.NewTool("clip_test_indexing",
		mcp.WithDescription("Verify the Indexing API credentials by ingesting a throwaway probe document."),
	)
}

// collectionsTool returns the clip_collections tool definition.
func collectionsTool() mcp.Tool {
	return mcp.NewTool("clip_collections",
		mcp.WithDescription("List the Glean collections visible to the configured token."),
	)
}

// collectionItemsTool returns the clip_collection_items tool definition.
func collectionItemsTool() mcp.Tool {
	return mcp.NewTool("clip_collection_items",
		mcp.WithDescription("Fetch the items of every visible collection, rate-limited per collection."),
		mcp.WithNumber("max_collections",
			mcp.Description("Read at most this many collections; 0 means all"),
		),
	)
}

// getConfigTool returns the clip_get_config tool definition.
func getConfigTool() mcp.Tool {
	return mcp.NewTool("clip_get_config",
		mcp.WithDescription("Show the current sync configuration with tokens redacted."),
	)
}
