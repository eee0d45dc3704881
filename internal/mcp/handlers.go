package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jessemcnew/glippy/internal/errors"
	"github.com/jessemcnew/glippy/internal/router"
	"github.com/jessemcnew/glippy/internal/store"
)

// Handlers holds dependencies for MCP tool handlers. Actions flow
// through the router so every surface shares one dispatch path; only
// clip_get reads the store directly, since single-clip fetch is not a
// routed action.
type Handlers struct {
	router *router.Router
	store  *store.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(r *router.Router, st *store.Store) *Handlers {
	return &Handlers{router: r, store: st}
}

// Request types for each tool

// SaveRequest represents the arguments for clip_save.
type SaveRequest struct {
	URL          string `json:"url"`
	Title        string `json:"title,omitempty"`
	SelectedText string `json:"selected_text,omitempty"`
	Context      string `json:"context,omitempty"`
	HTML         string `json:"html,omitempty"`
}

// IDRequest represents the arguments for the single-id tools.
type IDRequest struct {
	ID string `json:"id"`
}

// SearchRequest represents the arguments for clip_search.
type SearchRequest struct {
	Query string `json:"query"`
}

// ItemsRequest represents the arguments for clip_collection_items.
type ItemsRequest struct {
	MaxCollections int `json:"max_collections"`
}

func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.route(ctx, router.ActionSaveClip, router.SaveClipData{
		URL:          input.URL,
		Title:        input.Title,
		SelectedText: input.SelectedText,
		Context:      input.Context,
		HTML:         input.HTML,
	})
}

func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.route(ctx, router.ActionGetClips, nil)
}

func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	c, err := h.store.Get(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(c)
}

func (h *Handlers) HandleRetry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.route(ctx, router.ActionRetrySync, input)
}

func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.route(ctx, router.ActionDeleteClip, input)
}

func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.route(ctx, router.ActionSearchGlean, input)
}

func (h *Handlers) HandleTestConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.route(ctx, router.ActionTestConnection, nil)
}

func (h *Handlers) HandleTestIndexing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.route(ctx, router.ActionTestIndexing, nil)
}

func (h *Handlers) HandleCollections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.route(ctx, router.ActionFetchCollections, nil)
}

func (h *Handlers) HandleCollectionItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ItemsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return h.route(ctx, router.ActionFetchItems, input)
}

func (h *Handlers) HandleGetConfig(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.route(ctx, router.ActionGetConfig, nil)
}

// route dispatches one action through the router and maps its reply.
func (h *Handlers) route(ctx context.Context, action router.Action, data any) (*mcp.CallToolResult, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return errorResult(errors.NewInternal(err)), nil
		}
		raw = b
	}

	reply, replied := h.router.DispatchRequest(ctx, &router.Request{Action: action, Data: raw})
	if !replied {
		return errorResult(errors.NewInvalidRequest("unroutable request")), nil
	}
	resp, ok := reply.(*router.Response)
	if !ok {
		return successResult(reply)
	}
	if !resp.Success {
		return errorResult(errors.NewInvalidRequest(resp.Error)), nil
	}
	return successResult(resp.Data)
}

// errorResult converts an error to an MCP error result with a
// structured JSON payload.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if clipErr, ok := err.(*errors.ClipError); ok {
		errorObj := map[string]any{
			"code":    clipErr.Code,
			"message": clipErr.Message,
			"status":  clipErr.Status,
		}
		// Details stay out of internal errors so file paths and raw
		// responses do not leak to the caller.
		if clipErr.Code != errors.ErrInternal && clipErr.Details != nil {
			errorObj["details"] = clipErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
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

// successResult converts data to an MCP success result.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
