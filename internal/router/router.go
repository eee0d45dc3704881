// Package router is the single entry point for structured requests.
// Every surface (MCP tools, web handlers, CLI plumbing) builds a
// request and dispatches it here; handlers reply exactly once, and
// anything unrecognized is dropped without a reply.
package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jessemcnew/glippy/internal/capture"
	"github.com/jessemcnew/glippy/internal/clip"
	"github.com/jessemcnew/glippy/internal/config"
	"github.com/jessemcnew/glippy/internal/store"
	"github.com/jessemcnew/glippy/internal/sync"
)

// Action names form a closed union; an action outside it is ignored.
type Action string

const (
	ActionSaveClip         Action = "saveClip"
	ActionGetClips         Action = "getClips"
	ActionRetrySync        Action = "retrySync"
	ActionDeleteClip       Action = "deleteClip"
	ActionTestSync         Action = "testSync"
	ActionTestIndexing     Action = "testIndexing"
	ActionTestConnection   Action = "testConnection"
	ActionFetchCollections Action = "fetchCollections"
	ActionFetchItems       Action = "fetchCollectionItems"
	ActionGetConfig        Action = "getConfig"
	ActionSearchGlean      Action = "searchGlean"
)

// typePing is the liveness probe; it rides the Type field rather than
// the action union and is answered synchronously.
const typePing = "PING"

// Request is one inbound message.
type Request struct {
	Action Action          `json:"action,omitempty"`
	Type   string          `json:"type,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Response is the structured reply for every handled action.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Pong answers a PING.
type Pong struct {
	OK        bool  `json:"ok"`
	Timestamp int64 `json:"timestamp"`
}

// Router dispatches requests to the store and the sync orchestrator.
type Router struct {
	store     *store.Store
	orch      *sync.Orchestrator
	cfg       config.Loader
	extractor *capture.Extractor
	logger    *slog.Logger

	// launch runs post-save sync in the background; tests replace it
	// to run inline.
	launch func(func())
}

func New(st *store.Store, orch *sync.Orchestrator, cfg config.Loader, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		store:     st,
		orch:      orch,
		cfg:       cfg,
		extractor: capture.NewExtractor(),
		logger:    logger,
		launch:    func(f func()) { go f() },
	}
}

// Dispatch routes one raw message. The second return reports whether a
// reply was produced: malformed messages, unknown actions, and
// messages with neither action nor recognized type produce none.
func (r *Router) Dispatch(ctx context.Context, raw []byte) (any, bool) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		r.logger.Debug("dropping malformed message", "error", err)
		return nil, false
	}
	return r.DispatchRequest(ctx, &req)
}

// DispatchRequest routes an already-parsed request.
func (r *Router) DispatchRequest(ctx context.Context, req *Request) (any, bool) {
	if req.Type == typePing {
		return &Pong{OK: true, Timestamp: time.Now().UnixMilli()}, true
	}

	switch req.Action {
	case ActionSaveClip:
		return r.handleSaveClip(ctx, req.Data), true
	case ActionGetClips:
		return r.handleGetClips(ctx), true
	case ActionRetrySync:
		return r.handleRetrySync(ctx, req.Data), true
	case ActionDeleteClip:
		return r.handleDeleteClip(ctx, req.Data), true
	case ActionTestSync, ActionTestConnection:
		return r.handleTestConnection(ctx), true
	case ActionTestIndexing:
		return r.handleTestIndexing(ctx), true
	case ActionFetchCollections:
		return r.handleFetchCollections(ctx), true
	case ActionFetchItems:
		return r.handleFetchItems(ctx, req.Data), true
	case ActionGetConfig:
		return r.handleGetConfig(ctx), true
	case ActionSearchGlean:
		return r.handleSearchGlean(ctx, req.Data), true
	default:
		if req.Action != "" {
			r.logger.Debug("dropping unknown action", "action", string(req.Action))
		}
		return nil, false
	}
}

func ok(data any) *Response    { return &Response{Success: true, Data: data} }
func fail(err error) *Response { return &Response{Success: false, Error: err.Error()} }

// SaveClipData is the payload of a saveClip request. HTML, when
// present, is used to derive missing title and selection text.
type SaveClipData struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	SelectedText string `json:"selected_text"`
	Context      string `json:"context,omitempty"`
	Favicon      string `json:"favicon,omitempty"`
	HTML         string `json:"html,omitempty"`
}

func (r *Router) handleSaveClip(ctx context.Context, data json.RawMessage) *Response {
	var in SaveClipData
	if err := json.Unmarshal(data, &in); err != nil {
		return &Response{Success: false, Error: "invalid saveClip payload"}
	}
	if in.URL == "" {
		return &Response{Success: false, Error: "url is required"}
	}

	if in.HTML != "" && (in.Title == "" || in.SelectedText == "") {
		if page, err := r.extractor.Extract(in.HTML); err == nil {
			if in.Title == "" {
				in.Title = page.Title
			}
			if in.SelectedText == "" {
				in.SelectedText = page.Text
			}
		}
	}

	c := &clip.Clip{
		ID:           clip.NewID(),
		URL:          in.URL,
		Title:        strings.TrimSpace(in.Title),
		Domain:       hostOf(in.URL),
		SelectedText: clip.Sanitize(in.SelectedText, clip.MaxSanitizedChars),
		Context:      clip.Sanitize(in.Context, clip.MaxSanitizedChars),
		Favicon:      in.Favicon,
		Timestamp:    time.Now(),
		SyncStatus:   clip.SyncPending,
	}
	clip.Process(c)

	if err := r.store.Append(ctx, c); err != nil {
		return fail(err)
	}
	r.logger.Info("clip saved", "clip_id", c.ID, "domain", c.Domain)

	// The reply carries the saved clip immediately; sync proceeds in
	// the background and updates the stored record.
	id := c.ID
	r.launch(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := r.orch.SyncClip(ctx, id); err != nil {
			r.logger.Warn("background sync error", "clip_id", id, "error", err)
		}
	})

	return ok(c)
}

func (r *Router) handleGetClips(ctx context.Context) *Response {
	clips, err := r.store.List(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"clips": clips, "count": len(clips)})
}

type idData struct {
	ID string `json:"id"`
}

func (r *Router) handleRetrySync(ctx context.Context, data json.RawMessage) *Response {
	var in idData
	if err := json.Unmarshal(data, &in); err != nil || in.ID == "" {
		return &Response{Success: false, Error: "id is required"}
	}
	result, err := r.orch.SyncClip(ctx, in.ID)
	if err != nil {
		return fail(err)
	}
	return ok(result)
}

func (r *Router) handleDeleteClip(ctx context.Context, data json.RawMessage) *Response {
	var in idData
	if err := json.Unmarshal(data, &in); err != nil || in.ID == "" {
		return &Response{Success: false, Error: "id is required"}
	}
	deleted, err := r.store.Delete(ctx, in.ID)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"deleted": deleted})
}

func (r *Router) handleTestConnection(ctx context.Context) *Response {
	collections, err := r.orch.TestCollections(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"connected": true, "collections": len(collections)})
}

func (r *Router) handleTestIndexing(ctx context.Context) *Response {
	if err := r.orch.TestIndexing(ctx); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"indexed": true})
}

func (r *Router) handleFetchCollections(ctx context.Context) *Response {
	collections, err := r.orch.FetchCollections(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"collections": collections})
}

type fetchItemsData struct {
	MaxCollections int `json:"max_collections,omitempty"`
}

func (r *Router) handleFetchItems(ctx context.Context, data json.RawMessage) *Response {
	var in fetchItemsData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &in); err != nil {
			return &Response{Success: false, Error: "invalid fetchCollectionItems payload"}
		}
	}
	items, err := r.orch.FetchCollectionItems(ctx, in.MaxCollections)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"items": items, "count": len(items)})
}

func (r *Router) handleGetConfig(ctx context.Context) *Response {
	cfg, err := r.cfg.Load(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(cfg.Redacted())
}

type searchData struct {
	Query string `json:"query"`
}

func (r *Router) handleSearchGlean(ctx context.Context, data json.RawMessage) *Response {
	var in searchData
	if err := json.Unmarshal(data, &in); err != nil || strings.TrimSpace(in.Query) == "" {
		return &Response{Success: false, Error: "query is required"}
	}
	results, err := r.orch.Search(ctx, in.Query)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"results": results, "count": len(results)})
}

// hostOf extracts the bare host from a URL for the clip's domain
// field; a leading www. is dropped.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
