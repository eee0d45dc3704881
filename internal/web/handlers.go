package web

import (
	"net/http"
	"strings"

	"github.com/jessemcnew/glippy/internal/config"
	"github.com/jessemcnew/glippy/internal/store"
	"github.com/jessemcnew/glippy/internal/sync"
)

// Handlers contains HTTP route handlers for the dashboard.
type Handlers struct {
	store    *store.Store
	orch     *sync.Orchestrator
	cfg      config.Loader
	renderer *Renderer
}

// HandleList handles GET /clips.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	clips, err := h.store.List(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"clips": clips, "count": len(clips)})
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Clips",
			Version: h.renderer.version,
			Nav:     "clips",
		},
		Clips: clips,
		Count: len(clips),
	})
}

// HandleDetail handles GET /clips/{id}.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, c)
		return
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   c.Title,
			Version: h.renderer.version,
			Nav:     "clips",
		},
		Clip:         c,
		RenderedHTML: renderMarkdown(c.SelectedText),
	})
}

// HandleDelete handles DELETE /clips/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if !deleted {
		renderJSON(w, http.StatusNotFound, map[string]any{"deleted": false})
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

// HandleClear handles POST /clips/clear.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearAll(r.Context()); err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, "/clips", http.StatusSeeOther)
}

// HandleRetry handles POST /clips/{id}/retry.
func (h *Handlers) HandleRetry(w http.ResponseWriter, r *http.Request) {
	result, err := h.orch.SyncClip(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, result)
		return
	}
	http.Redirect(w, r, "/clips/"+result.ClipID, http.StatusSeeOther)
}

// HandleSearch handles GET /search against the remote index.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := SearchPageData{
		PageData: PageData{
			Title:   "Search",
			Version: h.renderer.version,
			Nav:     "search",
		},
		Query:    query,
		HasQuery: query != "",
	}

	if query != "" {
		results, err := h.orch.Search(r.Context(), query)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		data.Results = results
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{"results": data.Results, "count": len(data.Results)})
		return
	}
	h.renderer.renderPage(w, r, "search", data)
}

// HandleConfig handles GET /config, always redacted.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.cfg.Load(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, cfg.Redacted())
		return
	}

	h.renderer.renderPage(w, r, "config", ConfigPageData{
		PageData: PageData{
			Title:   "Configuration",
			Version: h.renderer.version,
			Nav:     "config",
		},
		Config: cfg.Redacted(),
	})
}
