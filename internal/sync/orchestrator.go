// Package sync drives clips through the remote backends: mark syncing,
// attempt each configured backend with backoff, record the outcome.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	gosync "sync"
	"time"

	"github.com/jessemcnew/glippy/internal/clip"
	"github.com/jessemcnew/glippy/internal/config"
	"github.com/jessemcnew/glippy/internal/errors"
	"github.com/jessemcnew/glippy/internal/glean"
	"github.com/jessemcnew/glippy/internal/store"
)

// Result is the outcome of one sync pass over a clip.
type Result struct {
	ClipID    string          `json:"clip_id"`
	Status    clip.SyncStatus `json:"status"`
	SyncedVia []clip.Backend  `json:"synced_via,omitempty"`
	Error     string          `json:"error,omitempty"`

	// Skipped is set when no backend is configured; the clip stays
	// pending rather than failing.
	Skipped bool `json:"skipped,omitempty"`
}

// Orchestrator coordinates sync attempts. Concurrent requests for the
// same clip coalesce onto one attempt; requests for distinct clips run
// independently.
type Orchestrator struct {
	store  *store.Store
	cfg    config.Loader
	logger *slog.Logger

	// newClient and sleep are swapped by tests for local servers and
	// instant backoff.
	newClient func(domain string) (*glean.Client, error)
	sleep     func(time.Duration)

	mu       gosync.Mutex
	inflight map[string]*attempt
}

type attempt struct {
	done   chan struct{}
	result *Result
	err    error
}

func New(st *store.Store, cfg config.Loader, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     st,
		cfg:       cfg,
		logger:    logger,
		newClient: glean.NewClient,
		inflight:  make(map[string]*attempt),
	}
}

// SetClientFactory replaces how backend clients are constructed.
// Tests point it at local servers.
func (o *Orchestrator) SetClientFactory(f func(domain string) (*glean.Client, error)) {
	o.newClient = f
}

// SetSleep replaces the delay between retry attempts.
func (o *Orchestrator) SetSleep(f func(time.Duration)) {
	o.sleep = f
}

// SyncClip pushes one clip to every configured backend. Already-synced
// clips are a no-op; a clip neither backend is configured for is left
// pending. A request that arrives while the same clip is mid-sync
// waits for and shares that attempt's outcome.
func (o *Orchestrator) SyncClip(ctx context.Context, clipID string) (*Result, error) {
	o.mu.Lock()
	if a, ok := o.inflight[clipID]; ok {
		o.mu.Unlock()
		select {
		case <-a.done:
			return a.result, a.err
		case <-ctx.Done():
			return nil, errors.NewInternal(ctx.Err())
		}
	}
	a := &attempt{done: make(chan struct{})}
	o.inflight[clipID] = a
	o.mu.Unlock()

	a.result, a.err = o.syncOnce(ctx, clipID)

	o.mu.Lock()
	delete(o.inflight, clipID)
	o.mu.Unlock()
	close(a.done)

	return a.result, a.err
}

func (o *Orchestrator) syncOnce(ctx context.Context, clipID string) (*Result, error) {
	c, err := o.store.Get(ctx, clipID)
	if err != nil {
		return nil, err
	}
	if c.SyncStatus == clip.SyncSynced {
		return &Result{ClipID: c.ID, Status: clip.SyncSynced, SyncedVia: c.SyncedVia}, nil
	}

	cfg, err := o.cfg.Load(ctx)
	if err != nil {
		return nil, err
	}
	wantCollections := cfg.CollectionsReady() && !c.SyncedTo(clip.BackendCollections)
	wantIndexing := cfg.IndexingReady() && !c.SyncedTo(clip.BackendIndexing)
	if !wantCollections && !wantIndexing {
		if len(c.SyncedVia) > 0 {
			// Every configured backend already has it.
			patch := clip.StatusPatch(clip.SyncSynced)
			patch.SyncError = clip.StringPtr("")
			if _, err := o.store.Update(ctx, clipID, patch); err != nil {
				return nil, err
			}
			return &Result{ClipID: c.ID, Status: clip.SyncSynced, SyncedVia: c.SyncedVia}, nil
		}
		o.logger.Debug("sync skipped, no backend configured", "clip_id", clipID)
		return &Result{ClipID: c.ID, Status: clip.SyncPending, Skipped: true}, nil
	}

	if _, err := o.store.Update(ctx, clipID, clip.StatusPatch(clip.SyncSyncing)); err != nil {
		return nil, err
	}

	patch := clip.Patch{SyncAttempts: clip.IntPtr(c.SyncAttempts + 1)}
	var succeeded int
	var failures []error

	if wantCollections {
		if err := o.syncCollections(ctx, cfg, c, &patch); err != nil {
			failures = append(failures, err)
		} else {
			succeeded++
		}
	}
	if wantIndexing {
		if err := o.syncIndexing(ctx, cfg, c); err != nil {
			failures = append(failures, err)
		} else {
			patch.SyncedVia = append(patch.SyncedVia, clip.BackendIndexing)
			succeeded++
		}
	}

	// One accepted backend makes the clip synced. A failure on the
	// other backend is recorded in the error field without demoting
	// the status, so a later retry can finish the job.
	result := &Result{ClipID: c.ID}
	if succeeded > 0 {
		status := clip.SyncSynced
		patch.SyncStatus = &status
		result.Status = clip.SyncSynced
		if len(failures) > 0 {
			last := failures[len(failures)-1]
			patch.SyncError = clip.StringPtr(last.Error())
			result.Error = last.Error()
			o.logger.Warn("sync partial", "clip_id", clipID, "error", last)
		} else {
			patch.SyncError = clip.StringPtr("")
			o.logger.Info("sync complete", "clip_id", clipID, "backends", len(patch.SyncedVia))
		}
	} else {
		last := failures[len(failures)-1]
		status := clip.SyncFailed
		patch.SyncStatus = &status
		patch.SyncError = clip.StringPtr(last.Error())
		result.Status = clip.SyncFailed
		result.Error = last.Error()
		o.logger.Warn("sync failed", "clip_id", clipID, "error", last)
	}

	if _, err := o.store.Update(ctx, clipID, patch); err != nil {
		return nil, err
	}
	updated, err := o.store.Get(ctx, clipID)
	if err != nil {
		return nil, err
	}
	result.SyncedVia = updated.SyncedVia
	return result, nil
}

// syncCollections adds the clip to the configured collection, retrying
// transient failures. On success the backend and the resolved
// collection name are recorded on the patch.
func (o *Orchestrator) syncCollections(ctx context.Context, cfg *config.SyncConfig, c *clip.Clip, patch *clip.Patch) error {
	client, err := o.newClient(cfg.Domain)
	if err != nil {
		return err
	}
	colID, err := strconv.ParseInt(cfg.CollectionID, 10, 64)
	if err != nil {
		return errors.NewConfiguration("collection_id")
	}

	item := glean.ItemFromClip(c)
	err = withBackoff(ctx, maxAttempts, o.sleep, func() error {
		return client.AddCollectionItems(ctx, cfg.APIToken, cfg.TokenType, colID, item)
	})
	if err != nil {
		return fmt.Errorf("collections: %w", err)
	}

	patch.SyncedVia = append(patch.SyncedVia, clip.BackendCollections)
	patch.CollectionID = clip.StringPtr(cfg.CollectionID)

	// Name enrichment is best effort; a lookup failure never fails
	// the sync that just succeeded.
	name := cfg.CollectionName
	if name == "" {
		if resolved, err := client.ResolveCollectionName(ctx, cfg.APIToken, cfg.TokenType, cfg.CollectionID); err == nil {
			name = resolved
		}
	}
	if name != "" {
		patch.CollectionName = clip.StringPtr(name)
	}
	return nil
}

// syncIndexing ingests the clip into the search index. The document id
// is derived from the clip id, so a repeat attempt overwrites. A single
// attempt only; the deterministic id makes the next explicit retry safe.
func (o *Orchestrator) syncIndexing(ctx context.Context, cfg *config.SyncConfig, c *clip.Clip) error {
	client, err := o.newClient(cfg.Domain)
	if err != nil {
		return err
	}
	doc := glean.DocumentFromClip(c, cfg.Datasource)
	if err := client.IndexDocument(ctx, cfg.IndexingToken, doc); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	return nil
}

// TestCollections verifies the Collections credentials by listing the
// visible collections.
func (o *Orchestrator) TestCollections(ctx context.Context) ([]glean.Collection, error) {
	cfg, err := o.cfg.Load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.APIToken == "" {
		return nil, errors.NewConfiguration("api_token")
	}
	client, err := o.newClient(cfg.Domain)
	if err != nil {
		return nil, err
	}
	return client.ListCollections(ctx, cfg.APIToken, cfg.TokenType)
}

// TestIndexing verifies the Indexing credentials by ingesting a
// throwaway probe document.
func (o *Orchestrator) TestIndexing(ctx context.Context) error {
	cfg, err := o.cfg.Load(ctx)
	if err != nil {
		return err
	}
	if !cfg.IndexingReady() {
		return errors.NewConfiguration("indexing_token")
	}
	client, err := o.newClient(cfg.Domain)
	if err != nil {
		return err
	}
	now := time.Now()
	probe := glean.Document{
		Datasource: cfg.Datasource,
		ObjectType: "Webclip",
		ID:         fmt.Sprintf("webclip-test-%d", now.UnixMilli()),
		Title:      "Connection test",
		Body: glean.DocumentBody{
			MimeType:    "text/plain",
			TextContent: "Indexing connection test issued at " + now.Format(time.RFC1123),
		},
		ViewURL:   "https://example.com/connection-test",
		UpdatedAt: now.UTC().Format(time.RFC3339),
		Permissions: glean.DocumentPermissions{
			AllowAllDomainUsersAccess: true,
		},
	}
	return client.IndexDocument(ctx, cfg.IndexingToken, probe)
}

// FetchCollections lists the collections visible to the configured token.
func (o *Orchestrator) FetchCollections(ctx context.Context) ([]glean.Collection, error) {
	return o.TestCollections(ctx)
}

// FetchCollectionItems reads the items of every visible collection,
// paced through the client's rate limiter. maxCollections <= 0 means
// no limit.
func (o *Orchestrator) FetchCollectionItems(ctx context.Context, maxCollections int) ([]glean.CollectionItem, error) {
	cfg, err := o.cfg.Load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.APIToken == "" {
		return nil, errors.NewConfiguration("api_token")
	}
	client, err := o.newClient(cfg.Domain)
	if err != nil {
		return nil, err
	}
	return client.FetchAllItems(ctx, cfg.APIToken, cfg.TokenType, maxCollections)
}

// Search queries the remote search surface with the configured token.
func (o *Orchestrator) Search(ctx context.Context, query string) ([]glean.SearchResult, error) {
	cfg, err := o.cfg.Load(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.APIToken == "" {
		return nil, errors.NewConfiguration("api_token")
	}
	client, err := o.newClient(cfg.Domain)
	if err != nil {
		return nil, err
	}
	return client.Search(ctx, cfg.APIToken, cfg.TokenType, query, glean.DefaultPageSize, glean.DefaultMaxSnippetSize)
}
