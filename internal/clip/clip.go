// Package clip defines the unit of capture and its sync lifecycle.
package clip

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SyncStatus is the per-clip synchronization state.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSyncing SyncStatus = "syncing"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// Backend identifies a remote system a clip can be synced to.
type Backend string

const (
	BackendCollections Backend = "collections"
	BackendIndexing    Backend = "indexing"
)

// Clip is one captured unit of web content.
type Clip struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Domain       string    `json:"domain"`
	SelectedText string    `json:"selected_text"`
	Context      string    `json:"context,omitempty"`
	Favicon      string    `json:"favicon,omitempty"`
	Timestamp    time.Time `json:"timestamp"`

	Tags        []string  `json:"tags,omitempty"`
	Category    string    `json:"category,omitempty"`
	ProcessedAt time.Time `json:"processed_at,omitempty"`

	SyncStatus     SyncStatus `json:"sync_status"`
	SyncedVia      []Backend  `json:"synced_via,omitempty"`
	SyncAttempts   int        `json:"sync_attempts,omitempty"`
	SyncError      string     `json:"sync_error,omitempty"`
	CollectionID   string     `json:"collection_id,omitempty"`
	CollectionName string     `json:"collection_name,omitempty"`
}

// SyncedTo reports whether the clip has been accepted by the given backend.
func (c *Clip) SyncedTo(b Backend) bool {
	for _, v := range c.SyncedVia {
		if v == b {
			return true
		}
	}
	return false
}

// entropy is shared so ids generated within the same millisecond still
// sort in creation order and never collide.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID generates a ULID for a new clip. IDs sort lexicographically by
// creation time, newest last.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Patch is a partial update to a clip's sync state. Nil fields are left
// unchanged; SyncedVia entries are unioned with the existing set so a
// partial retry never erases an earlier success.
type Patch struct {
	SyncStatus     *SyncStatus
	SyncedVia      []Backend
	SyncError      *string
	SyncAttempts   *int
	CollectionID   *string
	CollectionName *string
}

// Apply merges the patch into the clip.
func (p Patch) Apply(c *Clip) {
	if p.SyncStatus != nil {
		c.SyncStatus = *p.SyncStatus
	}
	for _, b := range p.SyncedVia {
		if !c.SyncedTo(b) {
			c.SyncedVia = append(c.SyncedVia, b)
		}
	}
	if p.SyncError != nil {
		c.SyncError = *p.SyncError
	}
	if p.SyncAttempts != nil {
		c.SyncAttempts = *p.SyncAttempts
	}
	if p.CollectionID != nil {
		c.CollectionID = *p.CollectionID
	}
	if p.CollectionName != nil {
		c.CollectionName = *p.CollectionName
	}
}

// StatusPatch is shorthand for a patch that only changes sync status.
func StatusPatch(s SyncStatus) Patch {
	return Patch{SyncStatus: &s}
}

// String pointer helpers used when building patches.
func StringPtr(s string) *string { return &s }
func IntPtr(i int) *int          { return &i }
