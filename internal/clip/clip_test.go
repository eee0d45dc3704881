package clip

import (
	"sort"
	"testing"
)

func TestNewID_UniqueAndSortable(t *testing.T) {
	const n = 1000
	ids := make([]string, n)
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
		ids[i] = id
	}

	if !sort.StringsAreSorted(ids) {
		t.Error("ids generated in sequence should sort in creation order")
	}
}

func TestSyncedTo(t *testing.T) {
	c := &Clip{SyncedVia: []Backend{BackendCollections}}
	if !c.SyncedTo(BackendCollections) {
		t.Error("SyncedTo should report collections")
	}
	if c.SyncedTo(BackendIndexing) {
		t.Error("SyncedTo should not report indexing")
	}
}

func TestPatch_Apply(t *testing.T) {
	c := &Clip{
		ID:         "x",
		SyncStatus: SyncPending,
		SyncError:  "old failure",
	}

	Patch{
		SyncStatus: StatusPatch(SyncSynced).SyncStatus,
		SyncedVia:  []Backend{BackendCollections},
		SyncError:  StringPtr(""),
	}.Apply(c)

	if c.SyncStatus != SyncSynced {
		t.Errorf("SyncStatus = %q, want synced", c.SyncStatus)
	}
	if !c.SyncedTo(BackendCollections) {
		t.Error("SyncedVia should include collections")
	}
	if c.SyncError != "" {
		t.Errorf("SyncError = %q, want cleared", c.SyncError)
	}
	if c.ID != "x" {
		t.Error("identity fields must not change")
	}
}

func TestPatch_SyncedViaUnion(t *testing.T) {
	c := &Clip{SyncedVia: []Backend{BackendCollections}}

	// A later partial success must not erase or duplicate prior entries.
	Patch{SyncedVia: []Backend{BackendCollections, BackendIndexing}}.Apply(c)

	if len(c.SyncedVia) != 2 {
		t.Fatalf("SyncedVia = %v, want exactly {collections, indexing}", c.SyncedVia)
	}
	if !c.SyncedTo(BackendCollections) || !c.SyncedTo(BackendIndexing) {
		t.Errorf("SyncedVia = %v, want both backends", c.SyncedVia)
	}
}

func TestPatch_NilFieldsUnchanged(t *testing.T) {
	c := &Clip{SyncStatus: SyncFailed, SyncError: "kept", SyncAttempts: 2}
	Patch{CollectionID: StringPtr("42")}.Apply(c)

	if c.SyncStatus != SyncFailed || c.SyncError != "kept" || c.SyncAttempts != 2 {
		t.Error("fields without patch values must remain unchanged")
	}
	if c.CollectionID != "42" {
		t.Errorf("CollectionID = %q, want 42", c.CollectionID)
	}
}
