package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jessemcnew/glippy/internal/clip"
)

// TestWorkflow_SaveSyncRetryDelete exercises the full round trip: a
// save syncs to both backends in the background, shows up in the
// listing as synced, survives a redundant retry, and deletes cleanly.
func TestWorkflow_SaveSyncRetryDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "listcollections") {
			_, _ = w.Write([]byte(`{"collections":[{"id":7,"name":"Clips"}]}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := offConfig()
	cfg.Enabled = true
	cfg.APIToken = "col-token"
	cfg.CollectionID = "7"
	cfg.IndexingEnabled = true
	cfg.IndexingToken = "idx-token"
	cfg.Datasource = "WEBCLIPPER"

	r, st := newTestRouter(t, cfg, srv.URL)
	ctx := context.Background()

	// Save; the inline background pass syncs before the reply is used.
	resp := dispatch(t, r, `{"action":"saveClip","data":{
		"url":"https://example.com/howto",
		"title":"How To",
		"selected_text":"A walkthrough of the deployment process."
	}}`)
	require.True(t, resp.Success, resp.Error)
	saved := resp.Data.(*clip.Clip)
	require.NotEmpty(t, saved.ID)

	stored, err := st.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, clip.SyncSynced, stored.SyncStatus)
	require.True(t, stored.SyncedTo(clip.BackendCollections))
	require.True(t, stored.SyncedTo(clip.BackendIndexing))
	require.Equal(t, "Clips", stored.CollectionName)

	// Retrying a synced clip is a no-op that still reports synced.
	resp = dispatch(t, r, `{"action":"retrySync","data":{"id":"`+saved.ID+`"}}`)
	require.True(t, resp.Success, resp.Error)

	stored, err = st.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, 1, stored.SyncAttempts)

	// Delete and confirm the listing empties.
	resp = dispatch(t, r, `{"action":"deleteClip","data":{"id":"`+saved.ID+`"}}`)
	require.True(t, resp.Success)

	clips, err := st.List(ctx)
	require.NoError(t, err)
	require.Empty(t, clips)
}
