package glean

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jessemcnew/glippy/internal/clip"
)

func TestDocumentFromClip(t *testing.T) {
	c := &clip.Clip{
		ID:           "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		URL:          "https://example.com/article",
		Title:        "An Article",
		Domain:       "example.com",
		SelectedText: "The selected passage.",
		Timestamp:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	doc := DocumentFromClip(c, "WEBCLIPPER")

	if doc.ID != "webclip-01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Errorf("ID = %q", doc.ID)
	}
	if doc.Datasource != "WEBCLIPPER" || doc.ObjectType != "Webclip" {
		t.Errorf("datasource/objectType = %q/%q", doc.Datasource, doc.ObjectType)
	}
	if doc.ViewURL != c.URL || doc.Title != c.Title {
		t.Errorf("viewURL/title = %q/%q", doc.ViewURL, doc.Title)
	}
	if doc.Body.MimeType != "text/plain" {
		t.Errorf("mimeType = %q", doc.Body.MimeType)
	}
	for _, want := range []string{"The selected passage.", "Source: https://example.com/article", "Domain: example.com"} {
		if !strings.Contains(doc.Body.TextContent, want) {
			t.Errorf("body missing %q:\n%s", want, doc.Body.TextContent)
		}
	}
	if doc.Permissions.AllowAnonymousAccess || !doc.Permissions.AllowAllDomainUsersAccess {
		t.Errorf("permissions = %+v", doc.Permissions)
	}
}

func TestIndexDocumentID_Deterministic(t *testing.T) {
	a := IndexDocumentID("abc")
	b := IndexDocumentID("abc")
	if a != b || a != "webclip-abc" {
		t.Errorf("IndexDocumentID = %q / %q", a, b)
	}
}

func TestIndexDocument_WireFormat(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != indexDocumentPath {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("X-Glean-Auth-Type"); got != "" {
			t.Errorf("indexing requests must not carry the auth-type marker, got %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	doc := DocumentFromClip(&clip.Clip{ID: "x1", URL: "https://a", Title: "T"}, "WEBCLIPPER")
	if err := c.IndexDocument(context.Background(), "idx-token", doc); err != nil {
		t.Fatalf("IndexDocument failed: %v", err)
	}

	wrapped, ok := captured["document"].(map[string]any)
	if !ok {
		t.Fatalf("payload missing document wrapper: %v", captured)
	}
	if wrapped["id"] != "webclip-x1" || wrapped["objectType"] != "Webclip" {
		t.Errorf("document = %v", wrapped)
	}
}
