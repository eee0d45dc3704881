package glean

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch_DefaultsAndPayload(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != searchPath {
			t.Errorf("path = %q", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	results, err := c.Search(context.Background(), "t", "glean-issued", "deployment runbook", 0, 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %+v", results)
	}

	if captured["query"] != "deployment runbook" {
		t.Errorf("query = %v", captured["query"])
	}
	if captured["pageSize"] != float64(DefaultPageSize) {
		t.Errorf("pageSize = %v", captured["pageSize"])
	}
	if captured["maxSnippetSize"] != float64(DefaultMaxSnippetSize) {
		t.Errorf("maxSnippetSize = %v", captured["maxSnippetSize"])
	}
}

func TestSearch_TolerantResultMapping(t *testing.T) {
	body := `{"results":[
		{"title":"Flat","url":"https://a","snippet":"flat snippet","score":0.9},
		{"document":{"id":"d2","title":"Nested","url":"https://b","summary":"doc summary","documentType":"Webclip"}},
		{"document":{"title":"Snippeted","url":"https://c"},"snippets":[{"snippet":"first snippet"},{"snippet":"second"}]},
		{"title":"No URL at all"},
		{"url":"https://d"}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	results, err := c.Search(context.Background(), "t", "glean-issued", "q", 10, 200)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("rows without a title or url must be dropped, got %d: %+v", len(results), results)
	}

	if results[0].Title != "Flat" || results[0].Snippet != "flat snippet" || results[0].Score != 0.9 {
		t.Errorf("flat row = %+v", results[0])
	}
	if results[1].ID != "d2" || results[1].Title != "Nested" || results[1].Snippet != "doc summary" || results[1].Type != "Webclip" {
		t.Errorf("nested row = %+v", results[1])
	}
	if results[2].Snippet != "first snippet" {
		t.Errorf("snippets array should win, got %+v", results[2])
	}
}
