package glean

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jessemcnew/glippy/internal/errors"
)

func TestDoJSON_EmptyBodySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	err := c.doJSON(context.Background(), http.MethodPost, "/anything", AuthHeaders("t", "glean-issued"), map[string]any{}, nil)
	if err != nil {
		t.Errorf("empty 200 body should be a synthetic success, got %v", err)
	}
}

func TestDoJSON_JSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"collections":[{"id":42,"name":"Research"}]}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	collections, err := c.ListCollections(context.Background(), "t", "glean-issued")
	if err != nil {
		t.Fatalf("ListCollections failed: %v", err)
	}
	if len(collections) != 1 || collections[0].ID != 42 || collections[0].Name != "Research" {
		t.Errorf("collections = %+v", collections)
	}
}

func TestDoJSON_StatusClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		code   errors.ErrorCode
	}{
		{400, `{"message":"bad payload"}`, errors.ErrInvalidRequest},
		{401, "Unauthorized", errors.ErrAuthentication},
		{403, "Forbidden", errors.ErrAuthentication},
		{404, `{"error":"no such collection"}`, errors.ErrNotFound},
		{429, "slow down", errors.ErrTransient},
		{500, "oops", errors.ErrTransient},
		{503, "down", errors.ErrTransient},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		c := NewClientWithBaseURL(srv.URL)
		err := c.doJSON(context.Background(), http.MethodPost, "/x", nil, nil, nil)
		srv.Close()

		if !errors.Is(err, tc.code) {
			t.Errorf("status %d: err = %v, want code %s", tc.status, err, tc.code)
		}
	}
}

func TestDoJSON_HTMLErrorPageExcerpted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("<html><body><h1>401 Authorization Required</h1>" + strings.Repeat("x", 500) + "</body></html>"))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL)
	err := c.doJSON(context.Background(), http.MethodPost, "/x", nil, nil, nil)

	if !errors.Is(err, errors.ErrAuthentication) {
		t.Fatalf("HTML error page should classify by status, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "401") {
		t.Errorf("error should mention the status: %q", msg)
	}
	if !strings.Contains(msg, "Authorization Required") {
		t.Errorf("error should carry a body excerpt: %q", msg)
	}
	if len(msg) > 400 {
		t.Errorf("excerpt should be truncated, message is %d chars", len(msg))
	}
}

func TestDoJSON_NetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClientWithBaseURL(srv.URL)
	err := c.doJSON(context.Background(), http.MethodPost, "/x", nil, nil, nil)
	if !errors.Is(err, errors.ErrTransient) {
		t.Errorf("connection failure should be transient, got %v", err)
	}
}

func TestNewClient_EmptyDomain(t *testing.T) {
	_, err := NewClient("")
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Errorf("empty domain: err = %v, want CONFIGURATION", err)
	}
}

func TestNewClient_NormalizesDomain(t *testing.T) {
	c, err := NewClient("acme.glean.com")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if c.BaseURL() != "https://acme-be.glean.com" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
}

func TestExcerpt_CutsOnRuneBoundary(t *testing.T) {
	body := []byte(strings.Repeat("日", 100))
	got := excerpt(body)
	if !utf8.ValidString(got) {
		t.Fatalf("excerpt produced invalid UTF-8: %q", got)
	}
	if len(got) != 198 {
		t.Errorf("len = %d, want a 198-byte rune-aligned cut", len(got))
	}
}
