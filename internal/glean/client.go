// Package glean implements the remote API clients: Collections,
// Indexing, and Search share one request helper against the normalized
// backend domain.
package glean

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"github.com/jessemcnew/glippy/internal/errors"
)

// DefaultTimeout bounds every remote call; a timed-out call is treated
// as a transient error and follows the normal backoff path.
const DefaultTimeout = 10 * time.Second

// bodyExcerptLen caps the raw-body excerpt attached to error details.
const bodyExcerptLen = 200

// Client issues requests against one backend domain.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// limiter paces bulk collection reads so back-to-back item fetches
	// do not trip the API's rate limits.
	limiter *rate.Limiter
}

// NewClient creates a client for the given service domain. The domain
// is normalized to backend form; an empty domain is a configuration
// error, not a panic.
func NewClient(domain string) (*Client, error) {
	baseURL := NormalizeDomain(domain)
	if baseURL == "" {
		return nil, errors.NewConfiguration("domain")
	}
	return newClient(baseURL), nil
}

// NewClientWithBaseURL creates a client against an explicit base URL,
// bypassing domain normalization. Used by tests against local servers.
func NewClientWithBaseURL(baseURL string) *Client {
	return newClient(baseURL)
}

func newClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doJSON posts a JSON body and parses the response. Three response
// shapes are handled uniformly: a JSON body is decoded into out; an
// empty body with a success status is a synthetic success (the
// Collections API returns nothing on success); a non-JSON body is kept
// as a raw excerpt. Non-success statuses are classified by the fixed
// table: 400 malformed, 401/403 authentication, 404 not found,
// 429/5xx and network-level failures transient.
func (c *Client) doJSON(ctx context.Context, method, path string, headers http.Header, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.NewInternal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.NewInternal(err)
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures follow the same retry path.
		return errors.NewTransient(0, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewTransient(0, fmt.Sprintf("reading response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyStatus(resp.StatusCode, text)
	}

	if out == nil || len(bytes.TrimSpace(text)) == 0 {
		return nil
	}
	if err := json.Unmarshal(text, out); err != nil {
		return errors.NewParse("unexpected response shape", excerpt(text))
	}
	return nil
}

// classifyStatus applies the fixed status-code table.
func classifyStatus(status int, body []byte) error {
	msg := errorMessage(status, body)
	switch {
	case status == 400:
		return errors.NewInvalidRequest(msg)
	case status == 401 || status == 403:
		return errors.NewAuthentication(status, msg)
	case status == 404:
		return errors.NewNotFound(msg)
	case status == 429 || status >= 500:
		return errors.NewTransient(status, fmt.Sprintf("HTTP %d: %s", status, msg))
	default:
		return errors.NewParse(fmt.Sprintf("unexpected HTTP %d", status), excerpt(body))
	}
}

// errorMessage pulls a human-readable message out of an error body.
// JSON bodies commonly carry message/error fields. Anything else, such
// as an HTML error page from a gateway, is excerpted raw so the operator
// can see the endpoint misbehaving.
func errorMessage(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return http.StatusText(status)
	}
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return excerpt(trimmed)
}

func excerpt(body []byte) string {
	s := string(bytes.TrimSpace(body))
	if len(s) <= bodyExcerptLen {
		return s
	}
	// Back the cut off to a rune boundary so the excerpt stays
	// valid UTF-8.
	n := bodyExcerptLen
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
