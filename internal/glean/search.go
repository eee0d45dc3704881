package glean

import (
	"context"
	"net/http"
)

const searchPath = "/rest/api/v1/search"

// Search defaults.
const (
	DefaultPageSize       = 10
	DefaultMaxSnippetSize = 200
)

// SearchResult is one flattened search hit.
type SearchResult struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"snippet"`
	Type    string  `json:"type"`
	Score   float64 `json:"score"`
}

// Search queries the Client API search surface. Result rows arrive in
// several shapes depending on document type; fields are extracted
// tolerantly and rows without a title and url are dropped.
func (c *Client) Search(ctx context.Context, token, tokenType, query string, pageSize, maxSnippetSize int) ([]SearchResult, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxSnippetSize <= 0 {
		maxSnippetSize = DefaultMaxSnippetSize
	}

	payload := map[string]any{
		"query":          query,
		"pageSize":       pageSize,
		"maxSnippetSize": maxSnippetSize,
	}

	var out struct {
		Results []map[string]any `json:"results"`
	}
	if err := c.doJSON(ctx, http.MethodPost, searchPath, AuthHeaders(token, tokenType), payload, &out); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(out.Results))
	for _, row := range out.Results {
		doc, _ := row["document"].(map[string]any)

		r := SearchResult{
			ID:    firstString(row, "id"),
			Title: firstString(row, "title"),
			URL:   firstString(row, "url"),
			Type:  firstString(row, "type"),
		}
		if doc != nil {
			if r.ID == "" {
				r.ID = firstString(doc, "id")
			}
			if r.Title == "" {
				r.Title = firstString(doc, "title")
			}
			if r.URL == "" {
				r.URL = firstString(doc, "url")
			}
			if r.Type == "" {
				r.Type = firstString(doc, "documentType")
			}
		}

		r.Snippet = extractSnippet(row, doc)
		if score, ok := row["score"].(float64); ok {
			r.Score = score
		}

		if r.Title == "" || r.URL == "" {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

func extractSnippet(row, doc map[string]any) string {
	if snippets, ok := row["snippets"].([]any); ok && len(snippets) > 0 {
		if first, ok := snippets[0].(map[string]any); ok {
			if s := firstString(first, "snippet"); s != "" {
				return s
			}
		}
	}
	if doc != nil {
		if s := firstString(doc, "summary"); s != "" {
			return s
		}
	}
	return firstString(row, "snippet")
}
