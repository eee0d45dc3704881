package glean

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jessemcnew/glippy/internal/clip"
)

const indexDocumentPath = "/api/index/v1/indexdocument"

// documentObjectType is the object type every clip document is indexed
// under; the Indexing API requires it to be explicit.
const documentObjectType = "Webclip"

// DocumentBody is the text payload of an indexed document.
type DocumentBody struct {
	MimeType    string `json:"mimeType"`
	TextContent string `json:"textContent"`
}

// DocumentPermissions controls visibility of an indexed document.
type DocumentPermissions struct {
	AllowAnonymousAccess      bool `json:"allowAnonymousAccess"`
	AllowAllDomainUsersAccess bool `json:"allowAllDomainUsersAccess"`
}

// Document is the Indexing API document record.
type Document struct {
	Datasource  string              `json:"datasource"`
	ObjectType  string              `json:"objectType"`
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Body        DocumentBody        `json:"body"`
	ViewURL     string              `json:"viewURL"`
	UpdatedAt   string              `json:"updatedAt,omitempty"`
	Permissions DocumentPermissions `json:"permissions"`
}

// IndexDocument ingests one document into the search index.
func (c *Client) IndexDocument(ctx context.Context, token string, doc Document) error {
	payload := map[string]any{"document": doc}
	return c.doJSON(ctx, http.MethodPost, indexDocumentPath, IndexingHeaders(token), payload, nil)
}

// IndexDocumentID derives the document id for a clip. Deterministic so
// re-indexing the same clip on retry overwrites rather than duplicates.
func IndexDocumentID(clipID string) string {
	return "webclip-" + clipID
}

// DocumentFromClip builds the indexable document for a clip.
func DocumentFromClip(c *clip.Clip, datasource string) Document {
	ts := c.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	text := fmt.Sprintf("%s\n\nSource: %s\nDomain: %s\nClipped: %s",
		c.SelectedText, c.URL, c.Domain, ts.Format(time.RFC1123))

	return Document{
		Datasource: datasource,
		ObjectType: documentObjectType,
		ID:         IndexDocumentID(c.ID),
		Title:      c.Title,
		Body: DocumentBody{
			MimeType:    "text/plain",
			TextContent: text,
		},
		ViewURL:   c.URL,
		UpdatedAt: ts.UTC().Format(time.RFC3339),
		Permissions: DocumentPermissions{
			AllowAnonymousAccess:      false,
			AllowAllDomainUsersAccess: true,
		},
	}
}
