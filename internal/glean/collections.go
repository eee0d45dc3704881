package glean

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jessemcnew/glippy/internal/clip"
	"github.com/jessemcnew/glippy/internal/errors"
)

// Collections REST paths.
const (
	addCollectionItemsPath = "/rest/api/v1/addcollectionitems"
	listCollectionsPath    = "/rest/api/v1/listcollections"
	getCollectionPath      = "/rest/api/v1/getcollection"
)

// ItemDescriptor describes one item added to a collection. Exactly one
// of URL or DocumentID identifies the item, never both.
type ItemDescriptor struct {
	URL         string `json:"url,omitempty"`
	DocumentID  string `json:"documentId,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ItemType    string `json:"itemType,omitempty"`
}

// Collection is a remote user-curated list.
type Collection struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CollectionItem is one entry read back from a collection.
type CollectionItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Description  string `json:"description"`
	AddedAt      string `json:"added_at"`
	CollectionID string `json:"collection_id"`
}

// AddCollectionItems adds one item to a collection. Success is an
// HTTP 2xx with an empty or JSON body.
func (c *Client) AddCollectionItems(ctx context.Context, token, tokenType string, collectionID int64, item ItemDescriptor) error {
	if item.URL != "" && item.DocumentID != "" {
		return errors.NewInvalidRequest("item must carry either a url or a documentId, not both")
	}
	if item.URL == "" && item.DocumentID == "" {
		return errors.NewInvalidRequest("item must carry a url or a documentId")
	}

	payload := map[string]any{
		"collectionId":                   collectionID,
		"addedCollectionItemDescriptors": []ItemDescriptor{item},
	}
	return c.doJSON(ctx, http.MethodPost, addCollectionItemsPath, AuthHeaders(token, tokenType), payload, nil)
}

// ListCollections returns the collections the token can see.
func (c *Client) ListCollections(ctx context.Context, token, tokenType string) ([]Collection, error) {
	var out struct {
		Collections []Collection `json:"collections"`
	}
	err := c.doJSON(ctx, http.MethodPost, listCollectionsPath, AuthHeaders(token, tokenType), map[string]any{}, &out)
	if err != nil {
		return nil, err
	}
	return out.Collections, nil
}

// ResolveCollectionName looks up a collection's display name by id.
// Returns empty when the collection is not visible.
func (c *Client) ResolveCollectionName(ctx context.Context, token, tokenType, collectionID string) (string, error) {
	collections, err := c.ListCollections(ctx, token, tokenType)
	if err != nil {
		return "", err
	}
	for _, col := range collections {
		if strconv.FormatInt(col.ID, 10) == collectionID {
			return col.Name, nil
		}
	}
	return "", nil
}

// GetCollectionItems fetches a collection's items. The endpoint's
// response shape varies; the item array is extracted tolerantly from
// the shapes observed in the wild.
func (c *Client) GetCollectionItems(ctx context.Context, token, tokenType string, collectionID int64) ([]CollectionItem, string, error) {
	var out map[string]any
	payload := map[string]any{"collectionId": collectionID}
	err := c.doJSON(ctx, http.MethodPost, getCollectionPath, AuthHeaders(token, tokenType), payload, &out)
	if err != nil {
		return nil, "", err
	}

	name, _ := out["name"].(string)
	if name == "" {
		if col, ok := out["collection"].(map[string]any); ok {
			name, _ = col["name"].(string)
		}
	}

	items := extractItemArray(out)
	result := make([]CollectionItem, 0, len(items))
	colID := strconv.FormatInt(collectionID, 10)
	for _, raw := range items {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		result = append(result, CollectionItem{
			ID:           firstString(m, "id", "itemId", "documentId"),
			Title:        firstString(m, "name", "title", "itemName"),
			URL:          firstString(m, "url", "viewURL", "itemURL"),
			Description:  firstString(m, "description", "itemDescription"),
			AddedAt:      firstString(m, "addedAt", "createdAt", "dateAdded"),
			CollectionID: colID,
		})
	}
	return result, name, nil
}

// FetchAllItems reads items from every listed collection, pacing the
// per-collection reads through the client's rate limiter. Collections
// that fail to read are skipped, not fatal.
func (c *Client) FetchAllItems(ctx context.Context, token, tokenType string, maxCollections int) ([]CollectionItem, error) {
	collections, err := c.ListCollections(ctx, token, tokenType)
	if err != nil {
		return nil, err
	}
	if maxCollections > 0 && len(collections) > maxCollections {
		collections = collections[:maxCollections]
	}

	var all []CollectionItem
	for _, col := range collections {
		if err := c.limiter.Wait(ctx); err != nil {
			return all, errors.NewTransient(0, fmt.Sprintf("rate limiter: %v", err))
		}
		items, _, err := c.GetCollectionItems(ctx, token, tokenType, col.ID)
		if err != nil {
			continue
		}
		all = append(all, items...)
	}
	return all, nil
}

// BuildDescription assembles the item description for a clip: cleaned
// selection text between the title and a trailing Clipped line.
func BuildDescription(c *clip.Clip) string {
	text := clip.CleanSelection(c.SelectedText)
	if text == "" {
		text = c.Title
	}
	clipped := c.Timestamp
	if clipped.IsZero() {
		clipped = time.Now()
	}
	return fmt.Sprintf("%s\n\n%s\n\nClipped: %s", c.Title, text, clipped.Format("01/02/2006 03:04:05 PM"))
}

// ItemFromClip builds the descriptor for adding a clip to a collection.
func ItemFromClip(c *clip.Clip) ItemDescriptor {
	name := c.Title
	if name == "" {
		name = "Untitled Clip"
	}
	return ItemDescriptor{
		URL:         c.URL,
		Name:        name,
		Description: BuildDescription(c),
		ItemType:    "DOCUMENT",
	}
}

func extractItemArray(out map[string]any) []any {
	for _, key := range []string{"items", "collectionItems"} {
		if arr, ok := out[key].([]any); ok {
			return arr
		}
	}
	for _, key := range []string{"data", "collection"} {
		if nested, ok := out[key].(map[string]any); ok {
			if arr, ok := nested["items"].([]any); ok {
				return arr
			}
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
