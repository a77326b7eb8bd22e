package sources

import (
	"context"

	"tunecrate/pkg/models"
)

// Query is the normalized search request passed to every adapter. Each
// adapter reads the fields its upstream understands and ignores the rest.
type Query struct {
	Text       string
	Limit      int
	Offset     int               // offset-paginated sources (catalog, encyclopedia)
	PageToken  string            // token-paginated sources (video)
	EntityType models.EntityType // encyclopedia only
	Order      string            // catalog only (popularity_total, releasedate_desc, ...)
	Tags       []string          // catalog only
}

// Page is a single page of normalized results.
type Page struct {
	Items         []models.Item `json:"items"`
	TotalCount    int           `json:"total_count"`
	NextOffset    int           `json:"next_offset,omitempty"`
	NextPageToken string        `json:"next_page_token,omitempty"`
	HasMore       bool          `json:"has_more"`
}

// Searcher is implemented by each external data source. Each source is
// responsible for fetching its own wire format and mapping it into Items,
// and for classifying its failures into the shared error taxonomy.
type Searcher interface {
	Name() string
	Search(ctx context.Context, q Query) (*Page, error)
}
