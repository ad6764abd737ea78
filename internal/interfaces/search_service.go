package interfaces

import (
	"context"

	"github.com/ternarybob/memoro/internal/models"
)

// SearchService wraps the external web search provider.
type SearchService interface {
	// Search returns ranked results for a query. Implementations must be
	// safe for concurrent use.
	Search(ctx context.Context, query string) ([]models.SearchResult, error)

	// Enabled reports whether the provider is reachable/configured.
	Enabled() bool
}

// SiteFetcher retrieves a URL and strips markup to plain text, bounded by
// a per-site timeout and byte budget.
type SiteFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}
