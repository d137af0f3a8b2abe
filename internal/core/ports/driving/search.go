package driving

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// SearchService finds the chunks most similar to a query.
type SearchService interface {
	// Search embeds the query and returns ranked chunks above the threshold.
	// No match is an empty result, not an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Defaults returns the options used when the caller supplies none.
	Defaults() domain.SearchOptions
}
