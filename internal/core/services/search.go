package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService embeds queries and retrieves the nearest stored chunks.
type SearchService struct {
	docStore driven.DocumentStore
	embedder driven.EmbeddingService
	defaults domain.SearchOptions
}

// NewSearchService creates a new search service.
// Invalid defaults fall back to threshold 0.78 and count 5.
func NewSearchService(
	docStore driven.DocumentStore,
	embedder driven.EmbeddingService,
	defaults domain.SearchOptions,
) *SearchService {
	if defaults.Validate() != nil {
		defaults = domain.SearchOptions{
			Threshold: domain.DefaultMatchThreshold,
			Count:     domain.DefaultMatchCount,
		}
	}
	return &SearchService{
		docStore: docStore,
		embedder: embedder,
		defaults: defaults,
	}
}

// Defaults returns the options used when the caller supplies none.
func (s *SearchService) Defaults() domain.SearchOptions {
	return s.defaults
}

// Search embeds the query and returns ranked chunks at or above the threshold.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger.Debug("Search: query=%q threshold=%.2f count=%d", query, opts.Threshold, opts.Count)

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.docStore.NearestChunks(ctx, vector, opts.Threshold, opts.Count)
	if err != nil {
		logger.Warn("Nearest chunk lookup failed: %v", err)
		return nil, storageError("nearest chunks", err)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	logger.Debug("Search: %d results", len(results))
	return results, nil
}

// embedQuery turns the query into a vector.
func (s *SearchService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embed query: %w", domain.ErrEmbeddingUnavailable)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, dependencyError(domain.ErrEmbeddingUnavailable, "embed query", err)
	}
	if err := domain.Embedding(vector).Validate(0); err != nil {
		return nil, fmt.Errorf("embed query: %w: %v", domain.ErrEmbeddingUnavailable, err)
	}

	logger.Debug("Query embedding: %d dimensions", len(vector))
	return vector, nil
}
