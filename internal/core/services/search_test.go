package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/paperqa/internal/core/domain"
)

var defaultSearch = domain.SearchOptions{
	Threshold: domain.DefaultMatchThreshold,
	Count:     domain.DefaultMatchCount,
}

func TestNewSearchService_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		defaults domain.SearchOptions
		want     domain.SearchOptions
	}{
		{"valid defaults kept", domain.SearchOptions{Threshold: 0.5, Count: 10}, domain.SearchOptions{Threshold: 0.5, Count: 10}},
		{"zero value falls back", domain.SearchOptions{}, defaultSearch},
		{"threshold out of range falls back", domain.SearchOptions{Threshold: 2, Count: 3}, defaultSearch},
		{"count too large falls back", domain.SearchOptions{Threshold: 0.5, Count: 500}, defaultSearch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewSearchService(memory.NewDocumentStore(), constantEmbedder(1, 0), tt.defaults)
			assert.Equal(t, tt.want, svc.Defaults())
		})
	}
}

func TestSearchService_Search(t *testing.T) {
	store := memory.NewDocumentStore()
	ctx := context.Background()
	require.NoError(t, seedChunks(ctx, store, "d1",
		[]float32{0.6, 0.8},
		[]float32{1, 0},
		[]float32{0, 1},
	))
	svc := NewSearchService(store, constantEmbedder(1, 0), defaultSearch)

	results, err := svc.Search(ctx, "  retrieval  ", domain.SearchOptions{Threshold: 0.5, Count: 5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "d1-c1", results[0].Chunk.ID)
	assert.Equal(t, "d1-c0", results[1].Chunk.ID)
	assert.InDelta(t, 0.6, results[1].Similarity, 1e-6)
	assert.Equal(t, "d1.pdf", results[0].DocumentTitle)

	results, err = svc.Search(ctx, "retrieval", domain.SearchOptions{Threshold: 0.5, Count: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = svc.Search(ctx, "retrieval", defaultSearch)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1-c1", results[0].Chunk.ID)
}

func TestSearchService_Search_NoMatchIsEmpty(t *testing.T) {
	svc := NewSearchService(memory.NewDocumentStore(), constantEmbedder(1, 0), defaultSearch)

	results, err := svc.Search(context.Background(), "anything", defaultSearch)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestSearchService_Search_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query", func(t *testing.T) {
		svc := NewSearchService(memory.NewDocumentStore(), constantEmbedder(1, 0), defaultSearch)
		_, err := svc.Search(ctx, " \t", defaultSearch)
		assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
	})

	t.Run("invalid options", func(t *testing.T) {
		svc := NewSearchService(memory.NewDocumentStore(), constantEmbedder(1, 0), defaultSearch)
		_, err := svc.Search(ctx, "q", domain.SearchOptions{Threshold: -0.1, Count: 5})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = svc.Search(ctx, "q", domain.SearchOptions{Threshold: 0.5, Count: 0})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("embedding failure", func(t *testing.T) {
		embedder := &funcEmbedder{fn: func(context.Context, string) ([]float32, error) {
			return nil, errors.New("401 unauthorized")
		}}
		svc := NewSearchService(memory.NewDocumentStore(), embedder, defaultSearch)
		_, err := svc.Search(ctx, "q", defaultSearch)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.False(t, domain.IsValidation(err))
	})

	t.Run("no embedder", func(t *testing.T) {
		svc := NewSearchService(memory.NewDocumentStore(), nil, defaultSearch)
		_, err := svc.Search(ctx, "q", defaultSearch)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("empty vector", func(t *testing.T) {
		svc := NewSearchService(memory.NewDocumentStore(), constantEmbedder(), defaultSearch)
		_, err := svc.Search(ctx, "q", defaultSearch)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("non-finite vector", func(t *testing.T) {
		nan := float32(math.NaN())
		svc := NewSearchService(memory.NewDocumentStore(), constantEmbedder(nan, 0), defaultSearch)
		_, err := svc.Search(ctx, "q", defaultSearch)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.False(t, domain.IsValidation(err))
	})

	t.Run("store failure", func(t *testing.T) {
		store := &faultyDocStore{DocumentStore: memory.NewDocumentStore(), nearestErr: errors.New("connection reset")}
		svc := NewSearchService(store, constantEmbedder(1, 0), defaultSearch)
		_, err := svc.Search(ctx, "q", defaultSearch)
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})

	t.Run("dimension mismatch passes through", func(t *testing.T) {
		store := memory.NewDocumentStore()
		require.NoError(t, seedChunks(ctx, store, "d1", []float32{1, 0, 0}))
		svc := NewSearchService(store, constantEmbedder(1, 0), defaultSearch)

		_, err := svc.Search(ctx, "q", defaultSearch)
		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
		assert.NotErrorIs(t, err, domain.ErrStorageUnavailable)
	})
}
