package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

func searchHits() []domain.SearchResult {
	return []domain.SearchResult{
		{
			Chunk:         domain.Chunk{ID: "c1", DocumentID: "doc-1", Position: 4, Content: "Scaled dot-product\n\nattention " + strings.Repeat("x", 300)},
			DocumentTitle: "attention.pdf",
			Similarity:    0.87,
		},
	}
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "search")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestSearchCmd_UsesDefaults(t *testing.T) {
	ts := setupTestServices(t)
	ts.search.results = searchHits()

	out, err := execute(t, "search", "attention")
	require.NoError(t, err)

	assert.Equal(t, domain.SearchOptions{Threshold: 0.78, Count: 5}, ts.search.opts[0])
	assert.Contains(t, out, "[1] attention.pdf #4 (0.87)")
	assert.Contains(t, out, "Scaled dot-product attention")
	assert.Contains(t, out, "...")
}

func TestSearchCmd_Overrides(t *testing.T) {
	ts := setupTestServices(t)

	_, err := execute(t, "search", "-t", "0.3", "--count", "20", "attention")
	require.NoError(t, err)

	assert.Equal(t, domain.SearchOptions{Threshold: 0.3, Count: 20}, ts.search.opts[0])
}

func TestSearchCmd_NoResults(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "search", "nothing")
	require.NoError(t, err)

	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.search.results = searchHits()

	out, err := execute(t, "search", "--json", "attention")
	require.NoError(t, err)

	var got []searchResultOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ChunkID)
	assert.Equal(t, 4, got[0].Position)
	assert.Equal(t, ts.search.results[0].Chunk.Content, got[0].Content)
}

func TestSearchCmd_InvalidOptions(t *testing.T) {
	ts := setupTestServices(t)
	ts.search.err = domain.ErrInvalidInput

	_, err := execute(t, "search", "--count", "99", "attention")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
