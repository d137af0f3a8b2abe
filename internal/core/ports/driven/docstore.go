package driven

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// DocumentStore persists documents and their embedded chunks.
type DocumentStore interface {
	// CreateDocument stores a document together with all of its chunks.
	// Either every row is written or none is: a failure leaves no partial chunk set.
	CreateDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents, newest first. Content is not populated.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// GetChunks retrieves all chunks for a document ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// NearestChunks returns at most k chunks whose cosine similarity to query
	// is at least threshold, most similar first. Ties keep insertion order.
	// An empty result is not an error. A stored vector whose dimensionality
	// differs from query yields domain.ErrDimensionMismatch.
	NearestChunks(ctx context.Context, query []float32, threshold float64, k int) ([]domain.SearchResult, error)

	// Close releases resources.
	Close() error
}
