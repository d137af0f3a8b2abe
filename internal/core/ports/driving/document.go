package driving

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// DocumentService manages uploaded documents.
type DocumentService interface {
	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Chunks returns the document's chunks ordered by position.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Delete removes a document and its chunks.
	Delete(ctx context.Context, documentID string) error
}
