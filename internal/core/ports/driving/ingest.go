package driving

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// IngestResult describes a stored document.
type IngestResult struct {
	// Document is the stored document.
	Document domain.Document

	// ChunkCount is the number of chunks stored with it.
	ChunkCount int
}

// IngestService turns uploaded PDFs into embedded, searchable chunks.
type IngestService interface {
	// Ingest extracts, chunks, embeds and stores a document.
	// Nothing is stored unless every step succeeds.
	Ingest(ctx context.Context, raw *domain.RawDocument) (*IngestResult, error)
}
