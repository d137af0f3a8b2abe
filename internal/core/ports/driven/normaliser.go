package driven

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// Normaliser extracts text from an uploaded file.
// Each normaliser handles specific MIME types (e.g., PDF).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	Priority() int

	// Normalise transforms a raw upload into a document with Content populated.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is handled by the PostProcessor pipeline.
type NormaliseResult struct {
	// Document is the normalised document with Content field populated.
	Document domain.Document

	// PageCount is the number of pages read, when known.
	PageCount int
}
