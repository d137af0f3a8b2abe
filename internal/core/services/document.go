package services

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages stored documents.
type DocumentService struct {
	docStore driven.DocumentStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore) *DocumentService {
	return &DocumentService{docStore: docStore}
}

// List returns all documents, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return nil, storageError("list documents", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, storageError("get document", err)
	}
	return doc, nil
}

// Chunks returns the document's chunks ordered by position.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if _, err := s.Get(ctx, documentID); err != nil {
		return nil, err
	}
	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return nil, storageError("get chunks", err)
	}
	return chunks, nil
}

// Delete removes a document and its chunks.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if documentID == "" {
		return domain.ErrInvalidInput
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return storageError("delete document", err)
	}
	return nil
}
