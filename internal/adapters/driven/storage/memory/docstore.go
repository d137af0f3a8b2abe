package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/retriever"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// storedDocument keeps a document with its insertion sequence.
type storedDocument struct {
	doc    domain.Document
	seq    int64
	chunks []domain.Chunk
}

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Similarity search scans every chunk with the retriever.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*storedDocument
	seq       int64
	now       func() time.Time
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]*storedDocument),
		now:       time.Now,
	}
}

// CreateDocument stores a document and its chunks under one lock.
func (s *DocumentStore) CreateDocument(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	for i := range chunks {
		if chunks[i].ID == "" {
			return fmt.Errorf("%w: chunk %d has no id", domain.ErrInvalidInput, i)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[doc.ID]; ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrAlreadyExists)
	}

	now := s.now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}

	stored := &storedDocument{doc: *doc, chunks: make([]domain.Chunk, len(chunks))}
	stored.doc.Embedding = cloneVector(doc.Embedding)
	for i, c := range chunks {
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		c.DocumentID = doc.ID
		c.Embedding = cloneVector(c.Embedding)
		stored.chunks[i] = c
	}

	s.seq++
	stored.seq = s.seq
	s.documents[doc.ID] = stored
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := stored.doc
	doc.Embedding = cloneVector(doc.Embedding)
	return &doc, nil
}

// ListDocuments returns all documents, newest first, without content.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ordered := s.ordered()
	result := make([]domain.Document, 0, len(ordered))
	for i := len(ordered) - 1; i >= 0; i-- {
		doc := ordered[i].doc
		doc.Content = ""
		doc.Embedding = nil
		result = append(result, doc)
	}
	return result, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

// GetChunks retrieves all chunks for a document ordered by position.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.documents[documentID]
	if !ok {
		return []domain.Chunk{}, nil
	}

	chunks := make([]domain.Chunk, len(stored.chunks))
	for i, c := range stored.chunks {
		c.Embedding = cloneVector(c.Embedding)
		chunks[i] = c
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Position < chunks[j].Position
	})
	return chunks, nil
}

// NearestChunks ranks every stored chunk against query.
func (s *DocumentStore) NearestChunks(
	_ context.Context, query []float32, threshold float64, k int,
) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		candidates []retriever.Candidate
		chunks     []domain.Chunk
		titles     []string
	)
	for _, stored := range s.ordered() {
		for _, c := range stored.chunks {
			candidates = append(candidates, retriever.Candidate{ID: c.ID, Vector: c.Embedding})
			chunks = append(chunks, c)
			titles = append(titles, stored.doc.Title)
		}
	}

	matches, err := retriever.Rank(query, candidates, threshold, k)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, len(matches))
	for i, m := range matches {
		chunk := chunks[m.Index]
		chunk.Embedding = nil
		results[i] = domain.SearchResult{
			Chunk:         chunk,
			DocumentTitle: titles[m.Index],
			Similarity:    m.Score,
		}
	}
	return results, nil
}

// Close is a no-op for the memory store.
func (s *DocumentStore) Close() error {
	return nil
}

// ordered returns documents in insertion order. Caller holds the lock.
func (s *DocumentStore) ordered() []*storedDocument {
	docs := make([]*storedDocument, 0, len(s.documents))
	for _, stored := range s.documents {
		docs = append(docs, stored)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].seq < docs[j].seq
	})
	return docs
}

func cloneVector(v domain.Embedding) domain.Embedding {
	if v == nil {
		return nil
	}
	out := make(domain.Embedding, len(v))
	copy(out, v)
	return out
}
