package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/retriever"
)

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// CreateDocument inserts the document and all of its chunks in one transaction.
func (s *documentStore) CreateDocument(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}

	var docEmbedding []byte
	if len(doc.Embedding) > 0 {
		docEmbedding, _ = doc.Embedding.MarshalBinary()
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, source, content, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, doc.ID, doc.Title, doc.Source, doc.Content, docEmbedding, string(metadataJSON), doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrAlreadyExists)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		chunk := &chunks[i]
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("%w: chunk %d has no embedding", domain.ErrInvalidInput, chunk.Position)
		}
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}
		chunk.DocumentID = doc.ID

		blob, err := chunk.Embedding.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encoding chunk embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, chunk.ID, doc.ID, chunk.Position,
			chunk.Content, blob, chunk.CreatedAt); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, source, content, embedding, metadata, created_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// ListDocuments returns all documents, newest first, without content.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, source, '', NULL, metadata, created_at
		FROM documents
		ORDER BY created_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows, false)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document and its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", id); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document ordered by position.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, position, content, embedding, created_at
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []domain.Chunk{}
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// NearestChunks loads every chunk vector in insertion order and ranks them.
func (s *documentStore) NearestChunks(
	ctx context.Context, query []float32, threshold float64, k int,
) ([]domain.SearchResult, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.position, c.content, c.embedding, c.created_at, d.title
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		ORDER BY c.seq
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var (
		results    []domain.SearchResult
		candidates []retriever.Candidate
	)
	for rows.Next() {
		var (
			chunk domain.Chunk
			blob  []byte
			title string
		)
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position, &chunk.Content,
			&blob, &chunk.CreatedAt, &title); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		vector, err := domain.UnmarshalEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding chunk %s embedding: %w", chunk.ID, err)
		}

		candidates = append(candidates, retriever.Candidate{ID: chunk.ID, Vector: vector})
		results = append(results, domain.SearchResult{Chunk: chunk, DocumentTitle: title})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	matches, err := retriever.Rank(query, candidates, threshold, k)
	if err != nil {
		return nil, err
	}

	ranked := make([]domain.SearchResult, len(matches))
	for i, m := range matches {
		ranked[i] = results[m.Index]
		ranked[i].Similarity = m.Score
	}
	return ranked, nil
}

// Close is a no-op; the connection belongs to Store.
func (s *documentStore) Close() error {
	return nil
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a document row. Embeddings are decoded only when withEmbedding is set.
func scanDocument(row rowScanner, withEmbedding bool) (*domain.Document, error) {
	var (
		doc          domain.Document
		blob         []byte
		metadataJSON string
	)

	if err := row.Scan(&doc.ID, &doc.Title, &doc.Source, &doc.Content,
		&blob, &metadataJSON, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if withEmbedding && len(blob) > 0 {
		embedding, err := domain.UnmarshalEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("decoding document embedding: %w", err)
		}
		doc.Embedding = embedding
	}

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}

	return &doc, nil
}

// scanChunk scans a chunk row.
func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var (
		chunk domain.Chunk
		blob  []byte
	)

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position,
		&chunk.Content, &blob, &chunk.CreatedAt); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	embedding, err := domain.UnmarshalEmbedding(blob)
	if err != nil {
		return nil, fmt.Errorf("decoding chunk embedding: %w", err)
	}
	chunk.Embedding = embedding

	return &chunk, nil
}
