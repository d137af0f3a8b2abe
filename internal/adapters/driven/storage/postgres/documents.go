package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore on PostgreSQL with pgvector.
type documentStore struct {
	pool *pgxpool.Pool
}

// Ensure documentStore implements the interface.
var _ driven.DocumentStore = (*documentStore)(nil)

// CreateDocument inserts the document and its chunks in one transaction.
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

	var docEmbedding any
	if len(doc.Embedding) > 0 {
		docEmbedding = pgvector.NewVector(doc.Embedding)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `
		INSERT INTO documents (id, title, source, content, embedding, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5::vector, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`, doc.ID, doc.Title, doc.Source, doc.Content, docEmbedding, metadataJSON, doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrAlreadyExists)
	}

	batch := &pgx.Batch{}
	for i := range chunks {
		chunk := &chunks[i]
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("%w: chunk %d has no embedding", domain.ErrInvalidInput, chunk.Position)
		}
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}
		chunk.DocumentID = doc.ID

		batch.Queue(`
			INSERT INTO chunks (id, document_id, position, content, embedding, created_at)
			VALUES ($1, $2, $3, $4, $5::vector, $6)
		`, chunk.ID, doc.ID, chunk.Position, chunk.Content, pgvector.NewVector(chunk.Embedding), chunk.CreatedAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("saving chunks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, title, source, content, embedding::text, metadata, created_at
		FROM documents WHERE id = $1
	`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// ListDocuments returns all documents, newest first, without content.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, source, '', NULL::text, metadata, created_at
		FROM documents
		ORDER BY created_at DESC, seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
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

// DeleteDocument removes a document. Chunks go with it through the cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetChunks retrieves all chunks for a document ordered by position.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, position, content, embedding::text, created_at
		FROM chunks WHERE document_id = $1
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []domain.Chunk{}
	for rows.Next() {
		var (
			chunk  domain.Chunk
			vector string
		)
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position,
			&chunk.Content, &vector, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		embedding, err := parseVector(vector)
		if err != nil {
			return nil, fmt.Errorf("decoding chunk %s embedding: %w", chunk.ID, err)
		}
		chunk.Embedding = embedding
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// NearestChunks ranks chunks server-side with the cosine distance operator.
// Zero vectors produce NaN distances and never match.
func (s *documentStore) NearestChunks(
	ctx context.Context, query []float32, threshold float64, k int,
) ([]domain.SearchResult, error) {
	if k <= 0 {
		return []domain.SearchResult{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, position, content, created_at, title, similarity
		FROM (
			SELECT c.seq, c.id, c.document_id, c.position, c.content, c.created_at, d.title,
			       1 - (c.embedding <=> $1::vector) AS similarity
			FROM chunks c
			JOIN documents d ON d.id = c.document_id
		) scored
		WHERE similarity >= $2 AND similarity <> 'NaN'
		ORDER BY similarity DESC, seq
		LIMIT $3
	`, pgvector.NewVector(query), threshold, k)
	if err != nil {
		return nil, fmt.Errorf("querying nearest chunks: %w", mapError(err))
	}
	defer rows.Close()

	results := []domain.SearchResult{}
	for rows.Next() {
		var r domain.SearchResult
		if err := rows.Scan(&r.Chunk.ID, &r.Chunk.DocumentID, &r.Chunk.Position, &r.Chunk.Content,
			&r.Chunk.CreatedAt, &r.DocumentTitle, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, r)
	}
	// The dimension check fires while rows stream, so it surfaces here.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", mapError(err))
	}
	return results, nil
}

// Close is a no-op; the pool belongs to Store.
func (s *documentStore) Close() error {
	return nil
}

// ==================== Helper Functions ====================

// scanDocument scans a document row whose embedding column is vector text.
func scanDocument(row pgx.Row) (*domain.Document, error) {
	var (
		doc          domain.Document
		vector       *string
		metadataJSON []byte
	)

	if err := row.Scan(&doc.ID, &doc.Title, &doc.Source, &doc.Content,
		&vector, &metadataJSON, &doc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if vector != nil {
		embedding, err := parseVector(*vector)
		if err != nil {
			return nil, fmt.Errorf("decoding document embedding: %w", err)
		}
		doc.Embedding = embedding
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}

	return &doc, nil
}

// parseVector decodes pgvector's text form, e.g. "[1,2,3]".
func parseVector(s string) (domain.Embedding, error) {
	var v pgvector.Vector
	if err := v.Scan(s); err != nil {
		return nil, err
	}
	return domain.Embedding(v.Slice()), nil
}
