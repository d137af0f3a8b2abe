package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// testDSNEnv names the database used by these tests. They are skipped when unset.
const testDSNEnv = "PAPERQA_TEST_POSTGRES_DSN"

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}

	ctx := context.Background()
	store, err := NewStore(ctx, dsn)
	require.NoError(t, err)

	_, err = store.pool.Exec(ctx, "TRUNCATE chat_messages, chat_sessions, chunks, documents")
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })
	return store
}

// testDocument builds a document whose chunks carry the given vectors.
func testDocument(title string, vectors ...[]float32) (*domain.Document, []domain.Chunk) {
	doc := &domain.Document{
		ID:       uuid.NewString(),
		Title:    title,
		Source:   domain.SourceUpload,
		Content:  "full text of " + title,
		Metadata: domain.DocumentMetadata{Filename: title, FileSize: 42},
	}
	chunks := make([]domain.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = domain.Chunk{
			ID:        uuid.NewString(),
			Position:  i,
			Content:   title + " chunk",
			Embedding: v,
		}
	}
	return doc, chunks
}

func TestNewStore_RequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentStore_RoundTrip(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	doc, chunks := testDocument("paper.pdf", []float32{1, 0}, []float32{0, 1})
	doc.Embedding = domain.Embedding{0.5, 0.5}
	require.NoError(t, docs.CreateDocument(ctx, doc, chunks))

	got, err := docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "paper.pdf", got.Title)
	assert.Equal(t, doc.Content, got.Content)
	assert.Equal(t, domain.Embedding{0.5, 0.5}, got.Embedding)
	assert.Equal(t, int64(42), got.Metadata.FileSize)

	stored, err := docs.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, domain.Embedding{0, 1}, stored[1].Embedding)

	err = docs.CreateDocument(ctx, doc, nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	require.NoError(t, docs.DeleteDocument(ctx, doc.ID))
	_, err = docs.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, docs.DeleteDocument(ctx, doc.ID), domain.ErrNotFound)

	stored, err = docs.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestDocumentStore_NearestChunks(t *testing.T) {
	store := setupTestStore(t)
	docs := store.DocumentStore()
	ctx := context.Background()

	doc, chunks := testDocument("ranked.pdf",
		[]float32{0.6, 0.8},
		[]float32{1, 0},
		[]float32{0, 1},
		[]float32{1, 0},
	)
	require.NoError(t, docs.CreateDocument(ctx, doc, chunks))

	results, err := docs.NearestChunks(ctx, []float32{1, 0}, 0.5, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, chunks[1].ID, results[0].Chunk.ID)
	assert.Equal(t, chunks[3].ID, results[1].Chunk.ID)
	assert.Equal(t, chunks[0].ID, results[2].Chunk.ID)
	assert.InDelta(t, 0.6, results[2].Similarity, 1e-6)
	assert.Equal(t, "ranked.pdf", results[0].DocumentTitle)

	results, err = docs.NearestChunks(ctx, []float32{1, 0}, 0.5, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = docs.NearestChunks(ctx, []float32{-1, 0}, 0.78, 5)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = docs.NearestChunks(ctx, []float32{1, 0, 0}, 0.5, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestChatStore_Lifecycle(t *testing.T) {
	store := setupTestStore(t)
	chats := store.ChatStore()
	ctx := context.Background()

	session := &domain.ChatSession{ID: "session_pg", Title: "What is RAG?"}
	require.NoError(t, chats.CreateSession(ctx, session))
	assert.ErrorIs(t, chats.CreateSession(ctx, session), domain.ErrAlreadyExists)
	require.NoError(t, chats.EnsureSession(ctx, &domain.ChatSession{ID: "session_pg", Title: "other"}))

	got, err := chats.GetSession(ctx, "session_pg")
	require.NoError(t, err)
	assert.Equal(t, "What is RAG?", got.Title)

	user := domain.NewUserMessage("session_pg", "What is RAG?")
	require.NoError(t, chats.AppendMessage(ctx, &user))
	answer := domain.NewAssistantMessage("session_pg", "Retrieval augmented generation.", []domain.EvidenceItem{
		{ChunkID: "c1", DocumentID: "d1", Title: "rag.pdf", Content: "retrieval", Similarity: 0.9},
	})
	require.NoError(t, chats.AppendMessage(ctx, &answer))
	assert.Greater(t, answer.ID, user.ID)

	messages, err := chats.ListMessages(ctx, "session_pg", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Nil(t, messages[0].Evidence)
	require.Len(t, messages[1].Evidence, 1)
	assert.Equal(t, "rag.pdf", messages[1].Evidence[0].Title)

	messages, err = chats.ListMessages(ctx, "session_pg", 1)
	require.NoError(t, err)
	assert.Len(t, messages, 1)

	missing := domain.NewUserMessage("session_missing", "hello")
	assert.ErrorIs(t, chats.AppendMessage(ctx, &missing), domain.ErrNotFound)

	require.NoError(t, chats.DeleteSession(ctx, "session_pg"))
	_, err = chats.GetSession(ctx, "session_pg")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, chats.DeleteSession(ctx, "session_pg"), domain.ErrNotFound)
}
