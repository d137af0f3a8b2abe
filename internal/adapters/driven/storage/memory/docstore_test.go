package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

func testDocument(id string, vectors ...[]float32) (*domain.Document, []domain.Chunk) {
	doc := &domain.Document{ID: id, Title: id + ".pdf", Content: "text of " + id}
	chunks := make([]domain.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = domain.Chunk{
			ID:        fmt.Sprintf("%s-c%d", id, i),
			Position:  i,
			Content:   fmt.Sprintf("chunk %d", i),
			Embedding: v,
		}
	}
	return doc, chunks
}

func TestDocumentStore_CreateAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc, chunks := testDocument("d1", []float32{1, 0}, []float32{0, 1})
	require.NoError(t, store.CreateDocument(ctx, doc, chunks))

	got, err := store.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "d1.pdf", got.Title)
	assert.False(t, got.CreatedAt.IsZero())

	stored, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "d1", stored[0].DocumentID)

	// Mutating the caller's slice must not affect stored vectors.
	chunks[0].Embedding[0] = 42
	stored, err = store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.Embedding{1, 0}, stored[0].Embedding)
}

func TestDocumentStore_Errors(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	_, err := store.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, store.DeleteDocument(ctx, "missing"), domain.ErrNotFound)
	assert.ErrorIs(t, store.CreateDocument(ctx, &domain.Document{}, nil), domain.ErrInvalidInput)

	doc, chunks := testDocument("d1", []float32{1, 0})
	require.NoError(t, store.CreateDocument(ctx, doc, chunks))
	assert.ErrorIs(t, store.CreateDocument(ctx, doc, chunks), domain.ErrAlreadyExists)

	bad, badChunks := testDocument("d2", []float32{1, 0})
	badChunks[0].ID = ""
	assert.ErrorIs(t, store.CreateDocument(ctx, bad, badChunks), domain.ErrInvalidInput)
	_, err = store.GetDocument(ctx, "d2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListDocuments_NewestFirst(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		doc, chunks := testDocument(id, []float32{1})
		require.NoError(t, store.CreateDocument(ctx, doc, chunks))
	}

	list, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].ID)
	assert.Equal(t, "first", list[2].ID)
	assert.Empty(t, list[0].Content)
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc, chunks := testDocument("d1", []float32{1, 0})
	require.NoError(t, store.CreateDocument(ctx, doc, chunks))
	require.NoError(t, store.DeleteDocument(ctx, "d1"))

	remaining, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	results, err := store.NearestChunks(ctx, []float32{1, 0}, 0, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDocumentStore_NearestChunks(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	a, aChunks := testDocument("a", []float32{1, 0}, []float32{0.6, 0.8})
	b, bChunks := testDocument("b", []float32{0.8, 0.6}, []float32{1, 0})
	require.NoError(t, store.CreateDocument(ctx, a, aChunks))
	require.NoError(t, store.CreateDocument(ctx, b, bChunks))

	results, err := store.NearestChunks(ctx, []float32{1, 0}, 0.7, 5)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Equal scores keep insertion order.
	assert.Equal(t, "a-c0", results[0].Chunk.ID)
	assert.Equal(t, "b-c1", results[1].Chunk.ID)
	assert.Equal(t, "b-c0", results[2].Chunk.ID)
	assert.Equal(t, "b.pdf", results[1].DocumentTitle)
	assert.Nil(t, results[0].Chunk.Embedding)

	_, err = store.NearestChunks(ctx, []float32{1, 0, 0}, 0.7, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestDocumentStore_NearestChunks_EmptyStore(t *testing.T) {
	results, err := NewDocumentStore().NearestChunks(context.Background(), []float32{1, 0}, 0.78, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChatStore_Lifecycle(t *testing.T) {
	store := NewChatStore()
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	require.NoError(t, store.CreateSession(ctx, &domain.ChatSession{ID: "s1", Title: "one"}))
	require.NoError(t, store.EnsureSession(ctx, &domain.ChatSession{ID: "s1", Title: "ignored"}))
	require.NoError(t, store.EnsureSession(ctx, &domain.ChatSession{ID: "s2", Title: "two"}))
	assert.ErrorIs(t, store.CreateSession(ctx, &domain.ChatSession{ID: "s1"}), domain.ErrAlreadyExists)

	got, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "one", got.Title)

	store.now = func() time.Time { return base.Add(time.Minute) }
	q := domain.NewUserMessage("s1", "question")
	require.NoError(t, store.AppendMessage(ctx, &q))
	a := domain.NewAssistantMessage("s1", "answer", nil)
	require.NoError(t, store.AppendMessage(ctx, &a))
	assert.Greater(t, a.ID, q.ID)

	sessions, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "s1", sessions[0].ID)

	msgs, err := store.ListMessages(ctx, "s1", 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "question", msgs[0].Content)

	orphan := domain.NewUserMessage("missing", "x")
	assert.ErrorIs(t, store.AppendMessage(ctx, &orphan), domain.ErrNotFound)

	require.NoError(t, store.DeleteSession(ctx, "s1"))
	assert.ErrorIs(t, store.DeleteSession(ctx, "s1"), domain.ErrNotFound)
	msgs, err = store.ListMessages(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
