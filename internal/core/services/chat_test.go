package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/paperqa/internal/core/domain"
)

func TestChatService_CreateSession(t *testing.T) {
	svc := NewChatService(memory.NewChatStore())
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "", "  ", " user-1 ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(session.ID, domain.SessionIDPrefix))
	assert.Equal(t, domain.DefaultSessionTitle, session.Title)
	assert.Equal(t, "user-1", session.UserID)
	assert.False(t, session.CreatedAt.IsZero())

	named, err := svc.CreateSession(ctx, "session_fixed", "Transformers", "")
	require.NoError(t, err)
	assert.Equal(t, "session_fixed", named.ID)
	assert.Equal(t, "Transformers", named.Title)

	_, err = svc.CreateSession(ctx, "session_fixed", "again", "")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestChatService_History(t *testing.T) {
	chats := memory.NewChatStore()
	svc := NewChatService(chats)
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, "session_h", "", "")
	require.NoError(t, err)
	for i := 0; i < DefaultHistoryLimit+5; i++ {
		msg := domain.NewUserMessage("session_h", "question")
		require.NoError(t, chats.AppendMessage(ctx, &msg))
	}

	session, messages, err := svc.History(ctx, "session_h", 0)
	require.NoError(t, err)
	assert.Equal(t, "session_h", session.ID)
	require.Len(t, messages, DefaultHistoryLimit)
	for i := 1; i < len(messages); i++ {
		assert.Less(t, messages[i-1].ID, messages[i].ID)
	}

	_, messages, err = svc.History(ctx, "session_h", 3)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
}

func TestChatService_History_EmptySession(t *testing.T) {
	svc := NewChatService(memory.NewChatStore())
	ctx := context.Background()

	_, err := svc.CreateSession(ctx, "session_empty", "", "")
	require.NoError(t, err)

	_, messages, err := svc.History(ctx, "session_empty", 10)
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestChatService_Errors(t *testing.T) {
	svc := NewChatService(memory.NewChatStore())
	ctx := context.Background()

	_, err := svc.GetSession(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.GetSession(ctx, "session_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = svc.History(ctx, "session_missing", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteSession(ctx, ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.DeleteSession(ctx, "session_missing"), domain.ErrNotFound)
}

func TestChatService_ListAndDelete(t *testing.T) {
	svc := NewChatService(memory.NewChatStore())
	ctx := context.Background()

	sessions, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)

	_, err = svc.CreateSession(ctx, "session_a", "A", "")
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, "session_b", "B", "")
	require.NoError(t, err)

	sessions, err = svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	require.NoError(t, svc.DeleteSession(ctx, "session_a"))
	_, err = svc.GetSession(ctx, "session_a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sessions, err = svc.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "session_b", sessions[0].ID)
}
