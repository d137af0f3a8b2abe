package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// DefaultHistoryLimit bounds the messages returned by History.
const DefaultHistoryLimit = 50

// ChatService manages chat sessions and their message history.
type ChatService struct {
	chats driven.ChatStore
}

// NewChatService creates a new chat service.
func NewChatService(chats driven.ChatStore) *ChatService {
	return &ChatService{chats: chats}
}

// CreateSession starts a new session. An empty id is generated and an
// empty title becomes "New Chat".
func (s *ChatService) CreateSession(ctx context.Context, id, title, userID string) (*domain.ChatSession, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = NewSessionID()
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = domain.DefaultSessionTitle
	}

	session := &domain.ChatSession{
		ID:     id,
		Title:  title,
		UserID: strings.TrimSpace(userID),
	}
	if err := s.chats.CreateSession(ctx, session); err != nil {
		return nil, storageError("create session", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID.
func (s *ChatService) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidInput
	}
	session, err := s.chats.GetSession(ctx, id)
	if err != nil {
		return nil, storageError("get session", err)
	}
	return session, nil
}

// History returns a session with up to limit messages, oldest first.
// A non-positive limit uses DefaultHistoryLimit.
func (s *ChatService) History(
	ctx context.Context, id string, limit int,
) (*domain.ChatSession, []domain.ChatMessage, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	messages, err := s.chats.ListMessages(ctx, id, limit)
	if err != nil {
		return nil, nil, storageError("list messages", err)
	}
	if messages == nil {
		messages = []domain.ChatMessage{}
	}
	return session, messages, nil
}

// ListSessions returns all sessions, most recent first.
func (s *ChatService) ListSessions(ctx context.Context) ([]domain.ChatSession, error) {
	sessions, err := s.chats.ListSessions(ctx)
	if err != nil {
		return nil, storageError("list sessions", err)
	}
	if sessions == nil {
		sessions = []domain.ChatSession{}
	}
	return sessions, nil
}

// DeleteSession removes a session and its messages.
func (s *ChatService) DeleteSession(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidInput
	}
	if err := s.chats.DeleteSession(ctx, id); err != nil {
		return storageError("delete session", err)
	}
	return nil
}
