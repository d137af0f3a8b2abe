package driving

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// ChatService manages chat sessions and their history.
type ChatService interface {
	// CreateSession starts a session. An empty id is generated.
	CreateSession(ctx context.Context, id, title, userID string) (*domain.ChatSession, error)

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)

	// History returns a session and up to limit of its messages in order.
	History(ctx context.Context, id string, limit int) (*domain.ChatSession, []domain.ChatMessage, error)

	// ListSessions returns all sessions, most recent first.
	ListSessions(ctx context.Context) ([]domain.ChatSession, error)

	// DeleteSession removes a session and its messages.
	DeleteSession(ctx context.Context, id string) error
}
