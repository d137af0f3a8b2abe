package driven

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// ChatStore persists the append-only chat log.
type ChatStore interface {
	// CreateSession stores a new session.
	// Returns domain.ErrAlreadyExists if the ID is taken.
	CreateSession(ctx context.Context, session *domain.ChatSession) error

	// EnsureSession creates the session if it does not exist yet.
	// An existing session is left untouched.
	EnsureSession(ctx context.Context, session *domain.ChatSession) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id string) (*domain.ChatSession, error)

	// ListSessions returns all sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]domain.ChatSession, error)

	// DeleteSession removes a session and its messages.
	// Returns domain.ErrNotFound if the session does not exist.
	DeleteSession(ctx context.Context, id string) error

	// AppendMessage adds a message to a session and sets its ID and CreatedAt.
	AppendMessage(ctx context.Context, msg *domain.ChatMessage) error

	// ListMessages returns up to limit messages of a session in creation order.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
}
