package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

// Ensure ChatStore implements the interface.
var _ driven.ChatStore = (*ChatStore)(nil)

// ChatStore is an in-memory implementation of driven.ChatStore.
type ChatStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.ChatSession
	messages map[string][]domain.ChatMessage
	nextID   int64
	now      func() time.Time
}

// NewChatStore creates a new in-memory chat store.
func NewChatStore() *ChatStore {
	return &ChatStore{
		sessions: make(map[string]domain.ChatSession),
		messages: make(map[string][]domain.ChatMessage),
		now:      time.Now,
	}
}

// CreateSession stores a new session.
func (s *ChatStore) CreateSession(_ context.Context, session *domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrAlreadyExists)
	}
	s.insertLocked(session)
	return nil
}

// EnsureSession creates the session if it does not exist yet.
func (s *ChatStore) EnsureSession(_ context.Context, session *domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return nil
	}
	s.insertLocked(session)
	return nil
}

func (s *ChatStore) insertLocked(session *domain.ChatSession) {
	now := s.now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}
	s.sessions[session.ID] = *session
}

// GetSession retrieves a session by ID.
func (s *ChatStore) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &session, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *ChatStore) ListSessions(_ context.Context) ([]domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ChatSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteSession removes a session and its messages.
func (s *ChatStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	delete(s.messages, id)
	return nil
}

// AppendMessage adds a message to an existing session.
func (s *ChatStore) AppendMessage(_ context.Context, msg *domain.ChatMessage) error {
	if !msg.Kind.IsValid() {
		return fmt.Errorf("%w: message kind %q", domain.ErrInvalidInput, msg.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[msg.SessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", msg.SessionID, domain.ErrNotFound)
	}

	s.nextID++
	msg.ID = s.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now().UTC()
	}
	s.messages[msg.SessionID] = append(s.messages[msg.SessionID], *msg)

	session.UpdatedAt = msg.CreatedAt
	s.sessions[msg.SessionID] = session
	return nil
}

// ListMessages returns up to limit messages of a session in creation order.
func (s *ChatStore) ListMessages(_ context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	result := make([]domain.ChatMessage, len(msgs))
	copy(result, msgs)
	return result, nil
}
