package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
)

// ==================== Chat Store ====================

// chatStore implements driven.ChatStore on PostgreSQL.
type chatStore struct {
	pool *pgxpool.Pool
}

// Ensure chatStore implements the interface.
var _ driven.ChatStore = (*chatStore)(nil)

// CreateSession stores a new session, failing if the ID is taken.
func (s *chatStore) CreateSession(ctx context.Context, session *domain.ChatSession) error {
	inserted, err := s.insertSession(ctx, session)
	if err != nil {
		return err
	}
	if !inserted {
		return fmt.Errorf("session %s: %w", session.ID, domain.ErrAlreadyExists)
	}
	return nil
}

// EnsureSession creates the session if it does not exist yet.
func (s *chatStore) EnsureSession(ctx context.Context, session *domain.ChatSession) error {
	_, err := s.insertSession(ctx, session)
	return err
}

func (s *chatStore) insertSession(ctx context.Context, session *domain.ChatSession) (bool, error) {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO chat_sessions (id, title, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, session.ID, session.Title, session.UserID, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("saving session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetSession retrieves a session by ID.
func (s *chatStore) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	var session domain.ChatSession
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, user_id, created_at, updated_at
		FROM chat_sessions WHERE id = $1
	`, id).Scan(&session.ID, &session.Title, &session.UserID, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &session, nil
}

// ListSessions returns all sessions, most recently updated first.
func (s *chatStore) ListSessions(ctx context.Context) ([]domain.ChatSession, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, user_id, created_at, updated_at
		FROM chat_sessions
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	sessions := []domain.ChatSession{}
	for rows.Next() {
		var session domain.ChatSession
		if err := rows.Scan(&session.ID, &session.Title, &session.UserID,
			&session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session. Messages go with it through the cascade.
func (s *chatStore) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM chat_sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendMessage adds a message and bumps the session's updated_at.
func (s *chatStore) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if !msg.Kind.IsValid() {
		return fmt.Errorf("%w: message kind %q", domain.ErrInvalidInput, msg.Kind)
	}

	var evidence []byte
	if msg.Kind == domain.MessageAssistant {
		items := msg.Evidence
		if items == nil {
			items = []domain.EvidenceItem{}
		}
		data, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("marshalling evidence: %w", err)
		}
		evidence = data
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, "UPDATE chat_sessions SET updated_at = $1 WHERE id = $2",
		msg.CreatedAt, msg.SessionID)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", msg.SessionID, domain.ErrNotFound)
	}

	var id int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO chat_messages (session_id, role, content, evidence, document_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, msg.SessionID, string(msg.Kind), msg.Content, evidence, msg.DocumentCount, msg.CreatedAt).Scan(&id); err != nil {
		return fmt.Errorf("saving message: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	msg.ID = id
	return nil
}

// ListMessages returns up to limit messages of a session in creation order.
func (s *chatStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	var maxRows any // NULL means no limit
	if limit > 0 {
		maxRows = limit
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, role, content, evidence, document_count, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY id
		LIMIT $2
	`, sessionID, maxRows)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		var (
			msg      domain.ChatMessage
			role     string
			evidence []byte
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content,
			&evidence, &msg.DocumentCount, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Kind = domain.MessageKind(role)
		if evidence != nil {
			if err := json.Unmarshal(evidence, &msg.Evidence); err != nil {
				return nil, fmt.Errorf("unmarshalling evidence: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return messages, nil
}
