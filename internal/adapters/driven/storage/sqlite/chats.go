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
)

// ==================== Chat Store ====================

// chatStore implements driven.ChatStore.
type chatStore struct {
	store *Store
}

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

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO chat_sessions (id, title, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, session.ID, session.Title, session.UserID, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("saving session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("saving session: %w", err)
	}
	return n > 0, nil
}

// GetSession retrieves a session by ID.
func (s *chatStore) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, user_id, created_at, updated_at
		FROM chat_sessions WHERE id = ?
	`, id)

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return session, err
}

// ListSessions returns all sessions, most recently updated first.
func (s *chatStore) ListSessions(ctx context.Context) ([]domain.ChatSession, error) {
	rows, err := s.store.db.QueryContext(ctx, `
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
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a session and its messages.
func (s *chatStore) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chat_messages WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("deleting messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// AppendMessage adds a message and bumps the session's updated_at.
func (s *chatStore) AppendMessage(ctx context.Context, msg *domain.ChatMessage) error {
	if !msg.Kind.IsValid() {
		return fmt.Errorf("%w: message kind %q", domain.ErrInvalidInput, msg.Kind)
	}

	var evidence sql.NullString
	if msg.Kind == domain.MessageAssistant {
		items := msg.Evidence
		if items == nil {
			items = []domain.EvidenceItem{}
		}
		data, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("marshalling evidence: %w", err)
		}
		evidence = sql.NullString{String: string(data), Valid: true}
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, "UPDATE chat_sessions SET updated_at = ? WHERE id = ?",
		msg.CreatedAt, msg.SessionID)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session %s: %w", msg.SessionID, domain.ErrNotFound)
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO chat_messages (session_id, role, content, evidence, document_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.SessionID, string(msg.Kind), msg.Content, evidence, msg.DocumentCount, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading message id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	msg.ID = id
	return nil
}

// ListMessages returns up to limit messages of a session in creation order.
func (s *chatStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, evidence, document_count, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY id
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.ChatMessage{}
	for rows.Next() {
		var (
			msg      domain.ChatMessage
			role     string
			evidence sql.NullString
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &role, &msg.Content,
			&evidence, &msg.DocumentCount, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msg.Kind = domain.MessageKind(role)
		if evidence.Valid {
			if err := json.Unmarshal([]byte(evidence.String), &msg.Evidence); err != nil {
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

// scanSession scans a chat session row.
func scanSession(row rowScanner) (*domain.ChatSession, error) {
	var session domain.ChatSession
	if err := row.Scan(&session.ID, &session.Title, &session.UserID,
		&session.CreatedAt, &session.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	return &session, nil
}
