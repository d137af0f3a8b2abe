package tui

import (
	"context"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

type mockAnswerService struct {
	questions []string
	err       error
}

func (m *mockAnswerService) Ask(_ context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	m.questions = append(m.questions, question)
	if m.err != nil {
		return nil, m.err
	}
	sid := opts.SessionID
	if sid == "" {
		sid = "session-1"
	}
	return &domain.Answer{SessionID: sid, Text: "answer to " + question, Found: true}, nil
}

type mockChatService struct {
	sessions []domain.ChatSession
	history  []domain.ChatMessage
	err      error
}

func (m *mockChatService) CreateSession(_ context.Context, id, title, userID string) (*domain.ChatSession, error) {
	return &domain.ChatSession{ID: id, Title: title, UserID: userID}, m.err
}

func (m *mockChatService) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			return &m.sessions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockChatService) History(ctx context.Context, id string, _ int) (*domain.ChatSession, []domain.ChatMessage, error) {
	s, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s, m.history, nil
}

func (m *mockChatService) ListSessions(context.Context) ([]domain.ChatSession, error) {
	return m.sessions, m.err
}

func (m *mockChatService) DeleteSession(context.Context, string) error {
	return m.err
}

type mockDocumentService struct {
	documents []domain.Document
	err       error
}

func (m *mockDocumentService) List(context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Chunks(context.Context, string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockDocumentService) Delete(context.Context, string) error {
	return m.err
}
