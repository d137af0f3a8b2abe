package httpapi

import (
	"context"
	"sync"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockIngest struct {
	mu     sync.Mutex
	got    *domain.RawDocument
	result *driving.IngestResult
	err    error
}

func (m *mockIngest) Ingest(_ context.Context, raw *domain.RawDocument) (*driving.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.got = raw
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockSearch struct {
	defaults domain.SearchOptions
	results  []domain.SearchResult
	err      error
	query    string
	opts     domain.SearchOptions
}

func (m *mockSearch) Search(_ context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.query, m.opts = query, opts
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockSearch) Defaults() domain.SearchOptions {
	return m.defaults
}

type mockAnswer struct {
	mu     sync.Mutex
	answer func(question string, opts domain.AskOptions) (*domain.Answer, error)
	calls  []domain.AskOptions
}

func (m *mockAnswer) Ask(_ context.Context, question string, opts domain.AskOptions) (*domain.Answer, error) {
	m.mu.Lock()
	m.calls = append(m.calls, opts)
	m.mu.Unlock()
	return m.answer(question, opts)
}

type mockChat struct {
	sessions map[string]*domain.ChatSession
	messages map[string][]domain.ChatMessage
	limit    int
	err      error
}

func newMockChat() *mockChat {
	return &mockChat{
		sessions: make(map[string]*domain.ChatSession),
		messages: make(map[string][]domain.ChatMessage),
	}
}

func (m *mockChat) CreateSession(_ context.Context, id, title, userID string) (*domain.ChatSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.sessions[id]; ok {
		return nil, domain.ErrAlreadyExists
	}
	if title == "" {
		title = domain.DefaultSessionTitle
	}
	s := &domain.ChatSession{ID: id, Title: title, UserID: userID}
	m.sessions[id] = s
	return s, nil
}

func (m *mockChat) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (m *mockChat) History(ctx context.Context, id string, limit int) (*domain.ChatSession, []domain.ChatMessage, error) {
	m.limit = limit
	s, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s, m.messages[id], nil
}

func (m *mockChat) ListSessions(_ context.Context) ([]domain.ChatSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.ChatSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockChat) DeleteSession(_ context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

type mockDocuments struct {
	docs    []domain.Document
	deleted []string
	err     error
}

func (m *mockDocuments) List(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *mockDocuments) Delete(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	m.deleted = append(m.deleted, id)
	return nil
}
