package sessions

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// MockChatService implements driving.ChatService for testing.
type MockChatService struct {
	Sessions []domain.ChatSession
	Messages map[string][]domain.ChatMessage
	Deleted  []string
	Err      error
}

func (m *MockChatService) CreateSession(context.Context, string, string, string) (*domain.ChatSession, error) {
	return nil, m.Err
}

func (m *MockChatService) GetSession(_ context.Context, id string) (*domain.ChatSession, error) {
	for i := range m.Sessions {
		if m.Sessions[i].ID == id {
			return &m.Sessions[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockChatService) History(ctx context.Context, id string, _ int) (*domain.ChatSession, []domain.ChatMessage, error) {
	s, err := m.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s, m.Messages[id], nil
}

func (m *MockChatService) ListSessions(context.Context) ([]domain.ChatSession, error) {
	return m.Sessions, m.Err
}

func (m *MockChatService) DeleteSession(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Deleted = append(m.Deleted, id)
	return nil
}

func testService() *MockChatService {
	now := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return &MockChatService{
		Sessions: []domain.ChatSession{
			{ID: "session_b", Title: "Transformers", UpdatedAt: now},
			{ID: "session_a", Title: domain.DefaultSessionTitle, UpdatedAt: now.Add(-time.Hour)},
		},
		Messages: map[string][]domain.ChatMessage{
			"session_b": {domain.NewUserMessage("session_b", "what is attention?")},
		},
	}
}

func loadedView(t *testing.T, svc *MockChatService) *View {
	t.Helper()
	v := NewView(nil, svc)
	v.SetDimensions(120, 30)
	v, _ = v.Update(v.Init()())
	return v
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_LoadsSessions(t *testing.T) {
	v := loadedView(t, testService())

	require.Len(t, v.Sessions(), 2)
	view := v.View()
	assert.Contains(t, view, "Chat Sessions (2)")
	assert.Contains(t, view, "Transformers")
	assert.Contains(t, view, "2025-03-01 09:30")
}

func TestView_NoService(t *testing.T) {
	v := NewView(nil, nil)
	v, _ = v.Update(v.Init()())

	assert.ErrorIs(t, v.Err(), ErrNoChatService)
	assert.Contains(t, v.View(), "chat service not available")
}

func TestView_OpenSession(t *testing.T) {
	v := loadedView(t, testService())

	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.SessionOpened)
	require.True(t, ok)
	require.NoError(t, msg.Err)
	assert.Equal(t, "session_b", msg.Session.ID)
	assert.Len(t, msg.Messages, 1)

	v.Update(messages.SessionOpened{Err: domain.ErrNotFound})
	assert.ErrorIs(t, v.Err(), domain.ErrNotFound)
}

func TestView_DeleteWithConfirmation(t *testing.T) {
	svc := testService()
	v := loadedView(t, svc)

	v, _ = v.Update(runes("j"))
	assert.Equal(t, 1, v.SelectedIndex())

	v, _ = v.Update(runes("d"))
	assert.Contains(t, v.View(), `Delete session "session_a" and its messages? [y/N]`)

	v, cmd := v.Update(runes("y"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, messages.SessionDeleted{SessionID: "session_a"}, msg)
	assert.Equal(t, []string{"session_a"}, svc.Deleted)

	svc.Sessions = svc.Sessions[:1]
	v, cmd = v.Update(msg)
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())

	assert.Len(t, v.Sessions(), 1)
	assert.Equal(t, 0, v.SelectedIndex())
}

func TestView_DeleteCancelled(t *testing.T) {
	svc := testService()
	v := loadedView(t, svc)

	v, _ = v.Update(runes("d"))
	_, cmd := v.Update(runes("n"))

	assert.Nil(t, cmd)
	assert.Empty(t, svc.Deleted)
}

func TestView_Esc(t *testing.T) {
	v := loadedView(t, testService())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}
