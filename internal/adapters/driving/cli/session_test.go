package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperqa/internal/core/domain"
)

func TestSessionCmd_List(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "session", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "s1")
	assert.Contains(t, out, "Transformers")
}

func TestSessionCmd_ListEmpty(t *testing.T) {
	ts := setupTestServices(t)
	ts.chat.sessions = nil

	out, err := execute(t, "sessions", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "No sessions yet.")
}

func TestSessionCmd_Show(t *testing.T) {
	ts := setupTestServices(t)
	ts.chat.messages = []domain.ChatMessage{
		{SessionID: "s1", Kind: domain.MessageUser, Content: "What is attention?", CreatedAt: testTime},
		{SessionID: "s1", Kind: domain.MessageAssistant, Content: "A weighting.", CreatedAt: testTime},
	}

	out, err := execute(t, "session", "show", "s1", "--limit", "10")
	require.NoError(t, err)

	assert.Equal(t, []int{10}, ts.chat.limits)
	assert.Contains(t, out, "Transformers (s1)")
	assert.Contains(t, out, "You [")
	assert.Contains(t, out, "What is attention?")
	assert.Contains(t, out, "paperqa [")
	assert.Contains(t, out, "A weighting.")
}

func TestSessionCmd_ShowJSON(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "session", "show", "--json", "s1")
	require.NoError(t, err)

	var got struct {
		Session  domain.ChatSession   `json:"session"`
		Messages []domain.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "s1", got.Session.ID)
	assert.NotNil(t, got.Messages)
	assert.Empty(t, got.Messages)
}

func TestSessionCmd_ShowMissing(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "session", "show", "nope")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionCmd_Create(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantOut string
		wantErr error
	}{
		{"generated id", []string{"session", "create"}, "Created session session-new (New Chat)", nil},
		{"explicit id and title", []string{"session", "create", "s9", "--title", "Reading group"}, "Created session s9 (Reading group)", nil},
		{"existing id", []string{"session", "create", "s1"}, "", domain.ErrAlreadyExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestServices(t)

			out, err := execute(t, tt.args...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestSessionCmd_Delete(t *testing.T) {
	ts := setupTestServices(t)

	out, err := execute(t, "session", "delete", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted session s1")
	assert.Equal(t, []string{"s1"}, ts.chat.deleted)

	_, err = execute(t, "session", "delete", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
