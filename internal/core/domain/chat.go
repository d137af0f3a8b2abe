package domain

import (
	"strings"
	"time"
)

// MessageKind distinguishes the two kinds of chat log entry.
type MessageKind string

const (
	// MessageUser is a question asked by the user.
	MessageUser MessageKind = "user"

	// MessageAssistant is a generated answer with its evidence.
	MessageAssistant MessageKind = "assistant"
)

// IsValid returns true if the kind is recognised.
func (k MessageKind) IsValid() bool {
	return k == MessageUser || k == MessageAssistant
}

// String returns the string representation.
func (k MessageKind) String() string {
	return string(k)
}

// DefaultSessionTitle is used when a session is created without a title.
const DefaultSessionTitle = "New Chat"

// SessionIDPrefix prefixes generated session identifiers.
const SessionIDPrefix = "session_"

// ChatSession groups a conversation's messages.
type ChatSession struct {
	// ID is the caller-visible session identifier.
	ID string `json:"sessionId"`

	// Title is a short label, usually the first question.
	Title string `json:"title"`

	// UserID optionally associates the session with a user.
	UserID string `json:"userId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChatMessage is one entry of the append-only chat log.
// User messages never carry evidence; assistant messages always carry a
// (possibly empty) evidence list.
type ChatMessage struct {
	ID        int64       `json:"id"`
	SessionID string      `json:"sessionId"`
	Kind      MessageKind `json:"role"`
	Content   string      `json:"content"`

	// Evidence is set for assistant messages only.
	Evidence []EvidenceItem `json:"evidence,omitempty"`

	// DocumentCount is the number of chunks used to answer.
	DocumentCount int `json:"documentCount,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewUserMessage builds a user message for a session.
func NewUserMessage(sessionID, content string) ChatMessage {
	return ChatMessage{
		SessionID: sessionID,
		Kind:      MessageUser,
		Content:   content,
	}
}

// NewAssistantMessage builds an assistant message carrying its evidence.
func NewAssistantMessage(sessionID, content string, evidence []EvidenceItem) ChatMessage {
	if evidence == nil {
		evidence = []EvidenceItem{}
	}
	return ChatMessage{
		SessionID:     sessionID,
		Kind:          MessageAssistant,
		Content:       content,
		Evidence:      evidence,
		DocumentCount: len(evidence),
	}
}

// TitleFromQuestion derives a session title from the first question,
// limited to maxRunes characters.
func TitleFromQuestion(question string, maxRunes int) string {
	q := strings.TrimSpace(question)
	r := []rune(q)
	if maxRunes > 0 && len(r) > maxRunes {
		return string(r[:maxRunes])
	}
	return q
}
