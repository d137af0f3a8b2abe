// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the question and answer view.
	ViewChat
	// ViewDocuments lists ingested papers.
	ViewDocuments
	// ViewSessions lists chat sessions.
	ViewSessions
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewDocuments:
		return "documents"
	case ViewSessions:
		return "sessions"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// AnswerReceived carries the result of a question back to the chat view.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// DocumentsLoaded carries the ingested documents.
type DocumentsLoaded struct {
	Documents []domain.Document
	Err       error
}

// DocumentDeleted signals a document and its chunks were removed.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// SessionsLoaded carries the chat sessions, most recent first.
type SessionsLoaded struct {
	Sessions []domain.ChatSession
	Err      error
}

// SessionDeleted signals a chat session was removed.
type SessionDeleted struct {
	SessionID string
	Err       error
}

// SessionOpened carries a session and its history for the chat view.
type SessionOpened struct {
	Session  *domain.ChatSession
	Messages []domain.ChatMessage
	Err      error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
