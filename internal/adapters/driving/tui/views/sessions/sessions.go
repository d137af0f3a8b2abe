// Package sessions provides the chat session list view for the TUI.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// ErrNoChatService indicates that no chat service was provided.
var ErrNoChatService = errors.New("chat service not available")

// View lists chat sessions. Enter reopens one in the chat view.
type View struct {
	styles      *styles.Styles
	chatService driving.ChatService
	ctx         context.Context

	sessions   []domain.ChatSession
	selected   int
	width      int
	height     int
	loading    bool
	confirming bool
	err        error
}

// NewView creates a new sessions view.
func NewView(s *styles.Styles, chatService driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:      s,
		chatService: chatService,
		ctx:         context.Background(),
		width:       80,
		height:      24,
	}
}

// WithContext sets the context service calls run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the sessions.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.confirming = false
	return v.loadSessions()
}

func (v *View) loadSessions() tea.Cmd {
	return func() tea.Msg {
		if v.chatService == nil {
			return messages.SessionsLoaded{Err: ErrNoChatService}
		}
		sessions, err := v.chatService.ListSessions(v.ctx)
		return messages.SessionsLoaded{Sessions: sessions, Err: err}
	}
}

// openSession loads the full history of a session.
func (v *View) openSession(id string) tea.Cmd {
	return func() tea.Msg {
		if v.chatService == nil {
			return messages.SessionOpened{Err: ErrNoChatService}
		}
		session, history, err := v.chatService.History(v.ctx, id, 0)
		return messages.SessionOpened{Session: session, Messages: history, Err: err}
	}
}

func (v *View) deleteSession(id string) tea.Cmd {
	return func() tea.Msg {
		if v.chatService == nil {
			return messages.SessionDeleted{SessionID: id, Err: ErrNoChatService}
		}
		return messages.SessionDeleted{SessionID: id, Err: v.chatService.DeleteSession(v.ctx, id)}
	}
}

// Update handles messages for the sessions view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		if v.confirming {
			v.confirming = false
			if msg.String() == "y" && v.selected < len(v.sessions) {
				return v, v.deleteSession(v.sessions[v.selected].ID)
			}
			return v, nil
		}
		return v.handleKeyMsg(msg)

	case messages.SessionsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.sessions = msg.Sessions
			if v.selected >= len(v.sessions) {
				v.selected = max(len(v.sessions)-1, 0)
			}
		}

	case messages.SessionDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.loading = true
		return v, v.loadSessions()

	case messages.SessionOpened:
		// The app switches to the chat view on success.
		if msg.Err != nil {
			v.err = msg.Err
		}

	case messages.ErrorOccurred:
		v.err = msg.Err
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.sessions)-1 {
			v.selected++
		}
	case "enter":
		if v.selected < len(v.sessions) {
			return v, v.openSession(v.sessions[v.selected].ID)
		}
	case "d":
		if len(v.sessions) > 0 {
			v.confirming = true
		}
	case "r":
		v.loading = true
		return v, v.loadSessions()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

// View renders the sessions view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Chat Sessions (%d)", len(v.sessions))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading sessions..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.sessions) == 0:
		b.WriteString(v.styles.Muted.Render("No chat sessions yet."))
	default:
		// Keep the selection on screen without tracking a scroll offset.
		visible := max(v.height-6, 1)
		start := max(v.selected-visible+1, 0)
		for i := start; i < len(v.sessions) && i < start+visible; i++ {
			b.WriteString(v.renderSession(i, &v.sessions[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	if v.confirming {
		b.WriteString(v.styles.Warning.Render(
			fmt.Sprintf("Delete session %q and its messages? [y/N]", v.sessions[v.selected].ID)))
	} else {
		b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] open  [d] delete  [r] reload  [esc] back"))
	}
	return b.String()
}

func (v *View) renderSession(index int, s *domain.ChatSession) string {
	line := fmt.Sprintf("%-24s  %-32s  %s", s.Title, s.ID, s.UpdatedAt.Format("2006-01-02 15:04"))
	if index == v.selected {
		return v.styles.Selected.Render("> " + line)
	}
	return v.styles.Normal.Render("  " + line)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Sessions returns the loaded sessions.
func (v *View) Sessions() []domain.ChatSession {
	return v.sessions
}

// SelectedIndex returns the currently selected session index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
