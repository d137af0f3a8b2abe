package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/views/sessions"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView      *menu.View
	chatView      *chat.View
	documentsView *documents.View
	sessionsView  *sessions.View

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
// It starts in the chat view; esc opens the menu.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		menuView:      menu.NewView(s, menuItems(ports)),
		chatView:      chat.NewView(s, km, ports.Answer),
		documentsView: documents.NewView(s, ports.Document),
		sessionsView:  sessions.NewView(s, ports.Chat),
		currentView:   messages.ViewChat,
	}, nil
}

// menuItems hides entries whose service is not wired.
func menuItems(ports *Ports) []menu.Item {
	items := make([]menu.Item, 0, len(menu.DefaultItems()))
	for _, item := range menu.DefaultItems() {
		if item.Quit {
			items = append(items, item)
			continue
		}
		if item.View == messages.ViewDocuments && ports.Document == nil {
			continue
		}
		if item.View == messages.ViewSessions && ports.Chat == nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// WithContext sets the context service calls run under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.documentsView.WithContext(ctx)
	a.sessionsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("paperqa"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewChat:
			return a, a.chatView.Init()
		case messages.ViewDocuments:
			return a, a.documentsView.Init()
		case messages.ViewSessions:
			return a, a.sessionsView.Init()
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, nil

	case messages.AnswerReceived:
		// Answers land in the chat view even if the user navigated away.
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.SessionsLoaded, messages.SessionDeleted:
		a.sessionsView, cmd = a.sessionsView.Update(msg)
		return a, cmd

	case messages.SessionOpened:
		if msg.Err != nil {
			a.err = msg.Err
			a.sessionsView, cmd = a.sessionsView.Update(msg)
			return a, cmd
		}
		a.chatView.SetSession(msg.Session, msg.Messages)
		a.currentView = messages.ViewChat
		return a, a.chatView.Init()

	case messages.ErrorOccurred:
		a.err = msg.Err

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewSessions:
		a.sessionsView, cmd = a.sessionsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewMenu:
		return a.menuView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewSessions:
		return a.sessionsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.chatView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Chat:
  (type)      Enter a question
  enter       Ask
  ctrl+e      Show or hide evidence
  ctrl+n      Start a new chat session
  pgup/pgdn   Scroll the transcript
  esc         Menu

Documents and sessions:
  j/k, ↑/↓    Navigate
  enter       Details / open session
  d           Delete (asks for confirmation)
  r           Reload
  esc         Menu

Anywhere:
  ctrl+c      Quit

` + a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI and blocks until it exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.WithContext(ctx)
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// ChatView returns the chat view.
func (a *App) ChatView() *chat.View {
	return a.chatView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its first window size.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.sessionsView.SetDimensions(width, height)
}
