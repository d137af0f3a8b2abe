// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/components/transcript"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driving"
)

// ErrNoAnswerService indicates that no answer service was provided.
var ErrNoAnswerService = errors.New("answer service is required")

// View is the chat view: a transcript above a question input.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript *transcript.Transcript
	statusbar  *status.Bar

	answerService driving.AnswerService
	ctx           context.Context

	sessionID string
	waiting   bool
	width     int
	height    int
	ready     bool
	err       error
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, answerService driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewQuestionInput(s),
		transcript:    transcript.New(s),
		statusbar:     status.NewBar(s, km.ChatHelp()),
		answerService: answerService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
}

// WithContext sets the context questions are asked under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	v.statusbar, cmd = v.statusbar.Update(msg)
	cmds = append(cmds, cmd)
	v.input, cmd = v.input.Update(msg)
	cmds = append(cmds, cmd)
	v.transcript, cmd = v.transcript.Update(msg)
	cmds = append(cmds, cmd)

	return v, tea.Batch(cmds...)
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(msg.String(), v.keymap.Evidence):
		v.transcript.ToggleEvidence()
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.NewSession):
		if v.waiting {
			return v, nil
		}
		v.Reset()
		v.statusbar.SetState(status.StateInfo)
		v.statusbar.SetMessage("New chat")
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.ScrollUp):
		v.transcript.PageUp()
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.ScrollDown):
		v.transcript.PageDown()
		return v, nil

	case msg.Type == tea.KeyEnter:
		question := strings.TrimSpace(v.input.Value())
		if question == "" || v.waiting {
			return v, nil
		}
		v.waiting = true
		v.err = nil
		v.input.Reset()
		v.transcript.AddQuestion(question)
		return v, tea.Batch(v.statusbar.SetState(status.StateThinking), v.ask(question))
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// ask runs the question against the current session.
func (v *View) ask(question string) tea.Cmd {
	sessionID := v.sessionID
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoAnswerService}
		}
		answer, err := v.answerService.Ask(v.ctx, question, domain.AskOptions{SessionID: sessionID})
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.waiting = false
	if msg.Err != nil {
		v.err = msg.Err
		v.transcript.AddError(msg.Err)
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return
	}

	v.sessionID = msg.Answer.SessionID
	v.statusbar.SetSession(v.sessionID)
	v.transcript.AddAnswer(msg.Answer)
	v.statusbar.Clear()
}

// SetSession continues a stored session, showing its history.
func (v *View) SetSession(session *domain.ChatSession, history []domain.ChatMessage) {
	v.Reset()
	if session == nil {
		return
	}
	v.sessionID = session.ID
	v.statusbar.SetSession(session.ID)
	v.transcript.Load(history)
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render("paperqa"),
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Title, spacing, a bordered input and the status bar take 7 lines.
	v.transcript.SetDimensions(width, height-7)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// Reset starts a fresh session with an empty transcript.
func (v *View) Reset() {
	v.sessionID = ""
	v.waiting = false
	v.err = nil
	v.input.Reset()
	v.input.Focus()
	v.transcript.Clear()
	v.statusbar.Clear()
	v.statusbar.SetSession("")
}

// SessionID returns the session the next question continues.
func (v *View) SessionID() string {
	return v.sessionID
}

// Waiting reports whether a question is in flight.
func (v *View) Waiting() bool {
	return v.waiting
}

// Transcript returns the transcript component.
func (v *View) Transcript() *transcript.Transcript {
	return v.transcript
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}
