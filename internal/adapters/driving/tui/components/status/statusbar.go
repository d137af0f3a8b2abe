// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady    State = "ready"
	StateThinking State = "thinking"
	StateError    State = "error"
	StateInfo     State = "info"
)

// Bar displays the chat state, the active session and keybinding hints.
type Bar struct {
	styles   *styles.Styles
	bindings []key.Binding
	spinner  spinner.Model
	state    State
	message  string
	session  string
	width    int
}

// NewBar creates a status bar showing the given keybinding hints.
func NewBar(s *styles.Styles, bindings []key.Binding) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if bindings == nil {
		bindings = keymap.DefaultKeyMap().ChatHelp()
	}

	return &Bar{
		styles:   s,
		bindings: bindings,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		state:    StateReady,
		width:    80,
	}
}

// Update advances the spinner while thinking.
func (b *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok || b.state != StateThinking {
		return b, nil
	}
	var cmd tea.Cmd
	b.spinner, cmd = b.spinner.Update(msg)
	return b, cmd
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (b *Bar) renderLeft() string {
	var left string
	switch b.state {
	case StateThinking:
		left = b.spinner.View() + b.styles.Muted.Render(" Thinking...")
	case StateError:
		if b.message != "" {
			left = b.styles.Error.Render("Error: " + b.message)
		} else {
			left = b.styles.Error.Render("Error")
		}
	case StateInfo:
		left = b.styles.Normal.Render(b.message)
	default:
		left = b.styles.Muted.Render("Ready")
	}

	if b.session != "" {
		left += b.styles.Muted.Render("  " + b.session)
	}
	return left
}

func (b *Bar) renderRight() string {
	hints := make([]string, 0, len(b.bindings))
	for _, binding := range b.bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state. Entering StateThinking returns the
// command that starts the spinner.
func (b *Bar) SetState(state State) tea.Cmd {
	b.state = state
	if state == StateThinking {
		return b.spinner.Tick
	}
	return nil
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the message shown in the info and error states.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetSession sets the session ID shown next to the state.
func (b *Bar) SetSession(id string) {
	b.session = id
}

// Session returns the displayed session ID.
func (b *Bar) Session() string {
	return b.session
}

// SetWidth sets the status bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Clear resets the status bar to the ready state.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
}
