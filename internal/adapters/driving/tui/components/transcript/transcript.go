// Package transcript renders a scrollable chat transcript with evidence.
package transcript

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/paperqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/paperqa/internal/core/domain"
)

// evidencePreview caps each evidence line in the transcript.
const evidencePreview = 160

// Entry is one turn in the transcript.
type Entry struct {
	Kind     domain.MessageKind
	Content  string
	Evidence []domain.EvidenceItem
	IsError  bool
}

// Transcript holds the chat turns and renders them into a viewport.
type Transcript struct {
	styles       *styles.Styles
	viewport     viewport.Model
	entries      []Entry
	showEvidence bool
}

// New creates an empty transcript.
func New(s *styles.Styles) *Transcript {
	if s == nil {
		s = styles.DefaultStyles()
	}
	t := &Transcript{
		styles:       s,
		viewport:     viewport.New(80, 20),
		showEvidence: true,
	}
	t.refresh()
	return t
}

// Update forwards scroll messages to the viewport.
func (t *Transcript) Update(msg tea.Msg) (*Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.viewport, cmd = t.viewport.Update(msg)
	return t, cmd
}

// View renders the visible part of the transcript.
func (t *Transcript) View() string {
	return t.viewport.View()
}

// AddQuestion appends a user turn.
func (t *Transcript) AddQuestion(question string) {
	t.entries = append(t.entries, Entry{Kind: domain.MessageUser, Content: question})
	t.refresh()
}

// AddAnswer appends an assistant turn with its evidence.
func (t *Transcript) AddAnswer(a *domain.Answer) {
	t.entries = append(t.entries, Entry{Kind: domain.MessageAssistant, Content: a.Text, Evidence: a.Evidence})
	t.refresh()
}

// AddError appends a failed turn.
func (t *Transcript) AddError(err error) {
	t.entries = append(t.entries, Entry{Kind: domain.MessageAssistant, Content: err.Error(), IsError: true})
	t.refresh()
}

// Load replaces the transcript with a stored history.
func (t *Transcript) Load(history []domain.ChatMessage) {
	t.entries = make([]Entry, 0, len(history))
	for _, m := range history {
		t.entries = append(t.entries, Entry{Kind: m.Kind, Content: m.Content, Evidence: m.Evidence})
	}
	t.refresh()
}

// Clear removes all turns.
func (t *Transcript) Clear() {
	t.entries = nil
	t.refresh()
}

// Entries returns the transcript turns.
func (t *Transcript) Entries() []Entry {
	return t.entries
}

// ToggleEvidence shows or hides evidence under answers.
func (t *Transcript) ToggleEvidence() bool {
	t.showEvidence = !t.showEvidence
	t.refresh()
	return t.showEvidence
}

// ShowEvidence reports whether evidence is rendered.
func (t *Transcript) ShowEvidence() bool {
	return t.showEvidence
}

// SetDimensions resizes the viewport and rewraps the content.
func (t *Transcript) SetDimensions(width, height int) {
	if height < 3 {
		height = 3
	}
	t.viewport.Width = width
	t.viewport.Height = height
	t.refresh()
}

// PageUp scrolls up by one page.
func (t *Transcript) PageUp() {
	t.viewport.PageUp()
}

// PageDown scrolls down by one page.
func (t *Transcript) PageDown() {
	t.viewport.PageDown()
}

// AtBottom reports whether the newest turn is visible.
func (t *Transcript) AtBottom() bool {
	return t.viewport.AtBottom()
}

func (t *Transcript) refresh() {
	t.viewport.SetContent(t.render())
	t.viewport.GotoBottom()
}

func (t *Transcript) render() string {
	if len(t.entries) == 0 {
		return t.styles.Muted.Render("No messages yet. Ask something about your papers.")
	}

	width := t.viewport.Width
	if width < 20 {
		width = 20
	}
	wrap := lipgloss.NewStyle().Width(width)

	blocks := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		var b strings.Builder
		if e.Kind == domain.MessageUser {
			b.WriteString(t.styles.UserLabel.Render("You"))
		} else {
			b.WriteString(t.styles.AssistantLabel.Render("paperqa"))
		}
		b.WriteString("\n")

		body := wrap.Render(e.Content)
		if e.IsError {
			body = t.styles.Error.Render(body)
		}
		b.WriteString(body)

		if t.showEvidence && len(e.Evidence) > 0 {
			b.WriteString("\n")
			b.WriteString(t.styles.Evidence.Width(width - 2).Render(t.renderEvidence(e.Evidence)))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func (t *Transcript) renderEvidence(items []domain.EvidenceItem) string {
	lines := make([]string, 0, len(items))
	for i, e := range items {
		text := strings.Join(strings.Fields(e.Content), " ")
		lines = append(lines, fmt.Sprintf("[%d] %s #%d (%.2f) %s",
			i+1, e.Title, e.Position, e.Similarity, domain.Preview(text, evidencePreview)))
	}
	return strings.Join(lines, "\n")
}
