package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// MultiChoice is a multiple-choice selector. With Reveal set, choosing an
// option locks the component and colours the correct and chosen options.
type MultiChoice struct {
	Question     string
	Options      []string
	CorrectIndex int
	Cursor       int
	Chosen       int
	Reveal       bool
}

// NewMultiChoice creates a new multiple-choice component with nothing chosen.
func NewMultiChoice(question string, options []string, correctIndex int) MultiChoice {
	return MultiChoice{
		Question:     question,
		Options:      options,
		CorrectIndex: correctIndex,
		Chosen:       -1,
	}
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Locked reports whether a revealed answer was chosen.
func (m MultiChoice) Locked() bool {
	return m.Reveal && m.Chosen >= 0
}

// Update handles keyboard navigation and selection. Number keys and
// letters choose directly; Enter or Space chooses the option under the cursor.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Locked() {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Options)-1 {
			m.Cursor++
		}
	case "enter", "space":
		if len(m.Options) > 0 {
			m.Chosen = m.Cursor
		}
	default:
		if i, ok := optionIndex(key, len(m.Options)); ok {
			m.Cursor = i
			m.Chosen = i
		}
	}

	return m, nil
}

// optionIndex maps "1".."9" and "a".."i" to an option index.
func optionIndex(key string, n int) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	c := key[0]
	var i int
	switch {
	case c >= '1' && c <= '9':
		i = int(c - '1')
	case c >= 'a' && c <= 'i':
		i = int(c - 'a')
	case c >= 'A' && c <= 'I':
		i = int(c - 'A')
	default:
		return 0, false
	}
	if i >= n {
		return 0, false
	}
	return i, true
}

// View renders the multiple-choice component.
func (m MultiChoice) View() string {
	var b strings.Builder
	if m.Question != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Question))
		b.WriteString("\n\n")
	}

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Cursor && !m.Locked() {
			prefix = "▸ "
		}
		mark := "○"
		if i == m.Chosen {
			mark = "●"
		}
		line := fmt.Sprintf("%s%c) %s %s", prefix, 'A'+i, mark, opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case m.Locked() && i == m.CorrectIndex:
			style = theme.Correct
		case m.Locked() && i == m.Chosen:
			style = theme.Incorrect
		case m.Locked():
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == m.Cursor:
			style = theme.Selected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	return b.String()
}

// IsCorrect returns true if the chosen option is the correct one.
func (m MultiChoice) IsCorrect() bool {
	return m.Chosen >= 0 && m.Chosen == m.CorrectIndex
}
