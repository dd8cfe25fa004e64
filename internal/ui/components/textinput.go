package components

import (
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with SafetyHub styling.
type TextInput struct {
	Model textinput.Model
	Label string
	// NumericOnly drops every non-digit keystroke except a leading minus.
	NumericOnly bool
	// Uppercase folds typed letters to upper case, as access codes are.
	Uppercase bool
	MaxWidth  int
}

// NewTextInput creates a new focused text input.
func NewTextInput(placeholder string, numericOnly bool, maxWidth int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()

	if maxWidth > 0 {
		ti.CharLimit = maxWidth
	}

	return TextInput{
		Model:       ti,
		NumericOnly: numericOnly,
		MaxWidth:    maxWidth,
	}
}

// NewField creates a labelled, unfocused input for a form.
func NewField(label, placeholder string, maxWidth int) TextInput {
	t := NewTextInput(placeholder, false, maxWidth)
	t.Label = label
	t.Model.Blur()
	return t
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Focus gives the input the cursor.
func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

// Blur removes the cursor.
func (t *TextInput) Blur() {
	t.Model.Blur()
}

// Focused reports whether the input has the cursor.
func (t TextInput) Focused() bool {
	return t.Model.Focused()
}

// SetValue replaces the input's content.
func (t *TextInput) SetValue(v string) {
	if t.Uppercase {
		v = strings.ToUpper(v)
	}
	t.Model.SetValue(v)
}

// Update handles messages.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok {
		key := kmsg.String()
		if t.NumericOnly && len(key) == 1 {
			minus := key == "-" && t.Model.Value() == ""
			if !minus && (key[0] < '0' || key[0] > '9') {
				return t, nil
			}
		}
		if t.Uppercase && kmsg.Text != "" {
			upper := strings.ToUpper(kmsg.Text)
			if upper != kmsg.Text {
				kmsg.Text = upper
				if r := []rune(upper); len(r) == 1 {
					kmsg.Code = r[0]
				}
				msg = kmsg
			}
		}
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the input with its label.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.Label == "" {
		return view
	}
	labelStyle := theme.Label
	if t.Model.Focused() {
		labelStyle = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	}
	return labelStyle.Render(t.Label) + "\n" + view
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// NumericValue returns the input value as an integer.
func (t TextInput) NumericValue() (int, error) {
	return strconv.Atoi(t.Value())
}
