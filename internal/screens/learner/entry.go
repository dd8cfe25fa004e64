package learner

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/flow"
	"github.com/labinot-bajgora/ECK-safety/internal/router"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/components"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/layout"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// Form field order.
const (
	fieldCode = iota
	fieldFirst
	fieldLast
	fieldJob
	fieldCount
)

type entrySubmittedMsg struct {
	Outcome flow.Outcome
	Err     error
}

// EntryScreen collects the learner's name and access code.
type EntryScreen struct {
	deps       Deps
	fields     [fieldCount]components.TextInput
	focus      int
	submitting bool
	errMsg     string
}

var _ screen.Screen = (*EntryScreen)(nil)
var _ screen.KeyHintProvider = (*EntryScreen)(nil)

// NewEntry creates the sign-in form with prefill in the access code field.
func NewEntry(d Deps, prefill string) *EntryScreen {
	s := &EntryScreen{deps: d}
	s.fields[fieldCode] = components.NewField("Access code", "e.g. PRISTINA", 32)
	s.fields[fieldCode].Uppercase = true
	s.fields[fieldFirst] = components.NewField("First name", "", 64)
	s.fields[fieldLast] = components.NewField("Last name", "", 64)
	s.fields[fieldJob] = components.NewField("Job position (optional)", "", 64)

	if prefill != "" {
		s.fields[fieldCode].SetValue(prefill)
		s.focus = fieldFirst
	}
	return s
}

func (s *EntryScreen) Init() tea.Cmd {
	return s.fields[s.focus].Focus()
}

func (s *EntryScreen) Title() string {
	return "Sign in"
}

func (s *EntryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Start training"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Focused returns the index of the field holding the cursor.
func (s *EntryScreen) Focused() int {
	return s.focus
}

// Value returns the trimmed content of field i.
func (s *EntryScreen) Value(i int) string {
	return s.fields[i].Value()
}

// SetValue fills field i.
func (s *EntryScreen) SetValue(i int, v string) {
	s.fields[i].SetValue(v)
}

func (s *EntryScreen) moveFocus(delta int) tea.Cmd {
	s.fields[s.focus].Blur()
	s.focus = (s.focus + delta + fieldCount) % fieldCount
	return s.fields[s.focus].Focus()
}

func (s *EntryScreen) form() flow.EntryForm {
	return flow.EntryForm{
		FirstName:   s.fields[fieldFirst].Value(),
		LastName:    s.fields[fieldLast].Value(),
		JobPosition: s.fields[fieldJob].Value(),
		AccessCode:  s.fields[fieldCode].Value(),
	}
}

func (s *EntryScreen) submit() tea.Cmd {
	if s.submitting {
		return nil
	}
	if s.fields[fieldCode].Value() == "" {
		s.errMsg = "Enter your access code."
		return nil
	}
	s.submitting = true
	s.errMsg = ""
	form := s.form()
	ctrl := s.deps.Flow
	return func() tea.Msg {
		out, err := ctrl.Submit(context.Background(), form)
		return entrySubmittedMsg{Outcome: out, Err: err}
	}
}

func (s *EntryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case entrySubmittedMsg:
		s.submitting = false
		switch {
		case errors.Is(msg.Err, flow.ErrNameRequired):
			s.errMsg = "First and last name are required."
			return s, nil
		case msg.Err != nil:
			s.deps.logger().Error("entry submit failed", "error", msg.Err)
			s.errMsg = "Could not start the training. Please try again."
			return s, nil
		case msg.Outcome.Admin:
			s.fields[fieldCode].SetValue("")
			if s.deps.Admin == nil {
				return s, nil
			}
			admin := s.deps.Admin()
			return s, func() tea.Msg { return router.PushScreenMsg{Screen: admin} }
		case !msg.Outcome.Access.Valid:
			s.errMsg = msg.Outcome.Access.Message
			return s, nil
		}
		return s, advance(s.deps)

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			return s, s.moveFocus(1)
		case "shift+tab", "up":
			return s, s.moveFocus(-1)
		case "enter":
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	s.fields[s.focus], cmd = s.fields[s.focus].Update(msg)
	return s, cmd
}

func (s *EntryScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var form strings.Builder
	for i := range s.fields {
		form.WriteString(s.fields[i].View())
		if i < fieldCount-1 {
			form.WriteString("\n\n")
		}
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centered(stepper(flow.StepEntry), width))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
		Render(theme.Title.Render("Welcome to safety training")))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
		Render(theme.Subtitle.Render("Enter the access code from your employer to begin.")))
	b.WriteString("\n\n")
	b.WriteString(centered(components.Card(form.String(), cw), width))
	b.WriteString("\n\n")

	if s.submitting {
		b.WriteString(centered(theme.Hint.Render("Checking access code..."), width))
	} else {
		b.WriteString(errorLine(s.errMsg, width))
	}

	return b.String()
}
