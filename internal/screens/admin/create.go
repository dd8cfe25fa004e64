package admin

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/router"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/seats"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/components"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/layout"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// Create form rows. The mode row has no text input.
const (
	rowName = iota
	rowCode
	rowAllowance
	rowMode
	rowCount
)

type companyCreatedMsg struct {
	Company *training.AccessCode
	Err     error
}

// CreateScreen is the new-company form.
type CreateScreen struct {
	deps   Deps
	inputs [rowMode]components.TextInput
	mode   training.SeatMode
	focus  int
	busy   bool
	errMsg string
}

var _ screen.Screen = (*CreateScreen)(nil)
var _ screen.KeyHintProvider = (*CreateScreen)(nil)

// NewCreate creates an empty new-company form.
func NewCreate(d Deps) *CreateScreen {
	s := &CreateScreen{deps: d, mode: training.SeatModeLimited}
	s.inputs[rowName] = components.NewField("Company name", "New Client", 64)
	s.inputs[rowCode] = components.NewField("Access code (blank to generate)", "e.g. PRISTINA", 32)
	s.inputs[rowCode].Uppercase = true
	s.inputs[rowAllowance] = components.NewField("Seat allowance", fmt.Sprintf("%d", training.DefaultAllowance), 6)
	s.inputs[rowAllowance].NumericOnly = true
	return s
}

func (s *CreateScreen) Init() tea.Cmd {
	return s.inputs[s.focus].Focus()
}

func (s *CreateScreen) Title() string {
	return "New company"
}

func (s *CreateScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Space", Description: "Toggle mode"},
		{Key: "Enter", Description: "Create"},
		{Key: "Esc", Description: "Cancel"},
	}
}

// SetValue fills text row i.
func (s *CreateScreen) SetValue(i int, v string) {
	s.inputs[i].SetValue(v)
}

// Mode returns the selected seat mode.
func (s *CreateScreen) Mode() training.SeatMode {
	return s.mode
}

func (s *CreateScreen) moveFocus(delta int) tea.Cmd {
	if s.focus < rowMode {
		s.inputs[s.focus].Blur()
	}
	s.focus = (s.focus + delta + rowCount) % rowCount
	if s.focus < rowMode {
		return s.inputs[s.focus].Focus()
	}
	return nil
}

func (s *CreateScreen) toggleMode() {
	if s.mode == training.SeatModeLimited {
		s.mode = training.SeatModeUnlimited
	} else {
		s.mode = training.SeatModeLimited
	}
}

func (s *CreateScreen) submit() tea.Cmd {
	in := seats.NewCompany{
		Code:        s.inputs[rowCode].Value(),
		CompanyName: s.inputs[rowName].Value(),
		SeatMode:    s.mode,
	}
	if v := s.inputs[rowAllowance].Value(); v != "" {
		n, err := s.inputs[rowAllowance].NumericValue()
		if err != nil || n <= 0 {
			s.errMsg = "Seat allowance must be a positive number."
			return nil
		}
		in.SeatAllowance = n
	}
	s.busy = true
	s.errMsg = ""
	ledger := s.deps.Ledger
	return func() tea.Msg {
		ac, err := ledger.CreateCompany(context.Background(), in)
		return companyCreatedMsg{Company: ac, Err: err}
	}
}

func (s *CreateScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case companyCreatedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		detail := NewCompany(s.deps, msg.Company.ID)
		return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: detail} }

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down":
			return s, s.moveFocus(1)
		case "shift+tab", "up":
			return s, s.moveFocus(-1)
		case "enter":
			return s, s.submit()
		}
		if s.focus == rowMode {
			switch msg.String() {
			case "space", " ", "left", "right":
				s.toggleMode()
			}
			return s, nil
		}
	}

	if s.focus == rowMode {
		return s, nil
	}
	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return s, cmd
}

func (s *CreateScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var form strings.Builder
	for i := range s.inputs {
		form.WriteString(s.inputs[i].View())
		form.WriteString("\n\n")
	}
	label := theme.Label
	if s.focus == rowMode {
		label = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	}
	form.WriteString(label.Render("Seat mode"))
	form.WriteString("\n")
	for _, m := range []training.SeatMode{training.SeatModeLimited, training.SeatModeUnlimited} {
		mark := "○ "
		style := theme.Unselected
		if m == s.mode {
			mark = "● "
			style = theme.Selected
		}
		form.WriteString(style.Render(mark + string(m)))
		form.WriteString("   ")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(heading("New company", width))
	b.WriteString("\n\n")
	b.WriteString(centered(components.Card(form.String(), cw), width))
	b.WriteString("\n\n")
	if s.errMsg != "" {
		b.WriteString(centered(theme.ErrorLine.Render("✗ "+s.errMsg), width))
	}
	return b.String()
}
