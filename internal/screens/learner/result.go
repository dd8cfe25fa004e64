package learner

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/flow"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/components"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/layout"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// ResultScreen shows the final outcome and the completion id of a pass.
type ResultScreen struct {
	deps   Deps
	busy   bool
	errMsg string
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)
var _ screen.StatusProvider = (*ResultScreen)(nil)

// NewResult creates the result screen.
func NewResult(d Deps) *ResultScreen {
	return &ResultScreen{deps: d}
}

func (s *ResultScreen) Init() tea.Cmd {
	return nil
}

func (s *ResultScreen) Title() string {
	return "Result"
}

func (s *ResultScreen) Status() string {
	return learnerStatus(s.deps)
}

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Finish"},
	}
}

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case signedOutMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, restart(s.deps)

	case tea.KeyMsg:
		if s.busy {
			return s, nil
		}
		if msg.String() == "enter" {
			s.busy = true
			return s, signOut(s.deps)
		}
	}
	return s, nil
}

func (s *ResultScreen) View(width, height int) string {
	st := s.deps.Flow.State()
	receipt := s.deps.Flow.Receipt()
	cw := components.ContentWidth(width)

	passed := training.Passed(st.LastScore)
	if receipt != nil {
		passed = receipt.Passed
	}

	var body strings.Builder
	if passed {
		body.WriteString(lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render("✓ Training passed"))
	} else {
		body.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render("✗ Training not passed"))
	}
	body.WriteString("\n\n")

	rows := [][2]string{
		{"Score", fmt.Sprintf("%d%%  (pass mark %d%%)", st.LastScore, training.PassMark)},
		{"Attempts", fmt.Sprintf("%d of %d", st.Attempts, training.MaxAttempts)},
		{"Course", courseTitle(s.deps.Flow.Course())},
	}
	if st.Learner != nil {
		rows = append(rows,
			[2]string{"Learner", st.Learner.FullName()},
			[2]string{"Company", st.Learner.CompanyName},
		)
	}
	if receipt != nil && receipt.Passed {
		rows = append(rows, [2]string{"Completion ID", receipt.CompletionID})
	}
	for _, r := range rows {
		body.WriteString(theme.Label.Render(fmt.Sprintf("%-14s", r[0])))
		body.WriteString(theme.Body.Render(r[1]))
		body.WriteString("\n")
	}

	body.WriteString("\n")
	if passed {
		body.WriteString(theme.Hint.Render("Keep your completion ID as proof of training."))
	} else {
		body.WriteString(theme.Hint.Render("Please contact your supervisor to arrange another session."))
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centered(stepper(flow.StepResult), width))
	b.WriteString("\n\n")
	b.WriteString(centered(components.Card(body.String(), cw), width))
	b.WriteString("\n\n")
	b.WriteString(centered(components.WideButton("Finish", true, 30), width))
	b.WriteString("\n")
	b.WriteString(errorLine(s.errMsg, width))
	return b.String()
}
