package learner

import (
	"context"
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

type signedOutMsg struct {
	Err error
}

// IntroScreen presents the course before the video starts.
type IntroScreen struct {
	deps   Deps
	busy   bool
	errMsg string
}

var _ screen.Screen = (*IntroScreen)(nil)
var _ screen.KeyHintProvider = (*IntroScreen)(nil)
var _ screen.StatusProvider = (*IntroScreen)(nil)

// NewIntro creates the intro screen for the controller's course.
func NewIntro(d Deps) *IntroScreen {
	return &IntroScreen{deps: d}
}

func (s *IntroScreen) Init() tea.Cmd {
	return nil
}

func (s *IntroScreen) Title() string {
	return "Introduction"
}

func (s *IntroScreen) Status() string {
	return learnerStatus(s.deps)
}

func (s *IntroScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Watch video"},
		{Key: "x", Description: "Sign out"},
	}
}

func (s *IntroScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case actionDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, advance(s.deps)

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
		switch msg.String() {
		case "enter":
			s.busy = true
			return s, run(s.deps.Flow.ConfirmIntro)
		case "x":
			s.busy = true
			return s, signOut(s.deps)
		}
	}
	return s, nil
}

// signOut abandons the flow and clears saved progress.
func signOut(d Deps) tea.Cmd {
	return func() tea.Msg {
		return signedOutMsg{Err: d.Flow.Reset(context.Background())}
	}
}

func (s *IntroScreen) View(width, height int) string {
	course := s.deps.Flow.Course()
	if course == nil {
		return renderLoading(width, height, "course")
	}
	cw := components.ContentWidth(width)
	inner := cw - 6

	var body strings.Builder
	body.WriteString(lipgloss.NewStyle().Width(inner).Foreground(theme.Text).Render(course.IntroText))
	body.WriteString("\n\n")
	body.WriteString(theme.Label.Render("What to expect"))
	body.WriteString("\n")
	for _, line := range expectations(course) {
		body.WriteString(theme.Body.Render("  • " + line))
		body.WriteString("\n")
	}
	if len(course.VideoChapters) > 0 {
		body.WriteString("\n")
		body.WriteString(theme.Label.Render("Chapters"))
		body.WriteString("\n")
		for _, ch := range course.VideoChapters {
			body.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).
				Render(fmt.Sprintf("  %5s  %s", clock(ch.StartTime), ch.Title)))
			body.WriteString("\n")
		}
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centered(stepper(flow.StepIntro), width))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
		Render(theme.Title.Render(course.Title)))
	b.WriteString("\n\n")
	b.WriteString(centered(components.Card(strings.TrimRight(body.String(), "\n"), cw), width))
	b.WriteString("\n\n")
	b.WriteString(centered(components.WideButton("Start video", true, 30), width))
	b.WriteString("\n")
	b.WriteString(errorLine(s.errMsg, width))
	return b.String()
}

func expectations(c *training.Course) []string {
	return []string{
		fmt.Sprintf("A %s video with %d checkpoint question(s)", clock(c.Duration()), len(c.Checkpoints)),
		fmt.Sprintf("A final quiz of %d question(s); %d%% is needed to pass", len(c.Questions), training.PassMark),
		fmt.Sprintf("Up to %d attempts at the quiz", training.MaxAttempts),
	}
}
