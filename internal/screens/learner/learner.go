// Package learner holds the screens a learner walks through: entry form,
// course intro, video, quiz and result.
package learner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/flow"
	"github.com/labinot-bajgora/ECK-safety/internal/router"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// Deps are the collaborators shared by every learner screen.
type Deps struct {
	Flow *flow.Controller
	// Admin builds the admin console pushed when the admin PIN is entered.
	Admin  func() screen.Screen
	Logger *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// ForStep returns the screen for the controller's current step. prefill
// is the access code shown on an empty entry form.
func ForStep(d Deps, prefill string) screen.Screen {
	switch d.Flow.State().Step {
	case flow.StepIntro:
		return NewIntro(d)
	case flow.StepVideo:
		return NewVideo(d)
	case flow.StepTest:
		return NewQuiz(d)
	case flow.StepResult:
		return NewResult(d)
	default:
		return NewEntry(d, prefill)
	}
}

// actionDoneMsg reports the outcome of a controller call.
type actionDoneMsg struct {
	Err error
}

// run executes fn against the controller off the update loop.
func run(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{Err: fn(context.Background())}
	}
}

// advance replaces the current screen with the one for the new step.
func advance(d Deps) tea.Cmd {
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: ForStep(d, "")}
	}
}

// restart drops every screen and returns to an empty entry form.
func restart(d Deps) tea.Cmd {
	return func() tea.Msg {
		return router.ResetScreenMsg{Screen: NewEntry(d, "")}
	}
}

// learnerStatus is the header status while a learner is signed in.
func learnerStatus(d Deps) string {
	st := d.Flow.State()
	if st.Learner == nil {
		return ""
	}
	return st.Learner.FullName() + " · " + st.Learner.CompanyName
}

// stepper renders the ENTRY..RESULT breadcrumb with the current step lit.
func stepper(current flow.Step) string {
	names := map[flow.Step]string{
		flow.StepEntry:  "Sign in",
		flow.StepIntro:  "Intro",
		flow.StepVideo:  "Video",
		flow.StepTest:   "Quiz",
		flow.StepResult: "Result",
	}
	parts := make([]string, 0, len(flow.Steps))
	for _, st := range flow.Steps {
		style := lipgloss.NewStyle().Foreground(theme.TextDim)
		switch {
		case st == current:
			style = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
		case st.Index() < current.Index():
			style = lipgloss.NewStyle().Foreground(theme.Success)
		}
		parts = append(parts, style.Render(names[st]))
	}
	return strings.Join(parts, lipgloss.NewStyle().Foreground(theme.Border).Render("  ›  "))
}

// centered renders s across width.
func centered(s string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}

func errorLine(msg string, width int) string {
	if msg == "" {
		return ""
	}
	return centered(theme.ErrorLine.Render("✗ "+msg), width)
}

func renderLoading(width, height int, what string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Loading " + what + "...")
}

// clock formats seconds as m:ss.
func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func courseTitle(c *training.Course) string {
	if c == nil {
		return ""
	}
	return c.Title
}
