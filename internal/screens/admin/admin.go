// Package admin holds the PIN-protected console for managing companies,
// seat allowances, courses and results.
package admin

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/courses"
	"github.com/labinot-bajgora/ECK-safety/internal/results"
	"github.com/labinot-bajgora/ECK-safety/internal/router"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/seats"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// Deps are the services behind the console.
type Deps struct {
	Ledger  *seats.Ledger
	Results *results.Recorder
	Catalog *courses.Catalog

	InviteBaseURL string
	// ExportDir is where CSV exports are written.
	ExportDir string
	Now       func() time.Time
	Logger    *slog.Logger
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Factory returns a constructor for the console's home screen.
func Factory(d Deps) func() screen.Screen {
	return func() screen.Screen { return NewHome(d) }
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func pop() tea.Msg {
	return router.PopScreenMsg{}
}

func centered(s string, width int) string {
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, s)
}

func heading(title string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
		Render(theme.Title.Render(title))
}

func renderError(msg string, width int) string {
	return lipgloss.NewStyle().
		Width(width).Align(lipgloss.Center).Foreground(theme.Error).
		Render(fmt.Sprintf("\n\nError: %s", msg))
}

func renderLoading(what string, width int) string {
	return lipgloss.NewStyle().
		Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
		Render("\n\n  Loading " + what + "...")
}

func renderEmpty(msg string, width int) string {
	return lipgloss.NewStyle().
		Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
		Render("\n\n  " + msg)
}

func noteLine(note string, width int) string {
	if note == "" {
		return ""
	}
	return centered(lipgloss.NewStyle().Foreground(theme.Success).Render(note), width)
}

// seatSummary renders a company's seat usage.
func seatSummary(ac *training.AccessCode) string {
	if ac.SeatMode != training.SeatModeLimited {
		return fmt.Sprintf("%d used · unlimited", ac.SeatsUsed)
	}
	return fmt.Sprintf("%d / %d used", ac.SeatsUsed, ac.SeatAllowance)
}

// expiryLabel renders the expiry date, flagged when it has passed.
func expiryLabel(ac *training.AccessCode, now time.Time) string {
	date := ac.ExpiresAt.Format("2006-01-02")
	if ac.Expired(now) {
		return date + " (expired)"
	}
	return date
}

func passLabel(passed bool) string {
	if passed {
		return theme.Correct.Render("PASS")
	}
	return theme.Incorrect.Render("FAIL")
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func pad(s string, n int) string {
	s = truncate(s, n)
	if w := lipgloss.Width(s); w < n {
		s += strings.Repeat(" ", n-w)
	}
	return s
}
