package admin

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/results"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/components"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/layout"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// recentShown is how many recent results the dashboard lists.
const recentShown = 5

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

type statsLoadedMsg struct {
	Stats *results.Stats
	Err   error
}

// HomeScreen is the console dashboard and menu.
type HomeScreen struct {
	deps   Deps
	window int
	stats  *results.Stats
	menu   components.Menu
	errMsg string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

// NewHome creates the dashboard.
func NewHome(d Deps) *HomeScreen {
	s := &HomeScreen{deps: d}
	s.menu = components.NewMenu([]components.MenuItem{
		{Label: "Companies", Description: "access codes, seats, invites", Action: func() tea.Cmd { return push(NewCompanies(d)) }},
		{Label: "Results", Description: "search and export completions", Action: func() tea.Cmd { return push(NewResults(d, "")) }},
		{Label: "Courses", Description: "activate training content", Action: func() tea.Cmd { return push(NewCourses(d)) }},
		{Label: "Lock console", Description: "back to the learner screen", Action: func() tea.Cmd { return pop }},
	})
	return s
}

// Window returns the trend window in days.
func (s *HomeScreen) Window() int {
	return results.TrendWindows[s.window]
}

func (s *HomeScreen) load() tea.Cmd {
	rec, days := s.deps.Results, s.Window()
	return func() tea.Msg {
		st, err := rec.Dashboard(context.Background(), days)
		return statsLoadedMsg{Stats: st, Err: err}
	}
}

func (s *HomeScreen) Init() tea.Cmd {
	return s.load()
}

func (s *HomeScreen) Resume() tea.Cmd {
	return s.load()
}

func (s *HomeScreen) Title() string {
	return "Admin"
}

func (s *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter/1-4", Description: "Open"},
		{Key: "w", Description: "Trend window"},
		{Key: "r", Description: "Refresh"},
		{Key: "Esc", Description: "Lock"},
	}
}

func (s *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.stats = msg.Stats
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "w":
			s.window = (s.window + 1) % len(results.TrendWindows)
			return s, s.load()
		case "r":
			return s, s.load()
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *HomeScreen) View(width, height int) string {
	if s.errMsg != "" {
		return renderError(s.errMsg, width)
	}
	if s.stats == nil {
		return renderLoading("dashboard", width)
	}
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centered(s.renderTiles(cw), width))
	b.WriteString("\n")
	b.WriteString(centered(components.Card(s.renderTrend(cw-6), cw), width))
	b.WriteString("\n")
	b.WriteString(centered(components.Card(s.renderRecent(cw-6), cw), width))
	b.WriteString("\n\n")
	b.WriteString(centered(s.menu.View(), width))
	return b.String()
}

func (s *HomeScreen) renderTiles(cw int) string {
	st := s.stats
	tiles := []struct{ label, value string }{
		{"Companies", fmt.Sprintf("%d", st.TotalCompanies)},
		{"Passed", fmt.Sprintf("%d", st.TotalPassed)},
		{"Last 30 days", fmt.Sprintf("%d", st.PassedLast30Days)},
		{"Seats", fmt.Sprintf("%d / %d", st.SeatsUsed, st.SeatsAllowed)},
	}
	w := cw/len(tiles) - 1
	parts := make([]string, 0, len(tiles))
	for _, t := range tiles {
		body := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(t.value) + "\n" +
			theme.Label.Render(t.label)
		parts = append(parts, lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Width(w).
			Align(lipgloss.Center).
			Render(body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (s *HomeScreen) renderTrend(inner int) string {
	title := theme.Label.Render(fmt.Sprintf("Passed per day, last %d days", s.Window()))
	points := s.stats.Trend
	if len(points) == 0 {
		return title
	}
	line := Sparkline(points, inner)
	first := points[0].Day.Format("Jan 02")
	last := points[len(points)-1].Day.Format("Jan 02")
	gap := inner - lipgloss.Width(first) - lipgloss.Width(last)
	if gap < 1 {
		gap = 1
	}
	axis := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(first + strings.Repeat(" ", gap) + last)
	return title + "\n\n" + lipgloss.NewStyle().Foreground(theme.Secondary).Render(line) + "\n" + axis
}

func (s *HomeScreen) renderRecent(inner int) string {
	var b strings.Builder
	b.WriteString(theme.Label.Render("Recent results"))
	b.WriteString("\n")
	if len(s.stats.Recent) == 0 {
		b.WriteString(theme.Hint.Render("No results yet."))
		return b.String()
	}
	nameW := (inner - 24) / 2
	for i, r := range s.stats.Recent {
		if i == recentShown {
			break
		}
		line := fmt.Sprintf("%s  %s  %s  %3d%% ",
			r.CompletedAt.Format("01-02 15:04"),
			pad(r.Learner.FullName(), nameW),
			pad(r.Learner.CompanyName, nameW),
			r.Score)
		b.WriteString(theme.Body.Render(line))
		b.WriteString(passLabel(r.Passed))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Sparkline renders one bar per day, merging neighbouring days when the
// window is wider than width.
func Sparkline(points []results.TrendPoint, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}
	per := (len(points) + width - 1) / width
	var buckets []int
	for i := 0; i < len(points); i += per {
		sum := 0
		for j := i; j < i+per && j < len(points); j++ {
			sum += points[j].Passed
		}
		buckets = append(buckets, sum)
	}

	peak := 0
	for _, v := range buckets {
		peak = max(peak, v)
	}
	out := make([]rune, len(buckets))
	for i, v := range buckets {
		idx := 0
		if peak > 0 {
			idx = v * (len(sparkBlocks) - 1) / peak
		}
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}
