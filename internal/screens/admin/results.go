package admin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/results"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/components"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/layout"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// resultsPageSize fits a page on the minimum terminal height.
const resultsPageSize = 12

type resultsLoadedMsg struct {
	Page results.Page
	Err  error
}

type exportedMsg struct {
	Path  string
	Count int
	Err   error
}

// ResultsScreen is the searchable, paged result list with CSV export.
type ResultsScreen struct {
	deps      Deps
	code      string
	search    components.TextInput
	searching bool
	page      int
	data      results.Page
	selected  int
	loaded    bool
	note      string
	errMsg    string
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)
var _ screen.EscapeHandler = (*ResultsScreen)(nil)
var _ screen.Resumer = (*ResultsScreen)(nil)

// NewResults creates the result list, restricted to code when set.
func NewResults(d Deps, code string) *ResultsScreen {
	return &ResultsScreen{
		deps:   d,
		code:   code,
		search: components.NewField("Search", "learner, company or course", 40),
		page:   1,
	}
}

func (s *ResultsScreen) query() results.Query {
	return results.Query{
		Search:   s.search.Value(),
		Code:     s.code,
		Page:     s.page,
		PageSize: resultsPageSize,
	}
}

func (s *ResultsScreen) load() tea.Cmd {
	rec, q := s.deps.Results, s.query()
	return func() tea.Msg {
		page, err := rec.List(context.Background(), q)
		return resultsLoadedMsg{Page: page, Err: err}
	}
}

func (s *ResultsScreen) Init() tea.Cmd {
	return s.load()
}

func (s *ResultsScreen) Resume() tea.Cmd {
	return s.load()
}

func (s *ResultsScreen) Title() string {
	if s.code != "" {
		return "Results · " + s.code
	}
	return "Results"
}

func (s *ResultsScreen) HandlesEsc() bool {
	return s.searching
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	if s.searching {
		return []layout.KeyHint{{Key: "Enter/Esc", Description: "Done"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "←→", Description: "Page"},
		{Key: "/", Description: "Search"},
		{Key: "e", Description: "Export CSV"},
		{Key: "Esc", Description: "Back"},
	}
}

// Data returns the loaded page.
func (s *ResultsScreen) Data() results.Page {
	return s.data
}

func (s *ResultsScreen) export() tea.Cmd {
	q := s.query()
	q.Page, q.PageSize = 1, -1
	rec, dir, now := s.deps.Results, s.deps.ExportDir, s.deps.now()
	return func() tea.Msg {
		page, err := rec.List(context.Background(), q)
		if err != nil {
			return exportedMsg{Err: err}
		}
		path := filepath.Join(dir, results.ExportFilename(now))
		f, err := os.Create(path)
		if err != nil {
			return exportedMsg{Err: fmt.Errorf("create export: %w", err)}
		}
		if err := results.ExportCSV(f, page.Items); err != nil {
			f.Close()
			return exportedMsg{Err: err}
		}
		if err := f.Close(); err != nil {
			return exportedMsg{Err: fmt.Errorf("close export: %w", err)}
		}
		return exportedMsg{Path: path, Count: len(page.Items)}
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resultsLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.data = msg.Page
		s.page = max(msg.Page.Page, 1)
		if s.selected >= len(s.data.Items) {
			s.selected = max(len(s.data.Items)-1, 0)
		}
		return s, nil

	case exportedMsg:
		if msg.Err != nil {
			s.deps.logger().Error("results export failed", "error", msg.Err)
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.deps.logger().Info("results exported", "path", msg.Path, "count", msg.Count)
		s.note = fmt.Sprintf("Exported %d result(s) to %s", msg.Count, msg.Path)
		return s, nil

	case tea.KeyMsg:
		if s.searching {
			switch msg.String() {
			case "enter", "esc":
				s.searching = false
				s.search.Blur()
				return s, nil
			}
			var cmd tea.Cmd
			s.search, cmd = s.search.Update(msg)
			s.page = 1
			return s, tea.Batch(cmd, s.load())
		}

		switch msg.String() {
		case "/":
			s.searching = true
			return s, s.search.Focus()
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.data.Items)-1 {
				s.selected++
			}
		case "left", "h", "pgup":
			if s.page > 1 {
				s.page--
				s.selected = 0
				return s, s.load()
			}
		case "right", "l", "pgdown":
			if s.page < s.data.Pages {
				s.page++
				s.selected = 0
				return s, s.load()
			}
		case "e":
			s.note, s.errMsg = "", ""
			return s, s.export()
		case "r":
			return s, s.load()
		}
	}
	return s, nil
}

func (s *ResultsScreen) View(width, height int) string {
	if !s.loaded {
		return renderLoading("results", width)
	}
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centered(lipgloss.NewStyle().Width(cw).Render(s.search.View()), width))
	b.WriteString("\n\n")

	if len(s.data.Items) == 0 {
		b.WriteString(renderEmpty("No results found.", width))
	} else {
		header := fmt.Sprintf("  %s %s %s %s %s", pad("Completed", 16), pad("Learner", 20), pad("Company", 16), pad("Score", 6), "Result")
		b.WriteString(centered(theme.Label.Render(pad(header, cw)), width))
		b.WriteString("\n")
		for i, r := range s.data.Items {
			prefix := "  "
			if i == s.selected {
				prefix = "> "
			}
			line := fmt.Sprintf("%s%s %s %s %s ", prefix,
				pad(r.CompletedAt.Format("2006-01-02 15:04"), 16),
				pad(r.Learner.FullName(), 20),
				pad(r.Learner.CompanyName, 16),
				pad(fmt.Sprintf("%d%%", r.Score), 6))
			style := lipgloss.NewStyle().Foreground(theme.Text)
			if i == s.selected {
				style = style.Foreground(theme.Primary).Bold(true)
			}
			b.WriteString(centered(style.Render(line)+passLabel(r.Passed), width))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(centered(theme.Hint.Render(fmt.Sprintf("Page %d of %d · %d result(s)", s.data.Page, max(s.data.Pages, 1), s.data.Total)), width))
		b.WriteString("\n")
		if i := s.selected; i < len(s.data.Items) && s.data.Items[i].Passed {
			b.WriteString(centered(theme.Hint.Render("Completion ID: "+s.data.Items[i].CompletionID), width))
			b.WriteString("\n")
		}
	}

	if s.errMsg != "" {
		b.WriteString(centered(theme.ErrorLine.Render("✗ "+s.errMsg), width))
	} else {
		b.WriteString(noteLine(s.note, width))
	}
	return b.String()
}
