package admin

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/components"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/layout"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

type companiesLoadedMsg struct {
	Items []training.AccessCode
	Err   error
}

// CompaniesScreen lists companies with a search filter.
type CompaniesScreen struct {
	deps      Deps
	search    components.TextInput
	searching bool
	items     []training.AccessCode
	selected  int
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*CompaniesScreen)(nil)
var _ screen.KeyHintProvider = (*CompaniesScreen)(nil)
var _ screen.Resumer = (*CompaniesScreen)(nil)
var _ screen.EscapeHandler = (*CompaniesScreen)(nil)

// NewCompanies creates the company list.
func NewCompanies(d Deps) *CompaniesScreen {
	return &CompaniesScreen{
		deps:   d,
		search: components.NewField("Search", "code or company name", 40),
	}
}

func (s *CompaniesScreen) load() tea.Cmd {
	ledger, query := s.deps.Ledger, s.search.Value()
	return func() tea.Msg {
		items, err := ledger.List(context.Background(), query)
		return companiesLoadedMsg{Items: items, Err: err}
	}
}

func (s *CompaniesScreen) Init() tea.Cmd {
	return s.load()
}

func (s *CompaniesScreen) Resume() tea.Cmd {
	return s.load()
}

func (s *CompaniesScreen) Title() string {
	return "Companies"
}

func (s *CompaniesScreen) HandlesEsc() bool {
	return s.searching
}

func (s *CompaniesScreen) KeyHints() []layout.KeyHint {
	if s.searching {
		return []layout.KeyHint{
			{Key: "Enter/Esc", Description: "Done"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Details"},
		{Key: "n", Description: "New company"},
		{Key: "/", Description: "Search"},
		{Key: "Esc", Description: "Back"},
	}
}

// Items returns the companies currently listed.
func (s *CompaniesScreen) Items() []training.AccessCode {
	return s.items
}

func (s *CompaniesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case companiesLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.items = msg.Items
		if s.selected >= len(s.items) {
			s.selected = max(len(s.items)-1, 0)
		}
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
			if s.selected < len(s.items)-1 {
				s.selected++
			}
		case "n":
			return s, push(NewCreate(s.deps))
		case "r":
			return s, s.load()
		case "enter":
			if s.selected < len(s.items) {
				return s, push(NewCompany(s.deps, s.items[s.selected].ID))
			}
		}
	}
	return s, nil
}

func (s *CompaniesScreen) View(width, height int) string {
	if s.errMsg != "" {
		return renderError(s.errMsg, width)
	}
	if !s.loaded {
		return renderLoading("companies", width)
	}
	cw := components.ContentWidth(width)
	now := s.deps.now()

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centered(lipgloss.NewStyle().Width(cw).Render(s.search.View()), width))
	b.WriteString("\n\n")

	if len(s.items) == 0 {
		if s.search.Value() != "" {
			b.WriteString(renderEmpty("No companies match the search.", width))
		} else {
			b.WriteString(renderEmpty("No companies yet. Press n to add one.", width))
		}
		return b.String()
	}

	header := fmt.Sprintf("  %s %s %s %s", pad("Code", 12), pad("Company", 24), pad("Seats", 20), "Expires")
	b.WriteString(centered(theme.Label.Render(pad(header, cw)), width))
	b.WriteString("\n")

	rows := max(height-8, 3)
	start := 0
	if s.selected >= rows {
		start = s.selected - rows + 1
	}
	for i := start; i < len(s.items) && i < start+rows; i++ {
		ac := &s.items[i]
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s %s %s %s", prefix,
			pad(ac.Code, 12), pad(ac.CompanyName, 24), pad(seatSummary(ac), 20), expiryLabel(ac, now))

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case i == s.selected:
			style = style.Foreground(theme.Primary).Bold(true)
		case ac.Expired(now) || ac.SeatsRemaining() == 0:
			style = style.Foreground(theme.TextDim)
		}
		b.WriteString(centered(style.Render(pad(line, cw)), width))
		b.WriteString("\n")
	}
	return b.String()
}
