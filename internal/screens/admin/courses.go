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

type coursesLoadedMsg struct {
	Items []training.Course
	Err   error
}

type courseToggledMsg struct {
	ID     string
	Active bool
	Err    error
}

// CoursesScreen lists courses and toggles whether learners may take them.
type CoursesScreen struct {
	deps     Deps
	items    []training.Course
	selected int
	loaded   bool
	note     string
	errMsg   string
}

var _ screen.Screen = (*CoursesScreen)(nil)
var _ screen.KeyHintProvider = (*CoursesScreen)(nil)

// NewCourses creates the course list.
func NewCourses(d Deps) *CoursesScreen {
	return &CoursesScreen{deps: d}
}

func (s *CoursesScreen) load() tea.Cmd {
	catalog := s.deps.Catalog
	return func() tea.Msg {
		items, err := catalog.List(context.Background())
		return coursesLoadedMsg{Items: items, Err: err}
	}
}

func (s *CoursesScreen) Init() tea.Cmd {
	return s.load()
}

func (s *CoursesScreen) Title() string {
	return "Courses"
}

func (s *CoursesScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Toggle active"},
		{Key: "Esc", Description: "Back"},
	}
}

// Items returns the listed courses.
func (s *CoursesScreen) Items() []training.Course {
	return s.items
}

func (s *CoursesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case coursesLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.items = msg.Items
		return s, nil

	case courseToggledMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		state := "inactive"
		if msg.Active {
			state = "active"
		}
		s.note = fmt.Sprintf("%s is now %s.", msg.ID, state)
		return s, s.load()

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.items)-1 {
				s.selected++
			}
		case "enter", "space", " ":
			if s.selected < len(s.items) {
				s.note, s.errMsg = "", ""
				c := s.items[s.selected]
				catalog, active := s.deps.Catalog, !c.IsActive
				return s, func() tea.Msg {
					err := catalog.SetActive(context.Background(), c.ID, active)
					return courseToggledMsg{ID: c.ID, Active: active, Err: err}
				}
			}
		case "r":
			return s, s.load()
		}
	}
	return s, nil
}

func (s *CoursesScreen) View(width, height int) string {
	if !s.loaded {
		return renderLoading("courses", width)
	}
	if len(s.items) == 0 {
		return renderEmpty("No courses. Import one with `safetyhub course import`.", width)
	}
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString("\n")
	for i, c := range s.items {
		badge := theme.Incorrect.Render("inactive")
		if c.IsActive {
			badge = theme.Correct.Render("active")
		}
		version := c.Version
		if version == "" {
			version = "-"
		}
		body := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(c.Title) + "  " + badge + "\n" +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("%s · v%s · %s video · %d checkpoints · %d questions",
				c.ID, version, clockLabel(c.Duration()), len(c.Checkpoints), len(c.Questions)))

		border := theme.Border
		if i == s.selected {
			border = theme.Primary
		}
		b.WriteString(centered(lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Width(cw-2).
			Padding(0, 1).
			Render(body), width))
		b.WriteString("\n")
	}
	if s.errMsg != "" {
		b.WriteString(centered(theme.ErrorLine.Render("✗ "+s.errMsg), width))
	} else {
		b.WriteString(noteLine(s.note, width))
	}
	return b.String()
}

func clockLabel(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
