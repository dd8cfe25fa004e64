package components

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// MenuItem is one entry of a Menu. Items are numbered from 1 and the
// number selects and activates the item directly.
type MenuItem struct {
	Label       string
	Description string
	Action      func() tea.Cmd
	Disabled    bool
}

// Menu is a vertical numbered menu.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a menu with the first enabled item selected.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items}
	for i, item := range items {
		if !item.Disabled {
			m.Selected = i
			break
		}
	}
	return m
}

func (m Menu) step(delta int) Menu {
	for i := m.Selected + delta; i >= 0 && i < len(m.Items); i += delta {
		if !m.Items[i].Disabled {
			m.Selected = i
			break
		}
	}
	return m
}

func (m Menu) activate() tea.Cmd {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return nil
	}
	item := m.Items[m.Selected]
	if item.Disabled || item.Action == nil {
		return nil
	}
	return item.Action()
}

// Update handles arrow navigation, Enter and number shortcuts.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		return m.step(-1), nil
	case "down", "j":
		return m.step(1), nil
	case "enter":
		return m, m.activate()
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.Items) && !m.Items[n-1].Disabled {
		m.Selected = n - 1
		return m, m.activate()
	}
	return m, nil
}

// View renders the menu. Disabled items are dimmed.
func (m Menu) View() string {
	labelWidth := 0
	for _, item := range m.Items {
		labelWidth = max(labelWidth, lipgloss.Width(item.Label))
	}

	var b strings.Builder
	for i, item := range m.Items {
		num := strconv.Itoa(i + 1)
		label := item.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(item.Label))

		style := lipgloss.NewStyle().Foreground(theme.Text)
		prefix := "    "
		switch {
		case i == m.Selected:
			style = theme.Selected
			prefix = "  ▸ "
		case item.Disabled:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		}

		b.WriteString(style.Render(prefix + num + "  " + label))
		if item.Description != "" {
			b.WriteString("  ")
			b.WriteString(theme.Hint.Render(item.Description))
		}
		b.WriteString("\n")
	}
	return b.String()
}
