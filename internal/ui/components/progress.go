package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// Mark is a point of interest on a ProgressBar, such as a video checkpoint.
// At is a fraction of the track in [0, 1].
type Mark struct {
	At   float64
	Done bool
}

// ProgressBar is a horizontal track. Reached extends a dimmer "watched"
// zone past Percent; marks are drawn over the cells they fall in.
type ProgressBar struct {
	Label       string
	Percent     float64
	Reached     float64
	Marks       []Mark
	ShowPercent bool
	Width       int
}

// NewProgressBar creates a plain progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// cell maps a fraction of the track to a cell index.
func cell(frac float64, width int) int {
	return min(max(int(frac*float64(width)), 0), width)
}

// View renders the bar.
func (p ProgressBar) View() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label))
		b.WriteString("  ")
	}

	suffix := ""
	if p.ShowPercent {
		suffix = fmt.Sprintf("  %d%%", int(p.Percent*100))
	}
	barWidth := max(p.Width-lipgloss.Width(b.String())-len(suffix), 4)

	played := cell(p.Percent, barWidth)
	reached := max(cell(p.Reached, barWidth), played)

	marks := make(map[int]Mark, len(p.Marks))
	for _, m := range p.Marks {
		i := min(cell(m.At, barWidth), barWidth-1)
		if prev, ok := marks[i]; ok && !prev.Done {
			continue
		}
		marks[i] = m
	}

	for i := 0; i < barWidth; i++ {
		bg := theme.TrackAhead
		switch {
		case i < played:
			bg = theme.TrackPlayed
		case i < reached:
			bg = theme.TrackWatched
		}
		m, ok := marks[i]
		if !ok {
			b.WriteString(bg.Render(" "))
			continue
		}
		fg := theme.TrackMark
		if m.Done {
			fg = theme.TrackMarkDone
		}
		b.WriteString(fg.Inherit(bg).Render("◆"))
	}

	if suffix != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(suffix))
	}
	return b.String()
}
