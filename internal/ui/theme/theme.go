// Package theme holds the kiosk palette and the styles shared by screens.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette: high-visibility safety colours on a dark background.
var (
	Primary   = lipgloss.Color("#F59E0B") // Safety Amber
	Secondary = lipgloss.Color("#0EA5E9") // Sky
	Accent    = lipgloss.Color("#FACC15") // Hi-vis Yellow
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#FB923C") // Orange
	Error     = lipgloss.Color("#EF4444") // Red
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Watched   = lipgloss.Color("#475569") // Steel
	BgDark    = lipgloss.Color("#0F172A") // Deep Navy
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Bold(true)
)

// Bar frames the header and footer.
var Bar = lipgloss.NewStyle().
	Background(BgCard).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Warn = lipgloss.NewStyle().
		Foreground(Warning)

	ErrorLine = lipgloss.NewStyle().
			Foreground(Error)
)

// Progress track cells: played, watched but behind the playhead's max,
// not yet reached, and the checkpoint markers on top.
var (
	TrackPlayed = lipgloss.NewStyle().
			Background(Secondary)

	TrackWatched = lipgloss.NewStyle().
			Background(Watched)

	TrackAhead = lipgloss.NewStyle().
			Background(Border)

	TrackMark = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)

	TrackMarkDone = lipgloss.NewStyle().
			Foreground(Success)
)
