// Package app hosts the root Bubble Tea model of the kiosk.
package app

import (
	"context"
	"fmt"
	"log/slog"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/flow"
	"github.com/labinot-bajgora/ECK-safety/internal/router"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/screens/admin"
	"github.com/labinot-bajgora/ECK-safety/internal/screens/learner"
	"github.com/labinot-bajgora/ECK-safety/internal/screens/welcome"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/layout"
)

// Options carries the dependencies of the TUI.
type Options struct {
	Flow  *flow.Controller
	Admin admin.Deps

	// Invite is an invite link or bare code given on the command line.
	Invite string

	// SkipWelcome starts directly on the learner screen.
	SkipWelcome bool

	Logger *slog.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	width  int
	height int
}

// newAppModel builds the screen stack for a flow that has already been
// started. prefill is the access code to put in the entry form.
func newAppModel(opts Options, prefill string) AppModel {
	deps := learner.Deps{
		Flow:   opts.Flow,
		Admin:  admin.Factory(opts.Admin),
		Logger: opts.Logger,
	}
	first := func() screen.Screen { return learner.ForStep(deps, prefill) }

	var initial screen.Screen
	if opts.SkipWelcome {
		initial = first()
	} else {
		initial = welcome.New(first)
	}
	return AppModel{
		router: router.New(initial),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.EscapeHandler); ok && h.HandlesEsc() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// footerHints returns the active screen's hints, or defaults for its depth.
func (m AppModel) footerHints() []layout.KeyHint {
	if p, ok := m.router.Active().(screen.KeyHintProvider); ok {
		return append(p.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title, status := "", ""
	if active != nil {
		title = active.Title()
		if p, ok := active.(screen.StatusProvider); ok {
			status = p.Status()
		}
	}

	header := layout.RenderHeader(title, status, m.width)
	footer := layout.RenderFooter(m.footerHints(), m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(m.height-headerHeight-footerHeight, 0)

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run resolves the learner's starting point and runs the TUI until the
// user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	entry, err := opts.Flow.Start(ctx, opts.Invite)
	if err != nil {
		return fmt.Errorf("start learner flow: %w", err)
	}
	opts.Logger.Info("kiosk started", "entry", entry.Source.String(), "step", string(opts.Flow.State().Step))

	p := tea.NewProgram(newAppModel(opts, entry.Code), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}
