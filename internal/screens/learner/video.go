package learner

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/flow"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/components"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/layout"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

// SeekStep is how far the arrow keys move the playhead, in seconds.
const SeekStep = 5

// Qualities offered by the quality toggle, in cycle order.
var Qualities = []string{training.Quality720, training.Quality1080, training.Quality480}

// videoGen distinguishes timers of different video screens so a stale
// tick never drives a newer player.
var videoGen atomic.Int64

type videoLoadedMsg struct {
	Playback *flow.Playback
	Err      error
}

type videoTickMsg struct{ gen int64 }

type videoSnapshotMsg struct{ gen int64 }

type checkpointResumeMsg struct{ gen int64 }

// VideoScreen plays the course video and pauses at each checkpoint.
type VideoScreen struct {
	deps     Deps
	gen      int64
	player   *flow.Playback
	quality  int
	modal    *components.MultiChoice
	feedback string
	busy     bool
	errMsg   string
}

var _ screen.Screen = (*VideoScreen)(nil)
var _ screen.KeyHintProvider = (*VideoScreen)(nil)
var _ screen.StatusProvider = (*VideoScreen)(nil)

// NewVideo creates the video screen for the controller's course.
func NewVideo(d Deps) *VideoScreen {
	return &VideoScreen{deps: d, gen: videoGen.Add(1)}
}

func (s *VideoScreen) Init() tea.Cmd {
	ctrl := s.deps.Flow
	return func() tea.Msg {
		p, err := ctrl.Playback(context.Background())
		return videoLoadedMsg{Playback: p, Err: err}
	}
}

func (s *VideoScreen) Title() string {
	return "Training video"
}

func (s *VideoScreen) Status() string {
	return learnerStatus(s.deps)
}

func (s *VideoScreen) KeyHints() []layout.KeyHint {
	if s.modal != nil {
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter/A-D", Description: "Answer"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Space", Description: "Play/Pause"},
		{Key: "←→", Description: fmt.Sprintf("Seek %ds", SeekStep)},
		{Key: "q", Description: "Quality"},
		{Key: "b", Description: "Intro"},
	}
	if s.player != nil && s.player.Err() != "" {
		hints = append(hints, layout.KeyHint{Key: "r", Description: "Retry"})
	}
	if s.player != nil && s.player.CanComplete() {
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Take quiz"})
	}
	return hints
}

// Player returns the loaded playback, or nil before loading.
func (s *VideoScreen) Player() *flow.Playback {
	return s.player
}

// Quality returns the selected video quality.
func (s *VideoScreen) Quality() string {
	return Qualities[s.quality]
}

func (s *VideoScreen) tick() tea.Cmd {
	gen := s.gen
	return tea.Tick(flow.TickInterval, func(time.Time) tea.Msg { return videoTickMsg{gen: gen} })
}

func (s *VideoScreen) snapshotTick() tea.Cmd {
	gen := s.gen
	return tea.Tick(flow.SnapshotInterval, func(time.Time) tea.Msg { return videoSnapshotMsg{gen: gen} })
}

func (s *VideoScreen) save() tea.Cmd {
	if s.player == nil {
		return nil
	}
	progress := s.player.Snapshot()
	ctrl, logger := s.deps.Flow, s.deps.logger()
	return func() tea.Msg {
		if err := ctrl.SaveVideo(context.Background(), progress); err != nil {
			logger.Warn("video progress save failed", "error", err)
		}
		return nil
	}
}

// leave saves progress and then runs the step change fn.
func (s *VideoScreen) leave(fn func(ctx context.Context) error) tea.Cmd {
	progress := s.player.Snapshot()
	ctrl, logger := s.deps.Flow, s.deps.logger()
	return func() tea.Msg {
		ctx := context.Background()
		if err := ctrl.SaveVideo(ctx, progress); err != nil {
			logger.Warn("video progress save failed", "error", err)
		}
		return actionDoneMsg{Err: fn(ctx)}
	}
}

// checkSource fails playback when the selected quality has no source.
func (s *VideoScreen) checkSource() {
	course := s.deps.Flow.Course()
	if course == nil || course.VideoSource(s.Quality()) == "" {
		s.player.Fail("Video could not be loaded.")
	}
}

func (s *VideoScreen) openCheckpoint() {
	cp := s.player.Active()
	if cp == nil {
		s.modal = nil
		return
	}
	mc := components.NewMultiChoice(cp.Question, cp.Options, cp.CorrectIndex)
	mc.Reveal = true
	s.modal = &mc
	s.feedback = ""
}

func (s *VideoScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case videoLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.player = msg.Playback
		s.checkSource()
		return s, tea.Batch(s.tick(), s.snapshotTick())

	case videoTickMsg:
		if msg.gen != s.gen || s.player == nil {
			return s, nil
		}
		if s.player.Tick() {
			s.openCheckpoint()
			return s, tea.Batch(s.tick(), s.save())
		}
		return s, s.tick()

	case videoSnapshotMsg:
		if msg.gen != s.gen {
			return s, nil
		}
		var cmd tea.Cmd
		if s.player != nil && s.player.Playing() {
			cmd = s.save()
		}
		return s, tea.Batch(cmd, s.snapshotTick())

	case checkpointResumeMsg:
		if msg.gen != s.gen || s.player == nil {
			return s, nil
		}
		s.modal = nil
		s.feedback = ""
		s.player.Resume()
		s.openCheckpoint()
		return s, nil

	case actionDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, advance(s.deps)

	case tea.KeyMsg:
		if s.player == nil || s.busy {
			return s, nil
		}
		if s.modal != nil {
			return s, s.updateCheckpoint(msg)
		}
		switch msg.String() {
		case "space", " ":
			s.player.Toggle()
			if !s.player.Playing() {
				return s, s.save()
			}
		case "left", "h":
			s.player.SeekBy(-SeekStep)
		case "right", "l":
			s.player.SeekBy(SeekStep)
		case "q":
			s.quality = (s.quality + 1) % len(Qualities)
			s.player.Retry()
			s.player.Pause()
			s.checkSource()
		case "r":
			if s.player.Err() != "" {
				s.player.Retry()
				s.checkSource()
			}
		case "b":
			s.busy = true
			return s, s.leave(s.deps.Flow.BackToIntro)
		case "enter":
			if s.player.CanComplete() {
				s.busy = true
				return s, s.leave(s.deps.Flow.CompleteVideo)
			}
		}
	}
	return s, nil
}

func (s *VideoScreen) updateCheckpoint(msg tea.KeyMsg) tea.Cmd {
	if s.modal.Locked() {
		return nil
	}
	mc, _ := s.modal.Update(msg)
	s.modal = &mc
	if !mc.Locked() {
		return nil
	}
	cp := s.player.Active()
	correct, ok := s.player.Answer(mc.Chosen)
	if !ok || cp == nil {
		return nil
	}
	if correct {
		s.feedback = "Correct! Resuming..."
	} else {
		s.feedback = "Not quite. The correct answer is highlighted. Resuming..."
	}

	at, gen := cp.Time, s.gen
	ctrl, logger := s.deps.Flow, s.deps.logger()
	return tea.Batch(
		func() tea.Msg {
			if err := ctrl.MarkCheckpoint(context.Background(), at); err != nil {
				logger.Warn("checkpoint save failed", "time", at, "error", err)
			}
			return nil
		},
		tea.Tick(flow.ResumeDelay, func(time.Time) tea.Msg { return checkpointResumeMsg{gen: gen} }),
	)
}

func (s *VideoScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if s.player == nil {
		return renderLoading(width, height, "video")
	}
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centered(stepper(flow.StepVideo), width))
	b.WriteString("\n\n")

	if s.modal != nil {
		b.WriteString(centered(s.renderCheckpoint(cw), width))
		return b.String()
	}

	b.WriteString(centered(components.Card(s.renderScreen(cw-6), cw), width))
	b.WriteString("\n")
	b.WriteString(centered(s.renderTransport(cw), width))
	b.WriteString("\n\n")

	switch {
	case s.player.CanComplete():
		b.WriteString(centered(components.WideButton("Continue to quiz", true, 30), width))
	case s.player.Ended():
		b.WriteString(centered(theme.Hint.Render("Answer the checkpoint to continue."), width))
	default:
		b.WriteString(centered(theme.Hint.Render("Watch the whole video to unlock the quiz."), width))
	}
	return b.String()
}

// renderScreen draws the storyboard slide under the playhead.
func (s *VideoScreen) renderScreen(inner int) string {
	if msg := s.player.Err(); msg != "" {
		return lipgloss.NewStyle().Width(inner).Align(lipgloss.Center).Foreground(theme.Error).
			Render("\n" + msg + "\nPress r to retry or q to switch quality.\n")
	}

	var b strings.Builder
	if ch := s.player.Chapter(); ch != nil {
		b.WriteString(theme.Label.Render(strings.ToUpper(ch.Title)))
		b.WriteString("\n\n")
	}
	if c := s.player.Caption(); c != nil {
		if c.Subtitle != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render(c.Subtitle))
			b.WriteString("\n")
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(c.Title))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(inner).Foreground(theme.Text).Render(c.Body))
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(courseTitle(s.deps.Flow.Course())))
	}
	return b.String()
}

func (s *VideoScreen) renderTransport(cw int) string {
	state := "▶ Playing"
	if !s.player.Playing() {
		state = "⏸ Paused"
	}
	times := fmt.Sprintf("%s / %s", clock(s.player.Current()), clock(s.player.Duration()))
	info := fmt.Sprintf("%s   %s   %s", state, times, s.Quality())

	bar := components.NewProgressBar("", s.player.Percent(), false, cw)
	if d := float64(s.player.Duration()); d > 0 {
		bar.Reached = float64(s.player.MaxReached()) / d
		for _, cp := range s.player.Checkpoints() {
			bar.Marks = append(bar.Marks, components.Mark{At: float64(cp.Time) / d, Done: s.player.Answered(cp.Time)})
		}
	}
	watched := fmt.Sprintf("Watched up to %s", clock(s.player.MaxReached()))
	return bar.View() + "\n" +
		lipgloss.NewStyle().Foreground(theme.Text).Render(info) + "   " +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(watched)
}

func (s *VideoScreen) renderCheckpoint(cw int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render("⚠ Checkpoint"))
	b.WriteString("\n\n")
	b.WriteString(s.modal.View())
	if s.feedback != "" {
		style := theme.Incorrect
		if s.modal.IsCorrect() {
			style = theme.Correct
		}
		b.WriteString("\n")
		b.WriteString(style.Render(s.feedback))
	}
	return components.Modal(b.String(), cw)
}
