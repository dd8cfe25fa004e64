package learner

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/flow"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/components"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/layout"
	"github.com/labinot-bajgora/ECK-safety/internal/ui/theme"
)

type quizLoadedMsg struct {
	Quiz *flow.Quiz
	Err  error
}

type quizSubmittedMsg struct {
	Err error
}

type retryStartedMsg struct {
	Err error
}

// QuizScreen runs the final quiz and the retry offer after a failed
// first attempt.
type QuizScreen struct {
	deps   Deps
	quiz   *flow.Quiz
	choice components.MultiChoice
	busy   bool
	errMsg string
}

var _ screen.Screen = (*QuizScreen)(nil)
var _ screen.KeyHintProvider = (*QuizScreen)(nil)
var _ screen.StatusProvider = (*QuizScreen)(nil)

// NewQuiz creates the quiz screen for the controller's course.
func NewQuiz(d Deps) *QuizScreen {
	return &QuizScreen{deps: d}
}

func (s *QuizScreen) load() tea.Cmd {
	ctrl := s.deps.Flow
	return func() tea.Msg {
		q, err := ctrl.Quiz(context.Background())
		return quizLoadedMsg{Quiz: q, Err: err}
	}
}

func (s *QuizScreen) Init() tea.Cmd {
	return s.load()
}

func (s *QuizScreen) Title() string {
	return "Final quiz"
}

func (s *QuizScreen) Status() string {
	return learnerStatus(s.deps)
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	if s.retryOffered() {
		return []layout.KeyHint{
			{Key: "r", Description: "Retry quiz"},
			{Key: "v", Description: "Review video"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Space/A-D", Description: "Select"},
		{Key: "Enter", Description: "Next"},
		{Key: "←", Description: "Previous"},
	}
}

// Quiz returns the loaded quiz, or nil before loading.
func (s *QuizScreen) Quiz() *flow.Quiz {
	return s.quiz
}

func (s *QuizScreen) retryOffered() bool {
	return s.deps.Flow.State().RetryOffered
}

// syncChoice rebuilds the selector for the current question.
func (s *QuizScreen) syncChoice() {
	q := s.quiz.Current()
	if q == nil {
		s.choice = components.MultiChoice{Chosen: -1}
		return
	}
	s.choice = components.NewMultiChoice(q.Text, q.Options, q.CorrectIndex)
	if sel, ok := s.quiz.Selected(); ok {
		s.choice.Cursor = sel
		s.choice.Chosen = sel
	}
}

func (s *QuizScreen) save() tea.Cmd {
	snapshot := s.quiz.Clone()
	ctrl, logger := s.deps.Flow, s.deps.logger()
	return func() tea.Msg {
		if err := ctrl.SaveQuiz(context.Background(), snapshot); err != nil {
			logger.Warn("quiz progress save failed", "error", err)
		}
		return nil
	}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case quizLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.quiz = msg.Quiz
		s.syncChoice()
		return s, nil

	case quizSubmittedMsg:
		s.busy = false
		if msg.Err != nil {
			s.deps.logger().Error("quiz submit failed", "error", msg.Err)
			s.errMsg = "Your result could not be saved. Press Enter to try again."
			return s, nil
		}
		if s.deps.Flow.State().Step == flow.StepResult {
			return s, advance(s.deps)
		}
		return s, nil

	case retryStartedMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, s.load()

	case actionDoneMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, advance(s.deps)

	case tea.KeyMsg:
		if s.quiz == nil || s.busy {
			return s, nil
		}
		if s.retryOffered() {
			return s, s.updateRetry(msg)
		}
		return s, s.updateQuestion(msg)
	}
	return s, nil
}

func (s *QuizScreen) updateRetry(msg tea.KeyMsg) tea.Cmd {
	ctrl := s.deps.Flow
	switch msg.String() {
	case "r", "enter":
		s.busy = true
		s.errMsg = ""
		return func() tea.Msg {
			return retryStartedMsg{Err: ctrl.Retry(context.Background())}
		}
	case "v":
		s.busy = true
		s.errMsg = ""
		return run(ctrl.ReviewVideo)
	}
	return nil
}

func (s *QuizScreen) updateQuestion(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left":
		s.quiz.Back()
		s.syncChoice()
		return s.save()
	case "enter":
		return s.next()
	}

	before := s.choice.Chosen
	s.choice, _ = s.choice.Update(msg)
	if s.choice.Chosen == before || s.choice.Chosen < 0 {
		return nil
	}
	if err := s.quiz.Select(s.choice.Chosen); err != nil {
		return nil
	}
	s.errMsg = ""
	return s.save()
}

func (s *QuizScreen) next() tea.Cmd {
	done, err := s.quiz.Next()
	if err != nil {
		s.errMsg = "Select an answer first."
		return nil
	}
	s.errMsg = ""
	if !done {
		s.syncChoice()
		return s.save()
	}

	s.busy = true
	score := s.quiz.Score()
	ctrl := s.deps.Flow
	return func() tea.Msg {
		return quizSubmittedMsg{Err: ctrl.SubmitQuiz(context.Background(), score)}
	}
}

func (s *QuizScreen) View(width, height int) string {
	if s.quiz == nil {
		if s.errMsg != "" {
			return lipgloss.NewStyle().
				Width(width).Align(lipgloss.Center).Foreground(theme.Error).
				Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
		}
		return renderLoading(width, height, "quiz")
	}
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centered(stepper(flow.StepTest), width))
	b.WriteString("\n\n")

	if s.retryOffered() {
		b.WriteString(centered(s.renderRetry(cw), width))
	} else {
		b.WriteString(centered(s.renderQuestion(cw), width))
	}
	b.WriteString("\n\n")
	if s.busy {
		b.WriteString(centered(theme.Hint.Render("Saving..."), width))
	} else {
		b.WriteString(errorLine(s.errMsg, width))
	}
	return b.String()
}

func (s *QuizScreen) renderQuestion(cw int) string {
	q := s.quiz.Current()
	if q == nil {
		return components.Card(theme.Hint.Render("This course has no quiz questions. Press Enter to finish."), cw)
	}

	label := fmt.Sprintf("Question %d of %d", s.quiz.Index()+1, s.quiz.Total())
	if q.IsScenario {
		label += "  ·  Scenario"
	}
	if q.Type == training.QuestionTrueFalse {
		label += "  ·  True or false"
	}
	bar := components.NewProgressBar("", s.quiz.Progress(), false, cw-6)

	var body strings.Builder
	body.WriteString(theme.Label.Render(label))
	body.WriteString("\n")
	body.WriteString(bar.View())
	body.WriteString("\n\n")
	body.WriteString(strings.TrimRight(s.choice.View(), "\n"))

	button := "Next question"
	if s.quiz.IsLast() {
		button = "Submit quiz"
	}
	return components.Card(body.String(), cw) + "\n\n" +
		lipgloss.PlaceHorizontal(cw, lipgloss.Center, components.WideButton(button, s.choice.Chosen >= 0, 30))
}

func (s *QuizScreen) renderRetry(cw int) string {
	st := s.deps.Flow.State()
	left := training.MaxAttempts - st.Attempts

	var body strings.Builder
	body.WriteString(theme.Incorrect.Render("Not passed yet"))
	body.WriteString("\n\n")
	body.WriteString(theme.Body.Render(fmt.Sprintf("You scored %d%%. A score of %d%% is needed to pass.", st.LastScore, training.PassMark)))
	body.WriteString("\n")
	body.WriteString(theme.Body.Render(fmt.Sprintf("You have %d attempt(s) left.", left)))
	body.WriteString("\n\n")
	body.WriteString(theme.Hint.Render("Press r to retry the quiz or v to review the video first."))
	return components.Modal(body.String(), cw)
}
