package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/labinot-bajgora/ECK-safety/internal/access"
	"github.com/labinot-bajgora/ECK-safety/internal/results"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// ErrNameRequired is returned when the entry form lacks a first or last name.
var ErrNameRequired = errors.New("first and last name are required")

// ErrNoCourse is returned when a step needs the course but none is loaded.
var ErrNoCourse = errors.New("no course loaded")

// CodeValidator checks access codes.
type CodeValidator interface {
	Validate(ctx context.Context, code string) access.Result
}

// ResultRecorder stores final results.
type ResultRecorder interface {
	RecordResult(ctx context.Context, learner training.LearnerData, score, attempts int, courseID string) (*results.Receipt, error)
}

// EntryForm is what the learner types at ENTRY.
type EntryForm struct {
	FirstName   string
	LastName    string
	JobPosition string
	AccessCode  string
}

// Outcome is the result of submitting the entry form. When Admin is set
// the access code was the admin PIN and nothing else was checked.
type Outcome struct {
	Admin  bool
	Access access.Result
}

// Controller runs the learner flow for one terminal. It owns the flow
// state, executes transition effects, and is safe for use from
// concurrent commands.
type Controller struct {
	mu        sync.Mutex
	validator CodeValidator
	recorder  ResultRecorder
	session   *Session
	adminPIN  string
	logger    *slog.Logger

	state   State
	course  *training.Course
	code    *training.AccessCode
	receipt *results.Receipt
}

// Option configures a Controller.
type Option func(*Controller)

// WithAdminPIN sets the sentinel code that opens the admin console.
func WithAdminPIN(pin string) Option {
	return func(c *Controller) { c.adminPIN = pin }
}

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a Controller at ENTRY.
func NewController(v CodeValidator, r ResultRecorder, s *Session, opts ...Option) *Controller {
	c := &Controller{
		validator: v,
		recorder:  r,
		session:   s,
		logger:    slog.Default(),
		state:     Initial(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns a copy of the flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.state
	if st.Learner != nil {
		l := *st.Learner
		st.Learner = &l
	}
	return st
}

// Course returns the course being taken, or nil at ENTRY.
func (c *Controller) Course() *training.Course {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.course
}

// AccessCode returns the validated code, or nil at ENTRY.
func (c *Controller) AccessCode() *training.AccessCode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.code
}

// Receipt returns the recorded result once RESULT was reached.
func (c *Controller) Receipt() *results.Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receipt
}

// Start resolves how the learner begins. A saved session is resumed only
// when no invite was given and its access code still validates. The
// returned Entry carries the code to prefill at ENTRY.
func (c *Controller) Start(ctx context.Context, invite string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	saved, err := c.session.Load(ctx)
	if err != nil {
		c.logger.Warn("session load failed", "error", err)
		saved = nil
	}
	entry := ResolveEntry(invite, saved, "")
	if entry.Source != SourceSession {
		return entry, nil
	}

	res := c.validator.Validate(ctx, entry.Code)
	if !res.Valid {
		c.logger.Info("saved session no longer valid", "code", entry.Code, "reason", string(res.Reason))
		if err := c.session.Clear(ctx); err != nil {
			c.logger.Warn("session clear failed", "error", err)
		}
		return Entry{}, nil
	}

	if err := c.dispatch(ctx, Restored{
		Step:     saved.Step,
		Learner:  saved.Learner,
		CourseID: res.Course.ID,
		Attempts: saved.Attempts,
	}); err != nil {
		return Entry{}, err
	}
	c.course, c.code = res.Course, res.Code
	c.logger.Info("session restored", "code", entry.Code, "step", string(saved.Step))
	return entry, nil
}

// Submit handles the entry form. The admin PIN short-circuits every other
// check. An invalid code returns an Outcome whose Access explains why.
func (c *Controller) Submit(ctx context.Context, form EntryForm) (Outcome, error) {
	if IsAdminPIN(form.AccessCode, c.adminPIN) {
		return Outcome{Admin: true}, nil
	}
	first, last := strings.TrimSpace(form.FirstName), strings.TrimSpace(form.LastName)
	if first == "" || last == "" {
		return Outcome{}, ErrNameRequired
	}

	res := c.validator.Validate(ctx, training.NormalizeCode(form.AccessCode))
	if !res.Valid {
		return Outcome{Access: res}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	learner := training.LearnerData{
		FirstName:   first,
		LastName:    last,
		CompanyName: res.Code.CompanyName,
		JobPosition: strings.TrimSpace(form.JobPosition),
		AccessCode:  res.Code.Code,
	}
	if err := c.dispatch(ctx, CodeAccepted{Learner: learner, CourseID: res.Course.ID}); err != nil {
		return Outcome{}, err
	}
	c.course, c.code, c.receipt = res.Course, res.Code, nil
	return Outcome{Access: res}, nil
}

// ConfirmIntro moves from INTRO to VIDEO.
func (c *Controller) ConfirmIntro(ctx context.Context) error {
	return c.fire(ctx, IntroConfirmed{})
}

// BackToIntro returns from VIDEO to INTRO.
func (c *Controller) BackToIntro(ctx context.Context) error {
	return c.fire(ctx, VideoBack{})
}

// CompleteVideo moves from VIDEO to TEST.
func (c *Controller) CompleteVideo(ctx context.Context) error {
	return c.fire(ctx, VideoCompleted{})
}

// SubmitQuiz finishes an attempt with score.
func (c *Controller) SubmitQuiz(ctx context.Context, score int) error {
	return c.fire(ctx, QuizSubmitted{Score: score})
}

// Retry restarts the quiz after a failed first attempt.
func (c *Controller) Retry(ctx context.Context) error {
	return c.fire(ctx, RetryRequested{})
}

// ReviewVideo returns to the video after a failed first attempt.
func (c *Controller) ReviewVideo(ctx context.Context) error {
	return c.fire(ctx, ReviewRequested{})
}

// Reset abandons the flow and clears all saved progress.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dispatch(ctx, Reset{}); err != nil {
		return err
	}
	c.course, c.code, c.receipt = nil, nil, nil
	return nil
}

func (c *Controller) fire(ctx context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatch(ctx, ev)
}

// dispatch runs a transition and its effects. The new state is committed
// only when every effect succeeded. Callers hold c.mu.
func (c *Controller) dispatch(ctx context.Context, ev Event) error {
	next, effects := Transition(c.state, ev)
	for _, eff := range effects {
		if err := c.apply(ctx, next, eff); err != nil {
			return err
		}
	}
	if next.Step != c.state.Step {
		c.logger.Debug("flow step", "from", string(c.state.Step), "to", string(next.Step))
	}
	c.state = next
	return nil
}

func (c *Controller) apply(ctx context.Context, next State, eff Effect) error {
	switch eff {
	case PersistSession:
		if err := c.session.Save(ctx, next); err != nil {
			c.logger.Warn("session save failed", "error", err)
		}
	case ClearSession:
		if err := c.session.Clear(ctx); err != nil {
			c.logger.Warn("session clear failed", "error", err)
		}
	case ClearQuizProgress:
		if err := c.session.ClearQuiz(ctx, next.CourseID); err != nil {
			c.logger.Warn("quiz progress clear failed", "error", err)
		}
	case RecordResult:
		if next.Learner == nil {
			return errors.New("record result: no learner")
		}
		receipt, err := c.recorder.RecordResult(ctx, *next.Learner, next.LastScore, next.Attempts, next.CourseID)
		if err != nil {
			return fmt.Errorf("record result: %w", err)
		}
		c.receipt = receipt
	case OfferRetry:
	}
	return nil
}

// Quiz returns the quiz for the current course with saved answers applied.
func (c *Controller) Quiz(ctx context.Context) (*Quiz, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.course == nil {
		return nil, ErrNoCourse
	}
	q := NewQuiz(c.course)
	answers, index, err := c.session.LoadQuiz(ctx, c.course.ID)
	if err != nil {
		c.logger.Warn("quiz progress load failed", "error", err)
		return q, nil
	}
	q.Restore(answers, index)
	return q, nil
}

// SaveQuiz persists quiz answers and position.
func (c *Controller) SaveQuiz(ctx context.Context, q *Quiz) error {
	courseID := c.courseID()
	if courseID == "" {
		return ErrNoCourse
	}
	return c.session.SaveQuiz(ctx, courseID, q.Answers(), q.Index())
}

// Playback returns the video player for the current course at its saved
// position.
func (c *Controller) Playback(ctx context.Context) (*Playback, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.course == nil {
		return nil, ErrNoCourse
	}
	progress, err := c.session.LoadVideo(ctx, c.course.ID)
	if err != nil {
		c.logger.Warn("video progress load failed", "error", err)
	}
	return NewPlayback(c.course, progress), nil
}

// SaveVideo persists playhead and furthest watched position.
func (c *Controller) SaveVideo(ctx context.Context, p Progress) error {
	courseID := c.courseID()
	if courseID == "" {
		return ErrNoCourse
	}
	return c.session.SaveVideo(ctx, courseID, p)
}

// MarkCheckpoint persists that the checkpoint at second t was answered.
func (c *Controller) MarkCheckpoint(ctx context.Context, t int) error {
	courseID := c.courseID()
	if courseID == "" {
		return ErrNoCourse
	}
	return c.session.MarkCheckpoint(ctx, courseID, t)
}

func (c *Controller) courseID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.course == nil {
		return ""
	}
	return c.course.ID
}
