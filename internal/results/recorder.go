// Package results records finished training attempts and reports on them.
package results

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/labinot-bajgora/ECK-safety/internal/store"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

const unknownCourseName = "Unknown Training"

// appendAttempts bounds retries when a freshly generated completion id is
// taken between the existence check and the insert.
const appendAttempts = 3

// Receipt is what the learner sees after a result is recorded.
type Receipt struct {
	CompletionID string
	Passed       bool
	SeatConsumed bool
	Result       training.TestResult
}

// Recorder appends results and performs the idempotent seat deduction.
type Recorder struct {
	backend store.Backend
	ids     completionIDs
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithPrefix changes the completion id prefix.
func WithPrefix(prefix string) Option {
	return func(r *Recorder) {
		if prefix != "" {
			r.ids.prefix = prefix
		}
	}
}

// WithLogger sets the recorder's logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// NewRecorder creates a Recorder over backend.
func NewRecorder(backend store.Backend, opts ...Option) *Recorder {
	r := &Recorder{
		backend: backend,
		now:     time.Now,
		logger:  slog.Default(),
	}
	r.ids = completionIDs{
		prefix: DefaultCompletionPrefix,
		exists: backend.Results().CompletionIDExists,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// RecordResult appends the result of a finished attempt sequence. A
// passing learner on a LIMITED code consumes one seat, at most once per
// learner and code. Only store failures are returned as errors.
func (r *Recorder) RecordResult(ctx context.Context, learner training.LearnerData, score, attempts int, courseID string) (*Receipt, error) {
	passed := training.Passed(score)

	courseName := unknownCourseName
	if c, err := r.backend.Courses().Get(ctx, courseID); err == nil {
		courseName = c.Title
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load course: %w", err)
	}

	mode := training.SeatModeUnlimited
	if ac, err := r.backend.AccessCodes().FindByCode(ctx, learner.AccessCode); err == nil {
		mode = ac.SeatMode
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load access code: %w", err)
	}

	seatConsumed := false
	if passed {
		outcome, err := r.backend.Seats().ConsumeSeat(ctx, learner.AccessCode, SeatKey(learner))
		if err != nil {
			return nil, fmt.Errorf("consume seat: %w", err)
		}
		switch outcome {
		case store.SeatConsumed, store.SeatAlreadyApplied:
			seatConsumed = true
		case store.SeatExhausted:
			r.logger.Warn("seat allowance exhausted at completion",
				"code", training.NormalizeCode(learner.AccessCode), "learner", learner.FullName())
		}
		r.logger.Debug("seat deduction", "code", training.NormalizeCode(learner.AccessCode), "outcome", outcome)
	}

	res := training.TestResult{
		ID:                   uuid.NewString(),
		Learner:              learner,
		CourseName:           courseName,
		Score:                score,
		Passed:               passed,
		Attempts:             attempts,
		CompletedAt:          r.now(),
		SeatConsumed:         seatConsumed,
		SeatModeAtCompletion: mode,
	}

	var err error
	for i := 0; i < appendAttempts; i++ {
		res.CompletionID, err = r.ids.Next(ctx)
		if err != nil {
			return nil, err
		}
		err = r.backend.Results().Append(ctx, &res)
		if !errors.Is(err, store.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("append result: %w", err)
	}

	r.logger.Info("result recorded", "completion_id", res.CompletionID, "passed", passed,
		"score", score, "attempts", attempts, "seat_consumed", seatConsumed)

	return &Receipt{
		CompletionID: res.CompletionID,
		Passed:       passed,
		SeatConsumed: seatConsumed,
		Result:       res,
	}, nil
}

// List returns stored results matching q.
func (r *Recorder) List(ctx context.Context, q Query) (Page, error) {
	all, err := r.backend.Results().List(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("list results: %w", err)
	}
	return Filter(all, q), nil
}

// Dashboard aggregates the stored companies and results.
func (r *Recorder) Dashboard(ctx context.Context, trendDays int) (*Stats, error) {
	all, err := r.backend.Results().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	codes, err := r.backend.AccessCodes().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return Dashboard(codes, all, r.now(), trendDays), nil
}
