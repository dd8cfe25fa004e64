// Package access decides whether an access code may start a training.
package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/labinot-bajgora/ECK-safety/internal/store"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// Reason identifies why a code was rejected.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonNotFound          Reason = "not_found"
	ReasonExpired           Reason = "expired"
	ReasonNoSeats           Reason = "no_seats"
	ReasonCourseUnavailable Reason = "course_unavailable"
)

// Message returns the learner-facing text for r.
func (r Reason) Message() string {
	switch r {
	case ReasonNotFound:
		return "Access code not recognized."
	case ReasonExpired:
		return "Access code has expired."
	case ReasonNoSeats:
		return "No seats remaining for this code."
	case ReasonCourseUnavailable:
		return "Associated training is currently unavailable."
	default:
		return ""
	}
}

// Result is the outcome of validating a code. Code and Course are only
// set when Valid is true.
type Result struct {
	Valid   bool
	Reason  Reason
	Message string
	Code    *training.AccessCode
	Course  *training.Course
}

func reject(r Reason) Result {
	return Result{Reason: r, Message: r.Message()}
}

// Validator checks access codes against the local store. It never writes.
type Validator struct {
	codes   store.AccessCodeRepo
	courses store.CourseRepo
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithLogger sets the logger used for store read failures.
func WithLogger(l *slog.Logger) Option {
	return func(v *Validator) { v.logger = l }
}

// NewValidator creates a Validator over the given repositories.
func NewValidator(codes store.AccessCodeRepo, courses store.CourseRepo, opts ...Option) *Validator {
	v := &Validator{
		codes:   codes,
		courses: courses,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Validate runs the checks in order and reports the first failure:
// unknown code, expiry, seat exhaustion, then course availability.
// Store failures are logged and reported as an unknown code.
func (v *Validator) Validate(ctx context.Context, code string) Result {
	code = strings.TrimSpace(code)
	if code == "" {
		return reject(ReasonNotFound)
	}

	ac, err := v.codes.FindByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			v.logger.Error("access code lookup failed", "code", training.NormalizeCode(code), "error", err)
		}
		return reject(ReasonNotFound)
	}

	if ac.Expired(v.now()) {
		return reject(ReasonExpired)
	}

	if ac.SeatMode == training.SeatModeLimited && ac.SeatsUsed >= ac.SeatAllowance {
		return reject(ReasonNoSeats)
	}

	course, err := v.courses.Get(ctx, ac.CourseID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			v.logger.Error("course lookup failed", "course", ac.CourseID, "error", err)
		}
		return reject(ReasonCourseUnavailable)
	}
	if !course.IsActive {
		return reject(ReasonCourseUnavailable)
	}

	return Result{Valid: true, Code: ac, Course: course}
}
