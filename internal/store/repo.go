package store

import (
	"context"
	"errors"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("duplicate")
)

// Backend groups the repositories of one local store. Both the SQLite
// Store and the in-memory Memory implement it.
type Backend interface {
	Courses() CourseRepo
	AccessCodes() AccessCodeRepo
	Results() ResultRepo
	Seats() SeatRepo
	Sessions() SessionRepo
}

// CourseRepo persists training courses.
type CourseRepo interface {
	// Upsert inserts the course or replaces the stored one with the same ID.
	Upsert(ctx context.Context, c *training.Course) error

	// Get returns the course with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*training.Course, error)

	// List returns all courses ordered by creation time.
	List(ctx context.Context) ([]training.Course, error)

	// SetActive toggles the availability flag, or returns ErrNotFound.
	SetActive(ctx context.Context, id string, active bool) error
}

// AccessCodeRepo persists companies and their access codes.
type AccessCodeRepo interface {
	// Create inserts a new code. Returns ErrDuplicate when the code is taken.
	Create(ctx context.Context, c *training.AccessCode) error

	// Get returns the code with the given row id, or ErrNotFound.
	Get(ctx context.Context, id string) (*training.AccessCode, error)

	// FindByCode looks a code up case-insensitively, or returns ErrNotFound.
	FindByCode(ctx context.Context, code string) (*training.AccessCode, error)

	// List returns all codes, newest first.
	List(ctx context.Context) ([]training.AccessCode, error)

	// Update overwrites the mutable fields of an existing code.
	Update(ctx context.Context, c *training.AccessCode) error

	// Delete removes the code together with every result recorded under it
	// and its idempotency markers. It returns the number of removed results.
	Delete(ctx context.Context, id string) (int, error)
}

// ResultRepo is the append-only results log.
type ResultRepo interface {
	// Append stores a new result.
	Append(ctx context.Context, r *training.TestResult) error

	// List returns all results, newest first.
	List(ctx context.Context) ([]training.TestResult, error)

	// CompletionIDExists reports whether a completion id is already taken.
	CompletionIDExists(ctx context.Context, completionID string) (bool, error)
}

// SeatOutcome describes what ConsumeSeat did.
type SeatOutcome int

const (
	// SeatNotRequired means the code is unknown or not LIMITED.
	SeatNotRequired SeatOutcome = iota
	// SeatConsumed means one seat was deducted and the marker written.
	SeatConsumed
	// SeatAlreadyApplied means the idempotency marker already existed.
	SeatAlreadyApplied
	// SeatExhausted means the allowance was used up before this deduction.
	SeatExhausted
)

func (o SeatOutcome) String() string {
	switch o {
	case SeatConsumed:
		return "consumed"
	case SeatAlreadyApplied:
		return "already-applied"
	case SeatExhausted:
		return "exhausted"
	default:
		return "not-required"
	}
}

// SeatRepo performs idempotent seat deductions.
type SeatRepo interface {
	// ConsumeSeat atomically checks the idempotency key, and for a LIMITED
	// code with seats left increments seats_used and records the key.
	ConsumeSeat(ctx context.Context, code, key string) (SeatOutcome, error)
}

// SessionRepo is the key-value store holding the resumable learner session.
type SessionRepo interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, overwriting.
	Set(ctx context.Context, key, value string) error

	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Keys returns all keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
