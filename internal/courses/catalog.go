// Package courses manages training content: upserts, activation,
// validation, import/export and the built-in default course.
package courses

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	"github.com/labinot-bajgora/ECK-safety/internal/store"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var (
	// ErrCourseNotFound is returned when no course has the given id.
	ErrCourseNotFound = errors.New("course not found")

	// ErrOlderVersion is returned when an import would replace a stored
	// course with an older version.
	ErrOlderVersion = errors.New("course version is older than the stored one")
)

//go:embed seed/safety-general.json
var seedCourse []byte

// DefaultCourseID is the id of the built-in course.
const DefaultCourseID = "safety-general"

// Catalog is the course store with validation on the way in.
type Catalog struct {
	repo   store.CourseRepo
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock overrides the time source for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// WithLogger sets the catalog's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// NewCatalog creates a Catalog over repo.
func NewCatalog(repo store.CourseRepo, opts ...Option) *Catalog {
	c := &Catalog{repo: repo, now: time.Now, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SaveCourse validates and upserts a course. The original creation time
// of an existing course is kept.
func (c *Catalog) SaveCourse(ctx context.Context, course *training.Course) error {
	if err := Validate(course); err != nil {
		return err
	}

	existing, err := c.repo.Get(ctx, course.ID)
	switch {
	case err == nil:
		course.CreatedAt = existing.CreatedAt
	case errors.Is(err, store.ErrNotFound):
		if course.CreatedAt.IsZero() {
			course.CreatedAt = c.now()
		}
	default:
		return fmt.Errorf("load course: %w", err)
	}

	if err := c.repo.Upsert(ctx, course); err != nil {
		return fmt.Errorf("save course: %w", err)
	}
	c.logger.Info("course saved", "id", course.ID, "version", course.Version, "active", course.IsActive)
	return nil
}

// SetActive toggles whether learners can start the course.
func (c *Catalog) SetActive(ctx context.Context, id string, active bool) error {
	course, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	if active && len(course.Questions) == 0 {
		return &ValidationError{CourseID: id, Problems: []string{"an active course needs at least one question"}}
	}
	if err := c.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("set course active: %w", err)
	}
	c.logger.Info("course availability changed", "id", id, "active", active)
	return nil
}

// Get returns the course with id.
func (c *Catalog) Get(ctx context.Context, id string) (*training.Course, error) {
	course, err := c.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return course, nil
}

// List returns all courses in creation order.
func (c *Catalog) List(ctx context.Context) ([]training.Course, error) {
	list, err := c.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return list, nil
}

// NewDraft returns an unsaved course skeleton. Drafts start inactive
// because a course needs questions before learners may take it.
func (c *Catalog) NewDraft() *training.Course {
	return &training.Course{
		ID:            "course-" + uuid.NewString()[:5],
		Title:         "New Training Name",
		Version:       "v0.1.0",
		IntroText:     "Training introduction goes here...",
		VideoChapters: []training.VideoChapter{{Title: "Intro", StartTime: 0}},
		Checkpoints:   []training.Checkpoint{},
		Questions:     []training.Question{},
		CreatedAt:     c.now(),
	}
}

// Import reads a course document from r and saves it. Unless force is
// set, a document whose version is older than the stored course's is
// rejected with ErrOlderVersion.
func (c *Catalog) Import(ctx context.Context, r io.Reader, force bool) (*training.Course, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read course document: %w", err)
	}
	if err := ValidateDocument(raw); err != nil {
		return nil, err
	}
	var course training.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		return nil, fmt.Errorf("decode course document: %w", err)
	}

	existing, err := c.repo.Get(ctx, course.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if existing != nil && !force && IsOlder(course.Version, existing.Version) {
		return nil, fmt.Errorf("import %s %s (stored %s): %w",
			course.ID, course.Version, existing.Version, ErrOlderVersion)
	}

	if err := c.SaveCourse(ctx, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Export writes the course as an indented JSON document.
func (c *Catalog) Export(ctx context.Context, id string, w io.Writer) error {
	course, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(course); err != nil {
		return fmt.Errorf("encode course: %w", err)
	}
	return nil
}

// Seed installs the built-in course when the catalog is empty. It reports
// whether anything was installed.
func (c *Catalog) Seed(ctx context.Context) (bool, error) {
	list, err := c.List(ctx)
	if err != nil {
		return false, err
	}
	if len(list) > 0 {
		return false, nil
	}
	course, err := DefaultCourse()
	if err != nil {
		return false, err
	}
	if err := c.SaveCourse(ctx, course); err != nil {
		return false, fmt.Errorf("seed course: %w", err)
	}
	return true, nil
}

// DefaultCourse returns a fresh copy of the built-in course.
func DefaultCourse() (*training.Course, error) {
	var course training.Course
	if err := json.Unmarshal(seedCourse, &course); err != nil {
		return nil, fmt.Errorf("decode built-in course: %w", err)
	}
	return &course, nil
}

// IsOlder reports whether version a is strictly older than b. Missing or
// invalid versions never count as older.
func IsOlder(a, b string) bool {
	a, b = CanonicalVersion(a), CanonicalVersion(b)
	if !semver.IsValid(a) || !semver.IsValid(b) {
		return false
	}
	return semver.Compare(a, b) < 0
}
