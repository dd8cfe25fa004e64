// Package seats manages companies, their access codes and the seat
// allowance audit log.
package seats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/labinot-bajgora/ECK-safety/internal/store"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var (
	// ErrCompanyNotFound is returned when no company has the given id.
	ErrCompanyNotFound = errors.New("company not found")

	// ErrDuplicateCode is returned when an access code is already in use.
	ErrDuplicateCode = errors.New("access code already exists")

	// ErrNoCourse is returned when a company is created without a course
	// and the catalog is empty.
	ErrNoCourse = errors.New("no course available")

	// ErrInvalidSeatMode is returned for seat modes other than LIMITED/UNLIMITED.
	ErrInvalidSeatMode = errors.New("invalid seat mode")

	// ErrInvalidAllowance is returned when a seat allowance would go below zero.
	ErrInvalidAllowance = errors.New("seat allowance must not be negative")

	// ErrCourseNotFound is returned when a company is pointed at a course
	// that does not exist.
	ErrCourseNotFound = errors.New("course not found")
)

const (
	defaultCompanyName = "New Client"
	generatedCodeTries = 20
)

// NewCompany holds the optional fields for CreateCompany. Zero values
// take the defaults.
type NewCompany struct {
	Code          string
	CompanyName   string
	CourseID      string
	SeatMode      training.SeatMode
	SeatAllowance int
	ExpiresAt     time.Time
}

// SettingsChange is a partial update. Nil fields are left unchanged.
type SettingsChange struct {
	CompanyName   *string
	CourseID      *string
	SeatMode      *training.SeatMode
	SeatAllowance *int
	ExpiresAt     *time.Time
}

// Empty reports whether the change touches no field.
func (c SettingsChange) Empty() bool {
	return c.CompanyName == nil && c.CourseID == nil && c.SeatMode == nil &&
		c.SeatAllowance == nil && c.ExpiresAt == nil
}

// Ledger owns every mutation of companies and their seat allowances.
type Ledger struct {
	codes   store.AccessCodeRepo
	courses store.CourseRepo
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDs overrides the id generator used for companies and audit entries.
func WithIDs(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// WithLogger sets the ledger's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// NewLedger creates a Ledger over the given repositories.
func NewLedger(codes store.AccessCodeRepo, courses store.CourseRepo, opts ...Option) *Ledger {
	l := &Ledger{
		codes:   codes,
		courses: courses,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// CreateCompany creates a company and its access code with a single
// INITIAL audit entry.
func (l *Ledger) CreateCompany(ctx context.Context, in NewCompany) (*training.AccessCode, error) {
	now := l.now()

	mode := in.SeatMode
	if mode == "" {
		mode = training.SeatModeUnlimited
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("create company: %w: %q", ErrInvalidSeatMode, mode)
	}
	allowance := in.SeatAllowance
	if allowance <= 0 {
		allowance = training.DefaultAllowance
	}
	name := strings.TrimSpace(in.CompanyName)
	if name == "" {
		name = defaultCompanyName
	}
	expires := in.ExpiresAt
	if expires.IsZero() {
		expires = now.Add(training.DefaultExpiry)
	}

	courseID := strings.TrimSpace(in.CourseID)
	if courseID != "" {
		if err := l.checkCourse(ctx, courseID); err != nil {
			return nil, fmt.Errorf("create company: %w", err)
		}
	} else {
		list, err := l.courses.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list courses: %w", err)
		}
		if len(list) == 0 {
			return nil, ErrNoCourse
		}
		courseID = list[0].ID
	}

	initial := training.SeatAuditEntry{
		ID:        l.newID(),
		Type:      training.AuditInitial,
		Mode:      mode,
		Timestamp: now,
	}
	if mode == training.SeatModeLimited {
		initial.Amount = training.IntPtr(allowance)
	}

	ac := &training.AccessCode{
		ID:            l.newID(),
		CompanyName:   name,
		CourseID:      courseID,
		SeatMode:      mode,
		SeatAllowance: allowance,
		ExpiresAt:     expires,
		CreatedAt:     now,
		AuditLog:      []training.SeatAuditEntry{initial},
	}

	if code := training.NormalizeCode(in.Code); code != "" {
		ac.Code = code
		if err := l.codes.Create(ctx, ac); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return nil, fmt.Errorf("create company %s: %w", code, ErrDuplicateCode)
			}
			return nil, fmt.Errorf("create company: %w", err)
		}
		l.logger.Info("company created", "code", ac.Code, "mode", mode, "allowance", allowance)
		return ac, nil
	}

	for i := 0; i < generatedCodeTries; i++ {
		ac.Code = fmt.Sprintf("CODE%d", rand.IntN(1000))
		err := l.codes.Create(ctx, ac)
		if err == nil {
			l.logger.Info("company created", "code", ac.Code, "mode", mode, "allowance", allowance)
			return ac, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("create company: %w", err)
		}
	}
	return nil, fmt.Errorf("create company: %w: generated codes exhausted", ErrDuplicateCode)
}

// UpdateSettings applies a partial change and records at most one audit
// entry for it.
func (l *Ledger) UpdateSettings(ctx context.Context, id string, change SettingsChange) (*training.AccessCode, error) {
	if change.SeatMode != nil && !change.SeatMode.Valid() {
		return nil, fmt.Errorf("update settings: %w: %q", ErrInvalidSeatMode, *change.SeatMode)
	}
	if change.SeatAllowance != nil && *change.SeatAllowance < 0 {
		return nil, fmt.Errorf("update settings: %w: %d", ErrInvalidAllowance, *change.SeatAllowance)
	}
	if change.CourseID != nil {
		if err := l.checkCourse(ctx, *change.CourseID); err != nil {
			return nil, fmt.Errorf("update settings: %w", err)
		}
	}

	ac, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, entry := ApplySettings(*ac, change, l.now(), l.newID)
	if err := l.codes.Update(ctx, &updated); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("update settings: %w", err)
	}
	if entry != nil {
		l.logger.Info("seat allowance changed", "code", updated.Code, "type", entry.Type,
			"mode", updated.SeatMode, "allowance", updated.SeatAllowance)
	}
	return &updated, nil
}

func (l *Ledger) checkCourse(ctx context.Context, id string) error {
	if _, err := l.courses.Get(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrCourseNotFound, id)
		}
		return fmt.Errorf("get course: %w", err)
	}
	return nil
}

// TopUp changes a company's allowance by delta, which may be negative.
func (l *Ledger) TopUp(ctx context.Context, id string, delta int) (*training.AccessCode, error) {
	ac, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowance := ac.SeatAllowance + delta
	if allowance < 0 {
		allowance = 0
	}
	return l.UpdateSettings(ctx, id, SettingsChange{SeatAllowance: &allowance})
}

// DeleteCompany removes the company together with its results and
// idempotency markers, returning how many results were removed.
func (l *Ledger) DeleteCompany(ctx context.Context, id string) (int, error) {
	removed, err := l.codes.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrCompanyNotFound
		}
		return 0, fmt.Errorf("delete company: %w", err)
	}
	l.logger.Info("company deleted", "id", id, "results_removed", removed)
	return removed, nil
}

// Get returns the company with id.
func (l *Ledger) Get(ctx context.Context, id string) (*training.AccessCode, error) {
	ac, err := l.codes.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return ac, nil
}

// FindByCode returns the company owning code, matched case-insensitively.
func (l *Ledger) FindByCode(ctx context.Context, code string) (*training.AccessCode, error) {
	ac, err := l.codes.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	return ac, nil
}

// Resolve accepts either a company id or an access code.
func (l *Ledger) Resolve(ctx context.Context, idOrCode string) (*training.AccessCode, error) {
	ac, err := l.Get(ctx, idOrCode)
	if err == nil || !errors.Is(err, ErrCompanyNotFound) {
		return ac, err
	}
	return l.FindByCode(ctx, idOrCode)
}

// List returns companies newest first, optionally filtered by a search
// over code and company name.
func (l *Ledger) List(ctx context.Context, search string) ([]training.AccessCode, error) {
	all, err := l.codes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return all, nil
	}
	var out []training.AccessCode
	for _, ac := range all {
		if strings.Contains(strings.ToLower(ac.Code), search) ||
			strings.Contains(strings.ToLower(ac.CompanyName), search) {
			out = append(out, ac)
		}
	}
	return out, nil
}

// ApplySettings returns ac with change applied and the audit entry the
// change produced, if any. A seat mode change always wins over an
// allowance change; an allowance change alone is recorded as a TOPUP with
// the signed delta. The audit log stays newest first and capped.
func ApplySettings(ac training.AccessCode, change SettingsChange, now time.Time, newID func() string) (training.AccessCode, *training.SeatAuditEntry) {
	var entry *training.SeatAuditEntry

	switch {
	case change.SeatMode != nil && *change.SeatMode != ac.SeatMode:
		amount := ac.SeatAllowance
		if change.SeatAllowance != nil {
			amount = *change.SeatAllowance
		}
		entry = &training.SeatAuditEntry{
			ID:        newID(),
			Type:      training.AuditModeChange,
			Mode:      *change.SeatMode,
			Amount:    training.IntPtr(amount),
			Timestamp: now,
		}
	case change.SeatAllowance != nil && *change.SeatAllowance != ac.SeatAllowance:
		entry = &training.SeatAuditEntry{
			ID:         newID(),
			Type:       training.AuditTopUp,
			Amount:     training.IntPtr(*change.SeatAllowance - ac.SeatAllowance),
			TotalLimit: training.IntPtr(*change.SeatAllowance),
			Timestamp:  now,
		}
	}

	if change.CompanyName != nil {
		ac.CompanyName = *change.CompanyName
	}
	if change.CourseID != nil {
		ac.CourseID = *change.CourseID
	}
	if change.SeatMode != nil {
		ac.SeatMode = *change.SeatMode
	}
	if change.SeatAllowance != nil {
		ac.SeatAllowance = *change.SeatAllowance
	}
	if change.ExpiresAt != nil {
		ac.ExpiresAt = *change.ExpiresAt
	}

	if entry != nil {
		log := make([]training.SeatAuditEntry, 0, len(ac.AuditLog)+1)
		log = append(log, *entry)
		log = append(log, ac.AuditLog...)
		if len(log) > training.AuditLogCap {
			log = log[:training.AuditLogCap]
		}
		ac.AuditLog = log
	}
	return ac, entry
}
