package training

import (
	"strings"
	"time"
)

const (
	// PassMark is the minimum score (inclusive) that counts as a pass.
	PassMark = 80

	// MaxAttempts is the number of quiz attempts a learner gets before the
	// result is finalized regardless of score.
	MaxAttempts = 2

	// AuditLogCap bounds the per-company seat audit log.
	AuditLogCap = 50

	// DefaultAllowance is the seat allowance given to new companies.
	DefaultAllowance = 5

	// DefaultExpiry is how long a freshly created access code stays valid.
	DefaultExpiry = 30 * 24 * time.Hour

	// DefaultVideoDuration is used when a course does not declare the
	// length of its video, in seconds.
	DefaultVideoDuration = 110
)

// SeatMode controls whether an access code draws from a finite allowance.
type SeatMode string

const (
	SeatModeUnlimited SeatMode = "UNLIMITED"
	SeatModeLimited   SeatMode = "LIMITED"
)

// Valid reports whether m is a known seat mode.
func (m SeatMode) Valid() bool {
	return m == SeatModeUnlimited || m == SeatModeLimited
}

// ParseSeatMode parses a seat mode case-insensitively.
func ParseSeatMode(s string) (SeatMode, bool) {
	m := SeatMode(strings.ToUpper(strings.TrimSpace(s)))
	return m, m.Valid()
}

// AuditType identifies the kind of allowance change an audit entry records.
type AuditType string

const (
	AuditInitial    AuditType = "INITIAL"
	AuditTopUp      AuditType = "TOPUP"
	AuditModeChange AuditType = "MODE_CHANGE"
)

// SeatAuditEntry is an immutable log line describing a change to a
// company's seat mode or allowance.
type SeatAuditEntry struct {
	ID         string    `json:"id"`
	Type       AuditType `json:"type"`
	Amount     *int      `json:"amount,omitempty"`
	TotalLimit *int      `json:"totalLimit,omitempty"`
	Mode       SeatMode  `json:"mode,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// AccessCode is a company's training grant.
type AccessCode struct {
	ID            string           `json:"id"`
	Code          string           `json:"code"`
	CompanyName   string           `json:"companyName"`
	CourseID      string           `json:"courseId"`
	SeatMode      SeatMode         `json:"seatMode"`
	SeatAllowance int              `json:"seatAllowance"`
	SeatsUsed     int              `json:"seatsUsed"`
	ExpiresAt     time.Time        `json:"expiresAt"`
	CreatedAt     time.Time        `json:"createdAt"`
	AuditLog      []SeatAuditEntry `json:"auditLog"`
}

// Expired reports whether the code's expiry lies before now.
func (c *AccessCode) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

// SeatsRemaining returns the seats left on a LIMITED code, or -1 for
// UNLIMITED codes.
func (c *AccessCode) SeatsRemaining() int {
	if c.SeatMode != SeatModeLimited {
		return -1
	}
	left := c.SeatAllowance - c.SeatsUsed
	if left < 0 {
		return 0
	}
	return left
}

// NormalizeCode canonicalizes an access code for storage and comparison.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SameCode compares two access codes case-insensitively.
func SameCode(a, b string) bool {
	return NormalizeCode(a) == NormalizeCode(b)
}

// LearnerData is the identity a learner provides when redeeming a code.
type LearnerData struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	CompanyName string `json:"companyName"`
	JobPosition string `json:"jobPosition,omitempty"`
	AccessCode  string `json:"accessCode"`
}

// FullName joins first and last name.
func (l LearnerData) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// TestResult is the immutable record of a finished attempt sequence.
type TestResult struct {
	ID                   string      `json:"id"`
	CompletionID         string      `json:"completionId"`
	Learner              LearnerData `json:"learner"`
	CourseName           string      `json:"courseName"`
	Score                int         `json:"score"`
	Passed               bool        `json:"passed"`
	Attempts             int         `json:"attempts"`
	CompletedAt          time.Time   `json:"completedAt"`
	SeatConsumed         bool        `json:"seatConsumed"`
	SeatModeAtCompletion SeatMode    `json:"seatModeAtCompletion"`
}

// Passed reports whether score meets the pass mark.
func Passed(score int) bool {
	return score >= PassMark
}

// IntPtr returns a pointer to v, for optional audit fields.
func IntPtr(v int) *int {
	return &v
}
