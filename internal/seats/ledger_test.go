package seats

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labinot-bajgora/ECK-safety/internal/store"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var now = time.Date(2026, 4, 2, 8, 30, 0, 0, time.UTC)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestLedger(t *testing.T) (*Ledger, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	require.NoError(t, m.Courses().Upsert(context.Background(), &training.Course{
		ID: "safety-general", Title: "SSHP", IsActive: true, CreatedAt: now.Add(-time.Hour),
	}))
	require.NoError(t, m.Courses().Upsert(context.Background(), &training.Course{
		ID: "fire", Title: "Fire", IsActive: true, CreatedAt: now,
	}))
	l := NewLedger(m.AccessCodes(), m.Courses(), WithClock(func() time.Time { return now }), WithIDs(seqIDs()))
	return l, m
}

func TestCreateCompanyDefaults(t *testing.T) {
	l, _ := newTestLedger(t)

	ac, err := l.CreateCompany(context.Background(), NewCompany{})
	require.NoError(t, err)

	assert.Equal(t, "New Client", ac.CompanyName)
	assert.Equal(t, training.SeatModeUnlimited, ac.SeatMode)
	assert.Equal(t, training.DefaultAllowance, ac.SeatAllowance)
	assert.Equal(t, "safety-general", ac.CourseID)
	assert.Equal(t, now.Add(30*24*time.Hour), ac.ExpiresAt)
	assert.True(t, strings.HasPrefix(ac.Code, "CODE"), "generated code %q", ac.Code)
	assert.Zero(t, ac.SeatsUsed)

	require.Len(t, ac.AuditLog, 1)
	assert.Equal(t, training.AuditInitial, ac.AuditLog[0].Type)
	assert.Equal(t, training.SeatModeUnlimited, ac.AuditLog[0].Mode)
	assert.Nil(t, ac.AuditLog[0].Amount, "unlimited INITIAL carries no amount")
}

func TestCreateCompanyLimited(t *testing.T) {
	l, m := newTestLedger(t)

	ac, err := l.CreateCompany(context.Background(), NewCompany{
		Code: "peja", CompanyName: "Peja Brewery", SeatMode: training.SeatModeLimited, SeatAllowance: 3, CourseID: "fire",
	})
	require.NoError(t, err)
	assert.Equal(t, "PEJA", ac.Code)
	require.NotNil(t, ac.AuditLog[0].Amount)
	assert.Equal(t, 3, *ac.AuditLog[0].Amount)

	stored, err := m.AccessCodes().FindByCode(context.Background(), "Peja")
	require.NoError(t, err)
	assert.Equal(t, "fire", stored.CourseID)

	_, err = l.CreateCompany(context.Background(), NewCompany{Code: "PEJA"})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCreateCompanyWithoutCourses(t *testing.T) {
	m := store.NewMemory()
	l := NewLedger(m.AccessCodes(), m.Courses())
	_, err := l.CreateCompany(context.Background(), NewCompany{Code: "X"})
	assert.ErrorIs(t, err, ErrNoCourse)
}

func TestCreateCompanyRejectsUnknownMode(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.CreateCompany(context.Background(), NewCompany{SeatMode: "METERED"})
	assert.ErrorIs(t, err, ErrInvalidSeatMode)
}

func modePtr(m training.SeatMode) *training.SeatMode { return &m }

func TestApplySettings(t *testing.T) {
	base := training.AccessCode{
		Code: "PRISTINA", SeatMode: training.SeatModeLimited, SeatAllowance: 5,
		AuditLog: []training.SeatAuditEntry{{ID: "old", Type: training.AuditInitial}},
	}

	tests := []struct {
		name       string
		change     SettingsChange
		wantType   training.AuditType
		wantAmount *int
		wantTotal  *int
		wantMode   training.SeatMode
	}{
		{
			name:       "allowance increase is a topup",
			change:     SettingsChange{SeatAllowance: training.IntPtr(10)},
			wantType:   training.AuditTopUp,
			wantAmount: training.IntPtr(5),
			wantTotal:  training.IntPtr(10),
		},
		{
			name:       "allowance decrease is a negative topup",
			change:     SettingsChange{SeatAllowance: training.IntPtr(2)},
			wantType:   training.AuditTopUp,
			wantAmount: training.IntPtr(-3),
			wantTotal:  training.IntPtr(2),
		},
		{
			name:       "mode change wins over allowance change",
			change:     SettingsChange{SeatMode: modePtr(training.SeatModeUnlimited), SeatAllowance: training.IntPtr(8)},
			wantType:   training.AuditModeChange,
			wantAmount: training.IntPtr(8),
			wantMode:   training.SeatModeUnlimited,
		},
		{
			name:       "mode change alone records current allowance",
			change:     SettingsChange{SeatMode: modePtr(training.SeatModeUnlimited)},
			wantType:   training.AuditModeChange,
			wantAmount: training.IntPtr(5),
			wantMode:   training.SeatModeUnlimited,
		},
		{
			name:   "same mode and allowance logs nothing",
			change: SettingsChange{SeatMode: modePtr(training.SeatModeLimited), SeatAllowance: training.IntPtr(5)},
		},
		{
			name:   "name change logs nothing",
			change: SettingsChange{CompanyName: strPtr("Renamed")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, entry := ApplySettings(base, tt.change, now, func() string { return "new" })
			if tt.wantType == "" {
				assert.Nil(t, entry)
				assert.Len(t, got.AuditLog, 1)
				return
			}
			require.NotNil(t, entry)
			assert.Equal(t, tt.wantType, entry.Type)
			assert.Equal(t, tt.wantAmount, entry.Amount)
			assert.Equal(t, tt.wantTotal, entry.TotalLimit)
			assert.Equal(t, tt.wantMode, entry.Mode)
			assert.Equal(t, now, entry.Timestamp)

			require.Len(t, got.AuditLog, 2)
			assert.Equal(t, "new", got.AuditLog[0].ID, "newest first")
			assert.Equal(t, "old", got.AuditLog[1].ID)
		})
	}

	// The input must not be mutated.
	assert.Len(t, base.AuditLog, 1)
	assert.Equal(t, 5, base.SeatAllowance)
}

func strPtr(s string) *string { return &s }

func TestApplySettingsUnlimitedToLimited(t *testing.T) {
	base := training.AccessCode{
		Code: "START2025", SeatMode: training.SeatModeUnlimited, SeatAllowance: 5,
		AuditLog: []training.SeatAuditEntry{{ID: "old", Type: training.AuditInitial}},
	}

	tests := []struct {
		name       string
		change     SettingsChange
		wantAmount int
	}{
		{"mode only", SettingsChange{SeatMode: modePtr(training.SeatModeLimited)}, 5},
		{"mode with allowance", SettingsChange{SeatMode: modePtr(training.SeatModeLimited), SeatAllowance: training.IntPtr(12)}, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, entry := ApplySettings(base, tt.change, now, func() string { return "new" })
			require.NotNil(t, entry)
			assert.Equal(t, training.AuditModeChange, entry.Type)
			assert.Equal(t, training.SeatModeLimited, entry.Mode)
			require.NotNil(t, entry.Amount)
			assert.Equal(t, tt.wantAmount, *entry.Amount)

			assert.Equal(t, training.SeatModeLimited, got.SeatMode)
			require.Len(t, got.AuditLog, 2, "exactly one entry appended")
			assert.Equal(t, training.AuditModeChange, got.AuditLog[0].Type)
		})
	}
}

func TestApplySettingsCapsAuditLog(t *testing.T) {
	ac := training.AccessCode{SeatMode: training.SeatModeLimited, SeatAllowance: 1}
	for i := 0; i < 60; i++ {
		ac, _ = ApplySettings(ac, SettingsChange{SeatAllowance: training.IntPtr(ac.SeatAllowance + 1)}, now,
			func() string { return fmt.Sprintf("e%d", i) })
	}
	assert.Len(t, ac.AuditLog, training.AuditLogCap)
	assert.Equal(t, "e59", ac.AuditLog[0].ID)
	assert.Equal(t, 61, ac.SeatAllowance)
}

func TestUpdateSettingsAndTopUp(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	ac, err := l.CreateCompany(ctx, NewCompany{Code: "PRISTINA", SeatMode: training.SeatModeLimited, SeatAllowance: 5})
	require.NoError(t, err)

	ac, err = l.TopUp(ctx, ac.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, ac.SeatAllowance)
	require.Len(t, ac.AuditLog, 2)
	assert.Equal(t, training.AuditTopUp, ac.AuditLog[0].Type)
	assert.Equal(t, 3, *ac.AuditLog[0].Amount)
	assert.Equal(t, 8, *ac.AuditLog[0].TotalLimit)

	expires := now.Add(90 * 24 * time.Hour)
	ac, err = l.UpdateSettings(ctx, ac.ID, SettingsChange{ExpiresAt: &expires, CompanyName: strPtr("Pristina Logistics")})
	require.NoError(t, err)
	assert.Equal(t, expires, ac.ExpiresAt)
	assert.Len(t, ac.AuditLog, 2)

	stored, err := l.Get(ctx, ac.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pristina Logistics", stored.CompanyName)

	_, err = l.UpdateSettings(ctx, "missing", SettingsChange{CompanyName: strPtr("x")})
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestUpdateSettingsRejectsNegativeAllowance(t *testing.T) {
	tests := []struct {
		name   string
		change SettingsChange
	}{
		{"negative allowance", SettingsChange{SeatAllowance: training.IntPtr(-3)}},
		{"negative allowance with mode change", SettingsChange{SeatMode: modePtr(training.SeatModeUnlimited), SeatAllowance: training.IntPtr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newTestLedger(t)
			ctx := context.Background()
			ac, err := l.CreateCompany(ctx, NewCompany{Code: "PEJA", SeatMode: training.SeatModeLimited, SeatAllowance: 5})
			require.NoError(t, err)

			_, err = l.UpdateSettings(ctx, ac.ID, tt.change)
			assert.ErrorIs(t, err, ErrInvalidAllowance)

			stored, err := l.Get(ctx, ac.ID)
			require.NoError(t, err)
			assert.Equal(t, 5, stored.SeatAllowance)
			assert.Equal(t, training.SeatModeLimited, stored.SeatMode)
			assert.Len(t, stored.AuditLog, 1)
		})
	}

	t.Run("zero is allowed", func(t *testing.T) {
		l, _ := newTestLedger(t)
		ctx := context.Background()
		ac, err := l.CreateCompany(ctx, NewCompany{Code: "PEJA", SeatMode: training.SeatModeLimited, SeatAllowance: 5})
		require.NoError(t, err)

		ac, err = l.UpdateSettings(ctx, ac.ID, SettingsChange{SeatAllowance: training.IntPtr(0)})
		require.NoError(t, err)
		assert.Zero(t, ac.SeatAllowance)
	})
}

func TestUnknownCourseIsRejected(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := l.CreateCompany(ctx, NewCompany{Code: "PEJA", CourseID: "does-not-exist"})
	assert.ErrorIs(t, err, ErrCourseNotFound)

	ac, err := l.CreateCompany(ctx, NewCompany{Code: "PEJA"})
	require.NoError(t, err)

	_, err = l.UpdateSettings(ctx, ac.ID, SettingsChange{CourseID: strPtr("does-not-exist")})
	assert.ErrorIs(t, err, ErrCourseNotFound)

	ac, err = l.UpdateSettings(ctx, ac.ID, SettingsChange{CourseID: strPtr("fire")})
	require.NoError(t, err)
	assert.Equal(t, "fire", ac.CourseID)

	stored, err := l.Get(ctx, ac.ID)
	require.NoError(t, err)
	assert.Equal(t, "fire", stored.CourseID)
}

func TestDeleteCompanyCascades(t *testing.T) {
	l, m := newTestLedger(t)
	ctx := context.Background()

	ac, err := l.CreateCompany(ctx, NewCompany{Code: "GJAKOVA"})
	require.NoError(t, err)
	require.NoError(t, m.Results().Append(ctx, &training.TestResult{
		CompletionID: "SH-1", Learner: training.LearnerData{AccessCode: "gjakova"}, CompletedAt: now,
	}))
	require.NoError(t, m.Results().Append(ctx, &training.TestResult{
		CompletionID: "SH-2", Learner: training.LearnerData{AccessCode: "OTHER"}, CompletedAt: now,
	}))

	removed, err := l.DeleteCompany(ctx, ac.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = l.Get(ctx, ac.ID)
	assert.ErrorIs(t, err, ErrCompanyNotFound)

	left, _ := m.Results().List(ctx)
	require.Len(t, left, 1)
	assert.Equal(t, "SH-2", left[0].CompletionID)

	_, err = l.DeleteCompany(ctx, ac.ID)
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestListAndResolve(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	a, err := l.CreateCompany(ctx, NewCompany{Code: "PEJA", CompanyName: "Peja Brewery"})
	require.NoError(t, err)
	_, err = l.CreateCompany(ctx, NewCompany{Code: "START2025", CompanyName: "ECK Training Partners"})
	require.NoError(t, err)

	all, err := l.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := l.List(ctx, "brew")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "PEJA", found[0].Code)

	byCode, err := l.Resolve(ctx, "peja")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byCode.ID)

	byID, err := l.Resolve(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "PEJA", byID.Code)

	_, err = l.Resolve(ctx, "nothing")
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestInvite(t *testing.T) {
	assert.Equal(t, "https://train.example.com/?code=PEJA", InviteLink("https://train.example.com/", "peja"))

	ac := &training.AccessCode{
		Code: "PEJA", CompanyName: "Peja Brewery", SeatMode: training.SeatModeLimited,
		SeatAllowance: 3, SeatsUsed: 1, ExpiresAt: now,
	}
	msg := InviteMessage("https://train.example.com", ac, "SSHP")
	assert.Contains(t, msg, "Hello Peja Brewery team")
	assert.Contains(t, msg, "https://train.example.com/?code=PEJA")
	assert.Contains(t, msg, "Seats remaining: 2 of 3")
	assert.Contains(t, msg, "Valid until: 2026-04-02")
}
