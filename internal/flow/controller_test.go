package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labinot-bajgora/ECK-safety/internal/access"
	"github.com/labinot-bajgora/ECK-safety/internal/results"
	"github.com/labinot-bajgora/ECK-safety/internal/store"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	mem  *store.Memory
	ctrl *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()

	course := quizCourse()
	course.ID = "safety-general"
	course.Title = "General Safety"
	course.IsActive = true
	require.NoError(t, mem.Courses().Upsert(ctx, course))

	for _, ac := range []training.AccessCode{
		{ID: "1", Code: "PEJA", CompanyName: "Peja Works", CourseID: course.ID, SeatMode: training.SeatModeLimited, SeatAllowance: 3, ExpiresAt: now.Add(24 * time.Hour)},
		{ID: "2", Code: "GJAKOVA", CompanyName: "Gjakova Co", CourseID: course.ID, SeatMode: training.SeatModeUnlimited, ExpiresAt: now.Add(-time.Hour)},
	} {
		require.NoError(t, mem.AccessCodes().Create(ctx, &ac))
	}

	clock := func() time.Time { return now }
	return &harness{
		mem:  mem,
		ctrl: newController(mem, clock),
	}
}

func newController(mem *store.Memory, clock func() time.Time) *Controller {
	return NewController(
		access.NewValidator(mem.AccessCodes(), mem.Courses(), access.WithClock(clock)),
		results.NewRecorder(mem, results.WithClock(clock)),
		NewSession(mem.Sessions(), nil),
		WithAdminPIN("1234"),
	)
}

func (h *harness) enter(t *testing.T) {
	t.Helper()
	out, err := h.ctrl.Submit(context.Background(), EntryForm{FirstName: " Arta ", LastName: "Krasniqi", AccessCode: "peja"})
	require.NoError(t, err)
	require.True(t, out.Access.Valid)
}

func TestControllerSubmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.ctrl.Submit(ctx, EntryForm{AccessCode: "1234"})
	require.NoError(t, err)
	assert.True(t, out.Admin)

	_, err = h.ctrl.Submit(ctx, EntryForm{FirstName: "Arta", AccessCode: "PEJA"})
	assert.ErrorIs(t, err, ErrNameRequired)

	out, err = h.ctrl.Submit(ctx, EntryForm{FirstName: "A", LastName: "B", AccessCode: "gjakova"})
	require.NoError(t, err)
	assert.False(t, out.Access.Valid)
	assert.Equal(t, access.ReasonExpired, out.Access.Reason)
	assert.Equal(t, StepEntry, h.ctrl.State().Step)

	h.enter(t)
	st := h.ctrl.State()
	assert.Equal(t, StepIntro, st.Step)
	assert.Equal(t, "Arta", st.Learner.FirstName)
	assert.Equal(t, "Peja Works", st.Learner.CompanyName, "company comes from the code")
	assert.Equal(t, "PEJA", st.Learner.AccessCode)
	assert.Equal(t, "General Safety", h.ctrl.Course().Title)
}

func TestControllerPassConsumesSeat(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.enter(t)

	require.NoError(t, h.ctrl.ConfirmIntro(ctx))
	require.NoError(t, h.ctrl.CompleteVideo(ctx))

	q, err := h.ctrl.Quiz(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Select(0))
	require.NoError(t, h.ctrl.SaveQuiz(ctx, q))

	require.NoError(t, h.ctrl.SubmitQuiz(ctx, 100))
	assert.Equal(t, StepResult, h.ctrl.State().Step)

	r := h.ctrl.Receipt()
	require.NotNil(t, r)
	assert.True(t, r.Passed)
	assert.True(t, r.SeatConsumed)
	assert.NotEmpty(t, r.CompletionID)

	ac, err := h.mem.AccessCodes().FindByCode(ctx, "PEJA")
	require.NoError(t, err)
	assert.Equal(t, 1, ac.SeatsUsed)

	keys, err := h.mem.Sessions().Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys, "finalization clears the session")
}

func TestControllerFailTwice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.enter(t)
	require.NoError(t, h.ctrl.ConfirmIntro(ctx))
	require.NoError(t, h.ctrl.CompleteVideo(ctx))

	require.NoError(t, h.ctrl.SubmitQuiz(ctx, 40))
	st := h.ctrl.State()
	assert.True(t, st.RetryOffered)
	assert.Nil(t, h.ctrl.Receipt())

	require.NoError(t, h.ctrl.Retry(ctx))
	require.NoError(t, h.ctrl.SubmitQuiz(ctx, 60))

	r := h.ctrl.Receipt()
	require.NotNil(t, r)
	assert.False(t, r.Passed)
	assert.False(t, r.SeatConsumed)
	assert.Equal(t, 2, r.Result.Attempts)

	list, err := h.mem.Results().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestControllerResumesSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.enter(t)
	require.NoError(t, h.ctrl.ConfirmIntro(ctx))

	p, err := h.ctrl.Playback(ctx)
	require.NoError(t, err)
	p.Play()
	for range 4 {
		p.Tick()
	}
	require.NoError(t, h.ctrl.SaveVideo(ctx, p.Snapshot()))
	require.NoError(t, h.ctrl.MarkCheckpoint(ctx, 3))

	// A new controller over the same store picks up where the last left off.
	next := newController(h.mem, func() time.Time { return now })
	entry, err := next.Start(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, SourceSession, entry.Source)
	assert.Equal(t, StepVideo, next.State().Step)

	p, err = next.Playback(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Current())
	assert.Equal(t, []int{3}, p.Snapshot().Done)
}

func TestControllerInviteSkipsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.enter(t)

	next := newController(h.mem, func() time.Time { return now })
	entry, err := next.Start(ctx, "https://safety.example.com/invite/gjakova")
	require.NoError(t, err)
	assert.Equal(t, SourcePath, entry.Source)
	assert.Equal(t, "GJAKOVA", entry.Code)
	assert.Equal(t, StepEntry, next.State().Step)
}

func TestControllerDropsInvalidSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.enter(t)

	later := func() time.Time { return now.Add(48 * time.Hour) }
	next := newController(h.mem, later)
	entry, err := next.Start(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, SourceNone, entry.Source)
	assert.Equal(t, StepEntry, next.State().Step)

	keys, err := h.mem.Sessions().Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSessionDiscardsCorruptData(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	s := NewSession(mem.Sessions(), nil)

	require.NoError(t, mem.Sessions().Set(ctx, "learner", "{not json"))
	require.NoError(t, mem.Sessions().Set(ctx, "step", "VIDEO"))
	saved, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, saved)
	keys, _ := mem.Sessions().Keys(ctx, "")
	assert.Empty(t, keys)

	require.NoError(t, mem.Sessions().Set(ctx, "quiz/c/answers", "[[["))
	answers, idx, err := s.LoadQuiz(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, answers)
	assert.Equal(t, 0, idx)
}

func TestControllerReset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.enter(t)
	require.NoError(t, h.ctrl.Reset(ctx))
	assert.Equal(t, StepEntry, h.ctrl.State().Step)
	assert.Nil(t, h.ctrl.Course())

	_, err := h.ctrl.Quiz(ctx)
	assert.ErrorIs(t, err, ErrNoCourse)
}
