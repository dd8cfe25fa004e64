package learner

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/labinot-bajgora/ECK-safety/internal/access"
	"github.com/labinot-bajgora/ECK-safety/internal/flow"
	"github.com/labinot-bajgora/ECK-safety/internal/results"
	"github.com/labinot-bajgora/ECK-safety/internal/router"
	"github.com/labinot-bajgora/ECK-safety/internal/screen"
	"github.com/labinot-bajgora/ECK-safety/internal/store"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type adminStub struct{}

func (a *adminStub) Init() tea.Cmd                           { return nil }
func (a *adminStub) Update(tea.Msg) (screen.Screen, tea.Cmd) { return a, nil }
func (a *adminStub) View(int, int) string                    { return "admin" }
func (a *adminStub) Title() string                           { return "Admin" }

func testCourse() *training.Course {
	return &training.Course{
		ID:            "safety-general",
		Title:         "General Safety",
		IntroText:     "Stay safe on site.",
		VideoURL:      "https://cdn.example.com/safety.mp4",
		VideoDuration: 10,
		VideoChapters: []training.VideoChapter{{Title: "PPE", StartTime: 0}},
		Checkpoints: []training.Checkpoint{
			{Time: 3, Question: "Wear a helmet?", Options: []string{"Yes", "No"}, CorrectIndex: 0},
		},
		Questions: []training.Question{
			{ID: 1, Text: "Q1", Options: []string{"a", "b"}, CorrectIndex: 0},
			{ID: 2, Text: "Q2", Options: []string{"a", "b"}, CorrectIndex: 1},
		},
		IsActive: true,
	}
}

func newDeps(t *testing.T) (Deps, *store.Memory) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	if err := mem.Courses().Upsert(ctx, testCourse()); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	ac := &training.AccessCode{
		ID: "1", Code: "PEJA", CompanyName: "Peja Works", CourseID: "safety-general",
		SeatMode: training.SeatModeLimited, SeatAllowance: 3, ExpiresAt: now.Add(24 * time.Hour),
	}
	if err := mem.AccessCodes().Create(ctx, ac); err != nil {
		t.Fatalf("seed code: %v", err)
	}

	clock := func() time.Time { return now }
	ctrl := flow.NewController(
		access.NewValidator(mem.AccessCodes(), mem.Courses(), access.WithClock(clock)),
		results.NewRecorder(mem, results.WithClock(clock)),
		flow.NewSession(mem.Sessions(), nil),
		flow.WithAdminPIN("1234"),
	)
	return Deps{
		Flow:  ctrl,
		Admin: func() screen.Screen { return &adminStub{} },
	}, mem
}

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func enterKey() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyEnter}
}

// exec runs cmd and returns its message, or nil for a nil command.
func exec(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

// replaced runs cmd and returns the screen it swaps in.
func replaced(t *testing.T, cmd tea.Cmd) screen.Screen {
	t.Helper()
	msg, ok := exec(cmd).(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg")
	}
	return msg.Screen
}

func signIn(t *testing.T, d Deps) {
	t.Helper()
	_, err := d.Flow.Submit(context.Background(), flow.EntryForm{FirstName: "Arta", LastName: "Krasniqi", AccessCode: "PEJA"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestForStepStartsAtEntry(t *testing.T) {
	d, _ := newDeps(t)
	s := ForStep(d, "PEJA")
	entry, ok := s.(*EntryScreen)
	if !ok {
		t.Fatalf("expected EntryScreen, got %T", s)
	}
	if entry.Value(fieldCode) != "PEJA" {
		t.Errorf("expected prefilled code, got %q", entry.Value(fieldCode))
	}
	if entry.Focused() != fieldFirst {
		t.Errorf("prefilled form should focus first name, got field %d", entry.Focused())
	}
}

func TestEntryTabCyclesFields(t *testing.T) {
	d, _ := newDeps(t)
	s := NewEntry(d, "")
	for i := 1; i <= fieldCount; i++ {
		s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
		if want := i % fieldCount; s.Focused() != want {
			t.Errorf("after %d tabs expected field %d, got %d", i, want, s.Focused())
		}
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	if s.Focused() != fieldCount-1 {
		t.Errorf("shift+tab should wrap back, got field %d", s.Focused())
	}
}

func TestEntryAdminPINPushesConsole(t *testing.T) {
	d, _ := newDeps(t)
	s := NewEntry(d, "")
	s.SetValue(fieldCode, "1234")

	_, cmd := s.Update(enterKey())
	_, cmd = s.Update(exec(cmd))
	push, ok := exec(cmd).(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg for admin PIN")
	}
	if push.Screen.Title() != "Admin" {
		t.Errorf("expected admin screen, got %q", push.Screen.Title())
	}
	if s.Value(fieldCode) != "" {
		t.Error("admin PIN should be cleared from the form")
	}
}

func TestEntryRejectsUnknownCode(t *testing.T) {
	d, _ := newDeps(t)
	s := NewEntry(d, "")
	s.SetValue(fieldCode, "NOPE")
	s.SetValue(fieldFirst, "Arta")
	s.SetValue(fieldLast, "Krasniqi")

	_, cmd := s.Update(enterKey())
	_, cmd = s.Update(exec(cmd))
	if cmd != nil {
		t.Error("invalid code should not navigate")
	}
	if view := s.View(100, 30); !strings.Contains(view, access.ReasonNotFound.Message()) {
		t.Error("view should explain the rejection")
	}
}

func TestEntryRequiresNames(t *testing.T) {
	d, _ := newDeps(t)
	s := NewEntry(d, "PEJA")

	_, cmd := s.Update(enterKey())
	s.Update(exec(cmd))
	if view := s.View(100, 30); !strings.Contains(view, "First and last name are required.") {
		t.Error("view should ask for names")
	}
}

func TestEntryValidCodeMovesToIntro(t *testing.T) {
	d, _ := newDeps(t)
	s := NewEntry(d, "peja")
	s.SetValue(fieldFirst, "Arta")
	s.SetValue(fieldLast, "Krasniqi")

	_, cmd := s.Update(enterKey())
	_, cmd = s.Update(exec(cmd))
	if _, ok := replaced(t, cmd).(*IntroScreen); !ok {
		t.Error("expected IntroScreen after a valid code")
	}
	if d.Flow.State().Step != flow.StepIntro {
		t.Errorf("expected INTRO, got %s", d.Flow.State().Step)
	}
}

func TestIntroConfirmMovesToVideo(t *testing.T) {
	d, _ := newDeps(t)
	signIn(t, d)
	s := NewIntro(d)

	if view := s.View(100, 30); !strings.Contains(view, "General Safety") {
		t.Error("intro should show the course title")
	}
	_, cmd := s.Update(enterKey())
	_, cmd = s.Update(exec(cmd))
	if _, ok := replaced(t, cmd).(*VideoScreen); !ok {
		t.Error("expected VideoScreen")
	}
}

func TestIntroSignOut(t *testing.T) {
	d, _ := newDeps(t)
	signIn(t, d)
	s := NewIntro(d)

	_, cmd := s.Update(key('x'))
	_, cmd = s.Update(exec(cmd))
	msg, ok := exec(cmd).(router.ResetScreenMsg)
	if !ok {
		t.Fatal("expected ResetScreenMsg")
	}
	if _, ok := msg.Screen.(*EntryScreen); !ok {
		t.Errorf("expected EntryScreen, got %T", msg.Screen)
	}
	if d.Flow.State().Step != flow.StepEntry {
		t.Error("sign out should reset the flow")
	}
}

func loadVideo(t *testing.T, d Deps) *VideoScreen {
	t.Helper()
	if err := d.Flow.ConfirmIntro(context.Background()); err != nil {
		t.Fatalf("confirm intro: %v", err)
	}
	s := NewVideo(d)
	s.Update(exec(s.Init()))
	if s.Player() == nil {
		t.Fatal("video did not load")
	}
	return s
}

func TestVideoCheckpointPausesAndResumes(t *testing.T) {
	d, _ := newDeps(t)
	signIn(t, d)
	s := loadVideo(t, d)

	s.Update(key(' '))
	if !s.Player().Playing() {
		t.Fatal("space should start playback")
	}
	for i := 0; i < 3; i++ {
		s.Update(videoTickMsg{gen: s.gen})
	}
	if s.modal == nil {
		t.Fatal("checkpoint at 3s should open")
	}
	if s.Player().Playing() {
		t.Error("checkpoint should pause playback")
	}

	s.Update(key('b'))
	if !s.modal.Locked() {
		t.Fatal("answer should lock the checkpoint")
	}
	if !strings.Contains(s.View(100, 30), "Not quite") {
		t.Error("wrong answer should show feedback")
	}

	s.Update(checkpointResumeMsg{gen: s.gen})
	if s.modal != nil {
		t.Error("checkpoint should close after the delay")
	}
	if !s.Player().Playing() {
		t.Error("playback should resume")
	}
}

func TestVideoIgnoresStaleTicks(t *testing.T) {
	d, _ := newDeps(t)
	signIn(t, d)
	s := loadVideo(t, d)
	s.Update(key(' '))

	s.Update(videoTickMsg{gen: s.gen - 1})
	if s.Player().Current() != 0 {
		t.Errorf("stale tick moved the playhead to %d", s.Player().Current())
	}
}

func TestVideoSeekIsLimitedToWatched(t *testing.T) {
	d, _ := newDeps(t)
	signIn(t, d)
	s := loadVideo(t, d)
	s.Update(key(' '))
	s.Update(videoTickMsg{gen: s.gen})
	s.Update(videoTickMsg{gen: s.gen})

	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	if s.Player().Current() != 2 {
		t.Errorf("seek past watched should clamp to 2, got %d", s.Player().Current())
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	if s.Player().Current() != 0 {
		t.Errorf("seek back should clamp to 0, got %d", s.Player().Current())
	}
}

func TestVideoCompleteRequiresEnd(t *testing.T) {
	d, _ := newDeps(t)
	signIn(t, d)
	s := loadVideo(t, d)

	if _, cmd := s.Update(enterKey()); cmd != nil {
		t.Error("enter before the end should do nothing")
	}

	ctx := context.Background()
	if err := d.Flow.SaveVideo(ctx, flow.Progress{Time: 10, Max: 10}); err != nil {
		t.Fatalf("save video: %v", err)
	}
	if err := d.Flow.MarkCheckpoint(ctx, 3); err != nil {
		t.Fatalf("mark checkpoint: %v", err)
	}
	s = NewVideo(d)
	s.Update(exec(s.Init()))
	_, cmd := s.Update(enterKey())
	_, cmd = s.Update(exec(cmd))
	if _, ok := replaced(t, cmd).(*QuizScreen); !ok {
		t.Error("expected QuizScreen after the video")
	}
}

func TestVideoMissingSourceFails(t *testing.T) {
	d, mem := newDeps(t)
	c := testCourse()
	c.VideoURL = `{"720p":""}`
	if err := mem.Courses().Upsert(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	signIn(t, d)
	s := loadVideo(t, d)
	if s.Player().Err() == "" {
		t.Fatal("missing source should fail playback")
	}
	s.Update(key(' '))
	if s.Player().Playing() {
		t.Error("failed playback should not start")
	}
}

func loadQuiz(t *testing.T, d Deps) *QuizScreen {
	t.Helper()
	ctx := context.Background()
	if err := d.Flow.ConfirmIntro(ctx); err != nil {
		t.Fatal(err)
	}
	if err := d.Flow.CompleteVideo(ctx); err != nil {
		t.Fatal(err)
	}
	s := NewQuiz(d)
	s.Update(exec(s.Init()))
	if s.Quiz() == nil {
		t.Fatal("quiz did not load")
	}
	return s
}

// answer selects option r and presses Enter, returning the final command.
func answer(s *QuizScreen, r rune) tea.Cmd {
	s.Update(key(r))
	_, cmd := s.Update(enterKey())
	return cmd
}

func TestQuizPassReachesResult(t *testing.T) {
	d, mem := newDeps(t)
	signIn(t, d)
	s := loadQuiz(t, d)

	if cmd := answer(s, 'a'); exec(cmd) != nil {
		t.Error("moving to question 2 should only save progress")
	}
	_, cmd := s.Update(exec(answer(s, 'b')))
	res, ok := replaced(t, cmd).(*ResultScreen)
	if !ok {
		t.Fatal("expected ResultScreen")
	}

	view := res.View(100, 30)
	if !strings.Contains(view, "Training passed") {
		t.Error("result should show a pass")
	}
	receipt := d.Flow.Receipt()
	if receipt == nil || !strings.Contains(view, receipt.CompletionID) {
		t.Error("result should show the completion id")
	}

	ac, _ := mem.AccessCodes().FindByCode(context.Background(), "PEJA")
	if ac.SeatsUsed != 1 {
		t.Errorf("expected one seat used, got %d", ac.SeatsUsed)
	}
}

func TestQuizEnterNeedsSelection(t *testing.T) {
	d, _ := newDeps(t)
	signIn(t, d)
	s := loadQuiz(t, d)
	s.choice.Cursor = 0
	s.choice.Chosen = -1

	s.Update(enterKey())
	if s.Quiz().Index() != 0 {
		t.Fatalf("enter without an answer should not advance, at %d", s.Quiz().Index())
	}
	if _, ok := s.Quiz().Selected(); ok {
		t.Error("enter should not pick the highlighted option")
	}
	if !strings.Contains(s.View(100, 30), "Select an answer first.") {
		t.Error("view should ask for an answer")
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	if sel, ok := s.Quiz().Selected(); !ok || sel != 0 {
		t.Fatal("space should choose the highlighted option")
	}
	s.Update(enterKey())
	if s.Quiz().Index() != 1 {
		t.Errorf("enter should advance once answered, at %d", s.Quiz().Index())
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	if s.Quiz().Index() != 0 {
		t.Error("left should go back")
	}
	if sel, ok := s.Quiz().Selected(); !ok || sel != 0 {
		t.Error("going back keeps the previous answer")
	}
}

func TestQuizFailOffersRetryThenReview(t *testing.T) {
	d, _ := newDeps(t)
	signIn(t, d)
	s := loadQuiz(t, d)

	answer(s, 'b')
	_, cmd := s.Update(exec(answer(s, 'a')))
	if cmd != nil {
		t.Error("a failed first attempt should stay on the quiz")
	}
	if !strings.Contains(s.View(100, 30), "Not passed yet") {
		t.Error("retry offer should be shown")
	}

	_, cmd = s.Update(key('v'))
	_, cmd = s.Update(exec(cmd))
	if _, ok := replaced(t, cmd).(*VideoScreen); !ok {
		t.Error("review should return to the video")
	}
	if d.Flow.State().Attempts != 1 {
		t.Errorf("review keeps attempts, got %d", d.Flow.State().Attempts)
	}
}

func TestQuizSecondFailFinalizes(t *testing.T) {
	d, _ := newDeps(t)
	signIn(t, d)
	s := loadQuiz(t, d)

	answer(s, 'b')
	s.Update(exec(answer(s, 'a')))

	_, cmd := s.Update(key('r'))
	_, cmd = s.Update(exec(cmd))
	s.Update(exec(cmd))
	if s.Quiz().Index() != 0 {
		t.Fatal("retry should restart the quiz")
	}
	if _, ok := s.Quiz().Selected(); ok {
		t.Error("retry should clear answers")
	}

	answer(s, 'b')
	_, cmd = s.Update(exec(answer(s, 'a')))
	res, ok := replaced(t, cmd).(*ResultScreen)
	if !ok {
		t.Fatal("expected ResultScreen after the second attempt")
	}
	if !strings.Contains(res.View(100, 30), "Training not passed") {
		t.Error("result should show a fail")
	}
}

func TestResultFinishResets(t *testing.T) {
	d, _ := newDeps(t)
	signIn(t, d)
	ctx := context.Background()
	_ = d.Flow.ConfirmIntro(ctx)
	_ = d.Flow.CompleteVideo(ctx)
	if err := d.Flow.SubmitQuiz(ctx, 100); err != nil {
		t.Fatal(err)
	}

	s := NewResult(d)
	_, cmd := s.Update(enterKey())
	_, cmd = s.Update(exec(cmd))
	msg, ok := exec(cmd).(router.ResetScreenMsg)
	if !ok {
		t.Fatal("expected ResetScreenMsg")
	}
	if _, ok := msg.Screen.(*EntryScreen); !ok {
		t.Errorf("expected EntryScreen, got %T", msg.Screen)
	}
	if d.Flow.Receipt() != nil {
		t.Error("finish should clear the receipt")
	}
}
