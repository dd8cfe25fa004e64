package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/labinot-bajgora/ECK-safety/internal/store"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// Session keys.
const (
	keyLearner  = "learner"
	keyStep     = "step"
	keyCourse   = "course"
	keyAttempts = "attempts"
)

func quizAnswersKey(courseID string) string { return "quiz/" + courseID + "/answers" }
func quizIndexKey(courseID string) string   { return "quiz/" + courseID + "/index" }
func videoTimeKey(courseID string) string   { return "video/" + courseID + "/time" }
func videoMaxKey(courseID string) string    { return "video/" + courseID + "/max" }
func checkpointPrefix(courseID string) string {
	return "checkpoint/" + courseID + "/"
}

// SavedSession is a resumable learner session read back from storage.
type SavedSession struct {
	Learner  training.LearnerData
	Step     Step
	CourseID string
	Attempts int
}

// Session persists the resumable learner state in a key-value repo.
// Values that fail to decode are discarded rather than reported.
type Session struct {
	repo   store.SessionRepo
	logger *slog.Logger
}

// NewSession creates a Session over repo.
func NewSession(repo store.SessionRepo, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{repo: repo, logger: logger}
}

// Save writes learner identity, step, course and attempts.
func (s *Session) Save(ctx context.Context, st State) error {
	if st.Learner == nil {
		return nil
	}
	learner, err := json.Marshal(st.Learner)
	if err != nil {
		return fmt.Errorf("encode learner: %w", err)
	}
	for _, kv := range [][2]string{
		{keyLearner, string(learner)},
		{keyStep, string(st.Step)},
		{keyCourse, st.CourseID},
		{keyAttempts, strconv.Itoa(st.Attempts)},
	} {
		if err := s.repo.Set(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	return nil
}

// Load returns the saved session, or nil when there is none worth
// resuming. Corrupt or finished sessions are cleared.
func (s *Session) Load(ctx context.Context) (*SavedSession, error) {
	rawLearner, ok, err := s.repo.Get(ctx, keyLearner)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	rawStep, ok, err := s.repo.Get(ctx, keyStep)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, s.discard(ctx, "missing step")
	}

	var saved SavedSession
	if err := json.Unmarshal([]byte(rawLearner), &saved.Learner); err != nil {
		return nil, s.discard(ctx, "corrupt learner")
	}
	if strings.TrimSpace(saved.Learner.AccessCode) == "" {
		return nil, s.discard(ctx, "learner without access code")
	}
	saved.Step = Step(rawStep)
	if !saved.Step.Resumable() {
		return nil, s.discard(ctx, "step not resumable")
	}

	if v, ok, err := s.repo.Get(ctx, keyCourse); err == nil && ok {
		saved.CourseID = v
	}
	if v, ok, err := s.repo.Get(ctx, keyAttempts); err == nil && ok {
		if n, convErr := strconv.Atoi(v); convErr == nil && n >= 0 && n < training.MaxAttempts {
			saved.Attempts = n
		}
	}
	return &saved, nil
}

func (s *Session) discard(ctx context.Context, why string) error {
	s.logger.Warn("discarding saved session", "reason", why)
	return s.Clear(ctx)
}

// Clear removes every session key, including quiz and video progress.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.repo.DeletePrefix(ctx, ""); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SaveQuiz stores the answers and position of the quiz for courseID.
func (s *Session) SaveQuiz(ctx context.Context, courseID string, answers map[int]int, index int) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode quiz answers: %w", err)
	}
	if err := s.repo.Set(ctx, quizAnswersKey(courseID), string(raw)); err != nil {
		return fmt.Errorf("save quiz answers: %w", err)
	}
	if err := s.repo.Set(ctx, quizIndexKey(courseID), strconv.Itoa(index)); err != nil {
		return fmt.Errorf("save quiz index: %w", err)
	}
	return nil
}

// LoadQuiz returns saved quiz answers and position. Corrupt values come
// back empty.
func (s *Session) LoadQuiz(ctx context.Context, courseID string) (map[int]int, int, error) {
	answers := map[int]int{}
	raw, ok, err := s.repo.Get(ctx, quizAnswersKey(courseID))
	if err != nil {
		return nil, 0, fmt.Errorf("load quiz answers: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &answers); err != nil {
			s.logger.Warn("discarding saved quiz answers", "course", courseID, "error", err)
			answers = map[int]int{}
		}
	}
	index, _ := s.getInt(ctx, quizIndexKey(courseID))
	return answers, index, nil
}

// ClearQuiz drops saved quiz progress for courseID.
func (s *Session) ClearQuiz(ctx context.Context, courseID string) error {
	if err := s.repo.DeletePrefix(ctx, "quiz/"+courseID+"/"); err != nil {
		return fmt.Errorf("clear quiz progress: %w", err)
	}
	return nil
}

// SaveVideo stores playhead and furthest position for courseID.
func (s *Session) SaveVideo(ctx context.Context, courseID string, p Progress) error {
	if err := s.repo.Set(ctx, videoTimeKey(courseID), strconv.Itoa(p.Time)); err != nil {
		return fmt.Errorf("save video time: %w", err)
	}
	if err := s.repo.Set(ctx, videoMaxKey(courseID), strconv.Itoa(p.Max)); err != nil {
		return fmt.Errorf("save video max: %w", err)
	}
	return nil
}

// MarkCheckpoint records that the checkpoint at second t was answered.
func (s *Session) MarkCheckpoint(ctx context.Context, courseID string, t int) error {
	if err := s.repo.Set(ctx, checkpointPrefix(courseID)+strconv.Itoa(t), "true"); err != nil {
		return fmt.Errorf("mark checkpoint: %w", err)
	}
	return nil
}

// LoadVideo returns saved playback progress for courseID.
func (s *Session) LoadVideo(ctx context.Context, courseID string) (Progress, error) {
	var p Progress
	p.Time, _ = s.getInt(ctx, videoTimeKey(courseID))
	p.Max, _ = s.getInt(ctx, videoMaxKey(courseID))

	keys, err := s.repo.Keys(ctx, checkpointPrefix(courseID))
	if err != nil {
		return p, fmt.Errorf("load checkpoints: %w", err)
	}
	for _, k := range keys {
		if t, err := strconv.Atoi(strings.TrimPrefix(k, checkpointPrefix(courseID))); err == nil {
			p.Done = append(p.Done, t)
		}
	}
	sort.Ints(p.Done)
	return p, nil
}

func (s *Session) getInt(ctx context.Context, key string) (int, bool) {
	v, ok, err := s.repo.Get(ctx, key)
	if err != nil || !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
