// Package flow drives a learner through ENTRY, INTRO, VIDEO, TEST and
// RESULT. The transition function is pure; Controller executes the side
// effects it asks for.
package flow

import "github.com/labinot-bajgora/ECK-safety/internal/training"

// Step is a position in the learner flow.
type Step string

const (
	StepEntry  Step = "ENTRY"
	StepIntro  Step = "INTRO"
	StepVideo  Step = "VIDEO"
	StepTest   Step = "TEST"
	StepResult Step = "RESULT"
)

// Steps lists the flow in order.
var Steps = []Step{StepEntry, StepIntro, StepVideo, StepTest, StepResult}

// Index returns the position of s in Steps, or -1.
func (s Step) Index() int {
	for i, st := range Steps {
		if st == s {
			return i
		}
	}
	return -1
}

// Resumable reports whether a saved session may be restored into s.
func (s Step) Resumable() bool {
	return s == StepIntro || s == StepVideo || s == StepTest
}

// State is the learner flow state.
type State struct {
	Step     Step
	Learner  *training.LearnerData
	CourseID string
	// Attempts counts submitted quizzes.
	Attempts int
	// LastScore is the score of the most recent submission.
	LastScore int
	// RetryOffered is set while a failed first attempt waits for the
	// learner to retry or review the video.
	RetryOffered bool
}

// Initial returns the state at ENTRY with nothing captured.
func Initial() State {
	return State{Step: StepEntry}
}

// Event is an input to Transition.
type Event interface {
	isEvent()
}

// CodeAccepted is raised when a validated code and learner details were
// captured at ENTRY.
type CodeAccepted struct {
	Learner  training.LearnerData
	CourseID string
}

// IntroConfirmed moves from INTRO to VIDEO.
type IntroConfirmed struct{}

// VideoCompleted moves from VIDEO to TEST once the end was reached.
type VideoCompleted struct{}

// VideoBack returns from VIDEO to INTRO.
type VideoBack struct{}

// QuizSubmitted carries the score of a finished quiz attempt.
type QuizSubmitted struct {
	Score int
}

// RetryRequested restarts the quiz after a failed first attempt.
type RetryRequested struct{}

// ReviewRequested sends a learner with a pending retry back to the video.
type ReviewRequested struct{}

// Restored resumes a saved session.
type Restored struct {
	Step     Step
	Learner  training.LearnerData
	CourseID string
	Attempts int
}

// Reset abandons the flow and returns to ENTRY.
type Reset struct{}

func (CodeAccepted) isEvent()    {}
func (IntroConfirmed) isEvent()  {}
func (VideoCompleted) isEvent()  {}
func (VideoBack) isEvent()       {}
func (QuizSubmitted) isEvent()   {}
func (RetryRequested) isEvent()  {}
func (ReviewRequested) isEvent() {}
func (Restored) isEvent()        {}
func (Reset) isEvent()           {}

// Effect is a side effect requested by Transition.
type Effect int

const (
	// PersistSession saves learner identity, step and attempts.
	PersistSession Effect = iota
	// ClearSession removes all resumable state.
	ClearSession
	// RecordResult hands the final score to the result recorder.
	RecordResult
	// ClearQuizProgress drops saved quiz answers for the course.
	ClearQuizProgress
	// OfferRetry tells the UI to show the retry choice.
	OfferRetry
)

func (e Effect) String() string {
	switch e {
	case PersistSession:
		return "persist-session"
	case ClearSession:
		return "clear-session"
	case RecordResult:
		return "record-result"
	case ClearQuizProgress:
		return "clear-quiz-progress"
	case OfferRetry:
		return "offer-retry"
	default:
		return "unknown"
	}
}

// Transition returns the state after e and the effects to run. Events
// that do not apply to the current step leave the state unchanged and
// request nothing.
func Transition(s State, e Event) (State, []Effect) {
	switch ev := e.(type) {
	case Reset:
		return Initial(), []Effect{ClearSession}

	case CodeAccepted:
		if s.Step != StepEntry && s.Step != StepResult {
			return s, nil
		}
		learner := ev.Learner
		return State{Step: StepIntro, Learner: &learner, CourseID: ev.CourseID}, []Effect{ClearSession, PersistSession}

	case Restored:
		if s.Step != StepEntry || !ev.Step.Resumable() {
			return s, nil
		}
		learner := ev.Learner
		return State{
			Step:     ev.Step,
			Learner:  &learner,
			CourseID: ev.CourseID,
			Attempts: ev.Attempts,
		}, nil

	case IntroConfirmed:
		if s.Step != StepIntro {
			return s, nil
		}
		s.Step = StepVideo
		return s, []Effect{PersistSession}

	case VideoBack:
		if s.Step != StepVideo {
			return s, nil
		}
		s.Step = StepIntro
		return s, []Effect{PersistSession}

	case VideoCompleted:
		if s.Step != StepVideo {
			return s, nil
		}
		s.Step = StepTest
		return s, []Effect{PersistSession}

	case QuizSubmitted:
		if s.Step != StepTest || s.RetryOffered {
			return s, nil
		}
		s.Attempts++
		s.LastScore = ev.Score
		if training.Passed(ev.Score) || s.Attempts >= training.MaxAttempts {
			s.Step = StepResult
			return s, []Effect{ClearQuizProgress, RecordResult, ClearSession}
		}
		s.RetryOffered = true
		return s, []Effect{ClearQuizProgress, PersistSession, OfferRetry}

	case RetryRequested:
		if s.Step != StepTest || !s.RetryOffered {
			return s, nil
		}
		s.RetryOffered = false
		return s, []Effect{ClearQuizProgress, PersistSession}

	case ReviewRequested:
		if s.Step != StepTest || !s.RetryOffered {
			return s, nil
		}
		s.RetryOffered = false
		s.Step = StepVideo
		return s, []Effect{ClearQuizProgress, PersistSession}
	}
	return s, nil
}
