package flow

import (
	"errors"
	"math"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// ErrNoAnswer is returned when moving forward from an unanswered question.
var ErrNoAnswer = errors.New("select an answer first")

// ErrOptionRange is returned for a selection outside the options.
var ErrOptionRange = errors.New("option out of range")

// Quiz walks a learner through a course's questions in order. Answers
// are keyed by question id.
type Quiz struct {
	questions []training.Question
	answers   map[int]int
	index     int
}

// NewQuiz starts an empty quiz over the course's questions.
func NewQuiz(course *training.Course) *Quiz {
	return &Quiz{
		questions: course.Questions,
		answers:   make(map[int]int),
	}
}

// Restore loads saved answers and position. Answers for unknown
// questions or out-of-range options are dropped.
func (q *Quiz) Restore(answers map[int]int, index int) {
	q.answers = make(map[int]int)
	for _, question := range q.questions {
		if a, ok := answers[question.ID]; ok && a >= 0 && a < len(question.Options) {
			q.answers[question.ID] = a
		}
	}
	if index < 0 {
		index = 0
	}
	if index >= len(q.questions) {
		index = len(q.questions) - 1
	}
	if index < 0 {
		index = 0
	}
	q.index = index
}

// Total returns the number of questions.
func (q *Quiz) Total() int { return len(q.questions) }

// Index returns the zero-based position of the current question.
func (q *Quiz) Index() int { return q.index }

// Current returns the current question, or nil for an empty quiz.
func (q *Quiz) Current() *training.Question {
	if len(q.questions) == 0 {
		return nil
	}
	return &q.questions[q.index]
}

// Select records option as the answer to the current question.
func (q *Quiz) Select(option int) error {
	cur := q.Current()
	if cur == nil || option < 0 || option >= len(cur.Options) {
		return ErrOptionRange
	}
	q.answers[cur.ID] = option
	return nil
}

// Selected returns the answer chosen for the current question.
func (q *Quiz) Selected() (int, bool) {
	cur := q.Current()
	if cur == nil {
		return 0, false
	}
	a, ok := q.answers[cur.ID]
	return a, ok
}

// IsLast reports whether the current question is the final one.
func (q *Quiz) IsLast() bool {
	return q.index >= len(q.questions)-1
}

// Next moves to the following question. On the last question it reports
// done instead. Moving on requires an answer.
func (q *Quiz) Next() (done bool, err error) {
	if _, ok := q.Selected(); !ok && len(q.questions) > 0 {
		return false, ErrNoAnswer
	}
	if q.IsLast() {
		return true, nil
	}
	q.index++
	return false, nil
}

// Back moves to the previous question, if any.
func (q *Quiz) Back() {
	if q.index > 0 {
		q.index--
	}
}

// Reset clears every answer and returns to the first question.
func (q *Quiz) Reset() {
	q.answers = make(map[int]int)
	q.index = 0
}

// Answers returns a copy of the answers keyed by question id.
func (q *Quiz) Answers() map[int]int {
	out := make(map[int]int, len(q.answers))
	for k, v := range q.answers {
		out[k] = v
	}
	return out
}

// Correct counts correctly answered questions.
func (q *Quiz) Correct() int {
	n := 0
	for _, question := range q.questions {
		if a, ok := q.answers[question.ID]; ok && a == question.CorrectIndex {
			n++
		}
	}
	return n
}

// Score returns round(correct/total*100). An empty quiz scores zero.
func (q *Quiz) Score() int {
	return Score(q.Correct(), len(q.questions))
}

// Score computes a percentage rounded half away from zero.
func Score(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// Progress returns the fraction of the quiz reached, for progress bars.
func (q *Quiz) Progress() float64 {
	if len(q.questions) == 0 {
		return 0
	}
	return float64(q.index+1) / float64(len(q.questions))
}

// Clone returns an independent copy, safe to hand to a background save.
func (q *Quiz) Clone() *Quiz {
	return &Quiz{questions: q.questions, answers: q.Answers(), index: q.index}
}
