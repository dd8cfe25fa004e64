package flow

import (
	"time"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// Playback timing.
const (
	TickInterval     = time.Second
	SnapshotInterval = 2 * time.Second
	ResumeDelay      = 1500 * time.Millisecond
)

// Progress is the persisted position of a learner in a course video.
type Progress struct {
	Time int
	Max  int
	// Done lists checkpoint times already answered.
	Done []int
}

// Playback simulates the course video on a one-second clock. The learner
// may only seek inside what was already watched, and every checkpoint
// pauses playback once until it is answered.
type Playback struct {
	course      *training.Course
	duration    int
	checkpoints []training.Checkpoint
	done        map[int]bool

	current int
	max     int
	playing bool
	ended   bool
	active  *training.Checkpoint
	err     string
}

// NewPlayback prepares playback of course from saved progress.
func NewPlayback(course *training.Course, saved Progress) *Playback {
	p := &Playback{
		course:      course,
		duration:    course.Duration(),
		checkpoints: course.SortedCheckpoints(),
		done:        make(map[int]bool),
	}
	for _, t := range saved.Done {
		p.done[t] = true
	}
	p.max = clamp(max(saved.Max, saved.Time), 0, p.duration)
	p.current = clamp(saved.Time, 0, p.max)
	if p.max >= p.duration {
		p.ended = true
	}
	return p
}

// Duration returns the video length in seconds.
func (p *Playback) Duration() int { return p.duration }

// Current returns the playhead in seconds.
func (p *Playback) Current() int { return p.current }

// MaxReached returns the furthest second watched.
func (p *Playback) MaxReached() int { return p.max }

// Playing reports whether the clock is advancing.
func (p *Playback) Playing() bool { return p.playing }

// Ended reports whether the end of the video was reached at least once.
func (p *Playback) Ended() bool { return p.ended }

// Active returns the checkpoint awaiting an answer, or nil.
func (p *Playback) Active() *training.Checkpoint { return p.active }

// Err returns the current playback error message, if any.
func (p *Playback) Err() string { return p.err }

// Percent returns the playhead position as a fraction of the duration.
func (p *Playback) Percent() float64 {
	if p.duration == 0 {
		return 0
	}
	return float64(p.current) / float64(p.duration)
}

// Chapter returns the chapter under the playhead.
func (p *Playback) Chapter() *training.VideoChapter {
	return p.course.ChapterAt(p.current)
}

// Caption returns the storyboard caption under the playhead.
func (p *Playback) Caption() *training.Caption {
	return p.course.CaptionAt(p.current)
}

// Play starts the clock unless a checkpoint or error blocks it.
func (p *Playback) Play() {
	if p.active != nil || p.err != "" {
		return
	}
	if p.current >= p.duration {
		p.current = 0
	}
	p.playing = true
}

// Pause stops the clock.
func (p *Playback) Pause() { p.playing = false }

// Toggle flips between playing and paused.
func (p *Playback) Toggle() {
	if p.playing {
		p.Pause()
		return
	}
	p.Play()
}

// Tick advances the clock by one second. It reports whether a checkpoint
// was triggered by this tick.
func (p *Playback) Tick() bool {
	if !p.playing || p.active != nil || p.err != "" {
		return false
	}
	p.current++
	if p.current >= p.duration {
		p.current = p.duration
		p.ended = true
		p.playing = false
	}
	if p.current > p.max {
		p.max = p.current
	}
	return p.checkTrigger()
}

// checkTrigger pauses on the earliest unanswered checkpoint at or before
// the playhead.
func (p *Playback) checkTrigger() bool {
	for i := range p.checkpoints {
		cp := &p.checkpoints[i]
		if cp.Time > p.current {
			break
		}
		if !p.done[cp.Time] {
			p.active = cp
			p.playing = false
			return true
		}
	}
	return false
}

// Checkpoints returns the course checkpoints in trigger order.
func (p *Playback) Checkpoints() []training.Checkpoint { return p.checkpoints }

// Answered reports whether the checkpoint at second t was answered.
func (p *Playback) Answered(t int) bool { return p.done[t] }

// Seek moves the playhead to t, clamped to the watched range.
func (p *Playback) Seek(t int) {
	if p.active != nil {
		return
	}
	p.current = clamp(t, 0, p.max)
}

// SeekBy moves the playhead by delta seconds.
func (p *Playback) SeekBy(delta int) {
	p.Seek(p.current + delta)
}

// Answer resolves the active checkpoint with option and reports whether
// it was correct. Any answer clears the checkpoint. Playback resumes
// through Resume after ResumeDelay.
func (p *Playback) Answer(option int) (correct, ok bool) {
	if p.active == nil || option < 0 || option >= len(p.active.Options) {
		return false, false
	}
	correct = option == p.active.CorrectIndex
	p.done[p.active.Time] = true
	return correct, true
}

// Resume closes an answered checkpoint and continues playing.
func (p *Playback) Resume() {
	if p.active == nil || !p.done[p.active.Time] {
		return
	}
	p.active = nil
	if !p.checkTrigger() && p.current < p.duration {
		p.playing = true
	}
}

// Fail records a playback error and stops the clock.
func (p *Playback) Fail(msg string) {
	p.err = msg
	p.playing = false
}

// Retry clears an error and resumes.
func (p *Playback) Retry() {
	p.err = ""
	p.Play()
}

// CanComplete reports whether the learner may move on to the quiz.
func (p *Playback) CanComplete() bool {
	return p.ended && p.active == nil
}

// Snapshot returns the progress to persist.
func (p *Playback) Snapshot() Progress {
	done := make([]int, 0, len(p.done))
	for _, cp := range p.checkpoints {
		if p.done[cp.Time] {
			done = append(done, cp.Time)
		}
	}
	return Progress{Time: p.current, Max: p.max, Done: done}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
