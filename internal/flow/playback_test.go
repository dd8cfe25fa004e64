package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

func videoCourse() *training.Course {
	return &training.Course{
		ID:            "video",
		VideoDuration: 10,
		VideoChapters: []training.VideoChapter{{Title: "Start", StartTime: 0}, {Title: "Middle", StartTime: 5}},
		Captions: []training.Caption{
			{Start: 0, End: 5, Title: "First"},
			{Start: 5, End: 8, Title: "Second"},
		},
		Checkpoints: []training.Checkpoint{
			{Time: 6, Question: "later", Options: []string{"a", "b"}, CorrectIndex: 0},
			{Time: 3, Question: "early", Options: []string{"a", "b"}, CorrectIndex: 1},
		},
	}
}

func tickN(p *Playback, n int) (triggered int) {
	for range n {
		if p.Tick() {
			triggered++
		}
	}
	return triggered
}

func TestPlaybackCheckpointsPauseOnce(t *testing.T) {
	p := NewPlayback(videoCourse(), Progress{})
	p.Play()

	assert.Equal(t, 1, tickN(p, 3))
	require.NotNil(t, p.Active())
	assert.Equal(t, "early", p.Active().Question)
	assert.False(t, p.Playing())

	// Ticks do nothing while the checkpoint waits.
	tickN(p, 5)
	assert.Equal(t, 3, p.Current())

	_, ok := p.Answer(5)
	assert.False(t, ok)
	correct, ok := p.Answer(1)
	assert.True(t, ok)
	assert.True(t, correct)
	assert.NotNil(t, p.Active(), "checkpoint stays up until Resume")

	p.Resume()
	assert.Nil(t, p.Active())
	assert.True(t, p.Playing())

	// Seeking back over an answered checkpoint does not trigger it again.
	p.Seek(0)
	assert.Equal(t, 1, tickN(p, 6), "only the later checkpoint fires")
	assert.Equal(t, "later", p.Active().Question)
	correct, _ = p.Answer(1)
	assert.False(t, correct)
	p.Resume()

	tickN(p, 10)
	assert.True(t, p.Ended())
	assert.False(t, p.Playing())
	assert.Equal(t, 10, p.Current())
	assert.True(t, p.CanComplete())
	assert.Equal(t, []int{3, 6}, p.Snapshot().Done)
}

func TestPlaybackSeekClampedToWatched(t *testing.T) {
	p := NewPlayback(videoCourse(), Progress{Time: 2, Max: 2})
	p.SeekBy(5)
	assert.Equal(t, 2, p.Current())
	p.SeekBy(-5)
	assert.Equal(t, 0, p.Current())
	assert.Equal(t, 2, p.MaxReached())
	assert.False(t, p.CanComplete())
}

func TestPlaybackRestore(t *testing.T) {
	p := NewPlayback(videoCourse(), Progress{Time: 7, Max: 99, Done: []int{3, 6}})
	assert.Equal(t, 10, p.MaxReached())
	assert.Equal(t, 7, p.Current())
	assert.True(t, p.Ended(), "reaching the end once is remembered")
	assert.Equal(t, "Middle", p.Chapter().Title)
	assert.Equal(t, "Second", p.Caption().Title)

	// An unanswered checkpoint behind the playhead fires on the next tick.
	p = NewPlayback(videoCourse(), Progress{Time: 4, Max: 4})
	p.Play()
	assert.True(t, p.Tick())
	assert.Equal(t, 3, p.Active().Time)
}

func TestPlaybackErrorAndRetry(t *testing.T) {
	p := NewPlayback(videoCourse(), Progress{})
	p.Play()
	p.Fail("video unavailable")
	assert.Equal(t, "video unavailable", p.Err())
	assert.False(t, p.Tick())
	p.Play()
	assert.False(t, p.Playing(), "an error blocks play")

	p.Retry()
	assert.Empty(t, p.Err())
	assert.True(t, p.Playing())
}

func TestPlaybackToggleAndReplay(t *testing.T) {
	c := videoCourse()
	c.Checkpoints = nil
	p := NewPlayback(c, Progress{Time: 10, Max: 10})
	assert.InDelta(t, 1.0, p.Percent(), 0.001)

	p.Toggle()
	assert.True(t, p.Playing())
	assert.Equal(t, 0, p.Current(), "play at the end restarts")
	p.Toggle()
	assert.False(t, p.Playing())
}

func TestPlaybackAnsweredCheckpoints(t *testing.T) {
	p := NewPlayback(videoCourse(), Progress{Time: 4, Max: 4, Done: []int{3}})

	cps := p.Checkpoints()
	require.Len(t, cps, 2)
	assert.Equal(t, 3, cps[0].Time, "checkpoints are in trigger order")
	assert.True(t, p.Answered(3))
	assert.False(t, p.Answered(6))
}
