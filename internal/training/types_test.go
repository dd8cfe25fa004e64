package training

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeatsRemaining(t *testing.T) {
	tests := []struct {
		name string
		code AccessCode
		want int
	}{
		{"unlimited", AccessCode{SeatMode: SeatModeUnlimited, SeatAllowance: 5, SeatsUsed: 9}, -1},
		{"limited with seats", AccessCode{SeatMode: SeatModeLimited, SeatAllowance: 5, SeatsUsed: 2}, 3},
		{"limited exhausted", AccessCode{SeatMode: SeatModeLimited, SeatAllowance: 5, SeatsUsed: 5}, 0},
		{"limited overdrawn", AccessCode{SeatMode: SeatModeLimited, SeatAllowance: 3, SeatsUsed: 4}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.SeatsRemaining())
		})
	}
}

func TestExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := AccessCode{ExpiresAt: now.Add(-time.Second)}
	assert.True(t, c.Expired(now))

	c.ExpiresAt = now.Add(time.Hour)
	assert.False(t, c.Expired(now))
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "PRISTINA", NormalizeCode("  pristina "))
	assert.True(t, SameCode("Peja", "PEJA"))
	assert.False(t, SameCode("PEJA", "PEJA2"))
}

func TestParseSeatMode(t *testing.T) {
	m, ok := ParseSeatMode("limited")
	assert.True(t, ok)
	assert.Equal(t, SeatModeLimited, m)

	_, ok = ParseSeatMode("metered")
	assert.False(t, ok)
}

func TestPassed(t *testing.T) {
	assert.True(t, Passed(80))
	assert.True(t, Passed(100))
	assert.False(t, Passed(79))
}

func TestVideoSource(t *testing.T) {
	plain := Course{VideoURL: "https://cdn.example.com/intro.mp4"}
	assert.Equal(t, "https://cdn.example.com/intro.mp4", plain.VideoSource(Quality720))

	multi := Course{VideoURL: `{"480p":"low.mp4","1080p":"high.mp4"}`}
	assert.Equal(t, "low.mp4", multi.VideoSource(Quality480))
	assert.Equal(t, "high.mp4", multi.VideoSource(Quality720))

	broken := Course{VideoURL: `{"480p":`}
	assert.Equal(t, `{"480p":`, broken.VideoSource(Quality480))
}

func TestChapterAndCaptionAt(t *testing.T) {
	c := Course{
		VideoChapters: []VideoChapter{{Title: "Law", StartTime: 0}, {Title: "Duties", StartTime: 20}},
		Captions: []Caption{
			{Start: 0, End: 20, Title: "one"},
			{Start: 20, End: 45, Title: "two"},
		},
	}

	assert.Equal(t, "Law", c.ChapterAt(5).Title)
	assert.Equal(t, "Duties", c.ChapterAt(20).Title)
	assert.Equal(t, "two", c.CaptionAt(30).Title)
	assert.Equal(t, "two", c.CaptionAt(90).Title, "last caption stays on screen")
}

func TestDurationDefault(t *testing.T) {
	c := Course{}
	assert.Equal(t, DefaultVideoDuration, c.Duration())
	c.VideoDuration = 300
	assert.Equal(t, 300, c.Duration())
}
