package training

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// QuestionType distinguishes how a quiz question is presented.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionTrueFalse      QuestionType = "true-false"
)

// VideoChapter marks a named position in the course video.
type VideoChapter struct {
	Title     string `json:"title"`
	StartTime int    `json:"startTime"`
}

// Checkpoint is a timed in-video question that pauses playback until answered.
type Checkpoint struct {
	Time         int      `json:"time"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Question is a single final-quiz question.
type Question struct {
	ID           int          `json:"id"`
	Text         string       `json:"text"`
	Options      []string     `json:"options"`
	CorrectIndex int          `json:"correctIndex"`
	Type         QuestionType `json:"type"`
	IsScenario   bool         `json:"isScenario,omitempty"`
	ImageURL     string       `json:"imageUrl,omitempty"`
}

// Caption is one storyboard slide shown over the video while it plays.
type Caption struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Subtitle string `json:"subtitle"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Course is a unit of training content.
type Course struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Version       string         `json:"version,omitempty"`
	IntroText     string         `json:"introText"`
	VideoURL      string         `json:"videoUrl"`
	VideoDuration int            `json:"videoDuration,omitempty"`
	VideoChapters []VideoChapter `json:"videoChapters"`
	Captions      []Caption      `json:"captions,omitempty"`
	Checkpoints   []Checkpoint   `json:"checkpoints"`
	Questions     []Question     `json:"questions"`
	IsActive      bool           `json:"isActive"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// Duration returns the video length in seconds.
func (c *Course) Duration() int {
	if c.VideoDuration > 0 {
		return c.VideoDuration
	}
	return DefaultVideoDuration
}

// SortedCheckpoints returns checkpoints ordered by trigger time.
func (c *Course) SortedCheckpoints() []Checkpoint {
	out := make([]Checkpoint, len(c.Checkpoints))
	copy(out, c.Checkpoints)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// ChapterAt returns the chapter containing second t, or nil when the
// course has no chapters.
func (c *Course) ChapterAt(t int) *VideoChapter {
	var found *VideoChapter
	for i := range c.VideoChapters {
		ch := &c.VideoChapters[i]
		if ch.StartTime <= t && (found == nil || ch.StartTime >= found.StartTime) {
			found = ch
		}
	}
	return found
}

// CaptionAt returns the storyboard caption for second t. Past the last
// caption the final one stays on screen.
func (c *Course) CaptionAt(t int) *Caption {
	if len(c.Captions) == 0 {
		return nil
	}
	for i := range c.Captions {
		if t >= c.Captions[i].Start && t < c.Captions[i].End {
			return &c.Captions[i]
		}
	}
	return &c.Captions[len(c.Captions)-1]
}

// Video qualities understood by VideoSource.
const (
	Quality480  = "480p"
	Quality720  = "720p"
	Quality1080 = "1080p"
)

// VideoSource resolves the playable URL for quality. VideoURL holds either
// a plain URL or a JSON object keyed by quality; a missing quality falls
// back to the best remaining source.
func (c *Course) VideoSource(quality string) string {
	raw := strings.TrimSpace(c.VideoURL)
	if !strings.HasPrefix(raw, "{") {
		return raw
	}
	var sources map[string]string
	if err := json.Unmarshal([]byte(raw), &sources); err != nil {
		return raw
	}
	if src, ok := sources[quality]; ok && src != "" {
		return src
	}
	for _, q := range []string{Quality1080, Quality720, Quality480} {
		if src := sources[q]; src != "" {
			return src
		}
	}
	keys := make([]string, 0, len(sources))
	for k := range sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if sources[k] != "" {
			return sources[k]
		}
	}
	return ""
}
