package courses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labinot-bajgora/ECK-safety/internal/store"
	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var now = time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)

func newTestCatalog() (*Catalog, *store.Memory) {
	m := store.NewMemory()
	return NewCatalog(m.Courses(), WithClock(func() time.Time { return now })), m
}

func validCourse() *training.Course {
	return &training.Course{
		ID:            "fire-safety",
		Title:         "Fire Safety",
		Version:       "v1.0.0",
		VideoDuration: 120,
		VideoChapters: []training.VideoChapter{{Title: "Intro", StartTime: 0}},
		Checkpoints: []training.Checkpoint{
			{Time: 60, Question: "Class for electrical fires?", Options: []string{"A", "E"}, CorrectIndex: 1},
		},
		Questions: []training.Question{
			{ID: 1, Text: "Use water on oil fires.", Options: []string{"True", "False"}, CorrectIndex: 1, Type: training.QuestionTrueFalse},
			{ID: 2, Text: "First step?", Options: []string{"Run", "Alarm", "Hide"}, CorrectIndex: 1, Type: training.QuestionMultipleChoice},
		},
		IsActive: true,
	}
}

func TestDefaultCourseIsValid(t *testing.T) {
	c, err := DefaultCourse()
	require.NoError(t, err)
	require.NoError(t, Validate(c))

	assert.Equal(t, DefaultCourseID, c.ID)
	assert.Len(t, c.VideoChapters, 5)
	assert.Len(t, c.Checkpoints, 3)
	assert.Len(t, c.Questions, 5)
	assert.Len(t, c.Captions, 5)
	assert.Equal(t, 110, c.Duration())
	assert.True(t, c.Questions[4].IsScenario)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *training.Course)
		problem string
	}{
		{"missing title", func(c *training.Course) { c.Title = "" }, "title"},
		{"bad id", func(c *training.Course) { c.ID = "has space" }, "id"},
		{"single option", func(c *training.Course) { c.Questions[1].Options = []string{"only"} }, "options"},
		{"unknown type", func(c *training.Course) { c.Questions[0].Type = "essay" }, "type"},
		{"index out of range", func(c *training.Course) { c.Questions[1].CorrectIndex = 3 }, "correct index 3 out of range"},
		{"checkpoint after end", func(c *training.Course) { c.Checkpoints[0].Time = 500 }, "after the video ends"},
		{"true-false with three options", func(c *training.Course) {
			c.Questions[0].Options = []string{"a", "b", "c"}
		}, "exactly 2 options"},
		{"checkpoints at the same second", func(c *training.Course) {
			c.Checkpoints = append(c.Checkpoints, training.Checkpoint{
				Time: 60, Question: "Second question?", Options: []string{"A", "B"}, CorrectIndex: 0,
			})
		}, "checkpoint 2: same time 60s as checkpoint 1"},
		{"duplicate question id", func(c *training.Course) { c.Questions[1].ID = 1 }, "duplicate id"},
		{"bad version", func(c *training.Course) { c.Version = "one" }, "semantic version"},
		{"active without questions", func(c *training.Course) { c.Questions = nil }, "at least one question"},
	}

	require.NoError(t, Validate(validCourse()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCourse()
			tt.mutate(c)
			err := Validate(c)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %T", err)
			assert.Contains(t, verr.Error(), tt.problem)
		})
	}
}

func TestSaveCourseRejectsSharedCheckpointTime(t *testing.T) {
	cat, _ := newTestCatalog()
	ctx := context.Background()

	c := validCourse()
	c.Checkpoints = []training.Checkpoint{
		{Time: 5, Question: "Q1", Options: []string{"A", "B"}, CorrectIndex: 0},
		{Time: 5, Question: "Q2", Options: []string{"A", "B"}, CorrectIndex: 1},
	}
	var verr *ValidationError
	require.ErrorAs(t, cat.SaveCourse(ctx, c), &verr)
	assert.Len(t, verr.Problems, 1)

	_, err := cat.Get(ctx, c.ID)
	assert.ErrorIs(t, err, ErrCourseNotFound)

	c.Checkpoints[1].Time = 6
	require.NoError(t, cat.SaveCourse(ctx, c))
}

func TestSaveCourseKeepsCreatedAt(t *testing.T) {
	cat, _ := newTestCatalog()
	ctx := context.Background()

	c := validCourse()
	require.NoError(t, cat.SaveCourse(ctx, c))
	assert.Equal(t, now, c.CreatedAt)

	again := validCourse()
	again.Title = "Fire Safety II"
	again.CreatedAt = now.Add(time.Hour)
	require.NoError(t, cat.SaveCourse(ctx, again))

	got, err := cat.Get(ctx, "fire-safety")
	require.NoError(t, err)
	assert.Equal(t, "Fire Safety II", got.Title)
	assert.Equal(t, now, got.CreatedAt)
}

func TestSetActive(t *testing.T) {
	cat, _ := newTestCatalog()
	ctx := context.Background()
	require.NoError(t, cat.SaveCourse(ctx, validCourse()))

	require.NoError(t, cat.SetActive(ctx, "fire-safety", false))
	got, _ := cat.Get(ctx, "fire-safety")
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, cat.SetActive(ctx, "missing", true), ErrCourseNotFound)

	draft := cat.NewDraft()
	require.NoError(t, cat.SaveCourse(ctx, draft))
	var verr *ValidationError
	assert.True(t, errors.As(cat.SetActive(ctx, draft.ID, true), &verr))
}

func TestNewDraft(t *testing.T) {
	cat, _ := newTestCatalog()
	d := cat.NewDraft()
	assert.True(t, strings.HasPrefix(d.ID, "course-"))
	assert.Equal(t, "New Training Name", d.Title)
	assert.False(t, d.IsActive)
	require.Len(t, d.VideoChapters, 1)
	assert.NoError(t, Validate(d))
}

func TestImportExport(t *testing.T) {
	cat, _ := newTestCatalog()
	ctx := context.Background()

	doc, err := json.Marshal(validCourse())
	require.NoError(t, err)

	imported, err := cat.Import(ctx, bytes.NewReader(doc), false)
	require.NoError(t, err)
	assert.Equal(t, "fire-safety", imported.ID)

	older := validCourse()
	older.Version = "0.9.0"
	doc, _ = json.Marshal(older)
	_, err = cat.Import(ctx, bytes.NewReader(doc), false)
	assert.ErrorIs(t, err, ErrOlderVersion)

	_, err = cat.Import(ctx, bytes.NewReader(doc), true)
	require.NoError(t, err, "force replaces regardless of version")

	newer := validCourse()
	newer.Version = "v2.0.0"
	newer.Title = "Fire Safety 2"
	doc, _ = json.Marshal(newer)
	_, err = cat.Import(ctx, bytes.NewReader(doc), false)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, cat.Export(ctx, "fire-safety", &out))
	var back training.Course
	require.NoError(t, json.Unmarshal(out.Bytes(), &back))
	assert.Equal(t, "Fire Safety 2", back.Title)
	assert.Equal(t, "v2.0.0", back.Version)

	assert.ErrorIs(t, cat.Export(ctx, "missing", &out), ErrCourseNotFound)

	_, err = cat.Import(ctx, strings.NewReader(`{"id": 5}`), false)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestSeed(t *testing.T) {
	cat, _ := newTestCatalog()
	ctx := context.Background()

	installed, err := cat.Seed(ctx)
	require.NoError(t, err)
	assert.True(t, installed)

	installed, err = cat.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, installed, "seed only runs on an empty catalog")

	list, err := cat.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, now, list[0].CreatedAt)
}

func TestIsOlder(t *testing.T) {
	assert.True(t, IsOlder("1.0.0", "v1.2.0"))
	assert.False(t, IsOlder("v1.2.0", "1.2.0"))
	assert.False(t, IsOlder("", "v1.0.0"))
	assert.False(t, IsOlder("v3", "garbage"))
}
