package courses

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// ValidationError lists every problem found in a course document.
type ValidationError struct {
	CourseID string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid course %q: %s", e.CourseID, strings.Join(e.Problems, "; "))
}

const schemaURL = "schema://safetyhub/course.json"

var optionList = map[string]any{
	"type":     "array",
	"minItems": 2,
	"items":    map[string]any{"type": "string", "minLength": 1},
}

// courseSchema describes the structure of a course document. Cross-field
// rules (answer index within options, times within the video) are checked
// in Go after the schema passes.
var courseSchema = map[string]any{
	"type":     "object",
	"required": []any{"id", "title"},
	"properties": map[string]any{
		"id": map[string]any{
			"type":    "string",
			"pattern": "^[A-Za-z0-9][A-Za-z0-9_.-]*$",
		},
		"title":         map[string]any{"type": "string", "minLength": 1},
		"version":       map[string]any{"type": "string"},
		"introText":     map[string]any{"type": "string"},
		"videoUrl":      map[string]any{"type": "string"},
		"videoDuration": map[string]any{"type": "integer", "minimum": 0},
		"isActive":      map[string]any{"type": "boolean"},
		"videoChapters": map[string]any{
			"type": []any{"array", "null"},
			"items": map[string]any{
				"type":     "object",
				"required": []any{"title", "startTime"},
				"properties": map[string]any{
					"title":     map[string]any{"type": "string", "minLength": 1},
					"startTime": map[string]any{"type": "integer", "minimum": 0},
				},
			},
		},
		"captions": map[string]any{
			"type": []any{"array", "null"},
			"items": map[string]any{
				"type":     "object",
				"required": []any{"start", "end", "title"},
				"properties": map[string]any{
					"start": map[string]any{"type": "integer", "minimum": 0},
					"end":   map[string]any{"type": "integer", "minimum": 0},
					"title": map[string]any{"type": "string"},
				},
			},
		},
		"checkpoints": map[string]any{
			"type": []any{"array", "null"},
			"items": map[string]any{
				"type":     "object",
				"required": []any{"time", "question", "options", "correctIndex"},
				"properties": map[string]any{
					"time":         map[string]any{"type": "integer", "minimum": 0},
					"question":     map[string]any{"type": "string", "minLength": 1},
					"options":      optionList,
					"correctIndex": map[string]any{"type": "integer", "minimum": 0},
				},
			},
		},
		"questions": map[string]any{
			"type": []any{"array", "null"},
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "text", "options", "correctIndex", "type"},
				"properties": map[string]any{
					"id":           map[string]any{"type": "integer"},
					"text":         map[string]any{"type": "string", "minLength": 1},
					"options":      optionList,
					"correctIndex": map[string]any{"type": "integer", "minimum": 0},
					"type": map[string]any{
						"enum": []any{string(training.QuestionMultipleChoice), string(training.QuestionTrueFalse)},
					},
					"isScenario": map[string]any{"type": "boolean"},
					"imageUrl":   map[string]any{"type": "string"},
				},
			},
		},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// compiledSchema compiles courseSchema on first use.
func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a parsed JSON value, so round-trip the Go map.
		raw, err := json.Marshal(courseSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal course schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			compileErr = fmt.Errorf("parse course schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// ValidateDocument checks raw course JSON against the course schema.
func ValidateDocument(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ValidationError{Problems: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}
	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(parsed); err != nil {
		id := ""
		if m, ok := parsed.(map[string]any); ok {
			id, _ = m["id"].(string)
		}
		return &ValidationError{CourseID: id, Problems: []string{err.Error()}}
	}
	return nil
}

// Validate checks a course for structural and cross-field problems.
func Validate(c *training.Course) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal course: %w", err)
	}
	if err := ValidateDocument(raw); err != nil {
		return err
	}

	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Version != "" && !semver.IsValid(CanonicalVersion(c.Version)) {
		add("version %q is not a semantic version", c.Version)
	}

	duration := c.Duration()
	for i, ch := range c.VideoChapters {
		if ch.StartTime > duration {
			add("chapter %d starts at %ds, after the video ends at %ds", i+1, ch.StartTime, duration)
		}
	}
	times := make(map[int]int, len(c.Checkpoints))
	for i, cp := range c.Checkpoints {
		if first, ok := times[cp.Time]; ok {
			add("checkpoint %d: same time %ds as checkpoint %d", i+1, cp.Time, first)
		} else {
			times[cp.Time] = i + 1
		}
		if cp.Time > duration {
			add("checkpoint %d at %ds is after the video ends at %ds", i+1, cp.Time, duration)
		}
		if cp.CorrectIndex >= len(cp.Options) {
			add("checkpoint %d: correct index %d out of range", i+1, cp.CorrectIndex)
		}
	}

	seen := make(map[int]bool, len(c.Questions))
	for i, q := range c.Questions {
		if q.CorrectIndex >= len(q.Options) {
			add("question %d: correct index %d out of range", i+1, q.CorrectIndex)
		}
		if q.Type == training.QuestionTrueFalse && len(q.Options) != 2 {
			add("question %d: true-false needs exactly 2 options", i+1)
		}
		if seen[q.ID] {
			add("question %d: duplicate id %d", i+1, q.ID)
		}
		seen[q.ID] = true
	}

	if c.IsActive && len(c.Questions) == 0 {
		add("an active course needs at least one question")
	}

	if len(problems) > 0 {
		return &ValidationError{CourseID: c.ID, Problems: problems}
	}
	return nil
}

// CanonicalVersion adds the leading "v" semver expects.
func CanonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
