package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// Memory is an in-process Backend for tests. It mirrors the SQLite
// semantics.
type Memory struct {
	mu       sync.Mutex
	courses  map[string]training.Course
	codes    map[string]training.AccessCode
	results  []training.TestResult
	markers  map[string]string
	sessions map[string]string
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		courses:  make(map[string]training.Course),
		codes:    make(map[string]training.AccessCode),
		markers:  make(map[string]string),
		sessions: make(map[string]string),
	}
}

func (m *Memory) Courses() CourseRepo         { return memCourses{m} }
func (m *Memory) AccessCodes() AccessCodeRepo { return memCodes{m} }
func (m *Memory) Results() ResultRepo         { return memResults{m} }
func (m *Memory) Seats() SeatRepo             { return memSeats{m} }
func (m *Memory) Sessions() SessionRepo       { return memSessions{m} }

// cloneCourse deep-copies through JSON so callers can't alias stored slices.
func cloneCourse(c training.Course) training.Course {
	b, _ := json.Marshal(c)
	var out training.Course
	_ = json.Unmarshal(b, &out)
	return out
}

func cloneCode(c training.AccessCode) training.AccessCode {
	c.AuditLog = append([]training.SeatAuditEntry(nil), c.AuditLog...)
	return c
}

type memCourses struct{ m *Memory }

func (r memCourses) Upsert(_ context.Context, c *training.Course) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.courses[c.ID] = cloneCourse(*c)
	return nil
}

func (r memCourses) Get(_ context.Context, id string) (*training.Course, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.courses[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneCourse(c)
	return &out, nil
}

func (r memCourses) List(_ context.Context) ([]training.Course, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]training.Course, 0, len(r.m.courses))
	for _, c := range r.m.courses {
		out = append(out, cloneCourse(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r memCourses) SetActive(_ context.Context, id string, active bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.courses[id]
	if !ok {
		return ErrNotFound
	}
	c.IsActive = active
	r.m.courses[id] = c
	return nil
}

type memCodes struct{ m *Memory }

func (r memCodes) Create(_ context.Context, c *training.AccessCode) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	code := training.NormalizeCode(c.Code)
	for _, existing := range r.m.codes {
		if existing.Code == code {
			return ErrDuplicate
		}
	}
	stored := cloneCode(*c)
	stored.Code = code
	r.m.codes[c.ID] = stored
	return nil
}

func (r memCodes) Get(_ context.Context, id string) (*training.AccessCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.codes[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneCode(c)
	return &out, nil
}

func (r memCodes) FindByCode(_ context.Context, code string) (*training.AccessCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, c := range r.m.codes {
		if training.SameCode(c.Code, code) {
			out := cloneCode(c)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r memCodes) List(_ context.Context) ([]training.AccessCode, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]training.AccessCode, 0, len(r.m.codes))
	for _, c := range r.m.codes {
		out = append(out, cloneCode(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

func (r memCodes) Update(_ context.Context, c *training.AccessCode) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	existing, ok := r.m.codes[c.ID]
	if !ok {
		return ErrNotFound
	}
	updated := cloneCode(*c)
	updated.Code = existing.Code
	updated.CreatedAt = existing.CreatedAt
	r.m.codes[c.ID] = updated
	return nil
}

func (r memCodes) Delete(_ context.Context, id string) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.codes[id]
	if !ok {
		return 0, ErrNotFound
	}

	kept := r.m.results[:0]
	removed := 0
	for _, res := range r.m.results {
		if training.SameCode(res.Learner.AccessCode, c.Code) {
			removed++
			continue
		}
		kept = append(kept, res)
	}
	r.m.results = kept

	for key, code := range r.m.markers {
		if training.SameCode(code, c.Code) {
			delete(r.m.markers, key)
		}
	}
	delete(r.m.codes, id)
	return removed, nil
}

type memResults struct{ m *Memory }

func (r memResults) Append(_ context.Context, res *training.TestResult) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.results {
		if existing.CompletionID == res.CompletionID {
			return ErrDuplicate
		}
	}
	r.m.results = append(r.m.results, *res)
	return nil
}

func (r memResults) List(_ context.Context) ([]training.TestResult, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := append([]training.TestResult(nil), r.m.results...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].CompletionID > out[j].CompletionID
	})
	return out, nil
}

func (r memResults) CompletionIDExists(_ context.Context, completionID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, res := range r.m.results {
		if res.CompletionID == completionID {
			return true, nil
		}
	}
	return false, nil
}

type memSeats struct{ m *Memory }

func (r memSeats) ConsumeSeat(_ context.Context, code, key string) (SeatOutcome, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.markers[key]; ok {
		return SeatAlreadyApplied, nil
	}
	for id, c := range r.m.codes {
		if !training.SameCode(c.Code, code) {
			continue
		}
		if c.SeatMode != training.SeatModeLimited {
			return SeatNotRequired, nil
		}
		if c.SeatsUsed >= c.SeatAllowance {
			return SeatExhausted, nil
		}
		c.SeatsUsed++
		r.m.codes[id] = c
		r.m.markers[key] = c.Code
		return SeatConsumed, nil
	}
	return SeatNotRequired, nil
}

type memSessions struct{ m *Memory }

func (r memSessions) Get(_ context.Context, key string) (string, bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	v, ok := r.m.sessions[key]
	return v, ok, nil
}

func (r memSessions) Set(_ context.Context, key, value string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.sessions[key] = value
	return nil
}

func (r memSessions) Delete(_ context.Context, key string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.sessions, key)
	return nil
}

func (r memSessions) DeletePrefix(_ context.Context, prefix string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for k := range r.m.sessions {
		if strings.HasPrefix(k, prefix) {
			delete(r.m.sessions, k)
		}
	}
	return nil
}

func (r memSessions) Keys(_ context.Context, prefix string) ([]string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var keys []string
	for k := range r.m.sessions {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
