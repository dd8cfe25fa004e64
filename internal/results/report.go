package results

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// DefaultPageSize is used when a Query does not set one.
const DefaultPageSize = 20

// Query filters and paginates results.
type Query struct {
	// Search matches learner first/last name, company name and course name.
	Search string
	// Code restricts results to one access code.
	Code string
	// Page is 1-based. Zero means the first page.
	Page int
	// PageSize zero means DefaultPageSize; negative returns everything.
	PageSize int
}

// Page is one slice of a filtered result list.
type Page struct {
	Items []training.TestResult
	Total int
	Page  int
	Pages int
}

// Filter applies q to results, newest first.
func Filter(results []training.TestResult, q Query) Page {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	var matched []training.TestResult
	for _, r := range results {
		if q.Code != "" && !training.SameCode(r.Learner.AccessCode, q.Code) {
			continue
		}
		if search != "" && !matches(r, search) {
			continue
		}
		matched = append(matched, r)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CompletedAt.After(matched[j].CompletedAt)
	})

	size := q.PageSize
	if size == 0 {
		size = DefaultPageSize
	}
	if size < 0 {
		return Page{Items: matched, Total: len(matched), Page: 1, Pages: 1}
	}

	pages := (len(matched) + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return Page{Items: matched[start:end], Total: len(matched), Page: page, Pages: pages}
}

func matches(r training.TestResult, search string) bool {
	for _, field := range []string{
		r.Learner.FirstName,
		r.Learner.LastName,
		r.Learner.FullName(),
		r.Learner.CompanyName,
		r.CourseName,
	} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// csvHeader is the fixed header of the results export.
var csvHeader = []string{"Completion ID", "Training", "Learner", "Company", "Status", "Date"}

// ExportCSV writes results as CSV in the order given.
func ExportCSV(w io.Writer, results []training.TestResult) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		status := "Fail"
		if r.Passed {
			status = "Pass"
		}
		row := []string{
			r.CompletionID,
			r.CourseName,
			r.Learner.FullName(),
			r.Learner.CompanyName,
			status,
			r.CompletedAt.Format("2006-01-02"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.CompletionID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ExportFilename is the suggested file name for an export made at t.
func ExportFilename(t time.Time) string {
	return "safetyhub-results-" + t.Format("2006-01-02") + ".csv"
}

// TrendPoint is the number of passed completions on one day.
type TrendPoint struct {
	Day    time.Time
	Passed int
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	TotalCompanies   int
	TotalPassed      int
	PassedLast30Days int
	SeatsUsed        int
	SeatsAllowed     int
	Trend            []TrendPoint
	Recent           []training.TestResult
}

// Trend windows offered by the dashboard.
var TrendWindows = []int{7, 30, 90}

// recentCount is how many results the dashboard lists.
const recentCount = 10

// Dashboard aggregates codes and results relative to now. trendDays is
// clamped to one of TrendWindows.
func Dashboard(codes []training.AccessCode, results []training.TestResult, now time.Time, trendDays int) *Stats {
	s := &Stats{TotalCompanies: len(codes)}
	for _, c := range codes {
		if c.SeatMode == training.SeatModeLimited {
			s.SeatsUsed += c.SeatsUsed
			s.SeatsAllowed += c.SeatAllowance
		}
	}

	trendDays = clampWindow(trendDays)
	today := startOfDay(now)
	first := today.AddDate(0, 0, -(trendDays - 1))
	counts := make(map[string]int, trendDays)
	monthAgo := now.AddDate(0, 0, -30)

	for _, r := range results {
		if !r.Passed {
			continue
		}
		s.TotalPassed++
		if !r.CompletedAt.Before(monthAgo) && !r.CompletedAt.After(now) {
			s.PassedLast30Days++
		}
		day := startOfDay(r.CompletedAt.In(now.Location()))
		if !day.Before(first) && !day.After(today) {
			counts[day.Format("2006-01-02")]++
		}
	}

	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		s.Trend = append(s.Trend, TrendPoint{Day: d, Passed: counts[d.Format("2006-01-02")]})
	}

	recent := append([]training.TestResult(nil), results...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CompletedAt.After(recent[j].CompletedAt)
	})
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}
	s.Recent = recent
	return s
}

func clampWindow(days int) int {
	for _, w := range TrendWindows {
		if days <= w {
			return w
		}
	}
	return TrendWindows[len(TrendWindows)-1]
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseWindow parses a trend window such as "7", "30d" or "90".
func ParseWindow(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "d"))
	if err != nil {
		return 0, fmt.Errorf("parse trend window %q: %w", s, err)
	}
	for _, w := range TrendWindows {
		if n == w {
			return n, nil
		}
	}
	return 0, fmt.Errorf("trend window must be one of 7, 30 or 90 days, got %d", n)
}
