package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var resultColumns = []string{
	"id", "completion_id", "first_name", "last_name", "company_name",
	"job_position", "access_code", "course_name", "score", "passed",
	"attempts", "completed_at", "seat_consumed", "seat_mode",
}

// resultRepo implements ResultRepo on SQLite. Rows are never updated.
type resultRepo struct {
	db *sql.DB
}

func (r *resultRepo) Append(ctx context.Context, res *training.TestResult) error {
	l := res.Learner
	ins := builder().Insert("results").
		Columns(resultColumns...).
		Values(
			res.ID, res.CompletionID, l.FirstName, l.LastName, l.CompanyName,
			l.JobPosition, l.AccessCode, res.CourseName, res.Score, boolInt(res.Passed),
			res.Attempts, formatTime(res.CompletedAt), boolInt(res.SeatConsumed), string(res.SeatModeAtCompletion),
		)
	if _, err := exec(ctx, r.db, ins); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

func (r *resultRepo) List(ctx context.Context) ([]training.TestResult, error) {
	sel := builder().Select(resultColumns...).
		From(entsql.Table("results")).
		OrderBy(entsql.Desc("completed_at"), entsql.Desc("completion_id"))
	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []training.TestResult
	for rows.Next() {
		var (
			res             training.TestResult
			passed, seat    int
			completed, mode string
		)
		err := rows.Scan(
			&res.ID, &res.CompletionID, &res.Learner.FirstName, &res.Learner.LastName, &res.Learner.CompanyName,
			&res.Learner.JobPosition, &res.Learner.AccessCode, &res.CourseName, &res.Score, &passed,
			&res.Attempts, &completed, &seat, &mode,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.Passed = passed != 0
		res.SeatConsumed = seat != 0
		res.SeatModeAtCompletion = training.SeatMode(mode)
		if res.CompletedAt, err = parseTime(completed); err != nil {
			return nil, fmt.Errorf("parse completed_at: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *resultRepo) CompletionIDExists(ctx context.Context, completionID string) (bool, error) {
	sel := builder().Select(entsql.Count("*")).
		From(entsql.Table("results")).
		Where(entsql.EQ("completion_id", completionID))
	stmt, args := sel.Query()

	var n int
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("count completion id: %w", err)
	}
	return n > 0, nil
}
