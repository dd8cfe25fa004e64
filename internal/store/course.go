package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// courseRepo implements CourseRepo on SQLite. The full course is kept as
// a JSON document; the scalar columns exist for ordering and filtering.
type courseRepo struct {
	db *sql.DB
}

func (r *courseRepo) Upsert(ctx context.Context, c *training.Course) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal course: %w", err)
	}

	ins := builder().Insert("courses").
		Columns("id", "title", "version", "is_active", "created_at", "document").
		Values(c.ID, c.Title, c.Version, boolInt(c.IsActive), formatTime(c.CreatedAt), string(doc)).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		)
	if _, err := exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("upsert course: %w", err)
	}
	return nil
}

func (r *courseRepo) Get(ctx context.Context, id string) (*training.Course, error) {
	sel := builder().Select("document").
		From(entsql.Table("courses")).
		Where(entsql.EQ("id", id))
	stmt, args := sel.Query()

	var doc string
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query course: %w", err)
	}
	return decodeCourse(doc)
}

func (r *courseRepo) List(ctx context.Context) ([]training.Course, error) {
	sel := builder().Select("document").
		From(entsql.Table("courses")).
		OrderBy("created_at", "id")
	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var out []training.Course
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		c, err := decodeCourse(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *courseRepo) SetActive(ctx context.Context, id string, active bool) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		sel := builder().Select("document").
			From(entsql.Table("courses")).
			Where(entsql.EQ("id", id))
		stmt, args := sel.Query()

		var doc string
		if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&doc); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("query course: %w", err)
		}
		c, err := decodeCourse(doc)
		if err != nil {
			return err
		}
		c.IsActive = active
		updated, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("marshal course: %w", err)
		}

		upd := builder().Update("courses").
			Set("is_active", boolInt(active)).
			Set("document", string(updated)).
			Where(entsql.EQ("id", id))
		if _, err := exec(ctx, tx, upd); err != nil {
			return fmt.Errorf("update course: %w", err)
		}
		return nil
	})
}

func decodeCourse(doc string) (*training.Course, error) {
	var c training.Course
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return nil, fmt.Errorf("decode course: %w", err)
	}
	return &c, nil
}
