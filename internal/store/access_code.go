package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

var accessCodeColumns = []string{
	"id", "code", "company_name", "course_id", "seat_mode",
	"seat_allowance", "seats_used", "expires_at", "created_at", "audit_log",
}

// accessCodeRepo implements AccessCodeRepo on SQLite.
type accessCodeRepo struct {
	db *sql.DB
}

func (r *accessCodeRepo) Create(ctx context.Context, c *training.AccessCode) error {
	audit, err := json.Marshal(auditLogOrEmpty(c.AuditLog))
	if err != nil {
		return fmt.Errorf("marshal audit log: %w", err)
	}

	ins := builder().Insert("access_codes").
		Columns(accessCodeColumns...).
		Values(
			c.ID, training.NormalizeCode(c.Code), c.CompanyName, c.CourseID, string(c.SeatMode),
			c.SeatAllowance, c.SeatsUsed, formatTime(c.ExpiresAt), formatTime(c.CreatedAt), string(audit),
		)
	if _, err := exec(ctx, r.db, ins); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert access code: %w", err)
	}
	return nil
}

func (r *accessCodeRepo) Get(ctx context.Context, id string) (*training.AccessCode, error) {
	return r.queryOne(ctx, entsql.EQ("id", id))
}

func (r *accessCodeRepo) FindByCode(ctx context.Context, code string) (*training.AccessCode, error) {
	return r.queryOne(ctx, entsql.EqualFold("code", strings.TrimSpace(code)))
}

func (r *accessCodeRepo) queryOne(ctx context.Context, p *entsql.Predicate) (*training.AccessCode, error) {
	sel := builder().Select(accessCodeColumns...).
		From(entsql.Table("access_codes")).
		Where(p).
		Limit(1)
	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query access code: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query access code: %w", err)
		}
		return nil, ErrNotFound
	}
	return scanAccessCode(rows)
}

func (r *accessCodeRepo) List(ctx context.Context) ([]training.AccessCode, error) {
	sel := builder().Select(accessCodeColumns...).
		From(entsql.Table("access_codes")).
		OrderBy(entsql.Desc("created_at"), "code")
	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query access codes: %w", err)
	}
	defer rows.Close()

	var out []training.AccessCode
	for rows.Next() {
		c, err := scanAccessCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *accessCodeRepo) Update(ctx context.Context, c *training.AccessCode) error {
	audit, err := json.Marshal(auditLogOrEmpty(c.AuditLog))
	if err != nil {
		return fmt.Errorf("marshal audit log: %w", err)
	}

	upd := builder().Update("access_codes").
		Set("company_name", c.CompanyName).
		Set("course_id", c.CourseID).
		Set("seat_mode", string(c.SeatMode)).
		Set("seat_allowance", c.SeatAllowance).
		Set("seats_used", c.SeatsUsed).
		Set("expires_at", formatTime(c.ExpiresAt)).
		Set("audit_log", string(audit)).
		Where(entsql.EQ("id", c.ID))
	res, err := exec(ctx, r.db, upd)
	if err != nil {
		return fmt.Errorf("update access code: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *accessCodeRepo) Delete(ctx context.Context, id string) (int, error) {
	var removed int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		sel := builder().Select("code").
			From(entsql.Table("access_codes")).
			Where(entsql.EQ("id", id))
		stmt, args := sel.Query()

		var code string
		if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&code); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("query access code: %w", err)
		}

		res, err := exec(ctx, tx, builder().Delete("results").
			Where(entsql.EqualFold("access_code", code)))
		if err != nil {
			return fmt.Errorf("delete results: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("count deleted results: %w", err)
		}
		removed = int(n)

		if _, err := exec(ctx, tx, builder().Delete("idempotency_keys").
			Where(entsql.EqualFold("access_code", code))); err != nil {
			return fmt.Errorf("delete idempotency keys: %w", err)
		}

		if _, err := exec(ctx, tx, builder().Delete("access_codes").
			Where(entsql.EQ("id", id))); err != nil {
			return fmt.Errorf("delete access code: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func scanAccessCode(rows *sql.Rows) (*training.AccessCode, error) {
	var (
		c                training.AccessCode
		mode             string
		expires, created string
		audit            string
	)
	err := rows.Scan(
		&c.ID, &c.Code, &c.CompanyName, &c.CourseID, &mode,
		&c.SeatAllowance, &c.SeatsUsed, &expires, &created, &audit,
	)
	if err != nil {
		return nil, fmt.Errorf("scan access code: %w", err)
	}
	c.SeatMode = training.SeatMode(mode)
	if c.ExpiresAt, err = parseTime(expires); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(audit), &c.AuditLog); err != nil {
		return nil, fmt.Errorf("decode audit log: %w", err)
	}
	return &c, nil
}

func auditLogOrEmpty(log []training.SeatAuditEntry) []training.SeatAuditEntry {
	if log == nil {
		return []training.SeatAuditEntry{}
	}
	return log
}

// isUniqueViolation matches the SQLite constraint error text; the driver
// does not export a typed error for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
