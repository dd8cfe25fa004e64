package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/labinot-bajgora/ECK-safety/internal/training"
)

// seatRepo implements SeatRepo on SQLite.
type seatRepo struct {
	db *sql.DB
}

// ConsumeSeat runs marker check, guarded increment and marker insert in
// one transaction. The increment only matches while seats_used is below
// the allowance, so the allowance can never be overdrawn.
func (r *seatRepo) ConsumeSeat(ctx context.Context, code, key string) (SeatOutcome, error) {
	outcome := SeatNotRequired
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		exists, err := markerExists(ctx, tx, key)
		if err != nil {
			return err
		}
		if exists {
			outcome = SeatAlreadyApplied
			return nil
		}

		sel := builder().Select("code", "seat_mode").
			From(entsql.Table("access_codes")).
			Where(entsql.EqualFold("code", training.NormalizeCode(code)))
		stmt, args := sel.Query()

		var stored, mode string
		if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&stored, &mode); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("query access code: %w", err)
		}
		if training.SeatMode(mode) != training.SeatModeLimited {
			return nil
		}

		upd := builder().Update("access_codes").
			Add("seats_used", 1).
			Where(entsql.And(
				entsql.EQ("code", stored),
				entsql.ColumnsLT("seats_used", "seat_allowance"),
			))
		res, err := exec(ctx, tx, upd)
		if err != nil {
			return fmt.Errorf("increment seats: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("increment seats: %w", err)
		}
		if n == 0 {
			outcome = SeatExhausted
			return nil
		}

		ins := builder().Insert("idempotency_keys").
			Columns("key", "access_code", "created_at").
			Values(key, stored, formatTime(time.Now()))
		if _, err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("insert idempotency key: %w", err)
		}
		outcome = SeatConsumed
		return nil
	})
	if err != nil {
		return SeatNotRequired, err
	}
	return outcome, nil
}

func markerExists(ctx context.Context, q querier, key string) (bool, error) {
	sel := builder().Select(entsql.Count("*")).
		From(entsql.Table("idempotency_keys")).
		Where(entsql.EQ("key", key))
	stmt, args := sel.Query()

	var n int
	if err := q.QueryRowContext(ctx, stmt, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("query idempotency key: %w", err)
	}
	return n > 0, nil
}
