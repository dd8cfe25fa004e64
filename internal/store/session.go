package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// sessionRepo implements SessionRepo on the session_state table.
type sessionRepo struct {
	db *sql.DB
}

func (r *sessionRepo) Get(ctx context.Context, key string) (string, bool, error) {
	sel := builder().Select("value").
		From(entsql.Table("session_state")).
		Where(entsql.EQ("key", key))
	stmt, args := sel.Query()

	var v string
	if err := r.db.QueryRowContext(ctx, stmt, args...).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query session key %s: %w", key, err)
	}
	return v, true, nil
}

func (r *sessionRepo) Set(ctx context.Context, key, value string) error {
	ins := builder().Insert("session_state").
		Columns("key", "value", "updated_at").
		Values(key, value, formatTime(time.Now())).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		)
	if _, err := exec(ctx, r.db, ins); err != nil {
		return fmt.Errorf("set session key %s: %w", key, err)
	}
	return nil
}

func (r *sessionRepo) Delete(ctx context.Context, key string) error {
	if _, err := exec(ctx, r.db, builder().Delete("session_state").Where(entsql.EQ("key", key))); err != nil {
		return fmt.Errorf("delete session key %s: %w", key, err)
	}
	return nil
}

func (r *sessionRepo) DeletePrefix(ctx context.Context, prefix string) error {
	del := builder().Delete("session_state").Where(entsql.HasPrefix("key", prefix))
	if _, err := exec(ctx, r.db, del); err != nil {
		return fmt.Errorf("delete session prefix %s: %w", prefix, err)
	}
	return nil
}

func (r *sessionRepo) Keys(ctx context.Context, prefix string) ([]string, error) {
	sel := builder().Select("key").
		From(entsql.Table("session_state")).
		Where(entsql.HasPrefix("key", prefix)).
		OrderBy("key")
	rows, err := query(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query session keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan session key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
