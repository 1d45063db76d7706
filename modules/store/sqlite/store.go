package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flemzord/recall/internal/kv"
)

// LRange returns the inclusive [start, stop] slice of the list at key,
// newest first.
func (s *listStore) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	n, err := s.LLen(ctx, key)
	if err != nil {
		return nil, err
	}

	lo, hi, ok := kv.NormalizeRange(start, stop, n)
	if !ok {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT value FROM list_entries
		WHERE list_key = ?
		ORDER BY pos ASC
		LIMIT ? OFFSET ?`,
		key, hi-lo+1, lo,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: range %s: %w", key, err)
	}
	defer func() { _ = rows.Close() }()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("sqlite: scan range %s: %w", key, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: range rows %s: %w", key, err)
	}
	return values, nil
}

// LPush prepends values one at a time in argument order: each value gets a
// position below the current minimum, so the last value ends up at the head.
func (s *listStore) LPush(ctx context.Context, key string, values ...string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin push %s: %w", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	var minPos int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MIN(pos), 1) FROM list_entries WHERE list_key = ?", key,
	).Scan(&minPos); err != nil {
		return 0, fmt.Errorf("sqlite: head position %s: %w", key, err)
	}

	for i, v := range values {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO list_entries (list_key, pos, value) VALUES (?, ?, ?)",
			key, minPos-1-int64(i), v,
		); err != nil {
			return 0, fmt.Errorf("sqlite: push %s: %w", key, err)
		}
	}

	var length int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM list_entries WHERE list_key = ?", key,
	).Scan(&length); err != nil {
		return 0, fmt.Errorf("sqlite: length %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit push %s: %w", key, err)
	}
	return length, nil
}

// LLen returns the list length, 0 for an absent key.
func (s *listStore) LLen(ctx context.Context, key string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM list_entries WHERE list_key = ?", key,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count %s: %w", key, err)
	}
	return n, nil
}

// LTrim keeps only the inclusive [start, stop] range; an empty range
// removes the list entirely.
func (s *listStore) LTrim(ctx context.Context, key string, start, stop int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin trim %s: %w", key, err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int64
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM list_entries WHERE list_key = ?", key,
	).Scan(&n); err != nil {
		return fmt.Errorf("sqlite: count %s: %w", key, err)
	}

	lo, hi, ok := kv.NormalizeRange(start, stop, n)
	if !ok {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM list_entries WHERE list_key = ?", key,
		); err != nil {
			return fmt.Errorf("sqlite: clear %s: %w", key, err)
		}
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM list_entries
		WHERE list_key = ?1 AND pos NOT IN (
			SELECT pos FROM list_entries
			WHERE list_key = ?1
			ORDER BY pos ASC
			LIMIT ?2 OFFSET ?3
		)`,
		key, hi-lo+1, lo,
	); err != nil {
		return fmt.Errorf("sqlite: trim %s: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit trim %s: %w", key, err)
	}
	return nil
}

// Get returns the string value at key.
func (s *listStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM strings WHERE key = ?", key,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores a string value at key, replacing any previous value.
func (s *listStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO strings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`,
		key, value,
	); err != nil {
		return fmt.Errorf("sqlite: set %s: %w", key, err)
	}
	return nil
}

// Del removes keys from both tables in one transaction and reports how
// many existed.
func (s *listStore) Del(ctx context.Context, keys ...string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var deleted int64
	for _, key := range keys {
		res, err := tx.ExecContext(ctx, "DELETE FROM list_entries WHERE list_key = ?", key)
		if err != nil {
			return 0, fmt.Errorf("sqlite: delete list %s: %w", key, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			deleted++
		}

		res, err = tx.ExecContext(ctx, "DELETE FROM strings WHERE key = ?", key)
		if err != nil {
			return 0, fmt.Errorf("sqlite: delete string %s: %w", key, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			deleted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit delete: %w", err)
	}
	return deleted, nil
}

// Keys returns the keys of all existing lists.
func (s *listStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT list_key FROM list_entries")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("sqlite: scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: key rows: %w", err)
	}
	return keys, nil
}

// Close closes the underlying database. The module owns the *sql.DB and
// closes it on Stop; Close here is a no-op to avoid a double close.
func (s *listStore) Close() error { return nil }
