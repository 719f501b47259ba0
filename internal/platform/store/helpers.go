package store

import (
	"context"
	"errors"
	"fmt"

	perr "ringroster/internal/platform/errors"
)

// ErrNoRowsAffected is returned by ExecOne when the statement touched nothing
var ErrNoRowsAffected = perr.ErrNotFound

// ExecOne runs a write and asserts exactly one row affected
// zero rows is ErrNoRowsAffected so callers can answer 404
func ExecOne(ctx context.Context, q RowQuerier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	switch n := tag.RowsAffected(); n {
	case 1:
		return nil
	case 0:
		return ErrNoRowsAffected
	default:
		return fmt.Errorf("expected exactly one row affected, got %d", n)
	}
}

// Scalar queries the first row, first column into T
func Scalar[T any](ctx context.Context, q RowQuerier, sql string, args ...any) (T, error) {
	var v T
	if err := q.QueryRow(ctx, sql, args...).Scan(&v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// One maps the single row of a query into T, perr.ErrNotFound when there is none
func One[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) (T, error) {
	var zero T
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return zero, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return zero, err
		}
		return zero, perr.ErrNotFound
	}
	item, err := scan(rows)
	if err != nil {
		return zero, err
	}
	if rows.Next() {
		return zero, errors.New("expected 1 row, got more")
	}
	return item, rows.Err()
}

// Many maps all rows into []T
func Many[T any](ctx context.Context, q RowQuerier, scan func(Row) (T, error), sql string, args ...any) ([]T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Savepoint runs fn in a nested transaction when q supports one, otherwise on q directly
// A failing fn rolls back only its own statements and the outer transaction stays usable
func Savepoint(ctx context.Context, q RowQuerier, fn func(q RowQuerier) error) error {
	if tx, ok := q.(TxRunner); ok {
		return tx.Tx(ctx, fn)
	}
	return fn(q)
}
