//go:build integration_pg

package store

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	perr "ringroster/internal/platform/errors"
	"ringroster/internal/platform/testkit/pgcontainer"

	"github.com/rs/zerolog"
)

func openIntegration(t *testing.T) (*pgAdapter, context.Context) {
	t.Helper()
	dsn := pgcontainer.Start(t)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	s := &Store{Log: zerolog.New(io.Discard)}
	txr, err := openPG(ctx, Config{PG: PGConfig{URL: dsn, MaxConns: 2, LogSQL: true}}, s)
	if err != nil {
		t.Fatalf("openPG: %v", err)
	}
	a := txr.(*pgAdapter)
	t.Cleanup(func() { _ = a.Close() })

	if _, err := a.Exec(ctx, `
		CREATE TABLE people (
			id    SERIAL PRIMARY KEY,
			phone TEXT NOT NULL UNIQUE,
			name  TEXT NOT NULL
		)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return a, ctx
}

func TestSQLAdapter_Integration_QueryHelpers(t *testing.T) {
	a, ctx := openIntegration(t)

	if _, err := a.Exec(ctx, `INSERT INTO people (phone, name) VALUES ($1, $2), ($3, $4)`,
		"+15550001", "zoe", "+15550002", "ada"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	names, err := Many(ctx, a, func(r Row) (string, error) {
		var s string
		return s, r.Scan(&s)
	}, `SELECT name FROM people ORDER BY id`)
	if err != nil || len(names) != 2 || names[0] != "zoe" {
		t.Fatalf("many: %v %v", names, err)
	}

	n, err := Scalar[int64](ctx, a, `SELECT count(*) FROM people`)
	if err != nil || n != 2 {
		t.Fatalf("scalar: %d %v", n, err)
	}

	if err := ExecOne(ctx, a, `DELETE FROM people WHERE phone = $1`, "+15559999"); !errors.Is(err, perr.ErrNotFound) {
		t.Fatalf("expected not found for missing row, got %v", err)
	}
}

func TestSQLAdapter_Integration_SavepointKeepsGoodRows(t *testing.T) {
	a, ctx := openIntegration(t)

	phones := []string{"+15550001", "+15550002", "+15550001", "+15550003"}
	var failed []int
	err := a.Tx(ctx, func(q RowQuerier) error {
		for i, p := range phones {
			err := Savepoint(ctx, q, func(sp RowQuerier) error {
				_, err := sp.Exec(ctx, `INSERT INTO people (phone, name) VALUES ($1, 'x')`, p)
				return err
			})
			if err != nil {
				if !perr.IsDuplicateKey(err) {
					return err
				}
				failed = append(failed, i)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	if len(failed) != 1 || failed[0] != 2 {
		t.Fatalf("expected row 2 to fail, got %v", failed)
	}

	n, err := Scalar[int64](ctx, a, `SELECT count(*) FROM people`)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 committed rows, got %d %v", n, err)
	}
}

func TestSQLAdapter_Integration_RollbackDiscardsAll(t *testing.T) {
	a, ctx := openIntegration(t)

	boom := errors.New("abort")
	err := a.Tx(ctx, func(q RowQuerier) error {
		if _, err := q.Exec(ctx, `INSERT INTO people (phone, name) VALUES ('+1555', 'x')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected abort, got %v", err)
	}
	n, _ := Scalar[int64](ctx, a, `SELECT count(*) FROM people`)
	if n != 0 {
		t.Fatalf("rollback left %d rows", n)
	}
}
