package store

import (
	"context"
	"errors"
	"time"

	"ringroster/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxConn is what the pool and an open pgx.Tx have in common
// Begin on a pgx.Tx starts a savepoint
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// sqlQuerier implements TxRunner over the pool or over a transaction
// every statement is reported to the tracer when one is configured
type sqlQuerier struct {
	conn   pgxConn
	tracer pg.QueryTracer
	slowMs int
}

// pgAdapter is the pool level querier, it also owns the pool
type pgAdapter struct {
	sqlQuerier
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	return &pgAdapter{
		sqlQuerier: sqlQuerier{conn: p.Pool, tracer: p.Tracer, slowMs: p.SlowMs},
		p:          p,
	}
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	var one int
	return a.QueryRow(ctx, "SELECT 1").Scan(&one)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (q sqlQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := q.conn.Exec(ctx, sql, args...)
	q.emit(ctx, sql, args, start, err)
	return tag{ct}, err
}

func (q sqlQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := q.conn.Query(ctx, sql, args...)
	q.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rows{r: rs}, nil
}

func (q sqlQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := q.conn.QueryRow(ctx, sql, args...)
	// the error only shows up on Scan, emit then
	return row{r: r, after: func(err error) { q.emit(ctx, sql, args, start, err) }}
}

// Tx begins a transaction, or a savepoint when q already runs inside one
// fn's error rolls back; a pgx.ErrTxClosed from rollback is not reported
func (q sqlQuerier) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := q.conn.Begin(ctx)
	if err != nil {
		return err
	}
	inner := sqlQuerier{conn: tx, tracer: q.tracer, slowMs: q.slowMs}
	if err := fn(inner); err != nil {
		if rerr := tx.Rollback(ctx); rerr != nil && !errors.Is(rerr, pgx.ErrTxClosed) {
			return errors.Join(err, rerr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func (q sqlQuerier) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if q.tracer == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	q.tracer.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      q.slowMs >= 0 && elapsedUS >= int64(q.slowMs)*1000,
	})
}

// pgx to store shims

type row struct {
	r     pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type rows struct{ r pgx.Rows }

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return x.r.Scan(dst...) }
func (x rows) Err() error            { return x.r.Err() }
func (x rows) Close()                { x.r.Close() }
func (x rows) Columns() []string {
	f := x.r.FieldDescriptions()
	out := make([]string, len(f))
	for i := range f {
		out[i] = f[i].Name
	}
	return out
}

type tag struct{ t pgconn.CommandTag }

func (t tag) String() string      { return t.t.String() }
func (t tag) RowsAffected() int64 { return t.t.RowsAffected() }
