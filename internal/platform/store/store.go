// Package store is the facade over the optional backends: Postgres for contacts,
// ClickHouse for the upload audit trail and NATS for mutation events
package store

import (
	"context"
	"errors"
	"fmt"

	"ringroster/internal/platform/logger"
)

// Store holds the backends Open enabled
// zero value is safe but does nothing
type Store struct {
	// Log is handed to subclients, zero means a no op zerolog logger
	Log logger.Logger

	// PG is nil when Postgres is disabled
	PG TxRunner
	// CH is nil when ClickHouse is disabled
	CH Clickhouse
	// Bus is nil when NATS is disabled
	Bus Bus

	role, tag string
}

// Row exposes the minimal scan contract a single row needs
type Row interface {
	Scan(dest ...any) error
}

// Rows exposes the minimal iteration and scan for a result set
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
	Columns() []string
}

// CommandTag is a tiny interface to inspect command results
type CommandTag interface {
	String() string
	RowsAffected() int64
}

// RowQuerier is the read and write surface repos use for sql
type RowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// TxRunner runs fn in a transaction; a TxRunner handed out inside Tx nests with a savepoint
type TxRunner interface {
	RowQuerier
	Tx(ctx context.Context, fn func(q RowQuerier) error) error
}

// Clickhouse is the append-only audit seam
type Clickhouse interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Close() error
}

// Bus publishes and receives JSON events
type Bus interface {
	Publish(ctx context.Context, subject string, v any) error
	Subscribe(subject string, fn func(subject string, data []byte)) (unsubscribe func() error, err error)
	Close() error
}

// Pinger is any seam that can report readiness
type Pinger interface{ Ping(context.Context) error }

// Open constructs a Store with the requested backends
// backends not enabled in cfg remain nil; a failure closes what was already opened
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Logger()

	if cfg.PG.Enabled {
		p, err := openPG(ctx, cfg, s)
		if err != nil {
			return nil, err
		}
		s.PG = p
	}
	if cfg.CH.Enabled {
		c, err := openCH(ctx, cfg, s)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.CH = c
	}
	if cfg.NATS.Enabled {
		b, err := openBus(ctx, cfg, s)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.Bus = b
	}
	return s, nil
}

// Guard pings every backend that can answer a ping
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	var errs []error
	check := func(name string, v any) {
		if p, ok := v.(Pinger); ok && v != nil {
			if err := p.Ping(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
	}
	if s.PG != nil {
		check("pg", s.PG)
	}
	if s.CH != nil {
		check("ch", s.CH)
	}
	if s.Bus != nil {
		check("nats", s.Bus)
	}
	return errors.Join(errs...)
}

// Close closes all initialized backends, the bus first so in-flight events drain
func (s *Store) Close(ctx context.Context) error {
	var errs []error
	if s.Bus != nil {
		if e := s.Bus.Close(); e != nil {
			errs = append(errs, e)
		}
	}
	if s.CH != nil {
		if e := s.CH.Close(); e != nil {
			errs = append(errs, e)
		}
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		if e := c.Close(); e != nil {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}
