package store

import (
	"context"
	"fmt"
	"time"

	"ringroster/internal/platform/store/bus"
	chx "ringroster/internal/platform/store/ch"
	"ringroster/internal/platform/store/pg"
)

// seams for tests
var (
	openPool = pg.Open
	pingPool = func(ctx context.Context, p *pg.PG) error { return p.Pool.Ping(ctx) }
	openCHFn = func(ctx context.Context, cfg chx.Config) (chClient, error) {
		c, err := chx.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	openBusFn = func(ctx context.Context, cfg bus.Config) (Bus, error) {
		b, err := bus.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	sleep = func(ctx context.Context, d time.Duration) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
)

const (
	backoffStart   = 150 * time.Millisecond
	backoffCeiling = 2 * time.Second
)

// retry calls fn until it succeeds, attempts run out or ctx ends, doubling the pause up to a ceiling
func retry(ctx context.Context, attempts int, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	backoff := backoffStart
	for i := 0; i < attempts; i++ {
		if lastErr = fn(ctx); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = min(backoff*2, backoffCeiling)
	}
	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// openPG opens the pool, waits for the server to answer and wraps it in the sql adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}
	p, err := openPool(ctx, pg.Config{
		URL:      cfg.PG.URL,
		AppName:  cfg.AppName,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	attempts := cfg.PG.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	// ping the pool directly so boot noise stays out of the sql trace
	err = retry(ctx, attempts, func(ctx context.Context) error {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return pingPool(pctx, p)
	})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s.Log.Info().Int32("max_conns", cfg.PG.MaxConns).Bool("log_sql", cfg.PG.LogSQL).Msg("postgres ready")
	return newPGAdapter(p), nil
}

func openCH(ctx context.Context, cfg Config, s *Store) (Clickhouse, error) {
	role := s.role
	if role == "" {
		role = cfg.AppName
	}
	c, err := openCHFn(ctx, chx.Config{URL: cfg.CH.URL, Role: role, Tag: s.tag})
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("role", role).Msg("clickhouse ready")
	return newCHAdapter(c), nil
}

func openBus(ctx context.Context, cfg Config, s *Store) (Bus, error) {
	b, err := openBusFn(ctx, bus.Config{
		URL:     cfg.NATS.URL,
		Name:    cfg.AppName,
		Timeout: cfg.NATS.ConnectTimeout,
		Log:     s.Log,
	})
	if err != nil {
		return nil, err
	}
	s.Log.Info().Str("url", cfg.NATS.URL).Msg("nats ready")
	return b, nil
}
