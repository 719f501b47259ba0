package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"ringroster/internal/platform/store/pg"
	"ringroster/internal/platform/testkit"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestRetry_BacksOffUntilSuccess(t *testing.T) {
	testkit.Serial(t)
	var pauses []time.Duration
	testkit.Swap(t, &sleep, func(_ context.Context, d time.Duration) error {
		pauses = append(pauses, d)
		return nil
	})

	calls := 0
	err := retry(context.Background(), 10, func(context.Context) error {
		calls++
		if calls < 6 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil || calls != 6 {
		t.Fatalf("calls=%d err=%v", calls, err)
	}
	want := []time.Duration{150 * time.Millisecond, 300 * time.Millisecond, 600 * time.Millisecond, 1200 * time.Millisecond, 2 * time.Second}
	if len(pauses) != len(want) {
		t.Fatalf("pauses %v", pauses)
	}
	for i := range want {
		if pauses[i] != want[i] {
			t.Fatalf("pause %d = %v, want %v", i, pauses[i], want[i])
		}
	}
}

func TestRetry_ExhaustedAndCanceled(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &sleep, func(context.Context, time.Duration) error { return nil })

	last := errors.New("refused")
	err := retry(context.Background(), 3, func(context.Context) error { return last })
	if !errors.Is(err, last) {
		t.Fatalf("expected last error wrapped, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	testkit.Swap(t, &sleep, func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	})
	err = retry(ctx, 5, func(context.Context) error { return last })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancel, got %v", err)
	}
}

func TestOpenPG_PingFailureClosesPool(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &sleep, func(context.Context, time.Duration) error { return nil })
	testkit.Swap(t, &openPool, func(context.Context, pg.Config, pg.QueryTracer, func(*pgxpool.Config)) (*pg.PG, error) {
		return &pg.PG{}, nil
	})
	pings := 0
	testkit.Swap(t, &pingPool, func(ctx context.Context, _ *pg.PG) error {
		pings++
		if _, ok := ctx.Deadline(); !ok {
			t.Errorf("each ping should carry a timeout")
		}
		return errors.New("refused")
	})

	cfg := Config{PG: PGConfig{Enabled: true, URL: "postgres://x", ConnectRetries: 3}}
	if _, err := openPG(context.Background(), cfg, &Store{}); err == nil {
		t.Fatalf("expected ping failure")
	}
	if pings != 3 {
		t.Fatalf("pinged %d times, want 3", pings)
	}
}

func TestOpenPG_OpenError(t *testing.T) {
	testkit.Serial(t)
	boom := errors.New("bad dsn")
	testkit.Swap(t, &openPool, func(context.Context, pg.Config, pg.QueryTracer, func(*pgxpool.Config)) (*pg.PG, error) {
		return nil, boom
	})
	if _, err := openPG(context.Background(), Config{PG: PGConfig{URL: "x"}}, &Store{}); !errors.Is(err, boom) {
		t.Fatalf("expected open error, got %v", err)
	}
}
