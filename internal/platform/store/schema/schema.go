// Package schema carries the embedded Postgres migrations and the ClickHouse audit table
package schema

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"ringroster/internal/platform/logger"
	"ringroster/internal/platform/store"
)

//go:embed migrations/*.sql
var files embed.FS

// lockKey serializes concurrent migrators on one database
const lockKey = 7410321

// Migration is one numbered SQL file
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrations lists the embedded files ordered by version
func Migrations() ([]Migration, error) { return load(files) }

func load(fsys fs.FS) ([]Migration, error) {
	names, err := fs.Glob(fsys, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	out := make([]Migration, 0, len(names))
	seen := map[int]string{}
	for _, n := range names {
		base := path.Base(n)
		num, _, ok := strings.Cut(base, "_")
		v, err := strconv.Atoi(num)
		if !ok || err != nil || v <= 0 {
			return nil, fmt.Errorf("schema: bad migration name %q", base)
		}
		if prev, dup := seen[v]; dup {
			return nil, fmt.Errorf("schema: version %d used by %q and %q", v, prev, base)
		}
		seen[v] = base
		b, err := fs.ReadFile(fsys, n)
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Version: v, Name: base, SQL: string(b)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Apply runs every migration newer than the recorded version inside one transaction
// and returns the version the database ends at
func Apply(ctx context.Context, db store.TxRunner) (int, error) {
	ms, err := Migrations()
	if err != nil {
		return 0, err
	}
	return apply(ctx, db, ms)
}

func apply(ctx context.Context, db store.TxRunner, ms []Migration) (int, error) {
	log := logger.Named("schema")
	var current int
	err := db.Tx(ctx, func(q store.RowQuerier) error {
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); err != nil {
			return fmt.Errorf("schema: lock: %w", err)
		}
		if _, err := q.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
			version    integer     PRIMARY KEY,
			name       text        NOT NULL,
			applied_at timestamptz NOT NULL DEFAULT now()
		)`); err != nil {
			return fmt.Errorf("schema: bookkeeping table: %w", err)
		}
		v, err := store.Scalar[int](ctx, q, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
		if err != nil {
			return fmt.Errorf("schema: read version: %w", err)
		}
		current = v
		for _, m := range ms {
			if m.Version <= current {
				continue
			}
			if _, err := q.Exec(ctx, m.SQL); err != nil {
				return fmt.Errorf("schema: apply %s: %w", m.Name, err)
			}
			if _, err := q.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
				return fmt.Errorf("schema: record %s: %w", m.Name, err)
			}
			log.Info().Int("version", m.Version).Str("name", m.Name).Msg("migration applied")
			current = m.Version
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return current, nil
}

// UploadEventsTable is the ClickHouse audit table written by the uploads service
const UploadEventsTable = "upload_events"

// UploadEventsDDL creates UploadEventsTable
const UploadEventsDDL = `CREATE TABLE IF NOT EXISTS ` + UploadEventsTable + ` (
	upload_id     String,
	tenant_id     String,
	source_name   String,
	success_count UInt32,
	failure_count UInt32,
	created_at    DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (tenant_id, created_at)`

// ApplyClickhouse creates the audit table when it is missing
func ApplyClickhouse(ctx context.Context, c store.Clickhouse) error {
	if c == nil {
		return nil
	}
	if err := c.Exec(ctx, UploadEventsDDL); err != nil {
		return fmt.Errorf("schema: clickhouse: %w", err)
	}
	return nil
}
