package repo

import (
	"context"
	"errors"
	"time"

	"ringroster/internal/platform/store"
	"ringroster/internal/platform/store/schema"
)

// Audit appends upload events to ClickHouse
type Audit struct {
	ch store.Clickhouse
}

// NewAudit returns an audit sink; nil when ch is nil so callers can skip it
func NewAudit(ch store.Clickhouse) *Audit {
	if ch == nil {
		return nil
	}
	return &Audit{ch: ch}
}

// Record appends one row to upload_events
func (a *Audit) Record(ctx context.Context, tenantID, uploadID, source string, success, failure int, at time.Time) error {
	if a == nil {
		return errors.New("audit: clickhouse disabled")
	}
	return a.ch.Insert(ctx, schema.UploadEventsTable, [][]any{{
		uploadID, tenantID, source, uint32(success), uint32(failure), at.UTC(),
	}})
}
