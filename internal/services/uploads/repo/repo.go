// Package repo writes uploaded contacts and upload outcomes
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ringroster/internal/modkit/repokit"
	perr "ringroster/internal/platform/errors"
	"ringroster/internal/platform/store"
	"ringroster/internal/services/uploads/domain"
)

// Repo is the Postgres surface of the uploads service
type Repo interface {
	// UpsertContact inserts p or updates the contact with the same phone
	UpsertContact(ctx context.Context, tenantID, listID, id string, p domain.Prepared, at time.Time) error
	InsertOutcome(ctx context.Context, tenantID string, o domain.Outcome) error
	GetOutcome(ctx context.Context, tenantID, id string) (domain.Outcome, error)
}

type (
	// PG is the Postgres implementation
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a binder for the Postgres implementation
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind attaches a Queryer
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

// custom fields merge key by key so a later upload only overwrites what it sends
// a blank email keeps the stored one, and the stored key's last token (its folded email) with it
const upsertSQL = `
INSERT INTO contacts (id, tenant_id, list_id, name, phone, email, custom_fields, search_key, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $9)
ON CONFLICT (tenant_id, phone) DO UPDATE SET
    name          = EXCLUDED.name,
    email         = CASE WHEN EXCLUDED.email = '' THEN contacts.email ELSE EXCLUDED.email END,
    list_id       = coalesce(EXCLUDED.list_id, contacts.list_id),
    custom_fields = contacts.custom_fields || EXCLUDED.custom_fields,
    search_key    = CASE
                      WHEN EXCLUDED.email = '' AND contacts.email <> ''
                      THEN EXCLUDED.search_key || ' ' || substring(contacts.search_key from '[^ ]+$')
                      ELSE EXCLUDED.search_key
                    END,
    updated_at    = EXCLUDED.updated_at`

func (r *queries) UpsertContact(ctx context.Context, tenantID, listID, id string, p domain.Prepared, at time.Time) error {
	cf := p.CustomFields
	if cf == nil {
		cf = map[string]any{}
	}
	raw, err := json.Marshal(cf)
	if err != nil {
		return perr.WithField(perr.InvalidArgf("custom fields: %v", err), "custom_fields")
	}
	_, err = r.q.Exec(ctx, upsertSQL, id, tenantID, listID, p.Name, p.Phone, p.Email, string(raw), p.SearchKey, at)
	if err != nil {
		return perr.FromPostgresWithField(err, "upsert contact")
	}
	return nil
}

func (r *queries) InsertOutcome(ctx context.Context, tenantID string, o domain.Outcome) error {
	errs := o.Errors
	if errs == nil {
		errs = []domain.RowError{}
	}
	raw, err := json.Marshal(errs)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO contact_uploads (id, tenant_id, source_name, list_id, success_count, failure_count, errors, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)`,
		o.UploadID, tenantID, o.SourceName, o.ListID, o.SuccessCount, o.FailureCount, string(raw), o.CreatedAt)
	if err != nil {
		return perr.FromPostgres(err, "insert upload outcome")
	}
	return nil
}

func scanOutcome(r store.Row) (domain.Outcome, error) {
	var (
		o   domain.Outcome
		raw []byte
	)
	if err := r.Scan(&o.UploadID, &o.SourceName, &o.ListID, &o.SuccessCount, &o.FailureCount, &raw, &o.CreatedAt); err != nil {
		return o, err
	}
	o.Errors = []domain.RowError{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &o.Errors); err != nil {
			return o, err
		}
	}
	return o, nil
}

func (r *queries) GetOutcome(ctx context.Context, tenantID, id string) (domain.Outcome, error) {
	o, err := store.One(ctx, r.q, scanOutcome, `
		SELECT id::text, source_name, coalesce(list_id, ''), success_count, failure_count, errors, created_at
		  FROM contact_uploads
		 WHERE tenant_id = $1 AND id = $2::uuid`, tenantID, id)
	if errors.Is(err, perr.ErrNotFound) {
		return domain.Outcome{}, perr.NotFoundf("upload %s not found", id)
	}
	if err != nil {
		return domain.Outcome{}, perr.FromPostgres(err, "get upload outcome")
	}
	return o, nil
}
