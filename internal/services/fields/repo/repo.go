// Package repo persists custom field definitions in Postgres
package repo

import (
	"context"
	"errors"

	"ringroster/internal/modkit/repokit"
	perr "ringroster/internal/platform/errors"
	"ringroster/internal/platform/store"
	"ringroster/internal/services/fields/domain"
)

// Repo is the persistence surface of the fields service
type Repo interface {
	List(ctx context.Context, tenantID string, enabledOnly bool) ([]domain.Field, error)
	Get(ctx context.Context, tenantID, id string) (domain.Field, error)
	Insert(ctx context.Context, f domain.Field) error
	Update(ctx context.Context, f domain.Field) error
	Delete(ctx context.Context, tenantID, id string) error
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

const columns = `id::text, key, label, type, description, options, enabled, position, created_at, updated_at`

func scanField(r store.Row) (domain.Field, error) {
	var f domain.Field
	var typ string
	err := r.Scan(&f.ID, &f.Key, &f.Label, &typ, &f.Description, &f.Options, &f.Enabled, &f.Position, &f.CreatedAt, &f.UpdatedAt)
	f.Type = domain.FieldType(typ)
	if f.Options == nil {
		f.Options = []string{}
	}
	return f, err
}

func (r *queries) List(ctx context.Context, tenantID string, enabledOnly bool) ([]domain.Field, error) {
	sql := `SELECT ` + columns + ` FROM custom_fields WHERE tenant_id = $1`
	if enabledOnly {
		sql += ` AND enabled`
	}
	sql += ` ORDER BY position, key`
	fs, err := store.Many(ctx, r.q, scanField, sql, tenantID)
	if err != nil {
		return nil, perr.FromPostgres(err, "list custom fields")
	}
	for i := range fs {
		fs[i].TenantID = tenantID
	}
	return fs, nil
}

func (r *queries) Get(ctx context.Context, tenantID, id string) (domain.Field, error) {
	f, err := store.One(ctx, r.q, scanField,
		`SELECT `+columns+` FROM custom_fields WHERE tenant_id = $1 AND id = $2::uuid`, tenantID, id)
	if errors.Is(err, perr.ErrNotFound) {
		return domain.Field{}, perr.NotFoundf("custom field %s not found", id)
	}
	if err != nil {
		return domain.Field{}, perr.FromPostgres(err, "get custom field")
	}
	f.TenantID = tenantID
	return f, nil
}

func (r *queries) Insert(ctx context.Context, f domain.Field) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO custom_fields (id, tenant_id, key, label, type, description, options, enabled, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`,
		f.ID, f.TenantID, f.Key, f.Label, string(f.Type), f.Description, f.Options, f.Enabled, f.Position, f.CreatedAt)
	if perr.IsDuplicateKey(err) {
		return perr.WithField(perr.Conflictf("custom field %q already exists", f.Key), "key")
	}
	if err != nil {
		return perr.FromPostgres(err, "insert custom field")
	}
	return nil
}

func (r *queries) Update(ctx context.Context, f domain.Field) error {
	err := store.ExecOne(ctx, r.q, `
		UPDATE custom_fields
		   SET label = $3, description = $4, options = $5, enabled = $6, position = $7, updated_at = $8
		 WHERE tenant_id = $1 AND id = $2::uuid`,
		f.TenantID, f.ID, f.Label, f.Description, f.Options, f.Enabled, f.Position, f.UpdatedAt)
	if errors.Is(err, store.ErrNoRowsAffected) {
		return perr.NotFoundf("custom field %s not found", f.ID)
	}
	if err != nil {
		return perr.FromPostgres(err, "update custom field")
	}
	return nil
}

func (r *queries) Delete(ctx context.Context, tenantID, id string) error {
	err := store.ExecOne(ctx, r.q, `DELETE FROM custom_fields WHERE tenant_id = $1 AND id = $2::uuid`, tenantID, id)
	if errors.Is(err, store.ErrNoRowsAffected) {
		return perr.NotFoundf("custom field %s not found", id)
	}
	if err != nil {
		return perr.FromPostgres(err, "delete custom field")
	}
	return nil
}
