// Package repo reads contacts from Postgres
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ringroster/internal/modkit/repokit"
	perr "ringroster/internal/platform/errors"
	"ringroster/internal/platform/store"
	"ringroster/internal/services/contacts/domain"
)

// Repo is the persistence surface of the contacts service
type Repo interface {
	List(ctx context.Context, f domain.Filter, sort string, offset, limit int) ([]domain.Contact, error)
	Count(ctx context.Context, f domain.Filter) (int, error)
	Get(ctx context.Context, tenantID, id string) (domain.Contact, error)
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

var orderBy = map[string]string{
	domain.SortCreatedDesc: "created_at DESC, id DESC",
	domain.SortCreatedAsc:  "created_at ASC, id ASC",
	domain.SortNameAsc:     "lower(name) ASC, id ASC",
	domain.SortNameDesc:    "lower(name) DESC, id DESC",
}

const columns = `id::text, coalesce(list_id, ''), name, phone, email, status, custom_fields, created_at, updated_at`

func scanContact(r store.Row) (domain.Contact, error) {
	var (
		c      domain.Contact
		status string
		raw    []byte
	)
	if err := r.Scan(&c.ID, &c.ListID, &c.Name, &c.Phone, &c.Email, &status, &raw, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return c, err
	}
	c.Status = domain.Status(status)
	c.CustomFields = map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &c.CustomFields); err != nil {
			return c, fmt.Errorf("decode custom_fields: %w", err)
		}
	}
	return c, nil
}

// where renders the tenant scoped predicate; args start at $1
func where(f domain.Filter) (string, []any) {
	conds := []string{"tenant_id = $1"}
	args := []any{f.TenantID}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.ListID != "" {
		args = append(args, f.ListID)
		conds = append(conds, fmt.Sprintf("list_id = $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		conds = append(conds, fmt.Sprintf("search_key ILIKE $%d", len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *queries) List(ctx context.Context, f domain.Filter, sort string, offset, limit int) ([]domain.Contact, error) {
	ob, ok := orderBy[sort]
	if !ok {
		ob = orderBy[domain.SortCreatedDesc]
	}
	w, args := where(f)
	args = append(args, limit, offset)
	sql := `SELECT ` + columns + ` FROM contacts` + w +
		fmt.Sprintf(` ORDER BY %s LIMIT $%d OFFSET $%d`, ob, len(args)-1, len(args))
	cs, err := store.Many(ctx, r.q, scanContact, sql, args...)
	if err != nil {
		return nil, perr.FromPostgres(err, "list contacts")
	}
	return cs, nil
}

func (r *queries) Count(ctx context.Context, f domain.Filter) (int, error) {
	w, args := where(f)
	n, err := store.Scalar[int64](ctx, r.q, `SELECT count(*) FROM contacts`+w, args...)
	if err != nil {
		return 0, perr.FromPostgres(err, "count contacts")
	}
	return int(n), nil
}

func (r *queries) Get(ctx context.Context, tenantID, id string) (domain.Contact, error) {
	c, err := store.One(ctx, r.q, scanContact,
		`SELECT `+columns+` FROM contacts WHERE tenant_id = $1 AND id = $2::uuid`, tenantID, id)
	if errors.Is(err, perr.ErrNotFound) {
		return domain.Contact{}, perr.NotFoundf("contact %s not found", id)
	}
	if err != nil {
		return domain.Contact{}, perr.FromPostgres(err, "get contact")
	}
	return c, nil
}

func (r *queries) Delete(ctx context.Context, tenantID, id string) error {
	err := store.ExecOne(ctx, r.q, `DELETE FROM contacts WHERE tenant_id = $1 AND id = $2::uuid`, tenantID, id)
	if errors.Is(err, store.ErrNoRowsAffected) {
		return perr.NotFoundf("contact %s not found", id)
	}
	if err != nil {
		return perr.FromPostgres(err, "delete contact")
	}
	return nil
}
