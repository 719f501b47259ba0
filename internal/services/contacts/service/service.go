// Package service pages through a tenant's contacts
package service

import (
	"context"

	"ringroster/internal/core/normalize"
	"ringroster/internal/modkit/repokit"
	perr "ringroster/internal/platform/errors"
	"ringroster/internal/services/contacts/domain"
	"ringroster/internal/services/contacts/repo"

	"github.com/google/uuid"
)

// Config for the contacts service
type Config struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Service implements domain.ServicePort
type Service struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	cfg    Config
}

var _ domain.ServicePort = (*Service)(nil)

// New constructs the contacts service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], cfg Config) *Service {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 200
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 25
	}
	cfg.DefaultPageSize = min(cfg.DefaultPageSize, cfg.MaxPageSize)
	return &Service{db: db, binder: binder, cfg: cfg}
}

// PageSize resolves the effective page size of a request
func (s *Service) PageSize(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultPageSize
	}
	return min(limit, s.cfg.MaxPageSize)
}

// List returns one page; one extra row is read to know whether another page follows
func (s *Service) List(ctx context.Context, tenantID string, q domain.ListQuery) (domain.ListResult, error) {
	offset, err := DecodeCursor(q.Cursor)
	if err != nil {
		return domain.ListResult{}, err
	}
	size := s.PageSize(q.Limit)
	f := domain.Filter{
		TenantID: tenantID,
		Status:   domain.Status(q.Status),
		ListID:   q.ListID,
		Search:   normalize.Text(q.Search),
	}
	sort := q.Sort
	if sort == "" {
		sort = domain.SortCreatedDesc
	}

	var out domain.ListResult
	err = repokit.WithTx(ctx, s.db, s.binder, func(r repo.Repo) error {
		rows, err := r.List(ctx, f, sort, offset, size+1)
		if err != nil {
			return err
		}
		total, err := r.Count(ctx, f)
		if err != nil {
			return err
		}
		out.Total = total
		if len(rows) > size {
			rows = rows[:size]
			out.Next = EncodeCursor(offset + size)
		}
		out.Items = rows
		return nil
	})
	if err != nil {
		return domain.ListResult{}, err
	}
	if out.Items == nil {
		out.Items = []domain.Contact{}
	}
	out.PageSize = size
	return out, nil
}

// Get returns one contact
func (s *Service) Get(ctx context.Context, tenantID, id string) (domain.Contact, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Contact{}, perr.NotFoundf("contact %s not found", id)
	}
	return repokit.MustBind(s.binder, s.db).Get(ctx, tenantID, id)
}

// Delete removes one contact
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return perr.NotFoundf("contact %s not found", id)
	}
	return repokit.MustBind(s.binder, s.db).Delete(ctx, tenantID, id)
}
