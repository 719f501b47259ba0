// Package service implements custom field management
package service

import (
	"context"
	"strings"
	"time"

	"ringroster/internal/modkit/repokit"
	perr "ringroster/internal/platform/errors"
	"ringroster/internal/services/fields/domain"
	"ringroster/internal/services/fields/repo"

	"github.com/google/uuid"
)

// Service implements domain.ServicePort
type Service struct {
	db     repokit.TxRunner
	binder repokit.Binder[repo.Repo]
	now    func() time.Time
	newID  func() string
}

var _ domain.ServicePort = (*Service)(nil)

// New constructs a new fields service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo]) *Service {
	return &Service{
		db:     db,
		binder: binder,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

func (s *Service) repo() repo.Repo {
	return repokit.MustBind(s.binder, s.db)
}

// List returns every field of tenant ordered by position
func (s *Service) List(ctx context.Context, tenantID string) ([]domain.Field, error) {
	fs, err := s.repo().List(ctx, tenantID, false)
	if err != nil {
		return nil, err
	}
	if fs == nil {
		fs = []domain.Field{}
	}
	return fs, nil
}

// Get returns one field
func (s *Service) Get(ctx context.Context, tenantID, id string) (domain.Field, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Field{}, perr.NotFoundf("custom field %s not found", id)
	}
	return s.repo().Get(ctx, tenantID, id)
}

// Create defines a new field
func (s *Service) Create(ctx context.Context, tenantID string, in domain.CreateInput) (domain.Field, error) {
	opts, err := checkOptions(in.Type, in.Options)
	if err != nil {
		return domain.Field{}, err
	}
	now := s.now()
	f := domain.Field{
		ID:          s.newID(),
		TenantID:    tenantID,
		Key:         in.Key,
		Label:       strings.TrimSpace(in.Label),
		Type:        in.Type,
		Description: in.Description,
		Options:     opts,
		Enabled:     in.Enabled == nil || *in.Enabled,
		Position:    in.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo().Insert(ctx, f); err != nil {
		return domain.Field{}, err
	}
	return f, nil
}

// Update applies a partial change; key and type never change
func (s *Service) Update(ctx context.Context, tenantID, id string, in domain.PatchInput) (domain.Field, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Field{}, perr.NotFoundf("custom field %s not found", id)
	}
	var out domain.Field
	err := repokit.WithTx(ctx, s.db, s.binder, func(r repo.Repo) error {
		f, err := r.Get(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if in.Label != nil {
			f.Label = strings.TrimSpace(*in.Label)
		}
		if in.Description != nil {
			f.Description = *in.Description
		}
		if in.Options != nil {
			opts, err := checkOptions(f.Type, *in.Options)
			if err != nil {
				return err
			}
			f.Options = opts
		}
		if in.Enabled != nil {
			f.Enabled = *in.Enabled
		}
		if in.Position != nil {
			f.Position = *in.Position
		}
		f.UpdatedAt = s.now()
		if err := r.Update(ctx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	return out, err
}

// Delete removes a field definition; stored values stay in contact rows
func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return perr.NotFoundf("custom field %s not found", id)
	}
	return s.repo().Delete(ctx, tenantID, id)
}

// EnabledFields implements domain.CatalogPort
func (s *Service) EnabledFields(ctx context.Context, tenantID string) (domain.Catalog, error) {
	fs, err := s.repo().List(ctx, tenantID, true)
	if err != nil {
		return nil, err
	}
	c := make(domain.Catalog, len(fs))
	for _, f := range fs {
		c[f.Key] = f
	}
	return c, nil
}

// EnabledKeys implements domain.CatalogPort
func (s *Service) EnabledKeys(ctx context.Context, tenantID string) (map[string]domain.FieldType, error) {
	c, err := s.EnabledFields(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return c.Types(), nil
}

// checkOptions trims and dedupes enum options; other types take none
func checkOptions(t domain.FieldType, in []string) ([]string, error) {
	if t != domain.TypeEnum {
		if len(in) > 0 {
			return nil, perr.WithField(perr.Validationf("options are only allowed for enum fields"), "options")
		}
		return []string{}, nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, o := range in {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if _, dup := seen[o]; dup {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	if len(out) == 0 {
		return nil, perr.WithField(perr.Validationf("enum fields need at least one option"), "options")
	}
	return out, nil
}
