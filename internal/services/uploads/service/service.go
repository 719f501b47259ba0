// Package service validates and stores bulk contact uploads
package service

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"ringroster/internal/adapters/mutationbus"
	"ringroster/internal/core/normalize"
	"ringroster/internal/modkit/repokit"
	perr "ringroster/internal/platform/errors"
	"ringroster/internal/platform/logger"
	"ringroster/internal/platform/metrics"
	"ringroster/internal/platform/net/http/bind"
	"ringroster/internal/platform/store"
	fdomain "ringroster/internal/services/fields/domain"
	"ringroster/internal/services/uploads/domain"
	"ringroster/internal/services/uploads/repo"

	"github.com/google/uuid"
)

// Publisher fans a finished upload out to sync clients
type Publisher interface {
	Publish(ctx context.Context, e mutationbus.Event) error
}

// Auditor keeps an append only record of uploads
type Auditor interface {
	Record(ctx context.Context, tenantID, uploadID, source string, success, failure int, at time.Time) error
}

// Config for the uploads service
type Config struct {
	MaxRows int
	// StatementTimeout bounds each statement of the upload transaction, zero disables it
	StatementTimeout time.Duration
}

// Deps are the collaborators of the service; Catalog, Events, Audit and Metrics may be nil
type Deps struct {
	DB      repokit.TxRunner
	Binder  repokit.Binder[repo.Repo]
	Catalog fdomain.CatalogPort
	Events  Publisher
	Audit   Auditor
	Metrics *metrics.Uploads
}

// Service implements domain.ServicePort
type Service struct {
	d     Deps
	cfg   Config
	now   func() time.Time
	newID func() string
}

var _ domain.ServicePort = (*Service)(nil)

// New constructs the uploads service
func New(d Deps, cfg Config) *Service {
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 5000
	}
	if cfg.StatementTimeout > 0 {
		d.DB = repokit.WithBeginHooks(d.DB, repokit.StatementTimeout(cfg.StatementTimeout))
	}
	return &Service{
		d:     d,
		cfg:   cfg,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
}

// Upload stores every valid row and reports the rest; the request only fails as a whole
// when it is malformed or the transaction cannot commit
func (s *Service) Upload(ctx context.Context, tenantID string, req domain.Request) (domain.Outcome, error) {
	if len(req.Rows) > s.cfg.MaxRows {
		return domain.Outcome{}, perr.WithField(perr.Validationf("rows must be at most %d", s.cfg.MaxRows), "rows")
	}
	cat, err := s.catalog(ctx, tenantID)
	if err != nil {
		return domain.Outcome{}, err
	}

	out := domain.Outcome{
		UploadID:   s.newID(),
		SourceName: strings.TrimSpace(req.SourceName),
		ListID:     req.ListID,
		CreatedAt:  s.now(),
		Errors:     []domain.RowError{},
	}
	ready, rejected := Prepare(req.Rows, cat)
	out.Errors = append(out.Errors, rejected...)

	err = s.d.DB.Tx(ctx, func(q repokit.Queryer) error {
		for _, p := range ready {
			err := store.Savepoint(ctx, q, func(sp repokit.Queryer) error {
				return s.d.Binder.Bind(sp).UpsertContact(ctx, tenantID, req.ListID, s.newID(), p, out.CreatedAt)
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w := perr.WireFrom(err)
				out.Errors = append(out.Errors, domain.RowError{Row: p.Index, Field: w.Field, Message: w.Message})
				continue
			}
			out.SuccessCount++
		}
		out.FailureCount = len(out.Errors)
		slices.SortStableFunc(out.Errors, func(a, b domain.RowError) int { return a.Row - b.Row })
		return s.d.Binder.Bind(q).InsertOutcome(ctx, tenantID, out)
	})
	if err != nil {
		return domain.Outcome{}, err
	}

	s.afterCommit(ctx, tenantID, out)
	return out, nil
}

// afterCommit feeds the sinks; their failures never undo a committed upload
func (s *Service) afterCommit(ctx context.Context, tenantID string, out domain.Outcome) {
	log := logger.C(ctx)
	log.Info().
		Str("upload_id", out.UploadID).
		Str("source", out.SourceName).
		Int("success", out.SuccessCount).
		Int("failure", out.FailureCount).
		Msg("upload stored")

	s.d.Metrics.Observe(out.SuccessCount, out.FailureCount)

	if s.d.Events != nil {
		err := s.d.Events.Publish(ctx, mutationbus.Event{
			TenantID:     tenantID,
			UploadID:     out.UploadID,
			SourceName:   out.SourceName,
			SuccessCount: out.SuccessCount,
			FailureCount: out.FailureCount,
			At:           out.CreatedAt,
		})
		if err != nil {
			log.Warn().Err(err).Str("upload_id", out.UploadID).Msg("publish upload event failed")
		}
	}
	if s.d.Audit != nil {
		if err := s.d.Audit.Record(ctx, tenantID, out.UploadID, out.SourceName, out.SuccessCount, out.FailureCount, out.CreatedAt); err != nil {
			log.Warn().Err(err).Str("upload_id", out.UploadID).Msg("audit upload failed")
		}
	}
}

// Get returns a stored outcome
func (s *Service) Get(ctx context.Context, tenantID, id string) (domain.Outcome, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Outcome{}, perr.NotFoundf("upload %s not found", id)
	}
	return repokit.MustBind(s.d.Binder, s.d.DB).GetOutcome(ctx, tenantID, id)
}

func (s *Service) catalog(ctx context.Context, tenantID string) (fdomain.Catalog, error) {
	if s.d.Catalog == nil {
		return fdomain.Catalog{}, nil
	}
	cat, err := s.d.Catalog.EnabledFields(ctx, tenantID)
	if err != nil {
		return nil, perr.Wrap(err, perr.CodeOf(err), "load custom fields")
	}
	return cat, nil
}

// Prepare validates rows against the request rules and cat
// a row is accepted whole or rejected with its first problem; a phone seen earlier in
// the same upload rejects the later row
func Prepare(rows []domain.Row, cat fdomain.Catalog) ([]domain.Prepared, []domain.RowError) {
	var (
		ready    = make([]domain.Prepared, 0, len(rows))
		rejected []domain.RowError
		seen     = make(map[string]int, len(rows))
	)
	for i, row := range rows {
		n := i + 1
		p, rerr := prepareRow(n, row, cat)
		if rerr == nil {
			if first, dup := seen[p.Phone]; dup {
				rerr = &domain.RowError{Row: n, Field: "phone", Message: fmt.Sprintf("phone repeats row %d", first)}
			} else {
				seen[p.Phone] = n
			}
		}
		if rerr != nil {
			rejected = append(rejected, *rerr)
			continue
		}
		ready = append(ready, p)
	}
	return ready, rejected
}

func prepareRow(n int, row domain.Row, cat fdomain.Catalog) (domain.Prepared, *domain.RowError) {
	row.Name = strings.TrimSpace(row.Name)
	if issues := bind.Issues(row); len(issues) > 0 {
		return domain.Prepared{}, &domain.RowError{Row: n, Field: issues[0].Field, Message: issues[0].Message}
	}
	phone, ok := normalize.Phone(row.Phone)
	if !ok {
		return domain.Prepared{}, &domain.RowError{Row: n, Field: "phone", Message: "phone must be a valid phone number"}
	}
	for _, k := range slices.Sorted(maps.Keys(row.CustomFields)) {
		field := "custom_fields." + k
		def, known := cat[k]
		if !known {
			return domain.Prepared{}, &domain.RowError{Row: n, Field: field, Message: k + " is not an enabled custom field"}
		}
		if err := def.CheckValue(row.CustomFields[k]); err != nil {
			return domain.Prepared{}, &domain.RowError{Row: n, Field: field, Message: err.Error()}
		}
	}
	email := normalize.Email(row.Email)
	return domain.Prepared{
		Index:        n,
		Name:         row.Name,
		Phone:        phone,
		Email:        email,
		SearchKey:    normalize.SearchKey(row.Name, phone, email),
		CustomFields: row.CustomFields,
	}, nil
}
