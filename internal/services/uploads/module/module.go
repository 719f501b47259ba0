// Package module wires the uploads service
package module

import (
	"time"

	"ringroster/internal/adapters/mutationbus"
	"ringroster/internal/modkit"
	"ringroster/internal/platform/config"
	phttp "ringroster/internal/platform/net/http"
	fdomain "ringroster/internal/services/fields/domain"
	"ringroster/internal/services/uploads/domain"
	uploadshttp "ringroster/internal/services/uploads/http"
	"ringroster/internal/services/uploads/repo"
	"ringroster/internal/services/uploads/service"
)

// Options holds configuration settings for the uploads module
type Options struct {
	MaxRows          int
	MaxBodyBytes     int64
	Subject          string
	StatementTimeout time.Duration
}

// FromConfig reads UPLOADS_* settings
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("UPLOADS_")
	return Options{
		MaxRows:          c.MayInt("MAX_ROWS", 5000),
		MaxBodyBytes:     int64(c.MayInt("MAX_BODY_BYTES", 16<<20)),
		Subject:          c.MayString("SUBJECT", mutationbus.DefaultSubject),
		StatementTimeout: c.MayDuration("STATEMENT_TIMEOUT", 5*time.Second),
	}
}

// Ports exposed by the uploads module
type Ports struct {
	Uploads domain.ServicePort
}

// Module implements modkit.Module for uploads
type Module struct {
	b        modkit.Built
	maxBytes int64
	ports    Ports
}

// New constructs the uploads module; catalog may be nil, which rejects every custom field
func New(deps modkit.Deps, catalog fdomain.CatalogPort, opts ...modkit.Option) *Module {
	o := FromConfig(deps.Cfg)
	d := service.Deps{
		DB:      deps.PG,
		Binder:  repo.NewPG(),
		Catalog: catalog,
	}
	if deps.Bus != nil {
		d.Events = mutationbus.NewPublisher(deps.Bus, o.Subject)
	}
	if deps.CH != nil {
		d.Audit = repo.NewAudit(deps.CH)
	}
	if deps.Metrics != nil {
		d.Metrics = deps.Metrics.Uploads
	}
	svc := service.New(d, service.Config{MaxRows: o.MaxRows, StatementTimeout: o.StatementTimeout})
	return NewWithService(svc, o.MaxBodyBytes, opts...)
}

// NewWithService builds the module around an existing service
func NewWithService(svc domain.ServicePort, maxBytes int64, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{
		modkit.WithName("uploads"),
		modkit.WithPrefix("/contacts/uploads"),
	}, opts...)
	return &Module{b: b, maxBytes: maxBytes, ports: Ports{Uploads: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r phttp.Router) {
	m.b.Mount(r, func(rr phttp.Router) { uploadshttp.Register(rr, m.ports.Uploads, m.maxBytes) })
}
