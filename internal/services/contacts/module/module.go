// Package module wires the contacts service
package module

import (
	"ringroster/internal/modkit"
	"ringroster/internal/platform/config"
	phttp "ringroster/internal/platform/net/http"
	"ringroster/internal/services/contacts/domain"
	contactshttp "ringroster/internal/services/contacts/http"
	"ringroster/internal/services/contacts/repo"
	"ringroster/internal/services/contacts/service"
)

// Options holds configuration settings for the contacts module
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

// FromConfig reads CONTACTS_* settings
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CONTACTS_")
	return Options{
		DefaultPageSize: c.MayInt("DEFAULT_PAGE_SIZE", 25),
		MaxPageSize:     c.MayInt("MAX_PAGE_SIZE", 200),
	}
}

// Ports exposed by the contacts module
type Ports struct {
	Contacts domain.ServicePort
}

// Module implements modkit.Module for contacts
type Module struct {
	b     modkit.Built
	ports Ports
}

// New constructs the contacts module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	o := FromConfig(deps.Cfg)
	svc := service.New(deps.PG, repo.NewPG(), service.Config{
		DefaultPageSize: o.DefaultPageSize,
		MaxPageSize:     o.MaxPageSize,
	})
	return NewWithService(svc, opts...)
}

// NewWithService builds the module around an existing service
func NewWithService(svc domain.ServicePort, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{
		modkit.WithName("contacts"),
		modkit.WithPrefix("/contacts"),
	}, opts...)
	return &Module{b: b, ports: Ports{Contacts: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r phttp.Router) {
	m.b.Mount(r, func(rr phttp.Router) { contactshttp.Register(rr, m.ports.Contacts) })
}
