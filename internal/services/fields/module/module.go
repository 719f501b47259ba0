// Package module wires the fields service
package module

import (
	"ringroster/internal/modkit"
	phttp "ringroster/internal/platform/net/http"
	"ringroster/internal/services/fields/domain"
	fieldshttp "ringroster/internal/services/fields/http"
	"ringroster/internal/services/fields/repo"
	"ringroster/internal/services/fields/service"
)

// Ports exposed by the fields module
type Ports struct {
	Catalog domain.CatalogPort
}

// Module implements modkit.Module for custom fields
type Module struct {
	b     modkit.Built
	svc   domain.ServicePort
	ports Ports
}

// New constructs the fields module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	svc := service.New(deps.PG, repo.NewPG())
	return NewWithService(svc, opts...)
}

// NewWithService builds the module around an existing service
func NewWithService(svc domain.ServicePort, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{
		modkit.WithName("fields"),
		modkit.WithPrefix("/fields"),
	}, opts...)
	return &Module{b: b, svc: svc, ports: Ports{Catalog: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r phttp.Router) {
	m.b.Mount(r, func(rr phttp.Router) { fieldshttp.Register(rr, m.svc) })
}
