// Package module wires meta endpoints into the API using a tiny module
package module

import (
	"time"

	"ringroster/internal/modkit"
	phttp "ringroster/internal/platform/net/http"

	metahttp "ringroster/internal/services/api/meta/http"
)

// ServiceName is reported by /meta endpoints
const ServiceName = "ringroster-api"

// Module implements the modkit.Module interface
type Module struct {
	b    modkit.Built
	deps metahttp.Deps
}

// New constructs a meta module with the provided dependencies and options
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)

	d := metahttp.Deps{ServiceName: ServiceName, StartedAt: time.Now()}
	// keep untyped nils so disabled backends read as skipped
	if deps.PG != nil {
		d.PG = deps.PG
	}
	if deps.CH != nil {
		d.CH = deps.CH
	}
	if deps.Bus != nil {
		d.Bus = deps.Bus
	}
	return &Module{b: b, deps: d}
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r phttp.Router) {
	m.b.Mount(r, func(rr phttp.Router) { metahttp.Register(rr, m.deps) })
}

// Name implements the modkit.Module interface
func (m *Module) Name() string { return m.b.Name }

// Ports implements the modkit.Module interface
func (m *Module) Ports() any { return nil }
