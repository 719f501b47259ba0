// Package http provides meta endpoints
package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"ringroster/internal/core/version"
	"ringroster/internal/modkit/module"
	phttp "ringroster/internal/platform/net/http"
)

// Pinger is satisfied by adapters that expose Ping
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the handler dependencies; a nil backend is reported as skipped
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	Bus         any
	// ReadyTimeout bounds all pings of one readiness probe, default 2s
	ReadyTimeout time.Duration
}

type handlers struct {
	deps Deps
	now  func() time.Time
}

// Register mounts the meta routes
func Register(r phttp.Router, d Deps) {
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = 2 * time.Second
	}
	h := &handlers{deps: d, now: time.Now}

	phttp.GetJSON(r, "/health", h.health)
	phttp.GetJSON(r, "/ready", h.ready)
	phttp.GetJSON(r, "/version", h.version)
	phttp.GetJSON(r, "/service", h.service)
}

// HealthResponse is the health payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// ReadyCheck describes a single dependency check
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail skipped unknown
	Error  string `json:"error,omitempty"`
}

// ReadyResponse summarizes readiness
type ReadyResponse struct {
	Status string       `json:"status"` // ok degraded fail
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

// ServiceResponse describes service info
type ServiceResponse struct {
	Name    string   `json:"name"`
	Started string   `json:"started"`
	Uptime  int64    `json:"uptime"`
	Modules []string `json:"modules"`
}

func (h *handlers) health(_ *stdhttp.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Now:     h.now().UTC().Format(time.RFC3339),
	}, nil
}

// ready pings every configured backend; Postgres is required, so it alone decides fail
func (h *handlers) ready(r *stdhttp.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReadyTimeout)
	defer cancel()

	check := func(name string, c any) ReadyCheck {
		if c == nil {
			return ReadyCheck{Name: name, Status: "skipped"}
		}
		p, ok := c.(Pinger)
		if !ok {
			return ReadyCheck{Name: name, Status: "unknown"}
		}
		if err := p.Ping(ctx); err != nil {
			return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
		}
		return ReadyCheck{Name: name, Status: "ok"}
	}

	checks := []ReadyCheck{
		check("pg", h.deps.PG),
		check("ch", h.deps.CH),
		check("nats", h.deps.Bus),
	}
	overall := "ok"
	switch {
	case checks[0].Status != "ok":
		overall = "fail"
	case checks[1].Status == "fail" || checks[2].Status == "fail" ||
		checks[1].Status == "unknown" || checks[2].Status == "unknown":
		overall = "degraded"
	}

	return ReadyResponse{
		Status: overall,
		Checks: checks,
		Now:    h.now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *handlers) version(_ *stdhttp.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}

func (h *handlers) service(_ *stdhttp.Request) (any, error) {
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.now().Sub(h.deps.StartedAt) / time.Second),
		Modules: module.Names(),
	}, nil
}
