// Package http exposes custom field management over REST
package http

import (
	stdhttp "net/http"

	"ringroster/internal/modkit/httpkit"
	phttp "ringroster/internal/platform/net/http"
	"ringroster/internal/services/fields/domain"
)

// Register mounts the field routes on r
func Register(r phttp.Router, svc domain.ServicePort) {
	h := handlers{svc: svc}
	phttp.GetJSON(r, "/", h.list)
	phttp.PostJSON(r, "/", h.create)
	phttp.GetJSON(r, "/{id}", h.get)
	phttp.PatchJSON(r, "/{id}", h.update)
	phttp.DeleteNoContent(r, "/{id}", h.delete)
}

type handlers struct {
	svc domain.ServicePort
}

func (h handlers) list(r *stdhttp.Request) (any, error) {
	tid, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	fs, err := h.svc.List(r.Context(), tid)
	if err != nil {
		return nil, err
	}
	return map[string]any{"items": fs}, nil
}

func (h handlers) get(r *stdhttp.Request) (any, error) {
	tid, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), tid, phttp.Param(r, "id"))
}

func (h handlers) create(r *stdhttp.Request, in domain.CreateInput) (any, error) {
	tid, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Create(r.Context(), tid, in)
}

func (h handlers) update(r *stdhttp.Request, in domain.PatchInput) (any, error) {
	tid, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Update(r.Context(), tid, phttp.Param(r, "id"), in)
}

func (h handlers) delete(r *stdhttp.Request) error {
	tid, err := httpkit.Tenant(r)
	if err != nil {
		return err
	}
	return h.svc.Delete(r.Context(), tid, phttp.Param(r, "id"))
}
