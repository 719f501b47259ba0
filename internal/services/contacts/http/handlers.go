// Package http exposes the contact list over REST
package http

import (
	stdhttp "net/http"

	"ringroster/internal/modkit/httpkit"
	pnet "ringroster/internal/platform/net"
	phttp "ringroster/internal/platform/net/http"
	"ringroster/internal/services/contacts/domain"
)

// Register mounts the contact routes on r
func Register(r phttp.Router, svc domain.ServicePort) {
	h := handlers{svc: svc}
	phttp.GetQuery(r, "/", h.list)
	phttp.GetJSON(r, "/{id}", h.get)
	phttp.DeleteNoContent(r, "/{id}", h.delete)
}

type handlers struct {
	svc domain.ServicePort
}

func (h handlers) list(r *stdhttp.Request, q domain.ListQuery) (phttp.Response, error) {
	tid, err := httpkit.Tenant(r)
	if err != nil {
		return phttp.Response{}, err
	}
	res, err := h.svc.List(r.Context(), tid, q)
	if err != nil {
		return phttp.Response{}, err
	}
	return phttp.List(res.Items, pnet.Page{Cursor: res.Next, PageSize: res.PageSize, Total: res.Total}), nil
}

func (h handlers) get(r *stdhttp.Request) (any, error) {
	tid, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), tid, phttp.Param(r, "id"))
}

func (h handlers) delete(r *stdhttp.Request) error {
	tid, err := httpkit.Tenant(r)
	if err != nil {
		return err
	}
	return h.svc.Delete(r.Context(), tid, phttp.Param(r, "id"))
}
