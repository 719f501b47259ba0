// Package http exposes bulk uploads over REST
package http

import (
	stdhttp "net/http"

	"ringroster/internal/modkit/httpkit"
	phttp "ringroster/internal/platform/net/http"
	"ringroster/internal/platform/net/http/bind"
	"ringroster/internal/services/uploads/domain"
)

// Register mounts the upload routes on r; maxBytes bounds the request body
func Register(r phttp.Router, svc domain.ServicePort, maxBytes int64) {
	h := handlers{svc: svc}
	phttp.PostJSON(r, "/", h.upload, bind.JSONOptions{MaxBytes: maxBytes, DisallowUnknown: true})
	phttp.GetJSON(r, "/{id}", h.get)
}

type handlers struct {
	svc domain.ServicePort
}

func (h handlers) upload(r *stdhttp.Request, req domain.Request) (any, error) {
	tid, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Upload(r.Context(), tid, req)
}

func (h handlers) get(r *stdhttp.Request) (any, error) {
	tid, err := httpkit.Tenant(r)
	if err != nil {
		return nil, err
	}
	return h.svc.Get(r.Context(), tid, phttp.Param(r, "id"))
}
