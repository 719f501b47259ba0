package httpkit

import (
	"net/http"

	perr "ringroster/internal/platform/errors"
	pnet "ringroster/internal/platform/net"
)

// Tenant returns the authenticated tenant id from the request context
func Tenant(r *http.Request) (string, error) {
	tid := pnet.TenantID(r.Context())
	if tid == "" {
		return "", perr.Unauthorizedf("missing tenant scope")
	}
	return tid, nil
}

// MustTenant returns the tenant id or panics; only for routes behind Protected
func MustTenant(r *http.Request) string {
	tid, err := Tenant(r)
	if err != nil {
		panic(err)
	}
	return tid
}
