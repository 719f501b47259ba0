package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	perr "ringroster/internal/platform/errors"
	pnet "ringroster/internal/platform/net"
)

// AuthPort resolves the tenant a request acts for
type AuthPort interface {
	Parse(r *http.Request) (tenantID string, err error)
}

// BearerTokens maps static bearer tokens to tenant ids
type BearerTokens map[string]string

// Parse implements AuthPort
func (b BearerTokens) Parse(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tok) == "" {
		return "", perr.Unauthorizedf("missing bearer token")
	}
	tok = strings.TrimSpace(tok)
	for known, tenant := range b {
		if subtle.ConstantTimeCompare([]byte(known), []byte(tok)) == 1 {
			return tenant, nil
		}
	}
	return "", perr.Unauthorizedf("unknown bearer token")
}

// Auth rejects requests the port cannot resolve and puts the tenant on the context
// a nil port lets every request through untouched
func Auth(p AuthPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			tid, err := p.Parse(r)
			if err == nil && tid == "" {
				err = perr.Unauthorizedf("token has no tenant")
			}
			if err != nil {
				status, env := pnet.Failure(err, pnet.RequestID(r.Context()))
				writeJSON(w, status, env)
				return
			}
			ctx := pnet.WithRequest(r.Context(), pnet.RequestID(r.Context()), tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
