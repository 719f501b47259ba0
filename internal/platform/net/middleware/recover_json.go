package middleware

import (
	"net/http"
	"runtime/debug"

	perr "ringroster/internal/platform/errors"
	"ringroster/internal/platform/logger"
	pnet "ringroster/internal/platform/net"
)

// RecoverJSON turns a panic into the standard 500 envelope and logs the stack
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			reqID := pnet.RequestID(r.Context())
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}
			status, env := pnet.Failure(perr.PanicErrf("internal error"), reqID)
			writeJSON(w, status, env)
		}()
		next.ServeHTTP(w, r)
	})
}
