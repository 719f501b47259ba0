// Package httpkit composes the API middleware stack, tenant helpers and versioned mounts
package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "ringroster/internal/platform/net/http"
	"ringroster/internal/platform/net/middleware"
)

// Router is the platform router modules mount against
type Router = phttp.Router

// StackOptions tunes CommonStack
type StackOptions struct {
	CORSOrigins []string
	// Slow marks access log lines as warn, 0 means 500ms
	Slow time.Duration
	// Timeout bounds each request, 0 means 30s
	Timeout time.Duration
	// SkipLog lists paths left out of the access log
	SkipLog []string
}

// CommonStack returns the per API middleware slice, outermost first
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Slow == 0 {
		o.Slow = 500 * time.Millisecond
	}
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	return []func(http.Handler) http.Handler{
		middleware.RealIP(),
		middleware.RequestID(),
		middleware.LogContext,
		middleware.RecoverJSON,
		middleware.AccessLog(middleware.AccessLogOptions{Slow: o.Slow, Skip: o.SkipLog}),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.CORSOrigins}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
		middleware.Timeout(o.Timeout),
		middleware.NoCache(),
	}
}
