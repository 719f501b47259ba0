package http

import (
	stdhttp "net/http"

	mw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler mounts pprof under prefix, for example "/debug"
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	h := stdhttp.StripPrefix(prefix, mw.Profiler())
	r.Handle(prefix, h)
	r.Handle(prefix+"/*", h)
}

// MountMetrics serves h, usually a promhttp handler, at path
func MountMetrics(r Router, path string, h stdhttp.Handler) {
	if h == nil {
		return
	}
	r.Handle(path, h)
}
