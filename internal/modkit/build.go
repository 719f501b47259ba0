package modkit

import (
	"net/http"

	phttp "ringroster/internal/platform/net/http"
	str "ringroster/internal/platform/strings"
)

// Built is the resolved option set a module keeps
type Built struct {
	Name     string
	Prefix   string
	Mw       []func(http.Handler) http.Handler
	Register func(phttp.Router)
}

// Build applies defaults first, then opts
func Build(defaults []Option, opts ...Option) Built {
	var c buildCfg
	for _, o := range append(append([]Option(nil), defaults...), opts...) {
		o(&c)
	}
	return Built{
		Name:     str.MustString(c.name, "module name"),
		Prefix:   str.MustPrefix(c.prefix),
		Mw:       append([]func(http.Handler) http.Handler(nil), c.mw...),
		Register: c.register,
	}
}

// Mount routes own under the prefix, applying the middlewares, then any extra register hook
func (b Built) Mount(r phttp.Router, own func(phttp.Router)) {
	r.Route(b.Prefix, func(rr phttp.Router) {
		if len(b.Mw) > 0 {
			rr.Use(b.Mw...)
		}
		own(rr)
		if b.Register != nil {
			b.Register(rr)
		}
	})
}
