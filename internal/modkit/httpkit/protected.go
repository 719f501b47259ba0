package httpkit

import "ringroster/internal/platform/net/middleware"

// Protected groups routes behind bearer auth
func Protected(r Router, p middleware.AuthPort, fn func(Router)) {
	r.Group(func(gr Router) {
		gr.Use(middleware.Auth(p))
		fn(gr)
	})
}
