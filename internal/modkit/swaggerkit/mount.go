// Package swaggerkit serves the embedded OpenAPI document and the Swagger UI
package swaggerkit

import (
	"net/http"

	"ringroster/internal/platform/config"
	phttp "ringroster/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Mount serves the UI under /api/docs/ and the document at /api/docs/doc.json when enabled
func Mount(r phttp.Router, cfg config.Conf, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDocJSON(cfg))
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("ringroster"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}
