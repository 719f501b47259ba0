package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ringroster/internal/modkit/module"
	"ringroster/internal/platform/config"
	"ringroster/internal/platform/metrics"
	phttp "ringroster/internal/platform/net/http"
	"ringroster/internal/platform/testkit"
	fieldsmod "ringroster/internal/services/fields/module"

	"github.com/go-chi/chi/v5"
)

func newAPI(t *testing.T, reg *metrics.Registry) http.Handler {
	t.Helper()
	module.Reset()
	t.Cleanup(module.Reset)
	t.Setenv("CORE_API_TOKENS", "tok-a=tenant-a")
	r := chi.NewRouter()
	Mount(phttp.AdaptChi(r), Options{Config: config.New(), Metrics: reg})
	return r
}

func get(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMount_Routes(t *testing.T) {
	h := newAPI(t, metrics.New())

	cases := []struct {
		path, token string
		want        int
	}{
		{"/ping", "", http.StatusOK},
		{"/api/v1/meta/health", "", http.StatusOK},
		{"/api/v1/meta/version", "", http.StatusOK},
		{"/api/v1/contacts", "", http.StatusUnauthorized},
		{"/api/v1/contacts/uploads/x", "", http.StatusUnauthorized},
		{"/api/v1/fields", "wrong", http.StatusUnauthorized},
		{"/api/v1/contacts/nope", "tok-a", http.StatusNotFound},
		{"/api/v1/contacts/uploads/nope", "tok-a", http.StatusNotFound},
		{"/api/docs/doc.json", "", http.StatusOK},
		{"/metrics", "", http.StatusOK},
		{"/debug/pprof/", "", http.StatusNotFound},
	}
	for _, c := range cases {
		if rec := get(h, c.path, c.token); rec.Code != c.want {
			t.Fatalf("%s: got %d want %d (%s)", c.path, rec.Code, c.want, rec.Body)
		}
	}
	testkit.MustContain(t, get(h, "/api/v1/contacts", "").Body.String(), `"code":"unauthorized"`)
}

func TestMount_RegistersPortsAndSkipsMetrics(t *testing.T) {
	h := newAPI(t, nil)
	p, ok := module.PortsAs[fieldsmod.Ports]("fields")
	if !ok || p.Catalog == nil {
		t.Fatalf("fields ports not registered")
	}
	if rec := get(h, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("metrics mounted without a registry: %d", rec.Code)
	}
	testkit.MustContain(t, get(h, "/api/v1/meta/service", "").Body.String(),
		`"modules":["contacts","fields","meta","uploads"]`)
}
