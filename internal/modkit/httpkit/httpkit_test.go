package httpkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "ringroster/internal/platform/errors"
	pnet "ringroster/internal/platform/net"
	phttp "ringroster/internal/platform/net/http"
	"ringroster/internal/platform/net/middleware"
	"ringroster/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
)

func newAPI(t *testing.T) http.Handler {
	t.Helper()
	root := phttp.AdaptChi(chi.NewRouter())
	MountAPIV1(root, CommonStack(StackOptions{CORSOrigins: []string{"https://app.example"}}), func(api Router) {
		api.Get("/open", func(w http.ResponseWriter, r *http.Request) {
			phttp.JSON(w, http.StatusOK, pnet.RequestID(r.Context()))
		})
		Protected(api, middleware.BearerTokens{"tok": "tenant-1"}, func(pr Router) {
			pr.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
				phttp.JSON(w, http.StatusOK, MustTenant(r))
			})
			pr.Get("/panic", func(w http.ResponseWriter, r *http.Request) { panic("boom") })
		})
	})
	return root.Mux()
}

func get(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Origin", "https://app.example")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestMountAPIV1_Stack(t *testing.T) {
	h := newAPI(t)

	rr := get(h, "/api/v1/open/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("trailing slash should be stripped, got %d", rr.Code)
	}
	var rid string
	_ = json.Unmarshal(rr.Body.Bytes(), &rid)
	if rid == "" {
		t.Fatalf("request id missing")
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("cors header %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
	if rr.Header().Get("Cache-Control") == "" {
		t.Fatalf("no cache headers missing")
	}
}

func TestProtected(t *testing.T) {
	h := newAPI(t)

	if rr := get(h, "/api/v1/whoami", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", rr.Code)
	}
	rr := get(h, "/api/v1/whoami", "tok")
	if rr.Code != http.StatusOK || rr.Body.String() != "\"tenant-1\"\n" {
		t.Fatalf("whoami %d %q", rr.Code, rr.Body.String())
	}

	rr = get(h, "/api/v1/panic", "tok")
	var env pnet.Envelope[any]
	_ = json.Unmarshal(rr.Body.Bytes(), &env)
	if rr.Code != http.StatusInternalServerError || env.Code != perr.ErrorCodePanic {
		t.Fatalf("panic %d %+v", rr.Code, env)
	}
}

func TestTenant(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := Tenant(req); !perr.IsCode(err, perr.ErrorCodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	testkit.MustPanic(t, func() { MustTenant(req) })

	req = req.WithContext(pnet.WithRequest(req.Context(), "", "t9"))
	if got := MustTenant(req); got != "t9" {
		t.Fatalf("tenant %q", got)
	}
}
