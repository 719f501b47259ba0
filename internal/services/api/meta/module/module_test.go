package module

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ringroster/internal/modkit"
	pnet "ringroster/internal/platform/net"
	phttp "ringroster/internal/platform/net/http"
	"ringroster/internal/platform/store"
	"ringroster/internal/platform/testkit"

	metahttp "ringroster/internal/services/api/meta/http"

	"github.com/go-chi/chi/v5"
)

type pingPG struct {
	store.TxRunner
	err error
}

func (p pingPG) Ping(context.Context) error { return p.err }

type silentBus struct{ store.Bus }

func get(t *testing.T, deps modkit.Deps, path string) (int, json.RawMessage) {
	t.Helper()
	r := chi.NewRouter()
	New(deps).MountRoutes(phttp.AdaptChi(r))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var env pnet.Envelope[json.RawMessage]
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v", rec.Body, err)
	}
	return rec.Code, env.Data
}

func ready(t *testing.T, deps modkit.Deps) metahttp.ReadyResponse {
	t.Helper()
	_, data := get(t, deps, "/meta/ready")
	var rr metahttp.ReadyResponse
	if err := json.Unmarshal(data, &rr); err != nil {
		t.Fatalf("decode ready: %v", err)
	}
	return rr
}

func TestReady(t *testing.T) {
	if rr := ready(t, modkit.Deps{PG: pingPG{}}); rr.Status != "ok" || rr.Checks[1].Status != "skipped" || rr.Checks[2].Status != "skipped" {
		t.Fatalf("pg only: %+v", rr)
	}
	if rr := ready(t, modkit.Deps{PG: pingPG{err: errors.New("refused")}}); rr.Status != "fail" || rr.Checks[0].Error != "refused" {
		t.Fatalf("pg down: %+v", rr)
	}
	if rr := ready(t, modkit.Deps{}); rr.Status != "fail" {
		t.Fatalf("no pg: %+v", rr)
	}
	if rr := ready(t, modkit.Deps{PG: pingPG{}, Bus: silentBus{}}); rr.Status != "degraded" || rr.Checks[2].Status != "unknown" {
		t.Fatalf("bus without ping: %+v", rr)
	}
}

func TestHealthVersionService(t *testing.T) {
	code, data := get(t, modkit.Deps{}, "/meta/health")
	if code != http.StatusOK {
		t.Fatalf("health %d", code)
	}
	testkit.MustContain(t, string(data), `"service":"ringroster-api"`)

	_, data = get(t, modkit.Deps{}, "/meta/version")
	testkit.MustContain(t, string(data), `"version":"dev"`)

	_, data = get(t, modkit.Deps{}, "/meta/service")
	testkit.MustContain(t, string(data), `"uptime":0`)
}
