package contactsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ringroster/internal/core/contactsync"
	perr "ringroster/internal/platform/errors"
	pnet "ringroster/internal/platform/net"
	cdomain "ringroster/internal/services/contacts/domain"
	udomain "ringroster/internal/services/uploads/domain"
)

func writeEnv(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(pnet.Success(status, data, "req-1"))
}

func writeErr(w http.ResponseWriter, err error) {
	status, env := pnet.Failure(err, "req-1")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(Options{BaseURL: srv.URL + "/api/v1/", Token: "tok", RetryBase: time.Millisecond})
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestFetch_EncodesSignatureAndDecodesPage(t *testing.T) {
	var got *http.Request
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		writeEnv(w, http.StatusOK, pnet.List[cdomain.Contact]{
			Items: []cdomain.Contact{{ID: "c1", Name: "Ana"}, {ID: "c2", Name: "Bo"}},
			Page:  pnet.Page{Cursor: "next-1", PageSize: 2, Total: 9},
		})
	})

	sig := contactsync.Signature{
		Filter: map[string]string{"status": "queued", "list_id": " "},
		Sort:   "name_asc",
		Search: " ana ",
	}
	page, err := c.Fetch(context.Background(), sig, "cur-0", 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Records) != 2 || page.Records[1].ID != "c2" || page.Next != "next-1" {
		t.Fatalf("page %+v", page)
	}

	if got.URL.Path != "/api/v1/contacts" {
		t.Fatalf("path %q", got.URL.Path)
	}
	q := got.URL.Query()
	if q.Get("status") != "queued" || q.Has("list_id") || q.Get("sort") != "name_asc" ||
		q.Get("search") != "ana" || q.Get("cursor") != "cur-0" || q.Get("limit") != "2" {
		t.Fatalf("query %v", q)
	}
	if got.Header.Get("Authorization") != "Bearer tok" || got.Header.Get("User-Agent") != defaultUA {
		t.Fatalf("headers %v", got.Header)
	}
}

func TestFetch_StartCursorIsOmittedAndLastPage(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("cursor") {
			t.Errorf("start cursor should not be sent")
		}
		writeEnv(w, http.StatusOK, pnet.List[cdomain.Contact]{Items: []cdomain.Contact{}})
	})
	page, err := c.Fetch(context.Background(), contactsync.Signature{}, contactsync.Start, 0)
	if err != nil || !page.Last() || len(page.Records) != 0 {
		t.Fatalf("page %+v %v", page, err)
	}
}

func TestFetch_ServerErrorKeepsCodeAndField(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, perr.WithField(perr.InvalidArgf("cursor is malformed"), "cursor"))
	})
	_, err := c.Fetch(context.Background(), contactsync.Signature{}, "junk", 10)
	e, ok := perr.As(err)
	if !ok || e.Code() != perr.ErrorCodeInvalidArgument || e.Field() != "cursor" {
		t.Fatalf("expected invalid cursor error, got %v", err)
	}
}

func TestFetch_RetriesTransientStatuses(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeEnv(w, http.StatusOK, pnet.List[cdomain.Contact]{Items: []cdomain.Contact{{ID: "c1"}}})
	})
	page, err := c.Fetch(context.Background(), contactsync.Signature{}, contactsync.Start, 5)
	if err != nil || len(page.Records) != 1 {
		t.Fatalf("page %+v %v", page, err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})
	_, err := c.Fetch(context.Background(), contactsync.Signature{}, contactsync.Start, 5)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if calls.Load() != int32(defaultMaxRetry+1) {
		t.Fatalf("attempts %d", calls.Load())
	}
}

func TestFetch_ContextCancelStopsRetrying(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(context.Context, time.Duration) error { cancel(); return context.Canceled }
	_, err := c.Fetch(ctx, contactsync.Signature{}, contactsync.Start, 5)
	if !perr.IsCode(err, perr.ErrorCodeTimeout) {
		t.Fatalf("expected timeout code, got %v", err)
	}
}

func TestUpload_PostsOnceAndDecodesOutcome(t *testing.T) {
	var calls atomic.Int32
	var body udomain.Request
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/contacts/uploads" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type %q", r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeEnv(w, http.StatusCreated, udomain.Outcome{
			UploadID: "u1", SourceName: body.SourceName, SuccessCount: 1, FailureCount: 1,
			Errors: []udomain.RowError{{Row: 2, Field: "phone", Message: "phone must be a valid phone number"}},
		})
	})

	req := udomain.Request{SourceName: "crm", Rows: []udomain.Row{{Name: "Ana", Phone: "+15551234567"}, {Name: "Bo", Phone: "x"}}}
	out, err := c.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if out.UploadID != "u1" || out.SourceName != "crm" || len(out.Errors) != 1 || out.Errors[0].Row != 2 {
		t.Fatalf("outcome %+v", out)
	}
	if len(body.Rows) != 2 {
		t.Fatalf("rows not sent: %+v", body)
	}
	if o := Outcome(out); o.SuccessCount != 1 || o.FailureCount != 1 {
		t.Fatalf("core outcome %+v", o)
	}

	// writes are never retried
	calls.Store(0)
	c2 := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	if _, err := c2.Upload(context.Background(), req); err == nil {
		t.Fatalf("expected an error")
	}
	if calls.Load() != 1 {
		t.Fatalf("upload retried %d times", calls.Load())
	}
}

func TestGetUpload_NotFound(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/contacts/uploads/u9" {
			t.Errorf("path %q", r.URL.Path)
		}
		writeErr(w, perr.NotFoundf("upload u9 not found"))
	})
	_, err := c.GetUpload(context.Background(), "u9")
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	c := New(Options{RetryBase: time.Second})
	if c.backoff(0) != time.Second || c.backoff(2) != 4*time.Second {
		t.Fatalf("backoff %v %v", c.backoff(0), c.backoff(2))
	}
	if c.backoff(10) != maxBackoff {
		t.Fatalf("backoff not capped: %v", c.backoff(10))
	}
}
