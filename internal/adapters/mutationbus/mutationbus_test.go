package mutationbus

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"ringroster/internal/core/contactsync"
)

// memBus delivers synchronously to subscribers whose subject matches, with a trailing * wildcard
type memBus struct {
	mu   sync.Mutex
	subs map[string]func(string, []byte)
	sent []string
}

func newMemBus() *memBus { return &memBus{subs: map[string]func(string, []byte){}} }

func (b *memBus) Publish(_ context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.sent = append(b.sent, subject)
	var fns []func(string, []byte)
	for pat, fn := range b.subs {
		if pat == subject || (strings.HasSuffix(pat, ".*") && strings.HasPrefix(subject, strings.TrimSuffix(pat, "*"))) {
			fns = append(fns, fn)
		}
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(subject, data)
	}
	return nil
}

func (b *memBus) Subscribe(subject string, fn func(string, []byte)) (func() error, error) {
	b.mu.Lock()
	b.subs[subject] = fn
	b.mu.Unlock()
	return func() error {
		b.mu.Lock()
		delete(b.subs, subject)
		b.mu.Unlock()
		return nil
	}, nil
}

func (b *memBus) Close() error { return nil }

func TestSubject(t *testing.T) {
	if got := Subject("", "acme"); got != "ringroster.contacts.mutations.acme" {
		t.Fatalf("default root: %q", got)
	}
	if got := Subject("x.y", "a.b c>*"); got != "x.y._"+tokenEncoding.EncodeToString([]byte("a.b c>*")) {
		t.Fatalf("tenant tokens should be encoded, got %q", got)
	}
}

func TestTenantToken_Distinct(t *testing.T) {
	ids := []string{"a.b", "a_b", "a b", "a*b", "a>b", "ab", "a-b", "_", "", "A.B"}
	seen := map[string]string{}
	for _, id := range ids {
		tok := TenantToken(id)
		if strings.ContainsAny(tok, ". *>") {
			t.Fatalf("token %q for %q is not a single subject token", tok, id)
		}
		if prev, dup := seen[tok]; dup {
			t.Fatalf("tenants %q and %q share token %q", prev, id, tok)
		}
		seen[tok] = id
	}
	if TenantToken("acme-01") != "acme-01" {
		t.Fatalf("plain ids should pass through")
	}
}

func TestPublishSubscribe_LookalikeTenantsStayApart(t *testing.T) {
	b := newMemBus()
	var got []Event
	unsub, err := Subscribe(b, "", "a_b", func(e Event) { got = append(got, e) })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	p := NewPublisher(b, "")
	if err := p.Publish(context.Background(), Event{TenantID: "a.b", SuccessCount: 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Publish(context.Background(), Event{TenantID: "a_b", SuccessCount: 2}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0].SuccessCount != 2 {
		t.Fatalf("a_b received %+v", got)
	}
}

func TestPublishSubscribe_TenantScoped(t *testing.T) {
	b := newMemBus()
	var got []Event
	unsub, err := Subscribe(b, "", "t1", func(e Event) { got = append(got, e) })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	p := NewPublisher(b, "")
	ctx := context.Background()
	_ = p.Publish(ctx, Event{TenantID: "t1", UploadID: "u1", SuccessCount: 2})
	_ = p.Publish(ctx, Event{TenantID: "t2", UploadID: "u2", SuccessCount: 1})
	if len(got) != 1 || got[0].UploadID != "u1" || got[0].Outcome() != (contactsync.Outcome{SuccessCount: 2}) {
		t.Fatalf("got %+v", got)
	}

	_ = unsub()
	_ = p.Publish(ctx, Event{TenantID: "t1", UploadID: "u3"})
	if len(got) != 1 {
		t.Fatalf("delivered after unsubscribe")
	}

	if err := p.Publish(ctx, Event{}); err == nil {
		t.Fatalf("event without tenant should be refused")
	}
}

func TestSubscribe_AllTenantsAndBadPayload(t *testing.T) {
	b := newMemBus()
	n := 0
	if _, err := Subscribe(b, "r", "", func(Event) { n++ }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	_ = NewPublisher(b, "r").Publish(context.Background(), Event{TenantID: "a", SuccessCount: 1})
	_ = NewPublisher(b, "r").Publish(context.Background(), Event{TenantID: "b", SuccessCount: 1})
	_ = b.Publish(context.Background(), "r.c", "not an event")
	if n != 2 {
		t.Fatalf("expected two decoded events, got %d", n)
	}
}

func TestNilPublisherDrops(t *testing.T) {
	var p *Publisher
	if err := p.Publish(context.Background(), Event{TenantID: "t"}); err != nil {
		t.Fatalf("nil publisher: %v", err)
	}
	if err := NewPublisher(nil, "").Publish(context.Background(), Event{TenantID: "t"}); err != nil {
		t.Fatalf("nil bus: %v", err)
	}
	if _, err := Subscribe(nil, "", "t", func(Event) {}); err == nil {
		t.Fatalf("subscribe on nil bus should fail")
	}
}

type refresher struct{ n int }

func (r *refresher) Refresh() uint64 { r.n++; return uint64(r.n) }

func TestRoute_ResetsOnSuccess(t *testing.T) {
	b := newMemBus()
	r := &refresher{}
	if _, err := Route(b, "", "t1", contactsync.NewMutationHandler(r, nil)); err != nil {
		t.Fatalf("route: %v", err)
	}
	p := NewPublisher(b, "")
	_ = p.Publish(context.Background(), Event{TenantID: "t1", SuccessCount: 3, FailureCount: 1})
	_ = p.Publish(context.Background(), Event{TenantID: "t1", FailureCount: 4})
	if r.n != 1 {
		t.Fatalf("expected one reset, got %d", r.n)
	}
}
