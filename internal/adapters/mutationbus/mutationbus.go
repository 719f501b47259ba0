// Package mutationbus carries bulk mutation outcomes between the API and sync clients
package mutationbus

import (
	"context"
	"encoding/base32"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"ringroster/internal/core/contactsync"
	"ringroster/internal/platform/logger"
	"ringroster/internal/platform/store"
)

// DefaultSubject is the subject root; the tenant id is appended as the last token
const DefaultSubject = "ringroster.contacts.mutations"

// Event is one finished bulk mutation
type Event struct {
	TenantID     string    `json:"tenant_id"`
	UploadID     string    `json:"upload_id"`
	SourceName   string    `json:"source_name"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
	At           time.Time `json:"at"`
}

// Outcome is the part of e the sync core acts on
func (e Event) Outcome() contactsync.Outcome {
	return contactsync.Outcome{SuccessCount: e.SuccessCount, FailureCount: e.FailureCount}
}

// Subject returns root.<tenant token>, see TenantToken
func Subject(root, tenantID string) string {
	if root == "" {
		root = DefaultSubject
	}
	return root + "." + TenantToken(tenantID)
}

var tokenEncoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// TenantToken maps a tenant id to one NATS subject token, distinct ids never share a token
// ids made only of letters, digits and dashes pass through; anything else becomes "_" plus base32hex
func TenantToken(tenantID string) string {
	plain := strings.IndexFunc(tenantID, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-')
	}) < 0
	if plain {
		return tenantID
	}
	return "_" + tokenEncoding.EncodeToString([]byte(tenantID))
}

// Publisher sends events for one subject root
type Publisher struct {
	bus  store.Bus
	root string
}

// NewPublisher returns a publisher on b; a nil b yields a publisher that drops everything
func NewPublisher(b store.Bus, root string) *Publisher {
	return &Publisher{bus: b, root: root}
}

// Publish sends e on root.<tenant>
func (p *Publisher) Publish(ctx context.Context, e Event) error {
	if p == nil || p.bus == nil {
		return nil
	}
	if e.TenantID == "" {
		return errors.New("mutationbus: event without tenant")
	}
	return p.bus.Publish(ctx, Subject(p.root, e.TenantID), e)
}

// Subscribe decodes events of one tenant and calls fn for each; an empty tenant listens to all
// undecodable messages are logged and skipped
func Subscribe(b store.Bus, root, tenantID string, fn func(Event)) (unsubscribe func() error, err error) {
	if b == nil {
		return nil, errors.New("mutationbus: nil bus")
	}
	subject := Subject(root, tenantID)
	if tenantID == "" {
		subject = strings.TrimSuffix(subject, ".") + ".*"
	}
	log := logger.Named("mutationbus")
	return b.Subscribe(subject, func(subj string, data []byte) {
		var e Event
		if err := json.Unmarshal(data, &e); err != nil {
			log.Warn().Err(err).Str("subject", subj).Msg("undecodable mutation event")
			return
		}
		fn(e)
	})
}

// Route sends every event of tenant to h
func Route(b store.Bus, root, tenantID string, h *contactsync.MutationHandler) (func() error, error) {
	return Subscribe(b, root, tenantID, func(e Event) { h.OnBulkMutationResult(e.Outcome()) })
}
