// Package bus is the NATS connection used to fan out contact mutation events
package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ringroster/internal/platform/logger"

	"github.com/nats-io/nats.go"
)

// Config configures the connection
type Config struct {
	URL  string
	Name string
	// Timeout bounds the initial dial, default 5s
	Timeout time.Duration
	Log     logger.Logger
}

// conn is the part of *nats.Conn the bus uses
type conn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
	FlushWithContext(ctx context.Context) error
	Drain() error
	IsClosed() bool
}

// Bus publishes JSON payloads and delivers raw subscriptions
type Bus struct {
	nc  conn
	log logger.Logger
}

var connect = func(url string, opts ...nats.Option) (conn, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return nc, nil
}

// Open dials cfg.URL; reconnects after that are handled by the client and logged
func Open(ctx context.Context, cfg Config) (*Bus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.URL == "" {
		return nil, errors.New("bus: empty url")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	log := cfg.Log.With().Str("component", "bus").Logger()
	nc, err := connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("bus: connect: %w", err)
	}
	return &Bus{nc: nc, log: log}, nil
}

// Publish encodes v as JSON and publishes it on subject
// NATS publishes are fire and forget, ctx is only checked before sending
func (b *Bus) Publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("bus: marshal %s: %w", subject, err)
	}
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("bus: publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe calls fn for every message on subject, which may hold wildcards
// fn runs on the subscription goroutine, one message at a time
func (b *Bus) Subscribe(subject string, fn func(subject string, data []byte)) (func() error, error) {
	if fn == nil {
		return nil, errors.New("bus: nil handler")
	}
	sub, err := b.nc.Subscribe(subject, func(m *nats.Msg) { fn(m.Subject, m.Data) })
	if err != nil {
		return nil, fmt.Errorf("bus: subscribe %s: %w", subject, err)
	}
	return sub.Unsubscribe, nil
}

// Ping round trips to the server
func (b *Bus) Ping(ctx context.Context) error {
	if b.nc.IsClosed() {
		return nats.ErrConnectionClosed
	}
	return b.nc.FlushWithContext(ctx)
}

// Close drains pending messages and subscriptions, then closes the connection
func (b *Bus) Close() error {
	if b.nc.IsClosed() {
		return nil
	}
	return b.nc.Drain()
}
