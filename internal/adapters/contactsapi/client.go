// Package contactsapi is the HTTP client sync tools use against the contacts API
package contactsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ringroster/internal/core/contactsync"
	perr "ringroster/internal/platform/errors"
	"ringroster/internal/platform/logger"
	pnet "ringroster/internal/platform/net"
	cdomain "ringroster/internal/services/contacts/domain"
	udomain "ringroster/internal/services/uploads/domain"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUA        = "ringroster-sync"
	defaultMaxRetry  = 2
	defaultRetryBase = 250 * time.Millisecond
	maxBackoff       = 10 * time.Second
)

// Options configures the Client
type Options struct {
	// BaseURL is the API root, for example http://localhost:4000/api/v1
	BaseURL   string
	Token     string
	UserAgent string
	// Timeout bounds each attempt
	Timeout time.Duration

	// reads are retried on transport errors, 429 and 502..504; writes never are
	MaxRetries int
	RetryBase  time.Duration
}

// Client talks to /contacts and /contacts/uploads
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

var _ contactsync.Fetcher[cdomain.Contact] = (*Client)(nil)

// New creates a Client with defaults filled in; MaxRetries below zero disables retries
func New(o Options) *Client {
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("contactsapi"),
		sleep: sleepCtx,
	}
}

// Key identifies a contact for duplicate suppression
func Key(c cdomain.Contact) string { return c.ID }

// Fetch implements contactsync.Fetcher; filter keys are sent as query parameters as is
func (c *Client) Fetch(ctx context.Context, sig contactsync.Signature, cursor contactsync.Cursor, size int) (contactsync.Page[cdomain.Contact], error) {
	q := url.Values{}
	for k, v := range sig.Filter {
		if v = strings.TrimSpace(v); v != "" {
			q.Set(k, v)
		}
	}
	if sig.Sort != "" {
		q.Set("sort", sig.Sort)
	}
	if s := strings.TrimSpace(sig.Search); s != "" {
		q.Set("search", s)
	}
	if cursor != contactsync.Start {
		q.Set("cursor", string(cursor))
	}
	if size > 0 {
		q.Set("limit", strconv.Itoa(size))
	}

	var list pnet.List[cdomain.Contact]
	if err := c.do(ctx, http.MethodGet, "/contacts", q, nil, &list); err != nil {
		return contactsync.Page[cdomain.Contact]{}, err
	}
	return contactsync.Page[cdomain.Contact]{Records: list.Items, Next: contactsync.Cursor(list.Page.Cursor)}, nil
}

// Upload posts a bulk upload and returns its outcome
func (c *Client) Upload(ctx context.Context, req udomain.Request) (udomain.Outcome, error) {
	var out udomain.Outcome
	err := c.do(ctx, http.MethodPost, "/contacts/uploads", nil, req, &out)
	return out, err
}

// GetUpload reads a stored outcome
func (c *Client) GetUpload(ctx context.Context, id string) (udomain.Outcome, error) {
	var out udomain.Outcome
	err := c.do(ctx, http.MethodGet, "/contacts/uploads/"+url.PathEscape(id), nil, nil, &out)
	return out, err
}

// Outcome reduces an upload outcome to what the sync core needs
func Outcome(o udomain.Outcome) contactsync.Outcome {
	return contactsync.Outcome{SuccessCount: o.SuccessCount, FailureCount: o.FailureCount}
}

// do sends one request and decodes the envelope data into out
func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	u := c.opts.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeJSON, "contactsapi encode %s", path)
		}
	}
	retry := method == http.MethodGet

	for attempt := 0; ; attempt++ {
		status, raw, err := c.once(ctx, method, u, payload)
		if err == nil && !transient(status) {
			return decode(status, raw, out)
		}
		if ctx.Err() != nil {
			return perr.Wrapf(ctx.Err(), perr.ErrorCodeTimeout, "contactsapi %s %s", method, path)
		}
		if !retry || attempt >= c.opts.MaxRetries {
			if err != nil {
				return perr.Wrapf(err, perr.ErrorCodeUnavailable, "contactsapi %s %s", method, path)
			}
			return decode(status, raw, out)
		}
		back := c.backoff(attempt)
		c.log.Warn().Err(err).Int("status", status).Int("attempt", attempt).Dur("retry_in", back).Str("path", path).Msg("contactsapi retrying")
		if err := c.sleep(ctx, back); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeTimeout, "contactsapi %s %s", method, path)
		}
	}
}

func (c *Client) once(ctx context.Context, method, u string, payload []byte) (int, []byte, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

func transient(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// decode maps the envelope to out or to a project error carrying the server code
func decode(status int, raw []byte, out any) error {
	var env pnet.Envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		if status < 200 || status >= 300 {
			return perr.FromWire(status, perr.Wire{Message: snippet(raw)})
		}
		return perr.Wrapf(err, perr.ErrorCodeJSON, "contactsapi decode envelope")
	}
	if err := env.Err(status); err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "contactsapi decode data")
	}
	return nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
