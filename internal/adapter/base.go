// Package adapter turns validated tool calls into requests against the
// NOAA, NWS and Google Places APIs and normalizes their replies into
// tool.Result values. All quantities are metric (meters, degrees Celsius,
// km/h, hPa) and absolute timestamps are RFC 3339 in UTC.
//
// Adapters hold no per-call state and are safe for concurrent use. They never
// return errors: every failure becomes a failed Result whose kind is one of
// Unavailable, Timeout, InvalidResponse or RateLimited.
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/Cyclone1070/beachai/internal/clock"
	"github.com/Cyclone1070/beachai/internal/tool"
)

const (
	maxBodyBytes  = 8 << 20
	maxErrorChars = 200
)

// Option configures an adapter.
type Option func(*base)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(b *base) { b.client = client }
}

// WithClock replaces the clock used for default dates and data age.
func WithClock(c clock.Clock) Option {
	return func(b *base) { b.clock = c }
}

// WithLogger sets the logger for failed calls.
func WithLogger(logger *log.Logger) Option {
	return func(b *base) { b.logger = logger }
}

// base carries the plumbing shared by every adapter.
type base struct {
	source    string
	userAgent string
	client    httpDoer
	clock     clock.Clock
	logger    *log.Logger
}

func newBase(source, userAgent string, opts []Option) base {
	b := base{
		source:    source,
		userAgent: userAgent,
		client:    &http.Client{},
		clock:     clock.Real{},
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

type fetchFunc func(ctx context.Context) (payload map[string]any, sourceTime time.Time, err error)

// invoke runs fetch under timeout and folds any failure, including a panic,
// into a failed Result.
func (b *base) invoke(ctx context.Context, toolName string, timeout time.Duration, fetch fetchFunc) (res tool.Result) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Printf("[%s] %s panicked: %v", b.source, toolName, r)
			res = tool.Failed(toolName, tool.ErrorInvalidResponse, fmt.Sprintf("%s: unexpected response: %v", b.source, r))
		}
	}()

	payload, sourceTime, err := fetch(ctx)
	if err != nil {
		kind, msg := b.classify(ctx, err)
		b.logger.Printf("[%s] %s failed after %s: %s: %s", b.source, toolName, time.Since(start).Round(time.Millisecond), kind, msg)
		return tool.Failed(toolName, kind, msg)
	}
	return tool.Succeeded(toolName, payload, sourceTime)
}

func (b *base) classify(ctx context.Context, err error) (tool.ErrorKind, string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return tool.ErrorTimeout, fmt.Sprintf("%s: request timed out", b.source)
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Kind, upstream.Error()
	}
	return tool.ErrorUnavailable, fmt.Sprintf("%s: %v", b.source, err)
}

// getJSON issues a GET to endpoint with query merged into any query string
// the endpoint already has, and decodes a 2xx JSON body into out.
func (b *base) getJSON(ctx context.Context, endpoint string, query url.Values, out any) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return &UpstreamError{Source: b.source, Kind: tool.ErrorUnavailable, Message: "bad endpoint", Cause: err}
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &UpstreamError{Source: b.source, Kind: tool.ErrorUnavailable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", b.userAgent)
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		// Drop the *url.Error wrapper: its message repeats the URL, which
		// may carry an API key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return &UpstreamError{Source: b.source, Kind: tool.ErrorUnavailable, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &UpstreamError{Source: b.source, Kind: tool.ErrorUnavailable, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(b.source, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return invalidResponse(b.source, err, "malformed JSON from %s", u.Path)
	}
	return nil
}

func statusError(source string, status int, body []byte) error {
	msg := string(body)
	if len(msg) > maxErrorChars {
		msg = msg[:maxErrorChars] + "..."
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	kind := tool.ErrorUnavailable
	if status == http.StatusTooManyRequests {
		kind = tool.ErrorRateLimited
	}
	return &UpstreamError{Source: source, Kind: kind, Status: status, Message: msg}
}
