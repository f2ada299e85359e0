// Package ratelimit guards outbound API calls with one token bucket per
// external source.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"maps"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/Cyclone1070/beachai/internal/clock"
	"golang.org/x/time/rate"
)

// Policy decides what Acquire does when a bucket is empty.
type Policy string

const (
	// Block waits for a refill, up to the limiter's max wait.
	Block Policy = "block"
	// FailFast returns a *RateLimitedError immediately.
	FailFast Policy = "fail_fast"
)

// ErrRateLimited is the sentinel every *RateLimitedError unwraps to.
var ErrRateLimited = errors.New("rate limited")

// RateLimitedError reports that no token was available in time.
type RateLimitedError struct {
	Source     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit for %q exhausted, retry after %s", e.Source, e.RetryAfter.Round(time.Millisecond))
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

// Limiter holds one bucket per source. Sources without a configured bucket
// are not limited.
//
// Buckets are driven with explicit timestamps from the injected clock, never
// the wall clock, so refill is computed lazily on each call.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	policy  Policy
	maxWait time.Duration
	clock   clock.Clock
	logger  *log.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(c clock.Clock) Option {
	return func(l *Limiter) { l.clock = c }
}

// WithLogger sets the logger used for wait and rejection messages.
func WithLogger(logger *log.Logger) Option {
	return func(l *Limiter) { l.logger = logger }
}

// New creates a Limiter. maxWait bounds how long a Block acquire may wait.
func New(policy Policy, maxWait time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		policy:  policy,
		maxWait: maxWait,
		clock:   clock.Real{},
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// bucket pairs a token bucket with the lock under which its clock is read.
// Timestamps must reach rate.Limiter in order: an older time rewinds its
// refill mark and the next call refills the gap twice.
type bucket struct {
	mu  sync.Mutex
	lim *rate.Limiter
}

// Configure installs a full bucket for source, replacing any previous one.
// Capacity is truncated to whole tokens.
func (l *Limiter) Configure(source string, capacity, refillPerSecond float64) {
	lim := rate.NewLimiter(rate.Limit(refillPerSecond), int(capacity))
	// Touch the bucket at the configured instant so it starts full.
	lim.SetBurstAt(l.clock.Now(), int(capacity))

	l.mu.Lock()
	l.buckets[source] = &bucket{lim: lim}
	l.mu.Unlock()
}

// Available reports the tokens currently in source's bucket after refill,
// or +Inf when source is not limited.
func (l *Limiter) Available(source string) float64 {
	b := l.bucket(source)
	if b == nil {
		return math.Inf(1)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lim.TokensAt(l.clock.Now())
}

// Sources returns the configured sources in sorted order.
func (l *Limiter) Sources() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Sorted(maps.Keys(l.buckets))
}

func (l *Limiter) bucket(source string) *bucket {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.buckets[source]
}

// Acquire takes one token from source's bucket.
//
// Under FailFast an empty bucket fails at once. Under Block the call sleeps
// until its token is due, but never past the max wait or ctx's deadline: if
// the token cannot arrive within either bound it fails without waiting.
// Failures are *RateLimitedError, or ctx.Err() when ctx ends mid-wait; in
// both cases the token is handed back.
func (l *Limiter) Acquire(ctx context.Context, source string) error {
	b := l.bucket(source)
	if b == nil {
		return nil
	}
	if l.policy != Block {
		return l.takeNow(b, source)
	}

	r, wait, err := l.reserve(ctx, b, source)
	if err != nil || wait == 0 {
		return err
	}

	l.logger.Printf("[ratelimit] %s: waiting %s for a token", source, wait)
	select {
	case <-ctx.Done():
		b.mu.Lock()
		r.CancelAt(l.clock.Now())
		b.mu.Unlock()
		return ctx.Err()
	case <-l.clock.After(wait):
		return nil
	}
}

func (l *Limiter) takeNow(b *bucket, source string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.clock.Now()
	if b.lim.AllowN(now, 1) {
		return nil
	}
	wait := untilToken(b.lim, now)
	l.logger.Printf("[ratelimit] %s: rejected, next token in %s", source, wait)
	return &RateLimitedError{Source: source, RetryAfter: wait}
}

// reserve books the next token and returns how long the caller must wait
// for it. A token that cannot arrive before the max wait or ctx's deadline
// is handed back at once.
func (l *Limiter) reserve(ctx context.Context, b *bucket, source string) (*rate.Reservation, time.Duration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := l.clock.Now()
	deadline := now.Add(l.maxWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	r := b.lim.ReserveN(now, 1)
	if !r.OK() {
		return nil, 0, &RateLimitedError{Source: source, RetryAfter: untilToken(b.lim, now)}
	}
	wait := r.DelayFrom(now)
	if wait > 0 && now.Add(wait).After(deadline) {
		r.CancelAt(now)
		l.logger.Printf("[ratelimit] %s: rejected, next token in %s", source, wait)
		return nil, 0, &RateLimitedError{Source: source, RetryAfter: wait}
	}
	return r, wait, nil
}

// untilToken is how long until b holds one whole token.
func untilToken(b *rate.Limiter, now time.Time) time.Duration {
	missing := 1 - b.TokensAt(now)
	if missing <= 0 {
		return 0
	}
	if b.Limit() <= 0 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(math.Ceil(missing / float64(b.Limit()) * float64(time.Second)))
}
