// Package ratelimit guards the credential-issuing endpoints with per-client,
// per-endpoint fixed-window attempt counters. Window rollover is detected
// lazily on the next attempt, not by a timer; a periodic janitor only drops
// windows nobody touches anymore.
//
// Being limited is backpressure, not an authentication failure: a blocked
// result carries the duration after which the client may retry.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// UnknownClient is the shared bucket used when no client identity can be
// derived from the request. Degrading to one global bucket is the accepted
// fallback, not a crash.
const UnknownClient = "unknown"

// Result is the outcome of a rate-limit check.
type Result struct {
	// Allowed reports whether the attempt may proceed.
	Allowed bool

	// RetryAfter is how long the client must wait when blocked. Zero when
	// allowed.
	RetryAfter time.Duration
}

type window struct {
	count     int
	startedAt time.Time
}

// Limiter counts attempts per (endpoint, client) key. Safe for concurrent
// use. Construct one per process and inject it; it is not a package global.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	cfg Config
	now func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock sets the limiter's clock source for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLimiter creates a limiter with the given per-endpoint configuration.
func NewLimiter(cfg Config, opts ...Option) *Limiter {
	cfg.ApplyDefaults()
	l := &Limiter{
		windows: make(map[string]*window),
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check records an attempt for (endpoint, clientIdentity) and reports whether
// it may proceed. Endpoints without configuration always pass. An empty
// client identity falls back to the shared UnknownClient bucket.
func (l *Limiter) Check(endpoint, clientIdentity string) Result {
	limit, metered := l.cfg.Endpoints[endpoint]
	if !metered {
		return Result{Allowed: true}
	}
	if clientIdentity == "" {
		clientIdentity = UnknownClient
	}
	key := endpoint + ":" + clientIdentity
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.startedAt) > limit.Window {
		// Fresh window. Rollover happens here, on access, not on a timer.
		l.windows[key] = &window{count: 1, startedAt: now}
		return Result{Allowed: true}
	}

	w.count++
	if w.count > limit.MaxAttempts {
		return Result{
			Allowed:    false,
			RetryAfter: w.startedAt.Add(limit.Window).Sub(now),
		}
	}
	return Result{Allowed: true}
}

// Cleanup drops windows that ended long enough ago that they can never
// influence another check. Returns the number of entries removed.
func (l *Limiter) Cleanup() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		limit, ok := l.cfg.Endpoints[endpointFromKey(key)]
		staleAfter := 2 * time.Hour
		if ok {
			staleAfter = 2 * limit.Window
		}
		if now.Sub(w.startedAt) > staleAfter {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// Run cleans up periodically until the context is cancelled.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

func endpointFromKey(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
