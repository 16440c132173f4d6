// Package revocation tracks explicitly invalidated tokens (logout) until
// their natural expiry. The registry is an owned, injectable object rather
// than a process global so tests can construct isolated instances.
//
// Memory/security tradeoff operators must know about: when the registry
// exceeds its size ceiling it is cleared in bulk. A clear re-admits tokens
// that were revoked but have not yet expired; they stay usable until their
// embedded expiry passes. The event is logged at warn level.
package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/cinematch/authkit/logger"
)

// Registry answers membership queries about revoked token strings. Safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]time.Time // token -> insertedAt

	cfg Config
	now func() time.Time
	log *logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the registry's clock source for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config, log *logger.Logger, opts ...Option) *Registry {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	r := &Registry{
		entries: make(map[string]time.Time),
		cfg:     cfg,
		now:     time.Now,
		log:     log.WithComponent("revocation"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Revoke inserts the token. Idempotent: revoking an already-revoked token
// keeps the original insertion time.
func (r *Registry) Revoke(tokenString string) {
	if tokenString == "" {
		return
	}

	r.mu.Lock()
	if _, ok := r.entries[tokenString]; !ok {
		r.entries[tokenString] = r.now()
	}
	size := len(r.entries)
	cleared := false
	if size > r.cfg.MaxEntries {
		// Falsely un-revoking is impossible for expired tokens: the codec
		// rejects them regardless. Unexpired revoked tokens are re-admitted
		// until they expire.
		r.entries = make(map[string]time.Time)
		cleared = true
	}
	r.mu.Unlock()

	if cleared {
		r.log.Warn("size ceiling exceeded, registry cleared; revoked-but-unexpired tokens are re-admitted until expiry",
			map[string]interface{}{"ceiling": r.cfg.MaxEntries, "dropped": size})
	}
}

// IsRevoked reports whether the token has been revoked and not yet evicted.
func (r *Registry) IsRevoked(tokenString string) bool {
	r.mu.RLock()
	_, ok := r.entries[tokenString]
	r.mu.RUnlock()
	return ok
}

// Len returns the current number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep drops entries older than the maximum token lifetime. A token that
// old has expired on its own, so forgetting it loses nothing. Expired keys
// are collected under a read lock first so the write lock is held only for
// the deletes.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.cfg.MaxTokenLifetime)

	r.mu.RLock()
	var stale []string
	for tok, insertedAt := range r.entries {
		if insertedAt.Before(cutoff) {
			stale = append(stale, tok)
		}
	}
	r.mu.RUnlock()

	if len(stale) == 0 {
		return 0
	}

	r.mu.Lock()
	removed := 0
	for _, tok := range stale {
		if insertedAt, ok := r.entries[tok]; ok && insertedAt.Before(cutoff) {
			delete(r.entries, tok)
			removed++
		}
	}
	r.mu.Unlock()

	r.log.Debug("sweep complete", map[string]interface{}{"removed": removed})
	return removed
}

// Run sweeps periodically until the context is cancelled. Housekeeping is
// decoupled from request handling; start it once at process startup.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
