package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/core/ports"
	"github.com/haphazard/site/internal/pkg/metrics"
)

const (
	defaultIdleTTL       = 30 * time.Minute
	defaultSweepInterval = time.Minute
	defaultRefreshWindow = 2 * time.Minute
)

// RegistryConfig tunes store eviction and token refresh.
type RegistryConfig struct {
	// IdleTTL is how long an unreferenced store survives without access.
	IdleTTL time.Duration
	// SweepInterval is the period of the background refresh + sweep loop.
	SweepInterval time.Duration
	// RefreshWindow refreshes tokens expiring within this window.
	RefreshWindow time.Duration
}

type entry struct {
	store    *Store
	refs     int
	lastSeen time.Time
}

// Registry owns one Store per browser session. Stores are created and
// started on first use and torn down exactly once: when idle past IdleTTL
// with no outstanding references, or when the registry closes.
type Registry struct {
	ctx     context.Context
	factory ports.IdentityProviderFactory
	cfg     RegistryConfig
	log     zerolog.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

// NewRegistry returns a Registry whose stores resolve their initial session
// under ctx. Cancelling ctx aborts in-flight initial checks, which then
// resolve as signed out.
func NewRegistry(ctx context.Context, factory ports.IdentityProviderFactory, cfg RegistryConfig, log zerolog.Logger) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.RefreshWindow <= 0 {
		cfg.RefreshWindow = defaultRefreshWindow
	}
	return &Registry{
		ctx:     ctx,
		factory: factory,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Acquire returns the started Store of sessionID, creating it when needed.
// The caller must invoke release once it stops using the store; release is
// idempotent.
func (r *Registry) Acquire(sessionID string) (*Store, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		// Shutting down: hand out a detached store that resolves normally
		// and is torn down on release.
		s := NewStore(r.factory.ForSession(sessionID), r.log.With().Str("session_id", sessionID).Logger())
		s.Start(r.ctx)
		return s, sync.OnceFunc(s.Close)
	}

	e, ok := r.entries[sessionID]
	if !ok {
		s := NewStore(r.factory.ForSession(sessionID), r.log.With().Str("session_id", sessionID).Logger())
		s.Start(r.ctx)
		e = &entry{store: s}
		r.entries[sessionID] = e
		metrics.SessionStoresActive.Set(float64(len(r.entries)))
	}
	e.refs++
	e.lastSeen = r.now()

	return e.store, sync.OnceFunc(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		e.refs--
		e.lastSeen = r.now()
	})
}

// Discard tears down the store of sessionID at once when it has no
// outstanding references and is not signed in. It reports whether a store
// was removed.
func (r *Registry) Discard(sessionID string) bool {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	if !ok || e.refs > 0 || e.store.Snapshot().Authenticated() {
		r.mu.Unlock()
		return false
	}
	delete(r.entries, sessionID)
	metrics.SessionStoresActive.Set(float64(len(r.entries)))
	r.mu.Unlock()

	e.store.Close()
	return true
}

// Len returns the number of live stores.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep tears down stores that are unreferenced and idle past IdleTTL.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	var evicted []*Store
	for id, e := range r.entries {
		if e.refs > 0 || e.lastSeen.After(cutoff) {
			continue
		}
		evicted = append(evicted, e.store)
		delete(r.entries, id)
	}
	metrics.SessionStoresActive.Set(float64(len(r.entries)))
	r.mu.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	if len(evicted) > 0 {
		r.log.Debug().Int("evicted", len(evicted)).Msg("idle session stores evicted")
	}
	return len(evicted)
}

// Refresh asks every live store's provider to refresh near-expiry tokens.
// Failures are logged per session and do not stop the pass.
func (r *Registry) Refresh(ctx context.Context) {
	r.mu.Lock()
	stores := make(map[string]*Store, len(r.entries))
	for id, e := range r.entries {
		stores[id] = e.store
	}
	r.mu.Unlock()

	for id, s := range stores {
		if err := s.Refresh(ctx, r.cfg.RefreshWindow); err != nil {
			r.log.Warn().Err(err).Str("session_id", id).Msg("token refresh failed")
		}
	}
}

// Run drives Refresh and Sweep every SweepInterval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
			r.Sweep()
		}
	}
}

// Close tears down every store. Acquire keeps working afterwards but hands
// out detached stores.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	entries := r.entries
	r.entries = make(map[string]*entry)
	metrics.SessionStoresActive.Set(0)
	r.mu.Unlock()

	for _, e := range entries {
		e.store.Close()
	}
}
