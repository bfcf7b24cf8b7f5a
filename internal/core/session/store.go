// Package session owns the authoritative session snapshot of each browser
// session and its lifecycle against the identity provider.
//
// A Store starts in {absent, initializing}, asks the provider once for an
// existing session, and from then on mirrors the provider's auth-state-changed
// notifications. The provider is the only source of truth: credential
// operations never write the snapshot themselves, they wait for the
// notification the provider emits.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
	"github.com/haphazard/site/internal/pkg/metrics"
)

// Store holds one versioned session snapshot and fans changes out to
// subscribers synchronously, in version order.
//
// Subscribers must not call back into the Store's credential operations from
// inside their callback.
type Store struct {
	provider ports.IdentityProvider
	log      zerolog.Logger

	// emitMu serialises apply and fan-out so every subscriber observes
	// versions in increasing order.
	emitMu sync.Mutex

	mu      sync.RWMutex
	snap    domain.Snapshot
	subs    map[uint64]func(domain.Snapshot)
	nextSub uint64
	// pending is the latest notification received before the initial
	// session check completed.
	pending     *domain.AuthEvent
	providerSub ports.Subscription
	started     bool
	closed      bool

	ready     chan struct{}
	closeOnce sync.Once
}

// NewStore returns a Store in the {absent, initializing} state. Call Start to
// begin resolution.
func NewStore(provider ports.IdentityProvider, log zerolog.Logger) *Store {
	return &Store{
		provider: provider,
		log:      log,
		snap:     domain.Snapshot{Status: domain.StatusInitializing},
		subs:     make(map[uint64]func(domain.Snapshot)),
		ready:    make(chan struct{}),
	}
}

// Start registers the provider listener and launches the initial session
// check in the background. Calls after the first, or after Close, do nothing.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	sub := s.provider.OnAuthStateChange(s.handleEvent)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	s.providerSub = sub
	s.mu.Unlock()

	go s.initialize(ctx)
}

func (s *Store) initialize(ctx context.Context) {
	identity, err := s.provider.CurrentSession(ctx)
	if err != nil {
		// Fail safe to signed out rather than loading forever.
		s.log.Warn().Err(err).Msg("initial session check failed, treating as signed out")
		identity = nil
	}
	s.resolve(identity)
}

// resolve ends the initializing phase. A notification that arrived in the
// meantime is newer than the check's answer and wins.
func (s *Store) resolve(identity *domain.Identity) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed || s.snap.Status != domain.StatusInitializing {
		s.mu.Unlock()
		return
	}
	if s.pending != nil {
		identity = s.pending.Identity
		s.pending = nil
	}
	s.snap = domain.Snapshot{
		Identity: identity.Clone(),
		Status:   domain.StatusResolved,
		Version:  s.snap.Version + 1,
	}
	snap, fns := s.snap.Clone(), s.subscribers()
	close(s.ready)
	s.mu.Unlock()

	s.log.Debug().Bool("authenticated", snap.Authenticated()).Msg("session resolved")
	fanOut(snap, fns)
}

// handleEvent applies one provider notification: last write wins, and a
// notification equal to the current state changes nothing.
func (s *Store) handleEvent(ev domain.AuthEvent) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.snap.Status == domain.StatusInitializing {
		held := ev
		held.Identity = ev.Identity.Clone()
		s.pending = &held
		s.mu.Unlock()
		return
	}
	if s.snap.Identity.Equal(ev.Identity) {
		s.mu.Unlock()
		return
	}
	s.snap = domain.Snapshot{
		Identity: ev.Identity.Clone(),
		Status:   domain.StatusResolved,
		Version:  s.snap.Version + 1,
	}
	snap, fns := s.snap.Clone(), s.subscribers()
	s.mu.Unlock()

	s.log.Debug().Str("event", string(ev.Kind)).Uint64("version", snap.Version).Msg("session changed")
	fanOut(snap, fns)
}

// subscribers copies the callback set; callers hold s.mu.
func (s *Store) subscribers() []func(domain.Snapshot) {
	fns := make([]func(domain.Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

func fanOut(snap domain.Snapshot, fns []func(domain.Snapshot)) {
	for _, fn := range fns {
		fn(snap.Clone())
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Ready is closed once the initial session check has resolved.
func (s *Store) Ready() <-chan struct{} { return s.ready }

// Subscribe registers fn for every snapshot change after this call.
func (s *Store) Subscribe(fn func(domain.Snapshot)) ports.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ports.SubscriptionFunc(func() {})
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	var once sync.Once
	return ports.SubscriptionFunc(func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	})
}

// SignIn delegates to the provider. On success the snapshot changes through
// the provider's notification, not here.
func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	identity, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		metrics.AuthOperationsTotal.WithLabelValues("sign_in", resultLabel(err)).Inc()
		return nil, err
	}
	metrics.AuthOperationsTotal.WithLabelValues("sign_in", "ok").Inc()
	return identity, nil
}

// SignUp delegates to the provider.
func (s *Store) SignUp(ctx context.Context, email, password string) (*domain.Identity, error) {
	identity, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		metrics.AuthOperationsTotal.WithLabelValues("sign_up", resultLabel(err)).Inc()
		return nil, err
	}
	metrics.AuthOperationsTotal.WithLabelValues("sign_up", "ok").Inc()
	return identity, nil
}

// SignOut delegates to the provider and always leaves the snapshot signed
// out. A failed remote revoke is logged, not returned.
func (s *Store) SignOut(ctx context.Context) {
	if err := s.provider.SignOut(ctx); err != nil {
		metrics.AuthOperationsTotal.WithLabelValues("sign_out", resultLabel(err)).Inc()
		s.log.Warn().Err(err).Msg("remote sign out failed, session cleared locally")
	} else {
		metrics.AuthOperationsTotal.WithLabelValues("sign_out", "ok").Inc()
	}
	s.handleEvent(domain.AuthEvent{Kind: domain.EventSignedOut})
}

// Refresh forwards to the provider when it keeps tokens fresh.
func (s *Store) Refresh(ctx context.Context, window time.Duration) error {
	r, ok := s.provider.(ports.SessionRefresher)
	if !ok {
		return nil
	}
	return r.RefreshIfNeeded(ctx, window)
}

// Close unregisters the provider listener and drops all subscribers.
// Later notifications change nothing. Safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		sub := s.providerSub
		s.providerSub = nil
		s.subs = make(map[uint64]func(domain.Snapshot))
		s.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
	})
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrDuplicateAccount):
		return "duplicate"
	case errors.Is(err, domain.ErrNetwork):
		return "network"
	default:
		return "rejected"
	}
}
