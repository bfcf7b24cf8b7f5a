// Package identity adapts a stateless identity backend into the per-browser
// session provider the session store consumes: it persists the grant,
// keeps it fresh and emits auth-state-changed notifications.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
	"github.com/haphazard/site/internal/pkg/metrics"
)

const defaultSessionTTL = 30 * 24 * time.Hour

// Factory opens one Client per browser session.
type Factory struct {
	backend    ports.IdentityBackend
	tokens     ports.TokenStore
	events     ports.AuthEventBus
	sessionTTL time.Duration
	log        zerolog.Logger
	stale      *staleGrants
}

var _ ports.IdentityProviderFactory = (*Factory)(nil)

func NewFactory(backend ports.IdentityBackend, tokens ports.TokenStore, events ports.AuthEventBus, sessionTTL time.Duration, log zerolog.Logger) *Factory {
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &Factory{
		backend:    backend,
		tokens:     tokens,
		events:     events,
		sessionTTL: sessionTTL,
		log:        log,
		stale:      &staleGrants{ids: make(map[string]struct{})},
	}
}

// ForSession returns the provider bound to sessionID.
func (f *Factory) ForSession(sessionID string) ports.IdentityProvider {
	return &Client{
		sessionID: sessionID,
		backend:   f.backend,
		tokens:    f.tokens,
		events:    f.events,
		ttl:       f.sessionTTL,
		log:       f.log.With().Str("session_id", sessionID).Logger(),
		now:       time.Now,
		stale:     f.stale,
	}
}

// staleGrants lists sessions that signed out while their persisted grant
// could not be deleted. Such a grant must never sign the browser back in.
// It outlives the Client, which is rebuilt after its store is evicted.
type staleGrants struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func (s *staleGrants) mark(id string) {
	s.mu.Lock()
	s.ids[id] = struct{}{}
	s.mu.Unlock()
}

func (s *staleGrants) clear(id string) {
	s.mu.Lock()
	delete(s.ids, id)
	s.mu.Unlock()
}

func (s *staleGrants) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Client is the identity provider as seen by one browser session.
type Client struct {
	sessionID string
	backend   ports.IdentityBackend
	tokens    ports.TokenStore
	events    ports.AuthEventBus
	ttl       time.Duration
	log       zerolog.Logger
	now       func() time.Time
	stale     *staleGrants

	// mu serialises grant reads and writes of this session.
	mu sync.Mutex
}

var (
	_ ports.IdentityProvider = (*Client)(nil)
	_ ports.SessionRefresher = (*Client)(nil)
)

// SignIn exchanges credentials for a grant, persists it and announces the
// new session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	grant, err := c.backend.PasswordGrant(ctx, email, password)
	if err != nil {
		return nil, classify(err)
	}
	if err := c.establish(ctx, grant); err != nil {
		return nil, err
	}
	return grant.Identity.Clone(), nil
}

// SignUp registers an account. When the provider holds the session back
// until the email is confirmed, nothing is persisted or announced.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.Identity, error) {
	grant, err := c.backend.SignUp(ctx, email, password)
	if err != nil {
		return nil, classify(err)
	}
	if !grant.HasSession() {
		c.log.Info().Msg("account created, awaiting email confirmation")
		return grant.Identity.Clone(), nil
	}
	if err := c.establish(ctx, grant); err != nil {
		return nil, err
	}
	return grant.Identity.Clone(), nil
}

func (c *Client) establish(ctx context.Context, grant *domain.Grant) error {
	c.mu.Lock()
	err := c.tokens.Save(ctx, c.sessionID, grant, c.ttl)
	if err == nil {
		c.stale.clear(c.sessionID)
	}
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("persist session: %w: %w", domain.ErrNetwork, err)
	}

	c.publish(ctx, domain.EventSignedIn, grant.Identity.Clone())
	return nil
}

// SignOut clears the local session and announces it before revoking the
// grant remotely, so a failed revoke never leaves the session looking
// signed in. The revoke failure is still returned.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	grant, loadErr := c.tokens.Load(ctx, c.sessionID)
	delErr := c.tokens.Delete(ctx, c.sessionID)
	if delErr != nil {
		c.stale.mark(c.sessionID)
		c.log.Error().Err(delErr).Msg("signed-out grant left in token store, deletion retried on next session check")
	}
	c.mu.Unlock()

	c.publish(ctx, domain.EventSignedOut, nil)

	if loadErr != nil {
		return fmt.Errorf("sign out: %w: %w", domain.ErrNetwork, loadErr)
	}
	if delErr != nil {
		return fmt.Errorf("sign out: %w: %w", domain.ErrNetwork, delErr)
	}
	if !grant.HasSession() {
		return nil
	}

	err := c.backend.Logout(ctx, grant.AccessToken)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAuthentication):
		// Token already dead remotely; nothing left to revoke.
		return nil
	default:
		return fmt.Errorf("sign out: %w", classify(err))
	}
}

// CurrentSession returns the identity of the persisted grant, refreshing an
// expired access token first. A grant the provider rejects is discarded, as
// is one left behind by a sign-out that failed to delete it.
func (c *Client) CurrentSession(ctx context.Context) (*domain.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stale.has(c.sessionID) {
		if err := c.tokens.Delete(ctx, c.sessionID); err != nil {
			c.log.Error().Err(err).Msg("signed-out grant still in token store")
			return nil, nil
		}
		c.stale.clear(c.sessionID)
		return nil, nil
	}

	grant, err := c.tokens.Load(ctx, c.sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w: %w", domain.ErrNetwork, err)
	}
	if !grant.HasSession() {
		return nil, nil
	}

	if grant.ExpiresWithin(c.now(), 0) {
		fresh, err := c.backend.Refresh(ctx, grant.RefreshToken)
		if errors.Is(err, domain.ErrAuthentication) {
			c.discard(ctx)
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("refresh session: %w", classify(err))
		}
		if err := c.tokens.Save(ctx, c.sessionID, fresh, c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("failed to persist refreshed session")
		}
		grant = fresh
	}

	identity, err := c.backend.User(ctx, grant.AccessToken)
	if errors.Is(err, domain.ErrAuthentication) {
		c.discard(ctx)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("verify session: %w", classify(err))
	}
	return identity, nil
}

// OnAuthStateChange registers fn for this session's notifications.
func (c *Client) OnAuthStateChange(fn func(domain.AuthEvent)) ports.Subscription {
	return c.events.Subscribe(c.sessionID, fn)
}

// RefreshIfNeeded renews the access token when it expires within window.
// A refresh the provider rejects ends the session.
func (c *Client) RefreshIfNeeded(ctx context.Context, window time.Duration) error {
	c.mu.Lock()
	if c.stale.has(c.sessionID) {
		c.mu.Unlock()
		return nil
	}
	grant, err := c.tokens.Load(ctx, c.sessionID)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("load session: %w", err)
	}
	if !grant.HasSession() || !grant.ExpiresWithin(c.now(), window) {
		c.mu.Unlock()
		return nil
	}

	fresh, err := c.backend.Refresh(ctx, grant.RefreshToken)
	if errors.Is(err, domain.ErrAuthentication) {
		c.discard(ctx)
		c.mu.Unlock()
		metrics.TokenRefreshTotal.WithLabelValues("rejected").Inc()
		c.log.Info().Err(err).Msg("session expired")
		c.publish(ctx, domain.EventSignedOut, nil)
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		metrics.TokenRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("refresh session: %w", classify(err))
	}
	if err := c.tokens.Save(ctx, c.sessionID, fresh, c.ttl); err != nil {
		c.mu.Unlock()
		metrics.TokenRefreshTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("persist refreshed session: %w", err)
	}
	c.mu.Unlock()

	metrics.TokenRefreshTotal.WithLabelValues("ok").Inc()
	c.publish(ctx, domain.EventTokenRefreshed, fresh.Identity.Clone())
	return nil
}

// discard drops the persisted grant; callers hold c.mu.
func (c *Client) discard(ctx context.Context) {
	if err := c.tokens.Delete(ctx, c.sessionID); err != nil {
		c.log.Warn().Err(err).Msg("failed to delete rejected session")
	}
}

func (c *Client) publish(ctx context.Context, kind domain.AuthEventKind, identity *domain.Identity) {
	ev := domain.AuthEvent{Kind: kind, Identity: identity, At: c.now().UTC()}
	if err := c.events.Publish(ctx, c.sessionID, ev); err != nil {
		c.log.Warn().Err(err).Str("event", string(kind)).Msg("failed to publish auth event")
	}
}

// classify makes sure every backend failure matches one of the credential
// operation sentinels. Anything unrecognised is treated as a transport
// failure.
func classify(err error) error {
	if errors.Is(err, domain.ErrAuthentication) ||
		errors.Is(err, domain.ErrDuplicateAccount) ||
		errors.Is(err, domain.ErrNetwork) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrNetwork, err)
}
