package identity

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/infrastructure/eventbus"
)

type memTokens struct {
	mu      sync.Mutex
	grants  map[string]*domain.Grant
	loadErr error
	delErr  error
}

func newMemTokens() *memTokens {
	return &memTokens{grants: make(map[string]*domain.Grant)}
}

func (m *memTokens) Load(_ context.Context, id string) (*domain.Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	g, ok := m.grants[id]
	if !ok {
		return nil, nil
	}
	copy := *g
	return &copy, nil
}

func (m *memTokens) Save(_ context.Context, id string, g *domain.Grant, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *g
	m.grants[id] = &copy
	return nil
}

func (m *memTokens) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.grants, id)
	return nil
}

type stubBackend struct {
	passwordGrantFn func(ctx context.Context, email, password string) (*domain.Grant, error)
	signUpFn        func(ctx context.Context, email, password string) (*domain.Grant, error)
	refreshFn       func(ctx context.Context, refreshToken string) (*domain.Grant, error)
	userFn          func(ctx context.Context, accessToken string) (*domain.Identity, error)
	logoutFn        func(ctx context.Context, accessToken string) error
}

func (b *stubBackend) PasswordGrant(ctx context.Context, email, password string) (*domain.Grant, error) {
	return b.passwordGrantFn(ctx, email, password)
}

func (b *stubBackend) SignUp(ctx context.Context, email, password string) (*domain.Grant, error) {
	return b.signUpFn(ctx, email, password)
}

func (b *stubBackend) Refresh(ctx context.Context, refreshToken string) (*domain.Grant, error) {
	return b.refreshFn(ctx, refreshToken)
}

func (b *stubBackend) User(ctx context.Context, accessToken string) (*domain.Identity, error) {
	return b.userFn(ctx, accessToken)
}

func (b *stubBackend) Logout(ctx context.Context, accessToken string) error {
	if b.logoutFn == nil {
		return nil
	}
	return b.logoutFn(ctx, accessToken)
}

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func aliceGrant(access string, expires time.Time) *domain.Grant {
	return &domain.Grant{
		AccessToken:  access,
		RefreshToken: "refresh-" + access,
		ExpiresAt:    expires,
		Identity:     domain.Identity{ID: "u1", Email: "alice@example.com"},
	}
}

type harness struct {
	factory *Factory
	client  *Client
	backend *stubBackend
	tokens  *memTokens
	events  []domain.AuthEvent
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{backend: &stubBackend{}, tokens: newMemTokens()}
	bus := eventbus.NewLocal()
	h.factory = NewFactory(h.backend, h.tokens, bus, time.Hour, zerolog.Nop())
	h.client = h.factory.ForSession("sess-1").(*Client)
	h.client.now = func() time.Time { return testNow }
	sub := h.client.OnAuthStateChange(func(ev domain.AuthEvent) { h.events = append(h.events, ev) })
	t.Cleanup(sub.Unsubscribe)
	return h
}

func (h *harness) expectKinds(t *testing.T, want ...domain.AuthEventKind) {
	t.Helper()
	if got := h.kinds(); !slices.Equal(got, want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
}

func (h *harness) kinds() []domain.AuthEventKind {
	out := make([]domain.AuthEventKind, 0, len(h.events))
	for _, ev := range h.events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestClient_SignInPersistsAndAnnounces(t *testing.T) {
	h := newHarness(t)
	h.backend.passwordGrantFn = func(context.Context, string, string) (*domain.Grant, error) {
		return aliceGrant("at-1", testNow.Add(time.Hour)), nil
	}

	id, err := h.client.SignIn(context.Background(), "alice@example.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Email != "alice@example.com" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if h.tokens.grants["sess-1"] == nil {
		t.Fatalf("grant not persisted")
	}
	h.expectKinds(t, domain.EventSignedIn)
	if h.events[0].Identity.ID != "u1" {
		t.Fatalf("unexpected event identity: %+v", h.events[0].Identity)
	}
}

func TestClient_SignInRejected(t *testing.T) {
	h := newHarness(t)
	h.backend.passwordGrantFn = func(context.Context, string, string) (*domain.Grant, error) {
		return nil, &domain.ProviderError{Kind: domain.ErrAuthentication, Status: 400}
	}

	_, err := h.client.SignIn(context.Background(), "alice@example.com", "bad")
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if len(h.events) != 0 || len(h.tokens.grants) != 0 {
		t.Fatalf("rejected sign-in must leave no trace: events=%v grants=%v", h.events, h.tokens.grants)
	}
}

func TestClient_UnknownBackendErrorIsNetwork(t *testing.T) {
	h := newHarness(t)
	h.backend.passwordGrantFn = func(context.Context, string, string) (*domain.Grant, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	_, err := h.client.SignIn(context.Background(), "alice@example.com", "pw")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestClient_SignUpAwaitingConfirmation(t *testing.T) {
	h := newHarness(t)
	h.backend.signUpFn = func(context.Context, string, string) (*domain.Grant, error) {
		return &domain.Grant{Identity: domain.Identity{ID: "u9", Email: "new@example.com"}}, nil
	}

	id, err := h.client.SignUp(context.Background(), "new@example.com", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.ID != "u9" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if len(h.events) != 0 || len(h.tokens.grants) != 0 {
		t.Fatalf("pending confirmation must not establish a session")
	}
}

func TestClient_SignUpDuplicate(t *testing.T) {
	h := newHarness(t)
	h.backend.signUpFn = func(context.Context, string, string) (*domain.Grant, error) {
		return nil, &domain.ProviderError{Kind: domain.ErrDuplicateAccount, Code: "user_already_exists"}
	}

	_, err := h.client.SignUp(context.Background(), "alice@example.com", "pw")
	if !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestClient_SignOutAnnouncesBeforeRevoke(t *testing.T) {
	h := newHarness(t)
	h.tokens.grants["sess-1"] = aliceGrant("at-1", testNow.Add(time.Hour))

	var revokedToken string
	var announcedBeforeRevoke bool
	h.backend.logoutFn = func(_ context.Context, token string) error {
		revokedToken = token
		announcedBeforeRevoke = len(h.events) == 1
		return &domain.ProviderError{Kind: domain.ErrNetwork, Status: 503}
	}

	err := h.client.SignOut(context.Background())

	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if revokedToken != "at-1" || !announcedBeforeRevoke {
		t.Fatalf("expected signed_out before revoking at-1, got token %q announced=%v", revokedToken, announcedBeforeRevoke)
	}
	h.expectKinds(t, domain.EventSignedOut)
	if len(h.tokens.grants) != 0 {
		t.Fatalf("grant not deleted")
	}
}

func TestClient_SignOutWithDeadTokenSucceeds(t *testing.T) {
	h := newHarness(t)
	h.tokens.grants["sess-1"] = aliceGrant("at-1", testNow.Add(time.Hour))
	h.backend.logoutFn = func(context.Context, string) error {
		return &domain.ProviderError{Kind: domain.ErrAuthentication, Status: 401}
	}

	if err := h.client.SignOut(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_SignOutWithoutSession(t *testing.T) {
	h := newHarness(t)
	h.backend.logoutFn = func(context.Context, string) error {
		t.Fatal("logout must not be called without a session")
		return nil
	}

	if err := h.client.SignOut(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.expectKinds(t, domain.EventSignedOut)
}

func TestClient_UndeletedGrantNeverRestoresSession(t *testing.T) {
	h := newHarness(t)
	h.tokens.grants["sess-1"] = aliceGrant("at-1", testNow.Add(time.Hour))
	h.tokens.delErr = errors.New("redis: connection reset")
	h.backend.userFn = func(context.Context, string) (*domain.Identity, error) {
		return &domain.Identity{ID: "u1", Email: "alice@example.com"}, nil
	}
	h.backend.refreshFn = func(context.Context, string) (*domain.Grant, error) {
		t.Fatal("a signed-out grant must not be refreshed")
		return nil, nil
	}

	if err := h.client.SignOut(context.Background()); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	h.expectKinds(t, domain.EventSignedOut)

	// A store rebuilt after eviction gets a fresh Client for the same session.
	next := h.factory.ForSession("sess-1")
	id, err := next.CurrentSession(context.Background())
	if err != nil || id != nil {
		t.Fatalf("expected signed out while the grant lingers, got %+v, %v", id, err)
	}
	if err := h.client.RefreshIfNeeded(context.Background(), 2*time.Hour); err != nil {
		t.Fatalf("unexpected refresh error: %v", err)
	}

	h.tokens.mu.Lock()
	h.tokens.delErr = nil
	h.tokens.mu.Unlock()
	if id, err := next.CurrentSession(context.Background()); err != nil || id != nil {
		t.Fatalf("expected signed out, got %+v, %v", id, err)
	}
	if len(h.tokens.grants) != 0 {
		t.Fatalf("stale grant not deleted on retry")
	}
}

func TestClient_SignInAfterUndeletedGrant(t *testing.T) {
	h := newHarness(t)
	h.tokens.grants["sess-1"] = aliceGrant("at-1", testNow.Add(time.Hour))
	h.tokens.delErr = errors.New("redis: connection reset")
	_ = h.client.SignOut(context.Background())
	h.tokens.delErr = nil

	h.backend.passwordGrantFn = func(context.Context, string, string) (*domain.Grant, error) {
		return aliceGrant("at-2", testNow.Add(time.Hour)), nil
	}
	h.backend.userFn = func(context.Context, string) (*domain.Identity, error) {
		return &domain.Identity{ID: "u1", Email: "alice@example.com"}, nil
	}
	if _, err := h.client.SignIn(context.Background(), "alice@example.com", "pw"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, err := h.client.CurrentSession(context.Background())
	if err != nil || id == nil {
		t.Fatalf("expected the new session to be restored, got %+v, %v", id, err)
	}
}

func TestClient_CurrentSession(t *testing.T) {
	h := newHarness(t)

	id, err := h.client.CurrentSession(context.Background())
	if err != nil || id != nil {
		t.Fatalf("expected no session, got %+v, %v", id, err)
	}

	h.tokens.grants["sess-1"] = aliceGrant("at-1", testNow.Add(time.Hour))
	var verified string
	h.backend.userFn = func(_ context.Context, token string) (*domain.Identity, error) {
		verified = token
		return &domain.Identity{ID: "u1", Email: "alice@example.com"}, nil
	}

	id, err = h.client.CurrentSession(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == nil || id.ID != "u1" || verified != "at-1" {
		t.Fatalf("expected u1 verified with at-1, got %+v (%q)", id, verified)
	}
	if len(h.events) != 0 {
		t.Fatalf("reading the session must announce nothing, got %v", h.events)
	}
}

func TestClient_CurrentSessionRefreshesExpiredGrant(t *testing.T) {
	h := newHarness(t)
	h.tokens.grants["sess-1"] = aliceGrant("at-old", testNow.Add(-time.Minute))
	var refreshed, verified string
	h.backend.refreshFn = func(_ context.Context, rt string) (*domain.Grant, error) {
		refreshed = rt
		return aliceGrant("at-new", testNow.Add(time.Hour)), nil
	}
	h.backend.userFn = func(_ context.Context, token string) (*domain.Identity, error) {
		verified = token
		return &domain.Identity{ID: "u1", Email: "alice@example.com"}, nil
	}

	id, err := h.client.CurrentSession(context.Background())
	if err != nil || id == nil {
		t.Fatalf("expected identity, got %+v, %v", id, err)
	}
	if refreshed != "refresh-at-old" || verified != "at-new" {
		t.Fatalf("unexpected refresh flow: refreshed %q verified %q", refreshed, verified)
	}
	if got := h.tokens.grants["sess-1"].AccessToken; got != "at-new" {
		t.Fatalf("refreshed grant not persisted, got %q", got)
	}
}

func TestClient_CurrentSessionDiscardsRejectedGrant(t *testing.T) {
	h := newHarness(t)
	h.tokens.grants["sess-1"] = aliceGrant("at-1", testNow.Add(time.Hour))
	h.backend.userFn = func(context.Context, string) (*domain.Identity, error) {
		return nil, &domain.ProviderError{Kind: domain.ErrAuthentication, Status: 401}
	}

	id, err := h.client.CurrentSession(context.Background())
	if err != nil || id != nil {
		t.Fatalf("expected no session, got %+v, %v", id, err)
	}
	if len(h.tokens.grants) != 0 {
		t.Fatalf("rejected grant not discarded")
	}
}

func TestClient_CurrentSessionProviderDown(t *testing.T) {
	h := newHarness(t)
	h.tokens.grants["sess-1"] = aliceGrant("at-1", testNow.Add(time.Hour))
	h.backend.userFn = func(context.Context, string) (*domain.Identity, error) {
		return nil, &domain.ProviderError{Kind: domain.ErrNetwork, Status: 503}
	}

	_, err := h.client.CurrentSession(context.Background())
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if len(h.tokens.grants) == 0 {
		t.Fatalf("a transport failure must keep the grant")
	}
}

func TestClient_RefreshIfNeeded(t *testing.T) {
	h := newHarness(t)
	h.tokens.grants["sess-1"] = aliceGrant("at-1", testNow.Add(30*time.Minute))
	calls := 0
	h.backend.refreshFn = func(context.Context, string) (*domain.Grant, error) {
		calls++
		return aliceGrant("at-2", testNow.Add(time.Hour)), nil
	}

	if err := h.client.RefreshIfNeeded(context.Background(), 5*time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("grant outside the window must be left alone")
	}

	if err := h.client.RefreshIfNeeded(context.Background(), time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || h.tokens.grants["sess-1"].AccessToken != "at-2" {
		t.Fatalf("expected one refresh to at-2, got %d calls", calls)
	}
	h.expectKinds(t, domain.EventTokenRefreshed)
}

func TestClient_RefreshRejectedEndsSession(t *testing.T) {
	h := newHarness(t)
	h.tokens.grants["sess-1"] = aliceGrant("at-1", testNow.Add(time.Minute))
	h.backend.refreshFn = func(context.Context, string) (*domain.Grant, error) {
		return nil, &domain.ProviderError{Kind: domain.ErrAuthentication, Status: 400, Code: "refresh_token_not_found"}
	}

	if err := h.client.RefreshIfNeeded(context.Background(), time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.tokens.grants) != 0 {
		t.Fatalf("rejected grant not discarded")
	}
	h.expectKinds(t, domain.EventSignedOut)
	if h.events[0].Identity != nil {
		t.Fatalf("signed_out must carry no identity")
	}
}

func TestClient_RefreshTransportFailureKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.tokens.grants["sess-1"] = aliceGrant("at-1", testNow.Add(time.Minute))
	h.backend.refreshFn = func(context.Context, string) (*domain.Grant, error) {
		return nil, errors.New("timeout")
	}

	err := h.client.RefreshIfNeeded(context.Background(), time.Hour)
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if len(h.tokens.grants) == 0 || len(h.events) != 0 {
		t.Fatalf("transport failure must keep the session quietly")
	}
}
