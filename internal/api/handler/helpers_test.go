package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/api/middleware"
	"github.com/haphazard/site/internal/api/web"
	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
	"github.com/haphazard/site/internal/core/session"
)

// fakeProvider behaves like a real identity provider: successful credential
// operations emit the auth-state-changed notification before returning.
type fakeProvider struct {
	mu        sync.Mutex
	current   *domain.Identity
	listeners map[int]func(domain.AuthEvent)
	nextID    int

	signInErr  error
	signUpErr  error
	signOutErr error
}

func newFakeProvider(current *domain.Identity) *fakeProvider {
	return &fakeProvider{current: current, listeners: make(map[int]func(domain.AuthEvent))}
}

func (p *fakeProvider) emit(kind domain.AuthEventKind, id *domain.Identity) {
	p.mu.Lock()
	fns := make([]func(domain.AuthEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(domain.AuthEvent{Kind: kind, Identity: id.Clone(), At: time.Now()})
	}
}

func (p *fakeProvider) SignIn(_ context.Context, email, _ string) (*domain.Identity, error) {
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	id := &domain.Identity{ID: "u1", Email: email}
	p.emit(domain.EventSignedIn, id)
	return id, nil
}

func (p *fakeProvider) SignUp(_ context.Context, email, _ string) (*domain.Identity, error) {
	if p.signUpErr != nil {
		return nil, p.signUpErr
	}
	id := &domain.Identity{ID: "u2", Email: email}
	p.emit(domain.EventSignedIn, id)
	return id, nil
}

func (p *fakeProvider) SignOut(context.Context) error {
	p.emit(domain.EventSignedOut, nil)
	return p.signOutErr
}

func (p *fakeProvider) CurrentSession(context.Context) (*domain.Identity, error) {
	return p.current.Clone(), nil
}

func (p *fakeProvider) OnAuthStateChange(fn func(domain.AuthEvent)) ports.Subscription {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()
	return ports.SubscriptionFunc(func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	})
}

func newResolvedStore(t *testing.T, p *fakeProvider) *session.Store {
	t.Helper()
	s := session.NewStore(p, zerolog.Nop())
	s.Start(context.Background())
	t.Cleanup(s.Close)
	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatalf("store did not resolve")
	}
	return s
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Renderer = web.MustRenderer()
	e.Validator = NewValidator()
	return e
}

// newContext builds a request context bound to store, as the Session
// middleware would.
func newContext(e *echo.Echo, method, target string, body io.Reader, contentType string, store *session.Store) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if store != nil {
		middleware.BindStore(c, "test-session", store)
	}
	return c, rec
}
