package middleware

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/session"
)

const DefaultCookieName = "haphazard_session"

// sessionIDBytes is 256 bits of entropy.
const sessionIDBytes = 32

// Keys under which Session and RequireSession store request state.
const (
	ctxKeyStore     = "session_store"
	ctxKeySessionID = "session_id"
	ctxKeyIdentity  = "identity"
)

// StoreRegistry hands out the session store of a browser session.
type StoreRegistry interface {
	Acquire(sessionID string) (*session.Store, func())
	// Discard drops the store of sessionID when nobody holds it and it is
	// not signed in.
	Discard(sessionID string) bool
}

// SessionConfig controls the browser-session cookie.
type SessionConfig struct {
	CookieName string
	Secure     bool
	// TTL is the cookie lifetime, renewed on every request.
	TTL time.Duration
}

// binding is the session store of one request, acquired on first use.
type binding struct {
	id       string
	fresh    bool
	registry StoreRegistry
	store    *session.Store
	release  func()
}

func (b *binding) get() *session.Store {
	if b.store == nil && b.registry != nil {
		b.store, b.release = b.registry.Acquire(b.id)
	}
	return b.store
}

// done releases the store. A session whose cookie was issued by this request
// and that did not sign in has nothing worth keeping.
func (b *binding) done() {
	if b.release == nil {
		return
	}
	b.release()
	if b.fresh {
		b.registry.Discard(b.id)
	}
}

// Session binds each request to its browser session: it reads the session
// cookie, issuing a new ID when it is missing or malformed, and exposes the
// ID on the echo context. The session's store is acquired only when a
// handler asks for it and is released when the request ends.
func Session(registry StoreRegistry, cfg SessionConfig) echo.MiddlewareFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			b := &binding{registry: registry}
			if ck, err := c.Cookie(cfg.CookieName); err == nil && ValidSessionID(ck.Value) {
				b.id = ck.Value
			}
			if b.id == "" {
				newID, err := GenerateSessionID()
				if err != nil {
					return err
				}
				b.id, b.fresh = newID, true
			}
			c.SetCookie(sessionCookie(cfg, b.id))

			defer b.done()
			c.Set(ctxKeySessionID, b.id)
			c.Set(ctxKeyStore, b)
			return next(c)
		}
	}
}

func sessionCookie(cfg SessionConfig, id string) *http.Cookie {
	ck := &http.Cookie{
		Name:     cfg.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.TTL > 0 {
		ck.Expires = time.Now().Add(cfg.TTL)
		ck.MaxAge = int(cfg.TTL.Seconds())
	}
	return ck
}

// GenerateSessionID returns a random URL-safe browser-session ID.
func GenerateSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// ValidSessionID reports whether id has the shape GenerateSessionID produces.
func ValidSessionID(id string) bool {
	if len(id) != base64.RawURLEncoding.EncodedLen(sessionIDBytes) {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(id)
	return err == nil
}

// BindStore attaches a browser session and an already acquired store to c.
func BindStore(c echo.Context, sessionID string, store *session.Store) {
	c.Set(ctxKeySessionID, sessionID)
	c.Set(ctxKeyStore, &binding{id: sessionID, store: store})
}

// StoreFrom returns the session store bound by Session, acquiring it on the
// first call, or nil outside Session.
func StoreFrom(c echo.Context) *session.Store {
	b, _ := c.Get(ctxKeyStore).(*binding)
	if b == nil {
		return nil
	}
	return b.get()
}

// SessionIDFrom returns the browser-session ID bound by Session.
func SessionIDFrom(c echo.Context) string {
	id, _ := c.Get(ctxKeySessionID).(string)
	return id
}

// IdentityFrom returns the identity RequireSession admitted. Outside a
// guarded route it falls back to the store's current snapshot without
// waiting for it to resolve. A session issued by this request is anonymous
// and costs no store.
func IdentityFrom(c echo.Context) *domain.Identity {
	if id, ok := c.Get(ctxKeyIdentity).(*domain.Identity); ok && id != nil {
		return id
	}
	if b, _ := c.Get(ctxKeyStore).(*binding); b != nil && b.fresh && b.store == nil {
		return nil
	}
	if s := StoreFrom(c); s != nil {
		if snap := s.Snapshot(); snap.Authenticated() {
			return snap.Identity
		}
	}
	return nil
}
