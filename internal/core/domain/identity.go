package domain

import (
	"maps"
	"reflect"
	"time"
)

// Identity is the signed-in principal as reported by the identity provider.
// Metadata is provider-issued and opaque to this system.
type Identity struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Clone returns a deep-enough copy: the metadata map is copied so callers
// can never mutate a snapshot they were handed.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i
	if i.Metadata != nil {
		out.Metadata = maps.Clone(i.Metadata)
	}
	return &out
}

// Equal reports whether two identities describe the same principal with the
// same attributes. Two nil identities are equal.
func (i *Identity) Equal(o *Identity) bool {
	if i == nil || o == nil {
		return i == nil && o == nil
	}
	if i.ID != o.ID || i.Email != o.Email {
		return false
	}
	if len(i.Metadata) == 0 && len(o.Metadata) == 0 {
		return true
	}
	return reflect.DeepEqual(i.Metadata, o.Metadata)
}

// SessionStatus is the resolution state of a session snapshot.
type SessionStatus string

const (
	// StatusInitializing holds only until the first provider round trip completes.
	StatusInitializing SessionStatus = "initializing"
	StatusResolved     SessionStatus = "resolved"
)

// Snapshot is an immutable view of session state at one version.
// Invariant: Status == StatusInitializing implies Identity == nil.
type Snapshot struct {
	Identity *Identity     `json:"identity"`
	Status   SessionStatus `json:"status"`
	Version  uint64        `json:"version"`
}

// Authenticated reports whether the snapshot carries a resolved identity.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusResolved && s.Identity != nil
}

// Clone returns a copy that shares nothing mutable with s.
func (s Snapshot) Clone() Snapshot {
	s.Identity = s.Identity.Clone()
	return s
}

// AuthEventKind names the provider's auth-state-changed notifications.
type AuthEventKind string

const (
	EventSignedIn       AuthEventKind = "signed_in"
	EventSignedOut      AuthEventKind = "signed_out"
	EventTokenRefreshed AuthEventKind = "token_refreshed"
	EventUserUpdated    AuthEventKind = "user_updated"
)

// AuthEvent is a single auth-state-changed notification. Identity is nil
// when the session ended.
type AuthEvent struct {
	Kind     AuthEventKind `json:"kind"`
	Identity *Identity     `json:"identity,omitempty"`
	At       time.Time     `json:"at"`
}

// Credentials is one submission of the sign-in or sign-up form.
// It is never persisted.
type Credentials struct {
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Grant is a provider session: the tokens plus the identity they belong to.
// It is what gets persisted per browser session.
type Grant struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Identity     Identity  `json:"identity"`
}

// HasSession reports whether the grant carries a usable session. Sign-up
// against a provider that requires email confirmation returns none.
func (g *Grant) HasSession() bool {
	return g != nil && g.AccessToken != ""
}

// ExpiresWithin reports whether the access token expires before now+d.
func (g *Grant) ExpiresWithin(now time.Time, d time.Duration) bool {
	if g.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(d).Before(g.ExpiresAt)
}
