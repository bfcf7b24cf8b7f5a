// Package guard decides what a protected view shows for a session snapshot.
package guard

import (
	"sync"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
)

// Action is what a protected view does for one snapshot.
type Action string

const (
	// ActionWait shows a loading indicator; the session is still resolving.
	ActionWait Action = "wait"
	// ActionRedirect navigates to the sign-in page.
	ActionRedirect Action = "redirect"
	// ActionRender renders the protected subtree.
	ActionRender Action = "render"
)

// Decision is the outcome of evaluating a snapshot.
type Decision struct {
	Action   Action           `json:"action"`
	Target   string           `json:"target,omitempty"`
	Identity *domain.Identity `json:"identity,omitempty"`
	Version  uint64           `json:"version"`
}

// Decide maps a snapshot to a Decision. It is pure.
func Decide(snap domain.Snapshot, signInPath string) Decision {
	switch {
	case snap.Status != domain.StatusResolved:
		return Decision{Action: ActionWait, Version: snap.Version}
	case snap.Identity == nil:
		return Decision{Action: ActionRedirect, Target: signInPath, Version: snap.Version}
	default:
		return Decision{Action: ActionRender, Identity: snap.Identity.Clone(), Version: snap.Version}
	}
}

// Source is the part of a session store the guard reads.
type Source interface {
	Snapshot() domain.Snapshot
	Subscribe(fn func(domain.Snapshot)) ports.Subscription
}

// Watch calls fn with the current decision and again on every snapshot
// change that produces a different decision, until the returned
// Subscription is cancelled. A transition to anonymous yields exactly one
// redirect.
func Watch(src Source, signInPath string, fn func(Decision)) ports.Subscription {
	var (
		mu      sync.Mutex
		last    Decision
		emitted bool
		stopped bool
	)
	emit := func(snap domain.Snapshot) {
		d := Decide(snap, signInPath)
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		if emitted && (snap.Version < last.Version || same(last, d)) {
			return
		}
		last, emitted = d, true
		fn(d)
	}

	sub := src.Subscribe(emit)
	emit(src.Snapshot())

	var once sync.Once
	return ports.SubscriptionFunc(func() {
		once.Do(func() {
			mu.Lock()
			stopped = true
			mu.Unlock()
			sub.Unsubscribe()
		})
	})
}

func same(a, b Decision) bool {
	return a.Action == b.Action && a.Target == b.Target && a.Identity.Equal(b.Identity)
}
