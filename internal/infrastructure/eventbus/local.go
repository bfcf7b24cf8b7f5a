// Package eventbus delivers auth-state-changed notifications to the
// listeners of one browser session.
package eventbus

import (
	"context"
	"sync"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
)

// Local is an in-process AuthEventBus. Publish calls every listener of the
// session synchronously, in registration order, before returning.
type Local struct {
	mu        sync.RWMutex
	listeners map[string][]*listener
}

type listener struct {
	fn func(domain.AuthEvent)
}

var _ ports.AuthEventBus = (*Local)(nil)

func NewLocal() *Local {
	return &Local{listeners: make(map[string][]*listener)}
}

// Publish never fails.
func (b *Local) Publish(_ context.Context, sessionID string, event domain.AuthEvent) error {
	b.Dispatch(sessionID, event)
	return nil
}

// Dispatch delivers event to this process's listeners of sessionID.
func (b *Local) Dispatch(sessionID string, event domain.AuthEvent) {
	b.mu.RLock()
	ls := append([]*listener(nil), b.listeners[sessionID]...)
	b.mu.RUnlock()

	for _, l := range ls {
		l.fn(event)
	}
}

// Subscribe registers fn for sessionID.
func (b *Local) Subscribe(sessionID string, fn func(domain.AuthEvent)) ports.Subscription {
	l := &listener{fn: fn}

	b.mu.Lock()
	b.listeners[sessionID] = append(b.listeners[sessionID], l)
	b.mu.Unlock()

	var once sync.Once
	return ports.SubscriptionFunc(func() {
		once.Do(func() { b.remove(sessionID, l) })
	})
}

func (b *Local) remove(sessionID string, l *listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ls := b.listeners[sessionID]
	for i, cur := range ls {
		if cur == l {
			ls = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(ls) == 0 {
		delete(b.listeners, sessionID)
		return
	}
	b.listeners[sessionID] = ls
}

// Listeners returns the number of listeners registered for sessionID.
func (b *Local) Listeners(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[sessionID])
}
