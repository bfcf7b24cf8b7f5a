package guard

import (
	"slices"
	"sync"
	"testing"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
)

func TestDecide(t *testing.T) {
	alice := &domain.Identity{ID: "u1", Email: "alice@example.com"}

	tests := []struct {
		name   string
		snap   domain.Snapshot
		action Action
		target string
	}{
		{"initializing waits", domain.Snapshot{Status: domain.StatusInitializing}, ActionWait, ""},
		{"resolved anonymous redirects", domain.Snapshot{Status: domain.StatusResolved}, ActionRedirect, "/sign-in"},
		{"resolved identity renders", domain.Snapshot{Status: domain.StatusResolved, Identity: alice}, ActionRender, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.snap, "/sign-in")
			if d.Action != tt.action || d.Target != tt.target {
				t.Fatalf("Decide() = {%v %q}, want {%v %q}", d.Action, d.Target, tt.action, tt.target)
			}
		})
	}
}

func TestDecide_RenderPassesIdentityCopy(t *testing.T) {
	alice := &domain.Identity{ID: "u1", Email: "alice@example.com"}
	d := Decide(domain.Snapshot{Status: domain.StatusResolved, Identity: alice}, "/sign-in")

	if d.Identity == nil || d.Identity.Email != "alice@example.com" {
		t.Fatalf("expected alice in decision, got %+v", d.Identity)
	}
	if d.Identity == alice {
		t.Fatalf("decision shares the snapshot identity")
	}
}

type fakeSource struct {
	mu   sync.Mutex
	snap domain.Snapshot
	subs map[int]func(domain.Snapshot)
	next int
}

func newFakeSource(snap domain.Snapshot) *fakeSource {
	return &fakeSource{snap: snap, subs: make(map[int]func(domain.Snapshot))}
}

func (s *fakeSource) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *fakeSource) Subscribe(fn func(domain.Snapshot)) ports.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return ports.SubscriptionFunc(func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	})
}

func (s *fakeSource) set(identity *domain.Identity) {
	s.mu.Lock()
	s.snap = domain.Snapshot{Identity: identity, Status: domain.StatusResolved, Version: s.snap.Version + 1}
	snap := s.snap
	fns := make([]func(domain.Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func TestWatch_FollowsSessionLifecycle(t *testing.T) {
	src := newFakeSource(domain.Snapshot{Status: domain.StatusInitializing})
	alice := &domain.Identity{ID: "u1", Email: "alice@example.com"}

	var got []Action
	sub := Watch(src, "/sign-in", func(d Decision) { got = append(got, d.Action) })
	defer sub.Unsubscribe()

	src.set(alice)
	src.set(nil)

	want := []Action{ActionWait, ActionRender, ActionRedirect}
	if !slices.Equal(got, want) {
		t.Fatalf("expected actions %v, got %v", want, got)
	}
}

func TestWatch_SingleRedirectPerTransition(t *testing.T) {
	alice := &domain.Identity{ID: "u1", Email: "alice@example.com"}
	src := newFakeSource(domain.Snapshot{Status: domain.StatusResolved, Identity: alice, Version: 1})

	redirects := 0
	sub := Watch(src, "/sign-in", func(d Decision) {
		if d.Action == ActionRedirect {
			redirects++
		}
	})
	defer sub.Unsubscribe()

	src.set(nil)
	src.set(nil)

	if redirects != 1 {
		t.Fatalf("expected one redirect, got %d", redirects)
	}
}

func TestWatch_UnsubscribeStopsDecisions(t *testing.T) {
	src := newFakeSource(domain.Snapshot{Status: domain.StatusResolved, Version: 1})

	calls := 0
	sub := Watch(src, "/sign-in", func(Decision) { calls++ })
	sub.Unsubscribe()
	sub.Unsubscribe()

	src.set(&domain.Identity{ID: "u1"})

	if calls != 1 {
		t.Fatalf("expected only the initial decision, got %d calls", calls)
	}
}
