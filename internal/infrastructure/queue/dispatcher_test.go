package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/core/domain"
)

type recordingSyncer struct {
	mu     sync.Mutex
	emails []string
	err    error
	done   chan struct{}
}

func (s *recordingSyncer) Sync(_ context.Context, e domain.WaitlistEntry) error {
	s.mu.Lock()
	s.emails = append(s.emails, e.Email)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	return s.err
}

func TestDispatcher_DeliversEntries(t *testing.T) {
	syncer := &recordingSyncer{done: make(chan struct{}, 3)}
	d := NewDispatcher(2, syncer, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for _, email := range []string{"a@b.com", "c@d.com", "e@f.com"} {
		if !d.Enqueue(domain.WaitlistEntry{Email: email}) {
			t.Fatalf("enqueue %s rejected", email)
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-syncer.done:
		case <-time.After(time.Second):
			t.Fatalf("only %d of 3 entries synced", i)
		}
	}

	cancel()
	d.Wait()
}

func TestDispatcher_SyncErrorDoesNotStopWorker(t *testing.T) {
	syncer := &recordingSyncer{err: errors.New("provider down"), done: make(chan struct{}, 2)}
	d := NewDispatcher(1, syncer, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(domain.WaitlistEntry{Email: "a@b.com"})
	d.Enqueue(domain.WaitlistEntry{Email: "c@d.com"})

	for i := 0; i < 2; i++ {
		select {
		case <-syncer.done:
		case <-time.After(time.Second):
			t.Fatalf("worker stopped after a failed sync")
		}
	}
}

func TestDispatcher_FullBufferRejects(t *testing.T) {
	d := NewDispatcher(1, &recordingSyncer{}, zerolog.Nop())

	// Workers not started: the buffer fills up.
	for i := 0; i < channelBuffer; i++ {
		if !d.Enqueue(domain.WaitlistEntry{Email: "a@b.com"}) {
			t.Fatalf("enqueue %d rejected before buffer was full", i)
		}
	}
	if d.Enqueue(domain.WaitlistEntry{Email: "a@b.com"}) {
		t.Fatalf("expected enqueue to be rejected on a full buffer")
	}
}

func TestDispatcher_ShardIsStable(t *testing.T) {
	d := NewDispatcher(8, &recordingSyncer{}, zerolog.Nop())

	first := d.shardIndex("a@b.com")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("a@b.com"); got != first {
			t.Fatalf("shard changed: %d vs %d", got, first)
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard out of range: %d", first)
	}
}
