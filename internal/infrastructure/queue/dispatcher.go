package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/haphazard/site/internal/core/domain"
	"github.com/haphazard/site/internal/core/ports"
	"github.com/haphazard/site/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes waiting-list entries to a fixed set of workers using
// consistent hashing on the email, so repeat submissions of one address are
// forwarded in order.
type Dispatcher struct {
	workers []chan domain.WaitlistEntry
	syncer  ports.WaitlistSyncer
	log     zerolog.Logger
	wg      sync.WaitGroup
}

var _ ports.WaitlistQueue = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, syncer ports.WaitlistSyncer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.WaitlistEntry, numWorkers),
		syncer:  syncer,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.WaitlistEntry, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands entry to the worker responsible for its email without
// blocking. It reports false when that worker's buffer is full.
func (d *Dispatcher) Enqueue(entry domain.WaitlistEntry) bool {
	idx := d.shardIndex(entry.Email)
	select {
	case d.workers[idx] <- entry:
		metrics.WaitlistQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		return false
	}
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.WaitlistEntry) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-ch:
			if !ok {
				return
			}
			metrics.WaitlistQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			if err := d.syncer.Sync(ctx, entry); err != nil {
				d.log.Error().Err(err).
					Str("email", entry.Email).
					Int("worker_id", id).
					Msg("waitlist sync failed")
			}
		}
	}
}
