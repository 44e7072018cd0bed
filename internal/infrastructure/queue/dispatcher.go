// Package queue fans store change events out to delivery workers.
package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Change kinds.
const (
	KindCart    = "cart"
	KindSession = "session"
)

// ChangeEvent is one store change of one profile.
type ChangeEvent struct {
	ProfileID string    `json:"-"`
	Kind      string    `json:"kind"`
	Data      any       `json:"data"`
	At        time.Time `json:"at"`
}

// Sink receives events from the workers.
type Sink interface {
	Deliver(ctx context.Context, event ChangeEvent) error
}

// Dispatcher routes change events to a fixed set of workers using consistent
// hashing on the profile id, so events of one profile are delivered in the
// order the stores produced them.
type Dispatcher struct {
	workers []chan ChangeEvent
	sink    Sink
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink Sink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ChangeEvent, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ChangeEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends an event to the worker responsible for its profile,
// blocking while that worker's buffer is full.
func (d *Dispatcher) Enqueue(event ChangeEvent) {
	d.workers[d.shardIndex(event.ProfileID)] <- event
}

// TryEnqueue is Enqueue without blocking. It reports false and drops the
// event when the worker's buffer is full. Store subscribers use it because
// they run while the store lock is held.
func (d *Dispatcher) TryEnqueue(event ChangeEvent) bool {
	select {
	case d.workers[d.shardIndex(event.ProfileID)] <- event:
		return true
	default:
		return false
	}
}

// Depth returns the number of buffered events across all workers.
func (d *Dispatcher) Depth() int {
	n := 0
	for _, ch := range d.workers {
		n += len(ch)
	}
	return n
}

// shardIndex maps a profile id deterministically to a worker index.
func (d *Dispatcher) shardIndex(profileID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(profileID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.sink.Deliver(ctx, event); err != nil {
				d.log.Warn().Err(err).
					Str("profile_id", event.ProfileID).
					Str("kind", event.Kind).
					Int("worker_id", id).
					Msg("change delivery failed")
			}
		}
	}
}
