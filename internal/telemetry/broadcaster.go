package telemetry

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"VisionForge/internal/entity"
)

// DefaultQueueSize bounds each subscriber's event queue.
const DefaultQueueSize = 100

// Subscriber is a handle to one bounded event queue. The channel is
// closed when the broadcaster drops or unsubscribes the subscriber.
type Subscriber struct {
	id string
	ch chan entity.TelemetryEvent
}

func (s *Subscriber) ID() string {
	return s.id
}

// Events yields the subscriber's queue. A closed channel means the
// subscriber was dropped and must not be reused.
func (s *Subscriber) Events() <-chan entity.TelemetryEvent {
	return s.ch
}

// Broadcaster fans telemetry events out to live subscribers. Sends are
// non-blocking: a subscriber whose queue is full is dropped and
// deregistered rather than stalling the producer.
type Broadcaster struct {
	log       *logrus.Logger
	queueSize int

	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	closed      bool

	sent    atomic.Uint64
	dropped atomic.Uint64
}

type BroadcasterOption func(*Broadcaster)

// WithQueueSize overrides the per-subscriber queue capacity.
func WithQueueSize(n int) BroadcasterOption {
	return func(b *Broadcaster) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

func NewBroadcaster(log *logrus.Logger, opts ...BroadcasterOption) *Broadcaster {
	b := &Broadcaster{
		log:         log,
		queueSize:   DefaultQueueSize,
		subscribers: make(map[string]*Subscriber),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new bounded-queue subscriber.
func (b *Broadcaster) Subscribe() *Subscriber {
	sub := &Subscriber{
		id: uuid.NewString(),
		ch: make(chan entity.TelemetryEvent, b.queueSize),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(sub.ch)
		return sub
	}

	b.subscribers[sub.id] = sub
	return sub
}

// Unsubscribe deregisters the subscriber and closes its queue. Safe to
// call for an already-dropped subscriber.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	b.remove(sub.id)
}

// Broadcast delivers the event to every live subscriber without ever
// blocking. Subscribers with saturated queues are collected and dropped
// after the fan-out pass.
func (b *Broadcaster) Broadcast(event entity.TelemetryEvent) {
	var dead []string

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	for id, sub := range b.subscribers {
		select {
		case sub.ch <- event:
			b.sent.Add(1)
		default:
			b.dropped.Add(1)
			dead = append(dead, id)
		}
	}
	b.mu.RUnlock()

	for _, id := range dead {
		b.log.WithFields(logrus.Fields{
			"subscriber_id": id,
			"event_type":    event.Kind(),
		}).Warn("Telemetry subscriber queue full, dropping subscriber")
		b.remove(id)
	}
}

// SubscriberCount reports the current number of live subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Stats reports totals of delivered and dropped events.
func (b *Broadcaster) Stats() (sent, dropped uint64) {
	return b.sent.Load(), b.dropped.Load()
}

// Close drops every subscriber and rejects future broadcasts.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

func (b *Broadcaster) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subscribers[id]
	if !ok {
		return
	}
	delete(b.subscribers, id)
	close(sub.ch)
}
