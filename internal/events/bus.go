package events

import (
	"sync"
	"sync/atomic"
)

// defaultBufSize is used when a subscriber asks for a non-positive buffer.
const defaultBufSize = 256

// Publisher accepts events. *EventBus implements it.
type Publisher interface {
	Publish(event Event)
}

// EventBus is a channel-based pub-sub event bus with per-topic and
// all-topic subscriptions.
type EventBus struct {
	mu      sync.RWMutex
	subs    map[string][]chan Event // topic -> subscriber channels
	allSubs []chan Event
	dropped atomic.Uint64
	closed  bool
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[string][]chan Event),
	}
}

func (b *EventBus) newSub(bufSize int, register func(chan Event)) <-chan Event {
	if bufSize <= 0 {
		bufSize = defaultBufSize
	}
	ch := make(chan Event, bufSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch
	}
	register(ch)
	return ch
}

// Subscribe returns a channel receiving events published on topic.
func (b *EventBus) Subscribe(topic string, bufSize int) <-chan Event {
	return b.newSub(bufSize, func(ch chan Event) {
		b.subs[topic] = append(b.subs[topic], ch)
	})
}

// SubscribeAll returns a channel receiving every event.
func (b *EventBus) SubscribeAll(bufSize int) <-chan Event {
	return b.newSub(bufSize, func(ch chan Event) {
		b.allSubs = append(b.allSubs, ch)
	})
}

// Publish delivers event to subscribers of its topic and to all-topic
// subscribers. Never blocks: a full subscriber misses the event.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs[event.Topic()] {
		b.send(ch, event)
	}
	for _, ch := range b.allSubs {
		b.send(ch, event)
	}
}

func (b *EventBus) send(ch chan Event, event Event) {
	select {
	case ch <- event:
	default:
		b.dropped.Add(1)
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// was full.
func (b *EventBus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close closes the bus and every subscriber channel. Idempotent.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, channels := range b.subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.allSubs {
		close(ch)
	}
}
