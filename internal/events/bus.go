// Package events provides a non-blocking publish/subscribe bus and an
// append-only audit trail for phase advancement activity.
package events

import (
	"sync"
	"time"
)

// EventType classifies an advancement event.
type EventType string

const (
	// EventPhaseOpened is published when a phase transitions to open.
	EventPhaseOpened EventType = "phaseOpened"
	// EventPhaseClosed is published when a phase transitions to closed.
	EventPhaseClosed EventType = "phaseClosed"
	// EventAdvancementRejected is published when rule evaluation blocks an
	// advancement attempt.
	EventAdvancementRejected EventType = "advancementRejected"
)

// Event is one advancement occurrence delivered to subscribers.
type Event struct {
	Type        EventType
	Timestamp   time.Time
	ChallengeID string
	Phase       string
	Operation   string
	Detail      string
}

// Subscriber receives events of the type it subscribed to.
type Subscriber func(Event)

// Bus delivers events to subscribers asynchronously over buffered channels.
// Publish never blocks: when a subscriber's buffer is full the event is
// dropped for that subscriber.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]chan Event
	bufferSize  int
	wg          sync.WaitGroup
}

// NewBus creates a bus with the given per-subscriber buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers fn for one event type and returns an unsubscribe
// function. fn runs on its own goroutine; a panicking subscriber is recovered
// so it cannot take the bus down.
func (b *Bus) Subscribe(eventType EventType, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for event := range ch {
			func() {
				defer func() { _ = recover() }()
				fn(event)
			}()
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[eventType]
		for i, subCh := range subs {
			if subCh == ch {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
	}
}

// Publish sends the event to every subscriber of its type without blocking.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	for _, ch := range b.subscribers[event.Type] {
		select {
		case ch <- event:
		default:
			// subscriber buffer full, drop
		}
	}
}

// Close closes all subscriber channels and waits for the delivery goroutines
// to drain their buffers.
func (b *Bus) Close() {
	b.mu.Lock()
	for eventType, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, eventType)
	}
	b.mu.Unlock()

	b.wg.Wait()
}
