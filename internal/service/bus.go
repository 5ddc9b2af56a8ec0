// Package service carries map session events between the composition and the viewer streams.
package service

import "sync"

// Event resources.
const (
	ResourceLegend = "legend"
	ResourceStyle  = "style"
)

// Event actions.
const (
	ActionVisible  = "visible"
	ActionHidden   = "hidden"
	ActionRendered = "rendered"
	ActionFailed   = "failed"
	ActionReady    = "ready"
)

// Event represents a change within one map session.
type Event struct {
	Session  string // session ID
	Resource string // e.g. "legend"
	Action   string // "visible", "hidden", "rendered", "failed", "ready"
}

// EventBus is a simple fan-out pub/sub for session events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to all subscribers (non-blocking).
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel that receives events.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
	close(ch)
}

// Subscribers is the current subscriber count.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
