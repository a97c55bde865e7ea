// Package events provides the in-process publish/subscribe bus the sync
// bridge uses to notify website-facing listeners (the websocket hub) of
// SyncEvents. Delivery is at-least-one-subscriber best effort: a subscriber
// whose buffer is full misses the event rather than blocking the publisher.
package events

import (
	"sync"

	"kamianime/models"
)

const subscriberBuffer = 32

// Bus fans SyncEvents out to registered subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan models.SyncEvent]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan models.SyncEvent]struct{})}
}

// Subscribe registers a new listener and returns its receive channel.
func (b *Bus) Subscribe() chan models.SyncEvent {
	ch := make(chan models.SyncEvent, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener and closes its channel.
func (b *Bus) Unsubscribe(ch chan models.SyncEvent) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(ev models.SyncEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is not draining; drop rather than stall the bridge.
		}
	}
}

// SubscriberCount returns the number of registered listeners.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
