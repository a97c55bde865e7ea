package events

import (
	"testing"

	"kamianime/models"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe()
	b := bus.Subscribe()

	ev := models.NewSyncEvent("ev-1", models.EventXPUpdate, "user-1",
		models.XPUpdatePayload{Amount: 10, NewXP: 110})
	bus.Publish(ev)

	for _, ch := range []chan models.SyncEvent{a, b} {
		select {
		case got := <-ch:
			if got.ID != "ev-1" || got.Type != models.EventXPUpdate {
				t.Errorf("got event %+v, want ev-1/xpUpdate", got)
			}
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()
	bus.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Error("expected channel to be closed after unsubscribe")
	}
	if n := bus.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount = %d, want 0", n)
	}

	// Double unsubscribe must be safe.
	bus.Unsubscribe(ch)
}

func TestBusSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()

	// Overfill the buffer; Publish must never block.
	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(models.NewSyncEvent("ev", models.EventStreakUpdate, "u", nil))
	}

	if len(ch) != subscriberBuffer {
		t.Errorf("buffered %d events, want %d", len(ch), subscriberBuffer)
	}
}
