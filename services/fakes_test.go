package services

import (
	"context"
	"sync"
	"time"

	"kamianime/anilist"
	"kamianime/discord"
	"kamianime/models"
)

// capturePublisher records events relayed toward Discord.
type capturePublisher struct {
	mu     sync.Mutex
	events []models.SyncEvent
}

func (c *capturePublisher) Publish(ctx context.Context, ev models.SyncEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *capturePublisher) byType(t models.EventType) []models.SyncEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []models.SyncEvent
	for _, ev := range c.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// memDeduper is an in-memory EventDeduper.
type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemDeduper() *memDeduper {
	return &memDeduper{seen: make(map[string]bool)}
}

func (d *memDeduper) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[eventID] {
		return false, nil
	}
	d.seen[eventID] = true
	return true, nil
}

func (d *memDeduper) Unmark(ctx context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, eventID)
	return nil
}

// fakeSchedule returns a fixed airing schedule.
type fakeSchedule struct {
	episodes []anilist.AiringEpisode
	err      error
}

func (f *fakeSchedule) AiringSchedule(ctx context.Context, from time.Time, window time.Duration) ([]anilist.AiringEpisode, error) {
	return f.episodes, f.err
}

// fakeSender records webhook deliveries.
type fakeSender struct {
	mu   sync.Mutex
	sent []string // webhook URLs
}

func (f *fakeSender) SendEmbed(ctx context.Context, webhookURL string, embed discord.Embed) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, webhookURL)
	return nil
}

// drain collects everything currently buffered on a bus subscription.
func drain(ch chan models.SyncEvent) []models.SyncEvent {
	var out []models.SyncEvent
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func countType(evs []models.SyncEvent, t models.EventType) int {
	n := 0
	for _, ev := range evs {
		if ev.Type == t {
			n++
		}
	}
	return n
}
