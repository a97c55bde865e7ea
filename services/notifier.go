package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"kamianime/anilist"
	"kamianime/discord"
	"kamianime/store"
)

// ScheduleSource provides the airing look-ahead. anilist.Client satisfies it.
type ScheduleSource interface {
	AiringSchedule(ctx context.Context, from time.Time, window time.Duration) ([]anilist.AiringEpisode, error)
}

// ChannelSender posts a message to a channel webhook. discord.Sender
// satisfies it.
type ChannelSender interface {
	SendEmbed(ctx context.Context, webhookURL string, embed discord.Embed) error
}

// Notifier periodically polls the airing schedule and fans notifications out
// to every guild subscribed to airing alerts. It shares no mutable state with
// the progression engine beyond read access to guild subscription flags.
type Notifier struct {
	schedule  ScheduleSource
	guilds    store.GuildStore
	sender    ChannelSender
	interval  time.Duration
	lookahead time.Duration
}

func NewNotifier(schedule ScheduleSource, guilds store.GuildStore, sender ChannelSender, interval, lookahead time.Duration) *Notifier {
	if interval == 0 {
		interval = 6 * time.Hour
	}
	if lookahead == 0 {
		lookahead = 24 * time.Hour
	}
	return &Notifier{schedule: schedule, guilds: guilds, sender: sender, interval: interval, lookahead: lookahead}
}

// Run polls immediately and then on every tick until ctx is done. Poll
// failures are logged and retried on the next tick, never fatal.
func (n *Notifier) Run(ctx context.Context) {
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	if err := n.Poll(ctx); err != nil {
		log.Printf("notifier: poll failed: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := n.Poll(ctx); err != nil {
				log.Printf("notifier: poll failed: %v", err)
			}
		}
	}
}

// Poll fetches the upcoming schedule once and notifies subscribed guilds.
func (n *Notifier) Poll(ctx context.Context) error {
	episodes, err := n.schedule.AiringSchedule(ctx, time.Now().UTC(), n.lookahead)
	if err != nil {
		return fmt.Errorf("airing schedule fetch: %w", err)
	}
	if len(episodes) == 0 {
		return nil
	}

	guilds, err := n.guilds.WithAiringAlerts(ctx)
	if err != nil {
		return fmt.Errorf("guild lookup: %w", err)
	}

	for _, g := range guilds {
		for _, ep := range episodes {
			embed := discord.Embed{
				Title: fmt.Sprintf("%s - Episode %d", ep.Title, ep.Episode),
				Description: fmt.Sprintf("Airing <t:%d:R>. Watch it on KamiAnime!",
					ep.AiringAt.Unix()),
				Color: 0x7C3AED,
			}
			if err := n.sender.SendEmbed(ctx, g.WebhookURL, embed); err != nil {
				log.Printf("notifier: delivery to guild %s failed: %v", g.GuildID, err)
			}
		}
	}
	return nil
}
