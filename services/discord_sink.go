package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"kamianime/discord"
	"kamianime/models"
	"kamianime/progression"
	"kamianime/store"
)

// DiscordSink is the bot-side consumer of relayed SyncEvents: it formats each
// event into a channel message and fans it out to guilds that opted into
// progress updates. It satisfies relay.EventSink.
type DiscordSink struct {
	guilds   store.GuildStore
	profiles store.ProfileStore
	sender   ChannelSender
}

func NewDiscordSink(guilds store.GuildStore, profiles store.ProfileStore, sender ChannelSender) *DiscordSink {
	return &DiscordSink{guilds: guilds, profiles: profiles, sender: sender}
}

// Deliver formats the event and posts it to every subscribed guild. Events
// that have no Discord rendering are dropped silently.
func (s *DiscordSink) Deliver(ctx context.Context, ev models.SyncEvent) {
	embed, ok := s.render(ctx, ev)
	if !ok {
		return
	}

	guilds, err := s.guilds.WithProgressUpdates(ctx)
	if err != nil {
		log.Printf("discord sink: guild lookup failed: %v", err)
		return
	}
	for _, g := range guilds {
		if err := s.sender.SendEmbed(ctx, g.WebhookURL, embed); err != nil {
			log.Printf("discord sink: delivery to guild %s failed: %v", g.GuildID, err)
		}
	}
}

func (s *DiscordSink) render(ctx context.Context, ev models.SyncEvent) (discord.Embed, bool) {
	name := s.displayName(ctx, ev.UserID)

	switch ev.Type {
	case models.EventLevelUp:
		var p models.LevelUpPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return discord.Embed{}, false
		}
		return discord.Embed{
			Title:       "Level Up!",
			Description: fmt.Sprintf("**%s** reached level **%d**", name, p.NewLevel),
			Color:       0xF59E0B,
		}, true

	case models.EventBadgeUnlock:
		var p models.BadgeUnlockPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return discord.Embed{}, false
		}
		badgeName := p.BadgeID
		if b, ok := progression.BadgeByID(p.BadgeID); ok {
			badgeName = b.Name
		}
		return discord.Embed{
			Title:       "Badge Unlocked!",
			Description: fmt.Sprintf("**%s** earned **%s** (+%d XP)", name, badgeName, p.XPReward),
			Color:       0x7C3AED,
		}, true

	case models.EventStreakUpdate:
		var p models.StreakUpdatePayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return discord.Embed{}, false
		}
		// Only milestone streaks are worth a channel message.
		if p.Streak < 3 {
			return discord.Embed{}, false
		}
		return discord.Embed{
			Title:       "Streak!",
			Description: fmt.Sprintf("**%s** is on a **%d-day** streak", name, p.Streak),
			Color:       0xEF4444,
		}, true

	case models.EventAccountLinked:
		return discord.Embed{
			Title:       "Account Linked",
			Description: fmt.Sprintf("**%s** linked their Discord account", name),
			Color:       0x10B981,
		}, true

	default:
		// xpUpdate, profileUpdate and unlink events update bot-side state
		// but are too noisy for channel messages.
		return discord.Embed{}, false
	}
}

func (s *DiscordSink) displayName(ctx context.Context, userID string) string {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil || profile.DisplayName == "" {
		return "A KamiAnime user"
	}
	return profile.DisplayName
}
