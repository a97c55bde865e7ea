package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"

	"kamianime/apperr"
	"kamianime/events"
	"kamianime/models"
	"kamianime/store"
)

// EventDeduper remembers processed webhook event ids. Unmark releases an id
// whose application failed so the sender's retry is not silently dropped.
type EventDeduper interface {
	MarkProcessed(ctx context.Context, eventID string) (bool, error)
	Unmark(ctx context.Context, eventID string) error
}

// WebhookEnvelope is the authenticated ingress payload from the bot platform.
type WebhookEnvelope struct {
	EventID   string           `json:"eventId"`
	EventType models.EventType `json:"eventType"`
	UserID    string           `json:"userId"`
	Data      json.RawMessage  `json:"data"`
	APIKey    string           `json:"apiKey"`
}

// SyncService is the webhook side of the cross-platform bridge: it
// authenticates incoming events, validates them against the closed payload
// union, applies the mutation exactly once, and re-emits the normalized
// event to website listeners.
type SyncService struct {
	webhookKey string
	dedupe     EventDeduper
	gam        *GamificationService
	profiles   store.ProfileStore
	bus        *events.Bus
	discord    EventPublisher
}

func NewSyncService(webhookKey string, dedupe EventDeduper, gam *GamificationService, profiles store.ProfileStore, bus *events.Bus, discord EventPublisher) *SyncService {
	return &SyncService{
		webhookKey: webhookKey,
		dedupe:     dedupe,
		gam:        gam,
		profiles:   profiles,
		bus:        bus,
		discord:    discord,
	}
}

// IngestWebhook processes one webhook call. Auth and validation failures
// reject the whole event with nothing applied; a replayed event id is
// accepted as a no-op.
func (s *SyncService) IngestWebhook(ctx context.Context, env WebhookEnvelope) error {
	if subtle.ConstantTimeCompare([]byte(env.APIKey), []byte(s.webhookKey)) != 1 {
		return fmt.Errorf("webhook key mismatch: %w", apperr.ErrUnauthorized)
	}
	if env.UserID == "" {
		return apperr.Validation("userId", "required")
	}
	if !models.KnownEventType(env.EventType) {
		return apperr.Validation("eventType", fmt.Sprintf("unknown tag %q", env.EventType))
	}

	// Validate the payload shape before touching the dedupe log, so a
	// malformed event never burns its id.
	apply, err := s.handlerFor(env)
	if err != nil {
		return err
	}

	if env.EventID != "" && s.dedupe != nil {
		first, err := s.dedupe.MarkProcessed(ctx, env.EventID)
		if err != nil {
			return err
		}
		if !first {
			// Replay: already applied, converge silently.
			return nil
		}
	}

	if err := apply(ctx); err != nil {
		if env.EventID != "" && s.dedupe != nil {
			if unmarkErr := s.dedupe.Unmark(ctx, env.EventID); unmarkErr != nil {
				log.Printf("sync: failed to release event id %s: %v", env.EventID, unmarkErr)
			}
		}
		return err
	}
	return nil
}

// handlerFor validates the tag-specific payload and returns the mutation to
// run. Unknown fields are tolerated; missing or out-of-range required fields
// are not.
func (s *SyncService) handlerFor(env WebhookEnvelope) (func(context.Context) error, error) {
	switch env.EventType {
	case models.EventXPUpdate:
		var p models.XPUpdatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, apperr.Validation("data", "malformed xpUpdate payload")
		}
		if p.Amount <= 0 {
			return nil, apperr.Validation("data.amount", "must be positive")
		}
		reason := p.Reason
		if reason == "" {
			reason = "discord_activity"
		}
		return func(ctx context.Context) error {
			_, err := s.gam.AwardXP(ctx, env.UserID, p.Amount, reason, OriginDiscord)
			return err
		}, nil

	case models.EventQuestProgress:
		var p models.QuestProgressPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, apperr.Validation("data", "malformed questProgress payload")
		}
		if p.QuestID == "" {
			return nil, apperr.Validation("data.questId", "required")
		}
		if p.XPReward <= 0 {
			return nil, apperr.Validation("data.xpReward", "must be positive")
		}
		return func(ctx context.Context) error {
			_, err := s.gam.AwardXP(ctx, env.UserID, p.XPReward, "quest:"+p.QuestID, OriginDiscord)
			return err
		}, nil

	case models.EventStreakUpdate:
		// A daily-activity ping from the bot; the streak rules decide the
		// actual transition.
		return func(ctx context.Context) error {
			_, err := s.gam.RecordDailyLogin(ctx, env.UserID, OriginDiscord)
			return err
		}, nil

	case models.EventBadgeUnlock:
		var p models.BadgeUnlockPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return nil, apperr.Validation("data", "malformed badgeUnlock payload")
		}
		if p.BadgeID == "" {
			return nil, apperr.Validation("data.badgeId", "required")
		}
		// The bot can only prove special conditions; threshold badges are
		// derived locally and never accepted from outside.
		return func(ctx context.Context) error {
			_, err := s.gam.GrantSpecial(ctx, env.UserID, p.BadgeID, OriginDiscord)
			return err
		}, nil

	case models.EventProfileUpdate:
		return func(ctx context.Context) error {
			_, err := s.ForceSync(ctx, env.UserID)
			return err
		}, nil

	default:
		// levelUp, accountLinked and accountUnlinked are outputs of this
		// bridge, never accepted as inputs.
		return nil, apperr.Validation("eventType", fmt.Sprintf("%q is not ingestible", env.EventType))
	}
}

// ForceSync reloads the authoritative profile and republishes a full
// snapshot to both platforms, recovering from any suspected missed update.
func (s *SyncService) ForceSync(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	ev := models.NewSyncEvent(uuid.NewString(), models.EventProfileUpdate, userID,
		models.ProfileUpdatePayload{
			XP:      profile.XP,
			Level:   profile.Level,
			Streak:  profile.Streak,
			Badges:  profile.Badges,
			Premium: profile.IsPremium,
		})

	s.bus.Publish(ev)
	if s.discord != nil && profile.DiscordID != "" {
		if err := s.discord.Publish(ctx, ev); err != nil {
			log.Printf("sync: relay failed for force-sync of %s: %v", userID, err)
		}
	}
	return profile, nil
}
