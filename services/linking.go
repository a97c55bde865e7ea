package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"kamianime/apperr"
	"kamianime/events"
	"kamianime/models"
	"kamianime/store"
	"kamianime/utils"
)

const linkCodeLength = 8

// LinkingService issues and redeems the single-use codes that bind a web
// account to a Discord identity.
type LinkingService struct {
	codes    store.LinkCodeStore
	profiles store.ProfileStore
	gam      *GamificationService
	bus      *events.Bus
	discord  EventPublisher
	ttl      time.Duration
}

func NewLinkingService(codes store.LinkCodeStore, profiles store.ProfileStore, gam *GamificationService, bus *events.Bus, discord EventPublisher, ttl time.Duration) *LinkingService {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	return &LinkingService{codes: codes, profiles: profiles, gam: gam, bus: bus, discord: discord, ttl: ttl}
}

// IssueLinkingCode creates a fresh code for the user, replacing any code
// still outstanding so at most one is redeemable at a time.
func (s *LinkingService) IssueLinkingCode(ctx context.Context, userID string) (*models.LinkCode, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.DiscordID != "" {
		return nil, fmt.Errorf("account already linked: %w", apperr.ErrConflict)
	}

	raw, err := utils.GenerateLinkCode(linkCodeLength)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	code := models.LinkCode{
		Code:      raw,
		OwnerID:   profile.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.codes.Put(ctx, code); err != nil {
		return nil, err
	}
	return &code, nil
}

// RedeemLinkingCode claims the code and, on success, establishes the link and
// announces it to both platforms. Whatever the outcome, the code is spent:
// expired or used codes stay unusable.
func (s *LinkingService) RedeemLinkingCode(ctx context.Context, code, discordUserID string) (*models.UserProfile, error) {
	if discordUserID == "" {
		return nil, apperr.Validation("discordUserId", "required")
	}

	claimed, err := s.codes.Take(ctx, code, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	// A Discord identity links to at most one profile.
	if _, err := s.profiles.GetByDiscordID(ctx, discordUserID); err == nil {
		return nil, fmt.Errorf("discord account already linked: %w", apperr.ErrConflict)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	ownerID := claimed.OwnerID.Hex()
	profile, err := s.profiles.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if profile.DiscordID != "" {
		return nil, fmt.Errorf("account already linked: %w", apperr.ErrConflict)
	}

	if err := s.profiles.SetFields(ctx, ownerID, map[string]interface{}{"discordId": discordUserID}); err != nil {
		return nil, err
	}

	// Linking proves the discord-join special condition; badge and reward
	// land through the normal pipeline.
	if _, err := s.gam.GrantSpecial(ctx, ownerID, "discord-join", OriginDiscord); err != nil {
		log.Printf("linking: discord-join grant failed for %s: %v", ownerID, err)
	}

	ev := models.NewSyncEvent(uuid.NewString(), models.EventAccountLinked, ownerID,
		models.AccountLinkPayload{DiscordID: discordUserID})
	s.bus.Publish(ev)
	if s.discord != nil {
		if err := s.discord.Publish(ctx, ev); err != nil {
			log.Printf("linking: relay failed: %v", err)
		}
	}

	return s.profiles.Get(ctx, ownerID)
}

// Unlink clears the Discord association and announces it.
func (s *LinkingService) Unlink(ctx context.Context, userID string) error {
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	if profile.DiscordID == "" {
		return fmt.Errorf("account not linked: %w", apperr.ErrConflict)
	}

	if err := s.profiles.SetFields(ctx, userID, map[string]interface{}{"discordId": ""}); err != nil {
		return err
	}

	ev := models.NewSyncEvent(uuid.NewString(), models.EventAccountUnlinked, userID,
		models.AccountLinkPayload{})
	s.bus.Publish(ev)
	if s.discord != nil {
		if err := s.discord.Publish(ctx, ev); err != nil {
			log.Printf("linking: relay failed: %v", err)
		}
	}
	return nil
}
