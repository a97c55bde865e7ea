package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"kamianime/apperr"
	"kamianime/events"
	"kamianime/models"
	"kamianime/progression"
	"kamianime/store"
)

// XP awards per user action, matching the platform's published rates.
const (
	XPPerEpisode    = 10
	XPPerChapter    = 5
	XPDailyLogin    = 15
	MaxXPPerRequest = 1000
)

const lockStripes = 64

// Origin identifies which platform a state change was initiated on, deciding
// which side the resulting events are re-emitted to.
type Origin int

const (
	OriginWeb Origin = iota
	OriginDiscord
)

// EventPublisher forwards an event toward the Discord bot.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.SyncEvent) error
}

// ProgressResult describes what a single action changed.
type ProgressResult struct {
	Profile       *models.UserProfile
	XPAdded       int
	OldLevel      int
	NewLevel      int
	LeveledUp     bool
	NewBadges     []progression.Badge
	StreakChanged bool
}

// GamificationService turns user actions into XP, level transitions, streak
// updates and badge unlocks, then broadcasts the resulting SyncEvents. All
// profile mutations for one user are serialized through a striped lock so
// accepted events apply FIFO per user.
type GamificationService struct {
	profiles store.ProfileStore
	bus      *events.Bus
	discord  EventPublisher
	now      func() time.Time
	locks    [lockStripes]sync.Mutex
}

func NewGamificationService(profiles store.ProfileStore, bus *events.Bus, discord EventPublisher) *GamificationService {
	return &GamificationService{profiles: profiles, bus: bus, discord: discord, now: time.Now}
}

func (s *GamificationService) userLock(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &s.locks[h.Sum32()%lockStripes]
}

// RecordEpisodeWatched awards episode XP, advances the streak, and bumps the
// episode counter. Watching during the 2AM-5AM UTC window proves the
// night-owl special condition.
func (s *GamificationService) RecordEpisodeWatched(ctx context.Context, userID string, origin Origin) (*ProgressResult, error) {
	now := s.now().UTC()
	night := now.Hour() >= 2 && now.Hour() < 5
	return s.apply(ctx, userID, origin, XPPerEpisode, "episode_watched", func(p *models.UserProfile) {
		p.EpisodesWatched++
		if night && !p.HasSpecial("night-owl") {
			p.SpecialSeen = append(p.SpecialSeen, "night-owl")
		}
	})
}

// RecordChapterRead awards chapter XP, advances the streak, and bumps the
// chapter counter.
func (s *GamificationService) RecordChapterRead(ctx context.Context, userID string, origin Origin) (*ProgressResult, error) {
	return s.apply(ctx, userID, origin, XPPerChapter, "chapter_read", func(p *models.UserProfile) {
		p.ChaptersRead++
	})
}

// RecordDailyLogin advances the streak and awards the daily bonus at most
// once per UTC calendar day; repeat calls on the same day are no-ops.
func (s *GamificationService) RecordDailyLogin(ctx context.Context, userID string, origin Origin) (*ProgressResult, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	now := s.now().UTC()
	firstToday := false
	result, err := s.mutateProgress(ctx, userID, func(p *models.UserProfile) int {
		firstToday = !progression.SameActivityDay(p.LastActiveDate, now)
		if !firstToday {
			return 0
		}
		return XPDailyLogin
	}, nil)
	if err != nil {
		return nil, err
	}
	if firstToday {
		s.emit(ctx, result, "daily_login", origin)
	}
	return result, nil
}

// AwardXP applies an arbitrary XP grant (quests, webhook events). The amount
// is bounded to keep a compromised caller from minting XP.
func (s *GamificationService) AwardXP(ctx context.Context, userID string, amount int, reason string, origin Origin) (*ProgressResult, error) {
	if amount <= 0 {
		return nil, apperr.Validation("amount", "must be positive")
	}
	if amount > MaxXPPerRequest {
		return nil, apperr.Validation("amount", "exceeds per-request limit")
	}
	return s.apply(ctx, userID, origin, amount, reason, nil)
}

// GrantSpecial records a proven special badge condition and re-evaluates
// badge eligibility. Granting an already-proven condition is a no-op.
func (s *GamificationService) GrantSpecial(ctx context.Context, userID, specialID string, origin Origin) (*ProgressResult, error) {
	b, ok := progression.BadgeByID(specialID)
	if !ok {
		return nil, apperr.Validation("badge", fmt.Sprintf("unknown special condition %q", specialID))
	}
	if b.Kind != progression.KindSpecial {
		return nil, apperr.Validation("badge", fmt.Sprintf("%q is threshold-derived, not grantable", specialID))
	}
	return s.apply(ctx, userID, origin, 0, "special:"+specialID, func(p *models.UserProfile) {
		if !p.HasSpecial(specialID) {
			p.SpecialSeen = append(p.SpecialSeen, specialID)
		}
	})
}

// apply serializes per user, runs the mutation pipeline, and emits events.
func (s *GamificationService) apply(ctx context.Context, userID string, origin Origin, delta int, reason string, extra func(*models.UserProfile)) (*ProgressResult, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	result, err := s.mutateProgress(ctx, userID, func(*models.UserProfile) int { return delta }, extra)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, result, reason, origin)
	return result, nil
}

// mutateProgress is the single write path for progression state: streak
// transition, XP total, counters, badge evaluation with its XP bonus, and
// level recomputation all land in one compare-and-set store write, so a crash
// can never separate a badge grant from its reward.
func (s *GamificationService) mutateProgress(ctx context.Context, userID string, deltaFor func(*models.UserProfile) int, extra func(*models.UserProfile)) (*ProgressResult, error) {
	now := s.now().UTC()
	result := &ProgressResult{}

	profile, err := s.profiles.ApplyProgress(ctx, userID, func(p *models.UserProfile) error {
		result.OldLevel = progression.Level(p.XP)

		newStreak, changed := progression.AdvanceStreak(p.LastActiveDate, p.Streak, now)
		p.Streak = newStreak
		p.LastActiveDate = now
		result.StreakChanged = changed

		delta := deltaFor(p)
		if delta < 0 {
			return apperr.Validation("amount", "must not be negative")
		}
		p.XP += delta
		result.XPAdded = delta

		if extra != nil {
			extra(p)
		}

		stats := progression.Stats{
			XP:              p.XP,
			EpisodesWatched: p.EpisodesWatched,
			ChaptersRead:    p.ChaptersRead,
			StreakDays:      p.Streak,
		}
		earned := progression.Eligible(stats, p.HasBadge, p.HasSpecial)
		for _, b := range earned {
			p.Badges = append(p.Badges, b.ID)
			p.XP += b.XPReward
			result.XPAdded += b.XPReward
		}
		result.NewBadges = earned

		result.NewLevel = progression.Level(p.XP)
		result.LeveledUp = result.NewLevel > result.OldLevel
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Profile = profile
	return result, nil
}

// emit publishes the normalized SyncEvents for a completed mutation. Web
// clients always hear about it; the Discord side is mirrored only for
// web-originated changes on linked accounts.
func (s *GamificationService) emit(ctx context.Context, r *ProgressResult, reason string, origin Origin) {
	userID := r.Profile.ID.Hex()
	var out []models.SyncEvent

	if r.XPAdded != 0 {
		out = append(out, models.NewSyncEvent(uuid.NewString(), models.EventXPUpdate, userID,
			models.XPUpdatePayload{Amount: r.XPAdded, NewXP: r.Profile.XP, Reason: reason}))
	}
	if r.LeveledUp {
		out = append(out, models.NewSyncEvent(uuid.NewString(), models.EventLevelUp, userID,
			models.LevelUpPayload{OldLevel: r.OldLevel, NewLevel: r.NewLevel}))
	}
	for _, b := range r.NewBadges {
		out = append(out, models.NewSyncEvent(uuid.NewString(), models.EventBadgeUnlock, userID,
			models.BadgeUnlockPayload{BadgeID: b.ID, XPReward: b.XPReward}))
	}
	if r.StreakChanged {
		out = append(out, models.NewSyncEvent(uuid.NewString(), models.EventStreakUpdate, userID,
			models.StreakUpdatePayload{Streak: r.Profile.Streak}))
	}

	mirror := origin == OriginWeb && r.Profile.DiscordID != "" && s.discord != nil
	for _, ev := range out {
		s.bus.Publish(ev)
		if mirror {
			if err := s.discord.Publish(ctx, ev); err != nil {
				log.Printf("gamification: discord relay failed for %s: %v", ev.Type, err)
			}
		}
	}
}

// Leaderboard returns the top-N profiles by XP.
func (s *GamificationService) Leaderboard(ctx context.Context, limit int) ([]models.UserProfile, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.profiles.TopByXP(ctx, limit)
}
