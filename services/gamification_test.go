package services

import (
	"context"
	"testing"
	"time"

	"kamianime/apperr"
	"kamianime/events"
	"kamianime/models"
	"kamianime/store"
)

func newTestGamification(t *testing.T) (*GamificationService, *store.MemoryProfileStore, *events.Bus, *capturePublisher) {
	t.Helper()
	profiles := store.NewMemoryProfileStore()
	bus := events.NewBus()
	relay := &capturePublisher{}
	svc := NewGamificationService(profiles, bus, relay)
	// Fixed midday clock keeps the night-owl window out of these tests.
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc, profiles, bus, relay
}

func createUser(t *testing.T, profiles *store.MemoryProfileStore, p models.UserProfile) string {
	t.Helper()
	if p.Email == "" {
		p.Email = "user@example.com"
	}
	if err := profiles.Create(context.Background(), &p); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return p.ID.Hex()
}

func TestAwardXPCrossesLevel(t *testing.T) {
	svc, profiles, bus, _ := newTestGamification(t)
	ctx := context.Background()

	// Owns xp-1000 already so the level crossing is the only effect.
	userID := createUser(t, profiles, models.UserProfile{XP: 995, Badges: []string{"xp-1000"}})
	sub := bus.Subscribe()

	res, err := svc.AwardXP(ctx, userID, 10, "episode_watched", OriginWeb)
	if err != nil {
		t.Fatalf("AwardXP: %v", err)
	}

	if res.Profile.XP != 1005 {
		t.Errorf("XP = %d, want 1005", res.Profile.XP)
	}
	if res.Profile.Level != 2 {
		t.Errorf("Level = %d, want 2", res.Profile.Level)
	}
	if !res.LeveledUp || res.OldLevel != 1 || res.NewLevel != 2 {
		t.Errorf("level transition = %d->%d leveledUp=%v, want 1->2 true",
			res.OldLevel, res.NewLevel, res.LeveledUp)
	}

	evs := drain(sub)
	if n := countType(evs, models.EventLevelUp); n != 1 {
		t.Errorf("levelUp events = %d, want exactly 1", n)
	}
	if n := countType(evs, models.EventXPUpdate); n != 1 {
		t.Errorf("xpUpdate events = %d, want 1", n)
	}
}

func TestAwardXPValidation(t *testing.T) {
	svc, profiles, _, _ := newTestGamification(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{})

	if _, err := svc.AwardXP(ctx, userID, -5, "cheat", OriginWeb); !apperr.IsValidation(err) {
		t.Errorf("negative amount: got %v, want validation error", err)
	}
	if _, err := svc.AwardXP(ctx, userID, MaxXPPerRequest+1, "cheat", OriginWeb); !apperr.IsValidation(err) {
		t.Errorf("oversized amount: got %v, want validation error", err)
	}

	p, err := profiles.Get(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if p.XP != 0 {
		t.Errorf("rejected awards must not mutate state, XP = %d", p.XP)
	}
}

func TestEpisodeWatchGrantsBadgeAtomically(t *testing.T) {
	svc, profiles, bus, _ := newTestGamification(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{})
	sub := bus.Subscribe()

	res, err := svc.RecordEpisodeWatched(ctx, userID, OriginWeb)
	if err != nil {
		t.Fatalf("RecordEpisodeWatched: %v", err)
	}

	// Episode XP plus the first-episode badge reward land together.
	if res.XPAdded != XPPerEpisode+50 {
		t.Errorf("XPAdded = %d, want %d", res.XPAdded, XPPerEpisode+50)
	}
	if len(res.NewBadges) != 1 || res.NewBadges[0].ID != "first-episode" {
		t.Fatalf("NewBadges = %v, want [first-episode]", res.NewBadges)
	}
	if !res.Profile.HasBadge("first-episode") {
		t.Error("badge missing from profile")
	}
	if res.Profile.XP != XPPerEpisode+50 {
		t.Errorf("profile XP = %d, want %d", res.Profile.XP, XPPerEpisode+50)
	}

	evs := drain(sub)
	if n := countType(evs, models.EventBadgeUnlock); n != 1 {
		t.Errorf("badgeUnlock events = %d, want 1", n)
	}

	// A second watch must not re-grant the badge or its reward.
	res2, err := svc.RecordEpisodeWatched(ctx, userID, OriginWeb)
	if err != nil {
		t.Fatal(err)
	}
	if len(res2.NewBadges) != 0 {
		t.Errorf("badge re-granted: %v", res2.NewBadges)
	}
	if res2.XPAdded != XPPerEpisode {
		t.Errorf("second watch XPAdded = %d, want %d", res2.XPAdded, XPPerEpisode)
	}
}

func TestDailyLoginOncePerDay(t *testing.T) {
	svc, profiles, _, _ := newTestGamification(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{})

	res, err := svc.RecordDailyLogin(ctx, userID, OriginWeb)
	if err != nil {
		t.Fatal(err)
	}
	if res.XPAdded != XPDailyLogin {
		t.Errorf("first login XPAdded = %d, want %d", res.XPAdded, XPDailyLogin)
	}
	if res.Profile.Streak != 1 {
		t.Errorf("streak = %d, want 1", res.Profile.Streak)
	}

	res2, err := svc.RecordDailyLogin(ctx, userID, OriginWeb)
	if err != nil {
		t.Fatal(err)
	}
	if res2.XPAdded != 0 {
		t.Errorf("same-day login XPAdded = %d, want 0", res2.XPAdded)
	}
	if res2.Profile.XP != res.Profile.XP {
		t.Errorf("same-day login changed XP: %d -> %d", res.Profile.XP, res2.Profile.XP)
	}
}

func TestStreakBadgeOnThreshold(t *testing.T) {
	svc, profiles, _, _ := newTestGamification(t)
	ctx := context.Background()

	// Two-day streak, last active yesterday: the next activity reaches 3
	// and unlocks streak-3.
	yesterday := time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC)
	userID := createUser(t, profiles, models.UserProfile{Streak: 2, LastActiveDate: yesterday})

	res, err := svc.RecordChapterRead(ctx, userID, OriginWeb)
	if err != nil {
		t.Fatal(err)
	}
	if res.Profile.Streak != 3 {
		t.Fatalf("streak = %d, want 3", res.Profile.Streak)
	}
	found := false
	for _, b := range res.NewBadges {
		if b.ID == "streak-3" {
			found = true
		}
	}
	if !found {
		t.Errorf("streak-3 not granted, badges: %v", res.NewBadges)
	}
}

func TestDiscordMirroringFollowsOriginAndLink(t *testing.T) {
	svc, profiles, _, relay := newTestGamification(t)
	ctx := context.Background()

	linked := createUser(t, profiles, models.UserProfile{Email: "linked@example.com", DiscordID: "discord-1"})
	unlinked := createUser(t, profiles, models.UserProfile{Email: "solo@example.com"})

	// Web-originated change on a linked account is mirrored to Discord.
	if _, err := svc.AwardXP(ctx, linked, 10, "test", OriginWeb); err != nil {
		t.Fatal(err)
	}
	if len(relay.byType(models.EventXPUpdate)) != 1 {
		t.Errorf("linked web action not mirrored to discord")
	}

	// Discord-originated change is not echoed back.
	if _, err := svc.AwardXP(ctx, linked, 10, "test", OriginDiscord); err != nil {
		t.Fatal(err)
	}
	if len(relay.byType(models.EventXPUpdate)) != 1 {
		t.Errorf("discord-originated action echoed back to discord")
	}

	// Unlinked accounts never reach the relay.
	if _, err := svc.AwardXP(ctx, unlinked, 10, "test", OriginWeb); err != nil {
		t.Fatal(err)
	}
	if len(relay.byType(models.EventXPUpdate)) != 1 {
		t.Errorf("unlinked account mirrored to discord")
	}
}

func TestLeaderboardOrder(t *testing.T) {
	svc, profiles, _, _ := newTestGamification(t)
	ctx := context.Background()

	createUser(t, profiles, models.UserProfile{Email: "a@example.com", DisplayName: "a", XP: 300})
	createUser(t, profiles, models.UserProfile{Email: "b@example.com", DisplayName: "b", XP: 900})
	createUser(t, profiles, models.UserProfile{Email: "c@example.com", DisplayName: "c", XP: 600})

	top, err := svc.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].DisplayName != "b" || top[1].DisplayName != "c" {
		t.Errorf("unexpected leaderboard: %v", top)
	}
}
