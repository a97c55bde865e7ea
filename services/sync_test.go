package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"kamianime/apperr"
	"kamianime/events"
	"kamianime/models"
	"kamianime/store"
)

const testWebhookKey = "test-webhook-key"

func newTestSync(t *testing.T) (*SyncService, *store.MemoryProfileStore, *events.Bus, *capturePublisher) {
	t.Helper()
	profiles := store.NewMemoryProfileStore()
	bus := events.NewBus()
	relay := &capturePublisher{}
	gam := NewGamificationService(profiles, bus, relay)
	svc := NewSyncService(testWebhookKey, newMemDeduper(), gam, profiles, bus, relay)
	return svc, profiles, bus, relay
}

func xpEnvelope(eventID, userID string, amount int) WebhookEnvelope {
	data, _ := json.Marshal(models.XPUpdatePayload{Amount: amount, Reason: "discord_quiz"})
	return WebhookEnvelope{
		EventID:   eventID,
		EventType: models.EventXPUpdate,
		UserID:    userID,
		Data:      data,
		APIKey:    testWebhookKey,
	}
}

func TestIngestWebhookAppliesXP(t *testing.T) {
	svc, profiles, bus, _ := newTestSync(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{})
	sub := bus.Subscribe()

	if err := svc.IngestWebhook(ctx, xpEnvelope("ev-1", userID, 25)); err != nil {
		t.Fatalf("IngestWebhook: %v", err)
	}

	p, err := profiles.Get(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if p.XP != 25 {
		t.Errorf("XP = %d, want 25", p.XP)
	}

	// The website side hears about the discord-originated change.
	if countType(drain(sub), models.EventXPUpdate) != 1 {
		t.Error("xpUpdate not re-emitted to the web bus")
	}
}

func TestIngestWebhookReplayIsNoOp(t *testing.T) {
	svc, profiles, _, _ := newTestSync(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{})

	env := xpEnvelope("ev-dup", userID, 40)
	if err := svc.IngestWebhook(ctx, env); err != nil {
		t.Fatal(err)
	}
	if err := svc.IngestWebhook(ctx, env); err != nil {
		t.Fatalf("replay must be accepted: %v", err)
	}

	p, err := profiles.Get(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if p.XP != 40 {
		t.Errorf("XP after replay = %d, want 40 (no double award)", p.XP)
	}
}

func TestIngestWebhookFailureReleasesEventID(t *testing.T) {
	svc, profiles, _, _ := newTestSync(t)
	ctx := context.Background()

	// Unknown user: application fails, but the sender's retry after the
	// user exists must not be swallowed by the dedupe log.
	env := xpEnvelope("ev-retry", "64b000000000000000000000", 10)
	if err := svc.IngestWebhook(ctx, env); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}

	userID := createUser(t, profiles, models.UserProfile{})
	env.UserID = userID
	if err := svc.IngestWebhook(ctx, env); err != nil {
		t.Fatalf("retry rejected: %v", err)
	}
	p, _ := profiles.Get(ctx, userID)
	if p.XP != 10 {
		t.Errorf("XP = %d, want 10", p.XP)
	}
}

func TestIngestWebhookAuth(t *testing.T) {
	svc, profiles, _, _ := newTestSync(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{})

	env := xpEnvelope("ev-bad", userID, 10)
	env.APIKey = "wrong-key"
	if err := svc.IngestWebhook(ctx, env); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("got %v, want ErrUnauthorized", err)
	}

	p, _ := profiles.Get(ctx, userID)
	if p.XP != 0 {
		t.Errorf("rejected webhook mutated state: XP = %d", p.XP)
	}
}

func TestIngestWebhookValidation(t *testing.T) {
	svc, profiles, _, _ := newTestSync(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{})

	cases := []struct {
		name string
		env  WebhookEnvelope
	}{
		{"missing user", WebhookEnvelope{EventType: models.EventXPUpdate, APIKey: testWebhookKey, Data: json.RawMessage(`{"amount":5}`)}},
		{"unknown tag", WebhookEnvelope{EventType: "hyperdrive", UserID: userID, APIKey: testWebhookKey}},
		{"malformed payload", WebhookEnvelope{EventType: models.EventXPUpdate, UserID: userID, APIKey: testWebhookKey, Data: json.RawMessage(`"not an object"`)}},
		{"non-positive amount", xpEnvelopeWith(userID, 0)},
		{"output-only tag", WebhookEnvelope{EventType: models.EventLevelUp, UserID: userID, APIKey: testWebhookKey, Data: json.RawMessage(`{}`)}},
		{"quest without id", WebhookEnvelope{EventType: models.EventQuestProgress, UserID: userID, APIKey: testWebhookKey, Data: json.RawMessage(`{"xpReward":20}`)}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := svc.IngestWebhook(ctx, c.env); !apperr.IsValidation(err) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}

	p, _ := profiles.Get(ctx, userID)
	if p.XP != 0 {
		t.Errorf("rejected webhooks mutated state: XP = %d", p.XP)
	}
}

func xpEnvelopeWith(userID string, amount int) WebhookEnvelope {
	data, _ := json.Marshal(models.XPUpdatePayload{Amount: amount})
	return WebhookEnvelope{
		EventType: models.EventXPUpdate,
		UserID:    userID,
		Data:      data,
		APIKey:    testWebhookKey,
	}
}

func TestIngestQuestProgress(t *testing.T) {
	svc, profiles, _, _ := newTestSync(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{})

	data, _ := json.Marshal(models.QuestProgressPayload{QuestID: "daily-trivia", XPReward: 30})
	env := WebhookEnvelope{
		EventID:   "ev-quest",
		EventType: models.EventQuestProgress,
		UserID:    userID,
		Data:      data,
		APIKey:    testWebhookKey,
	}
	if err := svc.IngestWebhook(ctx, env); err != nil {
		t.Fatal(err)
	}
	p, _ := profiles.Get(ctx, userID)
	if p.XP != 30 {
		t.Errorf("XP = %d, want 30", p.XP)
	}
}

func TestForceSyncConvergesViews(t *testing.T) {
	svc, profiles, bus, relay := newTestSync(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{XP: 995, DiscordID: "discord-1", Badges: []string{"xp-1000"}})
	sub := bus.Subscribe()

	// Web awards 10 XP while the user sits at 995: level crossing.
	if err := svc.IngestWebhook(ctx, xpEnvelope("ev-x", userID, 10)); err != nil {
		t.Fatal(err)
	}

	p, err := svc.ForceSync(ctx, userID)
	if err != nil {
		t.Fatalf("ForceSync: %v", err)
	}
	if p.XP != 1005 || p.Level != 2 {
		t.Errorf("profile = xp %d level %d, want 1005/2", p.XP, p.Level)
	}

	evs := drain(sub)
	if countType(evs, models.EventLevelUp) != 1 {
		t.Errorf("levelUp fired %d times, want exactly once", countType(evs, models.EventLevelUp))
	}
	if countType(evs, models.EventProfileUpdate) != 1 {
		t.Error("profileUpdate not published to the web bus")
	}

	// The linked bot side receives the same snapshot.
	snaps := relay.byType(models.EventProfileUpdate)
	if len(snaps) != 1 {
		t.Fatalf("profileUpdate relayed %d times, want 1", len(snaps))
	}
	var snap models.ProfileUpdatePayload
	if err := json.Unmarshal(snaps[0].Payload, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.XP != 1005 || snap.Level != 2 {
		t.Errorf("relayed snapshot = xp %d level %d, want 1005/2", snap.XP, snap.Level)
	}
}
