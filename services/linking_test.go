package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"kamianime/apperr"
	"kamianime/events"
	"kamianime/models"
	"kamianime/store"
)

func newTestLinking(t *testing.T) (*LinkingService, *store.MemoryProfileStore, *store.MemoryLinkCodeStore, *events.Bus) {
	t.Helper()
	profiles := store.NewMemoryProfileStore()
	codes := store.NewMemoryLinkCodeStore()
	bus := events.NewBus()
	relay := &capturePublisher{}
	gam := NewGamificationService(profiles, bus, relay)
	svc := NewLinkingService(codes, profiles, gam, bus, relay, 10*time.Minute)
	return svc, profiles, codes, bus
}

func TestLinkingCodeLifecycle(t *testing.T) {
	svc, profiles, _, bus := newTestLinking(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{})
	sub := bus.Subscribe()

	code, err := svc.IssueLinkingCode(ctx, userID)
	if err != nil {
		t.Fatalf("IssueLinkingCode: %v", err)
	}
	if len(code.Code) != linkCodeLength {
		t.Errorf("code length = %d, want %d", len(code.Code), linkCodeLength)
	}
	if got := code.ExpiresAt.Sub(code.CreatedAt); got != 10*time.Minute {
		t.Errorf("code TTL = %v, want 10m", got)
	}

	profile, err := svc.RedeemLinkingCode(ctx, code.Code, "discord-42")
	if err != nil {
		t.Fatalf("RedeemLinkingCode: %v", err)
	}
	if profile.DiscordID != "discord-42" {
		t.Errorf("DiscordID = %q, want discord-42", profile.DiscordID)
	}

	// Linking proves discord-join; the badge and its reward arrive together.
	if !profile.HasBadge("discord-join") {
		t.Error("discord-join badge not granted on link")
	}
	if profile.XP != 100 {
		t.Errorf("XP = %d, want 100 (discord-join reward)", profile.XP)
	}

	evs := drain(sub)
	if countType(evs, models.EventAccountLinked) != 1 {
		t.Error("accountLinked event not published")
	}

	// Single use: the same code can never be redeemed again.
	if _, err := svc.RedeemLinkingCode(ctx, code.Code, "discord-43"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("second redemption: got %v, want ErrConflict", err)
	}
}

func TestRedeemUnknownCode(t *testing.T) {
	svc, _, _, _ := newTestLinking(t)
	if _, err := svc.RedeemLinkingCode(context.Background(), "NOPE1234", "discord-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRedeemExpiredCode(t *testing.T) {
	svc, profiles, codes, _ := newTestLinking(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{})

	p, err := profiles.Get(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	created := time.Now().UTC().Add(-11 * time.Minute)
	stale := models.LinkCode{
		Code:      "OLDCODE1",
		OwnerID:   p.ID,
		CreatedAt: created,
		ExpiresAt: created.Add(10 * time.Minute),
	}
	if err := codes.Put(ctx, stale); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.RedeemLinkingCode(ctx, "OLDCODE1", "discord-1"); !errors.Is(err, apperr.ErrExpired) {
		t.Errorf("got %v, want ErrExpired", err)
	}

	// Expired codes are spent by the attempt, never retried.
	if _, err := svc.RedeemLinkingCode(ctx, "OLDCODE1", "discord-1"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("retry of expired code: got %v, want ErrConflict", err)
	}
}

func TestIssueReplacesOutstandingCode(t *testing.T) {
	svc, profiles, _, _ := newTestLinking(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{})

	first, err := svc.IssueLinkingCode(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.IssueLinkingCode(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.RedeemLinkingCode(ctx, first.Code, "discord-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("replaced code still redeemable: %v", err)
	}
	if _, err := svc.RedeemLinkingCode(ctx, second.Code, "discord-1"); err != nil {
		t.Errorf("fresh code rejected: %v", err)
	}
}

func TestDuplicateDiscordLinkRejected(t *testing.T) {
	svc, profiles, _, _ := newTestLinking(t)
	ctx := context.Background()

	userA := createUser(t, profiles, models.UserProfile{Email: "a@example.com"})
	userB := createUser(t, profiles, models.UserProfile{Email: "b@example.com"})

	codeA, err := svc.IssueLinkingCode(ctx, userA)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RedeemLinkingCode(ctx, codeA.Code, "discord-7"); err != nil {
		t.Fatal(err)
	}

	codeB, err := svc.IssueLinkingCode(ctx, userB)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RedeemLinkingCode(ctx, codeB.Code, "discord-7"); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate discord identity: got %v, want ErrConflict", err)
	}
}

func TestIssueForLinkedAccountRejected(t *testing.T) {
	svc, profiles, _, _ := newTestLinking(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{DiscordID: "discord-9"})

	if _, err := svc.IssueLinkingCode(ctx, userID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestUnlink(t *testing.T) {
	svc, profiles, _, bus := newTestLinking(t)
	ctx := context.Background()
	userID := createUser(t, profiles, models.UserProfile{DiscordID: "discord-5"})
	sub := bus.Subscribe()

	if err := svc.Unlink(ctx, userID); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	p, err := profiles.Get(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if p.DiscordID != "" {
		t.Errorf("DiscordID still set: %q", p.DiscordID)
	}
	if countType(drain(sub), models.EventAccountUnlinked) != 1 {
		t.Error("accountUnlinked event not published")
	}

	if err := svc.Unlink(ctx, userID); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("unlink of unlinked account: got %v, want ErrConflict", err)
	}
}
