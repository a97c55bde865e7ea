// Package store defines the persistence contracts the services depend on and
// provides the MongoDB implementations plus in-memory equivalents used by
// tests. The document database owns durability; these interfaces only pin
// down the access patterns the progression engine needs, in particular the
// atomic read-modify-write the shared profile record requires.
package store

import (
	"context"
	"time"

	"kamianime/models"
)

// ProfileStore is the per-user profile document contract.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.UserProfile, error)
	Create(ctx context.Context, profile *models.UserProfile) error

	// SetFields applies a partial update (admin toggles, link/unlink).
	SetFields(ctx context.Context, userID string, fields map[string]interface{}) error

	// AddToSet / PullFromSet mutate a set-valued field (watchlist,
	// mangaLibrary) without touching progression state.
	AddToSet(ctx context.Context, userID, field, value string) error
	PullFromSet(ctx context.Context, userID, field, value string) error

	// ApplyProgress runs mutate against the current profile and persists the
	// result only if the stored XP still matches what mutate saw
	// (compare-and-set, retried on contention). Level is recomputed from XP
	// on every write; mutate returning an error aborts with nothing applied.
	ApplyProgress(ctx context.Context, userID string, mutate func(*models.UserProfile) error) (*models.UserProfile, error)

	// TopByXP returns up to limit profiles ordered by XP descending.
	TopByXP(ctx context.Context, limit int) ([]models.UserProfile, error)
}

// LinkCodeStore holds outstanding linking codes.
type LinkCodeStore interface {
	// Put stores a fresh code, replacing any outstanding code for the owner
	// so at most one is redeemable per user.
	Put(ctx context.Context, code models.LinkCode) error

	// Take claims a code: it is marked used no matter the outcome, and the
	// pre-claim state decides the result. Errors: apperr.ErrNotFound for an
	// unknown code, apperr.ErrConflict if it was already used,
	// apperr.ErrExpired if now is past its expiry.
	Take(ctx context.Context, code string, now time.Time) (*models.LinkCode, error)
}

// GuildStore holds per-guild Discord notification settings.
type GuildStore interface {
	Upsert(ctx context.Context, guild models.Guild) error
	Get(ctx context.Context, guildID string) (*models.Guild, error)
	WithAiringAlerts(ctx context.Context) ([]models.Guild, error)
	WithProgressUpdates(ctx context.Context) ([]models.Guild, error)
}
