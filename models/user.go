package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserProfile is the per-account document. XP, streak and the collections are
// the only independently stored progression state; Level is persisted for
// leaderboard queries but always recomputed from XP inside the store write
// path and never accepted as an input.
type UserProfile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	DisplayName  string             `bson:"displayName" json:"displayName"`
	AvatarURL    string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`

	IsAdmin   bool `bson:"isAdmin" json:"isAdmin"`
	IsPremium bool `bson:"isPremium" json:"isPremium"`

	XP              int       `bson:"xp" json:"xp"`
	Level           int       `bson:"level" json:"level"`
	Streak          int       `bson:"streak" json:"streak"`
	LastActiveDate  time.Time `bson:"lastActiveDate,omitempty" json:"lastActiveDate,omitempty"`
	EpisodesWatched int       `bson:"episodesWatched" json:"episodesWatched"`
	ChaptersRead    int       `bson:"chaptersRead" json:"chaptersRead"`

	Badges       []string `bson:"badges" json:"badges"`
	Watchlist    []string `bson:"watchlist" json:"watchlist"`
	MangaLibrary []string `bson:"mangaLibrary" json:"mangaLibrary"`

	// SpecialSeen records proven "special" badge conditions (discord-join,
	// night-owl) so the evaluator can treat them as satisfied.
	SpecialSeen []string `bson:"specialSeen,omitempty" json:"-"`

	// DiscordID is a weak link to a Discord identity, set by linking-code
	// redemption and cleared by unlink. Empty means unlinked.
	DiscordID string `bson:"discordId,omitempty" json:"discordId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasBadge reports whether the profile already owns the badge.
func (u *UserProfile) HasBadge(id string) bool {
	for _, b := range u.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// HasSpecial reports whether a special badge condition has been proven.
func (u *UserProfile) HasSpecial(id string) bool {
	for _, s := range u.SpecialSeen {
		if s == id {
			return true
		}
	}
	return false
}

// LinkCode is a short-lived single-use token binding a web account to a
// Discord identity. Expiry is enforced at redemption, not by a sweep.
type LinkCode struct {
	Code      string             `bson:"_id" json:"code"`
	OwnerID   primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	Used      bool               `bson:"used" json:"used"`
}

// Guild holds per-Discord-guild settings the bot consults when fanning out
// notifications.
type Guild struct {
	GuildID         string    `bson:"_id" json:"guildId"`
	Name            string    `bson:"name" json:"name"`
	WebhookURL      string    `bson:"webhookUrl" json:"-"`
	AiringAlerts    bool      `bson:"airingAlerts" json:"airingAlerts"`
	ProgressUpdates bool      `bson:"progressUpdates" json:"progressUpdates"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}
