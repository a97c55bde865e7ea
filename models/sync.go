package models

import (
	"encoding/json"
	"time"
)

// EventType enumerates the closed set of cross-platform sync event tags.
type EventType string

const (
	EventXPUpdate        EventType = "xpUpdate"
	EventLevelUp         EventType = "levelUp"
	EventBadgeUnlock     EventType = "badgeUnlock"
	EventStreakUpdate    EventType = "streakUpdate"
	EventQuestProgress   EventType = "questProgress"
	EventAccountLinked   EventType = "accountLinked"
	EventAccountUnlinked EventType = "accountUnlinked"
	EventProfileUpdate   EventType = "profileUpdate"
)

// KnownEventType reports whether t is one of the defined tags.
func KnownEventType(t EventType) bool {
	switch t {
	case EventXPUpdate, EventLevelUp, EventBadgeUnlock, EventStreakUpdate,
		EventQuestProgress, EventAccountLinked, EventAccountUnlinked, EventProfileUpdate:
		return true
	}
	return false
}

// SyncEvent is the normalized notification exchanged between the website and
// the Discord bot. Payload holds the tag-specific struct marshaled as JSON.
type SyncEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	UserID    string          `json:"userId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// XPUpdatePayload carries an XP change. NewXP is the resulting total, not a
// delta, so replays converge on the same value.
type XPUpdatePayload struct {
	Amount int    `json:"amount"`
	NewXP  int    `json:"newXp"`
	Reason string `json:"reason,omitempty"`
}

// LevelUpPayload announces a level transition.
type LevelUpPayload struct {
	OldLevel int `json:"oldLevel"`
	NewLevel int `json:"newLevel"`
}

// BadgeUnlockPayload announces a newly granted badge.
type BadgeUnlockPayload struct {
	BadgeID  string `json:"badgeId"`
	XPReward int    `json:"xpReward"`
}

// StreakUpdatePayload announces the current streak after a daily-activity
// transition.
type StreakUpdatePayload struct {
	Streak int `json:"streak"`
}

// QuestProgressPayload reports quest completion originating on either
// platform.
type QuestProgressPayload struct {
	QuestID  string `json:"questId"`
	XPReward int    `json:"xpReward"`
}

// AccountLinkPayload accompanies accountLinked and accountUnlinked events.
type AccountLinkPayload struct {
	DiscordID string `json:"discordId,omitempty"`
}

// ProfileUpdatePayload carries the full authoritative snapshot republished by
// a force-sync.
type ProfileUpdatePayload struct {
	XP      int      `json:"xp"`
	Level   int      `json:"level"`
	Streak  int      `json:"streak"`
	Badges  []string `json:"badges"`
	Premium bool     `json:"premium"`
}

// NewSyncEvent builds an event with the payload marshaled in place.
func NewSyncEvent(id string, t EventType, userID string, payload interface{}) SyncEvent {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	return SyncEvent{
		ID:        id,
		Type:      t,
		UserID:    userID,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}
}

// MarshalSyncEvent serializes an event for the wire (Redis stream field,
// websocket frame).
func MarshalSyncEvent(ev SyncEvent) (string, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UnmarshalSyncEvent parses an event from its wire form.
func UnmarshalSyncEvent(data string) (SyncEvent, error) {
	var ev SyncEvent
	err := json.Unmarshal([]byte(data), &ev)
	return ev, err
}
