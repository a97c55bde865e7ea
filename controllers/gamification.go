package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"kamianime/progression"
	"kamianime/services"
)

// WatchEpisode records that the caller finished an episode and returns what
// the action changed.
func WatchEpisode(c *gin.Context) {
	recordAction(c, "watch", env.Gamification.RecordEpisodeWatched)
}

// ReadChapter records that the caller finished a manga chapter.
func ReadChapter(c *gin.Context) {
	recordAction(c, "read", env.Gamification.RecordChapterRead)
}

// DailyLogin claims the daily login bonus. Repeat calls on the same UTC day
// succeed but change nothing.
func DailyLogin(c *gin.Context) {
	recordAction(c, "daily", env.Gamification.RecordDailyLogin)
}

func recordAction(c *gin.Context, action string, fn func(ctx context.Context, userID string, origin services.Origin) (*services.ProgressResult, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if !allowAction(c, userID, action) {
		return
	}

	res, err := fn(c.Request.Context(), userID, services.OriginWeb)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progressResponse(res))
}

func progressResponse(res *services.ProgressResult) gin.H {
	badges := make([]progression.Badge, 0, len(res.NewBadges))
	badges = append(badges, res.NewBadges...)
	return gin.H{
		"profile":       res.Profile,
		"xpAdded":       res.XPAdded,
		"leveledUp":     res.LeveledUp,
		"newLevel":      res.NewLevel,
		"newBadges":     badges,
		"streakChanged": res.StreakChanged,
		"xpToNextLevel": progression.XPToNextLevel(res.Profile.XP),
	}
}

// GetBadges returns the full badge catalog annotated with the caller's
// unlocks.
func GetBadges(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	profile, err := env.Profiles.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	type badgeView struct {
		progression.Badge
		Unlocked bool `json:"unlocked"`
	}
	catalog := progression.Registry()
	out := make([]badgeView, 0, len(catalog))
	for _, b := range catalog {
		out = append(out, badgeView{Badge: b, Unlocked: profile.HasBadge(b.ID)})
	}
	c.JSON(http.StatusOK, gin.H{"badges": out})
}
