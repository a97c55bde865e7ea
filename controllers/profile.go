package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"kamianime/progression"
	"kamianime/utils"
)

type updateProfileRequest struct {
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// GetProfile returns a user's public profile with derived level progress.
func GetProfile(c *gin.Context) {
	profile, err := env.Profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":       profile,
		"xpToNextLevel": progression.XPToNextLevel(profile.XP),
		"levelProgress": progression.ProgressFraction(profile.XP),
	})
}

// UpdateProfile changes the caller's display name and avatar.
func UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid profile payload"})
		return
	}

	fields := map[string]interface{}{}
	if req.DisplayName != "" {
		fields["displayName"] = req.DisplayName
	}
	if req.AvatarURL != "" {
		fields["avatarUrl"] = req.AvatarURL
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	if err := env.Profiles.SetFields(c.Request.Context(), userID, fields); err != nil {
		writeError(c, err)
		return
	}

	profile, err := env.Profiles.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type listItemRequest struct {
	ItemID string `json:"itemId" binding:"required"`
}

// AddToWatchlist adds an anime id to the caller's watchlist.
func AddToWatchlist(c *gin.Context) {
	mutateList(c, "watchlist", true)
}

// RemoveFromWatchlist removes an anime id from the caller's watchlist.
func RemoveFromWatchlist(c *gin.Context) {
	mutateList(c, "watchlist", false)
}

// AddToMangaLibrary adds a manga id to the caller's library.
func AddToMangaLibrary(c *gin.Context) {
	mutateList(c, "mangaLibrary", true)
}

// RemoveFromMangaLibrary removes a manga id from the caller's library.
func RemoveFromMangaLibrary(c *gin.Context) {
	mutateList(c, "mangaLibrary", false)
}

func mutateList(c *gin.Context, field string, add bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req listItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId is required"})
		return
	}

	var err error
	if add {
		err = env.Profiles.AddToSet(c.Request.Context(), userID, field, req.ItemID)
	} else {
		err = env.Profiles.PullFromSet(c.Request.Context(), userID, field, req.ItemID)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	profile, err := env.Profiles.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetLeaderboard returns the top profiles by XP.
func GetLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	top, err := env.Gamification.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	currentID, _ := c.Get("userID")
	type entry struct {
		ID          string `json:"id"`
		Rank        int    `json:"rank"`
		Name        string `json:"name"`
		AvatarURL   string `json:"avatarUrl"`
		XP          int    `json:"xp"`
		Level       int    `json:"level"`
		Streak      int    `json:"streak"`
		CurrentUser bool   `json:"currentUser"`
	}

	entries := make([]entry, 0, len(top))
	for i, p := range top {
		name := p.DisplayName
		if name == "" {
			name = utils.ExtractNameFromEmail(p.Email)
		}
		entries = append(entries, entry{
			ID:          p.ID.Hex(),
			Rank:        i + 1,
			Name:        name,
			AvatarURL:   p.AvatarURL,
			XP:          p.XP,
			Level:       p.Level,
			Streak:      p.Streak,
			CurrentUser: p.ID.Hex() == currentID,
		})
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
