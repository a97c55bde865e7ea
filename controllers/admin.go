package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kamianime/models"
	"kamianime/services"
)

type setFlagRequest struct {
	Value bool `json:"value"`
}

// SetPremium toggles a user's premium flag.
func SetPremium(c *gin.Context) {
	setUserFlag(c, "isPremium")
}

// SetAdmin toggles a user's admin flag.
func SetAdmin(c *gin.Context) {
	setUserFlag(c, "isAdmin")
}

func setUserFlag(c *gin.Context, field string) {
	var req setFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	userID := c.Param("id")
	if err := env.Profiles.SetFields(c.Request.Context(), userID, map[string]interface{}{field: req.Value}); err != nil {
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

type awardXPRequest struct {
	Amount int    `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

// AdminAwardXP grants XP outside the normal action flow, for support and
// event payouts.
func AdminAwardXP(c *gin.Context) {
	var req awardXPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "admin_grant"
	}

	res, err := env.Gamification.AwardXP(c.Request.Context(), c.Param("id"), req.Amount, reason, services.OriginWeb)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, progressResponse(res))
}

type guildRequest struct {
	GuildID         string `json:"guildId" binding:"required"`
	Name            string `json:"name"`
	WebhookURL      string `json:"webhookUrl" binding:"required"`
	AiringAlerts    bool   `json:"airingAlerts"`
	ProgressUpdates bool   `json:"progressUpdates"`
}

// UpsertGuild registers or updates a Discord guild's notification settings.
func UpsertGuild(c *gin.Context) {
	var req guildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid guild payload"})
		return
	}

	guild := models.Guild{
		GuildID:         req.GuildID,
		Name:            req.Name,
		WebhookURL:      req.WebhookURL,
		AiringAlerts:    req.AiringAlerts,
		ProgressUpdates: req.ProgressUpdates,
	}
	if err := env.Guilds.Upsert(c.Request.Context(), guild); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, guild)
}

// AdminIssueLinkCode creates a linking code on a user's behalf, for support
// flows where the user cannot reach the website.
func AdminIssueLinkCode(c *gin.Context) {
	code, err := env.Linking.IssueLinkingCode(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": code.Code, "expiresAt": code.ExpiresAt})
}

// AdminForceSync republishes any user's profile snapshot.
func AdminForceSync(c *gin.Context) {
	profile, err := env.Sync.ForceSync(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
