package controllers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"kamianime/services"
)

// IngestWebhook is the bot platform's ingress. The API key rides in the body
// envelope; replayed event ids are answered 200 without reapplying.
func IngestWebhook(c *gin.Context) {
	var envelope services.WebhookEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}
	if err := env.Sync.IngestWebhook(c.Request.Context(), envelope); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "applied"})
}

// IssueLinkCode creates a linking code for the authenticated web user to type
// into Discord.
func IssueLinkCode(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	code, err := env.Linking.IssueLinkingCode(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": code.Code, "expiresAt": code.ExpiresAt})
}

type redeemLinkRequest struct {
	Code          string `json:"code" binding:"required"`
	DiscordUserID string `json:"discordUserId" binding:"required"`
	APIKey        string `json:"apiKey" binding:"required"`
}

// RedeemLinkCode is called by the bot when a Discord user submits a code.
// It authenticates with the shared webhook key, not a user session.
func RedeemLinkCode(c *gin.Context) {
	var req redeemLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid link payload"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(env.WebhookKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	profile, err := env.Linking.RedeemLinkingCode(c.Request.Context(), req.Code, req.DiscordUserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UnlinkAccount removes the caller's Discord association.
func UnlinkAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := env.Linking.Unlink(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unlinked"})
}

// ForceSync republishes the caller's authoritative profile snapshot to both
// platforms.
func ForceSync(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	profile, err := env.Sync.ForceSync(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
