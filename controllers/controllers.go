package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kamianime/anilist"
	"kamianime/apperr"
	"kamianime/internal/relay"
	"kamianime/mangadex"
	"kamianime/services"
	"kamianime/store"
)

// Env holds the wired services the handlers work against. Setup is called
// once from main before any route is registered.
type Env struct {
	Profiles     store.ProfileStore
	Guilds       store.GuildStore
	Gamification *services.GamificationService
	Linking      *services.LinkingService
	Sync         *services.SyncService
	Limiter      *relay.RateLimiter
	AniList      *anilist.Client
	MangaDex     *mangadex.Client
	JWTSecret    string
	JWTExpiry    time.Duration
	WebhookKey   string
}

var env Env

func Setup(e Env) {
	env = e
}

// writeError translates service errors into HTTP responses. Validation
// details are safe to echo; everything else maps to a status and a generic
// message so internals never leak.
func writeError(c *gin.Context, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperr.ErrExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Expired", "reason": "expired"})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflict"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUserID reads the authenticated user id set by AuthMiddleware.
func currentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return "", false
	}
	return userID.(string), true
}

// allowAction enforces the per-user action rate limit when a limiter is
// configured.
func allowAction(c *gin.Context, userID, action string) bool {
	if env.Limiter == nil {
		return true
	}
	ok, err := env.Limiter.Allow(c.Request.Context(), userID, action)
	if err != nil {
		// Redis being down must not take progression down with it.
		return true
	}
	if !ok {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
		return false
	}
	return true
}
