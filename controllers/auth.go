package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"kamianime/models"
	"kamianime/utils"
)

type signupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup registers a new account and returns a session token. The profile
// starts at zero XP with no streak.
func Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signup payload", "message": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = utils.ExtractNameFromEmail(email)
	}

	now := time.Now().UTC()
	profile := models.UserProfile{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  displayName,
		Badges:       []string{},
		Watchlist:    []string{},
		MangaLibrary: []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := env.Profiles.Create(c.Request.Context(), &profile); err != nil {
		writeError(c, err)
		return
	}

	token, err := utils.GenerateJWTToken(env.JWTSecret, profile.ID.Hex(), email, false, env.JWTExpiry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "profile": profile})
}

// Login verifies credentials and returns a session token.
func Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid login payload"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	profile, err := env.Profiles.GetByEmail(c.Request.Context(), email)
	if err != nil {
		// Same response for unknown email and wrong password.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !utils.CheckPasswordHash(req.Password, profile.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := utils.GenerateJWTToken(env.JWTSecret, profile.ID.Hex(), email, profile.IsAdmin, env.JWTExpiry)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "profile": profile})
}

// Me returns the authenticated user's own profile.
func Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	profile, err := env.Profiles.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
