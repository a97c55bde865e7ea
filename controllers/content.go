package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// LookupAnime resolves an AniList media id to its display title, for the
// frontend and the bot to label watchlist entries.
func LookupAnime(c *gin.Context) {
	mediaID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid anime id"})
		return
	}

	title, err := env.AniList.AnimeTitle(c.Request.Context(), mediaID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Anime lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": mediaID, "title": title})
}

// LookupManga resolves a MangaDex manga id to its display title.
func LookupManga(c *gin.Context) {
	mangaID := c.Param("id")
	if mangaID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid manga id"})
		return
	}

	title, err := env.MangaDex.MangaTitle(c.Request.Context(), mangaID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Manga lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": mangaID, "title": title})
}
