package routes

import (
	"kamianime/controllers"

	"github.com/gin-gonic/gin"
)

func GetProfileRouteHandler(c *gin.Context) {
	controllers.GetProfile(c)
}

func UpdateProfileRouteHandler(c *gin.Context) {
	controllers.UpdateProfile(c)
}

func AddToWatchlistRouteHandler(c *gin.Context) {
	controllers.AddToWatchlist(c)
}

func RemoveFromWatchlistRouteHandler(c *gin.Context) {
	controllers.RemoveFromWatchlist(c)
}

func AddToMangaLibraryRouteHandler(c *gin.Context) {
	controllers.AddToMangaLibrary(c)
}

func RemoveFromMangaLibraryRouteHandler(c *gin.Context) {
	controllers.RemoveFromMangaLibrary(c)
}

func GetLeaderboardRouteHandler(c *gin.Context) {
	controllers.GetLeaderboard(c)
}
