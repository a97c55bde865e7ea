package routes

import (
	"kamianime/controllers"

	"github.com/gin-gonic/gin"
)

func WatchEpisodeRouteHandler(c *gin.Context) {
	controllers.WatchEpisode(c)
}

func ReadChapterRouteHandler(c *gin.Context) {
	controllers.ReadChapter(c)
}

func DailyLoginRouteHandler(c *gin.Context) {
	controllers.DailyLogin(c)
}

func GetBadgesRouteHandler(c *gin.Context) {
	controllers.GetBadges(c)
}
