package routes

import (
	"kamianime/controllers"

	"github.com/gin-gonic/gin"
)

func LookupAnimeRouteHandler(c *gin.Context) {
	controllers.LookupAnime(c)
}

func LookupMangaRouteHandler(c *gin.Context) {
	controllers.LookupManga(c)
}
