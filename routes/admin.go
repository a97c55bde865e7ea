package routes

import (
	"kamianime/controllers"

	"github.com/gin-gonic/gin"
)

func SetPremiumRouteHandler(c *gin.Context) {
	controllers.SetPremium(c)
}

func SetAdminRouteHandler(c *gin.Context) {
	controllers.SetAdmin(c)
}

func AdminAwardXPRouteHandler(c *gin.Context) {
	controllers.AdminAwardXP(c)
}

func UpsertGuildRouteHandler(c *gin.Context) {
	controllers.UpsertGuild(c)
}

func AdminForceSyncRouteHandler(c *gin.Context) {
	controllers.AdminForceSync(c)
}

func AdminIssueLinkCodeRouteHandler(c *gin.Context) {
	controllers.AdminIssueLinkCode(c)
}
