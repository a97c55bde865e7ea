package routes

import (
	"kamianime/controllers"

	"github.com/gin-gonic/gin"
)

func IngestWebhookRouteHandler(c *gin.Context) {
	controllers.IngestWebhook(c)
}

func IssueLinkCodeRouteHandler(c *gin.Context) {
	controllers.IssueLinkCode(c)
}

func RedeemLinkCodeRouteHandler(c *gin.Context) {
	controllers.RedeemLinkCode(c)
}

func UnlinkAccountRouteHandler(c *gin.Context) {
	controllers.UnlinkAccount(c)
}

func ForceSyncRouteHandler(c *gin.Context) {
	controllers.ForceSync(c)
}
