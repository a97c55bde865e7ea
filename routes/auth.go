package routes

import (
	"kamianime/controllers"

	"github.com/gin-gonic/gin"
)

func SignUpRouteHandler(c *gin.Context) {
	controllers.Signup(c)
}

func LoginRouteHandler(c *gin.Context) {
	controllers.Login(c)
}

func MeRouteHandler(c *gin.Context) {
	controllers.Me(c)
}
