package routes

import (
	"campusdesk-be/controllers"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(api *gin.RouterGroup, ac *controllers.AuthController, requireAuth gin.HandlerFunc) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", ac.Register)
		auth.POST("/login", ac.Login)
		auth.POST("/google", ac.Google)
		auth.GET("/me", requireAuth, ac.Me)
		auth.GET("/profile", requireAuth, ac.Profile)
	}
}
