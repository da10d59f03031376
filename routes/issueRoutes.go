package routes

import (
	"campusdesk-be/controllers"
	"campusdesk-be/middlewares"
	"campusdesk-be/models"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes. Role checks on the edit and delete
// families only pick the family; the service still decides ownership.
func IssueRoutes(api *gin.RouterGroup, ic *controllers.IssueController, requireAuth, limitSubmissions gin.HandlerFunc) {
	issues := api.Group("/issues", requireAuth)
	{
		issues.POST("", limitSubmissions, ic.Create)
		issues.GET("", ic.List)
		issues.GET("/stats", ic.Stats)
		issues.PATCH("/:id", ic.UpdateStatus)

		admin := middlewares.RequireRole(models.RoleAdmin)
		issues.PATCH("/edit/:id", admin, ic.Edit)
		issues.DELETE("/:id", admin, ic.Delete)

		student := middlewares.RequireRole(models.RoleStudent)
		issues.PATCH("/student/edit/:id", student, ic.Edit)
		issues.DELETE("/student/:id", student, ic.Delete)
	}
}
