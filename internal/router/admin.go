package router

import "github.com/gin-gonic/gin"

func (r *Router) adminRoutes(version *gin.RouterGroup) {
	admin := version.Group("/admin")
	admin.Use(r.jwtMw.RequireAuth(), r.jwtMw.RequireAdmin())
	{
		admin.GET("/dashboard", r.adminHandler.Dashboard)

		users := admin.Group("/users")
		{
			users.GET("", r.adminHandler.ListUsers)
			users.GET("/:id", r.adminHandler.GetUser)
			users.PUT("/:id", r.adminHandler.UpdateUser)
			users.DELETE("/:id", r.adminHandler.DeleteUser)
			users.POST("/:id/toggle-admin", r.adminHandler.ToggleAdmin)
			users.GET("/:id/audit", r.adminHandler.AuditTrail)
		}
	}
}
