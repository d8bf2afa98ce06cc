package router

import "github.com/gin-gonic/gin"

func (r *Router) userRoutes(version *gin.RouterGroup) {
	users := version.Group("/users")
	{
		// All user routes require JWT authentication
		users.Use(r.jwtMw.RequireAuth())
		{
			users.GET("/profile", r.userHandler.GetProfile)
			users.PUT("/profile", r.userHandler.UpdateProfile)
			users.POST("/change-password", r.userHandler.ChangePassword)

			// Public fields only
			users.GET("/:id", r.userHandler.GetPublicUser)
		}
	}
}
