package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/atelier-api/middleware"
)

// RegisterRoutes mounts the API under /api/v1. authenticate validates the
// bearer token; production passes middleware.EnsureValidToken.
func RegisterRoutes(router *gin.Engine, authenticate gin.HandlerFunc) {
	// Locally stored design images (only used when S3 is not configured)
	router.GET("/uploads/*key", GetUploadedImage)

	v1 := router.Group("/api/v1")
	authed := v1.Group("", authenticate)

	// Registration works before a users row exists
	authed.POST("/users", CreateUser)

	me := authed.Group("", middleware.RequireUser())
	{
		me.GET("/users/me", GetMyProfile)
		me.PUT("/users/me", UpdateMyProfile)
		me.GET("/me/bespoke-orders", ListMyBespokeOrders)
		me.GET("/me/bespoke-orders/:id", GetMyBespokeOrder)
		me.GET("/notifications", ListMyNotifications)
		me.PUT("/notifications/:id/read", MarkNotificationRead)
	}

	staff := authed.Group("", middleware.RequireRole(middleware.StaffRoles...))
	{
		staff.GET("/users/staff", ListStaff)
		staff.GET("/users/:id/measurements", ListUserMeasurements)

		staff.POST("/bespoke-orders", CreateBespokeOrder)
		staff.GET("/bespoke-orders", ListBespokeOrders)
		staff.GET("/bespoke-orders/:id", GetBespokeOrder)
		staff.PUT("/bespoke-orders/:id", UpdateBespokeOrder)
		staff.PUT("/bespoke-orders/:id/status", UpdateBespokeStatus)
		staff.GET("/bespoke-orders/:id/status-log", ListBespokeStatusLog)
		staff.POST("/bespoke-orders/:id/design-image", UploadDesignImage)
		staff.POST("/bespoke-orders/:id/tasks", CreateProductionTask)
		staff.GET("/bespoke-orders/:id/tasks", ListProductionTasks)

		staff.GET("/production-tasks/mine", ListMyProductionTasks)
		staff.GET("/production-tasks/:id", GetProductionTask)
		staff.PUT("/production-tasks/:id", UpdateProductionTask)
		staff.PUT("/production-tasks/:id/status", UpdateProductionTaskStatus)

		staff.POST("/measurements", CreateMeasurement)
		staff.GET("/measurements/:id", GetMeasurement)
	}

	admin := authed.Group("", middleware.RequireRole(middleware.AdminRoles...))
	{
		admin.DELETE("/bespoke-orders/:id", DeleteBespokeOrder)
		admin.DELETE("/production-tasks/:id", DeleteProductionTask)
		admin.PUT("/users/:id/role", UpdateUserRole)
	}
}
