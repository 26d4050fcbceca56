package main

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pavitra93/dealer-management-api/shared/metrics"
	"github.com/pavitra93/dealer-management-api/shared/middleware"
	"github.com/pavitra93/dealer-management-api/shared/models"
	"github.com/pavitra93/dealer-management-api/shared/utils"
)

func newRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Dealer management API is healthy", nil)
	})
	router.GET("/api-status", func(c *gin.Context) {
		utils.OKResponse(c, "API is running", gin.H{
			"env":       a.cfg.Env,
			"timestamp": time.Now().UTC(),
		})
	})
	router.GET("/metrics", metrics.Handler())

	// Public tracking link
	router.GET("/l/:linkHash", handleTrackLink(a))

	requireAuth := a.authMW.RequireAuth()
	admins := middleware.RequireRole(models.RoleProducerAdmin, models.RoleDealerAdmin)

	v1 := router.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/login", handleLogin(a))
		authRoutes.POST("/logout", handleLogout())
		authRoutes.POST("/users", requireAuth, admins, handleCreateUser(a))
		authRoutes.PATCH("/change-password", requireAuth, handleChangePassword(a))
	}

	orders := v1.Group("/orders")
	orders.Use(requireAuth)
	{
		orders.GET("", handleGetOrders(a))
		orders.POST("", handleCreateOrder(a))
		orders.PATCH("/:id/status", handleUpdateOrderStatus(a))
	}

	appointments := v1.Group("/appointments")
	appointments.Use(requireAuth)
	{
		appointments.GET("", handleGetAppointments(a))
		appointments.POST("", handleCreateAppointment(a))
		appointments.PATCH("/:id/status", handleUpdateAppointmentStatus(a))
	}

	dealers := v1.Group("/dealers")
	dealers.Use(requireAuth)
	{
		dealers.GET("", handleGetDealers(a))
		dealers.GET("/:id", handleGetDealer(a))
		dealers.POST("", middleware.RequireRole(models.RoleProducerAdmin), handleCreateDealer(a))
	}

	analyticsRoutes := v1.Group("/analytics")
	{
		analyticsRoutes.GET("/stats/:tenantId", requireAuth, handleGetDealerStats(a))
		analyticsRoutes.GET("/:linkHash", handleTrackLink(a))
	}

	files := v1.Group("/storage")
	files.Use(requireAuth, admins)
	{
		files.POST("/upload", handleUpload(a))
		files.DELETE("/delete", handleDeleteFile(a))
	}

	return router
}
