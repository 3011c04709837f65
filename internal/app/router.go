package app

import (
	"stride_backend/docs"
	"stride_backend/internal/config"
	"stride_backend/internal/middleware"
	"stride_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerPlannerRoutes(authGroup, c)
		a.registerCalendarRoutes(authGroup, c)
	}
}

func (a *App) registerPlannerRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.profile.GetProfile)
	rg.PUT("/profile", c.profile.UpdateProfile)

	// 储蓄目标
	goals := rg.Group("/goals")
	{
		goals.POST("", c.goal.CreateGoal)
		goals.GET("", c.goal.ListGoals)
		goals.GET("/:id", c.goal.GetGoal)
		goals.POST("/:id/activate", c.goal.ActivateGoal)
		goals.POST("/:id/pause", c.goal.PauseGoal)
		goals.POST("/:id/complete", c.goal.CompleteGoal)
		goals.POST("/:id/progress", c.goal.LogProgress)
		goals.POST("/:id/retroplan", c.retroplan.Generate)
	}

	// 能量
	rg.POST("/energy", c.energy.LogEnergy)
	rg.GET("/energy", c.energy.History)
	rg.GET("/energy/assessment", c.energy.Assess)
}

func (a *App) registerCalendarRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/academic-events", c.calendar.CreateEvent)
	rg.GET("/academic-events", c.calendar.ListEvents)
	rg.DELETE("/academic-events/:id", c.calendar.DeleteEvent)

	rg.POST("/commitments", c.calendar.CreateCommitment)
	rg.GET("/commitments", c.calendar.ListCommitments)
	rg.PUT("/commitments/:id", c.calendar.UpdateCommitment)
	rg.DELETE("/commitments/:id", c.calendar.DeleteCommitment)
}
