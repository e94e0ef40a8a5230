package server

import (
	"time"

	"vod-catalog/infrastructure/metrics"
	"vod-catalog/infrastructure/realtime"
	httpHandler "vod-catalog/interfaces/http"
	"vod-catalog/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func InitiateRouter(
	catalogHandler httpHandler.ICatalogHandler,
	scrollHandler httpHandler.IScrollHandler,
	adminHandler httpHandler.IAdminHandler,
	snapshotHub *realtime.Hub,
	allowOrigins []string,
	secretKey string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", catalogHandler.Healthz)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("api")
	api.GET("/status", catalogHandler.Status)

	videos := api.Group("/videos")
	{
		videos.GET("", catalogHandler.ListVideos)
		videos.GET("/:id", catalogHandler.GetVideo)
		videos.GET("/:id/related", catalogHandler.RelatedVideos)
	}
	api.GET("/search", catalogHandler.SearchVideos)

	categories := api.Group("/categories")
	{
		categories.GET("", catalogHandler.Categories)
		categories.GET("/:category", catalogHandler.CategoryVideos)
		categories.GET("/:category/more", catalogHandler.MoreInCategory)
	}
	api.GET("/pages", catalogHandler.Pages)
	api.GET("/filters/:filter", catalogHandler.FilterPage)

	if scrollHandler != nil {
		scroll := api.Group("/scroll")
		{
			scroll.POST("", scrollHandler.CreateSession)
			scroll.GET("/:id", scrollHandler.GetSession)
			scroll.POST("/:id/next", scrollHandler.NextPage)
			scroll.POST("/:id/position", scrollHandler.ReportPosition)
		}
	}

	// SSE stream of homepage snapshot growth
	if snapshotHub != nil {
		api.GET("/stream", snapshotHub.Serve)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuth(secretKey))
	{
		admin.DELETE("/cache", adminHandler.ClearCache)
		admin.POST("/purge", adminHandler.PurgeExpired)
	}

	return router
}
