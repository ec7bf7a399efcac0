// Package api assembles the gin router for the media-monitor service.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/media-monitor/internal/handlers"
	"github.com/jonesrussell/north-cloud/media-monitor/internal/logger"
)

const corsMaxAgeHours = 12

// Config holds the router's external inputs.
type Config struct {
	CORSOrigins []string
	// PreviewsDir is served statically under /previews so preview
	// references resolve for clients.
	PreviewsDir string
}

func NewRouter(
	media *handlers.MediaHandler,
	errs *handlers.ErrorsHandler,
	cfg Config,
	log logger.Logger,
) *gin.Engine {
	router := gin.New()

	// CORS middleware - must be first
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"Authorization", "accept", "origin", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeHours * time.Hour,
	}))

	// Middleware
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Generated previews are plain files; serve them directly.
	router.Static("/previews", cfg.PreviewsDir)

	api := router.Group("/api")

	mediaGroup := api.Group("/media")
	mediaGroup.POST("/check-status", media.CheckStatus)
	mediaGroup.POST("/generate-thumbnail", media.GenerateThumbnail)
	mediaGroup.GET("/watch", media.ListWatched)
	mediaGroup.POST("/watch", media.Watch)
	mediaGroup.DELETE("/watch", media.Unwatch)
	mediaGroup.DELETE("/watch/all", media.StopAll)
	mediaGroup.POST("/watch/reset", media.ResetPreview)

	api.POST("/errors/report", errs.Report)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", statusCode),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", duration),
		)
	}
}
