package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/quizdrill/quizdrill-backend/internal/config"
	"github.com/quizdrill/quizdrill-backend/internal/handler"
	"github.com/quizdrill/quizdrill-backend/internal/middleware"
	"github.com/quizdrill/quizdrill-backend/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Bank    *handler.BankHandler
	Session *handler.SessionHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Serve question page images statically with aggressive caching
	// (1 year) — the bank builder names them content-stably per page.
	imagesGroup := router.Group("/output")
	imagesGroup.Use(middleware.CacheControl(31536000))
	{
		imagesGroup.Static("/", cfg.ImageDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// The API serves local single-user traffic; the limiter only guards
	// against a runaway client loop.
	apiLimiter := middleware.NewRateLimiter(600, time.Minute)

	api := router.Group("/api/v1")
	api.Use(apiLimiter.Middleware())

	// ─── Bank (read-only) ──────────────────────────────────────────────
	bankAPI := api.Group("/bank")
	{
		bankAPI.GET("/subjects", handlers.Bank.GetSubjects)
		bankAPI.GET("/subjects/:subject/chapters", handlers.Bank.GetChapters)
		bankAPI.GET("/questions/*id", handlers.Bank.GetQuestion)
	}

	// ─── Session engine ────────────────────────────────────────────────
	sessionAPI := api.Group("/session")
	{
		sessionAPI.GET("", handlers.Session.GetState)
		sessionAPI.PUT("/filters", handlers.Session.UpdateFilters)
		sessionAPI.POST("/next", handlers.Session.Next)
		sessionAPI.POST("/prev", handlers.Session.Prev)
		sessionAPI.POST("/jump", handlers.Session.Jump)
		sessionAPI.POST("/answer", handlers.Session.Submit)
		sessionAPI.POST("/reset", handlers.Session.Reset)
		sessionAPI.POST("/image", handlers.Session.ToggleImage)
	}

	return router
}
