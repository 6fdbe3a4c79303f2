package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/config"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/handler"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/middleware"
	"github.com/Jeremyslen/tesa-syllabus-monitor/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Sync  *handler.SyncHandler
	Class *handler.ClassHandler
	Term  *handler.TermHandler
	Stats *handler.StatsHandler
	Token *handler.TokenHandler
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

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	// ─── Read surface ──────────────────────────────────────────────────
	// The dashboard polls these; responses come straight from storage and
	// may be briefly cached by the browser.
	reads := api.Group("")
	reads.Use(middleware.CacheControl(30))
	{
		reads.GET("/terms", handlers.Term.ListTerms)
		reads.GET("/terms/:id/classes", handlers.Class.ListByTerm)
		reads.GET("/terms/:id/programs", handlers.Term.ListProgramsByTerm)
		reads.GET("/programs", handlers.Term.ListPrograms)
		reads.GET("/classes/:id", handlers.Class.GetClass)
		reads.GET("/stats", handlers.Stats.Overview)
		reads.GET("/sync/status", handlers.Sync.SyncStatus)
	}

	// ─── Sync triggers ─────────────────────────────────────────────────
	// Each run hammers upstream for minutes, so triggers are rate limited
	// per IP on top of the per-term lock.
	syncLimiter := middleware.NewRateLimiter(10, time.Minute)
	triggers := api.Group("")
	triggers.Use(syncLimiter.Middleware())
	{
		triggers.POST("/sync/terms", handlers.Sync.SyncTerms)
		triggers.POST("/sync/classes", handlers.Sync.SyncClasses)
		triggers.POST("/sync/purge", handlers.Sync.PurgeCache)
		triggers.POST("/classes/:id/refresh", handlers.Class.RefreshClass)
	}

	// ─── Token management ──────────────────────────────────────────────
	api.GET("/auth/token", handlers.Token.TokenStatus)
	api.PUT("/auth/token", handlers.Token.SetToken)

	return router
}
