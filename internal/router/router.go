package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/coderunner-dash/internal/config"
	"github.com/stemsi/coderunner-dash/internal/handler"
	"github.com/stemsi/coderunner-dash/internal/middleware"
	"github.com/stemsi/coderunner-dash/internal/response"
	"github.com/stemsi/coderunner-dash/internal/session"
	"github.com/stemsi/coderunner-dash/internal/web"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Session   *handler.SessionHandler
	Dashboard *handler.DashboardHandler
	History   *handler.HistoryHandler
	WS        *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(store *session.Store, handlers *Handlers, cfg *config.Config) *gin.Engine {
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
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Embedded dashboard UI at the root.
	router.StaticFS("/app", http.FS(web.Assets()))
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/app/")
	})

	// Rate limiter shared by login and sync: both reach out to Moodle.
	limiter := middleware.NewRateLimiter(cfg.SyncRatePerMinute, time.Minute)

	// ─── 1. Public Group ───────────────────────────────────────────────
	public := router.Group("/api/v1")
	{
		public.GET("/session/defaults", handlers.Session.GetDefaults)
		public.POST("/session", limiter.Middleware(), handlers.Session.CreateSession)
	}

	// ─── 2. Session Group (Bearer Token) ───────────────────────────────
	authed := router.Group("/api/v1")
	authed.Use(middleware.RequireSession(cfg.JWTSecret, store))
	{
		authed.DELETE("/session", handlers.Session.DeleteSession)
		authed.PUT("/session/autosync", handlers.Session.UpdateAutoSync)

		authed.POST("/sync", limiter.Middleware(), handlers.Dashboard.Sync)
		authed.GET("/dashboard", handlers.Dashboard.GetDashboard)
		authed.GET("/dashboard/cached", handlers.Dashboard.GetCached)

		authed.GET("/history", handlers.History.List)
		authed.GET("/history/regressions", handlers.History.Regressions)
		authed.DELETE("/history", handlers.History.Reset)
	}

	// ─── 3. WebSocket Group (Token via Query) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireSessionQuery(cfg.JWTSecret, store))
	{
		ws.GET("/sync/stream", handlers.WS.SyncStream)
	}

	return router
}
