package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"home-monitor-backend/config"
	"home-monitor-backend/internal/activitylog"
	"home-monitor-backend/internal/auth"
	"home-monitor-backend/internal/coordinator"
	"home-monitor-backend/internal/mw"
	"home-monitor-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, coor *coordinator.Coordinator, logs *activitylog.Reader, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, coor, logs,
		[]byte(cfg.Auth.JWTSecret),
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	// Cache only read endpoints whose staleness tolerance covers the TTL.
	// Device status is deliberately uncached.
	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Second
	}
	cacheStore := cache.New(cacheTTL, 10*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	requireAuth := auth.RequireAuth([]byte(cfg.Auth.JWTSecret))

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Device status and commands
		api.GET("/device/led/status", handler.GetLedStatus)
		api.GET("/esp32", handler.GetLedStatus) // legacy alias
		api.POST("/esp32", handler.PostCommand)
		api.POST("/device/led/toggle", handler.PostToggle)
		api.POST("/send-frame", handler.PostSendFrame)

		// Activity log
		api.GET("/log", caching, handler.GetLog)
		api.GET("/log/entries", handler.GetLogEntries)

		// Accounts
		api.POST("/register", handler.Register)
		api.POST("/login", handler.Login)
		api.GET("/users", requireAuth, caching, GetUsers(s.DB()))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
