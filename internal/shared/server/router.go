package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vidscope-backend/internal/analyses"
	googleauth "vidscope-backend/internal/auth"
	"vidscope-backend/internal/catalog"
	"vidscope-backend/internal/media"
	"vidscope-backend/internal/session"
	"vidscope-backend/internal/shared/config"
	"vidscope-backend/internal/shared/metrics"
	"vidscope-backend/internal/shared/server/middleware"
	"vidscope-backend/internal/shared/server/respond"
	"vidscope-backend/internal/usage"
	"vidscope-backend/internal/users"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config          config.Config
	CatalogHandler  *catalog.Handler
	MediaHandler    *media.Handler
	AnalysisHandler *analyses.Handler
	SessionHandler  *session.Handler
	UsageHandler    *usage.Handler
	UsersHandler    *users.Handler
	GoogleAuth      *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(rateLimitConfig()),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	deps.CatalogHandler.RegisterRoutes(api)
	deps.MediaHandler.RegisterRoutes(api)
	deps.AnalysisHandler.RegisterRoutes(api)
	deps.SessionHandler.RegisterRoutes(api)
	deps.UsageHandler.RegisterRoutes(api)
	if deps.Config.Env == "dev" {
		dev := api.Group("/dev")
		deps.UsageHandler.RegisterDevRoutes(dev)
	}

	return r
}

// Polling GETs get a looser budget than mutating calls.
func rateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"polling": {Rate: 10, Burst: 20},
			"default": {Rate: 2, Burst: 10},
		},
		DefaultGroup: "default",
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet && strings.HasPrefix(c.FullPath(), "/api/v1/analyses") {
				return "polling"
			}
			return "default"
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
