package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duskmire/auth-service/internal/adapters/transport/http/middleware"
	"github.com/duskmire/auth-service/internal/app/ratelimit"
	"github.com/duskmire/auth-service/internal/domain/auth/token"
	"github.com/duskmire/auth-service/internal/infra/config"
)

// Credential endpoints get much tighter quotas than the global one, each
// counted in its own scope.
const (
	sensitiveWindow = 5 * time.Minute

	registerLimit       = 10
	loginLimit          = 20
	refreshLimit        = 50
	changePasswordLimit = 5
)

func NewRouter(
	h *Handler,
	codec token.Codec,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
	log *zap.Logger,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Security(cfg.BlockedIPs, log))
	r.Use(cors.New(corsConfig(cfg)))
	r.Use(middleware.Identity(codec))
	r.Use(middleware.RateLimit(limiter, cfg))

	r.GET("/health", h.Health)

	auth := r.Group("/auth")
	{
		auth.POST("/register",
			middleware.EndpointRateLimit(limiter, "register", registerLimit, sensitiveWindow),
			h.Register)
		auth.POST("/login",
			middleware.EndpointRateLimit(limiter, "login", loginLimit, sensitiveWindow),
			h.Login)
		auth.POST("/refresh",
			middleware.EndpointRateLimit(limiter, "refresh", refreshLimit, sensitiveWindow),
			h.Refresh)
		// logout is deliberately open: a client holding a stale token must
		// still be able to call it
		auth.POST("/logout", h.Logout)

		auth.POST("/change-password",
			middleware.EndpointRateLimit(limiter, "change_password", changePasswordLimit, sensitiveWindow),
			h.RequireAuth,
			h.ChangePassword)
		auth.GET("/me", h.RequireAuth, h.Me)
		auth.GET("/sessions", h.RequireAuth, h.Sessions)
		auth.DELETE("/sessions/:id", h.RequireAuth, h.RevokeSession)
	}

	return r
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		c.AllowOrigins = cfg.AllowedOrigins
		c.AllowCredentials = cfg.AllowCredentials
	} else {
		// credentials cannot be combined with a wildcard origin
		c.AllowAllOrigins = true
	}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	c.ExposeHeaders = []string{
		"X-Request-ID",
		"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset",
		"Retry-After",
	}
	c.MaxAge = 24 * time.Hour
	return c
}
