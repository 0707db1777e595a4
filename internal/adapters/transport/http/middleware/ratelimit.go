package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duskmire/auth-service/internal/app/ratelimit"
	"github.com/duskmire/auth-service/internal/infra/config"
)

// RateLimit applies the global per-caller quota: authenticated requests are
// keyed by user id, anonymous ones by client IP, each with its own limit.
// Health checks pass through untouched.
func RateLimit(l *ratelimit.Limiter, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		key, authenticated := callerKey(c)
		limit := cfg.AnonRateLimit
		if authenticated {
			limit = cfg.UserRateLimit
		}

		d := l.Check(c.Request.Context(), key, limit, cfg.RateLimitWindow)
		writeLimitHeaders(c, d)
		if !d.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// EndpointRateLimit layers a tighter quota on one route, counted in its own
// scope so it never eats into the global budget.
func EndpointRateLimit(l *ratelimit.Limiter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, _ := callerKey(c)
		d := l.Check(c.Request.Context(), scope+":"+key, limit, window)
		if !d.Allowed {
			writeLimitHeaders(c, d)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func callerKey(c *gin.Context) (string, bool) {
	if uid := c.GetString(CtxUserID); uid != "" {
		return "user:" + uid, true
	}
	return "ip:" + ClientIP(c), false
}

func writeLimitHeaders(c *gin.Context, d ratelimit.Decision) {
	h := c.Writer.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
	if !d.Allowed {
		h.Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds())))
	}
}
