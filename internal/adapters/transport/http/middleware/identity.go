package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/duskmire/auth-service/internal/domain/auth/token"
)

// Context keys set by Identity for downstream middleware and handlers.
const (
	CtxUserID   = "auth.user_id"
	CtxUsername = "auth.username"
)

// Identity decodes a bearer access token, if one is present, and stashes the
// caller's identity in the request context. It never rejects: endpoints that
// require auth enforce it themselves, this only exists so the rate limiter
// can key authenticated traffic by user instead of by IP.
func Identity(codec token.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)
		if raw != "" {
			if claims, err := codec.Verify(raw, token.TypeAccess); err == nil {
				c.Set(CtxUserID, claims.Subject)
				c.Set(CtxUsername, claims.Username)
			}
		}
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header, accepting the
// scheme in any case.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	scheme, rest, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(rest)
}
