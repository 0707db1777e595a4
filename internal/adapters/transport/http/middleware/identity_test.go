package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/duskmire/auth-service/internal/adapters/transport/http/middleware"
	apptoken "github.com/duskmire/auth-service/internal/app/auth/token"
	"github.com/duskmire/auth-service/internal/domain/auth/token"
	"github.com/duskmire/auth-service/internal/infra/config"
)

func TestIdentity_SetsCallerFromBearer(t *testing.T) {
	cfg := &config.Config{
		JWTSecret:   "test-secret",
		JWTIssuer:   "duskmire",
		JWTAudience: "duskmire-game",
	}
	codec := apptoken.NewCodec(cfg)
	userID := uuid.New()
	access, _, err := codec.Mint(userID, "bob", token.TypeAccess, time.Minute)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Identity(codec))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middleware.CtxUserID))
	})

	// the scheme is matched case-insensitively
	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", scheme+" "+access)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, userID.String(), w.Body.String(), "scheme %q", scheme)
	}

	// garbage and missing headers leave the caller anonymous
	for _, header := range []string{"", "Bearer garbage", "Basic dXNlcg=="} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Empty(t, w.Body.String(), "header %q", header)
	}
}
