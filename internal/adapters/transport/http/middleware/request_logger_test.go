package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/duskmire/auth-service/internal/adapters/transport/http/middleware"
)

func TestRequestLogger_CompletedAndAborted(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestLogger(zap.New(core)))
	r.Use(func(c *gin.Context) {
		if c.Query("deny") != "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "denied"})
			return
		}
		c.Next()
	})
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, logs.FilterMessage("completed").Len())
	require.Equal(t, 0, logs.FilterMessage("aborted").Len())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping?deny=1", nil))
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, 1, logs.FilterMessage("aborted").Len())
	// the short-circuited request must not also be reported as completed
	require.Equal(t, 1, logs.FilterMessage("completed").Len())
}

func TestRequestLogger_RequestIDHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestLogger(zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
