package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/duskmire/auth-service/internal/adapters/transport/http/dto"
	"github.com/duskmire/auth-service/internal/adapters/transport/http/middleware"
	"github.com/duskmire/auth-service/internal/app/auth/service"
	customErrors "github.com/duskmire/auth-service/internal/domain/auth/errors"
	"github.com/duskmire/auth-service/internal/domain/auth/model"
)

type Handler struct {
	svc service.Service
	log *zap.Logger
}

func NewHandler(svc service.Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Register(c *gin.Context) {
	var in dto.RegisterDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		h.abort(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	user, pair, err := h.svc.Register(c.Request.Context(), in, sessionMeta(c, ""))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse("registration successful", user, pair))
}

func (h *Handler) Login(c *gin.Context) {
	var in dto.LoginDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		h.abort(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), in, sessionMeta(c, in.DeviceInfo))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse("login successful", user, pair))
}

func (h *Handler) Refresh(c *gin.Context) {
	var in dto.RefreshDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		h.abort(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), in)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse(pair))
}

// Logout accepts an optional body and always responds 200: it must not be a
// token validity oracle.
func (h *Handler) Logout(c *gin.Context) {
	var in dto.LogoutDTO
	_ = c.ShouldBindJSON(&in)
	in.AccessToken = middleware.BearerToken(c)

	if err := h.svc.Logout(c.Request.Context(), in); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logout successful", "success": true})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var in dto.ChangePasswordDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		h.abort(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), currentUserID(c), in); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed", "success": true})
}

func (h *Handler) Me(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, userResponse(user))
}

func (h *Handler) Sessions(c *gin.Context) {
	sessions, err := h.svc.Sessions(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.abort(c, err)
		return
	}

	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, dto.SessionResponse{
			ID:           s.ID,
			DeviceInfo:   s.DeviceInfo,
			IPAddress:    s.IPAddress,
			UserAgent:    s.UserAgent,
			CreatedAt:    s.CreatedAt,
			ExpiresAt:    s.ExpiresAt,
			LastActivity: s.LastActivity,
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *Handler) RevokeSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.abort(c, customErrors.NewInvalidArgument("malformed session id"))
		return
	}

	if err := h.svc.RevokeSession(c.Request.Context(), currentUserID(c), sessionID); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session revoked", "success": true})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RequireAuth resolves the bearer token to a live user and aborts with 401
// when it cannot. The resolved user is stored for the handler.
func (h *Handler) RequireAuth(c *gin.Context) {
	raw := middleware.BearerToken(c)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	user, err := h.svc.Authenticate(c.Request.Context(), raw)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.Set(ctxAuthUser, user)
	c.Next()
}

const ctxAuthUser = "auth.user"

func currentUser(c *gin.Context) model.User {
	u, _ := c.MustGet(ctxAuthUser).(model.User)
	return u
}

func currentUserID(c *gin.Context) uuid.UUID {
	return currentUser(c).ID
}

func sessionMeta(c *gin.Context, deviceInfo string) dto.SessionMeta {
	return dto.SessionMeta{
		DeviceInfo: deviceInfo,
		IPAddress:  middleware.ClientIP(c),
		UserAgent:  c.Request.UserAgent(),
	}
}

func (h *Handler) abort(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		// do not leak internals
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case customErrors.IsInvalidArgument(err):
		return http.StatusBadRequest
	case customErrors.IsInvalidCredentials(err),
		customErrors.IsInvalidToken(err),
		customErrors.IsExpiredToken(err),
		customErrors.IsSessionRevoked(err):
		return http.StatusUnauthorized
	case customErrors.IsAccountLocked(err), customErrors.IsAccountNotActive(err):
		return http.StatusForbidden
	case customErrors.IsNotFound(err):
		return http.StatusNotFound
	case customErrors.IsAlreadyExists(err):
		return http.StatusConflict
	case customErrors.IsRateLimited(err):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func authResponse(message string, user model.User, pair model.TokenPair) dto.AuthResponse {
	return dto.AuthResponse{
		Message: message,
		Success: true,
		User:    userResponse(user),
		Tokens:  tokenResponse(pair),
	}
}

func userResponse(u model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		Role:          string(u.Role),
		Status:        string(u.Status),
		IsVerified:    u.IsVerified,
		MaxCharacters: u.MaxCharacters,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
	}
}

func tokenResponse(pair model.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(pair.AccessTTL.Seconds()),
	}
}
